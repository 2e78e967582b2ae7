package model

// ChunkRecord is the unit of retrievable knowledge flowing through the
// pipeline: written by the collector, enriched by the embedder, uploaded by
// the indexer. The JSON field layout is the on-disk line format and must not
// change.
type ChunkRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Embedding []float32 `json:"embedding,omitempty"`
}
