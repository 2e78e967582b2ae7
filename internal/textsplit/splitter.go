// Package textsplit implements recursive character splitting: fixed-size
// chunks with a configured overlap, cutting at the largest semantic boundary
// available (paragraph, line, sentence, word) before falling back to a hard
// character cut.
package textsplit

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// separators in decreasing semantic weight.
var separators = []string{"\n\n", "\n", ". ", " "}

type Splitter struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

func (s *Splitter) ChunkSize() int { return s.chunkSize }
func (s *Splitter) Overlap() int   { return s.overlap }

// Split cuts text into chunks of at most ChunkSize characters, where
// consecutive chunks share at most Overlap characters. Sizes are measured in
// runes so multi-byte text never gets cut mid-character.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}
	if total <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < total {
		end := start + s.chunkSize
		if end >= total {
			chunks = append(chunks, string(runes[start:total]))
			break
		}
		cut := s.findCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - s.overlap
		if next <= start {
			// Overlap would stall the scan; step past the cut instead.
			next = cut
		}
		start = next
	}
	return chunks
}

// findCut picks the cut position in (start, end]: the end of the last
// occurrence of the most significant separator in the second half of the
// window, or a hard cut at end when no separator is present.
func (s *Splitter) findCut(runes []rune, start, end int) int {
	window := string(runes[start:end])
	lo := len([]rune(window)) / 2
	for _, sep := range separators {
		idx := lastRuneIndex(window, sep)
		if idx >= lo {
			return start + idx + len([]rune(sep))
		}
	}
	return end
}

// lastRuneIndex returns the rune offset of the last occurrence of sep in str,
// or -1 when absent.
func lastRuneIndex(str, sep string) int {
	byteIdx := strings.LastIndex(str, sep)
	if byteIdx < 0 {
		return -1
	}
	return len([]rune(str[:byteIdx]))
}
