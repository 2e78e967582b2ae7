package recordio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LUBTFY/agent-starter-pack/internal/model"
)

func TestWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(&model.ChunkRecord{ID: "1", Text: "hello", Source: "https://a", Title: "a"}))
	require.NoError(t, w.Write(&model.ChunkRecord{ID: "2", Text: "world", Source: "https://a", Title: "a", Embedding: []float32{0.1, 0.2}}))
	require.NoError(t, w.Close())

	records, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "hello", records[0].Text)
	require.Nil(t, records[0].Embedding)
	require.Equal(t, []float32{0.1, 0.2}, records[1].Embedding)
}

func TestEmbeddingOmittedWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(&model.ChunkRecord{ID: "1", Text: "x", Source: "s", Title: "t"}))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))
	require.Equal(t, `{"id":"1","text":"x","source":"s","title":"t"}`, line)
}

func TestWriterTruncatesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0o644))

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(&model.ChunkRecord{ID: "1", Text: "fresh", Source: "s", Title: "t"}))
	require.NoError(t, w.Close())

	records, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "fresh", records[0].Text)
}

func TestForEachStopsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	w, err := NewWriter(path)
	require.NoError(t, err)
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, w.Write(&model.ChunkRecord{ID: id, Text: id, Source: "s", Title: "t"}))
	}
	require.NoError(t, w.Close())

	seen := 0
	err = ForEach(path, func(rec *model.ChunkRecord) error {
		seen++
		if rec.ID == "2" {
			return os.ErrInvalid
		}
		return nil
	})
	require.ErrorIs(t, err, os.ErrInvalid)
	require.Equal(t, 2, seen)
}
