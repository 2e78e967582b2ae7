package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LUBTFY/agent-starter-pack/internal/config"
	"github.com/LUBTFY/agent-starter-pack/internal/model"
	"github.com/LUBTFY/agent-starter-pack/internal/recordio"
)

type fakeEmbedder struct {
	calls   [][]string
	failAll bool
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedding-001" }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.failAll {
		return nil, fmt.Errorf("backend overloaded")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), float32(i)}
	}
	return vectors, nil
}

func embedConfig(t *testing.T, batchSize int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		IngestedFile: filepath.Join(dir, "ingested.jsonl"),
		EmbeddedFile: filepath.Join(dir, "embedded.jsonl"),
		Embedding:    config.EmbeddingConfig{BatchSize: batchSize},
	}
}

func writeChunks(t *testing.T, path string, n int) []*model.ChunkRecord {
	t.Helper()
	w, err := recordio.NewWriter(path)
	require.NoError(t, err)
	records := make([]*model.ChunkRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := &model.ChunkRecord{
			ID:     fmt.Sprintf("id-%d", i),
			Text:   fmt.Sprintf("chunk number %d", i),
			Source: "https://a.test",
			Title:  "a.test",
		}
		require.NoError(t, w.Write(rec))
		records = append(records, rec)
	}
	require.NoError(t, w.Close())
	return records
}

func TestEmbedderBatchesInFileOrder(t *testing.T) {
	cfg := embedConfig(t, 5)
	input := writeChunks(t, cfg.IngestedFile, 7)

	fake := &fakeEmbedder{}
	e := NewEmbedder(cfg, fake)
	e.sleep = func(time.Duration) {}

	require.NoError(t, e.Run(context.Background()))

	// 7 records at batch size 5 must produce exactly two calls: 5 then 2.
	require.Len(t, fake.calls, 2)
	require.Len(t, fake.calls[0], 5)
	require.Len(t, fake.calls[1], 2)

	out, err := recordio.ReadAll(cfg.EmbeddedFile)
	require.NoError(t, err)
	require.Len(t, out, 7)
	for i, rec := range out {
		require.Equal(t, input[i].ID, rec.ID)
		require.Equal(t, input[i].Text, rec.Text)
		require.Len(t, rec.Embedding, 2)
	}
}

func TestEmbedderRetriesWithBackoffThenDropsBatch(t *testing.T) {
	cfg := embedConfig(t, 5)
	writeChunks(t, cfg.IngestedFile, 3)

	fake := &fakeEmbedder{failAll: true}
	e := NewEmbedder(cfg, fake)
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }

	// Exhaustion drops the batch but must not fail the run.
	require.NoError(t, e.Run(context.Background()))

	require.Len(t, fake.calls, 5)
	require.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, slept)

	out, err := recordio.ReadAll(cfg.EmbeddedFile)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestEmbedderDroppedBatchDoesNotStopRun(t *testing.T) {
	cfg := embedConfig(t, 5)
	input := writeChunks(t, cfg.IngestedFile, 7)

	// Calls 2..6 are the five attempts of the second batch; the first batch
	// succeeds and must already be on disk.
	calls := 0
	e := NewEmbedder(cfg, embedFunc(func(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
		calls++
		if calls == 1 {
			vectors := make([][]float32, len(texts))
			for i := range texts {
				vectors[i] = []float32{1}
			}
			return vectors, nil
		}
		return nil, fmt.Errorf("backend overloaded")
	}))
	e.sleep = func(time.Duration) {}

	require.NoError(t, e.Run(context.Background()))
	require.Equal(t, 6, calls)

	out, err := recordio.ReadAll(cfg.EmbeddedFile)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i, rec := range out {
		require.Equal(t, input[i].ID, rec.ID)
	}
}

type embedFunc func(ctx context.Context, texts []string, taskType string) ([][]float32, error)

func (f embedFunc) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	return f(ctx, texts, taskType)
}

func (embedFunc) ModelName() string { return "fake-embedding-001" }
