package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LUBTFY/agent-starter-pack/internal/config"
	apperrors "github.com/LUBTFY/agent-starter-pack/internal/pkg/errors"
	"github.com/LUBTFY/agent-starter-pack/internal/recordio"
)

func collectConfig(t *testing.T, sources []string, chunkSize int, overlap int) *config.Config {
	t.Helper()
	return &config.Config{
		Sources:      sources,
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
		IngestedFile: filepath.Join(t.TempDir(), "ingested.jsonl"),
	}
}

func TestCollectorChunksAndLabels(t *testing.T) {
	// 120 chars with no separators, size 50 / overlap 10 -> three chunks.
	content := strings.Repeat("a", 40) + strings.Repeat("b", 40) + strings.Repeat("c", 40)
	cfg := collectConfig(t, []string{"https://example.com/docs"}, 50, 10)
	c := NewCollector(cfg, func(ctx context.Context, rawURL string) (string, error) {
		return content, nil
	})

	require.NoError(t, c.Run(context.Background()))

	records, err := recordio.ReadAll(cfg.IngestedFile)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		require.NotEmpty(t, rec.ID)
		require.Equal(t, "https://example.com/docs", rec.Source)
		require.Equal(t, "example.com", rec.Title)
		require.Nil(t, rec.Embedding)
	}
}

func TestCollectorIDsAreUnique(t *testing.T) {
	cfg := collectConfig(t, []string{"https://a.test/1", "https://a.test/2"}, 10, 0)
	c := NewCollector(cfg, func(ctx context.Context, rawURL string) (string, error) {
		return strings.Repeat("x", 55), nil
	})

	require.NoError(t, c.Run(context.Background()))

	records, err := recordio.ReadAll(cfg.IngestedFile)
	require.NoError(t, err)
	if len(records) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(records))
	}
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if seen[rec.ID] {
			t.Fatalf("duplicate chunk id %s", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestCollectorSkipsFailingSources(t *testing.T) {
	cfg := collectConfig(t, []string{
		"https://broken.test",
		"https://github.com/some/repo",
		"https://good.test",
	}, 100, 0)
	c := NewCollector(cfg, func(ctx context.Context, rawURL string) (string, error) {
		switch {
		case strings.Contains(rawURL, "broken"):
			return "", fmt.Errorf("connection refused")
		case strings.Contains(rawURL, "github.com"):
			return "", apperrors.ErrSkipped
		default:
			return "usable content", nil
		}
	})

	require.NoError(t, c.Run(context.Background()))

	records, err := recordio.ReadAll(cfg.IngestedFile)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "https://good.test", records[0].Source)
	require.Equal(t, "usable content", records[0].Text)
}

func TestCollectorRewritesOutputFromScratch(t *testing.T) {
	cfg := collectConfig(t, []string{"https://a.test"}, 100, 0)

	first := NewCollector(cfg, func(ctx context.Context, rawURL string) (string, error) {
		return "old run", nil
	})
	require.NoError(t, first.Run(context.Background()))

	second := NewCollector(cfg, func(ctx context.Context, rawURL string) (string, error) {
		return "new run", nil
	})
	require.NoError(t, second.Run(context.Background()))

	records, err := recordio.ReadAll(cfg.IngestedFile)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "new run", records[0].Text)
}
