package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) ModelName() string { return "count-embed" }

func (c *countingEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(c.calls)}
	}
	return out, nil
}

func TestSingleTextCallsAreCached(t *testing.T) {
	inner := &countingEmbedder{}
	e := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := e.Embed(context.Background(), []string{"hello"}, "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), []string{"hello"}, "RETRIEVAL_QUERY")
	require.NoError(t, err)

	require.Equal(t, 1, inner.calls)
	require.Equal(t, first, second)

	// Mutating the returned slice must not poison the cache.
	second[0][0] = 99
	third, err := e.Embed(context.Background(), []string{"hello"}, "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, float32(1), third[0][0])
}

func TestTaskTypeKeysAreSeparate(t *testing.T) {
	inner := &countingEmbedder{}
	e := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	_, err := e.Embed(context.Background(), []string{"hello"}, "RETRIEVAL_QUERY")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), []string{"hello"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestBatchCallsBypassCache(t *testing.T) {
	inner := &countingEmbedder{}
	e := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := e.Embed(context.Background(), []string{"a", "b"}, "RETRIEVAL_DOCUMENT")
		require.NoError(t, err)
	}
	require.Equal(t, 3, inner.calls)
}

func TestWrapDisabledReturnsInner(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 16, 0))
	require.Nil(t, WrapLruCacheToEmbedder(nil, 16, time.Minute))
}
