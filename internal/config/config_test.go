package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"project": "demo", "sources": ["https://a.test"]}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 1000, cfg.ChunkSize)
	require.Equal(t, 100, cfg.ChunkOverlap)
	require.Equal(t, "ingested_data.jsonl", cfg.IngestedFile)
	require.Equal(t, "embedded_data.jsonl", cfg.EmbeddedFile)
	require.Equal(t, 5, cfg.Embedding.BatchSize)
	require.Equal(t, 768, cfg.Embedding.Dimensions)
	require.Equal(t, "text-embedding-004", cfg.Embedding.Model)
	require.Equal(t, "demo-vector-search-data", cfg.ObjectStore.Bucket)
	require.Equal(t, "my_rag_index", cfg.Index.IndexDisplayName)
	require.Equal(t, "my_rag_endpoint", cfg.Index.EndpointDisplayName)
	require.Equal(t, 150, cfg.Index.ApproximateNeighbors)
	require.Equal(t, "DOT_PRODUCT_DISTANCE", cfg.Index.DistanceMetric)
	require.Equal(t, "n1-standard-16", cfg.Index.MachineType)
	require.Equal(t, 1, cfg.Index.MinReplicas)
	require.Equal(t, 2, cfg.Index.MaxReplicas)
	require.Equal(t, 3, cfg.Index.TopK)
}

func TestLoadFileValuesStick(t *testing.T) {
	path := writeConfig(t, `{
		"chunk_size": 500,
		"chunk_overlap": 50,
		"embedding": {"batch_size": 10, "model": "custom-embed"},
		"index": {"index_display_name": "docs_index"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 500, cfg.ChunkSize)
	require.Equal(t, 50, cfg.ChunkOverlap)
	require.Equal(t, 10, cfg.Embedding.BatchSize)
	require.Equal(t, "custom-embed", cfg.Embedding.Model)
	require.Equal(t, "docs_index", cfg.Index.IndexDisplayName)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "250")
	t.Setenv("CHUNK_OVERLAP", "25")
	t.Setenv("GCS_BUCKET_NAME", "env-bucket")
	t.Setenv("INDEX_DISPLAY_NAME", "env_index")
	t.Setenv("EMBEDDING_BATCH_SIZE", "not a number")

	path := writeConfig(t, `{
		"chunk_size": 500,
		"embedding": {"batch_size": 9},
		"object_store": {"bucket": "file-bucket"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 250, cfg.ChunkSize)
	require.Equal(t, 25, cfg.ChunkOverlap)
	require.Equal(t, "env-bucket", cfg.ObjectStore.Bucket)
	require.Equal(t, "env_index", cfg.Index.IndexDisplayName)
	// Unparseable numeric overrides are ignored.
	require.Equal(t, 9, cfg.Embedding.BatchSize)
}

func TestLoadRejectsOverlapNotSmallerThanSize(t *testing.T) {
	path := writeConfig(t, `{"chunk_size": 100, "chunk_overlap": 100}`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "chunk_overlap")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
