package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/xxxsen/common/logger"
)

// Config is constructed once at process start and passed by reference into
// each pipeline stage. Values come from the JSON config file, then the
// environment overrides recognized by ApplyEnv.
type Config struct {
	Project      string            `json:"project"`
	Location     string            `json:"location"`
	Sources      []string          `json:"sources"`
	ChunkSize    int               `json:"chunk_size"`
	ChunkOverlap int               `json:"chunk_overlap"`
	IngestedFile string            `json:"ingested_file"`
	EmbeddedFile string            `json:"embedded_file"`
	Embedding    EmbeddingConfig   `json:"embedding"`
	ObjectStore  ObjectStoreConfig `json:"object_store"`
	Index        IndexConfig       `json:"index"`
	VectorIndex  VectorIndexConfig `json:"vector_index"`
	WebSearch    WebSearchConfig   `json:"web_search"`
	Agent        AgentConfig       `json:"agent"`
	Server       ServerConfig      `json:"server"`
	IngestCron   string            `json:"ingest_cron"`
	LogConfig    logger.LogConfig  `json:"log_config"`
}

type EmbeddingConfig struct {
	Provider        string      `json:"provider"`
	Model           string      `json:"model"`
	BatchSize       int         `json:"batch_size"`
	Dimensions      int         `json:"dimensions"`
	CacheSize       int         `json:"cache_size"`
	CacheTTLSeconds int         `json:"cache_ttl_seconds"`
	Data            interface{} `json:"data"`
}

type ObjectStoreConfig struct {
	Type   string      `json:"type"`
	Bucket string      `json:"bucket"`
	Folder string      `json:"folder"`
	Data   interface{} `json:"data"`
}

type IndexConfig struct {
	IndexDisplayName     string `json:"index_display_name"`
	EndpointDisplayName  string `json:"endpoint_display_name"`
	ApproximateNeighbors int    `json:"approximate_neighbors"`
	DistanceMetric       string `json:"distance_metric"`
	MachineType          string `json:"machine_type"`
	MinReplicas          int    `json:"min_replicas"`
	MaxReplicas          int    `json:"max_replicas"`
	// Query-side identity, filled in after the first deploy.
	EndpointID   string `json:"endpoint_id"`
	DeploymentID string `json:"deployment_id"`
	TopK         int    `json:"top_k"`
}

type VectorIndexConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type WebSearchConfig struct {
	APIKey   string `json:"api_key"`
	EngineID string `json:"engine_id"`
}

// AgentConfig names the hosted generation model sub-agent delegation runs
// on; empty disables the delegation tools.
type AgentConfig struct {
	Model string `json:"model"`
}

type ServerConfig struct {
	Port          int      `json:"port"`
	JWTSecret     string   `json:"jwt_secret"`
	CORSAllowlist []string `json:"cors_allowlist"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overlays the recognized environment options on top of the file
// values. Environment wins over file so one deployment artifact can serve
// several runs.
func (c *Config) ApplyEnv() {
	envInt("CHUNK_SIZE", &c.ChunkSize)
	envInt("CHUNK_OVERLAP", &c.ChunkOverlap)
	envInt("EMBEDDING_BATCH_SIZE", &c.Embedding.BatchSize)
	envInt("EMBEDDING_DIMENSIONS", &c.Embedding.Dimensions)
	envString("GCS_BUCKET_NAME", &c.ObjectStore.Bucket)
	envString("GCS_UPLOAD_FOLDER", &c.ObjectStore.Folder)
	envString("INDEX_DISPLAY_NAME", &c.Index.IndexDisplayName)
	envString("ENDPOINT_DISPLAY_NAME", &c.Index.EndpointDisplayName)
	envString("PROJECT_ID", &c.Project)
	envString("REGION", &c.Location)
}

func (c *Config) applyDefaults() error {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 100
	}
	if c.IngestedFile == "" {
		c.IngestedFile = "ingested_data.jsonl"
	}
	if c.EmbeddedFile == "" {
		c.EmbeddedFile = "embedded_data.jsonl"
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 5
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-004"
	}
	if c.ObjectStore.Bucket == "" && c.Project != "" {
		c.ObjectStore.Bucket = c.Project + "-vector-search-data"
	}
	if c.ObjectStore.Folder == "" {
		c.ObjectStore.Folder = "vector_search/embedded_chunks"
	}
	if c.Index.IndexDisplayName == "" {
		c.Index.IndexDisplayName = "my_rag_index"
	}
	if c.Index.EndpointDisplayName == "" {
		c.Index.EndpointDisplayName = "my_rag_endpoint"
	}
	if c.Index.ApproximateNeighbors == 0 {
		c.Index.ApproximateNeighbors = 150
	}
	if c.Index.DistanceMetric == "" {
		c.Index.DistanceMetric = "DOT_PRODUCT_DISTANCE"
	}
	if c.Index.MachineType == "" {
		c.Index.MachineType = "n1-standard-16"
	}
	if c.Index.MinReplicas == 0 {
		c.Index.MinReplicas = 1
	}
	if c.Index.MaxReplicas == 0 {
		c.Index.MaxReplicas = 2
	}
	if c.Index.TopK == 0 {
		c.Index.TopK = 3
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be smaller than chunk_size")
	}
	return nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}
