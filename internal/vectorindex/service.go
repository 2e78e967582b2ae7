// Package vectorindex abstracts the ANN index/serving service the pipeline
// converges and the retrieval tool queries. Two backends ship: a REST client
// for a managed matching-engine style service, and a pgvector-backed local
// implementation.
package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/LUBTFY/agent-starter-pack/internal/config"
)

type Index struct {
	ID          string
	DisplayName string
	// DeployedTo lists endpoint ids this index is currently deployed on.
	DeployedTo []string
}

type Endpoint struct {
	ID          string
	DisplayName string
}

type Neighbor struct {
	Distance float64
	Metadata map[string]string
}

type CreateIndexRequest struct {
	DisplayName          string
	SourceURI            string
	Dimensions           int
	ApproximateNeighbors int
	DistanceMetric       string
}

type DeployRequest struct {
	IndexID      string
	EndpointID   string
	DeploymentID string
	MachineType  string
	MinReplicas  int
	MaxReplicas  int
}

// Service is the ANN index/serving contract. CreateIndex and Deploy block
// until the remote operation completes.
type Service interface {
	ListIndexes(ctx context.Context) ([]Index, error)
	CreateIndex(ctx context.Context, req CreateIndexRequest) (Index, error)
	ListEndpoints(ctx context.Context) ([]Endpoint, error)
	CreateEndpoint(ctx context.Context, displayName string, public bool) (Endpoint, error)
	Deploy(ctx context.Context, req DeployRequest) error
	// FindNeighbors returns one result set per query vector, each holding up
	// to k neighbors ordered by ascending distance.
	FindNeighbors(ctx context.Context, endpointID, deploymentID string, vectors [][]float32, k int, returnMetadata bool) ([][]Neighbor, error)
}

type Factory func(args interface{}) (Service, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.VectorIndexConfig) (Service, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("vector_index.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector index type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("vector index config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector index config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector index config: %w", err)
	}
	return nil
}
