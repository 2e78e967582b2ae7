package pipeline

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/LUBTFY/agent-starter-pack/internal/config"
	"github.com/LUBTFY/agent-starter-pack/internal/objstore"
	"github.com/LUBTFY/agent-starter-pack/internal/vectorindex"
)

type Indexer struct {
	cfg   *config.Config
	store objstore.Store
	svc   vectorindex.Service
	now   func() time.Time
}

// Result reports the serving identity the run converged to. DeploymentID is
// empty when an existing deployment was reused via the short-circuit.
type Result struct {
	EndpointID   string
	DeploymentID string
}

func NewIndexer(cfg *config.Config, store objstore.Store, svc vectorindex.Service) *Indexer {
	return &Indexer{cfg: cfg, store: store, svc: svc, now: time.Now}
}

// Run converges towards "index exists and is deployed" idempotently: upload
// unless the object already exists, reuse index and endpoint by display name,
// deploy only when the index is not already deployed somewhere. Any resource
// failure is returned as-is; there is no rollback.
func (ix *Indexer) Run(ctx context.Context) (*Result, error) {
	uri, err := ix.upload(ctx)
	if err != nil {
		return nil, err
	}
	return ix.converge(ctx, uri)
}

func (ix *Indexer) upload(ctx context.Context) (string, error) {
	logger := logutil.GetLogger(ctx)
	bucket := ix.cfg.ObjectStore.Bucket
	key := path.Join(ix.cfg.ObjectStore.Folder, filepath.Base(ix.cfg.EmbeddedFile))

	exists, err := ix.store.BucketExists(ctx, bucket)
	if err != nil {
		return "", err
	}
	if !exists {
		logger.Info("bucket not found, creating", zap.String("bucket", bucket))
		if err := ix.store.CreateBucket(ctx, bucket, ix.cfg.Location); err != nil {
			return "", err
		}
	}

	objExists, err := ix.store.ObjectExists(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	if objExists {
		logger.Info("object already exists, skipping upload",
			zap.String("bucket", bucket), zap.String("key", key))
	} else {
		logger.Info("uploading embedded records",
			zap.String("file", ix.cfg.EmbeddedFile),
			zap.String("bucket", bucket), zap.String("key", key))
		if err := ix.store.Upload(ctx, bucket, key, ix.cfg.EmbeddedFile); err != nil {
			return "", err
		}
	}
	return ix.store.URI(bucket, key), nil
}

func (ix *Indexer) converge(ctx context.Context, sourceURI string) (*Result, error) {
	logger := logutil.GetLogger(ctx)
	indexName := ix.cfg.Index.IndexDisplayName

	index, err := ix.findIndex(ctx, indexName)
	if err != nil {
		return nil, err
	}
	if index != nil && len(index.DeployedTo) > 0 {
		// Already deployed: no rebuild, even if the underlying data changed.
		// Refreshing a live corpus requires a new display name.
		logger.Info("index already deployed, reusing endpoint",
			zap.String("index", indexName),
			zap.String("endpoint_id", index.DeployedTo[0]))
		return &Result{EndpointID: index.DeployedTo[0]}, nil
	}
	if index == nil {
		logger.Info("creating index", zap.String("display_name", indexName), zap.String("source_uri", sourceURI))
		created, err := ix.svc.CreateIndex(ctx, vectorindex.CreateIndexRequest{
			DisplayName:          indexName,
			SourceURI:            sourceURI,
			Dimensions:           ix.cfg.Embedding.Dimensions,
			ApproximateNeighbors: ix.cfg.Index.ApproximateNeighbors,
			DistanceMetric:       ix.cfg.Index.DistanceMetric,
		})
		if err != nil {
			return nil, fmt.Errorf("create index %s: %w", indexName, err)
		}
		index = &created
		logger.Info("index created", zap.String("index_id", index.ID))
	} else {
		logger.Info("found existing undeployed index, reusing", zap.String("index_id", index.ID))
	}

	endpoint, err := ix.findEndpoint(ctx, ix.cfg.Index.EndpointDisplayName)
	if err != nil {
		return nil, err
	}
	if endpoint == nil {
		logger.Info("creating endpoint", zap.String("display_name", ix.cfg.Index.EndpointDisplayName))
		created, err := ix.svc.CreateEndpoint(ctx, ix.cfg.Index.EndpointDisplayName, true)
		if err != nil {
			return nil, fmt.Errorf("create endpoint %s: %w", ix.cfg.Index.EndpointDisplayName, err)
		}
		endpoint = &created
	} else {
		logger.Info("found existing endpoint, reusing", zap.String("endpoint_id", endpoint.ID))
	}

	deploymentID := ix.deploymentID(indexName)
	logger.Info("deploying index",
		zap.String("index_id", index.ID),
		zap.String("endpoint_id", endpoint.ID),
		zap.String("deployment_id", deploymentID))
	err = ix.svc.Deploy(ctx, vectorindex.DeployRequest{
		IndexID:      index.ID,
		EndpointID:   endpoint.ID,
		DeploymentID: deploymentID,
		MachineType:  ix.cfg.Index.MachineType,
		MinReplicas:  ix.cfg.Index.MinReplicas,
		MaxReplicas:  ix.cfg.Index.MaxReplicas,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy index %s: %w", index.ID, err)
	}
	logger.Info("index deployment complete", zap.String("endpoint_id", endpoint.ID))
	return &Result{EndpointID: endpoint.ID, DeploymentID: deploymentID}, nil
}

func (ix *Indexer) findIndex(ctx context.Context, displayName string) (*vectorindex.Index, error) {
	indexes, err := ix.svc.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range indexes {
		if indexes[i].DisplayName == displayName {
			return &indexes[i], nil
		}
	}
	return nil, nil
}

func (ix *Indexer) findEndpoint(ctx context.Context, displayName string) (*vectorindex.Endpoint, error) {
	endpoints, err := ix.svc.ListEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	for i := range endpoints {
		if endpoints[i].DisplayName == displayName {
			return &endpoints[i], nil
		}
	}
	return nil, nil
}

// deploymentID is display-name derived and time-suffixed to avoid collisions
// across redeploys.
func (ix *Indexer) deploymentID(indexName string) string {
	return fmt.Sprintf("deployed_%s_%d", strings.ReplaceAll(indexName, "_", ""), ix.now().Unix())
}
