package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/LUBTFY/agent-starter-pack/internal/pipeline"
)

// IngestJob runs the three offline stages in strict sequence. A failing stage
// aborts the run; the next scheduled run starts over from collection.
type IngestJob struct {
	collector *pipeline.Collector
	embedder  *pipeline.Embedder
	indexer   *pipeline.Indexer
}

func NewIngestJob(collector *pipeline.Collector, embedder *pipeline.Embedder, indexer *pipeline.Indexer) *IngestJob {
	return &IngestJob{collector: collector, embedder: embedder, indexer: indexer}
}

func (j *IngestJob) Name() string {
	return "ingest"
}

func (j *IngestJob) Run(ctx context.Context) error {
	if err := j.collector.Run(ctx); err != nil {
		return err
	}
	if err := j.embedder.Run(ctx); err != nil {
		return err
	}
	result, err := j.indexer.Run(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("ingest pipeline complete",
		zap.String("endpoint_id", result.EndpointID),
		zap.String("deployment_id", result.DeploymentID))
	return nil
}
