package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/LUBTFY/agent-starter-pack/internal/ai"
	"github.com/LUBTFY/agent-starter-pack/internal/config"
	"github.com/LUBTFY/agent-starter-pack/internal/model"
	apperrors "github.com/LUBTFY/agent-starter-pack/internal/pkg/errors"
	"github.com/LUBTFY/agent-starter-pack/internal/recordio"
)

const (
	embedMaxAttempts  = 5
	embedInitialDelay = time.Second
)

type Embedder struct {
	cfg      *config.Config
	embedder ai.IEmbedder
	sleep    func(time.Duration)
}

func NewEmbedder(cfg *config.Config, embedder ai.IEmbedder) *Embedder {
	return &Embedder{cfg: cfg, embedder: embedder, sleep: time.Sleep}
}

// Run streams chunk records, embeds them in file-order batches, and writes
// each fully embedded batch immediately so partial progress survives a crash.
// A batch whose retries are exhausted is dropped: its records are absent from
// the output, by design. Callers that need completeness reconcile by id.
func (e *Embedder) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	writer, err := recordio.NewWriter(e.cfg.EmbeddedFile)
	if err != nil {
		return err
	}
	defer writer.Close()

	logger.Info("starting embedding generation",
		zap.String("model", e.embedder.ModelName()),
		zap.Int("batch_size", e.cfg.Embedding.BatchSize))

	var batch []*model.ChunkRecord
	written, dropped := 0, 0
	flushBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := e.processBatch(ctx, writer, batch)
		if err != nil {
			return err
		}
		written += n
		dropped += len(batch) - n
		batch = batch[:0]
		return nil
	}

	err = recordio.ForEach(e.cfg.IngestedFile, func(rec *model.ChunkRecord) error {
		batch = append(batch, rec)
		if len(batch) >= e.cfg.Embedding.BatchSize {
			return flushBatch()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flushBatch(); err != nil {
		return err
	}
	logger.Info("embedding complete",
		zap.Int("embedded", written),
		zap.Int("dropped", dropped),
		zap.String("output", e.cfg.EmbeddedFile))
	return nil
}

// processBatch embeds one batch and streams it out. Retry exhaustion is
// logged and swallowed (the run continues); only I/O errors are fatal.
func (e *Embedder) processBatch(ctx context.Context, writer *recordio.Writer, batch []*model.ChunkRecord) (int, error) {
	logger := logutil.GetLogger(ctx)
	texts := make([]string, 0, len(batch))
	for _, rec := range batch {
		texts = append(texts, rec.Text)
	}
	vectors, err := e.embedWithRetry(ctx, texts)
	if err != nil {
		ids := make([]string, 0, len(batch))
		for _, rec := range batch {
			ids = append(ids, rec.ID)
		}
		logger.Warn("batch dropped after retry exhaustion",
			zap.Int("size", len(batch)),
			zap.Strings("ids", ids),
			zap.Error(err))
		return 0, nil
	}
	for i, rec := range batch {
		rec.Embedding = vectors[i]
		if err := writer.Write(rec); err != nil {
			return 0, fmt.Errorf("write embedded record %s: %w", rec.ID, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// embedWithRetry retries up to 5 attempts with exponential backoff starting
// at 1s and doubling each time (1,2,4,8,16).
func (e *Embedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	logger := logutil.GetLogger(ctx)
	delay := embedInitialDelay
	var lastErr error
	for attempt := 1; attempt <= embedMaxAttempts; attempt++ {
		vectors, err := e.embedder.Embed(ctx, texts, ai.TaskTypeDocument)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
			}
			return vectors, nil
		}
		lastErr = err
		logger.Warn("embedding request failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))
		e.sleep(delay)
		delay *= 2
	}
	return nil, fmt.Errorf("%w: %v", apperrors.ErrExhausted, lastErr)
}
