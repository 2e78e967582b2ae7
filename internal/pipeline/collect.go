// Package pipeline holds the three offline batch stages: collect, embed,
// index. Stages communicate only through the record files; each stage is a
// single sequential run-to-completion job.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/LUBTFY/agent-starter-pack/internal/config"
	"github.com/LUBTFY/agent-starter-pack/internal/model"
	apperrors "github.com/LUBTFY/agent-starter-pack/internal/pkg/errors"
	"github.com/LUBTFY/agent-starter-pack/internal/recordio"
	"github.com/LUBTFY/agent-starter-pack/internal/source"
	"github.com/LUBTFY/agent-starter-pack/internal/textsplit"
)

// FetchFunc fetches one source URL and returns its plain text.
type FetchFunc func(ctx context.Context, rawURL string) (string, error)

// TitleFunc derives the human-readable label for a source URL.
type TitleFunc func(rawURL string) string

type Collector struct {
	cfg      *config.Config
	fetch    FetchFunc
	title    TitleFunc
	splitter *textsplit.Splitter
}

func NewCollector(cfg *config.Config, fetch FetchFunc) *Collector {
	return &Collector{
		cfg:      cfg,
		fetch:    fetch,
		title:    source.Title,
		splitter: textsplit.New(cfg.ChunkSize, cfg.ChunkOverlap),
	}
}

// Run fetches every configured source URL in order, splits the content into
// chunks, and rewrites the chunk-record file from scratch. A failing URL is
// logged and skipped; it never aborts the batch.
func (c *Collector) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	writer, err := recordio.NewWriter(c.cfg.IngestedFile)
	if err != nil {
		return err
	}
	defer writer.Close()

	total := 0
	for _, rawURL := range c.cfg.Sources {
		logger.Info("ingesting source", zap.String("url", rawURL))
		content, err := c.fetch(ctx, rawURL)
		if err != nil {
			if apperrors.IsSkipped(err) {
				logger.Info("source kind not supported, skipping", zap.String("url", rawURL))
			} else {
				logger.Warn("fetch failed, skipping source", zap.String("url", rawURL), zap.Error(err))
			}
			continue
		}
		if content == "" {
			logger.Warn("source produced no content", zap.String("url", rawURL))
			continue
		}
		chunks := c.splitter.Split(content)
		title := c.title(rawURL)
		for _, chunk := range chunks {
			rec := &model.ChunkRecord{
				ID:     uuid.NewString(),
				Text:   chunk,
				Source: rawURL,
				Title:  title,
			}
			if err := writer.Write(rec); err != nil {
				return fmt.Errorf("write chunk for %s: %w", rawURL, err)
			}
		}
		total += len(chunks)
		logger.Info("source ingested", zap.String("url", rawURL), zap.Int("chunks", len(chunks)))
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	logger.Info("collection complete",
		zap.Int("sources", len(c.cfg.Sources)),
		zap.Int("chunks", total),
		zap.String("output", c.cfg.IngestedFile))
	return nil
}
