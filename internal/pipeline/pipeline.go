package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FranksOps/curator/internal/report"
	"github.com/FranksOps/curator/internal/storage"
	"github.com/FranksOps/curator/internal/youtube"
	"github.com/google/uuid"
)

// Searcher discovers raw search hits for a topic.
type Searcher interface {
	Search(ctx context.Context, topic string) []youtube.SearchItem
}

// DetailResolver turns a video id into a record, or nil when it cannot.
type DetailResolver interface {
	Details(ctx context.Context, id string) *storage.VideoMetrics
}

// Exporter persists one batch of records.
type Exporter interface {
	Export(ctx context.Context, records []*storage.VideoMetrics, topic string) report.Result
}

// Outcome summarizes one run.
type Outcome struct {
	RunID   string
	Topic   string
	Found   int // search hits before filtering
	Skipped int // hits without an id, duplicates and failed lookups
	Records []*storage.VideoMetrics
	Export  report.Result
}

// Pipeline orchestrates the three stages of a run: search, detail
// resolution and export. Stages execute sequentially.
type Pipeline struct {
	Searcher Searcher
	Resolver DetailResolver
	Exporter Exporter
	Logger   *slog.Logger
}

// Run executes the pipeline for topic. It returns an error only if a
// required component is missing or ctx is canceled, in which case nothing
// is exported.
func (p *Pipeline) Run(ctx context.Context, topic string) (*Outcome, error) {
	if p.Searcher == nil {
		return nil, errors.New("pipeline: Searcher is nil")
	}
	if p.Resolver == nil {
		return nil, errors.New("pipeline: Resolver is nil")
	}
	if p.Exporter == nil {
		return nil, errors.New("pipeline: Exporter is nil")
	}

	out := &Outcome{RunID: uuid.NewString(), Topic: topic}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", out.RunID, "topic", topic)

	// Stage 1: search
	items := p.Searcher.Search(ctx, topic)
	out.Found = len(items)
	logger.Info("search complete", "items", len(items))
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("pipeline: %w", err)
	}

	// Stage 2: details, one at a time in discovery order
	seen := make(map[string]struct{}, len(items))
	records := make([]*storage.VideoMetrics, 0, len(items))
	for _, item := range items {
		id := item.ID.VideoID
		if id == "" {
			out.Skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			out.Skipped++
			continue
		}
		seen[id] = struct{}{}

		rec := p.Resolver.Details(ctx, id)
		if err := ctx.Err(); err != nil {
			out.Records = records
			return out, fmt.Errorf("pipeline: %w", err)
		}
		if rec == nil {
			out.Skipped++
			continue
		}
		records = append(records, rec)
	}
	out.Records = records
	logger.Info("details resolved", "records", len(records), "skipped", out.Skipped)

	// Stage 3: export
	out.Export = p.Exporter.Export(ctx, records, topic)
	return out, nil
}
