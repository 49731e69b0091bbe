package jsonbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/FranksOps/curator/internal/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

type jsonBackend struct {
	path string
}

// New creates a JSON-backed storage.Backend writing a pretty-printed array
// of records to filePath.
func New(filePath string) storage.Backend {
	return &jsonBackend{path: filePath}
}

func (b *jsonBackend) Path() string { return b.path }

func (b *jsonBackend) Save(ctx context.Context, records []*storage.VideoMetrics) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("json save: %w", err)
	}

	// An empty batch must still encode as [] rather than null.
	out := make([]*storage.VideoMetrics, 0, len(records))
	for _, r := range records {
		if r.Tags == nil {
			cp := *r
			cp.Tags = []string{}
			r = &cp
		}
		out = append(out, r)
	}

	f, err := os.Create(b.path)
	if err != nil {
		return fmt.Errorf("json save: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		f.Close()
		return fmt.Errorf("json save: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("json save: %w", err)
	}
	return nil
}

func (b *jsonBackend) Load(ctx context.Context) ([]*storage.VideoMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("json load: %w", err)
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("json load: %w", err)
	}

	var records []*storage.VideoMetrics
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("json load: %w", err)
	}
	if records == nil {
		records = []*storage.VideoMetrics{}
	}
	return records, nil
}
