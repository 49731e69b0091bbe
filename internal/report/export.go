package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FranksOps/curator/internal/metrics"
	"github.com/FranksOps/curator/internal/storage"
	"github.com/FranksOps/curator/internal/storage/csvbackend"
	"github.com/FranksOps/curator/internal/storage/jsonbackend"
)

// TimestampLayout names report files; second precision.
const TimestampLayout = "20060102_150405"

// ExportError reports a single output file that could not be written.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("report: export %s to %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Result describes the files produced by one Export call. A nil error field
// means that file was written.
type Result struct {
	CSVPath  string
	JSONPath string
	CSVErr   error
	JSONErr  error
}

// Exporter writes each batch as a CSV and a JSON report under one directory.
type Exporter struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithClock overrides the time source used to stamp file names.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// NewExporter creates dir, including parents, and returns an Exporter for it.
func NewExporter(dir string, logger *slog.Logger, opts ...Option) (*Exporter, error) {
	if dir == "" {
		return nil, fmt.Errorf("report: output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create output dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Exporter{dir: dir, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// Paths returns the CSV and JSON paths for topic stamped at t.
func (e *Exporter) Paths(topic string, t time.Time) (string, string) {
	base := fmt.Sprintf("%s_report_%s", fileSafe(topic), t.Format(TimestampLayout))
	return filepath.Join(e.dir, base+".csv"), filepath.Join(e.dir, base+".json")
}

// Export writes records to both formats. The writes are independent: a
// failure is logged and recorded in the Result, and never stops the other.
// Nil entries are skipped.
func (e *Exporter) Export(ctx context.Context, records []*storage.VideoMetrics, topic string) Result {
	records = compact(records)
	csvPath, jsonPath := e.Paths(topic, e.now())
	res := Result{CSVPath: csvPath, JSONPath: jsonPath}

	res.CSVErr = e.write(ctx, "csv", csvbackend.New(csvPath), records)
	res.JSONErr = e.write(ctx, "json", jsonbackend.New(jsonPath), records)
	return res
}

func (e *Exporter) write(ctx context.Context, format string, b storage.Backend, records []*storage.VideoMetrics) error {
	err := b.Save(ctx, records)
	metrics.RecordExport(format, err)
	if err != nil {
		exportErr := &ExportError{Format: format, Path: b.Path(), Err: err}
		e.logger.Error("report export failed", "format", format, "path", b.Path(), "error", err)
		return exportErr
	}
	e.logger.Info("report exported", "format", format, "path", b.Path(), "records", len(records))
	return nil
}

func compact(records []*storage.VideoMetrics) []*storage.VideoMetrics {
	out := make([]*storage.VideoMetrics, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// fileSafe keeps a topic from escaping the output directory.
func fileSafe(topic string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, topic)
}
