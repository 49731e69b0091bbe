package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/curator/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	path string
}

// Headers defines the CSV column order. Downstream consumers depend on it.
var Headers = []string{
	"Video ID",
	"Title",
	"Published Date",
	"Views",
	"Likes",
	"Comments",
	"Engagement Rate",
	"Tags",
}

const tagSeparator = ", "

// New creates a CSV-backed storage.Backend writing to filePath.
// The file is not touched until Save is called.
func New(filePath string) storage.Backend {
	return &csvBackend{path: filePath}
}

func (b *csvBackend) Path() string { return b.path }

func (b *csvBackend) Save(ctx context.Context, records []*storage.VideoMetrics) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("csv save: %w", err)
	}

	f, err := os.Create(b.path)
	if err != nil {
		return fmt.Errorf("csv save: %w", err)
	}

	if err := write(f, records); err != nil {
		f.Close()
		return fmt.Errorf("csv save: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("csv save: %w", err)
	}
	return nil
}

func write(w io.Writer, records []*storage.VideoMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.VideoID,
			r.Title,
			r.PublishedAt.Format(storage.PublishedLayout),
			strconv.FormatInt(r.ViewCount, 10),
			strconv.FormatInt(r.LikeCount, 10),
			strconv.FormatInt(r.CommentCount, 10),
			FormatRate(r.EngagementRate),
			strings.Join(r.Tags, tagSeparator),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatRate renders an engagement rate as a percentage with two decimals.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}

func (b *csvBackend) Load(ctx context.Context) ([]*storage.VideoMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("csv load: %w", err)
	}

	f, err := os.Open(b.path)
	if err != nil {
		return nil, fmt.Errorf("csv load: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []*storage.VideoMetrics{}, nil
		}
		return nil, fmt.Errorf("csv load: %w", err)
	}
	if len(header) != len(Headers) {
		return nil, fmt.Errorf("csv load: unexpected header %q", header)
	}

	records := []*storage.VideoMetrics{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv load: %w", err)
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv load: row for %q: %w", row[0], err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// parseRow reverses write. Description, duration and topic are not part of
// the tabular format and stay empty.
func parseRow(row []string) (*storage.VideoMetrics, error) {
	published, err := time.Parse(storage.PublishedLayout, row[2])
	if err != nil {
		return nil, err
	}
	views, err := strconv.ParseInt(row[3], 10, 64)
	if err != nil {
		return nil, err
	}
	likes, err := strconv.ParseInt(row[4], 10, 64)
	if err != nil {
		return nil, err
	}
	comments, err := strconv.ParseInt(row[5], 10, 64)
	if err != nil {
		return nil, err
	}
	rate, err := strconv.ParseFloat(strings.TrimSuffix(row[6], "%"), 64)
	if err != nil {
		return nil, err
	}

	tags := []string{}
	if row[7] != "" {
		tags = strings.Split(row[7], tagSeparator)
	}

	return &storage.VideoMetrics{
		VideoID:        row[0],
		Title:          row[1],
		PublishedAt:    published,
		ViewCount:      views,
		LikeCount:      likes,
		CommentCount:   comments,
		EngagementRate: rate,
		Tags:           tags,
	}, nil
}
