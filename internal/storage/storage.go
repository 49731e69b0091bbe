package storage

import (
	"context"
	"time"
)

// UnknownTopic is recorded when the upstream item carries no category.
const UnknownTopic = "Unknown"

// PublishedLayout is the textual form of PublishedAt in every export format.
const PublishedLayout = time.RFC3339

// VideoMetrics is the normalized metadata and statistics of one video.
// Values are built once by the detail resolver and not mutated afterwards.
type VideoMetrics struct {
	VideoID        string    `json:"video_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PublishedAt    time.Time `json:"published_at"`
	Duration       string    `json:"duration"` // ISO-8601, e.g. "PT4M13S"
	ViewCount      int64     `json:"view_count"`
	LikeCount      int64     `json:"like_count"`
	CommentCount   int64     `json:"comment_count"`
	Tags           []string  `json:"tags"`
	Topic          string    `json:"topic"`
	EngagementRate float64   `json:"engagement_rate"`
}

// Backend writes a batch of records to a single export file and reads it back.
type Backend interface {
	// Save replaces the file contents with the given records, in order.
	Save(ctx context.Context, records []*VideoMetrics) error
	Load(ctx context.Context) ([]*VideoMetrics, error)
	Path() string
}
