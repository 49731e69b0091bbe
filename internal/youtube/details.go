package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/FranksOps/curator/internal/metrics"
	"github.com/FranksOps/curator/internal/storage"
)

// The details response is decoded into pointer fields so that absent and
// empty values can be told apart during validation.
type videoListResponse struct {
	Items []videoResource `json:"items"`
}

type videoResource struct {
	ID             string          `json:"id"`
	Snippet        *videoSnippet   `json:"snippet"`
	ContentDetails *contentDetails `json:"contentDetails"`
	Statistics     *statistics     `json:"statistics"`
}

type videoSnippet struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	PublishedAt *string  `json:"publishedAt"`
	Tags        []string `json:"tags"`
	CategoryID  *string  `json:"categoryId"`
}

type contentDetails struct {
	Duration *string `json:"duration"`
}

// The API sends counters as decimal strings; json.Number accepts both forms.
type statistics struct {
	ViewCount    *json.Number `json:"viewCount"`
	LikeCount    *json.Number `json:"likeCount"`
	CommentCount *json.Number `json:"commentCount"`
}

// Details resolves id into a record. Any failure is logged with the id and
// reported as nil.
func (c *Client) Details(ctx context.Context, id string) *storage.VideoMetrics {
	rec, err := c.FetchDetails(ctx, id)
	metrics.RecordResolve(err == nil)
	if err != nil {
		c.logger.Error("failed to fetch video details", "video_id", id, "error", err)
		return nil
	}
	return rec
}

// FetchDetails is Details with the failure surfaced as a *VideoFetchError.
func (c *Client) FetchDetails(ctx context.Context, id string) (*storage.VideoMetrics, error) {
	if id == "" {
		return nil, &VideoFetchError{VideoID: id, Err: errors.New("empty video id")}
	}

	params := url.Values{}
	params.Set("id", id)
	params.Set("part", "snippet,contentDetails,statistics")

	var resp videoListResponse
	if err := c.get(ctx, endpointVideos, params, &resp); err != nil {
		return nil, &VideoFetchError{VideoID: id, Err: err}
	}
	if len(resp.Items) == 0 {
		return nil, &VideoFetchError{VideoID: id, Err: ErrNoItems}
	}

	rec, err := toMetrics(id, resp.Items[0])
	if err != nil {
		return nil, &VideoFetchError{VideoID: id, Err: err}
	}
	return rec, nil
}

func toMetrics(id string, v videoResource) (*storage.VideoMetrics, error) {
	s := v.Snippet
	switch {
	case s == nil:
		return nil, errors.New("missing snippet")
	case s.Title == nil:
		return nil, errors.New("missing snippet.title")
	case s.Description == nil:
		return nil, errors.New("missing snippet.description")
	case s.PublishedAt == nil:
		return nil, errors.New("missing snippet.publishedAt")
	case v.ContentDetails == nil || v.ContentDetails.Duration == nil:
		return nil, errors.New("missing contentDetails.duration")
	}

	published, err := time.Parse(time.RFC3339, *s.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("parse publishedAt: %w", err)
	}

	rec := &storage.VideoMetrics{
		VideoID:     id,
		Title:       *s.Title,
		Description: *s.Description,
		PublishedAt: published,
		Duration:    *v.ContentDetails.Duration,
		Tags:        []string{},
		Topic:       storage.UnknownTopic,
	}
	if s.Tags != nil {
		rec.Tags = append(rec.Tags, s.Tags...)
	}
	if s.CategoryID != nil {
		rec.Topic = *s.CategoryID
	}

	if st := v.Statistics; st != nil {
		if rec.ViewCount, err = parseCount("viewCount", st.ViewCount); err != nil {
			return nil, err
		}
		if rec.LikeCount, err = parseCount("likeCount", st.LikeCount); err != nil {
			return nil, err
		}
		if rec.CommentCount, err = parseCount("commentCount", st.CommentCount); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func parseCount(field string, n *json.Number) (int64, error) {
	if n == nil {
		return 0, nil
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse statistics.%s: %w", field, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative statistics.%s: %d", field, v)
	}
	return v, nil
}
