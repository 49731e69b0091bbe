package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FranksOps/curator/internal/keywords"
	"github.com/FranksOps/curator/pkg/ratelimit"
)

var fixedNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

// fakeAPI records incoming queries and serves canned responses.
type fakeAPI struct {
	mu      sync.Mutex
	queries []url.Values
	search  func(q url.Values) (int, string)
	videos  func(q url.Values) (int, string)
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	serve := func(fn func(url.Values) (int, string)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			f.mu.Lock()
			f.queries = append(f.queries, q)
			f.mu.Unlock()
			status, body := fn(q)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			fmt.Fprint(w, body)
		}
	}
	mux.HandleFunc("/search", serve(func(q url.Values) (int, string) { return f.search(q) }))
	mux.HandleFunc("/videos", serve(func(q url.Values) (int, string) { return f.videos(q) }))
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, table map[string][]string, maxResults int, pacer ratelimit.Pacer) *Client {
	t.Helper()
	ts := httptest.NewServer(api.handler())
	t.Cleanup(ts.Close)

	c, err := New(Config{
		APIKey:     "test-key",
		BaseURL:    ts.URL,
		MaxResults: maxResults,
		Keywords:   keywords.NewResolver(table),
		Pacer:      pacer,
		Now:        func() time.Time { return fixedNow },
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func searchBody(ids ...string) string {
	body := `{"items":[`
	for i, id := range ids {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"kind":"youtube#searchResult","id":{"kind":"youtube#video","videoId":%q},"snippet":{"title":"t-%s"}}`, id, id)
	}
	return body + `]}`
}

func TestSearch_ScienceScenario(t *testing.T) {
	api := &fakeAPI{
		search: func(q url.Values) (int, string) {
			return http.StatusOK, searchBody("vid-" + q.Get("q"))
		},
	}
	pacer := &ratelimit.Counter{Pacer: ratelimit.Noop{}}
	c := newTestClient(t, api, map[string][]string{"science": {"physics", "space"}}, 2, pacer)

	items := c.Search(context.Background(), "science")

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID.VideoID != "vid-physics" || items[1].ID.VideoID != "vid-space" {
		t.Errorf("unexpected order: %s, %s", items[0].ID.VideoID, items[1].ID.VideoID)
	}
	if items[0].Keyword != "physics" || items[1].Keyword != "space" {
		t.Errorf("expected items tagged with their keyword, got %q, %q", items[0].Keyword, items[1].Keyword)
	}
	if pacer.Calls != 2 {
		t.Errorf("expected 2 pauses, got %d", pacer.Calls)
	}
}

func TestSearch_QueryParameters(t *testing.T) {
	api := &fakeAPI{
		search: func(q url.Values) (int, string) { return http.StatusOK, searchBody() },
	}
	c := newTestClient(t, api, nil, 7, nil)

	c.Search(context.Background(), "Deep Sea Creatures")

	if len(api.queries) != 1 {
		t.Fatalf("expected 1 request, got %d", len(api.queries))
	}
	q := api.queries[0]
	want := map[string]string{
		"key":               "test-key",
		"q":                 "Deep Sea Creatures",
		"part":              "snippet",
		"type":              "video",
		"order":             "relevance",
		"maxResults":        "7",
		"relevanceLanguage": "en",
		"publishedAfter":    "2024-05-31T12:00:00Z",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("param %s = %q, want %q", k, got, v)
		}
	}
}

func TestSearch_CapsMergedResults(t *testing.T) {
	api := &fakeAPI{
		search: func(q url.Values) (int, string) {
			kw := q.Get("q")
			return http.StatusOK, searchBody(kw+"-1", kw+"-2", kw+"-3")
		},
	}
	c := newTestClient(t, api, map[string][]string{"tech": {"ai", "gadgets", "robots"}}, 4, nil)

	items := c.Search(context.Background(), "tech")

	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}
	// The cap keeps keyword order: all of the first keyword, then the second.
	if items[3].ID.VideoID != "gadgets-1" {
		t.Errorf("expected gadgets-1 last, got %s", items[3].ID.VideoID)
	}
	// Every keyword is still queried even once the cap is reached.
	if len(api.queries) != 3 {
		t.Errorf("expected 3 requests, got %d", len(api.queries))
	}
}

func TestSearch_AllKeywordsFail(t *testing.T) {
	api := &fakeAPI{
		search: func(q url.Values) (int, string) {
			return http.StatusInternalServerError, `{"error":{"message":"backend error"}}`
		},
	}
	pacer := &ratelimit.Counter{}
	c := newTestClient(t, api, map[string][]string{"science": {"physics", "space", "biology"}}, 5, pacer)

	items := c.Search(context.Background(), "science")

	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
	if pacer.Calls != 3 {
		t.Errorf("expected a pause after every failed keyword, got %d", pacer.Calls)
	}
}

func TestSearch_PartialFailure(t *testing.T) {
	api := &fakeAPI{
		search: func(q url.Values) (int, string) {
			if q.Get("q") == "physics" {
				return http.StatusForbidden, `{"error":{"message":"quotaExceeded"}}`
			}
			return http.StatusOK, searchBody("ok-" + q.Get("q"))
		},
	}
	c := newTestClient(t, api, map[string][]string{"science": {"physics", "space"}}, 5, nil)

	items := c.Search(context.Background(), "science")

	if len(items) != 1 || items[0].ID.VideoID != "ok-space" {
		t.Errorf("expected only the space item, got %+v", items)
	}
}

func TestSearch_CanceledContext(t *testing.T) {
	api := &fakeAPI{
		search: func(q url.Values) (int, string) { return http.StatusOK, searchBody("x") },
	}
	c := newTestClient(t, api, map[string][]string{"science": {"physics", "space"}}, 5, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := c.Search(ctx, "science")
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
	if len(api.queries) != 0 {
		t.Errorf("expected no requests after cancellation, got %d", len(api.queries))
	}
}

const secretKey = "SECRET-KEY-123"

// newUnreachableClient points a client at a server that has already shut
// down and captures its logs.
func newUnreachableClient(t *testing.T, table map[string][]string, pacer ratelimit.Pacer) (*Client, *bytes.Buffer) {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	baseURL := ts.URL
	ts.Close()

	var logs bytes.Buffer
	c, err := New(Config{
		APIKey:     secretKey,
		BaseURL:    baseURL,
		MaxResults: 5,
		Keywords:   keywords.NewResolver(table),
		Pacer:      pacer,
		Now:        func() time.Time { return fixedNow },
		Logger:     slog.New(slog.NewTextHandler(&logs, nil)),
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c, &logs
}

func TestSearch_TransportFailure(t *testing.T) {
	pacer := &ratelimit.Counter{Pacer: ratelimit.Noop{}}
	c, logs := newUnreachableClient(t, map[string][]string{"science": {"physics", "space"}}, pacer)

	items := c.Search(context.Background(), "science")

	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
	if pacer.Calls != 2 {
		t.Errorf("expected a pause after every keyword, got %d", pacer.Calls)
	}
	if !strings.Contains(logs.String(), "search failed for keyword") {
		t.Errorf("expected failure to be logged, got %q", logs.String())
	}
	if strings.Contains(logs.String(), secretKey) {
		t.Errorf("api key leaked into logs: %s", logs.String())
	}
}

func TestDetails_TransportFailure(t *testing.T) {
	c, logs := newUnreachableClient(t, nil, nil)

	if rec := c.Details(context.Background(), "abc"); rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
	if !strings.Contains(logs.String(), "video_id=abc") {
		t.Errorf("expected failure logged with the id, got %q", logs.String())
	}
	if strings.Contains(logs.String(), secretKey) {
		t.Errorf("api key leaked into logs: %s", logs.String())
	}

	_, err := c.FetchDetails(context.Background(), "abc")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 0 {
		t.Errorf("expected *APIError without status, got %v", err)
	}
}

const fullVideo = `{"items":[{
	"id":"abc123",
	"snippet":{
		"title":"Black holes in 60 seconds",
		"description":"Quick explainer",
		"publishedAt":"2024-06-01T15:04:05Z",
		"tags":["space","astronomy","black holes"],
		"categoryId":"28"
	},
	"contentDetails":{"duration":"PT59S"},
	"statistics":{"viewCount":"123456","likeCount":"7890","commentCount":"321"}
}]}`

func TestDetails_WellFormed(t *testing.T) {
	api := &fakeAPI{
		videos: func(q url.Values) (int, string) { return http.StatusOK, fullVideo },
	}
	c := newTestClient(t, api, nil, 5, nil)

	rec := c.Details(context.Background(), "abc123")
	if rec == nil {
		t.Fatal("expected a record")
	}

	if rec.VideoID != "abc123" || rec.Title != "Black holes in 60 seconds" || rec.Description != "Quick explainer" {
		t.Errorf("unexpected descriptive fields: %+v", rec)
	}
	if rec.ViewCount != 123456 || rec.LikeCount != 7890 || rec.CommentCount != 321 {
		t.Errorf("unexpected counters: %d/%d/%d", rec.ViewCount, rec.LikeCount, rec.CommentCount)
	}
	if len(rec.Tags) != 3 || rec.Tags[2] != "black holes" {
		t.Errorf("unexpected tags: %v", rec.Tags)
	}
	if rec.Topic != "28" || rec.Duration != "PT59S" {
		t.Errorf("unexpected topic/duration: %s/%s", rec.Topic, rec.Duration)
	}
	want := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	if !rec.PublishedAt.Equal(want) {
		t.Errorf("expected published %v, got %v", want, rec.PublishedAt)
	}
	if rec.EngagementRate != 0 {
		t.Errorf("engagement rate is not computed here, got %v", rec.EngagementRate)
	}

	q := api.queries[0]
	if q.Get("id") != "abc123" || q.Get("part") != "snippet,contentDetails,statistics" || q.Get("key") != "test-key" {
		t.Errorf("unexpected detail query: %v", q)
	}
}

func TestDetails_MissingStatisticsDefaultsToZero(t *testing.T) {
	api := &fakeAPI{
		videos: func(q url.Values) (int, string) {
			return http.StatusOK, `{"items":[{"id":"nostats","snippet":{"title":"t","description":"","publishedAt":"2024-06-01T00:00:00Z"},"contentDetails":{"duration":"PT10S"}}]}`
		},
	}
	c := newTestClient(t, api, nil, 5, nil)

	rec := c.Details(context.Background(), "nostats")
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.ViewCount != 0 || rec.LikeCount != 0 || rec.CommentCount != 0 {
		t.Errorf("expected zero counters, got %d/%d/%d", rec.ViewCount, rec.LikeCount, rec.CommentCount)
	}
	if rec.Tags == nil || len(rec.Tags) != 0 {
		t.Errorf("expected empty tags, got %#v", rec.Tags)
	}
	if rec.Topic != "Unknown" {
		t.Errorf("expected Unknown topic, got %q", rec.Topic)
	}
}

func TestDetails_PartialStatistics(t *testing.T) {
	api := &fakeAPI{
		videos: func(q url.Values) (int, string) {
			return http.StatusOK, `{"items":[{"snippet":{"title":"t","description":"d","publishedAt":"2024-06-01T00:00:00Z"},"contentDetails":{"duration":"PT10S"},"statistics":{"viewCount":"99"}}]}`
		},
	}
	c := newTestClient(t, api, nil, 5, nil)

	rec := c.Details(context.Background(), "partial")
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.ViewCount != 99 || rec.LikeCount != 0 || rec.CommentCount != 0 {
		t.Errorf("unexpected counters: %d/%d/%d", rec.ViewCount, rec.LikeCount, rec.CommentCount)
	}
}

func TestDetails_MalformedResponsesReturnNil(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"empty items":     {http.StatusOK, `{"items":[]}`},
		"no items key":    {http.StatusOK, `{}`},
		"not found":       {http.StatusNotFound, `{"error":{}}`},
		"invalid json":    {http.StatusOK, `{"items":[`},
		"missing snippet": {http.StatusOK, `{"items":[{"contentDetails":{"duration":"PT1S"}}]}`},
		"missing title":   {http.StatusOK, `{"items":[{"snippet":{"description":"","publishedAt":"2024-06-01T00:00:00Z"},"contentDetails":{"duration":"PT1S"}}]}`},
		"missing details": {http.StatusOK, `{"items":[{"snippet":{"title":"t","description":"","publishedAt":"2024-06-01T00:00:00Z"}}]}`},
		"bad timestamp":   {http.StatusOK, `{"items":[{"snippet":{"title":"t","description":"","publishedAt":"yesterday"},"contentDetails":{"duration":"PT1S"}}]}`},
		"bad counter":     {http.StatusOK, `{"items":[{"snippet":{"title":"t","description":"","publishedAt":"2024-06-01T00:00:00Z"},"contentDetails":{"duration":"PT1S"},"statistics":{"viewCount":"lots"}}]}`},
		"fraction":        {http.StatusOK, `{"items":[{"snippet":{"title":"t","description":"","publishedAt":"2024-06-01T00:00:00Z"},"contentDetails":{"duration":"PT1S"},"statistics":{"likeCount":"1.5"}}]}`},
		"negative":        {http.StatusOK, `{"items":[{"snippet":{"title":"t","description":"","publishedAt":"2024-06-01T00:00:00Z"},"contentDetails":{"duration":"PT1S"},"statistics":{"commentCount":"-4"}}]}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{
				videos: func(q url.Values) (int, string) { return tc.status, tc.body },
			}
			c := newTestClient(t, api, nil, 5, nil)

			if rec := c.Details(context.Background(), "broken"); rec != nil {
				t.Errorf("expected nil record, got %+v", rec)
			}
		})
	}
}

func TestFetchDetails_ErrorKinds(t *testing.T) {
	api := &fakeAPI{
		videos: func(q url.Values) (int, string) {
			if q.Get("id") == "gone" {
				return http.StatusOK, `{"items":[]}`
			}
			return http.StatusForbidden, `{"error":{"message":"quotaExceeded"}}`
		},
	}
	c := newTestClient(t, api, nil, 5, nil)

	_, err := c.FetchDetails(context.Background(), "quota")
	var fetchErr *VideoFetchError
	if !errors.As(err, &fetchErr) || fetchErr.VideoID != "quota" {
		t.Fatalf("expected *VideoFetchError for quota, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden || apiErr.Endpoint != "videos" {
		t.Errorf("expected wrapped *APIError with 403, got %v", err)
	}

	_, err = c.FetchDetails(context.Background(), "gone")
	if !errors.Is(err, ErrNoItems) {
		t.Errorf("expected ErrNoItems, got %v", err)
	}

	_, err = c.FetchDetails(context.Background(), "")
	if !errors.As(err, &fetchErr) {
		t.Errorf("expected *VideoFetchError for empty id, got %v", err)
	}
	if len(api.queries) != 2 {
		t.Errorf("empty id must not reach the API, got %d requests", len(api.queries))
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{MaxResults: 5}); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := New(Config{APIKey: "k", MaxResults: 0}); err == nil {
		t.Error("expected error for zero max results")
	}
	if _, err := New(Config{APIKey: "k", MaxResults: MaxPageSize + 1}); err == nil {
		t.Error("expected error above the page size limit")
	}

	c, err := New(Config{APIKey: "k", MaxResults: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.baseURL != DefaultBaseURL {
		t.Errorf("expected default base url, got %s", c.baseURL)
	}
}
