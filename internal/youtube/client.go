// Package youtube talks to the YouTube Data API v3: keyword search and
// per-video detail lookups.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/curator/internal/keywords"
	"github.com/FranksOps/curator/internal/metrics"
	"github.com/FranksOps/curator/pkg/httpclient"
	"github.com/FranksOps/curator/pkg/ratelimit"
)

const (
	// DefaultBaseURL is the public Data API v3 root.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// MaxPageSize is the largest maxResults the search endpoint accepts.
	MaxPageSize = 50

	endpointSearch = "search"
	endpointVideos = "videos"
)

// Config wires a Client. APIKey and MaxResults are required; everything else
// has a default.
type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Keywords   *keywords.Resolver
	HTTPClient *httpclient.Client
	// Pacer runs after every keyword search. Defaults to ratelimit.Noop.
	Pacer  ratelimit.Pacer
	Now    func() time.Time
	Logger *slog.Logger
}

// Client performs sequential, paced calls against the API.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	keywords   *keywords.Resolver
	http       *httpclient.Client
	pacer      ratelimit.Pacer
	now        func() time.Time
	logger     *slog.Logger
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube: api key is required")
	}
	if cfg.MaxResults <= 0 || cfg.MaxResults > MaxPageSize {
		return nil, fmt.Errorf("youtube: max results must be within 1..%d, got %d", MaxPageSize, cfg.MaxResults)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("youtube: invalid base url: %w", err)
	}
	if cfg.Keywords == nil {
		cfg.Keywords = keywords.NewResolver(nil)
	}
	if cfg.HTTPClient == nil {
		hc, err := httpclient.New(httpclient.Config{})
		if err != nil {
			return nil, fmt.Errorf("youtube: %w", err)
		}
		cfg.HTTPClient = hc
	}
	if cfg.Pacer == nil {
		cfg.Pacer = ratelimit.Noop{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxResults: cfg.MaxResults,
		keywords:   cfg.Keywords,
		http:       cfg.HTTPClient,
		pacer:      cfg.Pacer,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}, nil
}

// get calls one endpoint, decoding the body into v. Failures come back as
// *APIError and every attempt is recorded in metrics.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	params.Set("key", c.apiKey)
	target := c.baseURL + "/" + endpoint + "?" + params.Encode()

	start := time.Now()
	err := c.http.GetJSON(ctx, target, v)
	elapsed := time.Since(start)

	if err == nil {
		metrics.RecordRequest(endpoint, 200, elapsed)
		return nil
	}

	apiErr := &APIError{Endpoint: endpoint, Err: err}
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		apiErr.StatusCode = statusErr.StatusCode
	}
	metrics.RecordRequest(endpoint, apiErr.StatusCode, elapsed)
	return apiErr
}
