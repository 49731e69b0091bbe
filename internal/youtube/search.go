package youtube

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// SearchWindow bounds how far back search results may be published.
const SearchWindow = 30 * 24 * time.Hour

// ResourceID identifies the resource a search hit points at.
type ResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

// SearchSnippet is the subset of search metadata kept for logging.
type SearchSnippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
}

// SearchItem is one raw search hit. Fields are not validated here; the
// detail lookup decides whether an item is usable.
type SearchItem struct {
	Kind    string         `json:"kind"`
	ID      ResourceID     `json:"id"`
	Snippet *SearchSnippet `json:"snippet,omitempty"`
	Keyword string         `json:"-"`
}

type searchResponse struct {
	Items []SearchItem `json:"items"`
}

// Search runs one query per keyword of topic, in keyword order, pausing after
// each. A failed keyword is logged and skipped. The merged hits are truncated
// to the configured maximum; the call never fails.
func (c *Client) Search(ctx context.Context, topic string) []SearchItem {
	kws := c.keywords.Resolve(topic)
	var items []SearchItem

	for _, kw := range kws {
		if ctx.Err() != nil {
			c.logger.Info("search interrupted", "topic", topic, "collected", len(items))
			break
		}

		found, err := c.SearchKeyword(ctx, kw)
		if err != nil {
			c.logger.Error("search failed for keyword", "keyword", kw, "error", err)
		} else {
			c.logger.Debug("search keyword done", "keyword", kw, "items", len(found))
			items = append(items, found...)
		}

		if err := c.pacer.Pause(ctx); err != nil {
			break
		}
	}

	if len(items) > c.maxResults {
		items = items[:c.maxResults]
	}
	return items
}

// SearchKeyword issues a single search request for keyword.
func (c *Client) SearchKeyword(ctx context.Context, keyword string) ([]SearchItem, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("maxResults", strconv.Itoa(c.maxResults))
	params.Set("relevanceLanguage", "en")
	params.Set("publishedAfter", c.now().UTC().Add(-SearchWindow).Format(time.RFC3339))

	var resp searchResponse
	if err := c.get(ctx, endpointSearch, params, &resp); err != nil {
		return nil, err
	}

	for i := range resp.Items {
		resp.Items[i].Keyword = keyword
	}
	return resp.Items, nil
}
