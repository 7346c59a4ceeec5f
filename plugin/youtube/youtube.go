// Package youtube finds one relevant educational video per query using the
// YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Video is the supplementary video attached to a lesson.
type Video struct {
	URL       string `json:"url"`
	EmbedURL  string `json:"embed_url"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// Client is a minimal YouTube Data API search client.
type Client struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// NewClient creates a search client. An empty API key is allowed; Search then
// reports the missing key as an error and callers degrade to no video.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search returns the best educational video for the query, or nil when the
// API returns no items.
func (c *Client) Search(ctx context.Context, query string) (*Video, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("youtube API key is not configured")
	}

	params := url.Values{}
	params.Set("q", query+" education animation")
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("relevanceLanguage", "en")
	params.Set("order", "relevance")
	params.Set("key", c.apiKey)

	endpoint := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube search API error: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("youtube search decode failed: %w", err)
	}
	if len(parsed.Items) == 0 {
		slog.Debug("youtube: no video found", "query", query)
		return nil, nil
	}

	item := parsed.Items[0]
	videoID := item.ID.VideoID
	return &Video{
		URL:       "https://www.youtube.com/watch?v=" + videoID,
		EmbedURL:  "https://www.youtube.com/embed/" + videoID,
		Title:     item.Snippet.Title,
		Thumbnail: item.Snippet.Thumbnails.High.URL,
	}, nil
}
