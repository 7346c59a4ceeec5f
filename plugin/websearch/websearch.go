// Package websearch finds labeled scientific diagrams on the web when the
// local knowledge base has too few. It talks to the DuckDuckGo image search
// endpoints directly.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://duckduckgo.com"

// Image is one web image search hit.
type Image struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Client is a DuckDuckGo image search client.
// Calls are rate limited; DuckDuckGo throttles aggressive anonymous clients.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewClient creates an image search client. baseURL may be empty to use the
// public DuckDuckGo endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

var vqdPattern = regexp.MustCompile(`vqd=["']?([\d-]+)["']?`)

// SearchImages returns up to three images matching the query.
func (c *Client) SearchImages(ctx context.Context, query string) ([]Image, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vqd, err := c.fetchToken(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("l", "wt-wt")
	params.Set("o", "json")
	params.Set("q", query)
	params.Set("vqd", vqd)
	params.Set("p", "1") // safe search on

	endpoint := c.baseURL + "/i.js?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search API error: HTTP %d", resp.StatusCode)
	}

	var parsed struct {
		Results []struct {
			Image string `json:"image"`
			Title string `json:"title"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("image search decode failed: %w", err)
	}

	images := make([]Image, 0, 3)
	for _, result := range parsed.Results {
		if result.Image == "" {
			continue
		}
		images = append(images, Image{Path: result.Image, Description: result.Title})
		if len(images) == 3 {
			break
		}
	}
	return images, nil
}

// fetchToken requests the search page to extract the vqd token required by
// the image endpoint.
func (c *Client) fetchToken(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("iax", "images")
	params.Set("ia", "images")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	match := vqdPattern.FindSubmatch(body)
	if match == nil {
		return "", fmt.Errorf("vqd token not found in search page")
	}
	return string(match[1]), nil
}
