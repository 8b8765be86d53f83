package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/voxhollow/voice-agent/internal/httpc"
)

// SearxBackend queries a self-hosted SearXNG instance via its JSON API.
// No API key required, which keeps the assistant fully self-hosted.
type SearxBackend struct {
	baseURL string
	client  *http.Client
}

// NewSearxBackend creates a backend for the given SearXNG base URL.
func NewSearxBackend(baseURL string) *SearxBackend {
	return &SearxBackend{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpc.Client,
	}
}

// Search implements Backend.
func (b *SearxBackend) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("safesearch", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		b.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			URL     string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	results := make([]Result, 0, maxResults)
	for _, r := range payload.Results {
		if len(results) >= maxResults {
			break
		}
		results = append(results, Result{
			Title: r.Title,
			Body:  r.Content,
			URL:   r.URL,
		})
	}
	return results, nil
}
