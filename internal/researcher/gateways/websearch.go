package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deepresearch-core-poc/server/internal/researcher/model"
	logx "github.com/deepresearch-core-poc/server/pkg/logger"
)

// TavilyConfig holds the web search API settings.
type TavilyConfig struct {
	APIKey  string `envconfig:"TAVILY_API_KEY"`
	BaseURL string `envconfig:"TAVILY_BASE_URL" default:"https://api.tavily.com"`
	Timeout int    `envconfig:"TAVILY_TIMEOUT" default:"10"`
}

type tavilySearchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilySearchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// TavilyClient implements model.WebSearcher against the Tavily search API.
type TavilyClient struct {
	cfg  TavilyConfig
	http *http.Client
}

// NewTavilyClient builds the client with its own HTTP timeout.
func NewTavilyClient(cfg TavilyConfig) *TavilyClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10
	}
	return &TavilyClient{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Search queries the web and returns display-ready text blocks, one per
// result. No results is reported as text, not as an error.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("tavily: api key not configured")
	}

	body, err := json.Marshal(tavilySearchRequest{
		APIKey:            c.cfg.APIKey,
		Query:             query,
		MaxResults:        maxResults,
		IncludeRawContent: true,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tavily search: status %d", resp.StatusCode)
	}

	var sr tavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode tavily response: %w", err)
	}

	logx.Debug().Str("query", query).Int("count", len(sr.Results)).Msg("Web search completed")
	return formatWebResults(sr), nil
}

func formatWebResults(sr tavilySearchResponse) string {
	if len(sr.Results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, res := range sr.Results {
		title := res.Title
		if title == "" {
			title = "Unknown Title"
		}
		url := res.URL
		if url == "" {
			url = "Unknown URL"
		}
		fmt.Fprintf(&b, "Source %d: %s\n", i+1, title)
		fmt.Fprintf(&b, "URL: %s\n", url)
		fmt.Fprintf(&b, "Content: %s\n\n", res.Content)
	}
	return b.String()
}

var _ model.WebSearcher = (*TavilyClient)(nil)
