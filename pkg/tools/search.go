package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mikeboe/research-agent/pkg/agent"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilySearch queries the Tavily web search API. It implements
// agent.Searcher. When the API key is missing or the provider fails, it
// returns an empty result list rather than an error, so a misconfigured
// search backend degrades a research run instead of aborting it.
type TavilySearch struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

func NewTavilySearch(apiKey string, logger *slog.Logger) *TavilySearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &TavilySearch{
		APIKey:  apiKey,
		BaseURL: tavilyEndpoint,
		Client:  &http.Client{Timeout: 15 * time.Second},
		Logger:  logger,
	}
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		URL     string  `json:"url"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search performs one web search. The limit caps the number of results
// requested from the provider.
func (t *TavilySearch) Search(ctx context.Context, query string, limit int) ([]agent.SourceHit, error) {
	if t.APIKey == "" {
		t.Logger.Warn("web search unavailable: TAVILY_API_KEY is not set")
		return []agent.SourceHit{}, nil
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      t.APIKey,
		Query:       query,
		MaxResults:  limit,
		SearchDepth: "advanced",
	})
	if err != nil {
		return []agent.SourceHit{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(body))
	if err != nil {
		t.Logger.Warn("search request build failed", "error", err)
		return []agent.SourceHit{}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		t.Logger.Warn("search request failed", "query", query, "error", err)
		return []agent.SourceHit{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		t.Logger.Warn("search provider error", "query", query, "status", resp.Status, "body", string(raw))
		return []agent.SourceHit{}, nil
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Logger.Warn("search response decode failed", "query", query, "error", err)
		return []agent.SourceHit{}, nil
	}

	hits := make([]agent.SourceHit, 0, len(parsed.Results))
	for i, r := range parsed.Results {
		if i >= limit {
			break
		}
		title := r.Title
		if title == "" {
			title = "No title"
		}
		hits = append(hits, agent.SourceHit{
			URL:     r.URL,
			Title:   title,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	return hits, nil
}
