package tools

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/mikeboe/research-agent/pkg/agent"
)

const (
	scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	// maxContentChars caps extracted page content to keep LLM prompts
	// bounded on huge pages.
	maxContentChars = 10000
)

// WebScraper fetches a page and extracts its readable content. It
// implements agent.Scraper: failures are reported in the returned
// ScrapedPage, never as a Go error.
type WebScraper struct {
	Client *http.Client
}

func NewWebScraper(timeout time.Duration) *WebScraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebScraper{
		Client: &http.Client{Timeout: timeout},
	}
}

// Scrape fetches one URL and extracts title, main text content and word
// count.
func (w *WebScraper) Scrape(ctx context.Context, rawURL string) agent.ScrapedPage {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return agent.ScrapedPage{URL: rawURL, Error: "invalid URL format"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return agent.ScrapedPage{URL: rawURL, Error: "request failed: " + err.Error()}
	}
	req.Header.Set("User-Agent", scraperUserAgent)

	resp, err := w.Client.Do(req)
	if err != nil {
		return agent.ScrapedPage{URL: rawURL, Error: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return agent.ScrapedPage{URL: rawURL, Error: "request failed with status: " + resp.Status}
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return agent.ScrapedPage{URL: rawURL, Error: "content extraction failed: " + err.Error()}
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = "No title found"
	}

	content := cleanContent(article.TextContent)
	if content == "" {
		return agent.ScrapedPage{URL: rawURL, Title: title, Error: "no content found"}
	}

	return agent.ScrapedPage{
		Success:   true,
		URL:       rawURL,
		Title:     title,
		Content:   content,
		WordCount: len(strings.Fields(content)),
	}
}

// cleanContent strips blank lines, trims each line and caps the total
// length.
func cleanContent(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	clean := strings.Join(kept, "\n")

	if len(clean) > maxContentChars {
		// Cut on a rune boundary before appending the marker.
		runes := []rune(clean)
		if len(runes) > maxContentChars {
			runes = runes[:maxContentChars]
		}
		clean = string(runes) + "...[truncated]"
	}
	return clean
}
