package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Nodes holds the five stage implementations and their capabilities.
// Each stage reads the current state and returns the partial update it
// produced; it never mutates the state itself. A returned error means the
// whole stage failed (CapabilityFailure) and the pipeline must halt.
type Nodes struct {
	Planner    Planner
	Searcher   Searcher
	Scraper    Scraper
	Summarizer Summarizer
	Reporter   Reporter
	Tuning     Tuning
	Logger     *slog.Logger
}

func NewNodes(planner Planner, searcher Searcher, scraper Scraper, summarizer Summarizer, reporter Reporter, tuning Tuning, logger *slog.Logger) *Nodes {
	if logger == nil {
		logger = slog.Default()
	}
	return &Nodes{
		Planner:    planner,
		Searcher:   searcher,
		Scraper:    scraper,
		Summarizer: summarizer,
		Reporter:   reporter,
		Tuning:     tuning,
		Logger:     logger,
	}
}

// Plan generates the search queries for the topic. The depth level decides
// how many queries are requested.
func (n *Nodes) Plan(ctx context.Context, s *State) (Update, error) {
	count := n.Tuning.QueryCount(s.Depth)
	n.Logger.Info("planning research", "topic", s.Topic, "depth", s.Depth, "queries", count)

	queries, err := n.Planner.GenerateQueries(ctx, s.Topic, count)
	if err != nil {
		return Update{}, fmt.Errorf("planning failed: %w", err)
	}

	n.Logger.Info("generated search queries", "count", len(queries))
	return Update{
		SearchQueries: queries,
		CurrentStep:   StepPlanningComplete,
	}, nil
}

// Search runs every planned query in order, pausing between calls, then
// deduplicates the combined results by URL (first occurrence wins, empty
// URLs dropped) and truncates to the state's max_sources.
func (n *Nodes) Search(ctx context.Context, s *State) (Update, error) {
	n.Logger.Info("executing search queries", "count", len(s.SearchQueries))

	var all []SourceHit
	for i, query := range s.SearchQueries {
		if err := ctx.Err(); err != nil {
			return Update{}, fmt.Errorf("search failed: %w", err)
		}
		if i > 0 {
			if err := n.pause(ctx); err != nil {
				return Update{}, fmt.Errorf("search failed: %w", err)
			}
		}

		n.Logger.Info("searching", "query", query, "index", i+1, "total", len(s.SearchQueries))
		results, err := n.Searcher.Search(ctx, query, n.Tuning.ResultsPerQuery)
		if err != nil {
			return Update{}, fmt.Errorf("search failed: %w", err)
		}
		all = append(all, results...)
	}

	unique := dedupeByURL(all)
	if len(unique) > s.MaxSources {
		unique = unique[:s.MaxSources]
	}

	n.Logger.Info("search complete", "raw", len(all), "unique", len(unique))
	return Update{
		SearchResults:   unique,
		QueriesExecuted: ptr(len(s.SearchQueries)),
		CurrentStep:     StepSearchComplete,
	}, nil
}

// dedupeByURL keeps the first occurrence of each URL, preserving input
// order, and drops entries with an empty URL.
func dedupeByURL(hits []SourceHit) []SourceHit {
	unique := make([]SourceHit, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if h.URL == "" || seen[h.URL] {
			continue
		}
		seen[h.URL] = true
		unique = append(unique, h)
	}
	return unique
}

// Scrape fetches each search result in order. Individual scrape failures
// are tolerated and omitted from the output; the stage only fails if the
// iteration itself cannot complete.
func (n *Nodes) Scrape(ctx context.Context, s *State) (Update, error) {
	n.Logger.Info("scraping sources", "count", len(s.SearchResults))

	var pages []ScrapedPage
	first := true
	for i, result := range s.SearchResults {
		if result.URL == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Update{}, fmt.Errorf("scraping failed: %w", err)
		}
		if !first {
			if err := n.pause(ctx); err != nil {
				return Update{}, fmt.Errorf("scraping failed: %w", err)
			}
		}
		first = false

		n.Logger.Info("scraping", "url", result.URL, "index", i+1, "total", len(s.SearchResults))
		page := n.Scraper.Scrape(ctx, result.URL)
		if page.Success {
			pages = append(pages, page)
			n.Logger.Info("scraped page", "url", result.URL, "words", page.WordCount)
		} else {
			n.Logger.Warn("scrape failed, skipping source", "url", result.URL, "error", page.Error)
		}
	}

	n.Logger.Info("scraping complete", "scraped", len(pages), "sources", len(s.SearchResults))
	return Update{
		ScrapedContent: pages,
		PagesScraped:   ptr(len(pages)),
		CurrentStep:    StepScrapingComplete,
	}, nil
}

// Summarize runs one batch summarization over all scraped pages. Per-page
// failures come back as failed Summary entries and are kept in the state
// for downstream transparency.
func (n *Nodes) Summarize(ctx context.Context, s *State) (Update, error) {
	n.Logger.Info("summarizing content", "pages", len(s.ScrapedContent))

	summaries, err := n.Summarizer.SummarizeBatch(ctx, s.Topic, s.ScrapedContent)
	if err != nil {
		return Update{}, fmt.Errorf("summarization failed: %w", err)
	}

	successful := 0
	for _, sum := range summaries {
		if sum.Success {
			successful++
		}
	}
	n.Logger.Info("summarization complete", "summaries", len(summaries), "successful", successful)

	return Update{
		Summaries:   summaries,
		CurrentStep: StepSummarizationComplete,
	}, nil
}

// Report synthesizes the final report from the successful summaries. This
// stage is the pipeline's single exit point: it clears should_continue
// whether it succeeds or fails.
func (n *Nodes) Report(ctx context.Context, s *State) (Update, error) {
	n.Logger.Info("generating report", "topic", s.Topic, "summaries", len(s.Summaries))

	result, err := n.Reporter.GenerateReport(ctx, s.Topic, s.Summaries)
	if err != nil {
		return Update{ShouldContinue: ptr(false)}, fmt.Errorf("report generation failed: %w", err)
	}
	if !result.Success {
		return Update{ShouldContinue: ptr(false)}, fmt.Errorf("report generation failed: %s", result.Error)
	}

	n.Logger.Info("report generated", "words", result.WordCount, "sources", result.NumSources)
	return Update{
		FinalReport: ptr(result.Report),
		ReportMetadata: &ReportMetadata{
			WordCount:   result.WordCount,
			NumSources:  result.NumSources,
			GeneratedAt: result.GeneratedAt,
			Sources:     result.Sources,
		},
		CurrentStep:    StepCompleted,
		ShouldContinue: ptr(false),
	}, nil
}

// pause waits out the politeness delay, returning early if the context is
// cancelled.
func (n *Nodes) pause(ctx context.Context) error {
	if n.Tuning.PolitenessDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(n.Tuning.PolitenessDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
