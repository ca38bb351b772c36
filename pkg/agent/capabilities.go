package agent

import (
	"context"
	"time"
)

// The pipeline consumes five external capabilities. Implementations live in
// pkg/chains (LLM-backed) and pkg/tools (network-backed); the stage code
// only depends on these interfaces.

// Planner turns a topic into search queries.
type Planner interface {
	GenerateQueries(ctx context.Context, topic string, count int) ([]string, error)
}

// Searcher performs one web search. An unavailable or misconfigured
// provider returns an empty slice, not an error.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SourceHit, error)
}

// Scraper extracts content from one URL. It never returns a Go error;
// failure is reported via ScrapedPage.Success.
type Scraper interface {
	Scrape(ctx context.Context, url string) ScrapedPage
}

// Summarizer summarizes a batch of pages, one outcome per input page,
// order preserved. Individual page failures are carried in the Summary;
// the returned error covers only the batch call itself.
type Summarizer interface {
	SummarizeBatch(ctx context.Context, topic string, pages []ScrapedPage) ([]Summary, error)
}

// ReportResult is the report capability's outcome.
type ReportResult struct {
	Success     bool
	Report      string
	WordCount   int
	NumSources  int
	GeneratedAt time.Time
	Sources     []SourceRef
	Error       string
}

// Reporter synthesizes the final report from the successful summaries.
type Reporter interface {
	GenerateReport(ctx context.Context, topic string, summaries []Summary) (ReportResult, error)
}

// Tuning carries the pipeline's named constants. They are injected rather
// than embedded in stage code so tests can zero the delay and callers can
// override via configuration.
type Tuning struct {
	// QueriesPerDepth maps a depth level to the number of search queries
	// the planner is asked for.
	QueriesPerDepth map[string]int
	// DefaultQueries is used for unrecognized depth values.
	DefaultQueries int
	// ResultsPerQuery is the fixed per-query result cap passed to the
	// search capability.
	ResultsPerQuery int
	// PolitenessDelay is the pause between successive search or scrape
	// calls. Pacing only, not a correctness requirement.
	PolitenessDelay time.Duration
}

// DefaultTuning matches the pipeline's documented defaults.
func DefaultTuning() Tuning {
	return Tuning{
		QueriesPerDepth: map[string]int{
			DepthQuick:    2,
			DepthStandard: 5,
			DepthDetailed: 8,
		},
		DefaultQueries:  5,
		ResultsPerQuery: 2,
		PolitenessDelay: 500 * time.Millisecond,
	}
}

// QueryCount resolves a depth level to the planner's query count.
func (t Tuning) QueryCount(depth string) int {
	if n, ok := t.QueriesPerDepth[depth]; ok {
		return n
	}
	return t.DefaultQueries
}
