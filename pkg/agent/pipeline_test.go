package agent

import (
	"context"
	"errors"
	"testing"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name           string
		err            string
		shouldContinue bool
		want           Decision
	}{
		{"error set wins over continue", "x", true, End},
		{"no error, continue", "", true, Continue},
		{"no error, stop", "", false, End},
		{"error set, stop", "x", false, End},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState("topic", DepthStandard, 5)
			s.Error = tt.err
			s.ShouldContinue = tt.shouldContinue
			if got := Decide(s); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testPipeline(planner *mockPlanner, searcher *mockSearcher, scraper *mockScraper, summarizer *mockSummarizer, reporter *mockReporter) *Pipeline {
	return NewPipeline(NewNodes(planner, searcher, scraper, summarizer, reporter, testTuning(), nil), nil)
}

// Scenario A: quick depth, every query comes back empty. The run still
// completes, with empty summaries and a report generated over zero sources.
func TestRunWithNoSearchResults(t *testing.T) {
	planner := &mockPlanner{queries: []string{"q1", "q2"}}
	searcher := &mockSearcher{results: map[string][]SourceHit{}}
	scraper := &mockScraper{}
	summarizer := &mockSummarizer{}
	reporter := &mockReporter{result: okReport()}

	p := testPipeline(planner, searcher, scraper, summarizer, reporter)
	s := p.Run(context.Background(), NewState("X", DepthQuick, 5))

	if planner.lastCount != 2 {
		t.Errorf("quick depth should request 2 queries, got %d", planner.lastCount)
	}
	if searcher.calls != 2 {
		t.Errorf("searcher calls = %d, want 2", searcher.calls)
	}
	if scraper.calls != 0 {
		t.Errorf("scraper should not be called with no results, got %d calls", scraper.calls)
	}
	if s.CurrentStep != StepCompleted {
		t.Errorf("CurrentStep = %q, want completed", s.CurrentStep)
	}
	if len(s.Summaries) != 0 {
		t.Errorf("Summaries = %+v, want empty", s.Summaries)
	}
	if reporter.calls != 1 {
		t.Errorf("reporter calls = %d, want 1", reporter.calls)
	}
	if s.Error != "" {
		t.Errorf("Error = %q", s.Error)
	}
}

// Scenario D: one of three scrapes fails; the run completes with the two
// successful pages.
func TestRunWithPartialScrapeFailure(t *testing.T) {
	planner := &mockPlanner{queries: []string{"q"}}
	searcher := &mockSearcher{results: map[string][]SourceHit{
		"q": {
			{URL: "https://a.example", Title: "A"},
			{URL: "https://b.example", Title: "B"},
			{URL: "https://c.example", Title: "C"},
		},
	}}
	scraper := &mockScraper{pages: map[string]ScrapedPage{
		"https://a.example": {Success: true, URL: "https://a.example", Title: "A"},
		"https://b.example": {Success: false, URL: "https://b.example", Error: "timeout"},
		"https://c.example": {Success: true, URL: "https://c.example", Title: "C"},
	}}
	summarizer := &mockSummarizer{}
	reporter := &mockReporter{result: okReport()}

	p := testPipeline(planner, searcher, scraper, summarizer, reporter)
	s := p.Run(context.Background(), NewState("X", DepthStandard, 5))

	if s.CurrentStep != StepCompleted {
		t.Fatalf("CurrentStep = %q, error = %q", s.CurrentStep, s.Error)
	}
	if len(s.ScrapedContent) != 2 || s.PagesScraped != 2 {
		t.Errorf("ScrapedContent = %d entries, PagesScraped = %d, want 2/2", len(s.ScrapedContent), s.PagesScraped)
	}
	if len(s.Summaries) != 2 {
		t.Errorf("Summaries length = %d, want 2", len(s.Summaries))
	}
}

// Scenario E: planner failure halts the run before any other capability is
// touched.
func TestRunPlannerFailureShortCircuits(t *testing.T) {
	planner := &mockPlanner{err: errors.New("provider unreachable")}
	searcher := &mockSearcher{}
	scraper := &mockScraper{}
	summarizer := &mockSummarizer{}
	reporter := &mockReporter{result: okReport()}

	p := testPipeline(planner, searcher, scraper, summarizer, reporter)
	s := p.Run(context.Background(), NewState("X", DepthStandard, 5))

	if s.CurrentStep != StepFailed {
		t.Errorf("CurrentStep = %q, want failed", s.CurrentStep)
	}
	if s.Error == "" {
		t.Error("Error must be set on failure")
	}
	if s.ShouldContinue {
		t.Error("ShouldContinue must be false on failure")
	}
	if searcher.calls != 0 || scraper.calls != 0 || summarizer.calls != 0 || reporter.calls != 0 {
		t.Errorf("later stages ran after planner failure: search=%d scrape=%d summarize=%d report=%d",
			searcher.calls, scraper.calls, summarizer.calls, reporter.calls)
	}
}

func TestRunReportFailure(t *testing.T) {
	planner := &mockPlanner{queries: []string{"q"}}
	searcher := &mockSearcher{results: map[string][]SourceHit{
		"q": {{URL: "https://a.example", Title: "A"}},
	}}
	scraper := &mockScraper{pages: map[string]ScrapedPage{
		"https://a.example": {Success: true, URL: "https://a.example", Title: "A"},
	}}
	summarizer := &mockSummarizer{}
	reporter := &mockReporter{err: errors.New("llm down")}

	p := testPipeline(planner, searcher, scraper, summarizer, reporter)
	s := p.Run(context.Background(), NewState("X", DepthStandard, 5))

	if s.CurrentStep != StepFailed {
		t.Errorf("CurrentStep = %q, want failed", s.CurrentStep)
	}
	if s.Error == "" {
		t.Error("Error must be set")
	}
	// Earlier stage output survives the failure.
	if len(s.Summaries) != 1 {
		t.Errorf("Summaries length = %d, want 1", len(s.Summaries))
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	planner := &mockPlanner{queries: []string{"q"}}
	p := testPipeline(planner, &mockSearcher{}, &mockScraper{}, &mockSummarizer{}, &mockReporter{})
	s := p.Run(ctx, NewState("X", DepthStandard, 5))

	if s.CurrentStep != StepFailed {
		t.Errorf("CurrentStep = %q, want failed", s.CurrentStep)
	}
	if planner.calls != 0 {
		t.Errorf("no stage should run after cancellation, planner ran %d times", planner.calls)
	}
}

func TestRunNotifiesStateUpdates(t *testing.T) {
	planner := &mockPlanner{queries: []string{"q"}}
	searcher := &mockSearcher{results: map[string][]SourceHit{
		"q": {{URL: "https://a.example"}},
	}}
	scraper := &mockScraper{pages: map[string]ScrapedPage{
		"https://a.example": {Success: true, URL: "https://a.example"},
	}}

	p := testPipeline(planner, searcher, scraper, &mockSummarizer{}, &mockReporter{result: okReport()})

	var steps []string
	p.OnStateUpdate = func(s State) {
		steps = append(steps, s.CurrentStep)
	}

	p.Run(context.Background(), NewState("X", DepthQuick, 5))

	want := []string{
		StepInitialized,
		StepPlanningComplete,
		StepSearchComplete,
		StepScrapingComplete,
		StepSummarizationComplete,
		StepCompleted,
	}
	if len(steps) != len(want) {
		t.Fatalf("got %d updates (%v), want %d", len(steps), steps, len(want))
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("update %d = %q, want %q", i, steps[i], want[i])
		}
	}
}

// Re-running a stage appends to the accumulated batches instead of
// replacing them.
func TestStageReinvocationAccumulates(t *testing.T) {
	searcher := &mockSearcher{results: map[string][]SourceHit{
		"q": {{URL: "https://a.example"}},
	}}
	nodes := NewNodes(nil, searcher, nil, nil, nil, testTuning(), nil)

	s := NewState("topic", DepthStandard, 5)
	s.Merge(Update{SearchQueries: []string{"q"}})

	for i := 0; i < 2; i++ {
		update, err := nodes.Search(context.Background(), s)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		s.Merge(update)
	}

	if len(s.SearchResults) != 2 {
		t.Errorf("SearchResults length = %d, want 2 (appended across invocations)", len(s.SearchResults))
	}
}
