package agent

import "time"

// Depth levels accepted by the pipeline. Unknown values fall back to the
// standard query count in the planning stage.
const (
	DepthQuick    = "quick"
	DepthStandard = "standard"
	DepthDetailed = "detailed"
)

// Step tags recorded in State.CurrentStep as the pipeline advances.
const (
	StepInitialized           = "initialized"
	StepPlanningComplete      = "planning_complete"
	StepSearchComplete        = "search_complete"
	StepScrapingComplete      = "scraping_complete"
	StepSummarizationComplete = "summarization_complete"
	StepCompleted             = "completed"
	StepFailed                = "failed"
)

// SourceHit is a single web search result.
type SourceHit struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ScrapedPage is the outcome of scraping one URL. Failure is carried in
// Success/Error, never as a Go error.
type ScrapedPage struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
	Error     string `json:"error,omitempty"`
}

// Summary is the outcome of summarizing one scraped page.
type Summary struct {
	Success bool   `json:"success"`
	Topic   string `json:"topic"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Text    string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// SourceRef is a clean {title, url} pair listed in the report metadata.
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ReportMetadata describes the generated report.
type ReportMetadata struct {
	WordCount   int         `json:"word_count"`
	NumSources  int         `json:"num_sources"`
	GeneratedAt time.Time   `json:"generated_at"`
	Sources     []SourceRef `json:"sources"`
}

// State is the single record threaded through all pipeline stages. Stages
// never mutate it directly; they return an Update that Merge folds in.
type State struct {
	// Input, set once at construction.
	Topic      string `json:"topic"`
	Depth      string `json:"depth"`
	MaxSources int    `json:"max_sources"`

	// Planning output.
	ResearchPlan  string   `json:"research_plan,omitempty"`
	SearchQueries []string `json:"search_queries"`

	// Accumulating stage output.
	SearchResults  []SourceHit   `json:"search_results"`
	ScrapedContent []ScrapedPage `json:"scraped_content"`
	Summaries      []Summary     `json:"summaries"`

	// Report output.
	FinalReport    string          `json:"final_report,omitempty"`
	ReportMetadata *ReportMetadata `json:"report_metadata,omitempty"`

	// Control.
	CurrentStep     string `json:"current_step"`
	QueriesExecuted int    `json:"queries_executed"`
	PagesScraped    int    `json:"pages_scraped"`
	ShouldContinue  bool   `json:"should_continue"`
	Error           string `json:"error,omitempty"`
}

// NewState creates the initial state for a research run.
func NewState(topic, depth string, maxSources int) *State {
	return &State{
		Topic:          topic,
		Depth:          depth,
		MaxSources:     maxSources,
		SearchQueries:  []string{},
		SearchResults:  []SourceHit{},
		ScrapedContent: []ScrapedPage{},
		Summaries:      []Summary{},
		CurrentStep:    StepInitialized,
		ShouldContinue: true,
	}
}

// Update is the partial result a stage contributes. Nil pointers and nil
// slices mean "field untouched"; the accumulating slices are appended, all
// other fields overwritten.
type Update struct {
	ResearchPlan  *string
	SearchQueries []string

	SearchResults  []SourceHit
	ScrapedContent []ScrapedPage
	Summaries      []Summary

	FinalReport    *string
	ReportMetadata *ReportMetadata

	CurrentStep     string
	QueriesExecuted *int
	PagesScraped    *int
	ShouldContinue  *bool
	Error           string
}

// Merge folds a stage update into the state. It is total: any Update is
// accepted, absent fields leave the state untouched. Append fields are
// concatenated so re-invoking a stage never discards earlier batches.
func (s *State) Merge(u Update) {
	// Append-policy fields.
	s.SearchResults = append(s.SearchResults, u.SearchResults...)
	s.ScrapedContent = append(s.ScrapedContent, u.ScrapedContent...)
	s.Summaries = append(s.Summaries, u.Summaries...)

	// Overwrite-policy fields.
	if u.ResearchPlan != nil {
		s.ResearchPlan = *u.ResearchPlan
	}
	if u.SearchQueries != nil {
		s.SearchQueries = u.SearchQueries
	}
	if u.FinalReport != nil {
		s.FinalReport = *u.FinalReport
	}
	if u.ReportMetadata != nil {
		s.ReportMetadata = u.ReportMetadata
	}
	if u.CurrentStep != "" {
		s.CurrentStep = u.CurrentStep
	}
	if u.QueriesExecuted != nil {
		s.QueriesExecuted = *u.QueriesExecuted
	}
	if u.PagesScraped != nil {
		s.PagesScraped = *u.PagesScraped
	}
	if u.ShouldContinue != nil {
		s.ShouldContinue = *u.ShouldContinue
	}
	if u.Error != "" {
		s.Error = u.Error
	}
}

// Terminal reports whether the state has reached its final step.
func (s *State) Terminal() bool {
	return s.CurrentStep == StepCompleted || s.CurrentStep == StepFailed
}

func ptr[T any](v T) *T { return &v }
