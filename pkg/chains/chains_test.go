package chains

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-agent/pkg/agent"
)

// fakeLLM returns canned responses (or errors) in call order.
type fakeLLM struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestGenerateQueries(t *testing.T) {
	llm := &fakeLLM{responses: []string{"1. query one\n2. query two\n3. query three"}}
	chain := NewPlanningChain(llm)

	queries, err := chain.GenerateQueries(context.Background(), "topic", 3)
	if err != nil {
		t.Fatalf("GenerateQueries() error = %v", err)
	}
	want := []string{"query one", "query two", "query three"}
	if len(queries) != len(want) {
		t.Fatalf("queries = %v", queries)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestGenerateQueriesPadsShortfall(t *testing.T) {
	llm := &fakeLLM{responses: []string{"only one query"}}
	chain := NewPlanningChain(llm)

	queries, err := chain.GenerateQueries(context.Background(), "agentic AI", 3)
	if err != nil {
		t.Fatalf("GenerateQueries() error = %v", err)
	}
	if len(queries) != 3 {
		t.Fatalf("queries = %v, want 3 entries", queries)
	}
	if !strings.Contains(queries[1], "agentic AI") || !strings.Contains(queries[2], "agentic AI") {
		t.Errorf("padded queries should mention the topic: %v", queries)
	}
}

func TestGenerateQueriesTruncatesOverage(t *testing.T) {
	llm := &fakeLLM{responses: []string{"a\nb\nc\nd\ne"}}
	chain := NewPlanningChain(llm)

	queries, err := chain.GenerateQueries(context.Background(), "topic", 2)
	if err != nil {
		t.Fatalf("GenerateQueries() error = %v", err)
	}
	if len(queries) != 2 || queries[0] != "a" || queries[1] != "b" {
		t.Errorf("queries = %v, want [a b]", queries)
	}
}

func TestGenerateQueriesProviderFailure(t *testing.T) {
	llm := &fakeLLM{errs: []error{errors.New("quota exceeded")}}
	chain := NewPlanningChain(llm)

	if _, err := chain.GenerateQueries(context.Background(), "topic", 2); err == nil {
		t.Fatal("GenerateQueries() should surface provider failure")
	}
}

func TestSummarizeBatchToleratesPageFailures(t *testing.T) {
	llm := &fakeLLM{
		responses: []string{"summary a", "", "summary c"},
		errs:      []error{nil, errors.New("context too long"), nil},
	}
	chain := NewSummaryChain(llm)

	pages := []agent.ScrapedPage{
		{Success: true, URL: "https://a.example", Title: "A", Content: "aaa"},
		{Success: true, URL: "https://b.example", Title: "B", Content: "bbb"},
		{Success: true, URL: "https://c.example", Title: "C", Content: "ccc"},
	}

	summaries, err := chain.SummarizeBatch(context.Background(), "topic", pages)
	if err != nil {
		t.Fatalf("SummarizeBatch() error = %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("summaries length = %d, want 3", len(summaries))
	}
	if !summaries[0].Success || summaries[0].Text != "summary a" {
		t.Errorf("summaries[0] = %+v", summaries[0])
	}
	if summaries[1].Success || summaries[1].Error == "" {
		t.Errorf("summaries[1] should carry the failure: %+v", summaries[1])
	}
	if summaries[1].URL != "https://b.example" {
		t.Errorf("failed summary keeps its source: %+v", summaries[1])
	}
	if !summaries[2].Success {
		t.Errorf("summaries[2] = %+v", summaries[2])
	}
}

func TestSummarizeBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewSummaryChain(&fakeLLM{})
	pages := []agent.ScrapedPage{{Success: true, URL: "https://a.example"}}

	if _, err := chain.SummarizeBatch(ctx, "topic", pages); err == nil {
		t.Fatal("SummarizeBatch() should fail on a cancelled context")
	}
}

func TestGenerateReport(t *testing.T) {
	llm := &fakeLLM{responses: []string{"# Report\n\nKey findings here."}}
	chain := NewReportChain(llm)

	summaries := []agent.Summary{
		{Success: true, Title: "A", URL: "https://a.example", Text: "finding a"},
		{Success: false, Title: "B", URL: "https://b.example", Error: "x"},
	}

	result, err := chain.GenerateReport(context.Background(), "topic", summaries)
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if !result.Success {
		t.Error("result should be successful")
	}
	if result.WordCount != 5 {
		t.Errorf("WordCount = %d, want 5", result.WordCount)
	}
	if result.NumSources != 2 {
		t.Errorf("NumSources = %d, want 2", result.NumSources)
	}
	if len(result.Sources) != 1 || result.Sources[0].URL != "https://a.example" {
		t.Errorf("Sources = %+v, want only the successful one", result.Sources)
	}
	if result.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestGenerateReportProviderFailure(t *testing.T) {
	llm := &fakeLLM{errs: []error{errors.New("llm down")}}
	chain := NewReportChain(llm)

	if _, err := chain.GenerateReport(context.Background(), "topic", nil); err == nil {
		t.Fatal("GenerateReport() should surface provider failure")
	}
}
