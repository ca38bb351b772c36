package chains

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/research-agent/pkg/agent"
)

// ReportChain synthesizes the final research report. It implements
// agent.Reporter.
type ReportChain struct {
	LLM llms.Model
}

func NewReportChain(llm llms.Model) *ReportChain {
	return &ReportChain{LLM: llm}
}

// GenerateReport folds the successful summaries into a formatted context
// and asks the model for a markdown report. Zero successful summaries is
// not an error: the model is invoked with an empty source section.
func (c *ReportChain) GenerateReport(ctx context.Context, topic string, summaries []agent.Summary) (agent.ReportResult, error) {
	input := fmt.Sprintf(reportTemplate, topic, len(summaries), formatSummaries(summaries), topic)

	resp, err := c.LLM.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, reportSystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, input),
	})
	if err != nil {
		return agent.ReportResult{}, fmt.Errorf("report generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agent.ReportResult{}, fmt.Errorf("report generation returned no choices")
	}

	report := resp.Choices[0].Content
	return agent.ReportResult{
		Success:     true,
		Report:      report,
		WordCount:   countWords(report),
		NumSources:  len(summaries),
		GeneratedAt: time.Now(),
		Sources:     sourceList(summaries),
	}, nil
}

// formatSummaries renders the successful summaries as numbered source
// blocks for the report prompt. Failed summaries are skipped.
func formatSummaries(summaries []agent.Summary) string {
	var b strings.Builder
	for i, s := range summaries {
		if !s.Success {
			continue
		}
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		url := s.URL
		if url == "" {
			url = "N/A"
		}
		fmt.Fprintf(&b, "Source %d:\nTitle: %s\nURL: %s\nSummary:\n%s\n\n---\n\n", i+1, title, url, s.Text)
	}
	return b.String()
}

// sourceList extracts the clean {title, url} pairs of the successful
// summaries for the report metadata.
func sourceList(summaries []agent.Summary) []agent.SourceRef {
	sources := []agent.SourceRef{}
	for _, s := range summaries {
		if !s.Success {
			continue
		}
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		sources = append(sources, agent.SourceRef{Title: title, URL: s.URL})
	}
	return sources
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
