package chains

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// PlanningChain generates search queries for a topic. It implements
// agent.Planner.
type PlanningChain struct {
	LLM llms.Model
}

func NewPlanningChain(llm llms.Model) *PlanningChain {
	return &PlanningChain{LLM: llm}
}

// queryPrefix strips list numbering and bullets from a generated line.
var queryPrefix = regexp.MustCompile(`^[\d.\-*)]+\s*`)

// GenerateQueries asks the model for up to count search queries. A provider
// failure surfaces as an error; the pipeline treats it as a stage failure.
func (c *PlanningChain) GenerateQueries(ctx context.Context, topic string, count int) ([]string, error) {
	input := fmt.Sprintf(plannerTemplate, count, topic)

	resp, err := c.LLM.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, plannerSystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, input),
	})
	if err != nil {
		return nil, fmt.Errorf("query generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("query generation returned no choices")
	}

	queries := parseQueries(resp.Choices[0].Content)

	// Pad with generic variations if the model came up short.
	if len(queries) < count {
		queries = append(queries,
			fmt.Sprintf("%s recent developments", topic),
			fmt.Sprintf("%s latest research", topic),
		)
	}
	if len(queries) > count {
		queries = queries[:count]
	}

	return queries, nil
}

// parseQueries extracts one query per non-empty line, dropping markdown
// headers and list decorations.
func parseQueries(content string) []string {
	var queries []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cleaned := queryPrefix.ReplaceAllString(line, "")
		cleaned = strings.Trim(cleaned, `"'`)
		if cleaned != "" {
			queries = append(queries, cleaned)
		}
	}
	return queries
}
