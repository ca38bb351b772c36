package chains

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/research-agent/pkg/agent"
)

// SummaryChain summarizes scraped pages. It implements agent.Summarizer.
type SummaryChain struct {
	LLM llms.Model
}

func NewSummaryChain(llm llms.Model) *SummaryChain {
	return &SummaryChain{LLM: llm}
}

// SummarizeBatch produces one Summary per input page, in input order. A
// failed page summary is recorded in the outcome and does not stop the
// batch; only a cancelled context fails the call as a whole.
func (c *SummaryChain) SummarizeBatch(ctx context.Context, topic string, pages []agent.ScrapedPage) ([]agent.Summary, error) {
	summaries := make([]agent.Summary, 0, len(pages))

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("summarization batch aborted: %w", err)
		}

		text, err := c.summarize(ctx, topic, page)
		if err != nil {
			summaries = append(summaries, agent.Summary{
				Success: false,
				Topic:   topic,
				URL:     page.URL,
				Title:   page.Title,
				Error:   err.Error(),
			})
			continue
		}

		summaries = append(summaries, agent.Summary{
			Success: true,
			Topic:   topic,
			URL:     page.URL,
			Title:   page.Title,
			Text:    text,
		})
	}

	return summaries, nil
}

func (c *SummaryChain) summarize(ctx context.Context, topic string, page agent.ScrapedPage) (string, error) {
	input := fmt.Sprintf(summarizerTemplate, topic, page.URL, page.Title, page.Content, topic)

	resp, err := c.LLM.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, summarizerSystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, input),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarizer returned no choices")
	}
	return resp.Choices[0].Content, nil
}
