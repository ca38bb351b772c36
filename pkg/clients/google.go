package clients

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms/googleai"
)

// ModelType is an enum for the available Google AI models.
type ModelType string

const (
	// DefaultModel is the default model to use if none is specified
	DefaultModel ModelType = "gemini-2.5-flash"
	ProModel     ModelType = "gemini-2.5-pro"
)

// GoogleAI builds a langchaingo Gemini client. The API key falls back to
// the GOOGLE_API_KEY environment variable when empty.
func GoogleAI(ctx context.Context, apiKey string, model ModelType) (*googleai.GoogleAI, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not set")
	}
	if model == "" {
		model = DefaultModel
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(string(model)))
	if err != nil {
		return nil, fmt.Errorf("failed to init Google AI client: %w", err)
	}

	return llm, nil
}
