package narrative

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// NewGeminiClient creates a GenAI client configured from the environment
// (GOOGLE_API_KEY or Vertex AI settings).
func NewGeminiClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}
	return client, nil
}

// GeminiService implements Service on top of Gemini.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService wraps an existing client.
func NewGeminiService(client *genai.Client, model string) *GeminiService {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiService{client: client, model: model}
}

// Generate asks the model for the task named in facts and returns the raw
// response text. The response is not validated here.
func (s *GeminiService) Generate(ctx context.Context, facts []byte) ([]byte, error) {
	task, err := taskOf(facts)
	if err != nil {
		return nil, fmt.Errorf("GeminiService.Generate: %w", err)
	}
	prompt, err := buildPrompt(task, facts)
	if err != nil {
		return nil, fmt.Errorf("GeminiService.Generate: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("GeminiService.Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("GeminiService.Generate: empty response from model")
	}
	return []byte(text), nil
}
