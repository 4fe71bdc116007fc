package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Summary is the structured output of the external conversation classifier.
type Summary struct {
	Text              string
	SuggestedCategory Category
	Confidence        float64 // 0..1, 0 when the collaborator gave no signal
}

// Summarizer is the external conversation classifier collaborator. Failure
// and timeout are expected; callers fall back to the keyword path.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (Summary, error)
}

const summarizePrompt = `You are a home-services intake assistant. Read the conversation transcript below and respond with a single JSON object, no markdown fences, with these fields:
  "summary": one-sentence description of the customer's problem,
  "category": one of "plumbing", "electrical", "hvac", "appliance", "general",
  "confidence": a number between 0 and 1.

Transcript:
%s`

// GeminiSummarizer summarizes transcripts with the Gemini API.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
}

// NewGeminiSummarizer creates a Gemini-backed summarizer.
func NewGeminiSummarizer(ctx context.Context, apiKey, model string) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiSummarizer{client: client, model: model}, nil
}

type summarizeResponse struct {
	Summary    string  `json:"summary"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Summarize asks the model for a summary, category and confidence signal.
// The caller is responsible for the timeout on ctx.
func (g *GeminiSummarizer) Summarize(ctx context.Context, transcript string) (Summary, error) {
	content := &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(fmt.Sprintf(summarizePrompt, transcript))},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("generate content: %w", err)
	}

	raw := strings.TrimSpace(resp.Text())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed summarizeResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return Summary{}, fmt.Errorf("parse summarizer response: %w", err)
	}

	// The category is normalized but not coerced; callers check taxonomy
	// membership so nonsense model output falls through to the keyword
	// classifier instead of silently becoming general.
	return Summary{
		Text:              parsed.Summary,
		SuggestedCategory: Category(strings.ToLower(strings.TrimSpace(parsed.Category))),
		Confidence:        parsed.Confidence,
	}, nil
}
