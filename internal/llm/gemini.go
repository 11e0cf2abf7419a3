package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

// DefaultGeminiModel is the Gemini model used when GEMINI_MODEL is unset.
const DefaultGeminiModel = "gemini-2.5-flash"

// ContentGenerator is the subset of genai.Client.Models the generator uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ ContentGenerator = (*genai.Models)(nil)

// Gemini generates text with a Gemini model.
type Gemini struct {
	models ContentGenerator
	model  string
	config InferenceConfig
}

// NewGeminiClient creates a Gemini API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

// NewGemini returns a generator for model. An empty model selects
// DefaultGeminiModel.
func NewGemini(models ContentGenerator, model string, config InferenceConfig) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: models, model: model, config: config}
}

// ModelID returns the Gemini model name.
func (g *Gemini) ModelID() string { return g.model }

// LeadingPreamble reports that Gemini answers carry no lead-in line.
func (g *Gemini) LeadingPreamble() bool { return false }

// Generate sends the prompt as a single user turn. Turn markers meant for
// Claude text completions are removed first.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     ptr(float32(g.config.Temperature)),
		TopK:            ptr(float32(g.config.TopK)),
		TopP:            ptr(float32(g.config.TopP)),
		MaxOutputTokens: int32(g.config.MaxTokens),
		StopSequences:   g.config.StopSequences,
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: stripTurns(prompt)}},
	}}

	callStart := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		log.Error().Err(err).Str("model", g.model).Msg("Gemini GenerateContent failed")
		return "", jobutil.Upstream("gemini", fmt.Errorf("GenerateContent: %w", err))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", jobutil.Upstream("gemini", fmt.Errorf("received empty response from Gemini API"))
	}

	text := resp.Text()
	log.Debug().
		Str("model", g.model).
		Int("responseLength", len(text)).
		Dur("duration", time.Since(callStart)).
		Msg("Gemini response received")
	return text, nil
}

func ptr[T any](v T) *T { return &v }
