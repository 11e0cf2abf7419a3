// Package llm wraps the managed text-generation endpoints behind one small
// interface. Bedrock (Anthropic Claude) is the default provider; Gemini is
// available for local experiments.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Providers accepted by LLM_PROVIDER.
const (
	ProviderBedrock = "bedrock"
	ProviderGemini  = "gemini"
)

// DefaultBedrockModel is the Bedrock model used when MODEL_ID is unset.
const DefaultBedrockModel = "anthropic.claude-instant-v1"

// TextGenerator produces a completion for a single prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PreambleReporter is implemented by generators whose responses open with a
// one-line lead-in ("Here is a draft email:") before the requested content.
// Callers that strip that line should check it rather than assume it.
type PreambleReporter interface {
	LeadingPreamble() bool
}

// HasLeadingPreamble reports whether gen's responses start with a lead-in line.
// Generators that do not say are assumed to follow the Claude turn format.
func HasLeadingPreamble(gen TextGenerator) bool {
	if r, ok := gen.(PreambleReporter); ok {
		return r.LeadingPreamble()
	}
	return true
}

// InferenceConfig holds the sampling parameters sent with every request.
type InferenceConfig struct {
	MaxTokens     int
	Temperature   float64
	TopK          int
	TopP          float64
	StopSequences []string
}

// DefaultInference returns the sampling parameters all handlers use.
func DefaultInference() InferenceConfig {
	return InferenceConfig{
		MaxTokens:     4096,
		Temperature:   0.5,
		TopK:          250,
		TopP:          1,
		StopSequences: []string{"\n\nHuman"},
	}
}

// ParseProvider normalizes a provider name. Empty selects Bedrock.
func ParseProvider(name string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(name)); p {
	case "", ProviderBedrock:
		return ProviderBedrock, nil
	case ProviderGemini:
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unknown LLM provider %q (want %s or %s)", name, ProviderBedrock, ProviderGemini)
	}
}
