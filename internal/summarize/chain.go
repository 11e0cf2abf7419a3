// Package summarize condenses a long text object into one summary with a
// map-reduce pass over its chunks: every chunk is summarized on its own, then
// the partial summaries are combined, in source order, into the final text.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/fpang/gen-ai-bedrock/internal/assets"
	"github.com/fpang/gen-ai-bedrock/internal/llm"
)

// ChunkSummarizer is the summarization capability the pipeline drives.
type ChunkSummarizer interface {
	// SummarizeChunk returns a concise summary of one chunk.
	SummarizeChunk(ctx context.Context, chunk string) (string, error)
	// CombineSummaries merges ordered partial summaries into one.
	CombineSummaries(ctx context.Context, summaries []string) (string, error)
}

// summarySeparator joins partial summaries before they are combined.
const summarySeparator = "\n\n"

// LLMSummarizer implements ChunkSummarizer with one model call per step,
// using the embedded "concise summary" prompts.
type LLMSummarizer struct {
	gen llm.TextGenerator
}

// NewLLMSummarizer returns a ChunkSummarizer backed by gen.
func NewLLMSummarizer(gen llm.TextGenerator) *LLMSummarizer {
	return &LLMSummarizer{gen: gen}
}

func (s *LLMSummarizer) SummarizeChunk(ctx context.Context, chunk string) (string, error) {
	prompt, err := assets.RenderSummarizeChunkPrompt(chunk)
	if err != nil {
		return "", err
	}
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (s *LLMSummarizer) CombineSummaries(ctx context.Context, summaries []string) (string, error) {
	if len(summaries) == 0 {
		return "", fmt.Errorf("combine: no summaries")
	}
	prompt, err := assets.RenderSummarizeCombinePrompt(strings.Join(summaries, summarySeparator))
	if err != nil {
		return "", err
	}
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
