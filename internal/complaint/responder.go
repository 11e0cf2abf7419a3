package complaint

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/assets"
	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/llm"
)

// HandlerName identifies the responder in logs, metrics and the run ledger.
const HandlerName = "reply-to-complaint"

// Responder turns a Request into an apology email with one model call.
type Responder struct {
	gen llm.TextGenerator
}

// NewResponder returns a Responder backed by gen.
func NewResponder(gen llm.TextGenerator) *Responder {
	return &Responder{gen: gen}
}

// Prompt renders the apology email prompt for req.
func (r *Responder) Prompt(req Request) (string, error) {
	return assets.RenderApologyEmailPrompt(assets.ApologyEmailData{
		ServiceManager:   req.ServiceManager,
		CustomerName:     req.CustomerName,
		CustomerFeedback: req.CustomerFeedback,
	})
}

// Reply drafts the email. With Claude the first response line is a lead-in
// ("Here is a draft apology email:") and is dropped; see StripPreamble.
func (r *Responder) Reply(ctx context.Context, req Request) (string, error) {
	prompt, err := r.Prompt(req)
	if err != nil {
		return "", err
	}

	raw, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate email: %w", err)
	}

	if !llm.HasLeadingPreamble(r.gen) {
		return raw, nil
	}
	email, err := StripPreamble(raw)
	if err != nil {
		log.Warn().Int("responseLength", len(raw)).Msg("Model response has no lead-in line")
		return "", err
	}
	return email, nil
}

// StripPreamble removes everything up to and including the first newline.
// This mirrors the Claude text-completion turn format, not a content
// guarantee: a response without any newline is rejected.
func StripPreamble(raw string) (string, error) {
	_, rest, found := strings.Cut(raw, "\n")
	if !found {
		return "", jobutil.Upstream("llm", fmt.Errorf("%w: no newline in %d-byte response", jobutil.ErrMalformedResponse, len(raw)))
	}
	return rest, nil
}
