package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

const (
	humanTurn     = "\n\nHuman:"
	assistantTurn = "\n\nAssistant:"

	anthropicVersion = "bedrock-2023-05-31"
)

// InvokeAPI is the subset of *bedrockruntime.Client the generator uses.
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

var _ InvokeAPI = (*bedrockruntime.Client)(nil)

// Claude text completions request/response (claude-instant, claude-v2).
type completionRequest struct {
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int      `json:"max_tokens_to_sample"`
	Temperature       float64  `json:"temperature"`
	TopK              int      `json:"top_k"`
	TopP              float64  `json:"top_p"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
}

type completionResponse struct {
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason"`
}

// Claude Messages request/response (claude-3 and later).
type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	TopK             int       `json:"top_k"`
	TopP             float64   `json:"top_p"`
	StopSequences    []string  `json:"stop_sequences,omitempty"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// Bedrock generates text with an Anthropic Claude model on Amazon Bedrock.
type Bedrock struct {
	client   InvokeAPI
	modelID  string
	config   InferenceConfig
	messages bool
}

// NewBedrock returns a generator for modelID. Only Anthropic models are
// supported; the request body format follows the model generation.
func NewBedrock(client InvokeAPI, modelID string, config InferenceConfig) (*Bedrock, error) {
	if modelID == "" {
		modelID = DefaultBedrockModel
	}
	if !strings.Contains(modelID, "anthropic.") {
		return nil, fmt.Errorf("unsupported Bedrock model %q: only anthropic models are supported", modelID)
	}
	return &Bedrock{
		client:   client,
		modelID:  modelID,
		config:   config,
		messages: usesMessagesAPI(modelID),
	}, nil
}

// usesMessagesAPI reports whether modelID only accepts the Messages API.
// claude-instant and claude-v2 still take text completions.
func usesMessagesAPI(modelID string) bool {
	return !strings.Contains(modelID, "claude-instant") && !strings.Contains(modelID, "claude-v2")
}

// ModelID returns the Bedrock model identifier.
func (b *Bedrock) ModelID() string { return b.modelID }

// LeadingPreamble reports that Claude answers open with a lead-in line.
func (b *Bedrock) LeadingPreamble() bool { return true }

// Generate invokes the model once and returns the generated text.
func (b *Bedrock) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := b.requestBody(prompt)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	callStart := time.Now()
	result, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		log.Error().Err(err).Str("modelId", b.modelID).Msg("Bedrock InvokeModel failed")
		return "", jobutil.Upstream("bedrock", fmt.Errorf("InvokeModel: %w", err))
	}

	text, stopReason, err := b.parseResponse(result.Body)
	if err != nil {
		return "", jobutil.Upstream("bedrock", err)
	}

	log.Debug().
		Str("modelId", b.modelID).
		Int("promptLength", len(prompt)).
		Int("responseLength", len(text)).
		Str("stopReason", stopReason).
		Dur("duration", time.Since(callStart)).
		Msg("Bedrock response received")
	return text, nil
}

func (b *Bedrock) requestBody(prompt string) ([]byte, error) {
	if b.messages {
		return json.Marshal(messagesRequest{
			AnthropicVersion: anthropicVersion,
			MaxTokens:        b.config.MaxTokens,
			Temperature:      b.config.Temperature,
			TopK:             b.config.TopK,
			TopP:             b.config.TopP,
			StopSequences:    b.config.StopSequences,
			Messages: []message{{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: stripTurns(prompt)}},
			}},
		})
	}
	return json.Marshal(completionRequest{
		Prompt:            withTurns(prompt),
		MaxTokensToSample: b.config.MaxTokens,
		Temperature:       b.config.Temperature,
		TopK:              b.config.TopK,
		TopP:              b.config.TopP,
		StopSequences:     b.config.StopSequences,
	})
}

func (b *Bedrock) parseResponse(raw []byte) (text, stopReason string, err error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if b.messages {
		var resp messagesResponse
		if err := dec.Decode(&resp); err != nil {
			return "", "", fmt.Errorf("decode response: %w", err)
		}
		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		return sb.String(), resp.StopReason, nil
	}

	var resp completionResponse
	if err := dec.Decode(&resp); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}
	return resp.Completion, resp.StopReason, nil
}

// withTurns puts a prompt into the Human/Assistant turn format text
// completions require. Only a prompt that opens with a Human turn counts as
// already formatted; turn markers inside the text (chat transcripts) are
// content and do not change the wrapping.
func withTurns(prompt string) string {
	trimmed := strings.TrimLeft(prompt, "\n")
	if !strings.HasPrefix(trimmed, "Human:") {
		return humanTurn + " " + prompt + assistantTurn
	}
	prompt = "\n\n" + trimmed
	if !strings.HasSuffix(strings.TrimRight(prompt, " "), "Assistant:") {
		prompt += assistantTurn
	}
	return prompt
}

// stripTurns removes the text-completion turn markers so the prompt can be
// sent as a single Messages API user turn. Like withTurns, it only touches
// prompts that open with a Human turn.
func stripTurns(prompt string) string {
	p := strings.TrimSpace(prompt)
	if !strings.HasPrefix(p, "Human:") {
		return p
	}
	p = strings.TrimPrefix(p, "Human:")
	p = strings.TrimSuffix(p, "Assistant:")
	return strings.TrimSpace(p)
}
