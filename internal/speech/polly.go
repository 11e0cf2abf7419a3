// Package speech turns text into audio through Amazon Polly.
package speech

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/rs/zerolog/log"
)

// DefaultVoice is the Polly voice used when none is configured.
const DefaultVoice = "Joanna"

// PollyAPI is the subset of *polly.Client the synthesizer uses.
type PollyAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

var _ PollyAPI = (*polly.Client)(nil)

// Audio is a synthesized clip held in memory.
type Audio struct {
	Data        []byte
	ContentType string
	// Characters is the number of characters Polly billed for the request.
	Characters int
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// Polly synthesizes MP3 audio with a fixed voice.
type Polly struct {
	client PollyAPI
	voice  pollytypes.VoiceId
	engine pollytypes.Engine
}

// NewPolly returns a Polly synthesizer for voice. An empty voice selects
// DefaultVoice; an empty engine leaves the choice to the service.
func NewPolly(client PollyAPI, voice, engine string) *Polly {
	if voice == "" {
		voice = DefaultVoice
	}
	return &Polly{
		client: client,
		voice:  pollytypes.VoiceId(voice),
		engine: pollytypes.Engine(engine),
	}
}

// Voice returns the configured voice identity.
func (p *Polly) Voice() string { return string(p.voice) }

// Synthesize sends the full text to Polly in one request. Text longer than the
// service limit is rejected by Polly and surfaces as an error.
func (p *Polly) Synthesize(ctx context.Context, text string) (*Audio, error) {
	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: pollytypes.OutputFormatMp3,
		VoiceId:      p.voice,
	}
	if p.engine != "" {
		input.Engine = p.engine
	}

	callStart := time.Now()
	out, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("voice", string(p.voice)).Int("textLength", len(text)).Msg("Polly SynthesizeSpeech failed")
		return nil, fmt.Errorf("SynthesizeSpeech: %w", err)
	}
	defer out.AudioStream.Close()

	data, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("read audio stream: %w", err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	log.Debug().
		Str("voice", string(p.voice)).
		Int("audioBytes", len(data)).
		Int32("requestCharacters", out.RequestCharacters).
		Dur("duration", time.Since(callStart)).
		Msg("Speech synthesized")

	return &Audio{
		Data:        data,
		ContentType: contentType,
		Characters:  int(out.RequestCharacters),
	}, nil
}
