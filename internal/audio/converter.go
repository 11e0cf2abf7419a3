// Package audio converts text objects into spoken MP3 objects in the same
// bucket.
package audio

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/s3util"
	"github.com/fpang/gen-ai-bedrock/internal/speech"
)

// HandlerName identifies the converter in logs, metrics and the run ledger.
const HandlerName = "convert-to-audio"

// Converter reads a text object, synthesizes it and writes the audio under
// s3util.AudioPrefix.
type Converter struct {
	client s3util.ObjectAPI
	synth  speech.Synthesizer
}

// NewConverter returns a Converter using client for storage and synth for speech.
func NewConverter(client s3util.ObjectAPI, synth speech.Synthesizer) *Converter {
	return &Converter{client: client, synth: synth}
}

// Handle converts the object at ref. An unreadable source yields a
// *jobutil.RetrievalError and nothing is written. The whole text goes to the
// synthesizer in one request.
func (c *Converter) Handle(ctx context.Context, ref s3util.ObjectRef) (jobutil.Result, error) {
	result := jobutil.Result{
		Handler:   HandlerName,
		Bucket:    ref.Bucket,
		SourceKey: ref.Key,
		Started:   time.Now(),
	}

	text, err := s3util.ReadText(ctx, c.client, ref)
	if err != nil {
		return result, &jobutil.RetrievalError{Bucket: ref.Bucket, Key: ref.Key, Err: err}
	}
	result.InputChars = utf8.RuneCountInString(text)

	clip, err := c.synth.Synthesize(ctx, text)
	if err != nil {
		return result, jobutil.Upstream("polly", err)
	}

	contentType := clip.ContentType
	if contentType == "" {
		contentType = s3util.ContentTypeMP3
	}
	out := s3util.ObjectRef{Bucket: ref.Bucket, Key: s3util.AudioKey(ref.Key)}
	if err := s3util.PutBytes(ctx, c.client, out, clip.Data, contentType); err != nil {
		return result, jobutil.Upstream("s3", err)
	}

	result.Status = jobutil.StatusWritten
	result.OutputKey = out.Key
	result.OutputBytes = len(clip.Data)
	log.Info().
		Str("source", ref.String()).
		Str("output", out.String()).
		Int("audioBytes", len(clip.Data)).
		Int("billedChars", clip.Characters).
		Msg("Audio written")
	return result, nil
}
