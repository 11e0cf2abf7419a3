package summarize

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/s3util"
	"github.com/fpang/gen-ai-bedrock/internal/textsplit"
)

// HandlerName identifies the summarizer in logs, metrics and the run ledger.
const HandlerName = "summarise-text"

// Service reads a text object, summarizes it and writes the summary next to
// it under s3util.SummaryPrefix.
//
// A blank source is skipped with jobutil.ErrEmptySource: no model call is made
// and no summary object is written, not even an empty one.
type Service struct {
	client   s3util.ObjectAPI
	splitter *textsplit.Splitter
	pipeline *MapReduce
}

// NewService wires the summarizer. A nil splitter selects the 4000/100 default.
func NewService(client s3util.ObjectAPI, splitter *textsplit.Splitter, pipeline *MapReduce) *Service {
	if splitter == nil {
		splitter = textsplit.NewDefault()
	}
	return &Service{client: client, splitter: splitter, pipeline: pipeline}
}

// Summarize runs the pipeline over text without touching S3. It returns the
// summary and the number of chunks it was built from.
func (s *Service) Summarize(ctx context.Context, text string) (string, int, error) {
	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return "", 0, jobutil.ErrEmptySource
	}
	summary, err := s.pipeline.Run(ctx, chunks)
	return summary, len(chunks), err
}

// Handle summarizes the object at ref. An unreadable source yields a
// *jobutil.RetrievalError and a blank source jobutil.ErrEmptySource; neither
// writes anything.
func (s *Service) Handle(ctx context.Context, ref s3util.ObjectRef) (jobutil.Result, error) {
	result := jobutil.Result{
		Handler:   HandlerName,
		Bucket:    ref.Bucket,
		SourceKey: ref.Key,
		Started:   time.Now(),
	}

	text, err := s3util.ReadText(ctx, s.client, ref)
	if err != nil {
		return result, &jobutil.RetrievalError{Bucket: ref.Bucket, Key: ref.Key, Err: err}
	}
	result.InputChars = utf8.RuneCountInString(text)

	summary, chunks, err := s.Summarize(ctx, text)
	result.Chunks = chunks
	if err != nil {
		return result, err
	}

	out := s3util.ObjectRef{Bucket: ref.Bucket, Key: s3util.SummaryKey(ref.Key)}
	body := []byte(summary)
	if err := s3util.PutBytes(ctx, s.client, out, body, s3util.ContentTypeText); err != nil {
		return result, jobutil.Upstream("s3", err)
	}

	result.Status = jobutil.StatusWritten
	result.OutputKey = out.Key
	result.OutputBytes = len(body)
	log.Info().
		Str("source", ref.String()).
		Str("output", out.String()).
		Int("chunks", chunks).
		Int("summaryChars", utf8.RuneCount(body)).
		Msg("Summary written")
	return result, nil
}
