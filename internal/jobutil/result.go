package jobutil

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Status is the terminal state of one invocation.
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result describes what one invocation did. Handlers return it alongside
// their error so the boundary can log and record both.
type Result struct {
	Handler   string
	Status    Status
	Bucket    string
	SourceKey string
	OutputKey string

	InputChars  int
	OutputBytes int
	Chunks      int

	Started  time.Time
	Duration time.Duration
}

// RunWriter persists a finished run. Each Lambda passes the optional run
// ledger's writer, or nil when the ledger is disabled.
type RunWriter func(ctx context.Context, result Result, errKind, errMsg string) error

// Settle is the boundary between a handler and the Lambda runtime. Swallowed
// failures (unreadable or empty source) are logged and turned into a nil
// error; everything else is logged and returned. The run is handed to write
// in every case; a ledger failure is logged and never changes the outcome.
func Settle(ctx context.Context, result Result, err error, write RunWriter) error {
	if !result.Started.IsZero() && result.Duration == 0 {
		result.Duration = time.Since(result.Started)
	}

	kind := Kind(err)
	logger := log.With().
		Str("handler", result.Handler).
		Str("bucket", result.Bucket).
		Str("key", result.SourceKey).
		Logger()

	var out error
	switch {
	case err == nil:
		if result.Status == "" {
			result.Status = StatusWritten
		}
		logEvent(logger.Info(), result).Msg("Invocation complete")
	case Swallowed(err):
		result.Status = StatusSkipped
		logger.Error().Err(err).Str("kind", kind).Msg("Error getting object, invocation aborted")
	default:
		result.Status = StatusFailed
		logger.Error().Err(err).Str("kind", kind).Dur("duration", result.Duration).Msg("Invocation failed")
		out = err
	}

	if write != nil {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		if werr := write(ctx, result, kind, msg); werr != nil {
			logger.Warn().Err(werr).Msg("Failed to record run")
		}
	}
	return out
}

func logEvent(evt *zerolog.Event, r Result) *zerolog.Event {
	evt = evt.Str("status", string(r.Status)).Dur("duration", r.Duration)
	if r.OutputKey != "" {
		evt = evt.Str("outputKey", r.OutputKey)
	}
	if r.InputChars > 0 {
		evt = evt.Int("inputChars", r.InputChars)
	}
	if r.OutputBytes > 0 {
		evt = evt.Int("outputBytes", r.OutputBytes)
	}
	if r.Chunks > 0 {
		evt = evt.Int("chunks", r.Chunks)
	}
	return evt
}
