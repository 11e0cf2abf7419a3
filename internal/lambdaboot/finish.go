package lambdaboot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/metrics"
	"github.com/fpang/gen-ai-bedrock/internal/notify"
	"github.com/fpang/gen-ai-bedrock/internal/store"
)

// Finish closes an invocation: it flushes the EMF metrics, announces a
// written result on the event bus and settles the error through
// jobutil.Settle. runs and events may be nil.
func Finish(ctx context.Context, result jobutil.Result, err error, runs *store.RunStore, events *notify.Emitter) error {
	if !result.Started.IsZero() && result.Duration == 0 {
		result.Duration = time.Since(result.Started)
	}

	metrics.RecordResult(metrics.New(metrics.Namespace), result, err)

	if err == nil && events != nil {
		if nerr := events.ResultWritten(ctx, result); nerr != nil {
			log.Warn().Err(nerr).Str("outputKey", result.OutputKey).Msg("Failed to emit ResultWritten event")
		}
	}
	return jobutil.Settle(ctx, result, err, RunWriter(runs))
}
