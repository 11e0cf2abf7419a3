package metrics

import (
	"time"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

// RecordResult flushes the per-invocation metrics of one handler run.
func RecordResult(r *Recorder, result jobutil.Result, err error) {
	d := result.Duration
	if d == 0 && !result.Started.IsZero() {
		d = time.Since(result.Started)
	}
	r.Dimension("Operation", result.Handler).
		Metric("DurationMs", float64(d.Milliseconds()), UnitMilliseconds).
		Metric("InputChars", float64(result.InputChars), UnitCount).
		Metric("OutputBytes", float64(result.OutputBytes), UnitBytes)
	if result.Chunks > 0 {
		r.Metric("Chunks", float64(result.Chunks), UnitCount)
	}

	skipped := 0.0
	if err != nil && jobutil.Swallowed(err) {
		skipped = 1
	}
	r.Metric("Skipped", skipped, UnitCount)

	if result.SourceKey != "" {
		r.Property("sourceKey", result.SourceKey)
	}
	if kind := jobutil.Kind(err); kind != "" {
		r.Property("errorKind", kind)
	}
	r.Flush()
}
