// Package main provides the Lambda entry point that turns uploaded text into
// speech.
//
// Triggered by S3 object-created notifications. The first record's object is
// read as text, synthesized with Amazon Polly and written back to the same
// bucket at output/audio/<name>.mp3. An unreadable object is logged and the
// invocation ends without error.
//
// Memory: 256 MB
// Timeout: 1 minute
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/audio"
	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/lambdaboot"
	"github.com/fpang/gen-ai-bedrock/internal/logging"
	"github.com/fpang/gen-ai-bedrock/internal/notify"
	"github.com/fpang/gen-ai-bedrock/internal/s3util"
	"github.com/fpang/gen-ai-bedrock/internal/store"
)

const functionName = "convert-to-audio-lambda"

// Clients initialized at cold start.
var (
	converter *audio.Converter
	runs      *store.RunStore
	notifier  *notify.Emitter
)

var coldStart = true

func init() {
	initStart := time.Now()
	logging.Init()

	clients := lambdaboot.InitAWS()
	synth := lambdaboot.InitPolly(clients.Config)
	converter = audio.NewConverter(lambdaboot.InitS3(clients.Config), synth)
	runs = lambdaboot.InitRunLedgerOptional(clients.Config)
	notifier = lambdaboot.InitNotifierOptional(clients.Config)

	lambdaboot.StartupLog(functionName, initStart).
		Config("pollyVoice", synth.Voice()).
		Config("pollyEngine", os.Getenv(lambdaboot.EnvEngine)).
		DynamoTable("runs", os.Getenv(lambdaboot.EnvRunsTable)).
		EventBus("results", os.Getenv(lambdaboot.EnvEventBus)).
		Feature("runLedger", runs != nil).
		Feature("notifications", notifier != nil).
		Log()
}

func handler(ctx context.Context, evt events.S3Event) error {
	if coldStart {
		coldStart = false
		log.Info().Str("function", functionName).Msg("Cold start, first invocation")
	}

	ref, err := s3util.FirstRecord(evt)
	if err != nil {
		return lambdaboot.Finish(ctx, jobutil.Result{Handler: audio.HandlerName, Started: time.Now()}, err, runs, notifier)
	}
	if n := len(evt.Records); n > 1 {
		log.Warn().Int("records", n).Str("key", ref.Key).Msg("Only the first record is processed")
	}

	result, err := converter.Handle(ctx, ref)
	return lambdaboot.Finish(ctx, result, err, runs, notifier)
}

func main() {
	lambda.Start(handler)
}
