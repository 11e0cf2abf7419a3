// Package main provides the Lambda entry point that summarizes uploaded text.
//
// Triggered by S3 object-created notifications. The first record's object is
// split into 4000-character chunks with 100 characters of overlap, each chunk
// is summarized by the configured model and the partial summaries are
// combined. The result is written to output/summary/<name> in the same
// bucket. Unreadable or blank objects are logged and skipped.
//
// Memory: 512 MB
// Timeout: 5 minutes
package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/lambdaboot"
	"github.com/fpang/gen-ai-bedrock/internal/llm"
	"github.com/fpang/gen-ai-bedrock/internal/logging"
	"github.com/fpang/gen-ai-bedrock/internal/notify"
	"github.com/fpang/gen-ai-bedrock/internal/s3util"
	"github.com/fpang/gen-ai-bedrock/internal/store"
	"github.com/fpang/gen-ai-bedrock/internal/summarize"
)

const functionName = "summarise-text-lambda"

// Clients initialized at cold start.
var (
	service  *summarize.Service
	runs     *store.RunStore
	notifier *notify.Emitter
)

var coldStart = true

func init() {
	initStart := time.Now()
	logging.Init()

	clients := lambdaboot.InitAWS()
	gen, gc := lambdaboot.InitGenerator(clients)
	pipeline := summarize.NewMapReduce(
		summarize.NewLLMSummarizer(gen),
		summarize.WithConcurrency(lambdaboot.IntEnv(lambdaboot.EnvMapConcurrency, 1)),
	)
	service = summarize.NewService(lambdaboot.InitS3(clients.Config), nil, pipeline)
	runs = lambdaboot.InitRunLedgerOptional(clients.Config)
	notifier = lambdaboot.InitNotifierOptional(clients.Config)

	startup := lambdaboot.StartupLog(functionName, initStart).
		Model("summary", gc.Model()).
		DynamoTable("runs", os.Getenv(lambdaboot.EnvRunsTable)).
		EventBus("results", os.Getenv(lambdaboot.EnvEventBus)).
		Config("bedrockRegion", gc.BedrockRegion).
		Config("mapConcurrency", strconv.Itoa(pipeline.Concurrency())).
		Feature("runLedger", runs != nil).
		Feature("notifications", notifier != nil)
	if p, _ := llm.ParseProvider(gc.Provider); p == llm.ProviderGemini {
		startup.SSMParam("geminiKey", gc.GeminiKeyParam)
	}
	startup.Log()
}

func handler(ctx context.Context, evt events.S3Event) error {
	if coldStart {
		coldStart = false
		log.Info().Str("function", functionName).Msg("Cold start, first invocation")
	}

	ref, err := s3util.FirstRecord(evt)
	if err != nil {
		return lambdaboot.Finish(ctx, jobutil.Result{Handler: summarize.HandlerName, Started: time.Now()}, err, runs, notifier)
	}
	if n := len(evt.Records); n > 1 {
		log.Warn().Int("records", n).Str("key", ref.Key).Msg("Only the first record is processed")
	}

	result, err := service.Handle(ctx, ref)
	return lambdaboot.Finish(ctx, result, err, runs, notifier)
}

func main() {
	lambda.Start(handler)
}
