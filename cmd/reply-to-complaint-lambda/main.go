// Package main provides the Lambda entry point that drafts apology emails.
//
// Invoked directly with a JSON payload:
//
//	{
//	  "customer_feedback": "Delayed delivery",
//	  "customer_name": "Jane",
//	  "service_manager": "Tom"
//	}
//
// The feedback is placed in a fixed prompt, the model drafts the email and
// its first line (the model's lead-in) is dropped. The email text is the
// function's return value.
//
// Memory: 256 MB
// Timeout: 1 minute
package main

import (
	"context"
	"os"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/complaint"
	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/lambdaboot"
	"github.com/fpang/gen-ai-bedrock/internal/llm"
	"github.com/fpang/gen-ai-bedrock/internal/logging"
	"github.com/fpang/gen-ai-bedrock/internal/store"
)

const functionName = "reply-to-complaint-lambda"

// Clients initialized at cold start.
var (
	responder *complaint.Responder
	runs      *store.RunStore
)

var coldStart = true

func init() {
	initStart := time.Now()
	logging.Init()

	clients := lambdaboot.InitAWS()
	gen, gc := lambdaboot.InitGenerator(clients)
	responder = complaint.NewResponder(gen)
	runs = lambdaboot.InitRunLedgerOptional(clients.Config)

	startup := lambdaboot.StartupLog(functionName, initStart).
		Model("email", gc.Model()).
		DynamoTable("runs", os.Getenv(lambdaboot.EnvRunsTable)).
		Config("bedrockRegion", gc.BedrockRegion).
		Feature("stripPreamble", llm.HasLeadingPreamble(gen)).
		Feature("runLedger", runs != nil)
	if p, _ := llm.ParseProvider(gc.Provider); p == llm.ProviderGemini {
		startup.SSMParam("geminiKey", gc.GeminiKeyParam)
	}
	startup.Log()
}

func handler(ctx context.Context, event map[string]any) (string, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", functionName).Msg("Cold start, first invocation")
	}
	result := jobutil.Result{Handler: complaint.HandlerName, Started: time.Now()}

	req, err := complaint.ParseRequest(event)
	if err != nil {
		return "", lambdaboot.Finish(ctx, result, err, runs, nil)
	}
	result.InputChars = utf8.RuneCountInString(req.CustomerFeedback)

	email, err := responder.Reply(ctx, req)
	if err != nil {
		return "", lambdaboot.Finish(ctx, result, err, runs, nil)
	}
	result.Status = jobutil.StatusWritten
	result.OutputBytes = len(email)

	log.Info().
		Str("customer", req.CustomerName).
		Str("serviceManager", req.ServiceManager).
		Str("email", email).
		Msg("Apology email drafted")
	return email, lambdaboot.Finish(ctx, result, nil, runs, nil)
}

func main() {
	lambda.Start(handler)
}
