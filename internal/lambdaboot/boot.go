// Package lambdaboot holds the cold-start bootstrap shared by the handler
// Lambdas.
//
// Every Lambda needs some subset of: AWS config, S3, Polly, a text generator,
// the optional run ledger and event bus, and startup logging. Each Lambda's
// init() is a short composition of these helpers. Init* helpers exit on
// misconfiguration; the New* variants return errors for the CLI.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/llm"
	"github.com/fpang/gen-ai-bedrock/internal/logging"
	"github.com/fpang/gen-ai-bedrock/internal/notify"
	"github.com/fpang/gen-ai-bedrock/internal/speech"
	"github.com/fpang/gen-ai-bedrock/internal/store"
)

// Environment variables read at cold start.
const (
	EnvModelID           = "MODEL_ID"
	EnvBedrockRegion     = "BEDROCK_REGION"
	EnvProvider          = "LLM_PROVIDER"
	EnvGeminiModel       = "GEMINI_MODEL"
	EnvGeminiKey         = "GEMINI_API_KEY"
	EnvGeminiKeyParam    = "SSM_API_KEY_PARAM"
	EnvVoiceID           = "POLLY_VOICE_ID"
	EnvEngine            = "POLLY_ENGINE"
	EnvMapConcurrency    = "SUMMARY_MAP_CONCURRENCY"
	EnvRunsTable         = "RUNS_TABLE_NAME"
	EnvEventBus          = "EVENT_BUS_NAME"
	defaultBedrockRegion = "us-east-1"
	defaultGeminiParam   = "/gen-ai-bedrock/prod/gemini-api-key"
)

// AWSClients holds the AWS config and the clients every Lambda shares.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// LoadAWS loads the default AWS config.
func LoadAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{Config: cfg, SSM: ssm.NewFromConfig(cfg)}, nil
}

// InitAWS is LoadAWS for init(). Fatals on error.
func InitAWS() AWSClients {
	clients, err := LoadAWS(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	return clients
}

// InitS3 creates the S3 client. Buckets come from the triggering events.
func InitS3(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

// InitPolly creates the speech synthesizer from POLLY_VOICE_ID and POLLY_ENGINE.
func InitPolly(cfg aws.Config) *speech.Polly {
	voice := logging.EnvOrDefault(EnvVoiceID, speech.DefaultVoice)
	return speech.NewPolly(polly.NewFromConfig(cfg), voice, os.Getenv(EnvEngine))
}

// GeneratorConfig selects and configures the text generator.
type GeneratorConfig struct {
	Provider       string
	ModelID        string
	BedrockRegion  string
	GeminiModel    string
	GeminiKeyParam string
}

// GeneratorConfigFromEnv reads the generator settings from the environment.
func GeneratorConfigFromEnv() GeneratorConfig {
	return GeneratorConfig{
		Provider:       os.Getenv(EnvProvider),
		ModelID:        logging.EnvOrDefault(EnvModelID, llm.DefaultBedrockModel),
		BedrockRegion:  logging.EnvOrDefault(EnvBedrockRegion, defaultBedrockRegion),
		GeminiModel:    logging.EnvOrDefault(EnvGeminiModel, llm.DefaultGeminiModel),
		GeminiKeyParam: logging.EnvOrDefault(EnvGeminiKeyParam, defaultGeminiParam),
	}
}

// Model returns the model the configuration selects.
func (c GeneratorConfig) Model() string {
	if p, _ := llm.ParseProvider(c.Provider); p == llm.ProviderGemini {
		return c.GeminiModel
	}
	return c.ModelID
}

// NewGenerator builds the configured text generator. Bedrock clients are
// pinned to BedrockRegion; Gemini reads its API key through GeminiKey.
func NewGenerator(ctx context.Context, clients AWSClients, gc GeneratorConfig) (llm.TextGenerator, error) {
	provider, err := llm.ParseProvider(gc.Provider)
	if err != nil {
		return nil, err
	}
	inference := llm.DefaultInference()

	switch provider {
	case llm.ProviderGemini:
		key, err := GeminiKey(ctx, clients.SSM, gc.GeminiKeyParam)
		if err != nil {
			return nil, err
		}
		client, err := llm.NewGeminiClient(ctx, key)
		if err != nil {
			return nil, err
		}
		return llm.NewGemini(client.Models, gc.GeminiModel, inference), nil
	default:
		client := bedrockruntime.NewFromConfig(clients.Config, func(o *bedrockruntime.Options) {
			if gc.BedrockRegion != "" {
				o.Region = gc.BedrockRegion
			}
		})
		return llm.NewBedrock(client, gc.ModelID, inference)
	}
}

// InitGenerator is NewGenerator for init(), configured from the environment.
// Fatals on error.
func InitGenerator(clients AWSClients) (llm.TextGenerator, GeneratorConfig) {
	gc := GeneratorConfigFromEnv()
	gen, err := NewGenerator(context.Background(), clients, gc)
	if err != nil {
		log.Fatal().Err(err).Str("provider", gc.Provider).Str("model", gc.Model()).Msg("Failed to create text generator")
	}
	return gen, gc
}

// ParameterAPI is the subset of *ssm.Client used to read secrets.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// GeminiKey returns GEMINI_API_KEY when set, otherwise the decrypted SSM
// parameter paramName.
func GeminiKey(ctx context.Context, client ParameterAPI, paramName string) (string, error) {
	if key := os.Getenv(EnvGeminiKey); key != "" {
		return key, nil
	}
	ssmStart := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("read %s from SSM: %w", paramName, err)
	}
	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return "", fmt.Errorf("SSM parameter %s is empty", paramName)
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
	return aws.ToString(result.Parameter.Value), nil
}

// InitRunLedgerOptional creates the run ledger if RUNS_TABLE_NAME is set.
// Returns nil (with a warning) if not configured.
func InitRunLedgerOptional(cfg aws.Config) *store.RunStore {
	tableName := os.Getenv(EnvRunsTable)
	if tableName == "" {
		log.Warn().Str("envVar", EnvRunsTable).Msg("Runs table not set, run ledger disabled")
		return nil
	}
	return store.NewRunStore(dynamodb.NewFromConfig(cfg), tableName)
}

// RunWriter returns the ledger's writer, or nil for a disabled ledger.
func RunWriter(runs *store.RunStore) jobutil.RunWriter {
	if runs == nil {
		return nil
	}
	return runs.Writer()
}

// InitNotifierOptional creates the event emitter if EVENT_BUS_NAME is set.
// Returns nil if not configured.
func InitNotifierOptional(cfg aws.Config) *notify.Emitter {
	bus := os.Getenv(EnvEventBus)
	if bus == "" {
		log.Debug().Str("envVar", EnvEventBus).Msg("Event bus not set, notifications disabled")
		return nil
	}
	return notify.NewEmitter(eventbridge.NewFromConfig(cfg), bus)
}

// IntEnv returns the integer value of envVar, or def when unset or invalid.
func IntEnv(envVar string, def int) int {
	v := os.Getenv(envVar)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("envVar", envVar).Str("value", v).Int("default", def).Msg("Invalid integer, using default")
		return def
	}
	return n
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
