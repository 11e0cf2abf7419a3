package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/gen-ai-bedrock/internal/lambdaboot"
	"github.com/fpang/gen-ai-bedrock/internal/llm"
	"github.com/fpang/gen-ai-bedrock/internal/logging"
)

// Global flags
var (
	providerFlag string
	modelFlag    string
	regionFlag   string
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "genai-cli",
	Short: "Run the gen-ai-bedrock handlers from a terminal",
	Long: `genai-cli drives the same text-to-speech, complaint reply and summarization
code the Lambdas run, against real AWS services, and can invoke the deployed
functions directly.

Examples:
  genai-cli speak --bucket my-bucket --key input/notes.txt
  genai-cli reply --customer Jane --manager Tom --feedback "Delayed delivery"
  genai-cli summarise --file ./report.txt
  genai-cli summarise --bucket my-bucket --key input/report.txt --concurrency 4
  genai-cli split --file ./report.txt
  genai-cli runs --handler summarise-text --limit 5
  genai-cli logs summarise-text --since 1h
  genai-cli invoke reply-to-complaint --payload '{"customer_feedback":"Late","customer_name":"Jane","service_manager":"Tom"}'`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "Text generator provider: bedrock or gemini (default from LLM_PROVIDER, else bedrock)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model ID override (Bedrock model ID or Gemini model name)")
	rootCmd.PersistentFlags().StringVar(&regionFlag, "bedrock-region", "", "Bedrock region override (default from BEDROCK_REGION, else us-east-1)")

	rootCmd.AddCommand(speakCmd, replyCmd, summariseCmd, splitCmd, runsCmd, invokeCmd, logsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// generatorConfig applies the global flags on top of the environment.
func generatorConfig() lambdaboot.GeneratorConfig {
	gc := lambdaboot.GeneratorConfigFromEnv()
	if providerFlag != "" {
		gc.Provider = providerFlag
	}
	if regionFlag != "" {
		gc.BedrockRegion = regionFlag
	}
	if modelFlag != "" {
		if p, _ := llm.ParseProvider(gc.Provider); p == llm.ProviderGemini {
			gc.GeminiModel = modelFlag
		} else {
			gc.ModelID = modelFlag
		}
	}
	return gc
}

// newGenerator loads AWS config and builds the configured text generator.
func newGenerator(ctx context.Context) (llm.TextGenerator, lambdaboot.AWSClients, error) {
	clients, err := lambdaboot.LoadAWS(ctx)
	if err != nil {
		return nil, clients, err
	}
	gc := generatorConfig()
	gen, err := lambdaboot.NewGenerator(ctx, clients, gc)
	if err != nil {
		return nil, clients, err
	}
	log.Debug().Str("model", gc.Model()).Msg("Text generator ready")
	return gen, clients, nil
}
