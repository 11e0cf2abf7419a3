package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/gen-ai-bedrock/internal/lambdaboot"
)

var (
	payloadFlag     string
	payloadFileFlag string
	tailLogsFlag    bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <function-name>",
	Short: "Invoke a deployed Lambda synchronously and print its response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := []byte(payloadFlag)
		if payloadFileFlag != "" {
			b, err := os.ReadFile(payloadFileFlag)
			if err != nil {
				return err
			}
			payload = b
		}
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		if !json.Valid(payload) {
			return fmt.Errorf("payload is not valid JSON")
		}

		ctx := cmd.Context()
		clients, err := lambdaboot.LoadAWS(ctx)
		if err != nil {
			return err
		}

		input := &lambdasvc.InvokeInput{
			FunctionName:   aws.String(args[0]),
			InvocationType: lambdatypes.InvocationTypeRequestResponse,
			Payload:        payload,
		}
		if tailLogsFlag {
			input.LogType = lambdatypes.LogTypeTail
		}
		out, err := lambdasvc.NewFromConfig(clients.Config).Invoke(ctx, input)
		if err != nil {
			return fmt.Errorf("invoke %s: %w", args[0], err)
		}
		log.Debug().Int32("statusCode", out.StatusCode).Str("version", aws.ToString(out.ExecutedVersion)).Msg("Lambda invoked")

		if tailLogsFlag && out.LogResult != nil {
			if logs, err := base64.StdEncoding.DecodeString(*out.LogResult); err == nil {
				fmt.Fprintln(os.Stderr, string(logs))
			}
		}
		fmt.Println(string(out.Payload))
		if out.FunctionError != nil {
			return fmt.Errorf("function error: %s", aws.ToString(out.FunctionError))
		}
		return nil
	},
}

func init() {
	invokeCmd.Flags().StringVarP(&payloadFlag, "payload", "p", "", "JSON event payload")
	invokeCmd.Flags().StringVar(&payloadFileFlag, "payload-file", "", "Read the JSON event payload from a file")
	invokeCmd.Flags().BoolVar(&tailLogsFlag, "logs", false, "Print the last 4 KB of the invocation log to stderr")
}
