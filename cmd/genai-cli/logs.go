package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/spf13/cobra"

	"github.com/fpang/gen-ai-bedrock/internal/lambdaboot"
)

var (
	sinceFlag  time.Duration
	filterFlag string
	maxFlag    int
)

var logsCmd = &cobra.Command{
	Use:   "logs <function-name>",
	Short: "Print recent CloudWatch log lines of a deployed Lambda",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clients, err := lambdaboot.LoadAWS(ctx)
		if err != nil {
			return err
		}

		input := &cloudwatchlogs.FilterLogEventsInput{
			LogGroupName: aws.String(logGroup(args[0])),
			StartTime:    aws.Int64(time.Now().Add(-sinceFlag).UnixMilli()),
		}
		if filterFlag != "" {
			input.FilterPattern = aws.String(filterFlag)
		}

		printed := 0
		pages := cloudwatchlogs.NewFilterLogEventsPaginator(cloudwatchlogs.NewFromConfig(clients.Config), input)
		for pages.HasMorePages() && printed < maxFlag {
			page, err := pages.NextPage(ctx)
			if err != nil {
				return fmt.Errorf("FilterLogEvents %s: %w", aws.ToString(input.LogGroupName), err)
			}
			for _, e := range page.Events {
				if printed >= maxFlag {
					break
				}
				ts := time.UnixMilli(aws.ToInt64(e.Timestamp)).Local().Format(time.TimeOnly)
				fmt.Printf("%s %s\n", ts, strings.TrimRight(aws.ToString(e.Message), "\n"))
				printed++
			}
		}
		return nil
	},
}

// logGroup returns the Lambda log group for a function name or ARN.
func logGroup(function string) string {
	if i := strings.LastIndex(function, ":function:"); i >= 0 {
		function = function[i+len(":function:"):]
		function, _, _ = strings.Cut(function, ":")
	}
	return "/aws/lambda/" + function
}

func init() {
	logsCmd.Flags().DurationVar(&sinceFlag, "since", 15*time.Minute, "How far back to read")
	logsCmd.Flags().StringVar(&filterFlag, "filter", "", `CloudWatch filter pattern, e.g. '{ $.level = "error" }'`)
	logsCmd.Flags().IntVar(&maxFlag, "max", 200, "Maximum lines to print")
}
