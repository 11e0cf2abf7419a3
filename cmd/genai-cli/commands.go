package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/fpang/gen-ai-bedrock/internal/audio"
	"github.com/fpang/gen-ai-bedrock/internal/complaint"
	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/lambdaboot"
	"github.com/fpang/gen-ai-bedrock/internal/s3util"
	"github.com/fpang/gen-ai-bedrock/internal/store"
	"github.com/fpang/gen-ai-bedrock/internal/summarize"
	"github.com/fpang/gen-ai-bedrock/internal/textsplit"
)

var (
	bucketFlag      string
	keyFlag         string
	fileFlag        string
	customerFlag    string
	managerFlag     string
	feedbackFlag    string
	concurrencyFlag int
	sizeFlag        int
	overlapFlag     int
	handlerFlag     string
	limitFlag       int
	tableFlag       string
)

var speakCmd = &cobra.Command{
	Use:   "speak",
	Short: "Convert an S3 text object to output/audio/<name>.mp3",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clients, err := lambdaboot.LoadAWS(ctx)
		if err != nil {
			return err
		}
		c := audio.NewConverter(lambdaboot.InitS3(clients.Config), lambdaboot.InitPolly(clients.Config))
		result, err := c.Handle(ctx, s3util.ObjectRef{Bucket: bucketFlag, Key: keyFlag})
		if err != nil {
			return err
		}
		fmt.Printf("s3://%s/%s (%d bytes)\n", result.Bucket, result.OutputKey, result.OutputBytes)
		return nil
	},
}

var replyCmd = &cobra.Command{
	Use:   "reply",
	Short: "Draft an apology email for customer feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gen, _, err := newGenerator(ctx)
		if err != nil {
			return err
		}
		email, err := complaint.NewResponder(gen).Reply(ctx, complaint.Request{
			CustomerFeedback: feedbackFlag,
			CustomerName:     customerFlag,
			ServiceManager:   managerFlag,
		})
		if err != nil {
			return err
		}
		fmt.Println(email)
		return nil
	},
}

var summariseCmd = &cobra.Command{
	Use:   "summarise",
	Short: "Summarize an S3 text object, or a local file with --file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (fileFlag == "") == (bucketFlag == "" || keyFlag == "") {
			return errors.New("use either --file or both --bucket and --key")
		}
		ctx := cmd.Context()
		gen, clients, err := newGenerator(ctx)
		if err != nil {
			return err
		}
		pipeline := summarize.NewMapReduce(summarize.NewLLMSummarizer(gen), summarize.WithConcurrency(concurrencyFlag))

		if fileFlag != "" {
			text, err := os.ReadFile(fileFlag)
			if err != nil {
				return err
			}
			summary, chunks, err := summarize.NewService(nil, nil, pipeline).Summarize(ctx, string(text))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d chunks\n", chunks)
			fmt.Println(summary)
			return nil
		}

		svc := summarize.NewService(lambdaboot.InitS3(clients.Config), nil, pipeline)
		result, err := svc.Handle(ctx, s3util.ObjectRef{Bucket: bucketFlag, Key: keyFlag})
		if err != nil {
			return err
		}
		fmt.Printf("s3://%s/%s (%d chunks, %d bytes)\n", result.Bucket, result.OutputKey, result.Chunks, result.OutputBytes)
		return nil
	},
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Print how a local file would be chunked for summarization",
	RunE: func(cmd *cobra.Command, args []string) error {
		splitter, err := textsplit.New(sizeFlag, overlapFlag, textsplit.DefaultSeparators...)
		if err != nil {
			return err
		}
		text, err := os.ReadFile(fileFlag)
		if err != nil {
			return err
		}
		spans := splitter.Spans(string(text))
		if len(spans) == 0 {
			return jobutil.ErrEmptySource
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CHUNK\tSTART\tEND\tRUNES\tOVERLAP")
		for i, sp := range spans {
			overlap := 0
			if i > 0 {
				overlap = spans[i-1].End - sp.Start
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", i+1, sp.Start, sp.End, sp.Len(), overlap)
		}
		fmt.Fprintf(w, "total\t\t%d\t\t\n", utf8.RuneCount(text))
		return w.Flush()
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent invocations from the run ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tableFlag == "" {
			return fmt.Errorf("--table or %s is required", lambdaboot.EnvRunsTable)
		}
		ctx := cmd.Context()
		clients, err := lambdaboot.LoadAWS(ctx)
		if err != nil {
			return err
		}
		runs := store.NewRunStore(dynamodb.NewFromConfig(clients.Config), tableFlag)
		list, err := runs.Recent(ctx, handlerFlag, limitFlag)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSTATUS\tSOURCE\tOUTPUT\tDURATION\tERROR")
		for _, r := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.SourceKey, r.OutputKey, r.DurationMs, r.ErrorKind)
		}
		return w.Flush()
	},
}

func init() {
	speakCmd.Flags().StringVar(&bucketFlag, "bucket", "", "Source bucket")
	speakCmd.Flags().StringVar(&keyFlag, "key", "", "Source object key")
	speakCmd.MarkFlagRequired("bucket")
	speakCmd.MarkFlagRequired("key")

	replyCmd.Flags().StringVar(&customerFlag, "customer", "", "Customer name")
	replyCmd.Flags().StringVar(&managerFlag, "manager", "", "Service manager signing the email")
	replyCmd.Flags().StringVar(&feedbackFlag, "feedback", "", "Customer feedback text")
	replyCmd.MarkFlagRequired("feedback")

	summariseCmd.Flags().StringVar(&bucketFlag, "bucket", "", "Source bucket")
	summariseCmd.Flags().StringVar(&keyFlag, "key", "", "Source object key")
	summariseCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Summarize a local file and print the result")
	summariseCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 1, "Chunks summarized at once")

	splitCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Local text file")
	splitCmd.Flags().IntVar(&sizeFlag, "size", textsplit.DefaultChunkSize, "Maximum chunk size in characters")
	splitCmd.Flags().IntVar(&overlapFlag, "overlap", textsplit.DefaultChunkOverlap, "Minimum overlap between chunks in characters")
	splitCmd.MarkFlagRequired("file")

	runsCmd.Flags().StringVar(&handlerFlag, "handler", summarize.HandlerName, "Handler name: convert-to-audio, reply-to-complaint or summarise-text")
	runsCmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum runs to list")
	runsCmd.Flags().StringVar(&tableFlag, "table", os.Getenv(lambdaboot.EnvRunsTable), "Run ledger table")
}
