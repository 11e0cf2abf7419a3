package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

const pkPrefix = "RUN#"

// RunStore writes and lists Run records.
type RunStore struct {
	client    ItemAPI
	tableName string
	now       func() time.Time
	newID     func() string
}

// NewRunStore returns a RunStore for tableName.
func NewRunStore(client ItemAPI, tableName string) *RunStore {
	return &RunStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// TableName returns the ledger table.
func (s *RunStore) TableName() string { return s.tableName }

func runPK(handler string) string {
	return pkPrefix + handler
}

// skTimeLayout keeps every fraction digit so sort keys compare in time order.
const skTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func runSK(started time.Time, id string) string {
	return started.UTC().Format(skTimeLayout) + "#" + id
}

// putItem marshals data and writes it with PK, SK and TTL attributes.
func (s *RunStore) putItem(ctx context.Context, pk, sk string, data any) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}
	item["expiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Add(RunTTL).Unix(), 10)}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, sk, err)
	}
	return nil
}

// Record stores run and returns the ID it was stored under. A run without
// an ID gets a fresh UUID; a zero StartedAt becomes now.
func (s *RunStore) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = s.newID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	if err := s.putItem(ctx, runPK(run.Handler), runSK(run.StartedAt, run.ID), run); err != nil {
		return "", err
	}
	log.Debug().Str("runId", run.ID).Str("handler", run.Handler).Str("status", run.Status).Msg("Run recorded")
	return run.ID, nil
}

// Writer adapts the store to jobutil.Settle. The Lambda request ID, when
// present in ctx, is stored with the run.
func (s *RunStore) Writer() jobutil.RunWriter {
	return func(ctx context.Context, result jobutil.Result, errKind, errMsg string) error {
		run := Run{
			Handler:     result.Handler,
			Status:      string(result.Status),
			Bucket:      result.Bucket,
			SourceKey:   result.SourceKey,
			OutputKey:   result.OutputKey,
			InputChars:  result.InputChars,
			OutputBytes: result.OutputBytes,
			Chunks:      result.Chunks,
			ErrorKind:   errKind,
			Error:       errMsg,
			StartedAt:   result.Started,
			DurationMs:  result.Duration.Milliseconds(),
		}
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			run.RequestID = lc.AwsRequestID
		}
		_, err := s.Record(ctx, run)
		return err
	}
}

// Recent returns up to limit runs of handler, newest first.
func (s *RunStore) Recent(ctx context.Context, handler string, limit int) ([]Run, error) {
	pk := runPK(handler)
	input := &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("Query PK=%s: %w", pk, err)
	}

	runs := make([]Run, 0, len(result.Items))
	for _, item := range result.Items {
		var run Run
		if err := attributevalue.UnmarshalMap(item, &run); err != nil {
			return nil, fmt.Errorf("unmarshal run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
