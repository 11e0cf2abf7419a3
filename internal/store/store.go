// Package store keeps an optional ledger of handler invocations in DynamoDB.
//
// All runs of one handler share a partition key (RUN#{handler}); the sort key
// ({fixed-width RFC3339 UTC start}#{runId}) orders them by start time. A TTL attribute
// (expiresAt) removes records after RunTTL.
package store

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// RunTTL is how long run records are kept.
const RunTTL = 30 * 24 * time.Hour

// ItemAPI is the subset of *dynamodb.Client the ledger uses.
type ItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ ItemAPI = (*dynamodb.Client)(nil)

// Run is one recorded invocation. Handler and ID are carried in the keys.
type Run struct {
	ID          string    `dynamodbav:"runId"`
	Handler     string    `dynamodbav:"handler"`
	Status      string    `dynamodbav:"status"`
	Bucket      string    `dynamodbav:"bucket,omitempty"`
	SourceKey   string    `dynamodbav:"sourceKey,omitempty"`
	OutputKey   string    `dynamodbav:"outputKey,omitempty"`
	InputChars  int       `dynamodbav:"inputChars"`
	OutputBytes int       `dynamodbav:"outputBytes"`
	Chunks      int       `dynamodbav:"chunks,omitempty"`
	ErrorKind   string    `dynamodbav:"errorKind,omitempty"`
	Error       string    `dynamodbav:"error,omitempty"`
	StartedAt   time.Time `dynamodbav:"startedAt"`
	DurationMs  int64     `dynamodbav:"durationMs"`
	RequestID   string    `dynamodbav:"requestId,omitempty"`
}
