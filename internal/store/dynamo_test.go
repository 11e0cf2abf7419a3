package store

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

type fakeDynamo struct {
	puts    []*dynamodb.PutItemInput
	queries []*dynamodb.QueryInput
	items   []map[string]types.AttributeValue
	err     error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	if f.err != nil {
		return nil, f.err
	}
	f.items = append([]map[string]types.AttributeValue{in.Item}, f.items...)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.QueryOutput{Items: f.items}, nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(f *fakeDynamo) *RunStore {
	s := NewRunStore(f, "genai-runs")
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "run-1" }
	return s
}

func attrS(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		t.Fatalf("attribute %s missing or not a string: %#v", name, item[name])
	}
	return v.Value
}

func TestRecord_KeysAndTTL(t *testing.T) {
	f := &fakeDynamo{}
	s := newTestStore(f)

	id, err := s.Record(context.Background(), Run{Handler: "convert-to-audio", Status: "written"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id != "run-1" {
		t.Errorf("id = %q", id)
	}

	in := f.puts[0]
	if aws.ToString(in.TableName) != "genai-runs" {
		t.Errorf("table = %q", aws.ToString(in.TableName))
	}
	if pk := attrS(t, in.Item, "PK"); pk != "RUN#convert-to-audio" {
		t.Errorf("PK = %q", pk)
	}
	if sk := attrS(t, in.Item, "SK"); sk != "2026-03-01T12:00:00.000000000Z#run-1" {
		t.Errorf("SK = %q", sk)
	}
	ttl := in.Item["expiresAt"].(*types.AttributeValueMemberN).Value
	if want := strconv.FormatInt(fixedNow.Add(RunTTL).Unix(), 10); ttl != want {
		t.Errorf("expiresAt = %s, want %s", ttl, want)
	}
	if attrS(t, in.Item, "status") != "written" {
		t.Error("status attribute not stored")
	}
}

func TestRunSK_SortsByStartTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	tests := []struct {
		name           string
		earlier, later time.Time
	}{
		{"trailing zero fraction", base.Add(100 * time.Millisecond), base.Add(120 * time.Millisecond)},
		{"whole second", base, base.Add(time.Nanosecond)},
		{"next second", base.Add(999 * time.Millisecond), base.Add(time.Second)},
		{"non-UTC input", base.In(time.FixedZone("CET", 3600)), base.Add(time.Microsecond)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := runSK(tt.earlier, "run-b"), runSK(tt.later, "run-a")
			if a >= b {
				t.Errorf("runSK(%v) = %q, not before runSK(%v) = %q", tt.earlier, a, tt.later, b)
			}
			if len(a) != len(b) {
				t.Errorf("sort keys differ in width: %q vs %q", a, b)
			}
		})
	}
}

func TestWriter_MapsResult(t *testing.T) {
	f := &fakeDynamo{}
	s := newTestStore(f)
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-42"})

	started := fixedNow.Add(-3 * time.Second)
	err := s.Writer()(ctx, jobutil.Result{
		Handler:   "summarise-text",
		Status:    jobutil.StatusFailed,
		Bucket:    "b1",
		SourceKey: "book.txt",
		Chunks:    4,
		Started:   started,
		Duration:  3 * time.Second,
	}, "upstream", "bedrock: ThrottlingException")
	if err != nil {
		t.Fatalf("writer: %v", err)
	}

	var run Run
	if err := attributevalue.UnmarshalMap(f.puts[0].Item, &run); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if run.RequestID != "req-42" || run.ErrorKind != "upstream" || run.DurationMs != 3000 || run.Chunks != 4 {
		t.Errorf("unexpected run %+v", run)
	}
	if !run.StartedAt.Equal(started) {
		t.Errorf("startedAt = %v, want %v", run.StartedAt, started)
	}
	if attrS(t, f.puts[0].Item, "PK") != "RUN#summarise-text" {
		t.Error("run filed under the wrong handler")
	}
}

func TestRecord_Error(t *testing.T) {
	f := &fakeDynamo{err: errors.New("ResourceNotFoundException")}
	if _, err := newTestStore(f).Record(context.Background(), Run{Handler: "x"}); err == nil {
		t.Error("expected PutItem error")
	}
}

func TestRecent(t *testing.T) {
	f := &fakeDynamo{}
	s := newTestStore(f)
	for _, id := range []string{"a", "b"} {
		if _, err := s.Record(context.Background(), Run{ID: id, Handler: "reply-to-complaint", Status: "written"}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.Recent(context.Background(), "reply-to-complaint", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "b" {
		t.Errorf("unexpected runs %+v", runs)
	}

	q := f.queries[0]
	if aws.ToBool(q.ScanIndexForward) || aws.ToInt32(q.Limit) != 10 {
		t.Errorf("query should be newest first with limit 10: %+v", q)
	}
	if pk := q.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value; pk != "RUN#reply-to-complaint" {
		t.Errorf(":pk = %q", pk)
	}
}
