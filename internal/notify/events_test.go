package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

type fakeBus struct {
	inputs []*eventbridge.PutEventsInput
	out    *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeBus) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func written() jobutil.Result {
	return jobutil.Result{
		Handler:     "convert-to-audio",
		Status:      jobutil.StatusWritten,
		Bucket:      "b1",
		SourceKey:   "input/notes.txt",
		OutputKey:   "output/audio/notes.mp3",
		OutputBytes: 2048,
	}
}

func TestResultWritten(t *testing.T) {
	bus := &fakeBus{}
	if err := NewEmitter(bus, "genai-bus").ResultWritten(context.Background(), written()); err != nil {
		t.Fatalf("ResultWritten: %v", err)
	}

	if len(bus.inputs) != 1 || len(bus.inputs[0].Entries) != 1 {
		t.Fatalf("expected one entry, got %+v", bus.inputs)
	}
	entry := bus.inputs[0].Entries[0]
	if aws.ToString(entry.EventBusName) != "genai-bus" || aws.ToString(entry.Source) != Source ||
		aws.ToString(entry.DetailType) != DetailResultWritten {
		t.Errorf("unexpected entry routing %+v", entry)
	}
	if len(entry.Resources) != 1 || entry.Resources[0] != "arn:aws:s3:::b1/output/audio/notes.mp3" {
		t.Errorf("resources = %v", entry.Resources)
	}

	var detail ResultWritten
	if err := json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail); err != nil {
		t.Fatalf("detail is not JSON: %v", err)
	}
	if detail.EventID == "" || detail.OutputKey != "output/audio/notes.mp3" || detail.Handler != "convert-to-audio" {
		t.Errorf("unexpected detail %+v", detail)
	}
}

func TestResultWritten_SkipsUnwritten(t *testing.T) {
	bus := &fakeBus{}
	r := written()
	r.Status = jobutil.StatusSkipped
	if err := NewEmitter(bus, "genai-bus").ResultWritten(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if len(bus.inputs) != 0 {
		t.Error("skipped results must not be announced")
	}
}

func TestResultWritten_Failures(t *testing.T) {
	bus := &fakeBus{err: errors.New("AccessDenied")}
	if err := NewEmitter(bus, "b").ResultWritten(context.Background(), written()); err == nil {
		t.Error("expected PutEvents error")
	}

	bus = &fakeBus{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []eventbridgetypes.PutEventsResultEntry{{
			ErrorCode:    aws.String("InternalFailure"),
			ErrorMessage: aws.String("try again"),
		}},
	}}
	if err := NewEmitter(bus, "b").ResultWritten(context.Background(), written()); err == nil {
		t.Error("expected failed entry error")
	}
}
