// Package notify publishes an EventBridge event for every derived object a
// handler writes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

// Event source and detail type of every notification.
const (
	Source              = "gen-ai-bedrock"
	DetailResultWritten = "GenAI.ResultWritten"
)

// PutEventsAPI is the subset of *eventbridge.Client the emitter uses.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

var _ PutEventsAPI = (*eventbridge.Client)(nil)

// ResultWritten is the event detail.
type ResultWritten struct {
	EventID     string    `json:"eventId"`
	Handler     string    `json:"handler"`
	Bucket      string    `json:"bucket"`
	SourceKey   string    `json:"sourceKey"`
	OutputKey   string    `json:"outputKey"`
	OutputBytes int       `json:"outputBytes"`
	Chunks      int       `json:"chunks,omitempty"`
	WrittenAt   time.Time `json:"writtenAt"`
}

// Emitter sends ResultWritten events to one bus.
type Emitter struct {
	client  PutEventsAPI
	busName string
}

// NewEmitter returns an Emitter for busName.
func NewEmitter(client PutEventsAPI, busName string) *Emitter {
	return &Emitter{client: client, busName: busName}
}

// BusName returns the target event bus.
func (e *Emitter) BusName() string { return e.busName }

// ResultWritten announces a written result. Results that did not write an
// object are ignored.
func (e *Emitter) ResultWritten(ctx context.Context, result jobutil.Result) error {
	if result.Status != jobutil.StatusWritten || result.OutputKey == "" {
		return nil
	}
	event := ResultWritten{
		EventID:     uuid.NewString(),
		Handler:     result.Handler,
		Bucket:      result.Bucket,
		SourceKey:   result.SourceKey,
		OutputKey:   result.OutputKey,
		OutputBytes: result.OutputBytes,
		Chunks:      result.Chunks,
		WrittenAt:   time.Now().UTC(),
	}
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ResultWritten: %w", err)
	}

	out, err := e.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []eventbridgetypes.PutEventsRequestEntry{{
			EventBusName: aws.String(e.busName),
			Source:       aws.String(Source),
			DetailType:   aws.String(DetailResultWritten),
			Detail:       aws.String(string(detail)),
			Resources:    []string{"arn:aws:s3:::" + result.Bucket + "/" + result.OutputKey},
		}},
	})
	if err != nil {
		log.Error().Err(err).Str("outputKey", result.OutputKey).Msg("EventBridge PutEvents failed")
		return fmt.Errorf("PutEvents: %w", err)
	}

	if out.FailedEntryCount > 0 {
		for i, entry := range out.Entries {
			if entry.ErrorCode != nil || entry.ErrorMessage != nil {
				return fmt.Errorf("PutEvents entry %d failed: %s - %s", i, aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			}
		}
		return fmt.Errorf("PutEvents: %d entries failed", out.FailedEntryCount)
	}

	log.Debug().Str("eventId", event.EventID).Str("outputKey", result.OutputKey).Msg("ResultWritten emitted to EventBridge")
	return nil
}
