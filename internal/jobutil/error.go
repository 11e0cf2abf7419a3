// Package jobutil holds the per-invocation outcome types shared by the three
// handlers and the single boundary function that decides which failures are
// swallowed (logged, invocation aborted) and which propagate to the Lambda
// runtime.
package jobutil

import (
	"errors"
	"fmt"
)

// ErrEmptySource is returned when the source object is readable but holds no
// text. It is handled like a retrieval failure.
var ErrEmptySource = errors.New("source object is empty")

// ErrMalformedResponse is returned when a model response does not follow the
// expected turn format.
var ErrMalformedResponse = errors.New("malformed model response")

// RetrievalError reports that the source object could not be read.
type RetrievalError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// UpstreamError reports a failure of a managed service (Polly, Bedrock,
// Gemini) or an unusable response from one.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedInputError reports a trigger payload that lacks an expected field.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed input: missing %s", e.Field)
	}
	return fmt.Sprintf("malformed input: %s %s", e.Field, e.Reason)
}

// Upstream wraps err as an UpstreamError for the named service.
// A nil err stays nil.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Service: service, Err: err}
}

// Kind classifies err for logs, metrics and the run ledger.
func Kind(err error) string {
	var (
		retrieval *RetrievalError
		upstream  *UpstreamError
		malformed *MalformedInputError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptySource):
		return "empty"
	case errors.As(err, &retrieval):
		return "retrieval"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.As(err, &malformed):
		return "malformed"
	default:
		return "internal"
	}
}

// Swallowed reports whether err ends the invocation quietly: it is logged but
// never surfaced to the caller.
func Swallowed(err error) bool {
	switch Kind(err) {
	case "retrieval", "empty":
		return true
	default:
		return false
	}
}
