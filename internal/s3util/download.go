// Package s3util provides the S3 plumbing shared by the handlers: reading a
// source object as text, writing a derived object, deriving output keys and
// pulling the object reference out of an S3 notification.
package s3util

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// ObjectAPI is the subset of *s3.Client the handlers use.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ ObjectAPI = (*s3.Client)(nil)

// ObjectRef identifies an S3 object.
type ObjectRef struct {
	Bucket string
	Key    string
}

func (r ObjectRef) String() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// ReadText downloads an object and returns its body decoded as UTF-8 text.
// A body that is not valid UTF-8 is an error.
func ReadText(ctx context.Context, client ObjectAPI, ref ObjectRef) (string, error) {
	log.Debug().Str("bucket", ref.Bucket).Str("key", ref.Key).Msg("Reading object from S3")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &ref.Bucket,
		Key:    &ref.Key,
	})
	if err != nil {
		return "", fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	body, err := io.ReadAll(result.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if !utf8.Valid(body) {
		return "", fmt.Errorf("object is not valid UTF-8 (%d bytes)", len(body))
	}
	return string(body), nil
}
