package s3util

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Content types of the derived objects.
const (
	ContentTypeMP3  = "audio/mpeg"
	ContentTypeText = "text/plain; charset=utf-8"
)

// PutBytes writes body to ref, replacing any existing object at that key.
// Every derived object carries the project cost-allocation tag.
func PutBytes(ctx context.Context, client ObjectAPI, ref ObjectRef, body []byte, contentType string) error {
	log.Debug().
		Str("bucket", ref.Bucket).
		Str("key", ref.Key).
		Int("size", len(body)).
		Str("contentType", contentType).
		Msg("Uploading object to S3")

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &ref.Bucket,
		Key:           &ref.Key,
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   &contentType,
		Tagging:       ProjectTagging(),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s: %w", ref, err)
	}
	return nil
}
