package s3util

import (
	"github.com/aws/aws-lambda-go/events"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

// FirstRecord returns the object referenced by the first record of an S3
// notification. Later records are ignored. Keys arrive URL-encoded in the
// notification; the decoded form is preferred when the runtime supplied it.
func FirstRecord(evt events.S3Event) (ObjectRef, error) {
	if len(evt.Records) == 0 {
		return ObjectRef{}, &jobutil.MalformedInputError{Field: "Records"}
	}
	entity := evt.Records[0].S3

	key := entity.Object.URLDecodedKey
	if key == "" {
		key = entity.Object.Key
	}
	switch {
	case entity.Bucket.Name == "":
		return ObjectRef{}, &jobutil.MalformedInputError{Field: "Records[0].s3.bucket.name"}
	case key == "":
		return ObjectRef{}, &jobutil.MalformedInputError{Field: "Records[0].s3.object.key"}
	}
	return ObjectRef{Bucket: entity.Bucket.Name, Key: key}, nil
}
