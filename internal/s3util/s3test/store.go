// Package s3test provides an in-memory s3util.ObjectAPI for handler tests.
package s3test

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Put is one recorded PutObject call.
type Put struct {
	Bucket      string
	Key         string
	Body        []byte
	ContentType string
	Tagging     string
}

// Store keeps objects in memory, keyed by bucket and key.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []Put

	// GetErr, when set, is returned by every GetObject call.
	GetErr error
	// PutErr, when set, is returned by every PutObject call.
	PutErr error
}

// New returns an empty Store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

// Seed stores body at bucket/key without recording a Put.
func (s *Store) Seed(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectID(bucket, key)] = body
}

// Object returns the stored body and whether it exists.
func (s *Store) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[objectID(bucket, key)]
	return b, ok
}

// Puts returns the recorded PutObject calls in call order.
func (s *Store) Puts() []Put {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Put(nil), s.puts...)
}

func (s *Store) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	body, ok := s.Object(aws.ToString(in.Bucket), aws.ToString(in.Key))
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func (s *Store) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if s.PutErr != nil {
		return nil, s.PutErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectID(bucket, key)] = body
	s.puts = append(s.puts, Put{
		Bucket:      bucket,
		Key:         key,
		Body:        body,
		ContentType: aws.ToString(in.ContentType),
		Tagging:     aws.ToString(in.Tagging),
	})
	return &s3.PutObjectOutput{}, nil
}
