package s3util_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/s3util"
	"github.com/fpang/gen-ai-bedrock/internal/s3util/s3test"
)

func TestAudioKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"input/notes.txt", "output/audio/notes.mp3"},
		{"notes.txt", "output/audio/notes.mp3"},
		{"output/summary/report.txt", "output/audio/report.mp3"},
		{"a/b/c/chapter.one.txt", "output/audio/chapter.mp3"},
		{"input/README", "output/audio/README.mp3"},
	}
	for _, tt := range tests {
		if got := s3util.AudioKey(tt.in); got != tt.want {
			t.Errorf("AudioKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummaryKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"input/summarise/notes.txt", "output/summary/notes.txt"},
		{"report.md", "output/summary/report.md"},
		{"a/b/chapter.one.txt", "output/summary/chapter.one.txt"},
	}
	for _, tt := range tests {
		if got := s3util.SummaryKey(tt.in); got != tt.want {
			t.Errorf("SummaryKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDerivedKeysArePure(t *testing.T) {
	for _, key := range []string{"input/notes.txt", "x/y.z"} {
		if s3util.AudioKey(key) != s3util.AudioKey(key) || s3util.SummaryKey(key) != s3util.SummaryKey(key) {
			t.Errorf("derived keys for %q are not deterministic", key)
		}
	}
}

func TestReadText(t *testing.T) {
	store := s3test.New()
	store.Seed("b1", "input/notes.txt", []byte("Hello world."))

	got, err := s3util.ReadText(context.Background(), store, s3util.ObjectRef{Bucket: "b1", Key: "input/notes.txt"})
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "Hello world." {
		t.Errorf("expected %q, got %q", "Hello world.", got)
	}
}

func TestReadText_Missing(t *testing.T) {
	_, err := s3util.ReadText(context.Background(), s3test.New(), s3util.ObjectRef{Bucket: "b1", Key: "nope.txt"})
	var nsk *s3types.NoSuchKey
	if !errors.As(err, &nsk) {
		t.Errorf("expected NoSuchKey, got %v", err)
	}
}

func TestReadText_InvalidUTF8(t *testing.T) {
	store := s3test.New()
	store.Seed("b1", "bin.txt", []byte{0xff, 0xfe, 0xfd})

	_, err := s3util.ReadText(context.Background(), store, s3util.ObjectRef{Bucket: "b1", Key: "bin.txt"})
	if err == nil || !strings.Contains(err.Error(), "UTF-8") {
		t.Errorf("expected UTF-8 error, got %v", err)
	}
}

func TestPutBytes(t *testing.T) {
	store := s3test.New()
	ref := s3util.ObjectRef{Bucket: "b1", Key: "output/audio/notes.mp3"}
	if err := s3util.PutBytes(context.Background(), store, ref, []byte("ID3"), s3util.ContentTypeMP3); err != nil {
		t.Fatalf("PutBytes: %v", err)
	}

	puts := store.Puts()
	if len(puts) != 1 {
		t.Fatalf("expected 1 put, got %d", len(puts))
	}
	p := puts[0]
	if p.Bucket != "b1" || p.Key != "output/audio/notes.mp3" || string(p.Body) != "ID3" {
		t.Errorf("unexpected put: %+v", p)
	}
	if p.ContentType != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %q", p.ContentType)
	}
	if p.Tagging != "Project=gen-ai-bedrock" {
		t.Errorf("expected project tag, got %q", p.Tagging)
	}
}

func TestFirstRecord(t *testing.T) {
	evt := events.S3Event{Records: []events.S3EventRecord{
		{S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: "b1"},
			Object: events.S3Object{Key: "input/my+notes.txt", URLDecodedKey: "input/my notes.txt"},
		}},
		{S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: "b2"},
			Object: events.S3Object{Key: "ignored.txt"},
		}},
	}}

	ref, err := s3util.FirstRecord(evt)
	if err != nil {
		t.Fatalf("FirstRecord: %v", err)
	}
	if ref.Bucket != "b1" || ref.Key != "input/my notes.txt" {
		t.Errorf("unexpected ref: %+v", ref)
	}
}

func TestFirstRecord_FallsBackToRawKey(t *testing.T) {
	evt := events.S3Event{Records: []events.S3EventRecord{{S3: events.S3Entity{
		Bucket: events.S3Bucket{Name: "b1"},
		Object: events.S3Object{Key: "input/notes.txt"},
	}}}}
	ref, err := s3util.FirstRecord(evt)
	if err != nil || ref.Key != "input/notes.txt" {
		t.Errorf("unexpected result: %+v, %v", ref, err)
	}
}

func TestFirstRecord_Malformed(t *testing.T) {
	tests := []struct {
		name string
		evt  events.S3Event
	}{
		{"no records", events.S3Event{}},
		{"no bucket", events.S3Event{Records: []events.S3EventRecord{{S3: events.S3Entity{
			Object: events.S3Object{Key: "k"},
		}}}}},
		{"no key", events.S3Event{Records: []events.S3EventRecord{{S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: "b1"},
		}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s3util.FirstRecord(tt.evt)
			var malformed *jobutil.MalformedInputError
			if !errors.As(err, &malformed) {
				t.Errorf("expected MalformedInputError, got %v", err)
			}
		})
	}
}
