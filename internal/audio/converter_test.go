package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
	"github.com/fpang/gen-ai-bedrock/internal/s3util"
	"github.com/fpang/gen-ai-bedrock/internal/s3util/s3test"
	"github.com/fpang/gen-ai-bedrock/internal/speech"
)

type fakeSynth struct {
	texts []string
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) (*speech.Audio, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return &speech.Audio{Data: []byte("ID3:" + text), ContentType: "audio/mpeg", Characters: len(text)}, nil
}

func TestHandle_HelloWorld(t *testing.T) {
	store := s3test.New()
	store.Seed("b1", "input/notes.txt", []byte("Hello world."))
	synth := &fakeSynth{}

	res, err := NewConverter(store, synth).Handle(context.Background(), s3util.ObjectRef{Bucket: "b1", Key: "input/notes.txt"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(synth.texts) != 1 || synth.texts[0] != "Hello world." {
		t.Errorf("synthesized %q", synth.texts)
	}
	puts := store.Puts()
	if len(puts) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(puts))
	}
	p := puts[0]
	if p.Bucket != "b1" || p.Key != "output/audio/notes.mp3" {
		t.Errorf("wrote to s3://%s/%s", p.Bucket, p.Key)
	}
	if p.ContentType != "audio/mpeg" {
		t.Errorf("content type = %q", p.ContentType)
	}
	if string(p.Body) != "ID3:Hello world." {
		t.Errorf("body = %q", p.Body)
	}
	if res.Status != jobutil.StatusWritten || res.OutputKey != "output/audio/notes.mp3" || res.InputChars != 12 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestHandle_StoresSynthesizedContentType(t *testing.T) {
	tests := []struct {
		name, synthType, want string
	}{
		{"from polly", "audio/mpeg3", "audio/mpeg3"},
		{"missing falls back to mp3", "", "audio/mpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := s3test.New()
			store.Seed("b1", "input/notes.txt", []byte("Hello world."))
			synth := &contentTypeSynth{contentType: tt.synthType}

			if _, err := NewConverter(store, synth).Handle(context.Background(), s3util.ObjectRef{Bucket: "b1", Key: "input/notes.txt"}); err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if got := store.Puts()[0].ContentType; got != tt.want {
				t.Errorf("content type = %q, want %q", got, tt.want)
			}
		})
	}
}

type contentTypeSynth struct{ contentType string }

func (f *contentTypeSynth) Synthesize(_ context.Context, text string) (*speech.Audio, error) {
	return &speech.Audio{Data: []byte(text), ContentType: f.contentType}, nil
}

func TestHandle_RetrievalFailureWritesNothing(t *testing.T) {
	store := s3test.New()
	synth := &fakeSynth{}

	_, err := NewConverter(store, synth).Handle(context.Background(), s3util.ObjectRef{Bucket: "b1", Key: "input/missing.txt"})
	var retrieval *jobutil.RetrievalError
	if !errors.As(err, &retrieval) {
		t.Fatalf("expected RetrievalError, got %v", err)
	}
	if retrieval.Bucket != "b1" || retrieval.Key != "input/missing.txt" {
		t.Errorf("unexpected error target %+v", retrieval)
	}
	if len(synth.texts) != 0 || len(store.Puts()) != 0 {
		t.Error("no synthesis or write may happen after a retrieval failure")
	}
	if jobutil.Settle(context.Background(), jobutil.Result{Handler: HandlerName}, err, nil) != nil {
		t.Error("retrieval failure must not escape the boundary")
	}
}

func TestHandle_SynthesisFailurePropagates(t *testing.T) {
	store := s3test.New()
	store.Seed("b1", "long.txt", []byte("text"))
	synth := &fakeSynth{err: errors.New("TextLengthExceededException")}

	_, err := NewConverter(store, synth).Handle(context.Background(), s3util.ObjectRef{Bucket: "b1", Key: "long.txt"})
	var upstream *jobutil.UpstreamError
	if !errors.As(err, &upstream) || upstream.Service != "polly" {
		t.Fatalf("expected polly UpstreamError, got %v", err)
	}
	if len(store.Puts()) != 0 {
		t.Error("failed synthesis must not write")
	}
}

func TestHandle_OverwritesSameKey(t *testing.T) {
	store := s3test.New()
	store.Seed("b1", "docs/a.b.txt", []byte("v1"))
	c := NewConverter(store, &fakeSynth{})
	ref := s3util.ObjectRef{Bucket: "b1", Key: "docs/a.b.txt"}

	for range 2 {
		if _, err := c.Handle(context.Background(), ref); err != nil {
			t.Fatal(err)
		}
	}
	puts := store.Puts()
	if len(puts) != 2 || puts[0].Key != "output/audio/a.mp3" || puts[1].Key != puts[0].Key {
		t.Errorf("expected two writes to output/audio/a.mp3, got %+v", puts)
	}
}
