package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
)

type fakePolly struct {
	got *polly.SynthesizeSpeechInput
	out *polly.SynthesizeSpeechOutput
	err error
}

func (f *fakePolly) SynthesizeSpeech(_ context.Context, in *polly.SynthesizeSpeechInput, _ ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.got = in
	return f.out, f.err
}

func TestSynthesize_SendsFixedFormatAndVoice(t *testing.T) {
	fake := &fakePolly{out: &polly.SynthesizeSpeechOutput{
		AudioStream:       io.NopCloser(bytes.NewReader([]byte("mp3-bytes"))),
		ContentType:       aws.String("audio/mpeg"),
		RequestCharacters: 12,
	}}
	p := NewPolly(fake, "", "")

	audio, err := p.Synthesize(context.Background(), "Hello world.")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if aws.ToString(fake.got.Text) != "Hello world." {
		t.Errorf("expected full text to be sent, got %q", aws.ToString(fake.got.Text))
	}
	if fake.got.OutputFormat != pollytypes.OutputFormatMp3 {
		t.Errorf("expected mp3 format, got %q", fake.got.OutputFormat)
	}
	if fake.got.VoiceId != pollytypes.VoiceIdJoanna {
		t.Errorf("expected Joanna, got %q", fake.got.VoiceId)
	}
	if fake.got.Engine != "" {
		t.Errorf("expected no engine override, got %q", fake.got.Engine)
	}
	if string(audio.Data) != "mp3-bytes" || audio.ContentType != "audio/mpeg" || audio.Characters != 12 {
		t.Errorf("unexpected audio: %+v", audio)
	}
}

func TestSynthesize_VoiceAndEngineOverride(t *testing.T) {
	fake := &fakePolly{out: &polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(bytes.NewReader(nil)),
	}}
	p := NewPolly(fake, "Matthew", "neural")
	if p.Voice() != "Matthew" {
		t.Errorf("expected Matthew, got %s", p.Voice())
	}

	audio, err := p.Synthesize(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if fake.got.VoiceId != "Matthew" || fake.got.Engine != pollytypes.EngineNeural {
		t.Errorf("unexpected request: voice=%q engine=%q", fake.got.VoiceId, fake.got.Engine)
	}
	if audio.ContentType != "audio/mpeg" {
		t.Errorf("expected default content type, got %q", audio.ContentType)
	}
}

func TestSynthesize_Error(t *testing.T) {
	boom := errors.New("TextLengthExceededException")
	p := NewPolly(&fakePolly{err: boom}, "", "")
	if _, err := p.Synthesize(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped service error, got %v", err)
	}
}
