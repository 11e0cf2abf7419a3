package assets

import (
	"strings"
	"testing"
)

func TestRenderApologyEmailPrompt(t *testing.T) {
	got, err := RenderApologyEmailPrompt(ApologyEmailData{
		ServiceManager:   "Tom",
		CustomerName:     "Jane",
		CustomerFeedback: "Delayed delivery",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"from the Service Manager Tom to Jane",
		"<customer_feedback>\nDelayed delivery\n</customer_feedback>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
	if !strings.HasPrefix(got, "\n\nHuman: ") {
		t.Errorf("prompt must open with the Human turn, got %q", got[:20])
	}
	if !strings.HasSuffix(got, "\n\nAssistant:") {
		t.Errorf("prompt must end at the Assistant turn, got %q", got[len(got)-20:])
	}
}

func TestRenderApologyEmailPrompt_NoEscaping(t *testing.T) {
	got, err := RenderApologyEmailPrompt(ApologyEmailData{CustomerFeedback: `<b>"late" & broken</b>`})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, `<b>"late" & broken</b>`) {
		t.Errorf("feedback must be inserted verbatim:\n%s", got)
	}
}

func TestRenderSummarizePrompts(t *testing.T) {
	chunk, err := RenderSummarizeChunkPrompt("The quick brown fox.")
	if err != nil {
		t.Fatalf("render chunk: %v", err)
	}
	if !strings.Contains(chunk, `"The quick brown fox."`) || !strings.HasSuffix(chunk, "CONCISE SUMMARY:") {
		t.Errorf("unexpected chunk prompt:\n%s", chunk)
	}

	combine, err := RenderSummarizeCombinePrompt("one\n\ntwo")
	if err != nil {
		t.Fatalf("render combine: %v", err)
	}
	if !strings.Contains(combine, "\"one\n\ntwo\"") {
		t.Errorf("unexpected combine prompt:\n%s", combine)
	}
}
