// Package assets provides the prompt templates, embedded at compile time.
//
// Templates live as text files under prompts/ so they can be reviewed and
// tuned without touching Go code. Rendering trims trailing whitespace: Claude
// text completions require the prompt to end exactly at "Assistant:".
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/apology-email.txt
var apologyEmailTemplate string

//go:embed prompts/summarize-chunk.txt
var summarizeChunkTemplate string

//go:embed prompts/summarize-combine.txt
var summarizeCombineTemplate string

var (
	apologyEmailTmpl     = template.Must(template.New("apology-email").Option("missingkey=error").Parse(apologyEmailTemplate))
	summarizeChunkTmpl   = template.Must(template.New("summarize-chunk").Parse(summarizeChunkTemplate))
	summarizeCombineTmpl = template.Must(template.New("summarize-combine").Parse(summarizeCombineTemplate))
)

// ApologyEmailData fills the apology email prompt.
type ApologyEmailData struct {
	ServiceManager   string
	CustomerName     string
	CustomerFeedback string
}

// SummaryData fills the summarization prompts.
type SummaryData struct {
	Text string
}

// RenderApologyEmailPrompt renders the apology email prompt.
func RenderApologyEmailPrompt(data ApologyEmailData) (string, error) {
	return render(apologyEmailTmpl, data)
}

// RenderSummarizeChunkPrompt renders the map-step prompt for one chunk.
func RenderSummarizeChunkPrompt(text string) (string, error) {
	return render(summarizeChunkTmpl, SummaryData{Text: text})
}

// RenderSummarizeCombinePrompt renders the reduce-step prompt over the
// joined partial summaries.
func RenderSummarizeCombinePrompt(text string) (string, error) {
	return render(summarizeCombineTmpl, SummaryData{Text: text})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return strings.TrimRight(buf.String(), " \t\n"), nil
}
