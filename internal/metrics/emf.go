// Package metrics emits CloudWatch Embedded Metric Format (EMF) documents.
// Each document is one JSON line on stdout; CloudWatch Logs extracts the
// metrics from it, so recording costs no API call.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"
)

// Namespace is the CloudWatch namespace of every handler metric.
const Namespace = "GenAIBedrock"

// CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type directive struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder collects one EMF document. It is not safe for concurrent use;
// create one per invocation.
type Recorder struct {
	namespace  string
	out        io.Writer
	now        func() time.Time
	dimensions map[string]string
	metrics    []metricDef
	values     map[string]float64
	properties map[string]any
}

// New returns a Recorder writing to stdout. Inside Lambda the FunctionName
// dimension is added automatically.
func New(namespace string) *Recorder {
	return NewWithWriter(namespace, os.Stdout)
}

// NewWithWriter returns a Recorder writing to out.
func NewWithWriter(namespace string, out io.Writer) *Recorder {
	r := &Recorder{
		namespace:  namespace,
		out:        out,
		now:        time.Now,
		dimensions: make(map[string]string),
		values:     make(map[string]float64),
		properties: make(map[string]any),
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		r.dimensions["FunctionName"] = fn
	}
	return r
}

// Dimension sets a dimension. Dimensions are indexed and filterable in CloudWatch.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records value under name. Recording the same name twice keeps the
// last value.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	if _, ok := r.values[name]; !ok {
		r.metrics = append(r.metrics, metricDef{Name: name, Unit: unit})
	}
	r.values[name] = value
	return r
}

// Count records a count of one.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a searchable field that does not become a metric.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the document as a single line. Nothing is written when no
// metric was recorded.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 {
		return
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}
	slices.Sort(dimKeys)

	doc := make(map[string]any, 1+len(r.dimensions)+len(r.values)+len(r.properties))
	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	doc["_aws"] = directive{
		Timestamp: r.now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    r.metrics,
		}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: marshal metrics: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, string(data))
}
