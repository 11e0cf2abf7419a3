// Package complaint drafts an apology email in reply to customer feedback.
package complaint

import (
	"github.com/fpang/gen-ai-bedrock/internal/jobutil"
)

// Event keys of the direct-invocation payload.
const (
	KeyCustomerFeedback = "customer_feedback"
	KeyCustomerName     = "customer_name"
	KeyServiceManager   = "service_manager"
)

// Request is the feedback a reply is drafted for. Empty values are allowed.
type Request struct {
	CustomerFeedback string `json:"customer_feedback"`
	CustomerName     string `json:"customer_name"`
	ServiceManager   string `json:"service_manager"`
}

// ParseRequest reads a Request from a raw invocation payload. Every key must
// be present and hold a string; a missing key is a MalformedInputError.
func ParseRequest(event map[string]any) (Request, error) {
	var req Request
	for _, f := range []struct {
		key string
		dst *string
	}{
		{KeyCustomerFeedback, &req.CustomerFeedback},
		{KeyCustomerName, &req.CustomerName},
		{KeyServiceManager, &req.ServiceManager},
	} {
		v, ok := event[f.key]
		if !ok || v == nil {
			return Request{}, &jobutil.MalformedInputError{Field: f.key}
		}
		s, ok := v.(string)
		if !ok {
			return Request{}, &jobutil.MalformedInputError{Field: f.key, Reason: "must be a string"}
		}
		*f.dst = s
	}
	return req, nil
}
