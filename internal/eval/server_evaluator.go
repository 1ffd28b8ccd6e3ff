package eval

import (
	"context"
	"fmt"
	"strings"

	"github.com/opendetect/evalreport/internal/httputil"
)

// ServerEvaluator submits evaluation requests to a detector sidecar over
// its JSON API and decodes the returned metrics.
type ServerEvaluator struct {
	baseURL string
	http    httputil.HTTPClient
}

// NewServerEvaluator creates an evaluator talking to the sidecar at
// baseURL, for example "http://localhost:8601".
func NewServerEvaluator(baseURL string, client httputil.HTTPClient) *ServerEvaluator {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &ServerEvaluator{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
	}
}

// Evaluate posts the request to the sidecar's /v1/evaluate endpoint and
// waits for the metrics. The sidecar runs the full validation pass before
// responding, so callers should budget a generous ctx deadline.
func (e *ServerEvaluator) Evaluate(ctx context.Context, req Request) (*Metrics, error) {
	var m Metrics
	url := e.baseURL + "/v1/evaluate"
	if err := httputil.PostJSON(ctx, e.http, url, req.withDefaults(), &m); err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", req.ModelPath, err)
	}
	if m.Scalars == nil {
		m.Scalars = map[string]float64{}
	}
	return &m, nil
}
