package track

import (
	"context"

	"github.com/opendetect/evalreport/internal/httputil"
)

// NewSink returns a Client for the dashboard at baseURL when enabled, and a
// NopSink otherwise. Callers hold the capability decision in one place and
// use the returned Sink unconditionally.
func NewSink(enabled bool, baseURL string, client httputil.HTTPClient) Sink {
	if !enabled {
		return NopSink{}
	}
	return NewClient(baseURL, client)
}

// NopSink discards everything. It is selected when tracking is disabled so
// callers use the same Sink interface regardless of configuration.
type NopSink struct{}

// StartRun is a no-op.
func (NopSink) StartRun(context.Context, RunMeta) error { return nil }

// LogScalars is a no-op.
func (NopSink) LogScalars(context.Context, int, map[string]float64) error { return nil }

// LogTable is a no-op.
func (NopSink) LogTable(context.Context, string, Table) error { return nil }

// LogImage is a no-op.
func (NopSink) LogImage(context.Context, string, string, int) error { return nil }

// LogArtifact is a no-op.
func (NopSink) LogArtifact(context.Context, Artifact) error { return nil }

// Finish is a no-op.
func (NopSink) Finish(context.Context) error { return nil }
