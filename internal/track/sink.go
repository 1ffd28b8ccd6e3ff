// Package track forwards experiment results to a remote tracking dashboard.
//
// A Sink is one connection to the dashboard for a single run. The HTTP
// client implementation talks to the tracker's JSON API; NopSink satisfies
// the same interface for runs with tracking disabled, so callers never
// branch on availability.
package track

import (
	"context"
	"time"

	"github.com/opendetect/evalreport/internal/curve"
)

// RunMeta describes a run to the tracking service.
type RunMeta struct {
	Project string                 `json:"project"`
	Name    string                 `json:"name"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

// Table is a named tabular payload for the tracker's plot-table API: one
// row per (x, class) pair plus display metadata.
type Table struct {
	Rows       []curve.Row `json:"rows"`
	Title      string      `json:"title"`
	XAxisTitle string      `json:"x-axis-title"`
	YAxisTitle string      `json:"y-axis-title"`
}

// Artifact is a binary file (typically a model checkpoint) tracked with
// versioned metadata and alias tags.
type Artifact struct {
	Name    string
	Type    string
	Path    string
	Aliases []string
}

// Plot references a rendered plot image on disk. Timestamp is the file's
// generation time, used to skip images already sent at that version.
type Plot struct {
	Name      string
	Path      string
	Timestamp time.Time
}

// Sink accepts metrics, tables, images, and artifacts for one run.
type Sink interface {
	// StartRun registers the run with the tracking service.
	StartRun(ctx context.Context, meta RunMeta) error

	// LogScalars records scalar metrics keyed by step number.
	LogScalars(ctx context.Context, step int, values map[string]float64) error

	// LogTable records a named tabular plot payload.
	LogTable(ctx context.Context, name string, tbl Table) error

	// LogImage uploads a named image keyed by step.
	LogImage(ctx context.Context, name, path string, step int) error

	// LogArtifact uploads a binary artifact with its alias tags.
	LogArtifact(ctx context.Context, art Artifact) error

	// Finish closes the run on the dashboard. Without it the run stays
	// open on the service side.
	Finish(ctx context.Context) error
}
