// Package eval drives object-detection model evaluation: it submits an
// evaluation request to a detector backend, collects the resulting metrics
// and metric curves, and fans the results out to local reports, the run
// database, and the tracking dashboard.
package eval

import (
	"context"

	"github.com/opendetect/evalreport/internal/curve"
)

// Default evaluation parameters applied when a request leaves them unset.
const (
	DefaultImageSize = 640
	DefaultBatch     = 16
)

// Request describes one evaluation of a model checkpoint against a dataset.
type Request struct {
	DatasetPath string `json:"dataset_path"`
	ModelPath   string `json:"model_path"`
	ImageSize   int    `json:"image_size"`
	Batch       int    `json:"batch"`
	Device      string `json:"device,omitempty"`
	SaveJSON    bool   `json:"save_json"`
	Plots       bool   `json:"plots"`
	OutputDir   string `json:"output_dir,omitempty"`
	RunName     string `json:"run_name,omitempty"`
}

// withDefaults returns a copy of r with zero-valued numeric parameters
// replaced by the package defaults.
func (r Request) withDefaults() Request {
	if r.ImageSize == 0 {
		r.ImageSize = DefaultImageSize
	}
	if r.Batch == 0 {
		r.Batch = DefaultBatch
	}
	return r
}

// Metrics is the evaluator's result: top-level scalar metrics, per-class
// average precision, timing breakdowns, and the raw metric curves the
// validator produced.
type Metrics struct {
	// Scalars holds the summary metrics keyed by name, for example
	// "metrics/mAP50(B)" or "metrics/precision(B)".
	Scalars map[string]float64 `json:"scalars"`

	// ClassAP maps class name to average precision at IoU 0.50:0.95.
	ClassAP map[string]float64 `json:"class_ap,omitempty"`

	// Speed holds per-image timing in milliseconds keyed by stage
	// (preprocess, inference, postprocess).
	Speed map[string]float64 `json:"speed,omitempty"`

	// Curves holds the validator's metric curve families, one Set per
	// curve type (precision-recall, F1-confidence, and so on).
	Curves []curve.Set `json:"curves,omitempty"`
}

// Evaluator runs one model evaluation. Implementations are expected to
// treat the request as read-only and to honor ctx cancellation.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (*Metrics, error)
}
