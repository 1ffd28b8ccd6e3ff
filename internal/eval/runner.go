package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opendetect/evalreport/internal/curve"
	"github.com/opendetect/evalreport/internal/monitoring"
	"github.com/opendetect/evalreport/internal/report"
	"github.com/opendetect/evalreport/internal/security"
	"github.com/opendetect/evalreport/internal/store"
	"github.com/opendetect/evalreport/internal/timeutil"
	"github.com/opendetect/evalreport/internal/track"
)

// runNameFormat stamps unnamed runs with the start time, matching the
// directory names the training tools produce.
const runNameFormat = "20060102-150405"

// Runner executes evaluations end to end: it names the run, calls the
// evaluator, writes the report files into the run directory, persists the
// run to the database, and forwards results to the tracking dashboard.
type Runner struct {
	Evaluator Evaluator
	Clock     timeutil.Clock

	// Runs and Scalars persist results when non-nil.
	Runs    *store.RunStore
	Scalars *store.ScalarStore

	// Session receives run results. Leave nil to disable tracking.
	Session *track.Session

	// Project names the tracking project for forwarded runs.
	Project string

	// SampleCount is the grid size used when aggregating metric curves.
	// Zero means curve.DefaultSampleCount is not assumed; aggregation uses
	// 100 points.
	SampleCount int

	// IncludePerClass keeps per-class series in curve tables and plots.
	IncludePerClass bool
}

// Result is the outcome of one Runner.Run: the run identity, the resolved
// output directory, and the evaluator's metrics.
type Result struct {
	RunID     string
	RunName   string
	OutputDir string
	Metrics   *Metrics
}

// Run evaluates req and writes all outputs. A zero-valued RunName is
// replaced with a start-time stamp; OutputDir must be set and receives a
// per-run subdirectory.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if r.Evaluator == nil {
		return nil, fmt.Errorf("run: no evaluator configured")
	}
	if req.OutputDir == "" {
		return nil, fmt.Errorf("run: output directory not set")
	}

	req = req.withDefaults()
	if req.RunName == "" {
		req.RunName = r.clock().Now().Format(runNameFormat)
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", req.OutputDir, err)
	}

	// Run names come from flags and config files, so keep them from
	// escaping the output root.
	runDir := filepath.Join(req.OutputDir, req.RunName)
	if err := security.ValidatePathWithinDirectory(runDir, req.OutputDir); err != nil {
		return nil, fmt.Errorf("run name %q: %w", req.RunName, err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", runDir, err)
	}

	started := r.clock().Now()
	metrics, err := r.Evaluator.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("evaluation %s finished in %s (%d metrics, %d curve sets)",
		req.RunName, r.clock().Since(started), len(metrics.Scalars), len(metrics.Curves))

	if err := writeMetricsFile(runDir, metrics); err != nil {
		return nil, err
	}

	plots, err := r.renderReports(req.RunName, runDir, metrics.Curves)
	if err != nil {
		return nil, err
	}

	res := &Result{RunName: req.RunName, OutputDir: runDir, Metrics: metrics}

	if r.Runs != nil {
		if err := r.persist(res, req, metrics); err != nil {
			return nil, err
		}
	}

	if r.Session != nil {
		if err := r.forward(ctx, req, metrics, plots); err != nil {
			// Tracking failures do not invalidate the local results.
			monitoring.Logf("tracking for run %s failed: %v", req.RunName, err)
		}
	}

	return res, nil
}

func (r *Runner) clock() timeutil.Clock {
	if r.Clock == nil {
		return timeutil.RealClock{}
	}
	return r.Clock
}

func (r *Runner) sampleCount() int {
	if r.SampleCount <= 0 {
		return 100
	}
	return r.SampleCount
}

func writeMetricsFile(runDir string, metrics *Metrics) error {
	path := filepath.Join(runDir, "metrics.json")
	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// renderReports aggregates each curve set, writes one PNG per set plus a
// combined HTML page, and returns the PNG plots for the tracking sink.
func (r *Runner) renderReports(runName, runDir string, sets []curve.Set) ([]track.Plot, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	var plots []track.Plot
	var pages []report.CurvePlot
	for _, s := range sets {
		result, err := curve.AggregateSet(s, r.sampleCount(), r.IncludePerClass)
		if err != nil {
			return nil, fmt.Errorf("aggregating %s: %w", s.Name, err)
		}
		cp := report.CurvePlot{
			Title:  s.Name,
			XLabel: s.XAxisTitle,
			YLabel: s.YAxisTitle,
			Result: result,
		}
		pages = append(pages, cp)

		pngPath := filepath.Join(runDir, security.SanitizeFilename(s.Name)+".png")
		if err := report.SavePNG(cp, pngPath); err != nil {
			return nil, err
		}
		info, err := os.Stat(pngPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", pngPath, err)
		}
		plots = append(plots, track.Plot{
			Name:      s.Name,
			Path:      pngPath,
			Timestamp: info.ModTime(),
		})
	}

	htmlPath := filepath.Join(runDir, "report.html")
	if err := report.WriteHTMLFile(runName, pages, htmlPath); err != nil {
		return nil, err
	}
	return plots, nil
}

func (r *Runner) persist(res *Result, req Request, metrics *Metrics) error {
	blob, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encoding metrics for storage: %w", err)
	}
	run := &store.Run{
		Name:        req.RunName,
		ModelPath:   req.ModelPath,
		DatasetPath: req.DatasetPath,
		ImageSize:   req.ImageSize,
		Batch:       req.Batch,
		Device:      req.Device,
		OutputDir:   res.OutputDir,
		MetricsJSON: blob,
		CreatedAt:   r.clock().Now().UnixNano(),
	}
	if err := r.Runs.Insert(run); err != nil {
		return err
	}
	res.RunID = run.RunID

	if r.Scalars != nil && len(metrics.Scalars) > 0 {
		if err := r.Scalars.InsertBatch(run.RunID, 0, metrics.Scalars); err != nil {
			return err
		}
	}
	return nil
}

// forward sends the run to the tracking dashboard: metadata, scalars, plot
// images, one table per curve set, then the finish marker.
func (r *Runner) forward(ctx context.Context, req Request, metrics *Metrics, plots []track.Plot) error {
	meta := track.RunMeta{
		Project: r.Project,
		Name:    req.RunName,
		Config: map[string]interface{}{
			"dataset":    req.DatasetPath,
			"model":      req.ModelPath,
			"image_size": req.ImageSize,
			"batch":      req.Batch,
			"device":     req.Device,
		},
	}
	if err := r.Session.StartRun(ctx, meta); err != nil {
		return err
	}
	if len(metrics.Scalars) > 0 {
		if err := r.Session.LogScalars(ctx, 0, metrics.Scalars); err != nil {
			return err
		}
	}
	if err := r.Session.LogPlots(ctx, plots, 0); err != nil {
		return err
	}
	for _, s := range metrics.Curves {
		result, err := curve.AggregateSet(s, r.sampleCount(), r.IncludePerClass)
		if err != nil {
			return fmt.Errorf("aggregating %s: %w", s.Name, err)
		}
		tbl := track.Table{
			Rows:       result.Rows(),
			Title:      s.Name,
			XAxisTitle: s.XAxisTitle,
			YAxisTitle: s.YAxisTitle,
		}
		if err := r.Session.LogTable(ctx, "curves/"+s.Name, tbl); err != nil {
			return err
		}
	}
	return r.Session.Finish(ctx)
}
