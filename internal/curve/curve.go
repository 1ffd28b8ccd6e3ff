// Package curve resamples per-class metric curves onto a shared grid and
// aggregates them into a mean curve for reporting. Curves are typically
// precision/recall trade-offs produced by a detector validation run, sampled
// at arbitrary x-coordinates that differ between runs.
package curve

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// MeanLabel tags the aggregated mean curve in results and table rows.
const MeanLabel = "mean"

// ErrInvalidInput is returned when a curve or grid is empty, lengths are
// mismatched, or a sample count is not positive.
var ErrInvalidInput = errors.New("invalid input")

// Curve is one class's metric curve as parallel coordinate slices.
// Xs must be strictly increasing; callers own the slices and the package
// only reads them.
type Curve struct {
	Xs []float64
	Ys []float64
}

// Len returns the number of points in the curve.
func (c Curve) Len() int { return len(c.Xs) }

func (c Curve) validate() error {
	if len(c.Xs) == 0 {
		return fmt.Errorf("%w: empty curve", ErrInvalidInput)
	}
	if len(c.Xs) != len(c.Ys) {
		return fmt.Errorf("%w: curve has %d xs but %d ys", ErrInvalidInput, len(c.Xs), len(c.Ys))
	}
	return nil
}

// ResampledCurve is a curve evaluated on a shared grid, tagged with its
// class label (or MeanLabel for the aggregate).
type ResampledCurve struct {
	Label string
	Ys    []float64
}

// AggregateResult holds the outcome of one aggregation call. All curves
// share Grid as their x-coordinates, so rows across classes line up for
// tabular logging.
type AggregateResult struct {
	Grid     []float64
	Mean     []float64
	PerClass []ResampledCurve
}

// Row is one (x, y, class) table entry for the tracking sink's plot-table
// format.
type Row struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Class string  `json:"class"`
}

// Rows flattens the result into one row per (grid-x, class) pair, mean
// curve first.
func (r *AggregateResult) Rows() []Row {
	rows := make([]Row, 0, len(r.Grid)*(1+len(r.PerClass)))
	for i, x := range r.Grid {
		rows = append(rows, Row{X: x, Y: r.Mean[i], Class: MeanLabel})
	}
	for _, rc := range r.PerClass {
		for i, x := range r.Grid {
			rows = append(rows, Row{X: x, Y: rc.Ys[i], Class: rc.Label})
		}
	}
	return rows
}

// Grid returns n evenly spaced points from min to max inclusive.
func Grid(min, max float64, n int) []float64 {
	if n == 1 {
		return []float64{min}
	}
	return floats.Span(make([]float64, n), min, max)
}

// Resample evaluates c at each grid point using piecewise-linear
// interpolation. Grid points outside the curve's x-range clamp to the
// boundary y-value.
func Resample(c Curve, grid []float64) ([]float64, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidInput)
	}

	// A single-point curve degenerates to a constant.
	if c.Len() == 1 {
		ys := make([]float64, len(grid))
		for i := range ys {
			ys[i] = c.Ys[0]
		}
		return ys, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(c.Xs, c.Ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ys := make([]float64, len(grid))
	for i, x := range grid {
		ys[i] = pl.Predict(x)
	}
	return ys, nil
}

// Aggregate resamples every curve onto a shared grid of sampleCount points
// and computes the mean curve across classes. The grid bounds come from a
// single reference curve (the lexicographically first class label), not the
// union of all domains: curves whose domains differ are clamped, so callers
// should supply curves spanning a comparable range.
//
// When includePerClass is true the per-class resampled curves are returned
// alongside the mean, ordered by label.
func Aggregate(curves map[string]Curve, sampleCount int, includePerClass bool) (*AggregateResult, error) {
	if len(curves) == 0 {
		return nil, fmt.Errorf("%w: no curves", ErrInvalidInput)
	}
	if sampleCount <= 0 {
		return nil, fmt.Errorf("%w: sample count %d", ErrInvalidInput, sampleCount)
	}

	labels := make([]string, 0, len(curves))
	for label := range curves {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	ref := curves[labels[0]]
	if err := ref.validate(); err != nil {
		return nil, fmt.Errorf("class %q: %w", labels[0], err)
	}
	grid := Grid(ref.Xs[0], ref.Xs[ref.Len()-1], sampleCount)

	resampled := make([][]float64, len(labels))
	for i, label := range labels {
		ys, err := Resample(curves[label], grid)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", label, err)
		}
		resampled[i] = ys
	}

	mean := make([]float64, sampleCount)
	col := make([]float64, len(labels))
	for i := range mean {
		for j := range resampled {
			col[j] = resampled[j][i]
		}
		mean[i] = stat.Mean(col, nil)
	}

	result := &AggregateResult{Grid: grid, Mean: mean}
	if includePerClass {
		result.PerClass = make([]ResampledCurve, len(labels))
		for i, label := range labels {
			result.PerClass[i] = ResampledCurve{Label: label, Ys: resampled[i]}
		}
	}
	return result, nil
}
