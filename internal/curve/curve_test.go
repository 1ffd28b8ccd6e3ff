package curve

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func assertFloats(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResampleLinearInterpolation(t *testing.T) {
	c := Curve{Xs: []float64{0, 0.5, 1}, Ys: []float64{1, 0.8, 0.2}}
	grid := []float64{0, 0.25, 0.5, 0.75, 1}

	got, err := Resample(c, grid)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	assertFloats(t, got, []float64{1, 0.9, 0.8, 0.5, 0.2})
}

func TestResampleIdentityOnOwnGrid(t *testing.T) {
	c := Curve{Xs: []float64{0, 0.1, 0.4, 0.9, 1}, Ys: []float64{1, 0.95, 0.7, 0.3, 0.05}}

	got, err := Resample(c, c.Xs)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	assertFloats(t, got, c.Ys)
}

func TestResampleClampsOutsideDomain(t *testing.T) {
	c := Curve{Xs: []float64{0.2, 0.8}, Ys: []float64{0.9, 0.4}}

	got, err := Resample(c, []float64{0, 0.1, 0.9, 2})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	assertFloats(t, got, []float64{0.9, 0.9, 0.4, 0.4})
}

func TestResampleNoOvershoot(t *testing.T) {
	c := Curve{Xs: []float64{0, 0.3, 0.6, 1}, Ys: []float64{0.1, 0.9, 0.2, 0.7}}
	grid := Grid(0, 1, 101)

	got, err := Resample(c, grid)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	for i, x := range grid {
		// Find the bracketing original points.
		lo, hi := c.Ys[0], c.Ys[0]
		for j := 0; j < c.Len()-1; j++ {
			if x >= c.Xs[j] && x <= c.Xs[j+1] {
				lo = math.Min(c.Ys[j], c.Ys[j+1])
				hi = math.Max(c.Ys[j], c.Ys[j+1])
				break
			}
		}
		if got[i] < lo-tolerance || got[i] > hi+tolerance {
			t.Errorf("x=%v: interpolated %v outside bracket [%v, %v]", x, got[i], lo, hi)
		}
	}
}

func TestResampleSinglePointCurve(t *testing.T) {
	c := Curve{Xs: []float64{0.5}, Ys: []float64{0.7}}

	got, err := Resample(c, []float64{0, 0.5, 1})
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	assertFloats(t, got, []float64{0.7, 0.7, 0.7})
}

func TestResampleInvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		curve Curve
		grid  []float64
	}{
		{"empty curve", Curve{}, []float64{0, 1}},
		{"empty grid", Curve{Xs: []float64{0, 1}, Ys: []float64{1, 0}}, nil},
		{"length mismatch", Curve{Xs: []float64{0, 1}, Ys: []float64{1}}, []float64{0}},
		{"non-increasing xs", Curve{Xs: []float64{0, 0.5, 0.5}, Ys: []float64{1, 0.5, 0}}, []float64{0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Resample(tc.curve, tc.grid); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAggregateTwoClasses(t *testing.T) {
	curves := map[string]Curve{
		"car":    {Xs: []float64{0, 1}, Ys: []float64{1, 0}},
		"person": {Xs: []float64{0, 1}, Ys: []float64{0.5, 0.5}},
	}

	result, err := Aggregate(curves, 3, true)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	assertFloats(t, result.Grid, []float64{0, 0.5, 1})
	assertFloats(t, result.Mean, []float64{0.75, 0.5, 0.25})

	if len(result.PerClass) != 2 {
		t.Fatalf("expected 2 per-class curves, got %d", len(result.PerClass))
	}
	if result.PerClass[0].Label != "car" || result.PerClass[1].Label != "person" {
		t.Fatalf("unexpected label order: %q, %q", result.PerClass[0].Label, result.PerClass[1].Label)
	}
	assertFloats(t, result.PerClass[0].Ys, []float64{1, 0.5, 0})
	assertFloats(t, result.PerClass[1].Ys, []float64{0.5, 0.5, 0.5})
}

func TestAggregateMeanOnly(t *testing.T) {
	curves := map[string]Curve{
		"car": {Xs: []float64{0, 0.5, 1}, Ys: []float64{1, 0.8, 0.2}},
	}

	result, err := Aggregate(curves, 5, false)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if result.PerClass != nil {
		t.Fatalf("expected no per-class curves, got %d", len(result.PerClass))
	}
	if len(result.Mean) != 5 || len(result.Grid) != 5 {
		t.Fatalf("expected 5-point curves, got grid=%d mean=%d", len(result.Grid), len(result.Mean))
	}
}

func TestAggregateSharedGridLengths(t *testing.T) {
	curves := map[string]Curve{
		"a": {Xs: []float64{0, 0.2, 1}, Ys: []float64{1, 0.9, 0.1}},
		"b": {Xs: []float64{0, 0.7, 1}, Ys: []float64{0.8, 0.5, 0.2}},
		"c": {Xs: []float64{0, 1}, Ys: []float64{0.6, 0.6}},
	}

	const n = 17
	result, err := Aggregate(curves, n, true)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(result.Grid) != n || len(result.Mean) != n {
		t.Fatalf("grid/mean lengths: %d/%d, want %d", len(result.Grid), len(result.Mean), n)
	}
	for _, rc := range result.PerClass {
		if len(rc.Ys) != n {
			t.Fatalf("class %q has %d values, want %d", rc.Label, len(rc.Ys), n)
		}
	}
}

func TestAggregateInvalidInput(t *testing.T) {
	valid := map[string]Curve{"a": {Xs: []float64{0, 1}, Ys: []float64{1, 0}}}

	if _, err := Aggregate(nil, 10, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty input: expected ErrInvalidInput, got %v", err)
	}
	if _, err := Aggregate(valid, 0, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero sample count: expected ErrInvalidInput, got %v", err)
	}
	if _, err := Aggregate(valid, -3, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative sample count: expected ErrInvalidInput, got %v", err)
	}
	if _, err := Aggregate(map[string]Curve{"a": {}}, 10, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty curve: expected ErrInvalidInput, got %v", err)
	}
}

func TestRowsLayout(t *testing.T) {
	curves := map[string]Curve{
		"car":    {Xs: []float64{0, 1}, Ys: []float64{1, 0}},
		"person": {Xs: []float64{0, 1}, Ys: []float64{0.5, 0.5}},
	}
	result, err := Aggregate(curves, 3, true)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	rows := result.Rows()
	if len(rows) != 9 {
		t.Fatalf("expected 9 rows, got %d", len(rows))
	}
	for i := 0; i < 3; i++ {
		if rows[i].Class != MeanLabel {
			t.Fatalf("row %d: expected mean label first, got %q", i, rows[i].Class)
		}
	}
	if rows[3].Class != "car" || rows[6].Class != "person" {
		t.Fatalf("unexpected class order: %q, %q", rows[3].Class, rows[6].Class)
	}
	if !almostEqual(rows[4].X, 0.5) || !almostEqual(rows[4].Y, 0.5) {
		t.Fatalf("row 4: got (%v, %v), want (0.5, 0.5)", rows[4].X, rows[4].Y)
	}
}

func TestGridSinglePoint(t *testing.T) {
	got := Grid(0.25, 1, 1)
	assertFloats(t, got, []float64{0.25})
}
