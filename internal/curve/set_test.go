package curve

import (
	"errors"
	"testing"
)

func TestSetByClass(t *testing.T) {
	s := Set{
		Name:    "Precision-Recall(B)",
		Xs:      []float64{0, 1},
		Classes: []string{"car", "person"},
		Ys:      [][]float64{{1, 0}, {0.5, 0.5}},
	}

	curves, err := s.ByClass()
	if err != nil {
		t.Fatalf("ByClass failed: %v", err)
	}
	if len(curves) != 2 {
		t.Fatalf("got %d curves, want 2", len(curves))
	}
	assertFloats(t, curves["car"].Ys, []float64{1, 0})
	assertFloats(t, curves["person"].Ys, []float64{0.5, 0.5})
}

func TestSetByClassPositionalLabels(t *testing.T) {
	s := Set{Xs: []float64{0, 1}, Ys: [][]float64{{1, 0}, {0.2, 0.8}}}

	curves, err := s.ByClass()
	if err != nil {
		t.Fatalf("ByClass failed: %v", err)
	}
	if _, ok := curves["class_0"]; !ok {
		t.Fatalf("missing positional label, got %v", curves)
	}
	if _, ok := curves["class_1"]; !ok {
		t.Fatalf("missing positional label, got %v", curves)
	}
}

func TestSetByClassMismatch(t *testing.T) {
	s := Set{
		Xs:      []float64{0, 1},
		Classes: []string{"one"},
		Ys:      [][]float64{{1, 0}, {0.5, 0.5}},
	}
	if _, err := s.ByClass(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	empty := Set{Name: "empty"}
	if _, err := empty.ByClass(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty set, got %v", err)
	}
}

func TestAggregateSet(t *testing.T) {
	s := Set{
		Name:    "Precision-Recall(B)",
		Xs:      []float64{0, 1},
		Classes: []string{"car", "person"},
		Ys:      [][]float64{{1, 0}, {0.5, 0.5}},
	}

	result, err := AggregateSet(s, 3, false)
	if err != nil {
		t.Fatalf("AggregateSet failed: %v", err)
	}
	assertFloats(t, result.Mean, []float64{0.75, 0.5, 0.25})

	if _, err := AggregateSet(s, 0, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
