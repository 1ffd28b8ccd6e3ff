package curve

import "fmt"

// Set is one named family of per-class metric curves as emitted by a
// validator, e.g. precision vs. recall. All classes share Xs; Ys holds one
// row per class aligned with Classes.
type Set struct {
	Name       string      `json:"name"`
	XAxisTitle string      `json:"x_axis_title"`
	YAxisTitle string      `json:"y_axis_title"`
	Xs         []float64   `json:"xs"`
	Classes    []string    `json:"classes,omitempty"`
	Ys         [][]float64 `json:"ys"`
}

// ByClass splits the family into per-class curves sharing Xs, keyed by
// class label. Families without class names get positional labels so
// aggregation still works.
func (s Set) ByClass() (map[string]Curve, error) {
	if len(s.Ys) == 0 {
		return nil, fmt.Errorf("%w: no classes in set %q", ErrInvalidInput, s.Name)
	}
	if len(s.Classes) > 0 && len(s.Classes) != len(s.Ys) {
		return nil, fmt.Errorf("%w: %d class names for %d curves in set %q",
			ErrInvalidInput, len(s.Classes), len(s.Ys), s.Name)
	}

	curves := make(map[string]Curve, len(s.Ys))
	for i, ys := range s.Ys {
		label := fmt.Sprintf("class_%d", i)
		if len(s.Classes) > 0 {
			label = s.Classes[i]
		}
		curves[label] = Curve{Xs: s.Xs, Ys: ys}
	}
	return curves, nil
}

// AggregateSet resamples the family onto a shared grid and aggregates it,
// a convenience over ByClass followed by Aggregate.
func AggregateSet(s Set, sampleCount int, includePerClass bool) (*AggregateResult, error) {
	curves, err := s.ByClass()
	if err != nil {
		return nil, err
	}
	result, err := Aggregate(curves, sampleCount, includePerClass)
	if err != nil {
		return nil, fmt.Errorf("set %q: %w", s.Name, err)
	}
	return result, nil
}
