// Package report renders aggregated metric curves to local files: PNG
// charts via gonum/plot for run directories, and a single HTML page via
// go-echarts for browsing.
package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/opendetect/evalreport/internal/curve"
)

// CurvePlot is one renderable curve family: the aggregation result plus its
// display metadata.
type CurvePlot struct {
	Title  string
	XLabel string
	YLabel string
	Result *curve.AggregateResult
}

// SavePNG renders the plot to a PNG file: the mean curve as a heavy black
// line with any per-class curves behind it in distinct colors.
func SavePNG(cp CurvePlot, path string) error {
	if cp.Result == nil {
		return fmt.Errorf("save png %s: nil result", path)
	}

	p := plot.New()
	p.Title.Text = cp.Title
	p.X.Label.Text = cp.XLabel
	p.Y.Label.Text = cp.YLabel

	colors := generateColors(len(cp.Result.PerClass))
	for i, rc := range cp.Result.PerClass {
		line, err := plotter.NewLine(toXYs(cp.Result.Grid, rc.Ys))
		if err != nil {
			return fmt.Errorf("class %s line: %w", rc.Label, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(rc.Label, line)
	}

	mean, err := plotter.NewLine(toXYs(cp.Result.Grid, cp.Result.Mean))
	if err != nil {
		return fmt.Errorf("mean line: %w", err)
	}
	mean.Color = color.Black
	mean.Width = vg.Points(2)
	p.Add(mean)
	p.Legend.Add(curve.MeanLabel, mean)

	p.Legend.Top = true
	p.Legend.Left = false

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

func toXYs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	return pts
}

// generateColors creates a palette of distinct colors for per-class lines.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range).
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
