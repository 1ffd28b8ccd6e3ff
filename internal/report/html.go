package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/opendetect/evalreport/internal/curve"
)

// LineChart builds an echarts line chart for one curve family, mean series
// plus any per-class series.
func LineChart(cp CurvePlot) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: cp.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: cp.XLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: cp.YLabel, NameLocation: "middle", NameGap: 40}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
	)

	labels := make([]string, len(cp.Result.Grid))
	for i, x := range cp.Result.Grid {
		labels[i] = strconv.FormatFloat(x, 'f', 3, 64)
	}
	line.SetXAxis(labels)

	line.AddSeries(curve.MeanLabel, toLineData(cp.Result.Mean),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: 3}),
	)
	for _, rc := range cp.Result.PerClass {
		line.AddSeries(rc.Label, toLineData(rc.Ys),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

func toLineData(ys []float64) []opts.LineData {
	data := make([]opts.LineData, len(ys))
	for i, y := range ys {
		data[i] = opts.LineData{Value: y}
	}
	return data
}

// RenderHTML writes all curve charts for a run as a single HTML page.
func RenderHTML(runName string, plots []CurvePlot, w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("evaluation %s", runName)
	for _, cp := range plots {
		if cp.Result == nil {
			return fmt.Errorf("render html: nil result for %q", cp.Title)
		}
		page.AddCharts(LineChart(cp))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// WriteHTMLFile renders the run's curve charts to path.
func WriteHTMLFile(runName string, plots []CurvePlot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	defer f.Close()
	return RenderHTML(runName, plots, f)
}
