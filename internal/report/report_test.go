package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opendetect/evalreport/internal/curve"
)

func testPlot(t *testing.T) CurvePlot {
	t.Helper()
	result, err := curve.Aggregate(map[string]curve.Curve{
		"car":    {Xs: []float64{0, 0.5, 1}, Ys: []float64{1, 0.8, 0.2}},
		"person": {Xs: []float64{0, 0.5, 1}, Ys: []float64{0.9, 0.6, 0.3}},
	}, 25, true)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	return CurvePlot{
		Title:  "Precision-Recall(B)",
		XLabel: "Recall",
		YLabel: "Precision",
		Result: result,
	}
}

func TestSavePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "precision_recall.png")

	if err := SavePNG(testPlot(t), path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("plot file is empty")
	}
}

func TestSavePNGNilResult(t *testing.T) {
	if err := SavePNG(CurvePlot{Title: "x"}, "/tmp/never.png"); err == nil {
		t.Fatal("expected error for nil result")
	}
}

func TestRenderHTMLContainsSeries(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML("20260501-101500", []CurvePlot{testPlot(t)}, &buf); err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"Precision-Recall(B)", "mean", "car", "person"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
}

func TestWriteHTMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.html")

	if err := WriteHTMLFile("run-1", []CurvePlot{testPlot(t)}, path); err != nil {
		t.Fatalf("WriteHTMLFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if !strings.Contains(string(data), "echarts") {
		t.Fatal("report does not embed echarts")
	}
}

func TestGenerateColorsDistinct(t *testing.T) {
	colors := generateColors(8)
	if len(colors) != 8 {
		t.Fatalf("got %d colors", len(colors))
	}
	seen := make(map[string]bool)
	for _, c := range colors {
		r, g, b, _ := c.RGBA()
		key := string(rune(r)) + string(rune(g)) + string(rune(b))
		if seen[key] {
			t.Fatal("palette contains duplicate colors")
		}
		seen[key] = true
	}
	if generateColors(0) != nil {
		t.Fatal("expected nil palette for n=0")
	}
}
