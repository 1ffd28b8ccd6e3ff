// Package api serves stored evaluation results: a JSON API over the run
// database plus rendered chart pages for browsing metric curves.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/opendetect/evalreport/internal/curve"
	"github.com/opendetect/evalreport/internal/eval"
	"github.com/opendetect/evalreport/internal/httputil"
	"github.com/opendetect/evalreport/internal/report"
	"github.com/opendetect/evalreport/internal/store"
)

// Server exposes the run database over HTTP.
type Server struct {
	runs    *store.RunStore
	scalars *store.ScalarStore

	// SampleCount and IncludePerClass control curve aggregation on the
	// chart pages. Zero SampleCount means 100 points.
	SampleCount     int
	IncludePerClass bool
}

// NewServer creates a Server over the given stores.
func NewServer(runs *store.RunStore, scalars *store.ScalarStore) *Server {
	return &Server{runs: runs, scalars: scalars}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/", s.handleRun)
	mux.HandleFunc("/charts/runs/", s.handleRunCharts)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}
	w.Write([]byte("evalreport results server\n"))
}

// handleRuns lists all stored runs.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runs, err := s.runs.List()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

// handleRun serves one run: GET /api/runs/{id}, DELETE /api/runs/{id}, and
// GET /api/runs/{id}/scalars.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	runID, sub, _ := strings.Cut(rest, "/")
	if runID == "" {
		httputil.NotFound(w, "run id required")
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		s.showRun(w, runID)
	case sub == "" && r.Method == http.MethodDelete:
		s.deleteRun(w, runID)
	case sub == "scalars" && r.Method == http.MethodGet:
		s.showScalars(w, r, runID)
	case sub == "":
		httputil.MethodNotAllowed(w)
	default:
		httputil.NotFound(w, "not found")
	}
}

func (s *Server) showRun(w http.ResponseWriter, runID string) {
	run, err := s.runs.Get(runID)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, fmt.Sprintf("run %s not found", runID))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to fetch run: %v", err))
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) deleteRun(w http.ResponseWriter, runID string) {
	if _, err := s.runs.Get(runID); errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, fmt.Sprintf("run %s not found", runID))
		return
	} else if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to fetch run: %v", err))
		return
	}
	if err := s.runs.Delete(runID); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to delete run: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"deleted": runID})
}

// showScalars returns scalar history for one metric name, or the list of
// recorded names when no name is given.
func (s *Server) showScalars(w http.ResponseWriter, r *http.Request, runID string) {
	name := r.URL.Query().Get("name")
	if name == "" {
		names, err := s.scalars.Names(runID)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to list scalar names: %v", err))
			return
		}
		if names == nil {
			names = []string{}
		}
		httputil.WriteJSONOK(w, map[string]interface{}{"run_id": runID, "names": names})
		return
	}

	history, err := s.scalars.History(runID, name)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to fetch scalar history: %v", err))
		return
	}
	if history == nil {
		history = []store.Scalar{}
	}
	httputil.WriteJSONOK(w, history)
}

// handleRunCharts renders the run's metric curves as an HTML chart page.
func (s *Server) handleRunCharts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runID := strings.TrimPrefix(r.URL.Path, "/charts/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		httputil.NotFound(w, "run id required")
		return
	}

	run, err := s.runs.Get(runID)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, fmt.Sprintf("run %s not found", runID))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to fetch run: %v", err))
		return
	}
	if len(run.MetricsJSON) == 0 {
		httputil.NotFound(w, fmt.Sprintf("run %s has no stored metrics", runID))
		return
	}

	var metrics eval.Metrics
	if err := json.Unmarshal(run.MetricsJSON, &metrics); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to decode stored metrics: %v", err))
		return
	}
	if len(metrics.Curves) == 0 {
		httputil.NotFound(w, fmt.Sprintf("run %s has no metric curves", runID))
		return
	}

	plots, err := s.curvePlots(metrics.Curves)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to aggregate curves: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHTML(run.Name, plots, w); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render charts: %v", err))
	}
}

func (s *Server) curvePlots(sets []curve.Set) ([]report.CurvePlot, error) {
	sampleCount := s.SampleCount
	if sampleCount <= 0 {
		sampleCount = 100
	}

	plots := make([]report.CurvePlot, 0, len(sets))
	for _, set := range sets {
		result, err := curve.AggregateSet(set, sampleCount, s.IncludePerClass)
		if err != nil {
			return nil, fmt.Errorf("aggregating %s: %w", set.Name, err)
		}
		plots = append(plots, report.CurvePlot{
			Title:  set.Name,
			XLabel: set.XAxisTitle,
			YLabel: set.YAxisTitle,
			Result: result,
		})
	}
	return plots, nil
}
