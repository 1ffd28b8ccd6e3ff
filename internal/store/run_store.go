package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one persisted evaluation run: the request parameters plus the
// metrics blob returned by the evaluator.
type Run struct {
	RunID       string          `json:"run_id"`
	Name        string          `json:"name"`
	ModelPath   string          `json:"model_path"`
	DatasetPath string          `json:"dataset_path"`
	ImageSize   int             `json:"image_size"`
	Batch       int             `json:"batch"`
	Device      string          `json:"device"`
	OutputDir   string          `json:"output_dir"`
	MetricsJSON json.RawMessage `json:"metrics_json,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// RunStore provides persistence for evaluation runs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore over db.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Insert persists a new run. An empty RunID gets a generated UUID; a zero
// CreatedAt gets the current time.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var metricsStr interface{}
	if len(run.MetricsJSON) > 0 {
		metricsStr = string(run.MetricsJSON)
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO evaluation_runs (
				run_id, name, model_path, dataset_path,
				image_size, batch, device, output_dir,
				metrics_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Name, run.ModelPath, run.DatasetPath,
			run.ImageSize, run.Batch, run.Device, run.OutputDir,
			metricsStr, run.CreatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}
	return nil
}

// Get returns the run with the given ID, or sql.ErrNoRows.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, name, model_path, dataset_path,
		       image_size, batch, device, output_dir,
		       metrics_json, created_at
		FROM evaluation_runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// List returns all runs ordered by creation time descending.
func (s *RunStore) List() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, name, model_path, dataset_path,
		       image_size, batch, device, output_dir,
		       metrics_json, created_at
		FROM evaluation_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a run and its scalars.
func (s *RunStore) Delete(runID string) error {
	err := retryOnBusy(func() error {
		if _, err := s.db.Exec(`DELETE FROM run_scalars WHERE run_id = ?`, runID); err != nil {
			return err
		}
		_, err := s.db.Exec(`DELETE FROM evaluation_runs WHERE run_id = ?`, runID)
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", runID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(r rowScanner) (*Run, error) {
	var run Run
	var metrics sql.NullString
	err := r.Scan(
		&run.RunID, &run.Name, &run.ModelPath, &run.DatasetPath,
		&run.ImageSize, &run.Batch, &run.Device, &run.OutputDir,
		&metrics, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if metrics.Valid {
		run.MetricsJSON = json.RawMessage(metrics.String)
	}
	return &run, nil
}
