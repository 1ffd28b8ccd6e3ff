package store

import (
	"fmt"
	"sort"
)

// Scalar is one logged metric value at a step.
type Scalar struct {
	RunID string  `json:"run_id"`
	Step  int     `json:"step"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ScalarStore persists per-step scalar metrics mirrored from a tracking
// session.
type ScalarStore struct {
	db *DB
}

// NewScalarStore creates a ScalarStore over db.
func NewScalarStore(db *DB) *ScalarStore {
	return &ScalarStore{db: db}
}

// InsertBatch records all values for one (run, step) in a single
// transaction. Names are inserted in sorted order for deterministic
// listings.
func (s *ScalarStore) InsertBatch(runID string, step int, values map[string]float64) error {
	if len(values) == 0 {
		return nil
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	err := retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO run_scalars (run_id, step, name, value)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, name := range names {
			if _, err := stmt.Exec(runID, step, name, values[name]); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("inserting scalars for run %s step %d: %w", runID, step, err)
	}
	return nil
}

// History returns the (step, value) series for one metric of a run,
// ordered by step.
func (s *ScalarStore) History(runID, name string) ([]Scalar, error) {
	rows, err := s.db.Query(`
		SELECT run_id, step, name, value FROM run_scalars
		WHERE run_id = ? AND name = ? ORDER BY step`, runID, name)
	if err != nil {
		return nil, fmt.Errorf("scalar history for %s/%s: %w", runID, name, err)
	}
	defer rows.Close()

	var series []Scalar
	for rows.Next() {
		var sc Scalar
		if err := rows.Scan(&sc.RunID, &sc.Step, &sc.Name, &sc.Value); err != nil {
			return nil, err
		}
		series = append(series, sc)
	}
	return series, rows.Err()
}

// Names returns the distinct metric names logged for a run.
func (s *ScalarStore) Names(runID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT name FROM run_scalars WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("scalar names for %s: %w", runID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
