// Package config loads evaluation settings from JSON files. All fields are
// pointers so a partial config file only overrides what it names; the Get*
// accessors supply the defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EvalConfig is the root configuration for the evaluation tools. The schema
// doubles as the request body accepted by the results server's config
// endpoint, so the same JSON works for both.
type EvalConfig struct {
	// Evaluation params
	ImageSize    *int    `json:"image_size,omitempty"`
	Batch        *int    `json:"batch,omitempty"`
	Device       *string `json:"device,omitempty"`
	EvaluatorURL *string `json:"evaluator_url,omitempty"`

	// Curve aggregation params
	SampleCount     *int  `json:"sample_count,omitempty"`
	IncludePerClass *bool `json:"include_per_class,omitempty"`

	// Tracking params
	TrackingEnabled *bool   `json:"tracking_enabled,omitempty"`
	TrackingURL     *string `json:"tracking_url,omitempty"`
	Project         *string `json:"project,omitempty"`

	// Output params
	OutputRoot *string `json:"output_root,omitempty"`
	DBPath     *string `json:"db_path,omitempty"`
}

// Empty returns an EvalConfig with all fields unset.
func Empty() *EvalConfig {
	return &EvalConfig{}
}

// Load reads an EvalConfig from a JSON file. The file must have a .json
// extension and stay under the size cap. Fields omitted from the file fall
// back to the Get* defaults, so partial configs are safe.
func Load(path string) (*EvalConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *EvalConfig) Validate() error {
	if c.ImageSize != nil && *c.ImageSize <= 0 {
		return fmt.Errorf("image_size must be positive, got %d", *c.ImageSize)
	}
	if c.Batch != nil && *c.Batch <= 0 {
		return fmt.Errorf("batch must be positive, got %d", *c.Batch)
	}
	if c.SampleCount != nil && *c.SampleCount <= 0 {
		return fmt.Errorf("sample_count must be positive, got %d", *c.SampleCount)
	}
	if c.TrackingEnabled != nil && *c.TrackingEnabled {
		if c.TrackingURL == nil || *c.TrackingURL == "" {
			return fmt.Errorf("tracking_enabled requires tracking_url")
		}
	}
	return nil
}

// GetImageSize returns the image_size value or the default.
func (c *EvalConfig) GetImageSize() int {
	if c.ImageSize == nil {
		return 640
	}
	return *c.ImageSize
}

// GetBatch returns the batch value or the default.
func (c *EvalConfig) GetBatch() int {
	if c.Batch == nil {
		return 16
	}
	return *c.Batch
}

// GetDevice returns the device value or the default (auto-select).
func (c *EvalConfig) GetDevice() string {
	if c.Device == nil {
		return ""
	}
	return *c.Device
}

// GetEvaluatorURL returns the evaluator_url value or the default.
func (c *EvalConfig) GetEvaluatorURL() string {
	if c.EvaluatorURL == nil || *c.EvaluatorURL == "" {
		return "http://localhost:8601"
	}
	return *c.EvaluatorURL
}

// GetSampleCount returns the sample_count value or the default.
func (c *EvalConfig) GetSampleCount() int {
	if c.SampleCount == nil {
		return 100
	}
	return *c.SampleCount
}

// GetIncludePerClass returns the include_per_class value or the default.
func (c *EvalConfig) GetIncludePerClass() bool {
	if c.IncludePerClass == nil {
		return false
	}
	return *c.IncludePerClass
}

// GetTrackingEnabled returns the tracking_enabled value or the default.
// Tracking is off unless explicitly enabled.
func (c *EvalConfig) GetTrackingEnabled() bool {
	if c.TrackingEnabled == nil {
		return false
	}
	return *c.TrackingEnabled
}

// GetTrackingURL returns the tracking_url value or the default.
func (c *EvalConfig) GetTrackingURL() string {
	if c.TrackingURL == nil {
		return ""
	}
	return *c.TrackingURL
}

// GetProject returns the project value or the default.
func (c *EvalConfig) GetProject() string {
	if c.Project == nil || *c.Project == "" {
		return "detect"
	}
	return *c.Project
}

// GetOutputRoot returns the output_root value or the default.
func (c *EvalConfig) GetOutputRoot() string {
	if c.OutputRoot == nil || *c.OutputRoot == "" {
		return "runs/val"
	}
	return *c.OutputRoot
}

// GetDBPath returns the db_path value or the default.
func (c *EvalConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "evalreport.db"
	}
	return *c.DBPath
}
