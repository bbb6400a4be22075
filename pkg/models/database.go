package models

import (
	"encoding/json"
	"time"
)

// Preset is a named, stored pipeline configuration.
// Config is the JSON encoding of a pipeline.TransformConfig.
type Preset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Run statuses.
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Run records one pipeline execution.
type Run struct {
	ID           string          `json:"id"`
	FileNames    []string        `json:"file_names"`
	SpectraCount int             `json:"spectra_count"`
	Config       json.RawMessage `json:"config,omitempty"`
	Status       string          `json:"status"`
	Error        string          `json:"error,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	CreatedAt    time.Time       `json:"created_at"`
}
