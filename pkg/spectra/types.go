package spectra

import (
	"errors"
	"time"

	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra/pipeline"
)

// ErrAnalyzerUnavailable is returned by Analyze when no analyzer is configured.
var ErrAnalyzerUnavailable = errors.New("analysis is not configured")

// UploadedFile is the raw content of one uploaded spectral file.
type UploadedFile struct {
	Name    string
	Content []byte
}

// ProcessRequest is one batch submitted for processing. A non-empty Preset
// replaces Config with the stored configuration.
type ProcessRequest struct {
	FileNames []string
	Spectra   []models.Spectrum
	Config    pipeline.TransformConfig
	Preset    string
}

// Preset is a stored, named pipeline configuration.
type Preset struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Config    pipeline.TransformConfig `json:"config"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}
