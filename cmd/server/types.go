package main

import (
	"encoding/json"
	"fmt"

	"github.com/Boliti/Website/pkg/metrics"
	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra"
	"github.com/Boliti/Website/pkg/spectra/export"
	"github.com/Boliti/Website/pkg/spectra/pipeline"
)

// UploadResponse is the response for POST /upload_files
type UploadResponse struct {
	Message     string      `json:"message"`
	Files       []string    `json:"files"`
	Frequencies [][]float64 `json:"frequencies"`
	Amplitudes  [][]float64 `json:"amplitudes"`
	Formats     []string    `json:"formats"`
}

// ProcessDataRequest is the request body for POST /process_data.
// Parameters left out of the body keep their default values.
type ProcessDataRequest struct {
	Frequencies [][]float64 `json:"frequencies"`
	Amplitudes  [][]float64 `json:"amplitudes"`
	FileNames   []string    `json:"file_names,omitempty"`
	Preset      string      `json:"preset,omitempty"`

	pipeline.TransformConfig
}

// newProcessDataRequest returns a request pre-filled with the default parameters.
func newProcessDataRequest() ProcessDataRequest {
	return ProcessDataRequest{TransformConfig: pipeline.DefaultTransformConfig()}
}

// Validate checks if the request is valid
func (r *ProcessDataRequest) Validate() error {
	if len(r.Frequencies) != len(r.Amplitudes) {
		return models.NewValidationError("amplitudes",
			"got %d frequency arrays for %d amplitude arrays", len(r.Frequencies), len(r.Amplitudes))
	}
	if len(r.FileNames) > 0 && len(r.FileNames) != len(r.Amplitudes) {
		return models.NewValidationError("file_names",
			"got %d file names for %d spectra", len(r.FileNames), len(r.Amplitudes))
	}
	return nil
}

// ToProcessRequest converts the body into a service request.
func (r *ProcessDataRequest) ToProcessRequest() spectra.ProcessRequest {
	batch := make([]models.Spectrum, len(r.Amplitudes))
	for i := range r.Amplitudes {
		batch[i] = models.Spectrum{
			Frequencies: r.Frequencies[i],
			Amplitudes:  r.Amplitudes[i],
		}
		if i < len(r.FileNames) {
			batch[i].Name = r.FileNames[i]
		}
	}
	return spectra.ProcessRequest{
		FileNames: r.FileNames,
		Spectra:   batch,
		Config:    r.TransformConfig,
		Preset:    r.Preset,
	}
}

// ProcessDataResponse is the response for POST /process_data. Every key is
// always present; stages that did not run report empty arrays.
type ProcessDataResponse struct {
	Frequencies         [][]float64           `json:"frequencies"`
	ProcessedAmplitudes [][]float64           `json:"processed_amplitudes"`
	Peaks               [][]int               `json:"peaks"`
	PeaksValues         [][]float64           `json:"peaks_values"`
	PeaksInfo           [][]models.PeakRecord `json:"peaks_info"`
	MeanAmplitude       []float64             `json:"mean_amplitude"`
	StdAmplitude        []float64             `json:"std_amplitude"`
	BoxplotStats        []models.BoxplotStats `json:"boxplot_stats"`
	MovingAverages      [][]float64           `json:"moving_averages"`
}

func newProcessDataResponse(res *pipeline.Result) ProcessDataResponse {
	return ProcessDataResponse{
		Frequencies:         orEmpty(res.Frequencies),
		ProcessedAmplitudes: orEmpty(res.Amplitudes),
		Peaks:               orEmpty(res.Peaks),
		PeaksValues:         orEmpty(res.PeakValues),
		PeaksInfo:           orEmpty(res.PeaksInfo),
		MeanAmplitude:       orEmpty(res.Mean),
		StdAmplitude:        orEmpty(res.Std),
		BoxplotStats:        orEmpty(res.Boxplot),
		MovingAverages:      orEmpty(res.MovingAverages),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ExportMeanRequest is the request body for POST /export_mean_spectrum
type ExportMeanRequest struct {
	Frequencies   []float64      `json:"frequencies"`
	MeanAmplitude []float64      `json:"mean_amplitude"`
	Params        map[string]any `json:"params,omitempty"`
}

// ExportBundleRequest is the request body for POST /export_zip and
// POST /export_parquet. It mirrors the /process_data response.
type ExportBundleRequest struct {
	FileNames           []string              `json:"file_names"`
	Frequencies         [][]float64           `json:"frequencies"`
	ProcessedAmplitudes [][]float64           `json:"processed_amplitudes"`
	PeaksInfo           [][]models.PeakRecord `json:"peaks_info,omitempty"`
	MeanFrequencies     []float64             `json:"mean_frequencies,omitempty"`
	MeanAmplitude       []float64             `json:"mean_amplitude,omitempty"`
	Params              map[string]any        `json:"params,omitempty"`
}

// ToBundle converts the body into an export bundle. The mean spectrum is
// placed on the first spectrum's frequency axis unless one is given.
func (r *ExportBundleRequest) ToBundle() export.Bundle {
	meanFreqs := r.MeanFrequencies
	if len(meanFreqs) == 0 && len(r.MeanAmplitude) > 0 && len(r.Frequencies) > 0 {
		meanFreqs = r.Frequencies[0]
	}
	return export.Bundle{
		Names:           r.FileNames,
		Frequencies:     r.Frequencies,
		Amplitudes:      r.ProcessedAmplitudes,
		PeaksInfo:       r.PeaksInfo,
		MeanFrequencies: meanFreqs,
		Mean:            r.MeanAmplitude,
		Params:          r.Params,
	}
}

// PresetRequest is the request body for POST /api/presets
type PresetRequest struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
}

// Validate checks if the request is valid
func (r *PresetRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// TransformConfig decodes Config onto the default parameters.
func (r *PresetRequest) TransformConfig() (pipeline.TransformConfig, error) {
	cfg := pipeline.DefaultTransformConfig()
	if len(r.Config) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(r.Config, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ListPresetsResponse is the response for GET /api/presets
type ListPresetsResponse struct {
	Presets []spectra.Preset `json:"presets"`
	Count   int              `json:"count"`
}

// DeletePresetResponse is the response for DELETE /api/presets/{name}
type DeletePresetResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// ListRunsResponse is the response for GET /api/runs
type ListRunsResponse struct {
	Runs  []models.Run `json:"runs"`
	Count int          `json:"count"`
}

// AnalyzeRequest is the request body for POST /api/analyze: a processed
// batch as returned by /process_data plus the file names.
type AnalyzeRequest struct {
	FileNames []string `json:"file_names"`
	pipeline.Result
}

// AnalyzeResponse is the response for POST /api/analyze
type AnalyzeResponse struct {
	Analysis string `json:"analysis"`
}

// MetricsResponse provides server health, storage and host metrics
type MetricsResponse struct {
	Status       string            `json:"status"`
	DatabasePath string            `json:"database_path"`
	PresetCount  int               `json:"preset_count"`
	RunCount     int64             `json:"run_count"`
	Analysis     bool              `json:"analysis_enabled"`
	Host         metrics.HostStats `json:"host"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
