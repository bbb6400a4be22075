package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Boliti/Website/pkg/logger"
	"github.com/Boliti/Website/pkg/metrics"
	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra"
	"github.com/Boliti/Website/pkg/spectra/export"
)

const defaultRunsLimit = 50

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service spectra.Service
	config  *ServerConfig
	log     spectra.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	DBPath          string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	RequestTimeout  time.Duration
	GracefulTimeout time.Duration
}

// NewServer creates a new server instance
func NewServer(service spectra.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{
			Error:   http.StatusText(statusCode),
			Message: "failed to encode response",
			Code:    statusCode,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.log.Errorf("Failed to write JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondServiceError maps a service error onto a status code.
func (s *Server) respondServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case models.IsInputError(err):
		s.log.Warnf("%s: %v", action, err)
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, spectra.ErrAnalyzerUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Errorf("%s: %v", action, err)
		s.respondError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		s.log.Errorf("%s: %v", action, err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", action, err))
	}
}

// respondFile writes an attachment download.
func (s *Server) respondFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.log.Errorf("Failed to write %s: %v", filename, err)
	}
}

// requestContext bounds a request by the configured timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.config.RequestTimeout)
}

// decodeJSON decodes the request body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "Spectra API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":             "GET /health",
			"metrics":            "GET /api/health/metrics",
			"prometheus":         "GET /metrics",
			"uploadFiles":        "POST /upload_files",
			"processData":        "POST /process_data",
			"exportMeanSpectrum": "POST /export_mean_spectrum",
			"exportZip":          "POST /export_zip",
			"exportParquet":      "POST /export_parquet",
			"listPresets":        "GET /api/presets",
			"savePreset":         "POST /api/presets",
			"getPreset":          "GET /api/presets/{name}",
			"deletePreset":       "DELETE /api/presets/{name}",
			"runs":               "GET /api/runs",
			"analyze":            "POST /api/analyze",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets()
	if err != nil {
		s.log.Errorf("Failed to get preset count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}
	runs, err := s.service.RunCount()
	if err != nil {
		s.log.Errorf("Failed to get run count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		PresetCount:  len(presets),
		RunCount:     runs,
		Analysis:     s.service.HasAnalyzer(),
		Host:         metrics.CollectHost(),
	})
}

// handleUploadFiles handles POST /upload_files (multipart "files")
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files found")
		return
	}

	files := make([]spectra.UploadedFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.log.Errorf("Failed to open uploaded file %s: %v", h.Filename, err)
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file %s", h.Filename))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.log.Errorf("Failed to read uploaded file %s: %v", h.Filename, err)
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file %s", h.Filename))
			return
		}
		files = append(files, spectra.UploadedFile{Name: h.Filename, Content: content})
	}

	parsed, err := s.service.ParseFiles(ctx, files)
	if err != nil {
		s.respondServiceError(w, "Failed to parse files", err)
		return
	}

	resp := UploadResponse{
		Message:     "Files uploaded successfully",
		Files:       make([]string, len(parsed)),
		Frequencies: make([][]float64, len(parsed)),
		Amplitudes:  make([][]float64, len(parsed)),
		Formats:     make([]string, len(parsed)),
	}
	for i, sp := range parsed {
		resp.Files[i] = sp.Name
		resp.Frequencies[i] = sp.Frequencies
		resp.Amplitudes[i] = sp.Amplitudes
		resp.Formats[i] = sp.Format
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleProcessData handles POST /process_data
func (s *Server) handleProcessData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	req := newProcessDataRequest()
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.service.Process(ctx, req.ToProcessRequest())
	if err != nil {
		s.respondServiceError(w, "Failed to process data", err)
		return
	}
	s.respondJSON(w, http.StatusOK, newProcessDataResponse(res))
}

// handleExportMeanSpectrum handles POST /export_mean_spectrum
func (s *Server) handleExportMeanSpectrum(w http.ResponseWriter, r *http.Request) {
	var req ExportMeanRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	body, err := export.MeanSpectrumCSV(req.Frequencies, req.MeanAmplitude, req.Params)
	if err != nil {
		s.respondServiceError(w, "Failed to export mean spectrum", err)
		return
	}
	s.respondFile(w, "text/csv", "mean_spectrum.csv", body)
}

// handleExportZip handles POST /export_zip
func (s *Server) handleExportZip(w http.ResponseWriter, r *http.Request) {
	var req ExportBundleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteZip(&buf, req.ToBundle()); err != nil {
		s.respondServiceError(w, "Failed to build archive", err)
		return
	}
	s.respondFile(w, "application/zip", "processed_spectra.zip", buf.Bytes())
}

// handleExportParquet handles POST /export_parquet
func (s *Server) handleExportParquet(w http.ResponseWriter, r *http.Request) {
	var req ExportBundleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteParquet(&buf, req.ToBundle()); err != nil {
		s.respondServiceError(w, "Failed to build parquet file", err)
		return
	}
	s.respondFile(w, "application/vnd.apache.parquet", "processed_spectra.parquet", buf.Bytes())
}

// handleListPresets handles GET /api/presets
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets()
	if err != nil {
		s.respondServiceError(w, "Failed to retrieve presets", err)
		return
	}
	s.respondJSON(w, http.StatusOK, ListPresetsResponse{
		Presets: orEmpty(presets),
		Count:   len(presets),
	})
}

// handleSavePreset handles POST /api/presets
func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var req PresetRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := req.TransformConfig()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	preset, err := s.service.SavePreset(req.Name, cfg)
	if err != nil {
		s.respondServiceError(w, "Failed to save preset", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, preset)
}

// handleGetPreset handles GET /api/presets/{name}
func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	preset, err := s.service.GetPreset(name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.log.Warnf("Preset not found: %s", name)
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Preset %q not found", name))
			return
		}
		s.respondServiceError(w, "Failed to retrieve preset", err)
		return
	}
	s.respondJSON(w, http.StatusOK, preset)
}

// handleDeletePreset handles DELETE /api/presets/{name}
func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.service.DeletePreset(name); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.log.Warnf("Preset not found for deletion: %s", name)
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Preset %q not found", name))
			return
		}
		s.respondServiceError(w, "Failed to delete preset", err)
		return
	}

	s.respondJSON(w, http.StatusOK, DeletePresetResponse{
		Message: "Preset deleted successfully",
		Name:    name,
	})
}

// handleListRuns handles GET /api/runs?limit=N
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.service.ListRuns(limit)
	if err != nil {
		s.respondServiceError(w, "Failed to retrieve runs", err)
		return
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{
		Runs:  orEmpty(runs),
		Count: len(runs),
	})
}

// handleAnalyze handles POST /api/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.service.HasAnalyzer() {
		s.respondError(w, http.StatusServiceUnavailable, spectra.ErrAnalyzerUnavailable.Error())
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	var req AnalyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Amplitudes) == 0 {
		s.respondError(w, http.StatusBadRequest, "processed_amplitudes is required")
		return
	}

	text, err := s.service.Analyze(ctx, req.FileNames, &req.Result)
	if err != nil {
		s.respondServiceError(w, "Failed to analyze spectra", err)
		return
	}
	s.respondJSON(w, http.StatusOK, AnalyzeResponse{Analysis: text})
}
