// Package spectra wires parsing, processing, presets and run history into a
// single Service used by the HTTP server and the CLI.
package spectra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/Boliti/Website/pkg/logger"
	"github.com/Boliti/Website/pkg/metrics"
	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra/analysis"
	"github.com/Boliti/Website/pkg/spectra/parser"
	"github.com/Boliti/Website/pkg/spectra/pipeline"
)

// spectraService is the default implementation of the Service interface.
type spectraService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if len(cfg.Parsers) == 0 {
		cfg.Parsers = parser.Default
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &spectraService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// ParseFiles parses every uploaded file. The first invalid file fails the
// whole upload.
func (s *spectraService) ParseFiles(ctx context.Context, files []UploadedFile) ([]models.Spectrum, error) {
	if len(files) == 0 {
		return nil, models.NewValidationError("files", "no files uploaded")
	}

	var total int
	out := make([]models.Spectrum, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(f.Name) == "" {
			return nil, models.NewValidationError("files", "one of the files has no name")
		}
		if _, ok := parser.ForExtension(filepath.Ext(f.Name)); !ok {
			return nil, models.NewValidationError("files", "unsupported file type: %s", f.Name)
		}
		if !utf8.Valid(f.Content) {
			return nil, &models.ParseError{Source: f.Name, Msg: "file is not valid UTF-8 text"}
		}

		spec, err := parser.ParseWith(s.config.Parsers, string(f.Content))
		if err != nil {
			var perr *models.ParseError
			if errors.As(err, &perr) && perr.Source == "" {
				return nil, &models.ParseError{Source: f.Name, Msg: perr.Msg}
			}
			return nil, fmt.Errorf("failed to parse %s: %w", f.Name, err)
		}
		spec.Name = f.Name

		metrics.ObserveParsedFile(spec.Format)
		s.log.Debugf("Parsed %s as %s (%d points)", f.Name, spec.Format, spec.Len())
		total += len(f.Content)
		out = append(out, spec)
	}

	s.log.Infof("Parsed %d files (%s)", len(out), humanize.Bytes(uint64(total)))
	return out, nil
}

// ResolveConfig returns the stored preset's configuration when presetName is
// set, otherwise cfg unchanged.
func (s *spectraService) ResolveConfig(presetName string, cfg pipeline.TransformConfig) (pipeline.TransformConfig, error) {
	presetName = strings.TrimSpace(presetName)
	if presetName == "" {
		return cfg, nil
	}
	p, err := s.GetPreset(presetName)
	if err != nil {
		return pipeline.TransformConfig{}, err
	}
	return p.Config, nil
}

// Process runs the pipeline over the batch and records the run.
func (s *spectraService) Process(ctx context.Context, req ProcessRequest) (*pipeline.Result, error) {
	cfg, err := s.ResolveConfig(req.Preset, req.Config)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := pipeline.Run(ctx, req.Spectra, cfg)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.ObservePipeline(elapsed, outcome, len(req.Spectra))
	s.recordRun(req, cfg, err, elapsed)

	if err != nil {
		s.log.Warnf("Pipeline failed for %d spectra: %v", len(req.Spectra), err)
		return nil, err
	}
	s.log.Infof("Processed %d spectra in %s", len(req.Spectra), elapsed)
	return res, nil
}

// recordRun stores the run outcome. Storage failures are logged only.
func (s *spectraService) recordRun(req ProcessRequest, cfg pipeline.TransformConfig, runErr error, elapsed time.Duration) {
	if !s.config.RecordRuns {
		return
	}

	names := req.FileNames
	if len(names) == 0 {
		for _, sp := range req.Spectra {
			if sp.Name != "" {
				names = append(names, sp.Name)
			}
		}
	}

	encoded, err := json.Marshal(cfg)
	if err != nil {
		s.log.Warnf("Failed to encode run config: %v", err)
	}

	run := models.Run{
		FileNames:    names,
		SpectraCount: len(req.Spectra),
		Config:       encoded,
		Status:       models.RunStatusSuccess,
		DurationMs:   elapsed.Milliseconds(),
	}
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
	}

	if _, err := s.storage.RecordRun(run); err != nil {
		s.log.Errorf("Failed to record pipeline run: %v", err)
	}
}

func (s *spectraService) SavePreset(name string, cfg pipeline.TransformConfig) (*Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name", "preset name is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preset: %w", err)
	}
	stored, err := s.storage.SavePreset(name, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to save preset: %w", err)
	}

	s.log.Infof("Saved preset %q", name)
	return decodePreset(*stored)
}

func (s *spectraService) GetPreset(name string) (*Preset, error) {
	stored, err := s.storage.GetPresetByName(name)
	if err != nil {
		return nil, err
	}
	return decodePreset(*stored)
}

func (s *spectraService) ListPresets() ([]Preset, error) {
	stored, err := s.storage.ListPresets()
	if err != nil {
		return nil, err
	}
	presets := make([]Preset, 0, len(stored))
	for _, p := range stored {
		decoded, err := decodePreset(p)
		if err != nil {
			s.log.Warnf("Skipping unreadable preset %q: %v", p.Name, err)
			continue
		}
		presets = append(presets, *decoded)
	}
	return presets, nil
}

func (s *spectraService) DeletePreset(name string) error {
	if err := s.storage.DeletePresetByName(name); err != nil {
		return err
	}
	s.log.Infof("Deleted preset %q", name)
	return nil
}

func (s *spectraService) ListRuns(limit int) ([]models.Run, error) {
	return s.storage.ListRuns(limit)
}

func (s *spectraService) RunCount() (int64, error) {
	return s.storage.RunCount()
}

func (s *spectraService) HasAnalyzer() bool {
	return s.config.Analyzer != nil
}

// Analyze summarizes the processed batch and asks the configured analyzer
// to interpret it.
func (s *spectraService) Analyze(ctx context.Context, names []string, res *pipeline.Result) (string, error) {
	if s.config.Analyzer == nil {
		return "", ErrAnalyzerUnavailable
	}
	if res == nil || len(res.Amplitudes) == 0 {
		return "", models.NewValidationError("result", "nothing to analyze")
	}

	prompt := analysis.Summarize(names, res)
	s.log.Debugf("Sending %d-byte analysis prompt", len(prompt))

	answer, err := s.config.Analyzer.Analyze(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("analysis failed: %w", err)
	}
	return answer, nil
}

func (s *spectraService) Close() error {
	return s.storage.Close()
}

// decodePreset starts from the defaults so keys missing from older presets
// keep their default values.
func decodePreset(p models.Preset) (*Preset, error) {
	cfg := pipeline.DefaultTransformConfig()
	if len(p.Config) > 0 {
		if err := json.Unmarshal(p.Config, &cfg); err != nil {
			return nil, fmt.Errorf("decoding preset %q: %w", p.Name, err)
		}
	}
	return &Preset{
		ID:        p.ID,
		Name:      p.Name,
		Config:    cfg,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}
