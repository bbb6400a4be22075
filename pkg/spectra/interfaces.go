package spectra

import (
	"context"

	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra/pipeline"
)

type Service interface {
	ParseFiles(ctx context.Context, files []UploadedFile) ([]models.Spectrum, error)
	Process(ctx context.Context, req ProcessRequest) (*pipeline.Result, error)
	ResolveConfig(presetName string, cfg pipeline.TransformConfig) (pipeline.TransformConfig, error)
	SavePreset(name string, cfg pipeline.TransformConfig) (*Preset, error)
	GetPreset(name string) (*Preset, error)
	ListPresets() ([]Preset, error)
	DeletePreset(name string) error
	ListRuns(limit int) ([]models.Run, error)
	RunCount() (int64, error)
	Analyze(ctx context.Context, names []string, res *pipeline.Result) (string, error)
	HasAnalyzer() bool
	Close() error
}

type Storage interface {
	SavePreset(name string, config []byte) (*models.Preset, error)
	GetPresetByName(name string) (*models.Preset, error)
	ListPresets() ([]models.Preset, error)
	DeletePresetByName(name string) error
	RecordRun(run models.Run) (string, error)
	ListRuns(limit int) ([]models.Run, error)
	RunCount() (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
