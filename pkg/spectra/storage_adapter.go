package spectra

import (
	"encoding/json"
	"time"

	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) SavePreset(name string, config []byte) (*models.Preset, error) {
	p, err := s.db.SavePreset(name, config)
	if err != nil {
		return nil, err
	}
	out := toModelPreset(*p)
	return &out, nil
}

func (s *storageAdapter) GetPresetByName(name string) (*models.Preset, error) {
	p, err := s.db.GetPresetByName(name)
	if err != nil {
		return nil, err
	}
	out := toModelPreset(*p)
	return &out, nil
}

func (s *storageAdapter) ListPresets() ([]models.Preset, error) {
	rows, err := s.db.ListPresets()
	if err != nil {
		return nil, err
	}
	presets := make([]models.Preset, len(rows))
	for i, p := range rows {
		presets[i] = toModelPreset(p)
	}
	return presets, nil
}

func (s *storageAdapter) DeletePresetByName(name string) error {
	return s.db.DeletePresetByName(name)
}

func (s *storageAdapter) RecordRun(run models.Run) (string, error) {
	return s.db.RecordRun(run.FileNames, run.SpectraCount, run.Config, run.Status, run.Error,
		time.Duration(run.DurationMs)*time.Millisecond)
}

func (s *storageAdapter) ListRuns(limit int) ([]models.Run, error) {
	rows, err := s.db.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	runs := make([]models.Run, len(rows))
	for i, r := range rows {
		runs[i] = models.Run{
			ID:           r.ID,
			FileNames:    r.DecodeFileNames(),
			SpectraCount: r.SpectraCount,
			Config:       rawJSON(r.Config),
			Status:       r.Status,
			Error:        r.Error,
			DurationMs:   r.DurationMs,
			CreatedAt:    r.CreatedAt,
		}
	}
	return runs, nil
}

func (s *storageAdapter) RunCount() (int64, error) {
	return s.db.GetRunCount()
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func toModelPreset(p storage.Preset) models.Preset {
	return models.Preset{
		ID:        p.ID,
		Name:      p.Name,
		Config:    rawJSON(p.Config),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
