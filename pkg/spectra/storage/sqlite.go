package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Boliti/Website/pkg/models"
)

const DefaultDBFile = "spectra.sqlite3"
const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Preset struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"uniqueIndex:idx_preset_name;not null" json:"name"`
	Config    string `gorm:"type:text" json:"config"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Run struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	FileNames    string    `gorm:"type:text" json:"file_names"`
	SpectraCount int       `json:"spectra_count"`
	Config       string    `gorm:"type:text" json:"config"`
	Status       string    `gorm:"index:idx_run_status" json:"status"`
	Error        string    `json:"error"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `gorm:"index:idx_run_created"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SPECTRA_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Preset{}, &Run{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SavePreset creates the named preset or replaces its config, returning the
// stored row.
func (c *DBClient) SavePreset(name string, config []byte) (*Preset, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("preset name is empty")
	}

	var preset Preset
	err := c.DB.Where("name = ?", name).First(&preset).Error
	if err == nil {
		if err := c.DB.Model(&preset).Update("Config", string(config)).Error; err != nil {
			return nil, fmt.Errorf("updating preset config: %w", err)
		}
		preset.Config = string(config)
		return &preset, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("querying existing preset: %w", err)
	}

	preset = Preset{ID: uuid.NewString(), Name: name, Config: string(config)}
	err = c.DB.Create(&preset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			// Lost a race with a concurrent save of the same name.
			if err := c.DB.Where("name = ?", name).First(&preset).Error; err != nil {
				return nil, fmt.Errorf("fetching preset after constraint violation: %w", err)
			}
			if err := c.DB.Model(&preset).Update("Config", string(config)).Error; err != nil {
				return nil, fmt.Errorf("updating preset config: %w", err)
			}
			preset.Config = string(config)
			return &preset, nil
		}
		return nil, fmt.Errorf("creating preset: %w", err)
	}

	return &preset, nil
}

func (c *DBClient) GetPresetByName(name string) (*Preset, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var preset Preset
	if err := c.DB.Where("name = ?", name).First(&preset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("preset %q: %w", name, models.ErrNotFound)
		}
		return nil, fmt.Errorf("querying preset: %w", err)
	}
	return &preset, nil
}

func (c *DBClient) ListPresets() ([]Preset, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var presets []Preset
	if err := c.DB.Order("name").Find(&presets).Error; err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	return presets, nil
}

func (c *DBClient) DeletePresetByName(name string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Where("name = ?", name).Delete(&Preset{})
	if res.Error != nil {
		return fmt.Errorf("deleting preset: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("preset %q: %w", name, models.ErrNotFound)
	}
	return nil
}

// RecordRun stores one pipeline execution and returns its generated ID.
func (c *DBClient) RecordRun(fileNames []string, spectraCount int, config []byte, status, runErr string, duration time.Duration) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	names, err := json.Marshal(fileNames)
	if err != nil {
		return "", fmt.Errorf("encoding file names: %w", err)
	}

	run := Run{
		ID:           uuid.NewString(),
		FileNames:    string(names),
		SpectraCount: spectraCount,
		Config:       string(config),
		Status:       status,
		Error:        runErr,
		DurationMs:   duration.Milliseconds(),
	}
	if err := c.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (c *DBClient) ListRuns(limit int) ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (c *DBClient) GetRunCount() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&Run{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return count, nil
}

// DecodeFileNames parses the JSON-encoded file name list of a run.
func (r Run) DecodeFileNames() []string {
	var names []string
	if r.FileNames == "" {
		return names
	}
	if err := json.Unmarshal([]byte(r.FileNames), &names); err != nil {
		return []string{r.FileNames}
	}
	return names
}
