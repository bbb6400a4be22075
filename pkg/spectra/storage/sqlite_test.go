package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Boliti/Website/pkg/models"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_spectra.sqlite3")

	t.Setenv("SPECTRA_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

// TestNewDBClient tests database initialization
func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client == nil {
		t.Fatal("Expected non-nil DB client")
	}

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}

	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

// TestNewDBClientWithCustomPath tests database creation in a missing directory
func TestNewDBClientWithCustomPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

// TestSavePreset tests preset creation
func TestSavePreset(t *testing.T) {
	client, _ := setupTestDB(t)

	preset, err := client.SavePreset("raman-default", []byte(`{"lam":1000}`))
	if err != nil {
		t.Fatalf("Failed to save preset: %v", err)
	}

	if preset.ID == "" {
		t.Error("Expected non-empty preset ID")
	}

	var stored Preset
	if err := client.DB.First(&stored, "id = ?", preset.ID).Error; err != nil {
		t.Fatalf("Failed to retrieve saved preset: %v", err)
	}
	if stored.Name != "raman-default" {
		t.Errorf("Expected name 'raman-default', got '%s'", stored.Name)
	}
	if stored.Config != `{"lam":1000}` {
		t.Errorf("Unexpected config: %s", stored.Config)
	}
}

// TestSavePresetUpsert tests that saving the same name twice updates the config
func TestSavePresetUpsert(t *testing.T) {
	client, _ := setupTestDB(t)

	first, err := client.SavePreset("ir", []byte(`{"lam":10}`))
	if err != nil {
		t.Fatalf("Failed to save preset first time: %v", err)
	}

	second, err := client.SavePreset("ir", []byte(`{"lam":20}`))
	if err != nil {
		t.Fatalf("Failed to save preset second time: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected same preset ID, got %s and %s", first.ID, second.ID)
	}

	var count int64
	client.DB.Model(&Preset{}).Where("name = ?", "ir").Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 preset in database, found %d", count)
	}

	got, err := client.GetPresetByName("ir")
	if err != nil {
		t.Fatalf("Failed to get preset: %v", err)
	}
	if got.Config != `{"lam":20}` {
		t.Errorf("Expected updated config, got %s", got.Config)
	}
}

func TestSavePresetEmptyName(t *testing.T) {
	client, _ := setupTestDB(t)

	if _, err := client.SavePreset("   ", []byte(`{}`)); err == nil {
		t.Error("Expected error for empty preset name")
	}
}

// TestListAndDeletePresets tests listing order and deletion
func TestListAndDeletePresets(t *testing.T) {
	client, _ := setupTestDB(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := client.SavePreset(name, []byte(`{}`)); err != nil {
			t.Fatalf("Failed to save preset %s: %v", name, err)
		}
	}

	presets, err := client.ListPresets()
	if err != nil {
		t.Fatalf("Failed to list presets: %v", err)
	}
	if len(presets) != 3 || presets[0].Name != "alpha" || presets[2].Name != "zeta" {
		t.Errorf("Expected presets sorted by name, got %+v", presets)
	}

	if err := client.DeletePresetByName("mid"); err != nil {
		t.Fatalf("Failed to delete preset: %v", err)
	}

	_, err = client.GetPresetByName("mid")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	if err := client.DeletePresetByName("mid"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting a missing preset, got %v", err)
	}
}

// TestRecordRun tests run bookkeeping
func TestRecordRun(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.RecordRun([]string{"a.esp", "b.csv"}, 2, []byte(`{"normalize":true}`), "success", "", 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}
	if id == "" {
		t.Fatal("Expected non-empty run ID")
	}

	if _, err := client.RecordRun(nil, 0, nil, "failed", "invalid lam", time.Millisecond); err != nil {
		t.Fatalf("Failed to record failed run: %v", err)
	}

	count, err := client.GetRunCount()
	if err != nil {
		t.Fatalf("Failed to count runs: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 runs, got %d", count)
	}

	runs, err := client.ListRuns(1)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected limit to return 1 run, got %d", len(runs))
	}

	all, err := client.ListRuns(0)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	var found bool
	for _, r := range all {
		if r.ID != id {
			continue
		}
		found = true
		names := r.DecodeFileNames()
		if len(names) != 2 || names[0] != "a.esp" {
			t.Errorf("Unexpected file names: %v", names)
		}
		if r.DurationMs != 1500 || r.SpectraCount != 2 {
			t.Errorf("Unexpected run fields: %+v", r)
		}
	}
	if !found {
		t.Errorf("Run %s not returned by ListRuns", id)
	}
}

func TestNilClient(t *testing.T) {
	var client *DBClient

	if err := client.Close(); err != nil {
		t.Errorf("Expected nil error closing nil client, got %v", err)
	}
	if _, err := client.ListPresets(); err == nil {
		t.Error("Expected error from nil client")
	}
	if _, err := client.RecordRun(nil, 0, nil, "success", "", 0); err == nil {
		t.Error("Expected error from nil client")
	}
}
