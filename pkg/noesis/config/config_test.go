package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/noesis/pkg/noesis/internalerr"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MaxInferenceDepth != 10 {
		t.Errorf("Expected default depth 10, got %d", cfg.MaxInferenceDepth)
	}
	if cfg.CacheSize != 1000 {
		t.Errorf("Expected default cache size 1000, got %d", cfg.CacheSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /tmp/kb
max_inference_depth: 5
workers: 2
enable_solver: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/kb" {
		t.Errorf("Unexpected data_dir: %s", cfg.DataDir)
	}
	if cfg.MaxInferenceDepth != 5 {
		t.Errorf("Expected depth 5, got %d", cfg.MaxInferenceDepth)
	}
	if cfg.EnableSolver {
		t.Error("Expected solver disabled")
	}
	// Unset fields keep their defaults.
	if cfg.MaxIterations != 100 {
		t.Errorf("Expected default max_iterations 100, got %d", cfg.MaxIterations)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DataDir = ""
	cfg.DatabasePath = ""
	if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	cfg = Default()
	cfg.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected rejection for negative workers")
	}
}
