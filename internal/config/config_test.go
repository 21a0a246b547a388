package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bkyoung/automaton-auditor/internal/config"
)

func TestMergePrioritizesLaterConfigs(t *testing.T) {
	base := config.Config{
		Output: config.OutputConfig{Directory: "default"},
	}
	file := config.Config{
		Output: config.OutputConfig{Directory: "file"},
	}
	final := config.Config{
		Output: config.OutputConfig{Directory: "env"},
	}

	merged := config.Merge(base, file, final)

	if merged.Output.Directory != "env" {
		t.Fatalf("expected env directory to win, got %s", merged.Output.Directory)
	}
}

func TestMergeKeepsBaseWhenOverlayEmpty(t *testing.T) {
	base := config.Config{
		Store:  config.StoreConfig{Enabled: true, Path: "base.db"},
		Models: config.ModelsConfig{Detective: "static-analysis", Judge: "deterministic-personas"},
	}
	overlay := config.Config{
		Models: config.ModelsConfig{Judge: "bench-v2"},
	}

	merged := config.Merge(base, overlay)

	if merged.Store.Path != "base.db" {
		t.Fatalf("expected base store path to survive, got %s", merged.Store.Path)
	}
	if merged.Models.Detective != "static-analysis" {
		t.Fatalf("expected base detective model to survive, got %s", merged.Models.Detective)
	}
	if merged.Models.Judge != "bench-v2" {
		t.Fatalf("expected overlay judge model to win, got %s", merged.Models.Judge)
	}
}

func TestLoadReadsFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "aa.yaml")
	if err := os.WriteFile(file, []byte("output:\n  directory: file\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("AA_OUTPUT_DIRECTORY", "env")

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "aa",
		EnvPrefix:   "AA",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Output.Directory != "env" {
		t.Fatalf("expected env override, got %s", cfg.Output.Directory)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{},
		FileName:    "nonexistent",
		EnvPrefix:   "AA",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Output.Directory != "audits" {
		t.Errorf("expected default output directory 'audits', got %s", cfg.Output.Directory)
	}
	if !cfg.Store.Enabled {
		t.Error("expected store to be enabled by default")
	}
	if !cfg.Redaction.Enabled {
		t.Error("expected redaction to be enabled by default")
	}
	if cfg.Store.Path == "" {
		t.Error("expected a default store path")
	}
	if !cfg.Observability.Logging.Enabled {
		t.Error("expected logging to be enabled by default")
	}
	if cfg.Observability.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.Logging.Level)
	}
	if cfg.Observability.Logging.Format != "human" {
		t.Errorf("expected default log format 'human', got %s", cfg.Observability.Logging.Format)
	}
	if cfg.Models.Detective != "static-analysis" {
		t.Errorf("expected default detective model, got %s", cfg.Models.Detective)
	}
}

func TestLoadFileSections(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "aa.yaml")
	content := `
output:
  directory: /var/audits
  sarif: true
evidence:
  enabled: true
rubric:
  path: custom_rubric.yaml
observability:
  logging:
    enabled: false
    level: debug
    format: json
`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "aa",
		EnvPrefix:   "AA",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Output.Directory != "/var/audits" {
		t.Errorf("unexpected output directory: %s", cfg.Output.Directory)
	}
	if !cfg.Output.SARIF {
		t.Error("expected sarif export to be enabled")
	}
	if !cfg.Evidence.Enabled {
		t.Error("expected evidence dump to be enabled")
	}
	if cfg.Rubric.Path != "custom_rubric.yaml" {
		t.Errorf("unexpected rubric path: %s", cfg.Rubric.Path)
	}
	if cfg.Observability.Logging.Level != "debug" {
		t.Errorf("unexpected log level: %s", cfg.Observability.Logging.Level)
	}
}
