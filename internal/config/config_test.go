package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stepchain/internal/batch"
)

func TestLoadConfig_Minimal(t *testing.T) {
	content := `
scenario:
  steps:
    - do: debug
      args: ["hello"]
`
	cfg := loadConfigFromString(t, content)

	if cfg.Defaults != batch.DefaultOptions() {
		t.Errorf("expected default options, got %+v", cfg.Defaults)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected level info, got %q", cfg.Logging.Level)
	}
	if cfg.Scenario.Name != "scenario" {
		t.Errorf("expected default scenario name, got %q", cfg.Scenario.Name)
	}
	if cfg.Input.Rate != 0 {
		t.Errorf("expected unpaced input, got %v", cfg.Input.Rate)
	}
}

func TestLoadConfig_Full(t *testing.T) {
	content := `
defaults:
  timeout: 5s
  poll: 50ms
input:
  rate: 20
logging:
  level: debug
  dir: logs
scenario:
  name: login
  page: fixtures/login.json
  grace: 2s
  vars:
    user: alice
  data:
    file: data/user.json
    extract:
      id: $.user.id
  steps:
    - do: waitAndClick
      args: ["#login", 500ms]
    - name: fill form
      defaults: {shortWait: 10ms}
      steps:
        - do: setValue
          args: ["#user", "${user}"]
`
	path := createTempFile(t, content)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	want := batch.Options{Timeout: 5 * time.Second, ShortWait: batch.DefaultShortWait, Poll: 50 * time.Millisecond}
	if cfg.Defaults != want {
		t.Errorf("expected %+v, got %+v", want, cfg.Defaults)
	}
	if cfg.Input.Rate != 20 {
		t.Errorf("expected rate 20, got %v", cfg.Input.Rate)
	}
	if cfg.Scenario.Grace != 2*time.Second {
		t.Errorf("expected grace 2s, got %v", cfg.Scenario.Grace)
	}

	dir := filepath.Dir(path)
	if cfg.Scenario.Page != filepath.Join(dir, "fixtures/login.json") {
		t.Errorf("page not resolved against config dir: %q", cfg.Scenario.Page)
	}
	if cfg.Scenario.Data.File != filepath.Join(dir, "data/user.json") {
		t.Errorf("data file not resolved: %q", cfg.Scenario.Data.File)
	}

	steps := cfg.Scenario.Steps
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Do != "waitAndClick" || len(steps[0].Args) != 2 || steps[0].Args[1] != "500ms" {
		t.Errorf("unexpected first step: %+v", steps[0])
	}
	if steps[1].Defaults.ShortWait != 10*time.Millisecond || len(steps[1].Steps) != 1 {
		t.Errorf("unexpected group step: %+v", steps[1])
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no steps", "scenario: {name: x}", "at least one step"},
		{"bad level", "logging: {level: loud}\nscenario: {steps: [{do: debug}]}", "logging.level"},
		{"negative rate", "input: {rate: -1}\nscenario: {steps: [{do: debug}]}", "input.rate"},
		{"empty step", "scenario: {steps: [{name: x}]}", "scenario.steps[0]"},
		{"do and steps", "scenario: {steps: [{do: debug, steps: [{do: debug}]}]}", "mutually exclusive"},
		{"nested empty", "scenario: {steps: [{steps: [{}]}]}", "scenario.steps[0].steps[0]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(createTempFile(t, tc.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected %q in error, got: %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(createTempFile(t, "scenario: [")); err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

// Helper functions

func loadConfigFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := LoadConfig(createTempFile(t, content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func createTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return tmpFile
}
