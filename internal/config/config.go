// Package config handles YAML configuration parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"stepchain/internal/batch"
	"stepchain/internal/log"
)

// Config is the root configuration structure.
type Config struct {
	Defaults batch.Options  `yaml:"defaults"`
	Input    InputConfig    `yaml:"input"`
	Logging  LoggingConfig  `yaml:"logging"`
	Scenario ScenarioConfig `yaml:"scenario"`
}

// InputConfig controls simulated input.
type InputConfig struct {
	// Rate is the maximum simulated input events per second; 0 is unpaced.
	Rate float64 `yaml:"rate"`
}

// LoggingConfig selects the log level and an optional per-run log
// directory.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// ScenarioConfig defines a named scenario and its steps.
type ScenarioConfig struct {
	Name string            `yaml:"name"`
	Page string            `yaml:"page"`
	Vars map[string]string `yaml:"vars,omitempty"`
	Data *DataConfig       `yaml:"data,omitempty"`
	// Grace is added to the worst case before the run is declared hung.
	Grace time.Duration `yaml:"grace"`
	Steps []StepConfig  `yaml:"steps"`
}

// DataConfig seeds scenario variables from a JSON document.
type DataConfig struct {
	File    string            `yaml:"file"`
	Extract map[string]string `yaml:"extract"` // variable -> JSONPath
}

// StepConfig is one scenario step: a registered extension name and its
// arguments, or a nested group of steps.
type StepConfig struct {
	Name     string        `yaml:"name,omitempty"`
	Do       string        `yaml:"do,omitempty"`
	Args     []any         `yaml:"args,omitempty"`
	Steps    []StepConfig  `yaml:"steps,omitempty"`
	Defaults batch.Options `yaml:"defaults,omitempty"`
}

// LoadConfig reads, defaults and validates a YAML configuration file.
// Relative page and data paths are resolved against the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	cfg.Scenario.Page = resolve(dir, cfg.Scenario.Page)
	if cfg.Scenario.Data != nil {
		cfg.Scenario.Data.File = resolve(dir, cfg.Scenario.Data.File)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Defaults = batch.DefaultOptions().Merge(c.Defaults)
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Scenario.Name == "" {
		c.Scenario.Name = "scenario"
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Defaults.Timeout < 0 || c.Defaults.ShortWait < 0 || c.Defaults.Poll < 0 {
		errs = append(errs, errors.New("defaults: durations must not be negative"))
	}
	if c.Input.Rate < 0 {
		errs = append(errs, fmt.Errorf("input.rate: must not be negative, got %v", c.Input.Rate))
	}
	if !log.KnownLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Scenario.Grace < 0 {
		errs = append(errs, errors.New("scenario.grace: must not be negative"))
	}
	if d := c.Scenario.Data; d != nil && d.File == "" {
		errs = append(errs, errors.New("scenario.data.file: required"))
	}
	if len(c.Scenario.Steps) == 0 {
		errs = append(errs, errors.New("scenario.steps: at least one step is required"))
	}
	errs = append(errs, validateSteps("scenario.steps", c.Scenario.Steps)...)
	return errors.Join(errs...)
}

func validateSteps(path string, steps []StepConfig) []error {
	var errs []error
	for i, s := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch {
		case s.Do != "" && len(s.Steps) > 0:
			errs = append(errs, fmt.Errorf("%s: do and steps are mutually exclusive", at))
		case s.Do == "" && len(s.Steps) == 0:
			errs = append(errs, fmt.Errorf("%s: one of do or steps is required", at))
		}
		errs = append(errs, validateSteps(at+".steps", s.Steps)...)
	}
	return errs
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
