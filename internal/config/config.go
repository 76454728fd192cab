// Package config loads suite configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SuiteKind selects the evaluation path for a suite.
type SuiteKind string

const (
	// SuiteStructural runs the deterministic structural validator.
	SuiteStructural SuiteKind = "structural"
	// SuiteQuality generates answers and scores them with the judges.
	SuiteQuality SuiteKind = "quality"
)

// DefaultSoftThreshold is the composite score below which quality cases log
// a warning.
const DefaultSoftThreshold = 0.5

// DefaultWorkers bounds concurrent case execution when the suite enables
// parallelism without naming a worker count.
const DefaultWorkers = 4

// SuiteConfig is one suite specification.
type SuiteConfig struct {
	Name    string    `yaml:"name"`
	Kind    SuiteKind `yaml:"kind"`
	Dataset string    `yaml:"dataset"`
	// SkillRoot anchors relative skill paths from the dataset.
	SkillRoot     string  `yaml:"skill_root,omitempty"`
	Provider      string  `yaml:"provider,omitempty"`
	Model         string  `yaml:"model,omitempty"`
	Parallel      bool    `yaml:"parallel,omitempty"`
	Workers       int     `yaml:"max_workers,omitempty"`
	SoftThreshold float64 `yaml:"soft_threshold,omitempty"`

	// dir is the directory holding the config file; relative paths resolve
	// against it.
	dir string
}

// Load reads and validates a suite config from a YAML file.
func Load(path string) (*SuiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite config: %w", err)
	}

	var cfg SuiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing suite config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("suite config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks required fields and applies defaults.
func (c *SuiteConfig) Validate() error {
	switch c.Kind {
	case SuiteStructural, SuiteQuality:
	case "":
		return fmt.Errorf("kind is required (one of %q, %q)", SuiteStructural, SuiteQuality)
	default:
		return fmt.Errorf("unknown kind %q", c.Kind)
	}
	if c.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("max_workers must be >= 0, got %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.SoftThreshold == 0 {
		c.SoftThreshold = DefaultSoftThreshold
	}
	if c.SoftThreshold < 0 || c.SoftThreshold > 1 {
		return fmt.Errorf("soft_threshold must be in [0,1], got %g", c.SoftThreshold)
	}
	return nil
}

// DatasetPath returns the dataset path resolved against the config
// directory.
func (c *SuiteConfig) DatasetPath() string {
	return c.resolve(c.Dataset)
}

// ResolveSkillPath anchors a dataset skill path at the configured skill
// root (falling back to the config directory).
func (c *SuiteConfig) ResolveSkillPath(skillPath string) string {
	if filepath.IsAbs(skillPath) {
		return skillPath
	}
	if c.SkillRoot != "" {
		return filepath.Join(c.resolve(c.SkillRoot), skillPath)
	}
	return c.resolve(skillPath)
}

func (c *SuiteConfig) resolve(path string) string {
	if filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}
