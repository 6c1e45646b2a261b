// Package config provides configuration management for the analysis engine.
// It handles loading and validation of YAML configuration files for
// the cache, scanner, analysis, and scoring subsystems.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/repoanalysis/engine/pkg/types"
)

// Config represents the application configuration structure
type Config struct {
	// Application settings
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Debug   bool   `yaml:"debug"`
	} `yaml:"app"`

	// Logging configuration
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	// Cache tier configuration
	Cache struct {
		MaxMemoryBytes int64  `yaml:"max_memory_bytes"`
		T2Path         string `yaml:"t2_path"`
		T3URL          string `yaml:"t3_url"` // empty disables T3
		SessionDir     string `yaml:"session_dir"`
	} `yaml:"cache"`

	// Scanner configuration
	Scan struct {
		MaxDepth         int      `yaml:"max_depth"`
		MaxFileSizeBytes int64    `yaml:"max_file_size_bytes"`
		IgnoreDirs       []string `yaml:"ignore_dirs"`
		SoftBudgetMS     int      `yaml:"soft_budget_ms"`
	} `yaml:"scan"`

	// Analysis concurrency configuration
	Analysis struct {
		ParallelismPermits int `yaml:"parallelism_permits"`
		PhaseTimeoutMS     int `yaml:"phase_timeout_ms"`
	} `yaml:"analysis"`

	// Teaching-value scoring weights
	Scoring struct {
		DocumentationWeight float64 `yaml:"documentation_weight"`
		ComplexityWeight    float64 `yaml:"complexity_weight"`
		PatternWeight       float64 `yaml:"pattern_weight"`
		StructureWeight     float64 `yaml:"structure_weight"`
	} `yaml:"scoring"`

	// Path safety
	Security struct {
		AllowedRoots []string `yaml:"allowed_roots"`
	} `yaml:"security"`
}

// Load loads configuration from the specified file
func Load(configFile string) (*Config, error) {
	// Set default values
	config := &Config{}
	config.setDefaults()

	// Read configuration file
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() {
	c.App.Name = "analysis-engine"
	c.App.Version = "1.0.0"
	c.App.Debug = false

	c.Logging.Level = "info"
	c.Logging.Format = "json"

	c.Cache.MaxMemoryBytes = 64 * 1024 * 1024 // 64MB
	c.Cache.T2Path = ".analysis-cache/cache.db"
	c.Cache.T3URL = ""
	c.Cache.SessionDir = ".analysis-cache/sessions"

	c.Scan.MaxDepth = 10
	c.Scan.MaxFileSizeBytes = 10 * 1024 * 1024 // 10MB
	c.Scan.IgnoreDirs = []string{
		"node_modules", ".git", "dist", "build", ".next", "__pycache__",
		"venv", "env", ".venv", "target", "out", "coverage", ".pytest_cache",
	}
	c.Scan.SoftBudgetMS = 30000

	c.Analysis.ParallelismPermits = 10
	c.Analysis.PhaseTimeoutMS = 0 // 0 = no timeout

	c.Scoring.DocumentationWeight = 0.3
	c.Scoring.ComplexityWeight = 0.25
	c.Scoring.PatternWeight = 0.25
	c.Scoring.StructureWeight = 0.2
}

// Validate validates the configuration settings. Each failure is a
// types.ValidationError naming the offending field, so a caller that
// wants more than the error string (e.g. surfacing which key to fix)
// can type-assert rather than parse the message.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return types.ValidationError{Field: "app.name", Message: "app.name cannot be empty"}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return types.ValidationError{Field: "logging.level", Message: fmt.Sprintf("invalid logging level: %s", c.Logging.Level)}
	}

	if c.Cache.MaxMemoryBytes <= 0 {
		return types.ValidationError{Field: "cache.max_memory_bytes", Message: "cache.max_memory_bytes must be positive"}
	}

	if c.Scan.MaxDepth <= 0 {
		return types.ValidationError{Field: "scan.max_depth", Message: "scan.max_depth must be positive"}
	}

	if c.Scan.MaxFileSizeBytes <= 0 {
		return types.ValidationError{Field: "scan.max_file_size_bytes", Message: "scan.max_file_size_bytes must be positive"}
	}

	if c.Analysis.ParallelismPermits <= 0 {
		return types.ValidationError{Field: "analysis.parallelism_permits", Message: "analysis.parallelism_permits must be positive"}
	}

	sum := c.Scoring.DocumentationWeight + c.Scoring.ComplexityWeight +
		c.Scoring.PatternWeight + c.Scoring.StructureWeight
	if math.Abs(sum-1.0) > 1e-6 {
		return types.ValidationError{Field: "scoring", Message: fmt.Sprintf("scoring weights must sum to 1.0, got %f", sum)}
	}

	return nil
}
