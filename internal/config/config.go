package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"asi/pkg/quadrature"

	"gopkg.in/yaml.v3"
)

// MaxDepthLimit caps the recursion budget accepted from configuration. Recursive mode uses
// one native stack frame per level and does 2^depth evaluations in the worst case.
const MaxDepthLimit = 64

// Config holds all asi configuration.
type Config struct {
	// Quadrature defaults used when a flag is not given
	Quadrature QuadratureConfig `yaml:"quadrature"`

	// Expression integrands
	Integrand IntegrandConfig `yaml:"integrand"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// QuadratureConfig configures the integrator.
type QuadratureConfig struct {
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	MaxDepth  int     `yaml:"max_depth" json:"max_depth"`
	Precision int     `yaml:"precision" json:"precision"`   // 32 or 64
	Mode      string  `yaml:"mode" json:"mode"`             // recursive, iterative
	NonFinite string  `yaml:"non_finite" json:"non_finite"` // zero, propagate, report
}

// IntegrandConfig configures expression compilation.
type IntegrandConfig struct {
	CompileTimeout string `yaml:"compile_timeout" json:"compile_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Quadrature: QuadratureConfig{
			Tolerance: 1e-6,
			MaxDepth:  20,
			Precision: 64,
			Mode:      "recursive",
			NonFinite: "zero",
		},
		Integrand: IntegrandConfig{
			CompileTimeout: "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const fileHeader = "# asi configuration. Command flags override these values.\n"

// Save writes the configuration as YAML. The document goes to a temporary file in the
// target directory and is renamed over path, so readers never see a partial file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".asi-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(fileHeader + string(data)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies ASI_* environment variables on top of the file values.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ASI_TOLERANCE"); v != "" {
		tol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ASI_TOLERANCE %q: %w", v, err)
		}
		c.Quadrature.Tolerance = tol
	}
	if v := os.Getenv("ASI_MAX_DEPTH"); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ASI_MAX_DEPTH %q: %w", v, err)
		}
		c.Quadrature.MaxDepth = depth
	}
	if v := os.Getenv("ASI_PRECISION"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ASI_PRECISION %q: %w", v, err)
		}
		c.Quadrature.Precision = p
	}
	if v := os.Getenv("ASI_MODE"); v != "" {
		c.Quadrature.Mode = v
	}
	if v := os.Getenv("ASI_NON_FINITE"); v != "" {
		c.Quadrature.NonFinite = v
	}
	if v := os.Getenv("ASI_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// Validate checks the enumerated settings, the depth cap and the logging section.
// Tolerance is passed through untouched.
func (c *Config) Validate() error {
	if c.Quadrature.Precision != 32 && c.Quadrature.Precision != 64 {
		return fmt.Errorf("precision must be 32 or 64, got %d", c.Quadrature.Precision)
	}
	if c.Quadrature.MaxDepth > MaxDepthLimit {
		return fmt.Errorf("max_depth must be <= %d, got %d", MaxDepthLimit, c.Quadrature.MaxDepth)
	}
	if _, err := quadrature.ParseMode(c.Quadrature.Mode); err != nil {
		return err
	}
	if _, err := quadrature.ParseNonFinitePolicy(c.Quadrature.NonFinite); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.Integrand.CompileTimeout); err != nil {
		return fmt.Errorf("invalid compile_timeout %q: %w", c.Integrand.CompileTimeout, err)
	}
	return c.ValidateLogging()
}

// ValidateLogging checks only the logging section, which is all a logger needs before
// command flags are applied. Level names are case-insensitive.
func (c *Config) ValidateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if _, ok := levelNames[level]; !ok && level != "" {
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// GetCompileTimeout returns the expression compile timeout, 5s if unset or invalid.
func (c *Config) GetCompileTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Integrand.CompileTimeout); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

// Mode returns the parsed quadrature mode. Call Validate first.
func (c *Config) Mode() quadrature.Mode {
	m, _ := quadrature.ParseMode(c.Quadrature.Mode)
	return m
}

// NonFinitePolicy returns the parsed non-finite policy. Call Validate first.
func (c *Config) NonFinitePolicy() quadrature.NonFinitePolicy {
	p, _ := quadrature.ParseNonFinitePolicy(c.Quadrature.NonFinite)
	return p
}
