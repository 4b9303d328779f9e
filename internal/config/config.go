// Package config defines the benchmark experiment parameters.
//
// The experiment is fixed by design: the zero-config run uses
// DefaultConfig, and there are deliberately no per-parameter command-line
// flags. A YAML file can override individual fields for local
// experimentation.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sbellingham/riposte/internal/bench"
)

// Duration wraps time.Duration for YAML decoding of strings like "5s".
type Duration time.Duration

// UnmarshalYAML decodes a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Config holds the experiment parameters.
type Config struct {
	// WarmupCount is the number of sequential, unmeasured priming
	// requests per scenario.
	WarmupCount int `yaml:"warmupCount"`

	// BenchmarkCount is the number of measured requests per scenario.
	BenchmarkCount int `yaml:"benchmarkCount"`

	// ConcurrencyLimit is the batch size: at most this many requests are
	// in flight at once.
	ConcurrencyLimit int `yaml:"concurrencyLimit"`

	// Timeout bounds each individual request.
	Timeout Duration `yaml:"timeout"`

	// MaxRPS caps the overall issue rate. Zero disables the cap.
	MaxRPS float64 `yaml:"maxRps"`

	// Scenarios is the ordered scenario list. Order here is the order in
	// the report.
	Scenarios []bench.Scenario `yaml:"scenarios"`
}

// DefaultConfig returns the standard experiment: 1000 warmup requests,
// 10000 measured requests in batches of 100, a 5s per-request timeout,
// and no rate cap.
func DefaultConfig() Config {
	return Config{
		WarmupCount:      1000,
		BenchmarkCount:   10000,
		ConcurrencyLimit: 100,
		Timeout:          Duration(5 * time.Second),
		Scenarios: []bench.Scenario{
			{Name: "simple", Path: "/simple"},
			{Name: "json", Path: "/json"},
			{Name: "query", Path: "/query?limit=25&offset=50"},
		},
	}
}

// Validate checks the experiment for values the harness cannot run with.
func (c Config) Validate() error {
	if c.WarmupCount < 0 {
		return fmt.Errorf("warmupCount must be >= 0, got %d", c.WarmupCount)
	}
	if c.BenchmarkCount <= 0 {
		return fmt.Errorf("benchmarkCount must be > 0, got %d", c.BenchmarkCount)
	}
	if c.ConcurrencyLimit <= 0 {
		return fmt.Errorf("concurrencyLimit must be > 0, got %d", c.ConcurrencyLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", time.Duration(c.Timeout))
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("maxRps must be >= 0, got %v", c.MaxRPS)
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenario with path %q has no name", sc.Path)
		}
		if sc.Path == "" {
			return fmt.Errorf("scenario %q has no path", sc.Name)
		}
		if seen[sc.Name] {
			return fmt.Errorf("duplicate scenario name %q", sc.Name)
		}
		seen[sc.Name] = true
	}
	return nil
}
