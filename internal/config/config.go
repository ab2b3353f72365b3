// Package config loads the kgsample run configuration from YAML, a .env
// file and KGSAMPLE_* environment variables, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cnclabs/kgsample/pkg/logger"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Filter modes.
const (
	FilterNone  = "none"
	FilterExact = "exact"
	FilterBloom = "bloom"
)

// Config is the full run configuration.
type Config struct {
	Data     DataConfig    `yaml:"data"`
	Sampler  SamplerConfig `yaml:"sampler"`
	Graph    GraphConfig   `yaml:"graph"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Output   string        `yaml:"output"`
	Analysis bool          `yaml:"analysis"`
	Debug    bool          `yaml:"debug"`
}

// DataConfig locates and parses the triple file.
type DataConfig struct {
	Train     string `yaml:"train"`
	Delimiter string `yaml:"delimiter"`
	// Columns maps file columns to head, relation and tail.
	Columns []int `yaml:"columns"`
}

// SamplerConfig selects and tunes the negative sampler.
type SamplerConfig struct {
	Name           string  `yaml:"name"`
	NumNegsPerPos  int     `yaml:"num_negs_per_pos"`
	Seed           uint64  `yaml:"seed"`
	Power          float64 `yaml:"power"`
	MaxRedraws     int     `yaml:"max_redraws"`
	Filter         string  `yaml:"filter"`
	BloomErrorRate float64 `yaml:"bloom_error_rate"`
	BatchSize      int     `yaml:"batch_size"`
	NumBatches     int     `yaml:"num_batches"`
}

// GraphConfig tunes the connected subgraph sampler. NumSamples 0 disables it.
type GraphConfig struct {
	NumSamples int64  `yaml:"num_samples"`
	Seed       uint64 `yaml:"seed"`
	// Output receives the sampled triples; empty only logs a summary.
	Output string `yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration that draws one Bernoulli negative per
// positive without filtering.
func Default() Config {
	return Config{
		Data: DataConfig{
			Delimiter: "\t",
			Columns:   []int{0, 1, 2},
		},
		Sampler: SamplerConfig{
			Name:           "bernoulli",
			NumNegsPerPos:  1,
			Power:          0.75,
			MaxRedraws:     10,
			Filter:         FilterNone,
			BloomErrorRate: 0.01,
			BatchSize:      1024,
			NumBatches:     1,
		},
		Output: "negatives.tsv",
	}
}

// Load reads path on top of Default, then applies the .env file and
// environment overrides and validates the result. An empty path skips the
// YAML step.
func Load(path string) (Config, error) {
	cfg := Default()

	LoadEnv()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decode(raw, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	logger.Debug("Configuration loaded", "path", path, "sampler", cfg.Sampler.Name, "filter", cfg.Sampler.Filter)
	return cfg, nil
}

// decode expands ${VAR} references and decodes strictly, so unknown keys
// are reported instead of silently ignored.
func decode(raw []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(raw))

	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("YAML syntax error in config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Data.Train = GetEnvString("KGSAMPLE_TRAIN", cfg.Data.Train)
	cfg.Sampler.Name = GetEnvString("KGSAMPLE_SAMPLER", cfg.Sampler.Name)
	cfg.Sampler.NumNegsPerPos = GetEnvInt("KGSAMPLE_NUM_NEGS_PER_POS", cfg.Sampler.NumNegsPerPos)
	cfg.Sampler.Seed = uint64(GetEnvInt("KGSAMPLE_SEED", int(cfg.Sampler.Seed)))
	cfg.Sampler.Filter = GetEnvString("KGSAMPLE_FILTER", cfg.Sampler.Filter)
	cfg.Metrics.Addr = GetEnvString("KGSAMPLE_METRICS_ADDR", cfg.Metrics.Addr)
	cfg.Output = GetEnvString("KGSAMPLE_OUTPUT", cfg.Output)
	cfg.Debug = GetEnvBool("KGSAMPLE_DEBUG", cfg.Debug)
}

// Validate reports every invalid field, joined into one error wrapping
// ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Data.Delimiter != "", "data.delimiter is empty")
	check(len(c.Data.Columns) == 3, "data.columns needs 3 entries, got %d", len(c.Data.Columns))
	check(c.Sampler.NumNegsPerPos >= 1, "sampler.num_negs_per_pos must be at least 1, got %d", c.Sampler.NumNegsPerPos)
	check(c.Sampler.Power >= 0, "sampler.power cannot be negative")
	check(c.Sampler.MaxRedraws >= 0, "sampler.max_redraws cannot be negative")
	check(slices.Contains([]string{FilterNone, FilterExact, FilterBloom}, c.Sampler.Filter),
		"sampler.filter must be one of none, exact, bloom, got %q", c.Sampler.Filter)
	if c.Sampler.Filter == FilterBloom {
		check(c.Sampler.BloomErrorRate > 0 && c.Sampler.BloomErrorRate < 1,
			"sampler.bloom_error_rate must be in (0, 1), got %v", c.Sampler.BloomErrorRate)
	}
	check(c.Sampler.BatchSize >= 1, "sampler.batch_size must be at least 1")
	check(c.Sampler.NumBatches >= 0, "sampler.num_batches cannot be negative")
	check(c.Graph.NumSamples >= 0, "graph.num_samples cannot be negative")

	return errors.Join(errs...)
}
