package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/kgsample/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kgsample.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "bernoulli", cfg.Sampler.Name)
	assert.Equal(t, config.FilterNone, cfg.Sampler.Filter)
}

func TestLoad_NoPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default().Sampler, cfg.Sampler)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	t.Setenv("KG_DATA_DIR", "/data/fb15k")
	path := writeConfig(t, `
data:
  train: ${KG_DATA_DIR}/train.txt
  delimiter: ","
  columns: [2, 1, 0]
sampler:
  name: degree
  num_negs_per_pos: 8
  seed: 42
  filter: bloom
  bloom_error_rate: 0.001
graph:
  num_samples: 500
metrics:
  addr: ":9090"
analysis: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/fb15k/train.txt", cfg.Data.Train)
	assert.Equal(t, ",", cfg.Data.Delimiter)
	assert.Equal(t, []int{2, 1, 0}, cfg.Data.Columns)
	assert.Equal(t, "degree", cfg.Sampler.Name)
	assert.Equal(t, 8, cfg.Sampler.NumNegsPerPos)
	assert.EqualValues(t, 42, cfg.Sampler.Seed)
	assert.Equal(t, config.FilterBloom, cfg.Sampler.Filter)
	assert.EqualValues(t, 500, cfg.Graph.NumSamples)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.True(t, cfg.Analysis)

	// untouched keys keep their defaults
	assert.Equal(t, 1024, cfg.Sampler.BatchSize)
	assert.Equal(t, 0.75, cfg.Sampler.Power)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Output, cfg.Output)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := config.Load(writeConfig(t, "sampler:\n  nmae: basic\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmae")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KGSAMPLE_SAMPLER", "basic")
	t.Setenv("KGSAMPLE_NUM_NEGS_PER_POS", "16")
	t.Setenv("KGSAMPLE_SEED", "7")
	t.Setenv("KGSAMPLE_DEBUG", "true")
	t.Setenv("KGSAMPLE_OUTPUT", "out.tsv")

	cfg, err := config.Load(writeConfig(t, "sampler:\n  name: degree\n  num_negs_per_pos: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, "basic", cfg.Sampler.Name)
	assert.Equal(t, 16, cfg.Sampler.NumNegsPerPos)
	assert.EqualValues(t, 7, cfg.Sampler.Seed)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "out.tsv", cfg.Output)
}

func TestLoad_BadEnvValuesFallBack(t *testing.T) {
	t.Setenv("KGSAMPLE_NUM_NEGS_PER_POS", "many")
	t.Setenv("KGSAMPLE_DEBUG", "yes")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Sampler.NumNegsPerPos)
	assert.False(t, cfg.Debug)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KGSAMPLE_FILTER=exact\n"), 0o644))
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("KGSAMPLE_FILTER") })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.FilterExact, cfg.Sampler.Filter)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Sampler.NumNegsPerPos = 0
	cfg.Sampler.Filter = "fuzzy"
	cfg.Data.Columns = []int{0, 1}
	cfg.Graph.NumSamples = -1

	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	for _, field := range []string{"num_negs_per_pos", "sampler.filter", "data.columns", "graph.num_samples"} {
		assert.Contains(t, err.Error(), field)
	}

	cfg = config.Default()
	cfg.Sampler.Filter = config.FilterBloom
	cfg.Sampler.BloomErrorRate = 1
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)

	_, err = config.Load(writeConfig(t, "sampler:\n  batch_size: 0\n"))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
