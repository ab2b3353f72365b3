package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnclabs/kgsample/internal/config"
)

const family = `alice	parent_of	bob
bob	child_of	alice
bob	parent_of	carol
carol	child_of	bob
alice	knows	carol
carol	knows	alice
dave	knows	erin
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	train := filepath.Join(dir, "train.txt")
	require.NoError(t, os.WriteFile(train, []byte(family), 0o644))

	cfg := config.Default()
	cfg.Data.Train = train
	cfg.Output = filepath.Join(dir, "negatives.tsv")
	cfg.Sampler.Seed = 1
	cfg.Sampler.NumBatches = 0
	return cfg
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		rows = append(rows, strings.Split(line, "\t"))
	}
	return rows
}

func TestRun_OnePass(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sampler.Name = "basic"
	cfg.Sampler.NumNegsPerPos = 3
	cfg.Sampler.BatchSize = 4
	cfg.Sampler.NumBatches = 0

	report, err := run(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 7, report.Positives)
	assert.Equal(t, 21, report.Negatives)
	assert.Zero(t, report.Filtered)

	rows := readRows(t, cfg.Output)
	require.Len(t, rows, 21)
	for _, row := range rows {
		require.Len(t, row, 6)
		assert.Contains(t, []string{"0", "1"}, row[0])
		assert.Contains(t, []string{"head", "tail"}, row[4])
		assert.Equal(t, "false", row[5])
	}
}

func TestRun_FilterAnalysisAndGraphSample(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sampler.Name = "BernoulliNegativeSampler"
	cfg.Sampler.NumNegsPerPos = 20
	cfg.Sampler.Filter = config.FilterExact
	cfg.Sampler.NumBatches = 2
	cfg.Sampler.BatchSize = 5
	cfg.Analysis = true
	cfg.Graph.NumSamples = 3
	cfg.Graph.Seed = 2
	cfg.Graph.Output = filepath.Join(filepath.Dir(cfg.Output), "graph.tsv")

	var out bytes.Buffer
	report, err := run(context.Background(), cfg, &out)
	require.NoError(t, err)

	assert.Equal(t, 10, report.Positives)
	assert.Equal(t, 200, report.Negatives)
	assert.Equal(t, 3, report.GraphSample)
	assert.GreaterOrEqual(t, report.GraphEntities, 2)

	known := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(family), "\n") {
		known[line] = true
	}
	filtered := 0
	for _, row := range readRows(t, cfg.Output) {
		triple := strings.Join(row[1:4], "\t")
		assert.Equal(t, known[triple], row[5] == "true", triple)
		if row[5] == "true" {
			filtered++
		}
	}
	assert.Equal(t, report.Filtered, filtered)

	assert.Len(t, readRows(t, cfg.Graph.Output), 3)

	assert.Contains(t, out.String(), "Relation cardinality types:")
	assert.Contains(t, out.String(), "symmetry")
	assert.Contains(t, out.String(), "Triple set hash:")
}

func TestRun_MetricsServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Addr = "127.0.0.1:0"

	report, err := run(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 7, report.Negatives)
}

func TestRun_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sampler.Name = "typed"
	_, err := run(context.Background(), cfg, &bytes.Buffer{})
	assert.Error(t, err)

	cfg = testConfig(t)
	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	cfg.Data.Train = empty
	_, err = run(context.Background(), cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, errNoTriples)

	cfg = testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = run(ctx, cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
