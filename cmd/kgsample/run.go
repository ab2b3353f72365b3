package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cnclabs/kgsample/internal/config"
	"github.com/cnclabs/kgsample/pkg/adjacency"
	"github.com/cnclabs/kgsample/pkg/analysis"
	"github.com/cnclabs/kgsample/pkg/knowledge"
	"github.com/cnclabs/kgsample/pkg/logger"
	"github.com/cnclabs/kgsample/pkg/metrics"
	"github.com/cnclabs/kgsample/pkg/sampling"
	"github.com/cnclabs/kgsample/pkg/subgraph"
)

var errNoTriples = errors.New("no triples loaded")

// Report summarizes one run.
type Report struct {
	LoadTime   time.Duration
	SampleTime time.Duration

	Positives int
	Negatives int
	Filtered  int

	GraphSample   int
	GraphEntities int
}

// run samples according to cfg while serving metrics, if configured, until
// sampling finishes or ctx is cancelled.
func run(ctx context.Context, cfg config.Config, stdout io.Writer) (Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Addr != "" {
		srv := newMetricsServer(reg)
		g.Go(func() error {
			return srv.serve(cfg.Metrics.Addr)
		})
		g.Go(func() error {
			<-gctx.Done()
			return srv.shutdown()
		})
	}

	var report Report
	g.Go(func() error {
		defer cancel()
		var err error
		report, err = generate(gctx, cfg, collector, stdout)
		return err
	})

	err := g.Wait()
	return report, err
}

func generate(ctx context.Context, cfg config.Config, collector *metrics.Collector, stdout io.Writer) (Report, error) {
	var report Report
	startTime := time.Now()

	kg := knowledge.NewKnowledgeGraph()
	err := kg.LoadTriples(cfg.Data.Train,
		knowledge.WithDelimiter(cfg.Data.Delimiter),
		knowledge.WithColumnRemapping(cfg.Data.Columns...),
	)
	if err != nil {
		return report, err
	}
	if kg.NumTriples == 0 {
		return report, fmt.Errorf("%w from %s", errNoTriples, cfg.Data.Train)
	}

	adj, err := adjacency.Compress(kg.Triples, kg.NumEntities)
	if err != nil {
		return report, err
	}
	logDegrees(adj)
	report.LoadTime = time.Since(startTime)

	if cfg.Analysis {
		writeAnalysis(stdout, kg)
	}

	sampleStart := time.Now()
	s, err := buildSampler(cfg, kg, collector)
	if err != nil {
		return report, err
	}
	if err := writeNegatives(ctx, cfg, kg, s, &report); err != nil {
		return report, err
	}

	if cfg.Graph.NumSamples > 0 {
		if err := writeGraphSample(cfg, kg, adj, collector, &report); err != nil {
			return report, err
		}
	}
	report.SampleTime = time.Since(sampleStart)

	return report, nil
}

func logDegrees(adj *adjacency.Compressed) {
	degrees := make([]float64, len(adj.Degrees))
	isolated := 0
	for i, d := range adj.Degrees {
		degrees[i] = float64(d)
		if d == 0 {
			isolated++
		}
	}
	logger.Info("Adjacency built",
		"entities", adj.NumEntities(),
		"edges", adj.NumEdges(),
		"mean_degree", fmt.Sprintf("%.2f", stat.Mean(degrees, nil)),
		"max_degree", floats.Max(degrees),
		"isolated", isolated,
	)
}

func buildSampler(cfg config.Config, kg *knowledge.KnowledgeGraph, collector *metrics.Collector) (sampling.NegativeSampler, error) {
	opts := []sampling.Option{
		sampling.WithNumNegsPerPos(cfg.Sampler.NumNegsPerPos),
		sampling.WithPower(cfg.Sampler.Power),
		sampling.WithMaxRedraws(cfg.Sampler.MaxRedraws),
		sampling.WithMetrics(collector),
	}
	if cfg.Sampler.Seed != 0 {
		opts = append(opts, sampling.WithSeed(cfg.Sampler.Seed))
	}

	switch cfg.Sampler.Filter {
	case config.FilterExact:
		f := sampling.NewExactFilterer(kg.Triples)
		logger.Info("Exact filter built", "triples", f.Len())
		opts = append(opts, sampling.WithFilterer(f))
	case config.FilterBloom:
		f, err := sampling.NewBloomFilterer(kg.Triples, cfg.Sampler.BloomErrorRate)
		if err != nil {
			return nil, err
		}
		logger.Info("Bloom filter built", "triples", kg.NumTriples, "error_rate", f.ErrorRate())
		opts = append(opts, sampling.WithFilterer(f))
	}

	registry := sampling.NewRegistry()
	if err := registry.RegisterDefaults(); err != nil {
		return nil, err
	}
	return registry.BuildByName(cfg.Sampler.Name, kg, opts...)
}

// writeNegatives draws the configured batches and writes one row per
// negative: batch, head, relation, tail, corrupted side and filter flag.
func writeNegatives(ctx context.Context, cfg config.Config, kg *knowledge.KnowledgeGraph, s sampling.NegativeSampler, report *Report) error {
	file, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.Output, err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)

	n := len(kg.Triples)
	size := cfg.Sampler.BatchSize
	numBatches := cfg.Sampler.NumBatches
	onePass := numBatches == 0
	if onePass {
		numBatches = (n + size - 1) / size
	}

	k := s.NumNegsPerPos()
	positive := make([]knowledge.Triple, 0, size)
	for b := 0; b < numBatches; b++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		positive = positive[:0]
		for i := 0; i < size; i++ {
			idx := b*size + i
			if onePass && idx >= n {
				break
			}
			positive = append(positive, kg.Triples[idx%n])
		}

		negative, mask := s.Sample(positive)
		for i, neg := range negative {
			side := sampling.SideTail
			if neg.Head != positive[i/k].Head {
				side = sampling.SideHead
			}
			filtered := mask != nil && mask[i]
			if filtered {
				report.Filtered++
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n",
				b,
				kg.GetEntityName(neg.Head),
				kg.GetRelationName(neg.Relation),
				kg.GetEntityName(neg.Tail),
				side,
				filtered,
			)
		}
		report.Positives += len(positive)
		report.Negatives += len(negative)

		logger.Debug("Batch sampled", "batch", b, "positives", len(positive), "negatives", len(negative))
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.Output, err)
	}
	logger.Info("Negatives written", "file", cfg.Output, "negatives", report.Negatives, "filtered", report.Filtered)
	return nil
}

// writeGraphSample draws one connected sample and, if configured, writes
// one row per triple: index, head, relation and tail.
func writeGraphSample(cfg config.Config, kg *knowledge.KnowledgeGraph, adj *adjacency.Compressed, collector *metrics.Collector, report *Report) error {
	opts := []subgraph.Option{subgraph.WithMetrics(collector)}
	if cfg.Graph.Seed != 0 {
		opts = append(opts, subgraph.WithSeed(cfg.Graph.Seed))
	}
	gs, err := subgraph.NewGraphSampler(adj, cfg.Graph.NumSamples, opts...)
	if err != nil {
		return err
	}

	edges := gs.Batch()
	entities := make(map[int64]struct{})
	for _, e := range edges {
		t := kg.GetTriple(e)
		entities[t.Head] = struct{}{}
		entities[t.Tail] = struct{}{}
	}
	report.GraphSample = len(edges)
	report.GraphEntities = len(entities)
	logger.Info("Subgraph sampled", "triples", len(edges), "entities", len(entities))

	if cfg.Graph.Output == "" {
		return nil
	}
	file, err := os.Create(cfg.Graph.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.Graph.Output, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, e := range edges {
		t := kg.GetTriple(e)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e,
			kg.GetEntityName(t.Head), kg.GetRelationName(t.Relation), kg.GetEntityName(t.Tail))
	}
	return w.Flush()
}

func writeAnalysis(out io.Writer, kg *knowledge.KnowledgeGraph) {
	fmt.Fprintln(out, "Relation cardinality types:")
	for _, m := range analysis.RelationCardinalityTypes(kg.Triples) {
		fmt.Fprintf(out, "\t%-24s %-14s support=%-8d confidence=%.3f\n",
			kg.GetRelationName(m.RelationID), m.Pattern, m.Support, m.Confidence)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Relation patterns:")
	for _, m := range analysis.RelationPatternTypes(kg.Triples) {
		fmt.Fprintf(out, "\t%-24s %-14s support=%-8d confidence=%.3f\n",
			kg.GetRelationName(m.RelationID), m.Pattern, m.Support, m.Confidence)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Relation counts:")
	for _, c := range analysis.RelationCounts(kg.Triples) {
		fmt.Fprintf(out, "\t%-24s %d\n", kg.GetRelationName(c.RelationID), c.Count)
	}
	fmt.Fprintln(out)

	unique := analysis.UniqueTriples(kg.Triples)
	fmt.Fprintf(out, "Unique triples:   %d of %d\n", len(unique), kg.NumTriples)
	fmt.Fprintf(out, "Triple set hash:  %s\n", analysis.TripleSetHash(kg.Triples))
	fmt.Fprintln(out)
}
