package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cnclabs/kgsample/internal/config"
	"github.com/cnclabs/kgsample/pkg/logger"
	"github.com/cnclabs/kgsample/pkg/logger/console"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", "", "YAML configuration file")
	train := flag.String("train", "", "Knowledge graph triples (head<TAB>relation<TAB>tail)")
	output := flag.String("output", "", "Write negative triples to this TSV file")
	samplerName := flag.String("sampler", "", "Negative sampler: basic, bernoulli or degree")
	numNegs := flag.Int("num_negs_per_pos", 0, "Negatives drawn per positive triple")
	seed := flag.Uint64("seed", 0, "Random seed of the negative sampler")
	filter := flag.String("filter", "", "Flag known true negatives: none, exact or bloom")
	batchSize := flag.Int("batch_size", 0, "Positives per batch")
	numBatches := flag.Int("num_batches", -1, "Number of batches to draw (0 = one pass over the triples)")
	graphSamples := flag.Int64("graph_samples", -1, "Triples per connected subgraph sample (0 = disabled)")
	graphOutput := flag.String("graph_output", "", "Write the subgraph sample to this TSV file")
	analysis := flag.Bool("analysis", false, "Print relation cardinality and pattern statistics")
	metricsAddr := flag.String("metrics_addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Println("[kgsample]")
		fmt.Println("\tNegative and subgraph sampling for knowledge graph embeddings")
		fmt.Println()
		fmt.Println("Negative sampling schemes:")
		fmt.Println("\t✓ basic: corrupt head or tail with equal probability")
		fmt.Println("\t✓ bernoulli: corrupt the head with probability tph/(tph+hpt) per relation")
		fmt.Println("\t✓ degree: draw replacements proportional to degree^0.75")
		fmt.Println()
		fmt.Println("How it works:")
		fmt.Println("\t1. Triples are loaded and mapped to dense ids")
		fmt.Println("\t2. A compressed adjacency list is built over the entities")
		fmt.Println("\t3. Every positive is copied num_negs_per_pos times and one side is replaced")
		fmt.Println("\t4. Optionally, negatives that are known true triples are flagged")
		fmt.Println("\t5. Optionally, a connected subgraph of triples is sampled")
		fmt.Println()
		fmt.Println("Input format (triples):")
		fmt.Println("\thead relation tail")
		fmt.Println("\tExample: Barack_Obama born_in Hawaii")
		fmt.Println()
		fmt.Println("Output format (negatives):")
		fmt.Println("\tbatch head relation tail side filtered")
		fmt.Println()
		fmt.Println("Options Description:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("./kgsample -train kg.txt -output negatives.tsv -sampler bernoulli \\")
		fmt.Println("           -num_negs_per_pos 10 -batch_size 1024 -filter exact")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("\t# One Bernoulli negative per triple")
		fmt.Println("\t./kgsample -train kg.txt -output neg.tsv")
		fmt.Println()
		fmt.Println("\t# Degree-weighted negatives with a bloom filter and metrics")
		fmt.Println("\t./kgsample -train kg.txt -output neg.tsv -sampler degree -filter bloom \\")
		fmt.Println("\t           -metrics_addr :9090")
		fmt.Println()
		fmt.Println("\t# Relation statistics and a 5000-triple connected sample")
		fmt.Println("\t./kgsample -train kg.txt -analysis -graph_samples 5000 -graph_output sub.tsv")
		fmt.Println()
		fmt.Println("\t# Everything from a config file, KGSAMPLE_* variables override it")
		fmt.Println("\t./kgsample -config kgsample.yaml")
	}

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Explicit flags win over the config file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "train":
			cfg.Data.Train = *train
		case "output":
			cfg.Output = *output
		case "sampler":
			cfg.Sampler.Name = *samplerName
		case "num_negs_per_pos":
			cfg.Sampler.NumNegsPerPos = *numNegs
		case "seed":
			cfg.Sampler.Seed = *seed
		case "filter":
			cfg.Sampler.Filter = *filter
		case "batch_size":
			cfg.Sampler.BatchSize = *batchSize
		case "num_batches":
			cfg.Sampler.NumBatches = *numBatches
		case "graph_samples":
			cfg.Graph.NumSamples = *graphSamples
		case "graph_output":
			cfg.Graph.Output = *graphOutput
		case "analysis":
			cfg.Analysis = *analysis
		case "metrics_addr":
			cfg.Metrics.Addr = *metricsAddr
		case "debug":
			cfg.Debug = *debug
		}
	})

	// Check required parameters
	if cfg.Data.Train == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Prefix: "kgsample",
	}))

	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  kgsample - Knowledge Graph Negative Sampling")
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	report, err := run(ctx, cfg, os.Stdout)
	if err != nil {
		logger.Error("Sampling failed", "err", err)
		stop()
		os.Exit(1)
	}
	totalTime := time.Since(startTime)

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  Timing Summary")
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Printf("Loading time:     %.2f seconds\n", report.LoadTime.Seconds())
	fmt.Printf("Sampling time:    %.2f seconds\n", report.SampleTime.Seconds())
	fmt.Printf("Total time:       %.2f seconds\n", totalTime.Seconds())
	fmt.Println()
	fmt.Printf("✓ %d negatives from %d positives written to %s\n", report.Negatives, report.Positives, cfg.Output)
	if report.Filtered > 0 {
		fmt.Printf("✓ %d negatives flagged as known triples\n", report.Filtered)
	}
	if report.GraphSample > 0 {
		fmt.Printf("✓ connected sample of %d triples over %d entities\n", report.GraphSample, report.GraphEntities)
	}
}
