// Command bpsim runs branch workloads or a branch trace through the
// perceptron predictor and reports prediction accuracy.
//
// Usage:
//
//	go run ./cmd/bpsim [flags]
//
// Without -trace, the built-in synthetic workloads are run. A trace file
// holds one branch per line:
//
//	<tid> <pc> <inst> <taken> <target>
//
// Example:
//
//	# Run every built-in workload with a 16-bit history
//	echo '{"perceptron_history_length": 16}' > pred.json
//	go run ./cmd/bpsim -config pred.json
//
//	# Replay a two-thread trace and plot the misprediction rate
//	go run ./cmd/bpsim -trace branches.txt -threads 2 -plot rate.png
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/bpsim/benchmarks"
	"github.com/sarchlab/bpsim/timing/bpred"
	"github.com/sarchlab/bpsim/trace"
)

var (
	configPath = flag.String("config", "", "Path to predictor configuration JSON file")
	tracePath  = flag.String("trace", "", "Path to a branch trace (default: built-in workloads)")
	workload   = flag.String("workload", "", "Run only the named built-in workload")
	depth      = flag.Int("depth", 8, "Branches in flight per thread before the oldest resolves")
	threads    = flag.Int("threads", 1, "Hardware threads in the trace")
	noTrain    = flag.Bool("no-train-on-mispredict", false, "Recover mispredictions with the squashed update, without training")
	btbSets    = flag.Int("btb-sets", 64, "BTB sets")
	btbWays    = flag.Int("btb-ways", 4, "BTB associativity")
	windowSize = flag.Int("window", 1000, "Committed branches per statistics window")
	csvOutput  = flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput = flag.Bool("json", false, "Output results in JSON format")
	plotPath   = flag.String("plot", "", "Write a PNG of the windowed misprediction rate")
	dumpConfig = flag.Bool("dump-config", false, "Print the effective predictor configuration and exit")
	verbose    = flag.Bool("v", false, "Log every predictor event")
)

func main() {
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	config, err := harnessConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *dumpConfig {
		data, err := json.MarshalIndent(config.Predictor, "", "  ")
		if err != nil {
			log.Fatalf("Failed to serialize config: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	harness := benchmarks.NewHarness(config)

	var results []benchmarks.Result
	if *tracePath != "" {
		results, err = runTrace(ctx, harness)
	} else {
		results, err = runWorkloads(ctx, harness)
	}
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			log.Fatalf("Failed to write JSON: %v", err)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	if *plotPath != "" {
		if err := plotWindows(results, *windowSize, *plotPath); err != nil {
			log.Fatalf("Failed to plot: %v", err)
		}
		log.WithField("path", *plotPath).Info("Plot written")
	}
}

func harnessConfig() (benchmarks.HarnessConfig, error) {
	config := benchmarks.DefaultConfig()
	config.Verbose = *verbose

	if *configPath != "" {
		pred, err := bpred.LoadConfig(*configPath)
		if err != nil {
			return config, err
		}
		config.Predictor = pred
	}
	if *threads > config.Predictor.NumThreads {
		config.Predictor.NumThreads = *threads
	}
	if err := config.Predictor.Validate(); err != nil {
		return config, err
	}

	config.BTB.NumSets = *btbSets
	config.BTB.Associativity = *btbWays
	if err := config.BTB.Validate(); err != nil {
		return config, err
	}

	config.Frontend.Depth = *depth
	config.Frontend.TrainOnMispredict = !*noTrain
	config.Frontend.WindowSize = *windowSize
	if err := config.Frontend.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

func runTrace(ctx context.Context, harness *benchmarks.Harness) ([]benchmarks.Result, error) {
	f, err := os.Open(*tracePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	log.WithFields(log.Fields{
		"trace":   *tracePath,
		"threads": *threads,
	}).Info("Replaying trace")

	result, err := harness.RunSource(ctx, *tracePath, "branch trace", *threads, trace.NewReader(f))
	if err != nil {
		return nil, err
	}
	return []benchmarks.Result{result}, nil
}

func runWorkloads(ctx context.Context, harness *benchmarks.Harness) ([]benchmarks.Result, error) {
	if *workload != "" {
		w, ok := benchmarks.GetWorkload(*workload)
		if !ok {
			return nil, fmt.Errorf("unknown workload %q", *workload)
		}
		harness.AddWorkload(w)
	} else {
		harness.AddWorkloads(benchmarks.GetWorkloads())
	}

	return harness.RunAll(ctx)
}
