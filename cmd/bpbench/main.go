// Command bpbench sweeps the perceptron history length over the built-in
// workloads.
//
// Usage:
//
//	go run ./cmd/bpbench [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-histories  Comma-separated history lengths (default: 8,16,32,64)
//	-length     Branches per workload
//
// Example:
//
//	# Compare history lengths on every workload
//	go run ./cmd/bpbench
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/bpbench -csv > sweep.csv
//
// The training threshold follows each history length as floor(1.93*H+14).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/bpsim/benchmarks"
	"github.com/sarchlab/bpsim/timing/bpred"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	histories := flag.String("histories", "8,16,32,64", "Comma-separated history lengths")
	length := flag.Int("length", benchmarks.DefaultLength, "Branches per workload")
	flag.Parse()

	lengths, err := parseHistories(*histories)
	if err != nil {
		log.Fatalf("Invalid -histories: %v", err)
	}

	workloads := []benchmarks.Workload{
		benchmarks.Loop(8, *length),
		benchmarks.Alternating(*length),
		benchmarks.Correlated(*length, 1),
		benchmarks.NestedLoops(4, 6, *length),
		benchmarks.BiasedRandom(0.9, *length, 1),
		benchmarks.CallReturn(*length),
		benchmarks.SMTMix(*length),
	}

	ctx := context.Background()
	sweep := make(map[int][]benchmarks.Result, len(lengths))

	for _, h := range lengths {
		config := benchmarks.DefaultConfig()
		config.Output = io.Discard
		config.Predictor.HistoryLength = h
		config.Predictor.TrainingThreshold = bpred.DefaultTrainingThreshold(h)

		harness := benchmarks.NewHarness(config)
		harness.AddWorkloads(workloads)

		results, err := harness.RunAll(ctx)
		if err != nil {
			log.Fatalf("History %d: %v", h, err)
		}
		sweep[h] = results
	}

	if *csvOutput {
		printCSV(os.Stdout, lengths, sweep)
		return
	}

	fmt.Println("Perceptron History Sweep")
	fmt.Println("========================")
	fmt.Println("")
	printTable(os.Stdout, lengths, sweep)
}

func parseHistories(s string) ([]int, error) {
	var lengths []int
	for _, field := range strings.Split(s, ",") {
		h, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		if h < 1 || h > bpred.MaxHistoryLength {
			return nil, fmt.Errorf("history length %d out of range 1..%d",
				h, bpred.MaxHistoryLength)
		}
		lengths = append(lengths, h)
	}
	return lengths, nil
}

func printTable(w io.Writer, lengths []int, sweep map[int][]benchmarks.Result) {
	_, _ = fmt.Fprintf(w, "%-16s", "workload")
	for _, h := range lengths {
		_, _ = fmt.Fprintf(w, "  H=%-6d", h)
	}
	_, _ = fmt.Fprintln(w)

	for i, r := range sweep[lengths[0]] {
		_, _ = fmt.Fprintf(w, "%-16s", r.Name)
		for _, h := range lengths {
			_, _ = fmt.Fprintf(w, "  %7.2f%%", sweep[h][i].AccuracyPercent)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printCSV(w io.Writer, lengths []int, sweep map[int][]benchmarks.Result) {
	_, _ = fmt.Fprintln(w, "history,threshold,name,accuracy,mispredictions,trainings")
	for _, h := range lengths {
		for _, r := range sweep[h] {
			_, _ = fmt.Fprintf(w, "%d,%d,%s,%.3f,%d,%d\n",
				h, bpred.DefaultTrainingThreshold(h), r.Name,
				r.AccuracyPercent, r.Mispredictions, r.Trainings)
		}
	}
}
