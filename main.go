// Package main provides the entry point for BPSim.
// BPSim is a perceptron branch predictor model with a trace-driven fetch
// stage, built on Akita.
//
// For the full CLI, use: go run ./cmd/bpsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("BPSim - Perceptron Branch Predictor Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: bpsim [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to predictor configuration JSON file")
	fmt.Println("  -trace     Path to a branch trace (default: built-in workloads)")
	fmt.Println("  -depth     Branches in flight per thread")
	fmt.Println("  -v         Log every predictor event")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/bpsim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/bpbench' for the history length sweep.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/bpsim' instead.")
	}
}
