// Package benchmarks runs branch workloads through the perceptron
// predictor and reports prediction quality.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/bpsim/timing/bpred"
	"github.com/sarchlab/bpsim/timing/btb"
	"github.com/sarchlab/bpsim/timing/frontend"
	"github.com/sarchlab/bpsim/trace"
)

// Version is reported in JSON output.
const Version = "0.3.0"

// Result holds the outcome of a single workload run.
type Result struct {
	// Name identifies the workload
	Name string `json:"name"`

	// Description explains what the workload exercises
	Description string `json:"description"`

	// Threads is the number of hardware threads used
	Threads int `json:"threads"`

	// Branches is the number of committed branches
	Branches      uint64 `json:"branches"`
	Conditional   uint64 `json:"conditional"`
	Unconditional uint64 `json:"unconditional"`

	// Frontend outcome
	Correct           uint64  `json:"correct"`
	Mispredictions    uint64  `json:"mispredictions"`
	AccuracyPercent   float64 `json:"accuracy_percent"`
	MispredictPercent float64 `json:"mispredict_percent"`
	Squashed          uint64  `json:"squashed"`

	// Predictor activity
	Trainings       uint64  `json:"trainings"`
	TrainingRate    float64 `json:"training_rate_percent"`
	PredictorMisses uint64  `json:"predictor_mispredictions"`

	// BTB
	BTBMisses  uint64  `json:"btb_misses"`
	BTBHitRate float64 `json:"btb_hit_rate_percent"`

	// Windowed misprediction rate
	WindowMean   float64   `json:"window_mean_percent"`
	WindowStdDev float64   `json:"window_stddev_percent"`
	Windows      []float64 `json:"windows,omitempty"`

	// WallTime is the actual time taken to run the workload
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the harness.
type HarnessConfig struct {
	// Predictor configures the perceptron. NumThreads is raised to the
	// thread count of each workload when smaller.
	Predictor bpred.Config

	// BTB configures the branch target buffer
	BTB btb.Config

	// Frontend configures the fetch model
	Frontend frontend.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives predictor event traces when Verbose is set
	// (default: the logrus standard logger).
	Logger *log.Logger

	// Verbose attaches a LogHook to every predictor
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Predictor: bpred.DefaultConfig(),
		BTB:       btb.DefaultConfig(),
		Frontend:  frontend.DefaultConfig(),
		Output:    os.Stdout,
	}
}

// Harness runs workloads and reports results.
type Harness struct {
	config    HarnessConfig
	workloads []Workload
}

// NewHarness creates a new harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = log.StandardLogger()
	}
	return &Harness{config: config}
}

// AddWorkload adds a workload to the harness.
func (h *Harness) AddWorkload(w Workload) {
	h.workloads = append(h.workloads, w)
}

// AddWorkloads adds multiple workloads to the harness.
func (h *Harness) AddWorkloads(workloads []Workload) {
	h.workloads = append(h.workloads, workloads...)
}

// RunAll runs every workload, each on a fresh predictor, BTB and frontend.
func (h *Harness) RunAll(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(h.workloads))

	for _, w := range h.workloads {
		result, err := h.Run(ctx, w)
		if err != nil {
			return results, fmt.Errorf("workload %s: %w", w.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Run runs a single workload.
func (h *Harness) Run(ctx context.Context, w Workload) (Result, error) {
	threads := w.Threads
	if threads < 1 {
		threads = 1
	}
	return h.RunSource(ctx, w.Name, w.Description, threads, w.Source())
}

// RunSource runs records from src on a fresh predictor, BTB and frontend
// with the given number of threads.
func (h *Harness) RunSource(
	ctx context.Context,
	name, description string,
	threads int,
	src trace.Source,
) (Result, error) {
	predConfig := h.config.Predictor
	if predConfig.NumThreads < threads {
		predConfig.NumThreads = threads
	}

	pred, err := bpred.NewPerceptron(predConfig)
	if err != nil {
		return Result{}, err
	}

	stats := bpred.NewStatsHook()
	pred.AcceptHook(stats)
	if h.config.Verbose {
		pred.AcceptHook(bpred.NewLogHook(h.config.Logger))
	}

	b, err := btb.New(h.config.BTB)
	if err != nil {
		return Result{}, err
	}

	fe, err := frontend.New(h.config.Frontend, pred, b, predConfig.NumThreads)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	if err := fe.Run(ctx, src); err != nil {
		return Result{}, err
	}
	wallTime := time.Since(start)

	if n := pred.InFlight(); n != 0 {
		return Result{}, fmt.Errorf("%d history records leaked", n)
	}

	feStats := fe.Stats()
	predStats := stats.Stats()
	summary := feStats.Summary()

	return Result{
		Name:              name,
		Description:       description,
		Threads:           predConfig.NumThreads,
		Branches:          feStats.Committed,
		Conditional:       feStats.Conditional,
		Unconditional:     feStats.Unconditional,
		Correct:           feStats.Correct,
		Mispredictions:    feStats.Mispredictions,
		AccuracyPercent:   feStats.Accuracy(),
		MispredictPercent: feStats.MispredictionRate(),
		Squashed:          feStats.Squashed,
		Trainings:         predStats.Trainings,
		TrainingRate:      predStats.TrainingRate(),
		PredictorMisses:   predStats.Mispredictions,
		BTBMisses:         feStats.BTBMisses,
		BTBHitRate:        b.Stats().HitRate(),
		WindowMean:        summary.Mean,
		WindowStdDev:      summary.StdDev,
		Windows:           feStats.Windows,
		WallTime:          wallTime,
	}, nil
}

// PrintResults outputs results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	out := h.config.Output
	p := h.config.Predictor

	_, _ = fmt.Fprintln(out, "=== Perceptron Branch Predictor Results ===")
	_, _ = fmt.Fprintf(out, "History: %d  Threshold: %d  Weight bits: %d  Depth: %d\n",
		p.HistoryLength, p.TrainingThreshold, p.WeightBits, h.config.Frontend.Depth)
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "Workload: %s\n", r.Name)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(out, "  Threads: %d\n", r.Threads)
		_, _ = fmt.Fprintln(out, "  --- Branches ---")
		_, _ = fmt.Fprintf(out, "  Committed:       %d\n", r.Branches)
		_, _ = fmt.Fprintf(out, "  Conditional:     %d\n", r.Conditional)
		_, _ = fmt.Fprintf(out, "  Unconditional:   %d\n", r.Unconditional)
		_, _ = fmt.Fprintln(out, "  --- Prediction ---")
		_, _ = fmt.Fprintf(out, "  Correct:         %d\n", r.Correct)
		_, _ = fmt.Fprintf(out, "  Mispredictions:  %d\n", r.Mispredictions)
		_, _ = fmt.Fprintf(out, "  Accuracy:        %.2f%%\n", r.AccuracyPercent)
		_, _ = fmt.Fprintf(out, "  Squashed:        %d\n", r.Squashed)
		_, _ = fmt.Fprintf(out, "  Training Rate:   %.2f%%\n", r.TrainingRate)
		_, _ = fmt.Fprintln(out, "  --- BTB ---")
		_, _ = fmt.Fprintf(out, "  Misses:          %d\n", r.BTBMisses)
		_, _ = fmt.Fprintf(out, "  Hit Rate:        %.2f%%\n", r.BTBHitRate)
		if len(r.Windows) > 1 {
			_, _ = fmt.Fprintln(out, "  --- Windows ---")
			_, _ = fmt.Fprintf(out, "  Mispredict Mean: %.2f%% (stddev %.2f)\n",
				r.WindowMean, r.WindowStdDev)
		}
		_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,threads,branches,conditional,unconditional,mispredictions,accuracy,squashed,trainings,btb_misses,btb_hit_rate,window_mean,window_stddev")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%.3f,%d,%d,%d,%.3f,%.3f,%.3f\n",
			r.Name,
			r.Threads,
			r.Branches,
			r.Conditional,
			r.Unconditional,
			r.Mispredictions,
			r.AccuracyPercent,
			r.Squashed,
			r.Trainings,
			r.BTBMisses,
			r.BTBHitRate,
			r.WindowMean,
			r.WindowStdDev,
		)
	}
}

// Report is the complete JSON output format.
type Report struct {
	Metadata ReportMetadata `json:"metadata"`
	Results  []Result       `json:"results"`
	Summary  ReportSummary  `json:"summary"`
}

// ReportMetadata contains information about the run.
type ReportMetadata struct {
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Predictor bpred.Config    `json:"predictor"`
	BTB       btb.Config      `json:"btb"`
	Frontend  frontend.Config `json:"frontend"`
}

// ReportSummary contains aggregate statistics across all workloads.
type ReportSummary struct {
	TotalWorkloads      int           `json:"total_workloads"`
	TotalBranches       uint64        `json:"total_branches"`
	TotalMispredictions uint64        `json:"total_mispredictions"`
	AccuracyPercent     float64       `json:"accuracy_percent"`
	TotalWallTime       time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []Result) error {
	var branches, misses uint64
	var wallTime time.Duration
	for _, r := range results {
		branches += r.Branches
		misses += r.Mispredictions
		wallTime += r.WallTime
	}

	accuracy := float64(0)
	if branches > 0 {
		accuracy = float64(branches-misses) / float64(branches) * 100
	}

	report := Report{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Predictor: h.config.Predictor,
			BTB:       h.config.BTB,
			Frontend:  h.config.Frontend,
		},
		Results: results,
		Summary: ReportSummary{
			TotalWorkloads:      len(results),
			TotalBranches:       branches,
			TotalMispredictions: misses,
			AccuracyPercent:     accuracy,
			TotalWallTime:       wallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
