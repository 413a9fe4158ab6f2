// Package frontend models the fetch stage that drives a branch predictor
// from a branch trace.
//
// Fetch predicts each branch and queues it; a branch resolves once more
// than Depth younger branches sit behind it. On a misprediction every
// younger branch is squashed youngest first, the predictor history is
// re-aligned to the resolved outcome, and the squashed branches are fetched
// again on the corrected path.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/bpsim/insts"
	"github.com/sarchlab/bpsim/timing/bpred"
	"github.com/sarchlab/bpsim/timing/btb"
	"github.com/sarchlab/bpsim/trace"
)

// inflight is a fetched branch waiting to resolve.
type inflight struct {
	rec    trace.Record
	inst   *insts.Instruction
	handle bpred.HistoryID

	// predTaken is the direction fetch followed, after any BTB miss.
	predTaken  bool
	predTarget uint64
}

// Frontend is a trace-driven fetch stage.
type Frontend struct {
	config  Config
	pred    bpred.Predictor
	btb     *btb.BTB
	decoder *insts.Decoder

	queues [][]inflight

	stats         Stats
	windowCommits int
	windowMisses  int
}

// New creates a frontend for numThreads hardware threads.
func New(
	config Config,
	pred bpred.Predictor,
	b *btb.BTB,
	numThreads int,
) (*Frontend, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid frontend config: %w", err)
	}
	if numThreads < 1 {
		return nil, fmt.Errorf("invalid frontend config: need at least one thread")
	}

	return &Frontend{
		config:  config,
		pred:    pred,
		btb:     b,
		decoder: insts.NewDecoder(),
		queues:  make([][]inflight, numThreads),
	}, nil
}

// Stats returns the frontend statistics.
func (f *Frontend) Stats() Stats {
	s := f.stats
	s.Windows = append([]float64(nil), f.stats.Windows...)
	return s
}

// InFlight returns the number of branches waiting to resolve on tid.
func (f *Frontend) InFlight(tid int) int {
	return len(f.queues[tid])
}

// Fetch predicts the branch rec on thread tid and queues it, resolving the
// oldest branches of the thread beyond the configured depth.
func (f *Frontend) Fetch(tid int, rec trace.Record) {
	f.stats.Fetched++

	e := inflight{rec: rec, inst: f.decoder.Decode(rec.Inst)}

	if e.inst.IsUnconditional() {
		e.handle = f.pred.UncondBranch(tid, rec.PC)
		e.predTaken = true
	} else {
		e.predTaken, e.handle = f.pred.Lookup(tid, rec.PC)
	}

	if e.predTaken {
		target, hit := f.btb.Lookup(tid, rec.PC)
		if hit {
			e.predTarget = target
		} else {
			f.stats.BTBMisses++
			f.pred.BTBUpdate(tid, rec.PC)
			e.predTaken = false
		}
	}

	f.queues[tid] = append(f.queues[tid], e)

	for len(f.queues[tid]) > f.config.Depth {
		f.resolveOldest(tid)
	}
}

func (e *inflight) mispredicted() bool {
	if e.predTaken != e.rec.Taken {
		return true
	}
	return e.rec.Taken && e.predTarget != e.rec.Target
}

func (f *Frontend) resolveOldest(tid int) {
	q := f.queues[tid]
	e := q[0]
	rec := e.rec

	f.countCommit(&e)

	if !e.mispredicted() {
		f.pred.Update(tid, rec.PC, rec.Taken, e.handle, false, e.inst, rec.Target)
		f.queues[tid] = q[1:]
		f.learnTarget(tid, rec)
		return
	}

	younger := q[1:]
	refetch := make([]trace.Record, len(younger))
	for i := len(younger) - 1; i >= 0; i-- {
		f.pred.Squash(tid, younger[i].handle)
		refetch[i] = younger[i].rec
	}
	f.stats.Squashed += uint64(len(younger))

	if f.config.TrainOnMispredict {
		f.pred.Redirect(tid, e.handle, rec.Taken)
		f.pred.Update(tid, rec.PC, rec.Taken, e.handle, false, e.inst, rec.Target)
	} else {
		f.pred.Update(tid, rec.PC, rec.Taken, e.handle, true, e.inst, rec.Target)
	}

	f.queues[tid] = q[:0]
	f.learnTarget(tid, rec)

	for _, r := range refetch {
		f.stats.Refetched++
		f.Fetch(tid, r)
	}
}

func (f *Frontend) learnTarget(tid int, rec trace.Record) {
	if rec.Taken {
		f.btb.Insert(tid, rec.PC, rec.Target)
	}
}

func (f *Frontend) countCommit(e *inflight) {
	f.stats.Committed++
	if e.inst.IsUnconditional() {
		f.stats.Unconditional++
	} else {
		f.stats.Conditional++
	}

	f.windowCommits++
	if e.mispredicted() {
		f.stats.Mispredictions++
		f.windowMisses++
	} else {
		f.stats.Correct++
	}

	if f.windowCommits == f.config.WindowSize {
		rate := float64(f.windowMisses) / float64(f.windowCommits) * 100
		f.stats.Windows = append(f.stats.Windows, rate)
		f.windowCommits = 0
		f.windowMisses = 0
	}
}

// Drain resolves every in-flight branch on every thread.
func (f *Frontend) Drain() {
	for tid := range f.queues {
		for len(f.queues[tid]) > 0 {
			f.resolveOldest(tid)
		}
	}
}

// Run fetches every record of src on the thread named by its TID, then
// drains. Cancellation is checked between records.
func (f *Frontend) Run(ctx context.Context, src trace.Source) error {
	for {
		if err := ctx.Err(); err != nil {
			f.Drain()
			return err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			f.Drain()
			return fmt.Errorf("failed to read trace: %w", err)
		}

		if rec.TID < 0 || rec.TID >= len(f.queues) {
			f.Drain()
			return fmt.Errorf("trace record for thread %d, frontend has %d threads",
				rec.TID, len(f.queues))
		}

		f.Fetch(rec.TID, rec)
	}

	f.Drain()
	return nil
}
