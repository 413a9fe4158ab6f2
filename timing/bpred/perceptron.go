// Package bpred implements a global-history perceptron branch predictor.
//
// The predictor keeps one weight vector shared by every branch and every
// hardware thread, and one speculative global history register per thread.
// Each prediction hands the caller a HistoryID; the caller returns it
// through exactly one of Update or Squash once the branch resolves.
package bpred

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/insts"
)

// Predictor is the interface a fetch stage drives.
type Predictor interface {
	// Lookup predicts the direction of a conditional branch.
	Lookup(tid int, pc uint64) (bool, HistoryID)

	// UncondBranch records an always-taken branch.
	UncondBranch(tid int, pc uint64) HistoryID

	// BTBUpdate retracts the speculative taken bit after a BTB miss.
	BTBUpdate(tid int, pc uint64)

	// Update commits or re-aligns a prediction and releases its record.
	Update(tid int, pc uint64, taken bool, h HistoryID, squashed bool,
		inst *insts.Instruction, corrTarget uint64)

	// Squash rolls back a prediction and releases its record.
	Squash(tid int, h HistoryID)

	// Redirect re-aligns the history to the resolved outcome of a live
	// prediction without releasing it.
	Redirect(tid int, h HistoryID, taken bool)

	// InFlight returns the number of live records.
	InFlight() int
}

// Perceptron is a perceptron predictor over global history. It is not safe
// for concurrent use; wrap it in a SyncPredictor when several goroutines
// drive it.
type Perceptron struct {
	*sim.HookableBase

	config  Config
	weights *WeightVector
	ghr     *HistoryBank
	records historyArena
}

// NewPerceptron creates a predictor with zeroed weights and histories.
func NewPerceptron(config Config) (*Perceptron, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Perceptron{
		HookableBase: sim.NewHookableBase(),
		config:       config,
		weights:      NewWeightVector(config.HistoryLength, config.WeightBits),
		ghr:          NewHistoryBank(config.NumThreads, config.HistoryLength),
	}, nil
}

// MustNewPerceptron is like NewPerceptron but panics on an invalid config.
func MustNewPerceptron(config Config) *Perceptron {
	p, err := NewPerceptron(config)
	if err != nil {
		panic(err)
	}
	return p
}

// Config returns the construction parameters.
func (p *Perceptron) Config() Config {
	return p.config
}

func (p *Perceptron) checkTID(tid int) {
	if tid < 0 || tid >= p.ghr.NumThreads() {
		panic(fmt.Sprintf("bpred: thread %d out of range [0, %d)",
			tid, p.ghr.NumThreads()))
	}
}

// Lookup computes the perceptron output for the current history of thread
// tid, records it, and speculatively shifts the prediction into the
// history. The zero sum breaks toward taken. pc does not take part in the
// prediction.
func (p *Perceptron) Lookup(tid int, pc uint64) (bool, HistoryID) {
	p.checkTID(tid)

	snapshot := p.ghr.Get(tid)
	sum := p.weights.Dot(snapshot)
	pred := sum >= 0

	h := p.records.alloc(History{
		TID:         tid,
		GHRSnapshot: snapshot,
		Pred:        pred,
		Sum:         sum,
	})
	p.ghr.ShiftIn(tid, pred)

	if p.NumHooks() > 0 {
		p.invoke(HookPosLookup, h, Event{
			TID:       tid,
			PC:        pc,
			Predicted: pred,
			Sum:       sum,
			Snapshot:  snapshot,
			GHR:       p.ghr.Get(tid),
		})
	}

	return pred, h
}

// UncondBranch records an always-taken branch. No sum is computed; the
// record carries 0.
func (p *Perceptron) UncondBranch(tid int, pc uint64) HistoryID {
	p.checkTID(tid)

	snapshot := p.ghr.Get(tid)
	h := p.records.alloc(History{
		TID:           tid,
		GHRSnapshot:   snapshot,
		Pred:          true,
		Unconditional: true,
	})
	p.ghr.ShiftIn(tid, true)

	if p.NumHooks() > 0 {
		p.invoke(HookPosUncond, h, Event{
			TID:       tid,
			PC:        pc,
			Predicted: true,
			Snapshot:  snapshot,
			GHR:       p.ghr.Get(tid),
		})
	}

	return h
}

// BTBUpdate clears the most recent history bit of thread tid. Fetch calls
// it when a branch predicted taken has no target in the BTB and therefore
// falls through. Weights are not touched.
func (p *Perceptron) BTBUpdate(tid int, pc uint64) {
	p.checkTID(tid)

	p.ghr.ClearMostRecent(tid)

	if p.NumHooks() > 0 {
		p.invoke(HookPosBTBMiss, 0, Event{
			TID: tid,
			PC:  pc,
			GHR: p.ghr.Get(tid),
		})
	}
}

// Update terminates the record h.
//
// With squashed set, the branch was mispredicted and the history is
// re-aligned to the snapshot followed by the actual outcome; no training
// happens on this path.
//
// Otherwise the branch commits and the weights train when the prediction
// was wrong or |sum| is within the training threshold. Training reads the
// history snapshot in the record, never the live register.
func (p *Perceptron) Update(
	tid int,
	pc uint64,
	taken bool,
	h HistoryID,
	squashed bool,
	inst *insts.Instruction,
	corrTarget uint64,
) {
	p.checkTID(tid)
	rec := *p.records.get(tid, h)

	if squashed {
		p.ghr.Set(tid, rec.GHRSnapshot<<1|boolToBit(taken))
		p.records.release(h)

		if p.NumHooks() > 0 {
			p.invoke(HookPosRealign, h, Event{
				TID:        tid,
				PC:         pc,
				Predicted:  rec.Pred,
				Taken:      taken,
				Sum:        rec.Sum,
				Snapshot:   rec.GHRSnapshot,
				GHR:        p.ghr.Get(tid),
				Inst:       inst,
				CorrTarget: corrTarget,
			})
		}

		return
	}

	trained := p.shouldTrain(rec, taken)
	if trained {
		p.weights.Train(rec.GHRSnapshot, taken)
	}
	p.records.release(h)

	if p.NumHooks() > 0 {
		evt := Event{
			TID:           tid,
			PC:            pc,
			Predicted:     rec.Pred,
			Taken:         taken,
			Sum:           rec.Sum,
			Snapshot:      rec.GHRSnapshot,
			GHR:           p.ghr.Get(tid),
			Trained:       trained,
			Unconditional: rec.Unconditional,
			Inst:          inst,
			CorrTarget:    corrTarget,
		}

		p.invoke(HookPosCommit, h, evt)
		if trained {
			p.invoke(HookPosTrain, h, evt)
		}
	}
}

// shouldTrain applies the lazy training rule: train on a misprediction or
// on a correct prediction that was not confident enough.
func (p *Perceptron) shouldTrain(rec History, taken bool) bool {
	if rec.Pred != taken {
		return true
	}

	magnitude := int64(rec.Sum)
	if magnitude < 0 {
		magnitude = -magnitude
	}

	return magnitude <= int64(p.config.TrainingThreshold)
}

// Squash restores the history of thread tid to the snapshot in h and
// releases the record. Weights only change at commit, so nothing else needs
// undoing.
func (p *Perceptron) Squash(tid int, h HistoryID) {
	p.checkTID(tid)
	rec := *p.records.get(tid, h)

	p.ghr.Set(tid, rec.GHRSnapshot)
	p.records.release(h)

	if p.NumHooks() > 0 {
		p.invoke(HookPosSquash, h, Event{
			TID:       tid,
			Predicted: rec.Pred,
			Sum:       rec.Sum,
			Snapshot:  rec.GHRSnapshot,
			GHR:       rec.GHRSnapshot,
		})
	}
}

// Redirect sets the history of thread tid to the snapshot in h followed by
// the resolved outcome. The record stays live so that a later commit can
// still train from it.
func (p *Perceptron) Redirect(tid int, h HistoryID, taken bool) {
	p.checkTID(tid)
	rec := p.records.get(tid, h)

	p.ghr.Set(tid, rec.GHRSnapshot<<1|boolToBit(taken))

	if p.NumHooks() > 0 {
		p.invoke(HookPosRedirect, h, Event{
			TID:       tid,
			Predicted: rec.Pred,
			Taken:     taken,
			Sum:       rec.Sum,
			Snapshot:  rec.GHRSnapshot,
			GHR:       p.ghr.Get(tid),
		})
	}
}

// InFlight returns the number of records not yet terminated.
func (p *Perceptron) InFlight() int {
	return p.records.live
}

// Record returns a copy of the live record behind h.
func (p *Perceptron) Record(tid int, h HistoryID) History {
	p.checkTID(tid)
	return *p.records.get(tid, h)
}

// GHR returns the raw history register of thread tid.
func (p *Perceptron) GHR(tid int) uint64 {
	p.checkTID(tid)
	return p.ghr.Get(tid)
}

// MaskedGHR returns the history register of thread tid limited to the
// history length.
func (p *Perceptron) MaskedGHR(tid int) uint64 {
	p.checkTID(tid)
	return p.ghr.Masked(tid)
}

// SetGHR overwrites the history register of thread tid.
func (p *Perceptron) SetGHR(tid int, v uint64) {
	p.checkTID(tid)
	p.ghr.Set(tid, v)
}

// Weight returns weight i. Index HistoryLength is the bias.
func (p *Perceptron) Weight(i int) int32 {
	return p.weights.Value(i)
}

// SetWeight stores weight i clamped into the counter range.
func (p *Perceptron) SetWeight(i int, v int32) {
	p.weights.Set(i, v)
}

// Weights returns a copy of the weight vector, bias last.
func (p *Perceptron) Weights() []int32 {
	return p.weights.Values()
}

// Reset zeroes weights and histories and drops every live record. Handles
// issued before the reset become invalid.
func (p *Perceptron) Reset() {
	p.weights.Reset()
	p.ghr.Reset()
	p.records.reset()
}
