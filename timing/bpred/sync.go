package bpred

import (
	"sync"

	"github.com/sarchlab/bpsim/insts"
)

// SyncPredictor serializes every call to an underlying Predictor.
type SyncPredictor struct {
	mu   sync.Mutex
	pred Predictor
}

// NewSyncPredictor wraps pred with a mutex.
func NewSyncPredictor(pred Predictor) *SyncPredictor {
	return &SyncPredictor{pred: pred}
}

// Lookup implements Predictor.
func (s *SyncPredictor) Lookup(tid int, pc uint64) (bool, HistoryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pred.Lookup(tid, pc)
}

// UncondBranch implements Predictor.
func (s *SyncPredictor) UncondBranch(tid int, pc uint64) HistoryID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pred.UncondBranch(tid, pc)
}

// BTBUpdate implements Predictor.
func (s *SyncPredictor) BTBUpdate(tid int, pc uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pred.BTBUpdate(tid, pc)
}

// Update implements Predictor.
func (s *SyncPredictor) Update(
	tid int,
	pc uint64,
	taken bool,
	h HistoryID,
	squashed bool,
	inst *insts.Instruction,
	corrTarget uint64,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pred.Update(tid, pc, taken, h, squashed, inst, corrTarget)
}

// Squash implements Predictor.
func (s *SyncPredictor) Squash(tid int, h HistoryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pred.Squash(tid, h)
}

// Redirect implements Predictor.
func (s *SyncPredictor) Redirect(tid int, h HistoryID, taken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pred.Redirect(tid, h, taken)
}

// InFlight implements Predictor.
func (s *SyncPredictor) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pred.InFlight()
}
