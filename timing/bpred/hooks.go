package bpred

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/insts"
)

// Hook positions invoked by Perceptron.
var (
	HookPosLookup   = &sim.HookPos{Name: "BPred Lookup"}
	HookPosUncond   = &sim.HookPos{Name: "BPred Uncond Branch"}
	HookPosBTBMiss  = &sim.HookPos{Name: "BPred BTB Miss"}
	HookPosRedirect = &sim.HookPos{Name: "BPred Redirect"}
	HookPosCommit   = &sim.HookPos{Name: "BPred Commit"}
	HookPosRealign  = &sim.HookPos{Name: "BPred Realign"}
	HookPosSquash   = &sim.HookPos{Name: "BPred Squash"}
	HookPosTrain    = &sim.HookPos{Name: "BPred Train"}
)

// Event is the Detail of every hook the predictor invokes. The Item is the
// HistoryID involved, or zero for BTB misses.
type Event struct {
	TID           int
	PC            uint64
	Predicted     bool
	Taken         bool
	Sum           int32
	Snapshot      uint64
	GHR           uint64
	Trained       bool
	Unconditional bool
	Inst          *insts.Instruction
	CorrTarget    uint64
}

func (p *Perceptron) invoke(pos *sim.HookPos, h HistoryID, evt Event) {
	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   h,
		Detail: evt,
	})
}
