package bpred

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	log "github.com/sirupsen/logrus"
)

// LogHook writes every predictor event to a logrus logger at debug level.
type LogHook struct {
	logger *log.Logger
}

// NewLogHook creates a LogHook. A nil logger uses the logrus standard
// logger.
func NewLogHook(logger *log.Logger) *LogHook {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogHook{logger: logger}
}

// Func implements sim.Hook.
func (h *LogHook) Func(ctx sim.HookCtx) {
	if !h.logger.IsLevelEnabled(log.DebugLevel) {
		return
	}

	evt, ok := ctx.Detail.(Event)
	if !ok {
		return
	}

	fields := log.Fields{
		"tid": evt.TID,
		"pc":  fmt.Sprintf("%#x", evt.PC),
		"ghr": fmt.Sprintf("%#x", evt.GHR),
	}

	if id, ok := ctx.Item.(HistoryID); ok && id != 0 {
		fields["handle"] = id.String()
	}

	switch ctx.Pos {
	case HookPosLookup, HookPosUncond:
		fields["pred"] = evt.Predicted
		fields["sum"] = evt.Sum
	case HookPosCommit, HookPosTrain, HookPosRealign, HookPosRedirect:
		fields["pred"] = evt.Predicted
		fields["taken"] = evt.Taken
		fields["sum"] = evt.Sum
		fields["snapshot"] = fmt.Sprintf("%#x", evt.Snapshot)
		if ctx.Pos == HookPosCommit {
			fields["trained"] = evt.Trained
		}
	case HookPosSquash:
		fields["snapshot"] = fmt.Sprintf("%#x", evt.Snapshot)
	}

	h.logger.WithFields(fields).Debug(ctx.Pos.Name)
}
