package bpred

import "github.com/sarchlab/akita/v4/sim"

// Stats holds predictor event counts.
type Stats struct {
	// Lookups is the number of conditional predictions made.
	Lookups uint64
	// Unconditional is the number of unconditional branches recorded.
	Unconditional uint64
	// Commits is the number of records terminated on the commit path.
	Commits uint64
	// Correct is the number of commits whose prediction matched.
	Correct uint64
	// Mispredictions is the number of commits whose prediction differed.
	Mispredictions uint64
	// Trainings is the number of commits that updated the weights.
	Trainings uint64
	// Squashes is the number of records rolled back.
	Squashes uint64
	// Realigns is the number of records terminated on the squashed path.
	Realigns uint64
	// Redirects is the number of non-terminal re-alignments.
	Redirects uint64
	// BTBMisses is the number of BTBUpdate calls.
	BTBMisses uint64
}

// Accuracy returns the committed prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Commits == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Commits) * 100
}

// MispredictionRate returns the committed misprediction rate as a
// percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Commits == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Commits) * 100
}

// TrainingRate returns the share of commits that trained, as a percentage.
func (s Stats) TrainingRate() float64 {
	if s.Commits == 0 {
		return 0
	}
	return float64(s.Trainings) / float64(s.Commits) * 100
}

// StatsHook counts predictor events. Attach it with AcceptHook.
type StatsHook struct {
	stats Stats
}

// NewStatsHook creates an empty StatsHook.
func NewStatsHook() *StatsHook {
	return &StatsHook{}
}

// Func implements sim.Hook.
func (h *StatsHook) Func(ctx sim.HookCtx) {
	evt, ok := ctx.Detail.(Event)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosLookup:
		h.stats.Lookups++
	case HookPosUncond:
		h.stats.Unconditional++
	case HookPosBTBMiss:
		h.stats.BTBMisses++
	case HookPosRedirect:
		h.stats.Redirects++
	case HookPosRealign:
		h.stats.Realigns++
	case HookPosSquash:
		h.stats.Squashes++
	case HookPosTrain:
		h.stats.Trainings++
	case HookPosCommit:
		h.stats.Commits++
		if evt.Predicted == evt.Taken {
			h.stats.Correct++
		} else {
			h.stats.Mispredictions++
		}
	}
}

// Stats returns the collected counts.
func (h *StatsHook) Stats() Stats {
	return h.stats
}

// Reset clears the collected counts.
func (h *StatsHook) Reset() {
	h.stats = Stats{}
}
