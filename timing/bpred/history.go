package bpred

import "fmt"

// HistoryID is the caller's handle to an in-flight prediction record. It
// packs a slot index with a generation so that a handle outliving its
// record is detected instead of silently aliasing a newer one. The zero
// value never refers to a live record.
type HistoryID uint64

func makeHistoryID(slot, gen uint32) HistoryID {
	return HistoryID(uint64(gen)<<32 | uint64(slot))
}

func (id HistoryID) slot() uint32 {
	return uint32(id)
}

func (id HistoryID) gen() uint32 {
	return uint32(id >> 32)
}

// String renders the handle as slot@generation.
func (id HistoryID) String() string {
	return fmt.Sprintf("%d@%d", id.slot(), id.gen())
}

// History is the state captured when a prediction is made. It is what
// allows the global history to be rolled back on a squash and what
// training reads at commit.
type History struct {
	// TID is the hardware thread that produced the prediction.
	TID int

	// GHRSnapshot is the thread's history register before the
	// speculative shift for this prediction.
	GHRSnapshot uint64

	// Pred is the predicted direction.
	Pred bool

	// Sum is the dot product behind Pred. Unconditional branches record 0.
	Sum int32

	// Unconditional marks records created by UncondBranch.
	Unconditional bool
}

type historySlot struct {
	rec  History
	gen  uint32
	live bool
}

// historyArena owns every History record. Slots are recycled through a
// free list; generations start at 1 so the zero HistoryID is always stale.
type historyArena struct {
	slots []historySlot
	free  []uint32
	live  int
}

func (a *historyArena) alloc(rec History) HistoryID {
	var slot uint32

	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		slot = uint32(len(a.slots))
		a.slots = append(a.slots, historySlot{})
	}

	s := &a.slots[slot]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.rec = rec
	s.live = true
	a.live++

	return makeHistoryID(slot, s.gen)
}

// get returns the live record behind id. Unknown, released, or foreign
// handles are invariant violations and panic.
func (a *historyArena) get(tid int, id HistoryID) *History {
	slot := id.slot()
	if int(slot) >= len(a.slots) {
		panic(fmt.Sprintf("bpred: unknown history handle %v", id))
	}

	s := &a.slots[slot]
	if !s.live || s.gen != id.gen() {
		panic(fmt.Sprintf("bpred: stale history handle %v", id))
	}

	if s.rec.TID != tid {
		panic(fmt.Sprintf("bpred: history handle %v belongs to thread %d, not %d",
			id, s.rec.TID, tid))
	}

	return &s.rec
}

func (a *historyArena) release(id HistoryID) {
	slot := id.slot()
	a.slots[slot].live = false
	a.slots[slot].rec = History{}
	a.free = append(a.free, slot)
	a.live--
}

// reset drops every record. Generations are kept so that handles issued
// before the reset stay stale.
func (a *historyArena) reset() {
	a.free = a.free[:0]
	for i := len(a.slots) - 1; i >= 0; i-- {
		a.slots[i].live = false
		a.slots[i].rec = History{}
		a.free = append(a.free, uint32(i))
	}
	a.live = 0
}
