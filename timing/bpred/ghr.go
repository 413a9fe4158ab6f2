package bpred

// HistoryBank holds one global history register per hardware thread. Bit 0
// is the most recent outcome. Registers are full words; only the low
// historyLength bits feed predictions.
type HistoryBank struct {
	regs []uint64
	mask uint64
}

// NewHistoryBank creates numThreads zeroed registers.
func NewHistoryBank(numThreads, historyLength int) *HistoryBank {
	mask := ^uint64(0)
	if historyLength < 64 {
		mask = (uint64(1) << uint(historyLength)) - 1
	}

	return &HistoryBank{
		regs: make([]uint64, numThreads),
		mask: mask,
	}
}

// NumThreads returns the number of registers in the bank.
func (b *HistoryBank) NumThreads() int {
	return len(b.regs)
}

// Get returns the raw register of thread tid.
func (b *HistoryBank) Get(tid int) uint64 {
	return b.regs[tid]
}

// Masked returns the register of thread tid limited to the history length.
func (b *HistoryBank) Masked(tid int) uint64 {
	return b.regs[tid] & b.mask
}

// Set overwrites the register of thread tid.
func (b *HistoryBank) Set(tid int, v uint64) {
	b.regs[tid] = v
}

// ShiftIn pushes an outcome into the register of thread tid.
func (b *HistoryBank) ShiftIn(tid int, taken bool) {
	b.regs[tid] = b.regs[tid]<<1 | boolToBit(taken)
}

// ClearMostRecent clears bit 0 of the register of thread tid.
func (b *HistoryBank) ClearMostRecent(tid int) {
	b.regs[tid] &^= 1
}

// Reset zeroes every register.
func (b *HistoryBank) Reset() {
	for i := range b.regs {
		b.regs[i] = 0
	}
}

func boolToBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
