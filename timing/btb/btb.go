// Package btb provides a set-associative branch target buffer built on the
// Akita cache directory.
package btb

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
	"github.com/sarchlab/akita/v4/mem/vm"
)

// entrySize is the granularity of a BTB tag: one ARM64 instruction.
const entrySize = 4

// Config holds BTB configuration parameters.
type Config struct {
	// NumSets is the number of sets. Default: 64.
	NumSets int `json:"num_sets"`
	// Associativity is the number of ways per set. Default: 4.
	Associativity int `json:"associativity"`
}

// DefaultConfig returns a 256-entry, 4-way BTB.
func DefaultConfig() Config {
	return Config{
		NumSets:       64,
		Associativity: 4,
	}
}

// Validate checks the geometry.
func (c Config) Validate() error {
	if c.NumSets <= 0 {
		return fmt.Errorf("num_sets must be > 0")
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	return nil
}

// Entries returns the total number of entries.
func (c Config) Entries() int {
	return c.NumSets * c.Associativity
}

// Statistics holds BTB access counts.
type Statistics struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Inserts   uint64
	Evictions uint64
}

// HitRate returns the lookup hit rate as a percentage.
func (s Statistics) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups) * 100
}

// BTB maps branch PCs to their last taken target. Entries are tagged with
// the hardware thread so that threads never see each other's targets.
type BTB struct {
	config Config

	// Akita cache directory for tag/LRU management
	directory *akitacache.DirectoryImpl

	// Targets indexed by (setID * associativity + wayID)
	targets []uint64

	stats Statistics
}

// New creates an empty BTB.
func New(config Config) (*BTB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid btb config: %w", err)
	}

	return &BTB{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumSets,
			config.Associativity,
			entrySize,
			akitacache.NewLRUVictimFinder(),
		),
		targets: make([]uint64, config.Entries()),
	}, nil
}

// Config returns the BTB configuration.
func (b *BTB) Config() Config {
	return b.config
}

// Stats returns BTB statistics.
func (b *BTB) Stats() Statistics {
	return b.stats
}

func (b *BTB) entryIndex(block *akitacache.Block) int {
	return block.SetID*b.config.Associativity + block.WayID
}

func tag(pc uint64) uint64 {
	return pc &^ (entrySize - 1)
}

func (b *BTB) find(tid int, pc uint64) *akitacache.Block {
	block := b.directory.Lookup(vm.PID(tid), tag(pc))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

// Lookup returns the cached target of the branch at pc on thread tid.
func (b *BTB) Lookup(tid int, pc uint64) (uint64, bool) {
	b.stats.Lookups++

	block := b.find(tid, pc)
	if block == nil {
		b.stats.Misses++
		return 0, false
	}

	b.stats.Hits++
	b.directory.Visit(block)

	return b.targets[b.entryIndex(block)], true
}

// Insert records target as the taken target of the branch at pc on thread
// tid, evicting the least recently used entry of the set when full.
func (b *BTB) Insert(tid int, pc, target uint64) {
	b.stats.Inserts++

	block := b.find(tid, pc)
	if block == nil {
		block = b.directory.FindVictim(tag(pc))
		if block == nil {
			return
		}

		if block.IsValid {
			b.stats.Evictions++
		}

		block.Tag = tag(pc)
		block.PID = vm.PID(tid)
		block.IsValid = true
	}

	b.targets[b.entryIndex(block)] = target
	b.directory.Visit(block)
}

// Invalidate drops the entry of the branch at pc on thread tid.
func (b *BTB) Invalidate(tid int, pc uint64) {
	if block := b.find(tid, pc); block != nil {
		block.IsValid = false
	}
}

// Reset invalidates every entry and clears statistics.
func (b *BTB) Reset() {
	b.directory.Reset()
	for i := range b.targets {
		b.targets[i] = 0
	}
	b.stats = Statistics{}
}
