package benchmarks

import (
	"io"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sarchlab/bpsim/insts"
	"github.com/sarchlab/bpsim/trace"
)

// Workload defines a synthetic branch stream.
type Workload struct {
	// Name identifies the workload
	Name string

	// Description explains what the workload exercises
	Description string

	// Threads is the number of hardware threads the stream uses. Records
	// carry their thread in TID.
	Threads int

	// Source creates a fresh stream. Every call replays the same records.
	Source func() trace.Source
}

// DefaultLength is the number of branches each built-in workload emits.
const DefaultLength = 20000

// GetWorkloads returns the built-in workloads.
func GetWorkloads() []Workload {
	return []Workload{
		Loop(8, DefaultLength),
		Alternating(DefaultLength),
		Correlated(DefaultLength, 1),
		NestedLoops(4, 6, DefaultLength),
		BiasedRandom(0.9, DefaultLength, 1),
		CallReturn(DefaultLength),
		SMTMix(DefaultLength),
	}
}

// GetWorkload returns the built-in workload called name.
func GetWorkload(name string) (Workload, bool) {
	for _, w := range GetWorkloads() {
		if w.Name == name {
			return w, true
		}
	}
	return Workload{}, false
}

// genSource emits n records produced by gen.
type genSource struct {
	n, i int
	gen  func(i int) trace.Record
}

func (s *genSource) Next() (trace.Record, error) {
	if s.i >= s.n {
		return trace.Record{}, io.EOF
	}
	rec := s.gen(s.i)
	s.i++
	return rec, nil
}

// cycle repeats pattern until n records are emitted.
func cycle(pattern []trace.Record, n int) trace.Source {
	return &genSource{n: n, gen: func(i int) trace.Record {
		return pattern[i%len(pattern)]
	}}
}

// backEdge builds a backward conditional branch at pc.
func backEdge(pc uint64, taken bool) trace.Record {
	const offset = -16
	return trace.Record{
		PC:     pc,
		Inst:   insts.EncodeCBNZ(0, offset, true),
		Taken:  taken,
		Target: uint64(int64(pc) + offset),
	}
}

// forward builds a forward conditional branch at pc.
func forward(pc uint64, cond insts.Cond, taken bool) trace.Record {
	const offset = 0x20
	return trace.Record{
		PC:     pc,
		Inst:   insts.EncodeBCond(offset, cond),
		Taken:  taken,
		Target: pc + offset,
	}
}

func loopPattern(pc uint64, trip int) []trace.Record {
	pattern := make([]trace.Record, trip)
	for i := range pattern {
		pattern[i] = backEdge(pc, i != trip-1)
	}
	return pattern
}

// Loop is a single back-edge taken trip-1 times, then not taken.
func Loop(trip, n int) Workload {
	return Workload{
		Name:        "loop",
		Description: "Counted loop back-edge - taken trip-1 times then falls through",
		Threads:     1,
		Source: func() trace.Source {
			return cycle(loopPattern(0x1010, trip), n)
		},
	}
}

// Alternating is one branch flipping direction every execution.
func Alternating(n int) Workload {
	return Workload{
		Name:        "alternating",
		Description: "Single branch alternating T, N - needs one bit of history",
		Threads:     1,
		Source: func() trace.Source {
			return cycle([]trace.Record{
				forward(0x1000, insts.CondEQ, true),
				forward(0x1000, insts.CondEQ, false),
			}, n)
		},
	}
}

// Correlated pairs a random branch with a second branch that repeats its
// outcome. The second branch is predictable from the most recent history
// bit only.
func Correlated(n int, seed uint64) Workload {
	return Workload{
		Name:        "correlated",
		Description: "Random branch followed by a branch repeating its outcome",
		Threads:     1,
		Source: func() trace.Source {
			coin := distuv.Bernoulli{P: 0.5, Src: rand.NewPCG(seed, seed)}
			var last bool
			return &genSource{n: n, gen: func(i int) trace.Record {
				if i%2 == 0 {
					last = coin.Rand() == 1
					return forward(0x1000, insts.CondGT, last)
				}
				return forward(0x1040, insts.CondGT, last)
			}}
		},
	}
}

// NestedLoops is an inner loop of trip inner nested in a loop of trip
// outer.
func NestedLoops(outer, inner, n int) Workload {
	return Workload{
		Name:        "nested_loops",
		Description: "Two nested counted loops with distinct back-edges",
		Threads:     1,
		Source: func() trace.Source {
			var pattern []trace.Record
			for o := 0; o < outer; o++ {
				pattern = append(pattern, loopPattern(0x1020, inner)...)
				pattern = append(pattern, backEdge(0x1040, o != outer-1))
			}
			return cycle(pattern, n)
		},
	}
}

// BiasedRandom is one branch taken with probability p, independent of
// history.
func BiasedRandom(p float64, n int, seed uint64) Workload {
	return Workload{
		Name:        "biased_random",
		Description: "Independent branch taken with fixed probability",
		Threads:     1,
		Source: func() trace.Source {
			coin := distuv.Bernoulli{P: p, Src: rand.NewPCG(seed, seed)}
			return &genSource{n: n, gen: func(int) trace.Record {
				return forward(0x1000, insts.CondNE, coin.Rand() == 1)
			}}
		},
	}
}

// CallReturn is a call to a function holding an alternating branch,
// followed by the return.
func CallReturn(n int) Workload {
	call := trace.Record{
		PC:     0x1000,
		Inst:   insts.EncodeBL(0x1000),
		Taken:  true,
		Target: 0x2000,
	}
	ret := trace.Record{
		PC:     0x2040,
		Inst:   insts.EncodeRET(),
		Taken:  true,
		Target: 0x1004,
	}

	return Workload{
		Name:        "call_return",
		Description: "BL and RET around an alternating branch - unconditional history",
		Threads:     1,
		Source: func() trace.Source {
			return cycle([]trace.Record{
				call, forward(0x2000, insts.CondEQ, true), ret,
				call, forward(0x2000, insts.CondEQ, false), ret,
			}, n)
		},
	}
}

// SMTMix runs a loop and an alternating branch on two threads sharing the
// weights.
func SMTMix(n int) Workload {
	loop := Loop(8, n/2)
	alt := Alternating(n - n/2)

	return Workload{
		Name:        "smt_mix",
		Description: "Loop and alternating branch on two threads",
		Threads:     2,
		Source: func() trace.Source {
			return trace.Interleave(loop.Source(), alt.Source())
		},
	}
}
