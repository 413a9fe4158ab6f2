package frontend_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/insts"
	"github.com/sarchlab/bpsim/timing/bpred"
	"github.com/sarchlab/bpsim/timing/btb"
	"github.com/sarchlab/bpsim/timing/frontend"
	"github.com/sarchlab/bpsim/trace"
)

var bne = insts.EncodeBCond(-16, insts.CondNE)

func condBranch(pc uint64, taken bool) trace.Record {
	return trace.Record{PC: pc, Inst: bne, Taken: taken, Target: pc - 16}
}

func repeat(n int, gen func(i int) trace.Record) []trace.Record {
	records := make([]trace.Record, n)
	for i := range records {
		records[i] = gen(i)
	}
	return records
}

var _ = Describe("Frontend", func() {
	var (
		predConfig bpred.Config
		feConfig   frontend.Config
		numThreads int
		p          *bpred.Perceptron
		stats      *bpred.StatsHook
		b          *btb.BTB
		fe         *frontend.Frontend
	)

	build := func() {
		predConfig.NumThreads = numThreads
		p = bpred.MustNewPerceptron(predConfig)
		stats = bpred.NewStatsHook()
		p.AcceptHook(stats)

		var err error
		b, err = btb.New(btb.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		fe, err = frontend.New(feConfig, p, b, numThreads)
		Expect(err).NotTo(HaveOccurred())
	}

	run := func(records []trace.Record) {
		Expect(fe.Run(context.Background(), trace.NewSliceSource(records))).To(Succeed())
	}

	BeforeEach(func() {
		predConfig = bpred.Config{
			HistoryLength:     4,
			TrainingThreshold: bpred.DefaultTrainingThreshold(4),
			WeightBits:        8,
		}
		feConfig = frontend.DefaultConfig()
		numThreads = 1
	})

	Describe("Single-cycle resolution", func() {
		BeforeEach(func() {
			feConfig.Depth = 0
			build()
		})

		It("should mispredict an always-taken branch only while the BTB is cold", func() {
			run(repeat(200, func(int) trace.Record { return condBranch(0x1000, true) }))

			s := fe.Stats()
			Expect(s.Committed).To(Equal(uint64(200)))
			Expect(s.BTBMisses).To(BeNumerically(">=", 1))
			Expect(s.Mispredictions).To(BeNumerically("<=", 2))
			Expect(s.Accuracy()).To(BeNumerically(">", 95))
		})

		It("should commit every prediction exactly once", func() {
			run(repeat(50, func(i int) trace.Record { return condBranch(0x1000, i%3 == 0) }))

			Expect(p.InFlight()).To(BeZero())
			Expect(fe.InFlight(0)).To(BeZero())
			Expect(stats.Stats().Commits).To(Equal(uint64(50)))
			Expect(fe.Stats().Squashed).To(BeZero())
		})
	})

	Describe("Speculative fetch", func() {
		BeforeEach(func() {
			feConfig.Depth = 4
			build()
		})

		It("should learn an alternating branch", func() {
			run(repeat(2000, func(i int) trace.Record { return condBranch(0x1000, i%2 == 0) }))

			s := fe.Stats()
			Expect(s.Committed).To(Equal(uint64(2000)))
			Expect(s.Accuracy()).To(BeNumerically(">", 90))
			Expect(p.InFlight()).To(BeZero())
		})

		It("should squash and re-fetch younger branches on a misprediction", func() {
			run(repeat(5, func(i int) trace.Record { return condBranch(uint64(0x1000+4*i), true) }))

			s := fe.Stats()
			Expect(s.Committed).To(Equal(uint64(5)))
			Expect(s.Mispredictions).To(BeNumerically(">=", 1))
			Expect(s.Squashed).To(BeNumerically(">=", 4))
			Expect(s.Refetched).To(Equal(s.Squashed))
			Expect(s.Fetched).To(Equal(5 + s.Refetched))

			ps := stats.Stats()
			Expect(ps.Squashes).To(Equal(s.Squashed))
			Expect(ps.Redirects).To(Equal(s.Mispredictions))
			Expect(ps.Realigns).To(BeZero())
			Expect(p.InFlight()).To(BeZero())
		})

		It("should route unconditional branches through UncondBranch", func() {
			records := []trace.Record{
				{PC: 0x1000, Inst: insts.EncodeBL(0x100), Taken: true, Target: 0x1100},
				{PC: 0x1100, Inst: insts.EncodeRET(), Taken: true, Target: 0x1004},
				condBranch(0x1004, false),
			}
			run(records)

			s := fe.Stats()
			Expect(s.Unconditional).To(Equal(uint64(2)))
			Expect(s.Conditional).To(Equal(uint64(1)))
			Expect(stats.Stats().Unconditional).To(BeNumerically(">=", 2))
		})

		It("should count a wrong BTB target as a misprediction", func() {
			ret := insts.EncodeRET()
			records := []trace.Record{
				{PC: 0x2000, Inst: ret, Taken: true, Target: 0x100},
				{PC: 0x2000, Inst: ret, Taken: true, Target: 0x200},
			}
			feConfig.Depth = 0
			build()
			run(records)

			s := fe.Stats()
			// first: BTB miss; second: stale target
			Expect(s.Mispredictions).To(Equal(uint64(2)))
			target, hit := b.Lookup(0, 0x2000)
			Expect(hit).To(BeTrue())
			Expect(target).To(Equal(uint64(0x200)))
		})
	})

	Describe("Squashed-update recovery", func() {
		BeforeEach(func() {
			feConfig.Depth = 2
			feConfig.TrainOnMispredict = false
			build()
		})

		It("should re-align without redirects", func() {
			run(repeat(100, func(i int) trace.Record { return condBranch(0x1000, i%4 != 0) }))

			s := fe.Stats()
			ps := stats.Stats()
			Expect(ps.Redirects).To(BeZero())
			Expect(ps.Realigns).To(Equal(s.Mispredictions))
			Expect(ps.Commits).To(Equal(s.Committed - s.Mispredictions))
			Expect(p.InFlight()).To(BeZero())
		})
	})

	Describe("Threads", func() {
		BeforeEach(func() {
			numThreads = 2
			build()
		})

		It("should keep per-thread queues", func() {
			src := trace.Interleave(
				trace.NewSliceSource(repeat(30, func(int) trace.Record { return condBranch(0x1000, true) })),
				trace.NewSliceSource(repeat(20, func(int) trace.Record { return condBranch(0x1000, false) })),
			)
			Expect(fe.Run(context.Background(), src)).To(Succeed())

			Expect(fe.Stats().Committed).To(Equal(uint64(50)))
			Expect(fe.InFlight(0)).To(BeZero())
			Expect(fe.InFlight(1)).To(BeZero())
			Expect(p.InFlight()).To(BeZero())
		})

		It("should reject a record for an unknown thread", func() {
			records := []trace.Record{condBranch(0x1000, true)}
			records[0].TID = 5

			err := fe.Run(context.Background(), trace.NewSliceSource(records))
			Expect(err).To(MatchError(ContainSubstring("thread 5")))
		})
	})

	Describe("Cancellation", func() {
		It("should stop and drain when the context is cancelled", func() {
			build()
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := fe.Run(ctx, trace.NewSliceSource(
				repeat(10, func(int) trace.Record { return condBranch(0x1000, true) })))

			Expect(err).To(MatchError(context.Canceled))
			Expect(p.InFlight()).To(BeZero())
		})
	})

	Describe("Windows", func() {
		It("should record one rate per complete window", func() {
			feConfig.WindowSize = 10
			build()
			run(repeat(35, func(int) trace.Record { return condBranch(0x1000, true) }))

			s := fe.Stats()
			Expect(s.Windows).To(HaveLen(3))
			Expect(s.Summary().Windows).To(Equal(3))
			Expect(s.Summary().Last).To(BeNumerically("<=", 10.0))
		})
	})

	It("should reject a negative depth", func() {
		feConfig.Depth = -1
		_, err := frontend.New(feConfig, bpred.MustNewPerceptron(bpred.DefaultConfig()),
			nil, 1)
		Expect(err).To(MatchError(ContainSubstring("depth")))
	})
})

var _ = Describe("Stats", func() {
	It("should summarise windowed rates", func() {
		s := frontend.Stats{Windows: []float64{10, 20, 30}}
		sum := s.Summary()
		Expect(sum.Windows).To(Equal(3))
		Expect(sum.Mean).To(BeNumerically("~", 20.0, 1e-9))
		Expect(sum.StdDev).To(BeNumerically("~", 10.0, 1e-9))
		Expect(sum.Last).To(BeNumerically("~", 30.0))
	})

	It("should handle a single window", func() {
		sum := frontend.Stats{Windows: []float64{4}}.Summary()
		Expect(sum.Mean).To(BeNumerically("~", 4.0))
		Expect(sum.StdDev).To(BeZero())
	})

	It("should report zero rates when empty", func() {
		s := frontend.Stats{}
		Expect(s.Accuracy()).To(BeZero())
		Expect(s.MispredictionRate()).To(BeZero())
		Expect(s.Summary()).To(Equal(frontend.Summary{}))
	})
})
