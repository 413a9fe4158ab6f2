package trace_test

import (
	"bytes"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/trace"
)

var _ = Describe("Reader", func() {
	It("should parse records and skip comments", func() {
		input := `# tid pc inst taken target
0 0x1000 0x54000040 1 0x1008

1 2000 94000010 0 2040
`
		r := trace.NewReader(strings.NewReader(input))

		rec, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(Equal(trace.Record{
			TID: 0, PC: 0x1000, Inst: 0x54000040, Taken: true, Target: 0x1008,
		}))

		rec, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(Equal(trace.Record{
			TID: 1, PC: 0x2000, Inst: 0x94000010, Taken: false, Target: 0x2040,
		}))

		_, err = r.Next()
		Expect(err).To(Equal(io.EOF))
	})

	DescribeTable("malformed lines",
		func(line, reason string) {
			r := trace.NewReader(strings.NewReader("\n" + line + "\n"))
			_, err := r.Next()
			Expect(err).To(MatchError(trace.ErrMalformed))
			Expect(err.Error()).To(ContainSubstring("line 2"))
			Expect(err.Error()).To(ContainSubstring(reason))
		},
		Entry("too few fields", "0 0x1000 0x0 1", "want 5 fields"),
		Entry("bad tid", "x 0x1000 0x0 1 0x0", "bad tid"),
		Entry("negative tid", "-1 0x1000 0x0 1 0x0", "bad tid"),
		Entry("bad pc", "0 zz 0x0 1 0x0", "bad pc"),
		Entry("inst too wide", "0 0x1000 0x100000000 1 0x0", "bad inst"),
		Entry("bad taken", "0 0x1000 0x0 T 0x0", "bad taken flag"),
		Entry("bad target", "0 0x1000 0x0 1 g", "bad target"),
	)
})

var _ = Describe("Writer", func() {
	It("should write records the reader accepts", func() {
		records := []trace.Record{
			{TID: 0, PC: 0x1000, Inst: 0x54000040, Taken: true, Target: 0x1008},
			{TID: 3, PC: 0xffff0000, Inst: 0xD65F03C0, Taken: true, Target: 0x40},
		}

		var buf bytes.Buffer
		w := trace.NewWriter(&buf)
		Expect(w.WriteAll(trace.NewSliceSource(records))).To(Succeed())

		Expect(buf.String()).To(HavePrefix("0 0x1000 0x54000040 1 0x1008\n"))

		got, err := trace.Collect(trace.NewReader(&buf))
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(records))
	})
})

var _ = Describe("Sources", func() {
	records := func(pcs ...uint64) []trace.Record {
		out := make([]trace.Record, len(pcs))
		for i, pc := range pcs {
			out[i] = trace.Record{PC: pc}
		}
		return out
	}

	It("should interleave round-robin and stamp thread ids", func() {
		src := trace.Interleave(
			trace.NewSliceSource(records(0x10, 0x14, 0x18)),
			trace.NewSliceSource(records(0x20)),
		)

		got, err := trace.Collect(src)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]trace.Record{
			{TID: 0, PC: 0x10},
			{TID: 1, PC: 0x20},
			{TID: 0, PC: 0x14},
			{TID: 0, PC: 0x18},
		}))
	})

	It("should end an empty interleave immediately", func() {
		_, err := trace.Interleave().Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("should limit a source", func() {
		got, err := trace.Collect(trace.Limit(
			trace.NewSliceSource(records(1, 2, 3, 4)), 2))
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
	})
})
