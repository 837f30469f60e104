package completion

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Checker timeline", func() {
	var (
		rec    *recorder
		params Params
	)

	ginkgo.BeforeEach(func() {
		var err error
		rec, err = newRecorder()
		gomega.Expect(err).To(gomega.Succeed())

		params = DefaultParams()
		params.CheckBegin = 10
		params.CheckFrequency = 10
		params.Cutoff.MinCount = 100
		params.Cutoff.MaxCount = 1000000
	})

	ginkgo.It("evaluates on schedule and converges at the first checked count past the minimum", func() {
		params.Criteria = []Criterion{{Observable: "x", Precision: 0.001, Confidence: 0.95}}
		checker, err := New(params, rec.reg)
		gomega.Expect(err).To(gomega.Succeed())

		var checked []int64
		var res Result
		for n := int64(1); n <= 200; n++ {
			gomega.Expect(rec.record(4.2)).To(gomega.Succeed())
			res = checker.Check(rec, Progress{Count: n, Samples: rec.count()})
			if res.Checked {
				checked = append(checked, n)
			}
			if n < 100 {
				gomega.Expect(res.Complete).To(gomega.BeFalse(), "complete at count %d", n)
			}
			if res.Complete {
				break
			}
		}

		gomega.Expect(checked).To(gomega.Equal([]int64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}))
		gomega.Expect(res.Complete).To(gomega.BeTrue())
		gomega.Expect(res.Reason).To(gomega.Equal(Converged))
		gomega.Expect(res.Progress.Count).To(gomega.Equal(int64(100)))
		gomega.Expect(res.Criteria).To(gomega.HaveLen(1))
		gomega.Expect(res.Criteria[0].Estimate.Mean).To(gomega.BeNumerically("~", 4.2, 1e-12))
	})

	ginkgo.It("skips convergence evaluation between scheduled ticks", func() {
		params.Criteria = []Criterion{{Observable: "x", Precision: 1}}
		checker, err := New(params, rec.reg)
		gomega.Expect(err).To(gomega.Succeed())

		for n := int64(1); n <= 9; n++ {
			gomega.Expect(rec.record(1)).To(gomega.Succeed())
			res := checker.Check(rec, Progress{Count: n, Samples: rec.count()})
			gomega.Expect(res.Checked).To(gomega.BeFalse())
			gomega.Expect(res.Criteria).To(gomega.BeEmpty())
		}
	})

	ginkgo.It("waits for the next scheduled tick once the minimum is met", func() {
		params.Cutoff.MinCount = 105
		params.Criteria = []Criterion{{Observable: "x", Precision: 1}}
		checker, err := New(params, rec.reg)
		gomega.Expect(err).To(gomega.Succeed())

		var res Result
		for n := int64(1); n <= 200 && !res.Complete; n++ {
			gomega.Expect(rec.record(1)).To(gomega.Succeed())
			res = checker.Check(rec, Progress{Count: n, Samples: rec.count()})
		}
		gomega.Expect(res.Reason).To(gomega.Equal(Converged))
		gomega.Expect(res.Progress.Count).To(gomega.Equal(int64(110)))
	})

	ginkgo.It("forces CUTOFF_REACHED at max_count when criteria never converge", func() {
		params.Criteria = []Criterion{{Observable: "x", Precision: 1e-9}}
		checker, err := New(params, rec.reg)
		gomega.Expect(err).To(gomega.Succeed())

		gen := noise(42)
		for i := 0; i < 20; i++ {
			gomega.Expect(rec.record(gen())).To(gomega.Succeed())
		}

		samples := rec.count()
		for _, count := range []int64{100, 5000, 999999} {
			res := checker.Check(rec, Progress{Count: count, Samples: samples})
			gomega.Expect(res.Complete).To(gomega.BeFalse(), "complete at count %d", count)
		}

		res := checker.Check(rec, Progress{Count: 1000000, Samples: samples})
		gomega.Expect(res.Complete).To(gomega.BeTrue())
		gomega.Expect(res.Reason).To(gomega.Equal(CutoffReached))
		gomega.Expect(res.Limit).To(gomega.Equal("max_count"))

		again := checker.Check(rec, Progress{Count: 1000001, Samples: samples})
		gomega.Expect(again.Reason).To(gomega.Equal(CutoffReached))
		gomega.Expect(again.Progress.Count).To(gomega.Equal(int64(1000000)))
	})

	ginkgo.It("reports CUTOFF_REACHED even when converged on the same tick", func() {
		params.Cutoff.MinCount = 0
		params.Cutoff.MaxCount = 20
		params.Criteria = []Criterion{{Observable: "x", Precision: 1}}
		checker, err := New(params, rec.reg)
		gomega.Expect(err).To(gomega.Succeed())

		for i := 0; i < 20; i++ {
			gomega.Expect(rec.record(1)).To(gomega.Succeed())
		}
		res := checker.Check(rec, Progress{Count: 20, Samples: rec.count()})
		gomega.Expect(res.Checked).To(gomega.BeTrue())
		gomega.Expect(res.Criteria[0].Satisfied).To(gomega.BeTrue())
		gomega.Expect(res.Reason).To(gomega.Equal(CutoffReached))
	})
})
