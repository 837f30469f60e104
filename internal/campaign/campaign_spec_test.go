package campaign

import (
	"context"
	"errors"
	"sync"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/san-kum/monte/internal/completion"
	"github.com/san-kum/monte/internal/models"
	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

func chainRunner(maxCount int64) *Runner[*models.Chain] {
	reg := sampling.NewRegistry[*models.Chain]()
	gomega.Expect(models.Register(reg, 1)).To(gomega.Succeed())

	sp := sampling.DefaultParams()
	sp.Names = []string{"energy", "magnetization", "occupation"}
	sp.Trajectory = true

	cp := completion.DefaultParams()
	cp.CheckBegin = 20
	cp.CheckFrequency = 10
	cp.Cutoff.MinCount = 20
	cp.Cutoff.MaxCount = maxCount
	cp.Criteria = []completion.Criterion{
		{Observable: "energy", Precision: 0.05},
		{Observable: "occupation", Component: "B", Precision: 0.05},
	}

	r, err := NewRunner(reg, Config{Sampling: sp, Completion: cp})
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return r
}

func chainGenerator(n int, dependent bool) *IncrementalGenerator[*models.Chain] {
	initial := monte.NewState(models.NewRandomChain(64, 11), monte.NewConditions(
		monte.Cond(models.Temperature, 1.0), monte.Cond(models.Field, 0)))
	inc := monte.NewConditions(monte.Cond(models.Temperature, 0.5), monte.Cond(models.Field, 0.1))
	gen, err := NewIncremental(initial, inc, n, dependent)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return gen
}

// memoryWriter keeps every run it is handed.
type memoryWriter struct {
	mu   sync.Mutex
	runs map[string][]*RunResult[*models.Chain]
}

func (w *memoryWriter) WriteRun(_ context.Context, name string, res *RunResult[*models.Chain]) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.runs == nil {
		w.runs = make(map[string][]*RunResult[*models.Chain])
	}
	w.runs[name] = append(w.runs[name], res)
	return nil
}

var _ = ginkgo.Describe("Campaign", func() {
	ginkgo.It("runs every state to a terminal verdict", func() {
		w := &memoryWriter{}
		results, err := Run(context.Background(), chainGenerator(4, false), chainRunner(2000), models.NewMetropolis(1, 5), w)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(results).To(gomega.HaveLen(4))
		gomega.Expect(w.runs[""]).To(gomega.HaveLen(4))

		for i, res := range results {
			gomega.Expect(res.Run).To(gomega.Equal(i))
			gomega.Expect(res.Completion.Complete).To(gomega.BeTrue())
			gomega.Expect(res.Completion.Reason).To(gomega.BeElementOf(completion.Converged, completion.CutoffReached))
			gomega.Expect(res.Passes).To(gomega.BeNumerically(">=", 20))
			gomega.Expect(res.Passes).To(gomega.BeNumerically("<=", 2000))
			gomega.Expect(res.Names).To(gomega.Equal([]string{"energy", "magnetization", "occupation"}))
			gomega.Expect(res.Series["occupation"].Width()).To(gomega.Equal(2))
		}
		gomega.Expect(results[3].Initial.Value(models.Temperature)).To(gomega.BeNumerically("~", 2.5, 1e-12))
		gomega.Expect(results[3].Initial.Value(models.Field)).To(gomega.BeNumerically("~", 0.3, 1e-12))
	})

	ginkgo.It("starts every independent run from the initial configuration", func() {
		results, err := Run(context.Background(), chainGenerator(3, false), chainRunner(200), models.NewMetropolis(1, 5), nil)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		first := results[0].Trajectory.At(0).Configuration.Spins
		for _, res := range results[1:] {
			gomega.Expect(res.Trajectory.At(0).Configuration.Spins).To(gomega.Equal(first))
		}
	})

	ginkgo.It("chains final configurations when runs are dependent", func() {
		results, err := Run(context.Background(), chainGenerator(3, true), chainRunner(200), models.NewMetropolis(1, 5), nil)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		for i := 1; i < len(results); i++ {
			start := results[i].Trajectory.At(0).Configuration.Spins
			gomega.Expect(start).To(gomega.Equal(results[i-1].Final.Configuration.Spins))
		}
	})

	ginkgo.It("stops the campaign at the first failed run", func() {
		fail := StepperFunc[*models.Chain](func(context.Context, *monte.State[*models.Chain]) (float64, error) {
			return 0, errors.New("kernel failed")
		})
		results, err := Run(context.Background(), chainGenerator(3, false), chainRunner(200), fail, nil)
		gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("kernel failed")))
		gomega.Expect(results).To(gomega.HaveLen(1))
	})

	ginkgo.Describe("RunAll", func() {
		ginkgo.It("runs independent campaigns on a bounded pool", func() {
			runner := chainRunner(100)
			w := &memoryWriter{}
			campaigns := []Campaign[*models.Chain]{
				{Name: "low", Generator: chainGenerator(2, true), Runner: runner, Stepper: models.NewMetropolis(1, 1), Writer: w},
				{Name: "mid", Generator: chainGenerator(2, false), Runner: runner, Stepper: models.NewMetropolis(1, 2), Writer: w},
				{Name: "high", Generator: chainGenerator(3, true), Runner: runner, Stepper: models.NewMetropolis(1, 3), Writer: w},
			}

			results, err := RunAll(context.Background(), campaigns, 2)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(results).To(gomega.HaveLen(3))
			gomega.Expect(results[0]).To(gomega.HaveLen(2))
			gomega.Expect(results[2]).To(gomega.HaveLen(3))
			gomega.Expect(w.runs).To(gomega.HaveKey("mid"))
			gomega.Expect(w.runs["high"]).To(gomega.HaveLen(3))
		})

		ginkgo.It("rejects a campaign without a generator", func() {
			_, err := RunAll(context.Background(), []Campaign[*models.Chain]{{Name: "empty"}}, 1)
			gomega.Expect(errors.Is(err, monte.ErrConfiguration)).To(gomega.BeTrue())
		})
	})
})
