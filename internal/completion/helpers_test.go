package completion

import (
	"math/rand"
	"testing"

	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

type reading struct {
	values []float64
}

func (r *reading) Clone() *reading {
	return &reading{values: append([]float64(nil), r.values...)}
}

func readValues(s *monte.State[*reading]) ([]float64, error) {
	return s.Configuration.values, nil
}

// recorder feeds values straight into a real Sampler.
type recorder struct {
	sampler *sampling.Sampler[*reading]
	reg     *sampling.Registry[*reading]
	state   monte.State[*reading]
	next    int64
}

func newRecorder(components ...string) (*recorder, error) {
	reg := sampling.NewRegistry[*reading]()
	if err := reg.Register("x", "scalar reading", readValues); err != nil {
		return nil, err
	}
	if err := reg.Register("comp_n", "vector reading", readValues, components...); err != nil {
		return nil, err
	}
	p := sampling.DefaultParams()
	p.Names = []string{"x", "comp_n"}
	smp, err := sampling.NewSampler(reg, p)
	if err != nil {
		return nil, err
	}
	return &recorder{
		sampler: smp,
		reg:     reg,
		state:   monte.NewState(&reading{}, monte.Conditions{}),
	}, nil
}

func mustRecorder(t *testing.T, components ...string) *recorder {
	t.Helper()
	r, err := newRecorder(components...)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	return r
}

func (r *recorder) record(values ...float64) error {
	r.state.Configuration.values = values
	err := r.sampler.Sample(sampling.Tick{Index: r.next, Progress: float64(r.next)}, &r.state)
	r.next++
	return err
}

func (r *recorder) Series(name string) (*sampling.Series, bool) {
	return r.sampler.Series(name)
}

func (r *recorder) count() int64 { return r.sampler.Count() }

// noise returns a reproducible source of N(0, 1) values.
func noise(seed int64) func() float64 {
	rng := rand.New(rand.NewSource(seed))
	return rng.NormFloat64
}
