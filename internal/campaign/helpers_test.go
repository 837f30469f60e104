package campaign

import (
	"context"
	"errors"

	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

// lattice is a tiny configuration: one occupant per site.
type lattice struct {
	sites []string
}

func (l *lattice) Clone() *lattice {
	return &lattice{sites: append([]string(nil), l.sites...)}
}

// counter counts the passes applied to it.
type counter struct {
	n int
}

func (c *counter) Clone() *counter { return &counter{n: c.n} }

var errFlaky = errors.New("flaky evaluator")

// counterRegistry registers "n" and "flaky", which fails on every sample
// event whose pass count is a multiple of failEvery (never when 0).
func counterRegistry(failEvery int) *sampling.Registry[*counter] {
	reg := sampling.NewRegistry[*counter]()
	_ = reg.Register("n", "passes applied", func(s *monte.State[*counter]) ([]float64, error) {
		return []float64{float64(s.Configuration.n)}, nil
	})
	_ = reg.Register("flaky", "fails periodically", func(s *monte.State[*counter]) ([]float64, error) {
		if failEvery > 0 && s.Configuration.n%failEvery == 0 {
			return nil, errFlaky
		}
		return []float64{1}, nil
	})
	return reg
}

func increment(_ context.Context, s *monte.State[*counter]) (float64, error) {
	s.Configuration.n++
	return 0.5, nil
}

var step = StepperFunc[*counter](increment)
