package models

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

// Condition names read by the chain model.
const (
	Temperature = "temperature"
	Field       = "field"
)

// Chain is a periodic one-dimensional lattice of two species, A (+1) and
// B (-1), equivalent to an Ising chain.
type Chain struct {
	Spins []int8
}

// NewChain returns n sites filled with A.
func NewChain(n int) *Chain {
	c := &Chain{Spins: make([]int8, n)}
	for i := range c.Spins {
		c.Spins[i] = 1
	}
	return c
}

// NewRandomChain returns n sites with random species.
func NewRandomChain(n int, seed int64) *Chain {
	rng := rand.New(rand.NewSource(seed))
	c := &Chain{Spins: make([]int8, n)}
	for i := range c.Spins {
		c.Spins[i] = 1
		if rng.Intn(2) == 0 {
			c.Spins[i] = -1
		}
	}
	return c
}

func (c *Chain) Clone() *Chain {
	out := &Chain{Spins: make([]int8, len(c.Spins))}
	copy(out.Spins, c.Spins)
	return out
}

func (c *Chain) Len() int { return len(c.Spins) }

// Magnetization returns the mean spin per site.
func (c *Chain) Magnetization() float64 {
	if len(c.Spins) == 0 {
		return 0
	}
	m := 0
	for _, s := range c.Spins {
		m += int(s)
	}
	return float64(m) / float64(len(c.Spins))
}

// Energy returns -J*sum(s_i*s_i+1) - h*sum(s_i), per site.
func (c *Chain) Energy(j, h float64) float64 {
	n := len(c.Spins)
	if n == 0 {
		return 0
	}
	bonds, field := 0, 0
	for i, s := range c.Spins {
		bonds += int(s) * int(c.Spins[(i+1)%n])
		field += int(s)
	}
	return (-j*float64(bonds) - h*float64(field)) / float64(n)
}

// Fractions returns the fraction of A and B sites.
func (c *Chain) Fractions() (a, b float64) {
	if len(c.Spins) == 0 {
		return 0, 0
	}
	na := 0
	for _, s := range c.Spins {
		if s > 0 {
			na++
		}
	}
	a = float64(na) / float64(len(c.Spins))
	return a, 1 - a
}

// Metropolis performs single-site flips with Metropolis acceptance. It is the
// move kernel the CLI and tests drive; one Step is one pass of n attempts.
type Metropolis struct {
	Coupling float64
	rng      *rand.Rand
}

func NewMetropolis(coupling float64, seed int64) *Metropolis {
	return &Metropolis{Coupling: coupling, rng: rand.New(rand.NewSource(seed))}
}

// Step runs one pass and returns an elapsed time of 1.
func (m *Metropolis) Step(ctx context.Context, s *monte.State[*Chain]) (float64, error) {
	t, ok := s.Conditions.Get(Temperature)
	if !ok || t <= 0 {
		return 0, fmt.Errorf("metropolis: temperature must be > 0, got %g", t)
	}
	h := s.Conditions.Value(Field)
	beta := 1 / t

	spins := s.Configuration.Spins
	n := len(spins)
	for attempt := 0; attempt < n; attempt++ {
		i := m.rng.Intn(n)
		neighbours := int(spins[(i+n-1)%n]) + int(spins[(i+1)%n])
		dE := 2 * float64(spins[i]) * (m.Coupling*float64(neighbours) + h)
		if dE <= 0 || m.rng.Float64() < math.Exp(-beta*dE) {
			spins[i] = -spins[i]
		}
	}
	return 1, nil
}

// Register adds the chain observables to reg: magnetization, energy (per
// site, using the field condition) and occupation (fractions of A and B).
func Register(reg *sampling.Registry[*Chain], coupling float64) error {
	observables := []sampling.Observable[*Chain]{
		{
			Name:        "magnetization",
			Description: "Mean spin per site",
			Evaluate: func(s *monte.State[*Chain]) ([]float64, error) {
				return []float64{s.Configuration.Magnetization()}, nil
			},
		},
		{
			Name:        "energy",
			Description: "Energy per site",
			Evaluate: func(s *monte.State[*Chain]) ([]float64, error) {
				return []float64{s.Configuration.Energy(coupling, s.Conditions.Value(Field))}, nil
			},
		},
		{
			Name:        "occupation",
			Description: "Fraction of sites holding each species",
			Components:  []string{"A", "B"},
			Evaluate: func(s *monte.State[*Chain]) ([]float64, error) {
				a, b := s.Configuration.Fractions()
				return []float64{a, b}, nil
			},
		},
	}
	for _, o := range observables {
		if err := reg.Add(o); err != nil {
			return err
		}
	}
	return nil
}
