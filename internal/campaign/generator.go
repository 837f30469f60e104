package campaign

import (
	"fmt"

	"github.com/san-kum/monte/internal/monte"
)

// Generator produces the initial states of a campaign in order.
type Generator[C monte.Configuration[C]] interface {
	HasNext() bool
	// Next returns the next initial state. prev is the final state of the
	// previous run, nil before the first run.
	Next(prev *monte.State[C]) (monte.State[C], error)
}

// IncrementalGenerator yields n states with conditions initial + i*increment.
// When dependent, state i > 0 starts from the final configuration of run i-1;
// otherwise every state starts from a copy of the initial configuration.
type IncrementalGenerator[C monte.Configuration[C]] struct {
	initial    monte.State[C]
	conditions []monte.Conditions
	dependent  bool
	next       int
}

func NewIncremental[C monte.Configuration[C]](initial monte.State[C], increment monte.Conditions, n int, dependent bool) (*IncrementalGenerator[C], error) {
	if n <= 0 {
		return nil, monte.Configf("n_states", "must be > 0, got %d", n)
	}
	if !initial.Conditions.SameNames(increment) {
		return nil, monte.Configf("conditions_increment", "names %v do not match initial conditions %v",
			increment.Names(), initial.Conditions.Names())
	}

	conds := make([]monte.Conditions, n)
	for i := range conds {
		c, err := initial.Conditions.Add(increment.Scale(float64(i)))
		if err != nil {
			return nil, err
		}
		conds[i] = c
	}

	return &IncrementalGenerator[C]{
		initial:    initial.Snapshot(),
		conditions: conds,
		dependent:  dependent,
	}, nil
}

func (g *IncrementalGenerator[C]) HasNext() bool { return g.next < len(g.conditions) }

// Len returns the total number of states.
func (g *IncrementalGenerator[C]) Len() int { return len(g.conditions) }

// Index returns the index of the state the next call to Next will return.
func (g *IncrementalGenerator[C]) Index() int { return g.next }

// Conditions returns the conditions of state i, fixed at construction.
func (g *IncrementalGenerator[C]) Conditions(i int) (monte.Conditions, error) {
	if i < 0 || i >= len(g.conditions) {
		return monte.Conditions{}, fmt.Errorf("%w: state %d of %d", monte.ErrRange, i, len(g.conditions))
	}
	return g.conditions[i].Clone(), nil
}

func (g *IncrementalGenerator[C]) Next(prev *monte.State[C]) (monte.State[C], error) {
	if !g.HasNext() {
		return monte.State[C]{}, fmt.Errorf("%w: all %d states generated", monte.ErrRange, len(g.conditions))
	}

	var config C
	if g.dependent && g.next > 0 {
		if prev == nil {
			return monte.State[C]{}, fmt.Errorf("%w: state %d needs the final state of run %d", monte.ErrOutOfOrder, g.next, g.next-1)
		}
		config = prev.Configuration.Clone()
	} else {
		config = g.initial.Configuration.Clone()
	}

	s := monte.NewState(config, g.conditions[g.next].Clone())
	g.next++
	return s, nil
}
