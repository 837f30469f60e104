package sampling

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/monte/internal/monte"
)

// Sampler records the requested observables on every fired tick.
type Sampler[C monte.Configuration[C]] struct {
	observables []Observable[C]
	series      map[string]*Series
	trajectory  *Trajectory[C]

	count     int64
	lastIndex int64
}

// NewSampler resolves every requested name against reg. Unknown names fail
// here, before any progress is made.
func NewSampler[C monte.Configuration[C]](reg *Registry[C], p Params) (*Sampler[C], error) {
	if reg == nil {
		return nil, monte.Configf("registry", "nil registry")
	}
	if err := p.Validate(reg); err != nil {
		return nil, err
	}

	names := append([]string(nil), p.Names...)
	sort.Strings(names)

	s := &Sampler[C]{
		observables: make([]Observable[C], 0, len(names)),
		series:      make(map[string]*Series, len(names)),
		lastIndex:   -1,
	}
	for _, n := range names {
		o, err := reg.Lookup(n)
		if err != nil {
			return nil, err
		}
		s.observables = append(s.observables, o)
		s.series[n] = newSeries(n, o.Components)
	}
	if p.Trajectory {
		s.trajectory = &Trajectory[C]{}
	}
	return s, nil
}

// Sample evaluates every observable for tick. Either all results are appended
// or, on the first failure, none are and an *monte.EvaluationError is returned.
func (s *Sampler[C]) Sample(tick Tick, state *monte.State[C]) error {
	if tick.Index <= s.lastIndex {
		return fmt.Errorf("%w: sample index %d after %d", monte.ErrOutOfOrder, tick.Index, s.lastIndex)
	}

	pending := make([][]float64, len(s.observables))
	for i, o := range s.observables {
		v, err := o.Evaluate(state)
		if err != nil {
			return s.evalErr(o.Name, tick, err)
		}
		if err := s.checkWidth(o, len(v)); err != nil {
			return s.evalErr(o.Name, tick, err)
		}
		for j, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return s.evalErr(o.Name, tick, fmt.Errorf("component %d is %g", j, x))
			}
		}
		pending[i] = append([]float64(nil), v...)
	}

	for i, o := range s.observables {
		s.series[o.Name].append(Sample{Index: tick.Index, Progress: tick.Progress, Values: pending[i]})
	}
	if s.trajectory != nil {
		s.trajectory.append(Snapshot[C]{
			Index:         tick.Index,
			Progress:      tick.Progress,
			Configuration: state.Configuration.Clone(),
		})
	}
	s.count++
	s.lastIndex = tick.Index
	return nil
}

func (s *Sampler[C]) checkWidth(o Observable[C], n int) error {
	if len(o.Components) > 0 && n != len(o.Components) {
		return fmt.Errorf("returned %d values for %d declared components", n, len(o.Components))
	}
	if w := s.series[o.Name].Width(); s.series[o.Name].Len() > 0 && n != w {
		return fmt.Errorf("returned %d values, previous samples have %d", n, w)
	}
	return nil
}

func (s *Sampler[C]) evalErr(name string, tick Tick, err error) error {
	return &monte.EvaluationError{Observable: name, Index: tick.Index, Progress: tick.Progress, Wrapped: err}
}

// Count returns the number of committed sample events.
func (s *Sampler[C]) Count() int64 { return s.count }

// Series returns the record of one observable.
func (s *Sampler[C]) Series(name string) (*Series, bool) {
	sr, ok := s.series[name]
	return sr, ok
}

// Names returns the sampled observable names in evaluation order.
func (s *Sampler[C]) Names() []string {
	names := make([]string, len(s.observables))
	for i, o := range s.observables {
		names[i] = o.Name
	}
	return names
}

// Trajectory returns the configuration snapshots, or nil when not requested.
func (s *Sampler[C]) Trajectory() *Trajectory[C] { return s.trajectory }
