package sampling

import "github.com/san-kum/monte/internal/monte"

// Sample is one recorded value of an observable.
type Sample struct {
	Index    int64     `json:"index"`
	Progress float64   `json:"progress"`
	Values   []float64 `json:"values"`
}

// Series is the append-only record of one observable over a run. Only the
// Sampler appends; readers get copies.
type Series struct {
	name       string
	components []string
	samples    []Sample
}

func newSeries(name string, components []string) *Series {
	return &Series{name: name, components: append([]string(nil), components...)}
}

func (s *Series) Name() string { return s.name }

// Components returns the declared component names, possibly empty.
func (s *Series) Components() []string {
	return append([]string(nil), s.components...)
}

func (s *Series) Len() int { return len(s.samples) }

// Width returns the vector length of the recorded values, 0 when empty.
func (s *Series) Width() int {
	if len(s.samples) == 0 {
		return 0
	}
	return len(s.samples[0].Values)
}

func (s *Series) At(i int) Sample {
	smp := s.samples[i]
	smp.Values = append([]float64(nil), smp.Values...)
	return smp
}

func (s *Series) Last() (Sample, bool) {
	if len(s.samples) == 0 {
		return Sample{}, false
	}
	return s.At(len(s.samples) - 1), true
}

// Component returns component j of every sample in order.
func (s *Series) Component(j int) ([]float64, bool) {
	if j < 0 || j >= s.Width() {
		return nil, false
	}
	out := make([]float64, len(s.samples))
	for i, smp := range s.samples {
		out[i] = smp.Values[j]
	}
	return out, true
}

// Samples returns a deep copy of every recorded sample.
func (s *Series) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	for i := range s.samples {
		out[i] = s.At(i)
	}
	return out
}

func (s *Series) append(smp Sample) {
	s.samples = append(s.samples, smp)
}

// Snapshot is a deep copy of the configuration taken at a sample event.
type Snapshot[C monte.Configuration[C]] struct {
	Index         int64
	Progress      float64
	Configuration C
}

// Trajectory is the append-only sequence of configuration snapshots of a run.
// Snapshots are owned by the trajectory and must be treated as read-only.
type Trajectory[C monte.Configuration[C]] struct {
	snapshots []Snapshot[C]
}

func (t *Trajectory[C]) Len() int { return len(t.snapshots) }

func (t *Trajectory[C]) At(i int) Snapshot[C] { return t.snapshots[i] }

func (t *Trajectory[C]) Snapshots() []Snapshot[C] {
	return append([]Snapshot[C](nil), t.snapshots...)
}

func (t *Trajectory[C]) append(s Snapshot[C]) {
	t.snapshots = append(t.snapshots, s)
}
