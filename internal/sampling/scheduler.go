package sampling

import "math"

// Tick identifies one fired sample event.
type Tick struct {
	Index    int64
	Progress float64
}

// Scheduler turns progress values into sample events. Indices only move
// forward, so it is safe to resume from a checkpointed index.
type Scheduler struct {
	mode    Mode
	method  Method
	a, b, c float64

	next  int64
	last  float64
	fired bool
}

func NewScheduler(p Params) (*Scheduler, error) {
	if err := p.Validate(nil); err != nil {
		return nil, err
	}
	s := &Scheduler{
		mode:   p.Mode,
		method: p.Method,
		a:      p.Schedule[0],
		b:      p.Schedule[1],
	}
	if len(p.Schedule) == 3 {
		s.c = p.Schedule[2]
	}
	return s, nil
}

// Target returns the progress value scheduled for index k. LOG targets are
// rounded to a whole pass in BY_PASS mode; LINEAR targets are exact, so a
// non-integer one is never hit by a pass.
func (s *Scheduler) Target(k int64) float64 {
	if s.method == Log {
		t := s.a + math.Pow(s.b, float64(k)-s.c)
		if s.mode == ByPass {
			t = math.Round(t)
		}
		return t
	}
	return s.a + s.b*float64(k)
}

// Due reports whether progress p should be sampled and, if so, with which
// index. Calling Due again with the same p never fires twice.
func (s *Scheduler) Due(p float64) (Tick, bool) {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Tick{}, false
	}
	if s.mode == ByTime {
		return s.dueTime(p)
	}
	return s.duePass(p)
}

func (s *Scheduler) duePass(p float64) (Tick, bool) {
	for {
		t := s.Target(s.next)
		if (s.fired && t <= s.last) || t < p {
			s.next++
			continue
		}
		if t != p {
			return Tick{}, false
		}
		tick := Tick{Index: s.next, Progress: p}
		s.last, s.fired = t, true
		s.next++
		return tick, true
	}
}

func (s *Scheduler) dueTime(p float64) (Tick, bool) {
	if s.Target(s.next) > p {
		return Tick{}, false
	}
	tick := Tick{Index: s.next, Progress: p}
	for s.Target(s.next) <= p {
		s.next++
	}
	s.last, s.fired = p, true
	return tick, true
}

// NextTarget returns the progress value at which the scheduler will next fire,
// assuming progress is not skipped past it.
func (s *Scheduler) NextTarget() float64 {
	k := s.next
	for s.mode == ByPass && s.fired && s.Target(k) <= s.last {
		k++
	}
	return s.Target(k)
}

// Next returns the index the scheduler will consider next. Store it to resume.
func (s *Scheduler) Next() int64 { return s.next }

// Resume restarts the schedule at index k, treating every earlier target as
// already consumed.
func (s *Scheduler) Resume(k int64) {
	if k < 0 {
		k = 0
	}
	s.next = k
	s.fired = k > 0
	if s.fired {
		s.last = s.Target(k - 1)
	}
}
