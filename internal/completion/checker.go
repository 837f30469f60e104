package completion

import (
	"fmt"

	"github.com/san-kum/monte/internal/analysis"
	"github.com/san-kum/monte/internal/sampling"
)

// Reason explains a completion verdict.
type Reason int

const (
	NotComplete Reason = iota
	Converged
	// CutoffReached means a maximum forced the stop; the result may not be
	// statistically reliable.
	CutoffReached
)

func (r Reason) String() string {
	switch r {
	case NotComplete:
		return "not_complete"
	case Converged:
		return "converged"
	case CutoffReached:
		return "cutoff_reached"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Reason) UnmarshalText(b []byte) error {
	switch string(b) {
	case "not_complete":
		*r = NotComplete
	case "converged":
		*r = Converged
	case "cutoff_reached":
		*r = CutoffReached
	default:
		return fmt.Errorf("unknown reason %q", b)
	}
	return nil
}

// CriterionResult is the outcome of one criterion, for one component, at the
// last convergence evaluation.
type CriterionResult struct {
	Observable string            `json:"observable"`
	Component  int               `json:"component"`
	Name       string            `json:"name,omitempty"`
	Precision  float64           `json:"precision"`
	Confidence float64           `json:"confidence"`
	Resolved   bool              `json:"resolved"`
	Satisfied  bool              `json:"satisfied"`
	Estimate   analysis.Estimate `json:"estimate"`
	// Error explains why a criterion that has data cannot be resolved.
	Error string `json:"error,omitempty"`
}

// Result is the verdict for one tick. It is rebuilt on every call to Check.
type Result struct {
	Complete bool     `json:"complete"`
	Reason   Reason   `json:"reason"`
	Progress Progress `json:"progress"`
	// Checked reports whether convergence was evaluated on this tick.
	Checked bool `json:"checked"`
	// Limit names the maximum that forced CutoffReached.
	Limit    string            `json:"limit,omitempty"`
	Criteria []CriterionResult `json:"criteria"`
}

// SeriesSource gives read access to the observables recorded so far.
type SeriesSource interface {
	Series(name string) (*sampling.Series, bool)
}

// Checker decides when a run is complete. It starts RUNNING and, once it
// returns a complete Result, keeps returning that Result.
type Checker struct {
	params    Params
	targets   []target
	last      []CriterionResult
	checkedAt int64
	final     *Result
}

// New validates params and resolves component selectors against catalog. A
// nil catalog skips name resolution; component names then fail.
func New(params Params, catalog sampling.Catalog) (*Checker, error) {
	targets, err := params.resolve(catalog)
	if err != nil {
		return nil, err
	}
	return &Checker{params: params, targets: targets, checkedAt: -1}, nil
}

// Check evaluates cutoffs for p and, on scheduled ticks, convergence of src.
func (c *Checker) Check(src SeriesSource, p Progress) Result {
	if c.final != nil {
		return c.final.clone()
	}

	res := Result{Reason: NotComplete, Progress: p}
	converged := false
	if c.due(p.Samples) {
		res.Checked = true
		c.checkedAt = p.Samples
		c.last, converged = c.evaluate(src)
	}
	res.Criteria = cloneCriteria(c.last)

	if limit := c.params.Cutoff.maxReached(p); limit != "" {
		res.Complete, res.Reason, res.Limit = true, CutoffReached, limit
		c.final = &res
		return res.clone()
	}
	if converged && c.params.Cutoff.minReached(p) {
		res.Complete, res.Reason = true, Converged
		c.final = &res
		return res.clone()
	}
	return res
}

// Done reports whether a terminal verdict was reached.
func (c *Checker) Done() bool { return c.final != nil }

// Status returns the current state: NotComplete while running.
func (c *Checker) Status() Reason {
	if c.final == nil {
		return NotComplete
	}
	return c.final.Reason
}

// due reports whether sample count n is scheduled for evaluation and has not
// been evaluated yet.
func (c *Checker) due(n int64) bool {
	return n != c.checkedAt && n >= c.params.CheckBegin && (n-c.params.CheckBegin)%c.params.CheckFrequency == 0
}

// evaluate returns one result per (criterion, component) and whether all are
// satisfied. An empty criteria set is satisfied.
func (c *Checker) evaluate(src SeriesSource) ([]CriterionResult, bool) {
	var out []CriterionResult
	all := true
	for _, t := range c.targets {
		rs := c.evaluateTarget(src, t)
		for _, r := range rs {
			all = all && r.Satisfied
		}
		out = append(out, rs...)
	}
	return out, all
}

func (c *Checker) evaluateTarget(src SeriesSource, t target) []CriterionResult {
	base := CriterionResult{
		Observable: t.criterion.Observable,
		Component:  t.component,
		Name:       t.name,
		Precision:  t.criterion.Precision,
		Confidence: t.confidence,
	}

	sr, ok := src.Series(t.criterion.Observable)
	if !ok || sr.Len() < 2 {
		if ok {
			base.Estimate.N = sr.Len()
		}
		return []CriterionResult{base}
	}

	components := []int{t.component}
	if t.component < 0 {
		components = make([]int, sr.Width())
		for i := range components {
			components[i] = i
		}
		if len(components) == 0 {
			return []CriterionResult{base}
		}
	}

	names := sr.Components()
	out := make([]CriterionResult, 0, len(components))
	for _, j := range components {
		r := base
		r.Component = j
		if j < len(names) {
			r.Name = names[j]
		}
		x, ok := sr.Component(j)
		if !ok {
			r.Estimate.N = sr.Len()
			r.Error = fmt.Sprintf("component %d out of range, %s has %d", j, sr.Name(), sr.Width())
			out = append(out, r)
			continue
		}
		est, ok := c.params.Estimator.Estimate(x, t.confidence)
		r.Estimate = est
		r.Resolved = ok
		r.Satisfied = ok && est.HalfWidth <= t.criterion.Precision
		if !ok {
			r.Error = "series has a non-finite value"
		}
		out = append(out, r)
	}
	return out
}

func (r Result) clone() Result {
	r.Criteria = cloneCriteria(r.Criteria)
	return r
}

func cloneCriteria(cs []CriterionResult) []CriterionResult {
	if cs == nil {
		return nil
	}
	return append([]CriterionResult(nil), cs...)
}
