package completion

import (
	"time"

	"github.com/san-kum/monte/internal/analysis"
	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

// DefaultConfidence is used by criteria that leave Confidence unset.
const DefaultConfidence = 0.95

// Criterion requests convergence of one observable, or of one component of it.
// Component selects by declared component name, ComponentIndex by position.
// With neither set every component must converge.
type Criterion struct {
	Observable     string  `yaml:"observable" json:"observable"`
	Component      string  `yaml:"component,omitempty" json:"component,omitempty"`
	ComponentIndex *int    `yaml:"component_index,omitempty" json:"component_index,omitempty"`
	Precision      float64 `yaml:"precision" json:"precision"`
	Confidence     float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

// Cutoff bounds a run independently of convergence. A zero maximum means no
// limit. Clocktime is never measured here: callers report it in Progress.
type Cutoff struct {
	MinCount     int64         `yaml:"min_count" json:"min_count"`
	MaxCount     int64         `yaml:"max_count" json:"max_count"`
	MinSample    int64         `yaml:"min_sample" json:"min_sample"`
	MaxSample    int64         `yaml:"max_sample" json:"max_sample"`
	MinTime      float64       `yaml:"min_time" json:"min_time"`
	MaxTime      float64       `yaml:"max_time" json:"max_time"`
	MinClocktime time.Duration `yaml:"min_clocktime" json:"min_clocktime"`
	MaxClocktime time.Duration `yaml:"max_clocktime" json:"max_clocktime"`
}

// Params configures a Checker. Convergence is evaluated when the sample count
// n satisfies n >= CheckBegin and (n - CheckBegin) % CheckFrequency == 0.
type Params struct {
	Criteria       []Criterion     `yaml:"criteria" json:"criteria"`
	CheckBegin     int64           `yaml:"check_begin" json:"check_begin"`
	CheckFrequency int64           `yaml:"check_frequency" json:"check_frequency"`
	Estimator      analysis.Method `yaml:"estimator" json:"estimator"`
	Cutoff         Cutoff          `yaml:"cutoff" json:"cutoff"`
}

func DefaultParams() Params {
	return Params{
		CheckBegin:     0,
		CheckFrequency: 1,
		Estimator:      analysis.BatchMeans,
	}
}

// Progress is what the run loop reports on every tick.
type Progress struct {
	Count     int64         `json:"count"`
	Samples   int64         `json:"samples"`
	Time      float64       `json:"time"`
	Clocktime time.Duration `json:"clocktime"`
}

func (c Cutoff) validate() error {
	if c.MinCount < 0 || c.MaxCount < 0 || c.MinSample < 0 || c.MaxSample < 0 ||
		c.MinTime < 0 || c.MaxTime < 0 || c.MinClocktime < 0 || c.MaxClocktime < 0 {
		return monte.Configf("cutoff", "limits must be non-negative")
	}
	if c.MaxCount > 0 && c.MinCount > c.MaxCount {
		return monte.Configf("cutoff", "min_count %d > max_count %d", c.MinCount, c.MaxCount)
	}
	if c.MaxSample > 0 && c.MinSample > c.MaxSample {
		return monte.Configf("cutoff", "min_sample %d > max_sample %d", c.MinSample, c.MaxSample)
	}
	if c.MaxTime > 0 && c.MinTime > c.MaxTime {
		return monte.Configf("cutoff", "min_time %g > max_time %g", c.MinTime, c.MaxTime)
	}
	if c.MaxClocktime > 0 && c.MinClocktime > c.MaxClocktime {
		return monte.Configf("cutoff", "min_clocktime %s > max_clocktime %s", c.MinClocktime, c.MaxClocktime)
	}
	return nil
}

func (c Cutoff) minReached(p Progress) bool {
	return p.Count >= c.MinCount &&
		p.Samples >= c.MinSample &&
		p.Time >= c.MinTime &&
		p.Clocktime >= c.MinClocktime
}

// maxReached names the first maximum that p has reached, or "".
func (c Cutoff) maxReached(p Progress) string {
	switch {
	case c.MaxCount > 0 && p.Count >= c.MaxCount:
		return "max_count"
	case c.MaxSample > 0 && p.Samples >= c.MaxSample:
		return "max_sample"
	case c.MaxTime > 0 && p.Time >= c.MaxTime:
		return "max_time"
	case c.MaxClocktime > 0 && p.Clocktime >= c.MaxClocktime:
		return "max_clocktime"
	}
	return ""
}

// target is a Criterion resolved against the observable catalog.
type target struct {
	criterion  Criterion
	component  int
	name       string
	confidence float64
}

func (p Params) resolve(catalog sampling.Catalog) ([]target, error) {
	if p.CheckFrequency <= 0 {
		return nil, monte.Configf("check_frequency", "must be > 0, got %d", p.CheckFrequency)
	}
	if p.CheckBegin < 0 {
		return nil, monte.Configf("check_begin", "must be >= 0, got %d", p.CheckBegin)
	}
	if p.Estimator != analysis.BatchMeans && p.Estimator != analysis.IntegratedAutocorrelation {
		return nil, monte.Configf("estimator", "unknown estimator %d", int(p.Estimator))
	}
	if err := p.Cutoff.validate(); err != nil {
		return nil, err
	}

	targets := make([]target, 0, len(p.Criteria))
	for _, cr := range p.Criteria {
		t, err := resolveCriterion(cr, catalog)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func resolveCriterion(cr Criterion, catalog sampling.Catalog) (target, error) {
	field := "criteria." + cr.Observable
	if cr.Precision <= 0 {
		return target{}, monte.Configf(field, "precision must be > 0, got %g", cr.Precision)
	}
	conf := cr.Confidence
	if conf == 0 {
		conf = DefaultConfidence
	}
	if conf <= 0 || conf >= 1 {
		return target{}, monte.Configf(field, "confidence must be in (0, 1), got %g", conf)
	}
	if cr.Component != "" && cr.ComponentIndex != nil {
		return target{}, monte.Configf(field, "set component or component_index, not both")
	}

	var components []string
	if catalog != nil {
		var err error
		if components, err = catalog.Components(cr.Observable); err != nil {
			return target{}, err
		}
	}

	t := target{criterion: cr, component: -1, confidence: conf}
	switch {
	case cr.Component != "":
		for i, n := range components {
			if n == cr.Component {
				t.component, t.name = i, n
			}
		}
		if t.component < 0 {
			return target{}, monte.Configf(field, "no component %q in %v", cr.Component, components)
		}
	case cr.ComponentIndex != nil:
		idx := *cr.ComponentIndex
		if idx < 0 || (len(components) > 0 && idx >= len(components)) {
			return target{}, monte.Configf(field, "component_index %d out of range", idx)
		}
		t.component = idx
		if len(components) > 0 {
			t.name = components[idx]
		}
	}
	return t, nil
}
