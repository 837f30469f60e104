package sampling

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/monte/internal/monte"
)

// Mode selects the progress counter a schedule is written against.
type Mode int

const (
	ByPass Mode = iota
	ByTime
)

func (m Mode) String() string {
	switch m {
	case ByPass:
		return "by_pass"
	case ByTime:
		return "by_time"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "by_pass", "pass":
		*m = ByPass
	case "by_time", "time":
		*m = ByTime
	default:
		return monte.Configf("sample_mode", "unknown mode %q", b)
	}
	return nil
}

// Method selects the spacing of sample targets.
type Method int

const (
	Linear Method = iota
	Log
)

func (m Method) String() string {
	switch m {
	case Linear:
		return "linear"
	case Log:
		return "log"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Method) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "linear":
		*m = Linear
	case "log":
		*m = Log
	default:
		return monte.Configf("sample_method", "unknown method %q", b)
	}
	return nil
}

// Params configures when and what a run samples.
//
// Schedule holds (a, b) or (a, b, c): LINEAR targets a + b*k, LOG targets
// a + b^(k-c). c defaults to 0.
type Params struct {
	Mode       Mode      `yaml:"mode" json:"mode"`
	Method     Method    `yaml:"method" json:"method"`
	Schedule   []float64 `yaml:"schedule" json:"schedule"`
	Names      []string  `yaml:"observables" json:"observables"`
	Trajectory bool      `yaml:"trajectory" json:"trajectory"`
}

// DefaultParams samples every pass starting at pass 0.
func DefaultParams() Params {
	return Params{
		Mode:     ByPass,
		Method:   Linear,
		Schedule: []float64{0, 1},
	}
}

// Validate checks the schedule and, when names is non-nil, that every
// requested observable is registered.
func (p Params) Validate(names Catalog) error {
	if len(p.Schedule) < 2 || len(p.Schedule) > 3 {
		return monte.Configf("schedule", "want (a, b) or (a, b, c), got %d values", len(p.Schedule))
	}
	for i, v := range p.Schedule {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return monte.Configf("schedule", "value %d is not finite", i)
		}
	}
	switch p.Method {
	case Linear:
		if p.Schedule[1] <= 0 {
			return monte.Configf("schedule", "linear spacing b must be > 0, got %g", p.Schedule[1])
		}
	case Log:
		if p.Schedule[1] <= 1 {
			return monte.Configf("schedule", "log base b must be > 1, got %g", p.Schedule[1])
		}
	default:
		return monte.Configf("sample_method", "unknown method %d", int(p.Method))
	}
	if p.Mode != ByPass && p.Mode != ByTime {
		return monte.Configf("sample_mode", "unknown mode %d", int(p.Mode))
	}

	seen := make(map[string]bool, len(p.Names))
	for _, n := range p.Names {
		if seen[n] {
			return monte.Configf("observables", "%q requested twice", n)
		}
		seen[n] = true
		if names != nil {
			if _, err := names.Components(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Catalog is the read side of a Registry that does not depend on the
// configuration type.
type Catalog interface {
	Components(name string) ([]string, error)
}
