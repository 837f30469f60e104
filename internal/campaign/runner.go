package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/san-kum/monte/internal/completion"
	"github.com/san-kum/monte/internal/logging"
	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

// Stepper advances a simulation by one pass (BY_PASS) or one event (BY_TIME)
// and returns the simulated time that elapsed. It owns the move kernel and
// its random numbers.
type Stepper[C monte.Configuration[C]] interface {
	Step(ctx context.Context, s *monte.State[C]) (elapsed float64, err error)
}

// StepperFunc adapts a function to Stepper.
type StepperFunc[C monte.Configuration[C]] func(ctx context.Context, s *monte.State[C]) (float64, error)

func (f StepperFunc[C]) Step(ctx context.Context, s *monte.State[C]) (float64, error) {
	return f(ctx, s)
}

// FailurePolicy decides what a run does when a sample event fails.
type FailurePolicy int

const (
	// Abort stops the run and returns the evaluation error.
	Abort FailurePolicy = iota
	// Skip drops the failed event and keeps stepping.
	Skip
)

func (p FailurePolicy) String() string {
	if p == Skip {
		return "skip"
	}
	return "abort"
}

func (p FailurePolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *FailurePolicy) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "abort":
		*p = Abort
	case "skip":
		*p = Skip
	default:
		return monte.Configf("on_evaluation_error", "unknown policy %q", b)
	}
	return nil
}

// Config is the per-campaign setup shared by every run.
type Config struct {
	Sampling          sampling.Params
	Completion        completion.Params
	OnEvaluationError FailurePolicy
}

// Observer is notified after every completion check.
type Observer interface {
	OnCheck(run int, conds monte.Conditions, res completion.Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(run int, conds monte.Conditions, res completion.Result)

func (f ObserverFunc) OnCheck(run int, conds monte.Conditions, res completion.Result) {
	f(run, conds, res)
}

// Option configures a Runner.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	clock     func() time.Time
	observers []Observer
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock supplies the wall clock used to report clocktime to cutoff
// checks. Without one, clocktime stays zero and clocktime cutoffs never fire.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithObserver registers an observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// RunResult is everything one run produced. It is not modified after Run
// returns.
type RunResult[C monte.Configuration[C]] struct {
	Run        int
	Initial    monte.Conditions
	Final      monte.State[C]
	Names      []string
	Series     map[string]*sampling.Series
	Trajectory *sampling.Trajectory[C]
	Completion completion.Result
	Passes     int64
	Time       float64
	Skipped    int
	// Resume is the scheduler index to resume sampling from.
	Resume int64
}

// Runner drives one Monte Carlo calculation per call to Run.
type Runner[C monte.Configuration[C]] struct {
	registry *sampling.Registry[C]
	cfg      Config
	opts     options
}

// NewRunner validates cfg against registry, so every configuration error is
// reported before any pass is made.
func NewRunner[C monte.Configuration[C]](registry *sampling.Registry[C], cfg Config, opts ...Option) (*Runner[C], error) {
	if registry == nil {
		return nil, monte.Configf("registry", "nil registry")
	}
	if err := cfg.Sampling.Validate(registry); err != nil {
		return nil, err
	}
	if _, err := completion.New(cfg.Completion, registry); err != nil {
		return nil, err
	}
	for _, cr := range cfg.Completion.Criteria {
		if !contains(cfg.Sampling.Names, cr.Observable) {
			return nil, monte.Configf("criteria."+cr.Observable, "observable is not sampled")
		}
	}

	r := &Runner[C]{registry: registry, cfg: cfg}
	for _, opt := range opts {
		opt(&r.opts)
	}
	r.opts.logger = logging.Component(r.opts.logger, "runner")
	return r, nil
}

// Run simulates initial until the completion checker stops it, ctx is
// canceled, or a step or sample event fails. The caller's state is not
// modified. On error the partial result is returned alongside it.
func (r *Runner[C]) Run(ctx context.Context, run int, initial monte.State[C], stepper Stepper[C]) (*RunResult[C], error) {
	if stepper == nil {
		return nil, monte.Configf("stepper", "nil stepper")
	}
	sched, err := sampling.NewScheduler(r.cfg.Sampling)
	if err != nil {
		return nil, err
	}
	smp, err := sampling.NewSampler(r.registry, r.cfg.Sampling)
	if err != nil {
		return nil, err
	}
	chk, err := completion.New(r.cfg.Completion, r.registry)
	if err != nil {
		return nil, err
	}

	state := initial.Snapshot()
	res := &RunResult[C]{Run: run, Initial: initial.Conditions.Clone()}
	finish := func() *RunResult[C] {
		res.Final = state
		res.Names = smp.Names()
		res.Series = make(map[string]*sampling.Series, len(res.Names))
		for _, n := range res.Names {
			res.Series[n], _ = smp.Series(n)
		}
		res.Trajectory = smp.Trajectory()
		res.Resume = sched.Next()
		return res
	}

	var started time.Time
	if r.opts.clock != nil {
		started = r.opts.clock()
	}

	log := r.opts.logger.With("run", run)
	warned := false
	log.Info("run started", "conditions", state.Conditions.String())

	for {
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		default:
		}

		progress := float64(res.Passes)
		if r.cfg.Sampling.Mode == sampling.ByTime {
			progress = res.Time
		}
		if tick, ok := sched.Due(progress); ok {
			if err := smp.Sample(tick, &state); err != nil {
				if r.cfg.OnEvaluationError != Skip || !errors.Is(err, monte.ErrEvaluation) {
					log.Warn("sample failed, aborting run", "index", tick.Index, "err", err)
					return finish(), err
				}
				log.Warn("sample failed, skipping", "index", tick.Index, "err", err)
				res.Skipped++
			}
		}

		p := completion.Progress{Count: res.Passes, Samples: smp.Count(), Time: res.Time}
		if r.opts.clock != nil {
			p.Clocktime = r.opts.clock().Sub(started)
		}
		verdict := chk.Check(smp, p)
		res.Completion = verdict
		if verdict.Checked {
			log.Debug("convergence checked", "samples", p.Samples, "criteria", len(verdict.Criteria))
			if !warned {
				warned = warnUnresolvable(log, verdict.Criteria)
			}
		}
		for _, obs := range r.opts.observers {
			obs.OnCheck(run, state.Conditions, verdict)
		}
		if verdict.Complete {
			break
		}

		dt, err := stepper.Step(ctx, &state)
		if err != nil {
			return finish(), fmt.Errorf("run %d: pass %d: %w", run, res.Passes, err)
		}
		res.Passes++
		res.Time += dt
	}

	log.Info("run finished",
		"reason", res.Completion.Reason.String(),
		"passes", res.Passes,
		"samples", smp.Count(),
		"skipped", res.Skipped)
	return finish(), nil
}

// warnUnresolvable logs criteria that cannot resolve however long the run
// goes on, and reports whether there were any.
func warnUnresolvable(log *slog.Logger, criteria []completion.CriterionResult) bool {
	found := false
	for _, cr := range criteria {
		if cr.Error != "" {
			log.Warn("criterion cannot resolve", "observable", cr.Observable, "component", cr.Component, "err", cr.Error)
			found = true
		}
	}
	return found
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
