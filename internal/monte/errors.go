package monte

import (
	"errors"
	"fmt"
)

// Domain errors for run-control operations.
var (
	// ErrConfiguration indicates invalid setup: duplicate or unknown observable
	// names, invalid schedule parameters or invalid cutoffs.
	ErrConfiguration = errors.New("monte: invalid configuration")

	// ErrEvaluation indicates an observable evaluator failed during a sample event.
	ErrEvaluation = errors.New("monte: observable evaluation failed")

	// ErrRange indicates a campaign generator was asked for more states than it holds.
	ErrRange = errors.New("monte: no remaining states")

	// ErrOutOfOrder indicates a dependent campaign was advanced without the
	// final state of the previous run.
	ErrOutOfOrder = errors.New("monte: campaign advanced out of order")
)

// ConfigError wraps ErrConfiguration with the offending field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// Configf builds a ConfigError for field with a formatted reason.
func Configf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// EvaluationError wraps an evaluator failure with the sample event it aborted.
type EvaluationError struct {
	Observable string
	Index      int64
	Progress   float64
	Wrapped    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: %q at sample %d (progress %g): %v",
		ErrEvaluation, e.Observable, e.Index, e.Progress, e.Wrapped)
}

func (e *EvaluationError) Unwrap() error {
	return e.Wrapped
}

// Is reports ErrEvaluation so callers can match without unwrapping the
// evaluator's own error.
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}
