// Package monte provides the core types shared by the Monte Carlo run-control
// packages.
//
// The package defines the data passed between the scheduler, the sampler, the
// completion checker and the campaign generator:
//
//   - [State]: a configuration payload paired with named [Conditions]
//   - [Configuration]: the only capability the core requires of a payload
//   - [Conditions]: an ordered name to value mapping (temperature, composition)
//   - [ConfigError], [EvaluationError]: errors carrying setup or sampling context
//
// # Example
//
//	conds := monte.NewConditions(monte.Cond("temperature", 300), monte.Cond("O", 0.01))
//	s := monte.NewState(chain, conds)
//	snap := s.Snapshot()
//
// # Ownership
//
// The configuration is owned by the caller. Core packages read it through a
// pointer and never mutate it; whenever they need to keep one they take a
// deep copy with Clone.
package monte
