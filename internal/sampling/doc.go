// Package sampling decides when observables are recorded and stores what was
// recorded.
//
//   - [Registry]: named observable evaluators, shared read-only across runs
//   - [Scheduler]: maps a progress value to "sample now" and a sample index
//   - [Sampler]: evaluates observables on a fired tick into append-only [Series]
//     and an optional [Trajectory]
//
// # Schedules
//
// LINEAR fires at a + b*k and LOG at a + b^(k-c), for k = 0, 1, 2, ...
// In BY_PASS mode LOG targets are rounded to the nearest integer pass, halves
// away from zero, and any target not strictly greater than the last fired pass
// is skipped, so a pass is never sampled twice. LINEAR targets are exact: a
// non-integer target is never hit by a pass. In BY_TIME mode the first
// progress value at or past a target fires once and consumes every target it
// passed.
//
// # Thread Safety
//
// A Registry may be shared by any number of goroutines once populated.
// Scheduler and Sampler belong to a single run and are not safe for concurrent use.
package sampling
