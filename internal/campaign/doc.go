// Package campaign runs sequences of Monte Carlo calculations.
//
//   - [IncrementalGenerator]: initial states whose conditions step by a fixed
//     increment, optionally chaining final configurations between runs
//   - [Runner]: drives scheduler, sampler and completion checker for one state
//     given an external [Stepper]
//   - [Run] and [RunAll]: one campaign in order, or several independent
//     campaigns on a bounded worker pool
//
// # Example
//
//	gen, _ := campaign.NewIncremental(initial, increment, 10, true)
//	runner, _ := campaign.NewRunner(registry, cfg)
//	results, err := campaign.Run(ctx, gen, runner, stepper, writer)
//
// # Thread Safety
//
// A Runner holds only read-only setup and may be shared; every Run call builds
// its own scheduler, sampler and checker. Generators and Steppers belong to a
// single campaign.
package campaign
