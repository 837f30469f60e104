// Package viz renders a running campaign in the terminal.
//
// A [Feed] is attached to each campaign runner as an observer and forwards
// completion checks to a Bubble Tea [Model], which shows one line per run and
// a panel with the convergence criteria of the latest run, including an
// asciigraph plot of the confidence interval half-width against the requested
// precision.
//
// # Key Bindings
//
//	q   - Quit (cancels the remaining runs)
//	t   - Cycle color themes
//	tab - Plot the next criterion
package viz
