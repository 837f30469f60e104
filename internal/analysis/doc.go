// Package analysis provides statistics for correlated Monte Carlo time series.
//
// Successive samples of a Markov chain are serially correlated, so the naive
// standard error of the mean is too small. Two estimators are offered:
//
//   - [BatchMeans]: b = floor(sqrt(n)) samples per batch, m = floor(n/b)
//     batches taken from the end of the series; the half-width is
//     t(m-1) * s_batch / sqrt(m)
//   - [IntegratedAutocorrelation]: the FFT autocorrelation function is summed
//     to the integrated time tau; the half-width is z * sqrt(var * tau / n)
//
// # Example
//
//	est, ok := analysis.BatchMeans.Estimate(energy, 0.95)
//	if ok && est.HalfWidth <= 0.001 {
//	    // converged
//	}
package analysis
