package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// Autocorrelation returns the normalised autocorrelation function of x for
// lags 0..len(x)-1, computed through a zero-padded FFT. rho[0] is 1. A
// constant series returns nil.
func Autocorrelation(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	mean := stat.Mean(x, nil)
	padded := make([]float64, nextPow2(2*n))
	for i, v := range x {
		padded[i] = v - mean
	}

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = c * cmplx.Conj(c)
	}
	raw := fft.IFFT(spectrum)

	c0 := real(raw[0])
	if c0 <= 0 {
		return nil
	}
	rho := make([]float64, n)
	for i := range rho {
		rho[i] = real(raw[i]) / c0
	}
	return rho
}

// PowerSpectrum returns |X(f)| for the non-negative frequencies of x.
func PowerSpectrum(data []float64) []float64 {
	spectrum := fft.FFTReal(data)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
