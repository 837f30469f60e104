package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Method selects how serial correlation is accounted for.
type Method int

const (
	// BatchMeans splits the series into sqrt(n) contiguous batches and uses the
	// spread of batch means with a Student-t quantile.
	BatchMeans Method = iota
	// IntegratedAutocorrelation inflates the naive variance by the integrated
	// autocorrelation time, with Sokal's self-consistent window.
	IntegratedAutocorrelation
)

func (m Method) String() string {
	switch m {
	case BatchMeans:
		return "batch_means"
	case IntegratedAutocorrelation:
		return "autocorrelation"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Method) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "batch_means", "batch":
		*m = BatchMeans
	case "autocorrelation", "autocorr", "tau":
		*m = IntegratedAutocorrelation
	default:
		return fmt.Errorf("unknown estimator %q", b)
	}
	return nil
}

// SokalWindow is the window constant c in W >= c*tau.
const SokalWindow = 5.0

// Estimate is a sample mean with the half-width of its confidence interval.
type Estimate struct {
	N         int     `json:"n"`
	Mean      float64 `json:"mean"`
	HalfWidth float64 `json:"half_width"`
	// Batches is the number of batches used (BatchMeans only).
	Batches int `json:"batches,omitempty"`
	// Tau is the integrated autocorrelation time in samples (1 for BatchMeans).
	Tau float64 `json:"tau"`
}

// Estimate computes the mean of x and a confidence interval half-width at the
// given confidence level. ok is false when x holds fewer than 2 samples or
// any sample is NaN or infinite.
func (m Method) Estimate(x []float64, confidence float64) (Estimate, bool) {
	if len(x) < 2 || !finite(x) {
		return Estimate{N: len(x)}, false
	}
	if m == IntegratedAutocorrelation {
		return autocorrelationEstimate(x, confidence), true
	}
	return batchMeansEstimate(x, confidence), true
}

func batchMeansEstimate(x []float64, confidence float64) Estimate {
	n := len(x)
	size := int(math.Sqrt(float64(n)))
	batches := n / size
	used := x[n-batches*size:]

	means := make([]float64, batches)
	for j := range means {
		means[j] = stat.Mean(used[j*size:(j+1)*size], nil)
	}

	est := Estimate{N: n, Mean: stat.Mean(x, nil), Batches: batches, Tau: 1}
	variance := stat.Variance(means, nil)
	if variance <= 0 || math.IsNaN(variance) {
		return est
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(batches - 1)}.Quantile(0.5 + confidence/2)
	est.HalfWidth = t * math.Sqrt(variance/float64(batches))
	return est
}

func autocorrelationEstimate(x []float64, confidence float64) Estimate {
	n := len(x)
	mean, variance := stat.MeanVariance(x, nil)
	est := Estimate{N: n, Mean: mean, Tau: 1}
	if variance <= 0 || math.IsNaN(variance) {
		return est
	}

	est.Tau = IntegratedTime(Autocorrelation(x), SokalWindow)
	z := distuv.UnitNormal.Quantile(0.5 + confidence/2)
	est.HalfWidth = z * math.Sqrt(variance*est.Tau/float64(n))
	return est
}

// IntegratedTime returns tau = 1 + 2*sum(rho[1..W]) for the smallest window W
// with W >= c*tau. It never returns less than 1.
func IntegratedTime(rho []float64, c float64) float64 {
	tau := 1.0
	for w := 1; w < len(rho); w++ {
		tau += 2 * rho[w]
		if float64(w) >= c*tau {
			break
		}
	}
	return math.Max(tau, 1)
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
