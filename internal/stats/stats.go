// Package stats summarizes repeated simulation outcomes as a mean and an
// approximate 95% confidence interval.
package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pable/go-cheat-contagion/internal/model"
)

// z95 is the two-sided 95% normal quantile used for the interval.
const z95 = 1.96

// ErrNoSamples is returned when an estimate is requested over zero trials.
var ErrNoSamples = errors.New("stats: no samples")

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(toFloat(xs), nil)
}

// PopStdDev returns the population (non Bessel-corrected) standard deviation.
// A single sample has a standard deviation of 0.
func PopStdDev(xs []int) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.PopStdDev(toFloat(xs), nil)
}

// ConfidenceInterval returns mean ± 1.96·σ/√N using the normal approximation.
func ConfidenceInterval(xs []int) model.Interval {
	if len(xs) == 0 {
		return model.Interval{}
	}
	m := Mean(xs)
	half := z95 * stat.StdErr(PopStdDev(xs), float64(len(xs)))
	if math.IsNaN(half) {
		half = 0
	}
	return model.Interval{Lower: m - half, Upper: m + half}
}

// Summarize builds the labeled estimate for one scalar across trials.
func Summarize(label string, xs []int) (model.Estimate, error) {
	if len(xs) == 0 {
		return model.Estimate{}, ErrNoSamples
	}
	return model.Estimate{
		Label:    label,
		Mean:     Mean(xs),
		Interval: ConfidenceInterval(xs),
	}, nil
}

func toFloat(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
