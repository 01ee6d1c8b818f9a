package metrics

import (
	"fmt"
	"math"

	"github.com/Noofbiz/gpcvalidate/valerr"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

const (
	// SmoothingConstant is divided by the sample standard deviation to give
	// the bandwidth factor of every density estimate.
	SmoothingConstant = 0.15

	// DensityPoints is the number of evenly spaced points a density is
	// evaluated at.
	DensityPoints = 100
)

// KDE is a one dimensional Gaussian kernel density estimate.
type KDE struct {
	Samples []float64
	// Factor scales the sample standard deviation into the kernel width.
	Factor float64
	// Bandwidth is the kernel standard deviation.
	Bandwidth float64
}

// NewKDE fits a density estimate with bandwidth factor
// SmoothingConstant / std(samples). Zero spread is an error.
//
// The kernel width is factor · std, so it is always SmoothingConstant in
// output units whatever the spread of the samples. Outputs whose spread is
// small against that width get an oversmoothed density, and the curve
// returned by Density, which only covers the sample range, then integrates
// to well below 1.
func NewKDE(samples []float64) (*KDE, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: density estimation needs at least 2 samples, got %d", valerr.ErrDegenerateDistribution, len(samples))
	}
	std, err := stats.StandardDeviationSample(samples)
	if err != nil {
		return nil, fmt.Errorf("standard deviation: %w", err)
	}
	if std == 0 || math.IsNaN(std) {
		return nil, fmt.Errorf("%w: samples have zero standard deviation", valerr.ErrDegenerateDistribution)
	}
	factor := SmoothingConstant / std
	return &KDE{Samples: samples, Factor: factor, Bandwidth: factor * std}, nil
}

// At evaluates the density at x.
func (k *KDE) At(x float64) float64 {
	h := k.Bandwidth
	norm := 1 / (float64(len(k.Samples)) * h * math.Sqrt(2*math.Pi))
	var sum float64
	for _, s := range k.Samples {
		z := (x - s) / h
		sum += math.Exp(-0.5 * z * z)
	}
	return norm * sum
}

// Curve is a density sampled at increasing X.
type Curve struct {
	X []float64
	Y []float64
}

// Density fits a KDE to samples and evaluates it at DensityPoints evenly
// spaced points between the smallest and largest sample.
func Density(samples []float64) (Curve, error) {
	k, err := NewKDE(samples)
	if err != nil {
		return Curve{}, err
	}
	lo, err := stats.Min(samples)
	if err != nil {
		return Curve{}, err
	}
	hi, err := stats.Max(samples)
	if err != nil {
		return Curve{}, err
	}
	x := floats.Span(make([]float64, DensityPoints), lo, hi)
	y := make([]float64, DensityPoints)
	for i, v := range x {
		y[i] = k.At(v)
	}
	return Curve{X: x, Y: y}, nil
}

// Trapezoid integrates y over x with the trapezoidal rule.
func Trapezoid(x, y []float64) float64 {
	var sum float64
	for i := 1; i < len(x) && i < len(y); i++ {
		sum += (x[i] - x[i-1]) * (y[i] + y[i-1]) / 2
	}
	return sum
}
