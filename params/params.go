// Package params describes the random inputs of a model: the distribution of
// every uncertain parameter, the ordered parameter space they form and the
// problem that couples that space with deterministic (fixed) parameters.
package params

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/stat/distuv"
)

// normalTail is the probability mass cut from each tail when a normal
// parameter has no explicit limits.
const normalTail = 0.001

// RandomParameter is a single uncertain input. Every implementation maps its
// physical (raw) values onto a canonical domain used by the polynomial basis.
type RandomParameter interface {
	// Mean returns the expected value in physical units.
	Mean() float64
	// Limits returns the interval used to build linear slice axes.
	Limits() (lo, hi float64)
	// Normalize maps a physical value into the canonical domain.
	Normalize(x float64) float64
	// Denormalize is the inverse of Normalize.
	Denormalize(xn float64) float64
	// Rand draws one physical value using src.
	Rand(src rand.Source) float64
}

// Beta is a beta distribution with shape parameters P and Q stretched onto
// [Lo, Hi]. Its canonical domain is [-1, 1]. Beta{P: 1, Q: 1} is uniform.
type Beta struct {
	P, Q   float64
	Lo, Hi float64
}

// NewBeta validates the shape and limits of a beta parameter.
func NewBeta(p, q, lo, hi float64) (Beta, error) {
	if p <= 0 || q <= 0 {
		return Beta{}, fmt.Errorf("%w: beta shape parameters must be > 0, got p=%v q=%v", valerr.ErrConfiguration, p, q)
	}
	if !(lo < hi) {
		return Beta{}, fmt.Errorf("%w: beta limits must satisfy lo < hi, got [%v, %v]", valerr.ErrConfiguration, lo, hi)
	}
	return Beta{P: p, Q: q, Lo: lo, Hi: hi}, nil
}

// NewUniform returns the uniform distribution on [lo, hi].
func NewUniform(lo, hi float64) (Beta, error) {
	return NewBeta(1, 1, lo, hi)
}

func (b Beta) Mean() float64 {
	return b.Lo + (b.Hi-b.Lo)*b.P/(b.P+b.Q)
}

func (b Beta) Limits() (float64, float64) { return b.Lo, b.Hi }

func (b Beta) Normalize(x float64) float64 {
	return 2*(x-b.Lo)/(b.Hi-b.Lo) - 1
}

func (b Beta) Denormalize(xn float64) float64 {
	return b.Lo + (xn+1)/2*(b.Hi-b.Lo)
}

func (b Beta) Rand(src rand.Source) float64 {
	u := distuv.Beta{Alpha: b.P, Beta: b.Q, Src: src}.Rand()
	return b.Lo + u*(b.Hi-b.Lo)
}

// Normal is a normal distribution. Its canonical domain is the standard
// normal. Lo and Hi bound slice axes; when both are zero the 0.1% and 99.9%
// quantiles are used.
type Normal struct {
	Mu, Sigma float64
	Lo, Hi    float64
}

// NewNormal validates a normal parameter without explicit limits.
func NewNormal(mu, sigma float64) (Normal, error) {
	if sigma <= 0 || math.IsNaN(sigma) {
		return Normal{}, fmt.Errorf("%w: normal sigma must be > 0, got %v", valerr.ErrConfiguration, sigma)
	}
	return Normal{Mu: mu, Sigma: sigma}, nil
}

func (n Normal) Mean() float64 { return n.Mu }

func (n Normal) Limits() (float64, float64) {
	if n.Lo != 0 || n.Hi != 0 {
		return n.Lo, n.Hi
	}
	d := distuv.Normal{Mu: n.Mu, Sigma: n.Sigma}
	return d.Quantile(normalTail), d.Quantile(1 - normalTail)
}

func (n Normal) Normalize(x float64) float64 { return (x - n.Mu) / n.Sigma }

func (n Normal) Denormalize(xn float64) float64 { return n.Mu + xn*n.Sigma }

func (n Normal) Rand(src rand.Source) float64 {
	return distuv.Normal{Mu: n.Mu, Sigma: n.Sigma, Src: src}.Rand()
}
