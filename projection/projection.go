// Package projection maps normalized coordinates of the full parameter space
// onto the reduced subspace a dimension-reduced surrogate is expanded in.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
)

// Map is a linear projection onto a k dimensional subspace. P has one row per
// reduced axis and one column per full-space parameter; Norm rescales each
// reduced axis so that it stays within the canonical [-1, 1] range.
type Map struct {
	P    *mat.Dense
	Norm []float64
}

// New builds a map from a projection matrix. Each norm factor is the sum of
// absolute entries of the matching row of p.
func New(p *mat.Dense) (*Map, error) {
	if p == nil {
		return nil, errors.New("projection matrix cannot be nil")
	}
	k, d := p.Dims()
	norm := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < d; j++ {
			norm[i] += math.Abs(p.At(i, j))
		}
		if norm[i] == 0 {
			return nil, fmt.Errorf("%w: projection row %d is zero", valerr.ErrConfiguration, i)
		}
	}
	return &Map{P: p, Norm: norm}, nil
}

// Dims returns the reduced and full dimensions.
func (m *Map) Dims() (reduced, full int) {
	return m.P.Dims()
}

// Reduce transforms normalized full-space coordinates into the reduced space:
// reduced = xNorm · Pᵗ / Norm, row-wise. A nil map is the identity and
// returns xNorm itself.
func Reduce(m *Map, xNorm *mat.Dense) (*mat.Dense, error) {
	if m == nil {
		return xNorm, nil
	}
	k, d := m.P.Dims()
	if len(m.Norm) != k {
		return nil, fmt.Errorf("%w: %d norm factors for %d reduced axes", valerr.ErrShapeMismatch, len(m.Norm), k)
	}
	r, c := xNorm.Dims()
	if c != d {
		return nil, fmt.Errorf("%w: coordinates have %d columns, projection expects %d", valerr.ErrShapeMismatch, c, d)
	}
	out := mat.NewDense(r, k, nil)
	out.Mul(xNorm, m.P.T())
	for j := 0; j < k; j++ {
		for i := 0; i < r; i++ {
			out.Set(i, j, out.At(i, j)/m.Norm[j])
		}
	}
	return out, nil
}

// FromGradients builds an active-subspace projection from model gradients
// sampled at n points (n × d). The leading right singular vectors are kept
// until their share of the squared singular values reaches 1-eps.
func FromGradients(grads *mat.Dense, eps float64) (*Map, error) {
	if grads == nil {
		return nil, errors.New("gradient matrix cannot be nil")
	}
	if eps < 0 || eps >= 1 {
		return nil, fmt.Errorf("%w: eps must be in [0, 1), got %v", valerr.ErrConfiguration, eps)
	}
	var svd mat.SVD
	if ok := svd.Factorize(grads, mat.SVDThin); !ok {
		return nil, errors.New("svd of gradient matrix failed")
	}
	sv := svd.Values(nil)
	var total float64
	for _, s := range sv {
		total += s * s
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: gradients are all zero", valerr.ErrDegenerateDistribution)
	}
	k := 0
	var acc float64
	for k < len(sv) {
		acc += sv[k] * sv[k]
		k++
		if acc/total >= 1-eps {
			break
		}
	}

	var v mat.Dense
	svd.VTo(&v)
	_, d := grads.Dims()
	p := mat.NewDense(k, d, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < d; j++ {
			p.Set(i, j, v.At(j, i))
		}
	}
	return New(p)
}
