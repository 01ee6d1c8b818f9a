// Package metrics compares surrogate outputs with true-model outputs: a
// normalized root-mean-square deviation per output quantity and Gaussian
// kernel density estimates of single output quantities.
package metrics

import (
	"fmt"
	"math"

	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NRMSD returns, per column, the root-mean-square deviation between approx
// and ref divided by the range of ref, in percent. A column whose reference
// range is zero yields NaN: the accuracy of a constant output is not
// meaningful and callers must check for it with math.IsNaN.
func NRMSD(approx, ref *mat.Dense) ([]float64, error) {
	ra, ca := approx.Dims()
	rr, cr := ref.Dims()
	if ra != rr || ca != cr {
		return nil, fmt.Errorf("%w: approximation %dx%d, reference %dx%d", valerr.ErrShapeMismatch, ra, ca, rr, cr)
	}
	if rr == 0 {
		return nil, fmt.Errorf("%w: no samples", valerr.ErrShapeMismatch)
	}

	out := make([]float64, cr)
	a := make([]float64, rr)
	r := make([]float64, rr)
	for j := 0; j < cr; j++ {
		mat.Col(a, j, approx)
		mat.Col(r, j, ref)
		span := floats.Max(r) - floats.Min(r)
		if span == 0 {
			out[j] = math.NaN()
			continue
		}
		var sum float64
		for i := range r {
			d := a[i] - r[i]
			sum += d * d
		}
		out[j] = math.Sqrt(sum/float64(rr)) / span * 100
	}
	return out, nil
}
