package gpc

import (
	"fmt"

	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
)

// Family selects the univariate orthogonal polynomials of one input axis.
type Family int

const (
	// Legendre polynomials, orthogonal for uniform inputs on [-1, 1].
	Legendre Family = iota
	// Hermite polynomials (probabilists'), orthogonal for standard normal inputs.
	Hermite
)

// ParseFamily maps "legendre" or "hermite" to a Family. "uniform" and "beta"
// select Legendre and "normal" selects Hermite. There is no Jacobi family:
// Legendre is the orthogonal basis only for p = q = 1, so coefficients of
// beta parameters with other shapes must be expressed in the Legendre basis.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "legendre", "uniform", "beta":
		return Legendre, nil
	case "hermite", "normal":
		return Hermite, nil
	}
	return 0, fmt.Errorf("%w: unknown polynomial family %q", valerr.ErrConfiguration, s)
}

// Expansion is a tensor-product polynomial basis. Every basis function is the
// product over axes of the family polynomial of degree MultiIndex[b][axis].
type Expansion struct {
	Families   []Family
	MultiIndex [][]int
}

// NewExpansion validates a basis definition.
func NewExpansion(families []Family, multiIndex [][]int) (*Expansion, error) {
	if len(families) == 0 {
		return nil, fmt.Errorf("%w: expansion needs at least one axis", valerr.ErrConfiguration)
	}
	if len(multiIndex) == 0 {
		return nil, fmt.Errorf("%w: expansion needs at least one basis function", valerr.ErrConfiguration)
	}
	for b, mi := range multiIndex {
		if len(mi) != len(families) {
			return nil, fmt.Errorf("%w: basis function %d has %d orders for %d axes", valerr.ErrConfiguration, b, len(mi), len(families))
		}
		for _, o := range mi {
			if o < 0 {
				return nil, fmt.Errorf("%w: basis function %d has negative order", valerr.ErrConfiguration, b)
			}
		}
	}
	return &Expansion{Families: families, MultiIndex: multiIndex}, nil
}

// Basis evaluates every basis function at every row of x (n × len(MultiIndex)).
func (e *Expansion) Basis(x *mat.Dense) (*mat.Dense, error) {
	n, d := x.Dims()
	if d != len(e.Families) {
		return nil, fmt.Errorf("%w: coordinates have %d columns, expansion has %d axes", valerr.ErrShapeMismatch, d, len(e.Families))
	}
	maxOrder := make([]int, d)
	for _, mi := range e.MultiIndex {
		for a, o := range mi {
			if o > maxOrder[a] {
				maxOrder[a] = o
			}
		}
	}

	psi := mat.NewDense(n, len(e.MultiIndex), nil)
	vals := make([][]float64, d)
	for i := 0; i < n; i++ {
		for a := 0; a < d; a++ {
			vals[a] = polynomials(e.Families[a], x.At(i, a), maxOrder[a], vals[a])
		}
		for b, mi := range e.MultiIndex {
			v := 1.0
			for a, o := range mi {
				v *= vals[a][o]
			}
			psi.Set(i, b, v)
		}
	}
	return psi, nil
}

// Approximate evaluates Basis(x) · coeffs and keeps the requested outputs.
// nil keeps every output; an empty non-nil selection is an error.
func (e *Expansion) Approximate(coeffs *mat.Dense, x *mat.Dense, outputIdx []int) (*mat.Dense, error) {
	if outputIdx != nil && len(outputIdx) == 0 {
		return nil, fmt.Errorf("%w: empty output selection", valerr.ErrConfiguration)
	}
	nc, nout := coeffs.Dims()
	if nc != len(e.MultiIndex) {
		return nil, fmt.Errorf("%w: %d coefficient rows for %d basis functions", valerr.ErrShapeMismatch, nc, len(e.MultiIndex))
	}
	psi, err := e.Basis(x)
	if err != nil {
		return nil, err
	}
	n, _ := psi.Dims()
	y := mat.NewDense(n, nout, nil)
	y.Mul(psi, coeffs)
	if outputIdx == nil {
		return y, nil
	}
	out := mat.NewDense(n, len(outputIdx), nil)
	for k, j := range outputIdx {
		if j < 0 || j >= nout {
			return nil, fmt.Errorf("%w: output index %d out of range [0, %d)", valerr.ErrShapeMismatch, j, nout)
		}
		out.SetCol(k, mat.Col(nil, j, y))
	}
	return out, nil
}

// polynomials fills dst with the family polynomials of degree 0..order at x.
func polynomials(f Family, x float64, order int, dst []float64) []float64 {
	if cap(dst) < order+1 {
		dst = make([]float64, order+1)
	}
	dst = dst[:order+1]
	dst[0] = 1
	if order == 0 {
		return dst
	}
	dst[1] = x
	for n := 1; n < order; n++ {
		fn := float64(n)
		switch f {
		case Hermite:
			dst[n+1] = x*dst[n] - fn*dst[n-1]
		default:
			dst[n+1] = ((2*fn+1)*x*dst[n] - fn*dst[n-1]) / (fn + 1)
		}
	}
	return dst
}
