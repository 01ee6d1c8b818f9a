package gpc

import (
	"errors"
	"testing"

	"github.com/Noofbiz/gpcvalidate/params"
	"github.com/Noofbiz/gpcvalidate/sampling"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type constModel struct{}

func (constModel) Simulate(map[string]float64) ([]float64, error) { return []float64{1}, nil }

func TestPolynomialRecurrences(t *testing.T) {
	x := 0.3
	leg := polynomials(Legendre, x, 3, nil)
	assert.InDelta(t, 1.0, leg[0], 1e-15)
	assert.InDelta(t, x, leg[1], 1e-15)
	assert.InDelta(t, (3*x*x-1)/2, leg[2], 1e-15)
	assert.InDelta(t, (5*x*x*x-3*x)/2, leg[3], 1e-15)

	her := polynomials(Hermite, x, 3, nil)
	assert.InDelta(t, x*x-1, her[2], 1e-15)
	assert.InDelta(t, x*x*x-3*x, her[3], 1e-15)
}

func TestExpansionApproximate(t *testing.T) {
	e, err := NewExpansion([]Family{Legendre, Hermite}, [][]int{{0, 0}, {1, 0}, {0, 2}, {1, 1}})
	require.NoError(t, err)

	coeffs := mat.NewDense(4, 2, []float64{
		1, 0,
		2, 1,
		3, 0,
		4, -1,
	})
	x := mat.NewDense(2, 2, []float64{0.5, 2, -1, 0})

	y, err := e.Approximate(coeffs, x, nil)
	require.NoError(t, err)
	// row 0: psi = [1, 0.5, 3, 1]
	assert.InDelta(t, 1+1+9+4, y.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5-1, y.At(0, 1), 1e-12)
	// row 1: psi = [1, -1, -1, 0]
	assert.InDelta(t, 1-2-3, y.At(1, 0), 1e-12)

	sub, err := e.Approximate(coeffs, x, []int{1})
	require.NoError(t, err)
	_, c := sub.Dims()
	assert.Equal(t, 1, c, "a single output must stay a column")
	assert.InDelta(t, y.At(0, 1), sub.At(0, 0), 1e-15)

	_, err = e.Approximate(coeffs, x, []int{2})
	assert.True(t, errors.Is(err, valerr.ErrShapeMismatch))
	_, err = e.Approximate(mat.NewDense(3, 1, nil), x, nil)
	assert.True(t, errors.Is(err, valerr.ErrShapeMismatch))

	_, err = e.Approximate(coeffs, x, []int{})
	assert.ErrorIs(t, err, valerr.ErrConfiguration)
}

func TestParseFamilyBetaUsesLegendre(t *testing.T) {
	for _, s := range []string{"legendre", "uniform", "beta"} {
		f, err := ParseFamily(s)
		require.NoError(t, err)
		assert.Equal(t, Legendre, f, s)
	}
	f, err := ParseFamily("normal")
	require.NoError(t, err)
	assert.Equal(t, Hermite, f)

	_, err = ParseFamily("jacobi")
	assert.ErrorIs(t, err, valerr.ErrConfiguration)
}

func TestNewExpansionValidates(t *testing.T) {
	_, err := NewExpansion([]Family{Legendre}, [][]int{{0, 1}})
	assert.True(t, errors.Is(err, valerr.ErrConfiguration))
	_, err = ParseFamily("laguerre")
	assert.True(t, errors.Is(err, valerr.ErrConfiguration))
	f, err := ParseFamily("normal")
	require.NoError(t, err)
	assert.Equal(t, Hermite, f)
}

func TestValidationCacheIsOptional(t *testing.T) {
	space := params.NewSpace()
	u, _ := params.NewUniform(0, 1)
	require.NoError(t, space.Add("x", u))
	prob, err := params.NewProblem(space, nil)
	require.NoError(t, err)
	e, err := NewExpansion([]Family{Legendre}, [][]int{{0}})
	require.NoError(t, err)

	s, err := New(constModel{}, prob, e)
	require.NoError(t, err)
	_, ok := s.Validation()
	assert.False(t, ok)
	assert.False(t, s.Reduced())

	g, err := sampling.MonteCarlo(space, 5, 3)
	require.NoError(t, err)
	assert.Error(t, s.SetValidation(ValidationSet{Grid: g, Results: mat.NewDense(4, 1, nil)}))
	require.NoError(t, s.SetValidation(ValidationSet{Grid: g, Results: mat.NewDense(5, 1, nil)}))
	v, ok := s.Validation()
	assert.True(t, ok)
	assert.Same(t, g, v.Grid)
}
