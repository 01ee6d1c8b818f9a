package params

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/Noofbiz/gpcvalidate/valerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBetaNormalizeRoundTrip(t *testing.T) {
	b, err := NewBeta(2, 3, 0.4, 0.6)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, b.Normalize(0.4), 1e-12)
	assert.InDelta(t, 1.0, b.Normalize(0.6), 1e-12)
	assert.InDelta(t, 0.48, b.Mean(), 1e-12)
	for _, x := range []float64{0.4, 0.45, 0.5, 0.6} {
		assert.InDelta(t, x, b.Denormalize(b.Normalize(x)), 1e-12)
	}
}

func TestBetaRandStaysInLimits(t *testing.T) {
	b, err := NewBeta(5, 5, 0.15, 0.45)
	require.NoError(t, err)
	src := rand.NewPCG(1, 2)
	for i := 0; i < 1000; i++ {
		v := b.Rand(src)
		if v < 0.15 || v > 0.45 {
			t.Fatalf("draw %d out of limits: %v", i, v)
		}
	}
}

func TestInvalidDistributions(t *testing.T) {
	_, err := NewBeta(0, 1, 0, 1)
	assert.True(t, errors.Is(err, valerr.ErrConfiguration))
	_, err = NewUniform(1, 1)
	assert.True(t, errors.Is(err, valerr.ErrConfiguration))
	_, err = NewNormal(0, 0)
	assert.True(t, errors.Is(err, valerr.ErrConfiguration))
}

func TestNormalLimitsDefaultToQuantiles(t *testing.T) {
	n, err := NewNormal(1, 2)
	require.NoError(t, err)
	lo, hi := n.Limits()
	assert.InDelta(t, 1-hi, lo-1, 1e-9, "limits should be symmetric around the mean")
	assert.InDelta(t, 1+2*3.090232, hi, 1e-4)

	n.Lo, n.Hi = -1, 3
	lo, hi = n.Limits()
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 3.0, hi)
}

func TestSpaceOrderAndNormalize(t *testing.T) {
	s := NewSpace()
	u, _ := NewUniform(0, 2)
	n, _ := NewNormal(10, 5)
	require.NoError(t, s.Add("x2", u))
	require.NoError(t, s.Add("x1", n))
	assert.Error(t, s.Add("x2", u))

	assert.Equal(t, []string{"x2", "x1"}, s.Names())
	assert.Equal(t, 1, s.Index("x1"))
	assert.Equal(t, -1, s.Index("nope"))
	assert.Equal(t, []float64{1, 10}, s.Means())

	raw := mat.NewDense(2, 2, []float64{0, 10, 2, 20})
	norm, err := s.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0}, norm.RawRowView(0))
	assert.Equal(t, []float64{1, 2}, norm.RawRowView(1))

	back, err := s.Denormalize(norm)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(raw, back, 1e-12))

	_, err = s.Normalize(mat.NewDense(1, 3, nil))
	assert.True(t, errors.Is(err, valerr.ErrShapeMismatch))
}

func TestProblemParams(t *testing.T) {
	s := NewSpace()
	u, _ := NewUniform(-math.Pi, math.Pi)
	require.NoError(t, s.Add("x1", u))
	p, err := NewProblem(s, map[string]float64{"a": 7})
	require.NoError(t, err)

	got := p.Params([]float64{0.5})
	assert.Equal(t, map[string]float64{"a": 7, "x1": 0.5}, got)

	_, err = NewProblem(s, map[string]float64{"x1": 1})
	assert.True(t, errors.Is(err, valerr.ErrConfiguration))
}
