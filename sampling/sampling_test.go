package sampling

import (
	"errors"
	"testing"

	"github.com/Noofbiz/gpcvalidate/params"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// testSpace returns a three parameter space x1, x2, x3 with distinct means.
func testSpace(t *testing.T) *params.Space {
	t.Helper()
	s := params.NewSpace()
	u1, err := params.NewUniform(0, 1)
	require.NoError(t, err)
	u2, err := params.NewUniform(-2, 2)
	require.NoError(t, err)
	b3, err := params.NewBeta(2, 2, 0.4, 0.6)
	require.NoError(t, err)
	require.NoError(t, s.Add("x1", u1))
	require.NoError(t, s.Add("x2", u2))
	require.NoError(t, s.Add("x3", b3))
	return s
}

func TestMonteCarloShapesAndSeed(t *testing.T) {
	s := testSpace(t)
	g, err := MonteCarlo(s, 200, 42)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, 200, g.Len())

	r, c := g.CoordsNorm.Dims()
	assert.Equal(t, 200, r)
	assert.Equal(t, 3, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := g.CoordsNorm.At(i, j)
			if v < -1 || v > 1 {
				t.Fatalf("normalized coordinate (%d,%d) out of [-1,1]: %v", i, j, v)
			}
		}
	}

	again, err := MonteCarlo(s, 200, 42)
	require.NoError(t, err)
	assert.True(t, mat.Equal(g.Coords, again.Coords), "same seed must reproduce the grid")

	_, err = MonteCarlo(s, 0, 1)
	assert.True(t, errors.Is(err, valerr.ErrConfiguration))
}

func TestSliceInactiveColumnsHoldMean(t *testing.T) {
	s := testSpace(t)
	sl, err := NewSlice(s, []string{"x2"}, []int{7}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, sl.Active)
	means := s.Means()
	for i := 0; i < sl.Len(); i++ {
		assert.Equal(t, means[0], sl.Coords.At(i, 0))
		assert.Equal(t, means[2], sl.Coords.At(i, 2))
	}
	assert.Equal(t, Linspace(-2, 2, 7), sl.ActiveColumn(0))
}

func TestSliceTwoActiveIsCartesianProduct(t *testing.T) {
	s := testSpace(t)
	// Caller order is reversed relative to the space; sizes travel with names.
	sl, err := NewSlice(s, []string{"x3", "x1"}, []int{4, 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"x1", "x3"}, sl.Names)
	assert.Equal(t, []int{0, 2}, sl.Active)
	require.Equal(t, 3*4, sl.Len())

	a1 := Linspace(0, 1, 3)
	a3 := Linspace(0.4, 0.6, 4)
	assert.Equal(t, a1, sl.Axes[0])
	assert.Equal(t, a3, sl.Axes[1])

	seen := make(map[[2]float64]int)
	for i := 0; i < sl.Len(); i++ {
		// first axis varies fastest
		assert.Equal(t, a1[i%3], sl.Coords.At(i, 0))
		assert.Equal(t, a3[i/3], sl.Coords.At(i, 2))
		assert.Equal(t, 0.0, sl.Coords.At(i, 1))
		seen[[2]float64{sl.Coords.At(i, 0), sl.Coords.At(i, 2)}]++
	}
	assert.Len(t, seen, 12)
}

func TestSliceExplicitCoordinates(t *testing.T) {
	s := testSpace(t)
	// columns given as (x2, x1); a zero-valued coordinate must not be
	// mistaken for an inactive column.
	coords := mat.NewDense(3, 2, []float64{
		0, 0,
		1, 0.5,
		-1, 1,
	})
	sl, err := NewSlice(s, []string{"x2", "x1"}, nil, coords)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, sl.Coords))
	assert.Equal(t, []float64{0, 1, -1}, mat.Col(nil, 1, sl.Coords))
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, mat.Col(nil, 2, sl.Coords))
	assert.Equal(t, []float64{-1, 0, 1}, sl.Axes[1])
}

func TestSliceConfigurationErrors(t *testing.T) {
	s := testSpace(t)
	cases := []struct {
		name   string
		names  []string
		nGrid  []int
		coords mat.Matrix
	}{
		{"too many", []string{"x1", "x2", "x3"}, []int{2, 2, 2}, nil},
		{"none", nil, []int{2}, nil},
		{"unknown", []string{"y"}, []int{2}, nil},
		{"duplicate", []string{"x1", "x1"}, []int{2, 2}, nil},
		{"size mismatch", []string{"x1", "x2"}, []int{2}, nil},
		{"coords mismatch", []string{"x1", "x2"}, nil, mat.NewDense(2, 3, nil)},
		{"both", []string{"x1"}, []int{2}, mat.NewDense(2, 1, nil)},
		{"neither", []string{"x1"}, nil, nil},
		{"empty axis", []string{"x1"}, []int{0}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSlice(s, tc.names, tc.nGrid, tc.coords)
			assert.True(t, errors.Is(err, valerr.ErrConfiguration), "got %v", err)
		})
	}
}

func TestCartesianProductAndLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, Linspace(0, 1, 5))
	assert.Equal(t, []float64{3}, Linspace(3, 5, 1))

	p := CartesianProduct([][]float64{{1, 2}, {10, 20, 30}})
	r, c := p.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{1, 10}, p.RawRowView(0))
	assert.Equal(t, []float64{2, 10}, p.RawRowView(1))
	assert.Equal(t, []float64{1, 20}, p.RawRowView(2))
	assert.Equal(t, []float64{2, 30}, p.RawRowView(5))
}
