// Package sampling builds validation sampling plans over a parameter space:
// Monte-Carlo clouds drawn from the joint distribution and cartesian slices
// over one or two active parameters with every other parameter pinned to its
// mean.
package sampling

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Noofbiz/gpcvalidate/params"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
)

// Grid is a sampling plan in physical (Coords) and canonical (CoordsNorm)
// units. Both matrices have one row per point and one column per parameter
// of the space they were built from, row-for-row aligned.
type Grid struct {
	Coords     *mat.Dense
	CoordsNorm *mat.Dense
}

// NewGrid pairs raw coordinates with their normalized counterpart computed
// from space.
func NewGrid(space *params.Space, coords *mat.Dense) (*Grid, error) {
	norm, err := space.Normalize(coords)
	if err != nil {
		return nil, err
	}
	return &Grid{Coords: coords, CoordsNorm: norm}, nil
}

// Len returns the number of sampling points.
func (g *Grid) Len() int {
	if g == nil || g.Coords == nil {
		return 0
	}
	r, _ := g.Coords.Dims()
	return r
}

// Validate checks the row-for-row invariant between raw and normalized
// coordinates.
func (g *Grid) Validate() error {
	if g == nil || g.Coords == nil || g.CoordsNorm == nil {
		return fmt.Errorf("%w: grid is missing coordinates", valerr.ErrShapeMismatch)
	}
	r1, c1 := g.Coords.Dims()
	r2, c2 := g.CoordsNorm.Dims()
	if r1 != r2 || c1 != c2 {
		return fmt.Errorf("%w: raw coordinates %dx%d, normalized %dx%d", valerr.ErrShapeMismatch, r1, c1, r2, c2)
	}
	return nil
}

// MonteCarlo draws n independent points from the joint distribution of all
// parameters in space. A zero seed uses a time based seed.
func MonteCarlo(space *params.Space, n int, seed int64) (*Grid, error) {
	if space == nil || space.Len() == 0 {
		return nil, fmt.Errorf("%w: empty parameter space", valerr.ErrConfiguration)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: number of samples must be > 0, got %d", valerr.ErrConfiguration, n)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)

	d := space.Len()
	coords := mat.NewDense(n, d, nil)
	for j := 0; j < d; j++ {
		_, p := space.At(j)
		for i := 0; i < n; i++ {
			coords.Set(i, j, p.Rand(src))
		}
	}
	return NewGrid(space, coords)
}
