package evaluate

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/gpcvalidate/gpc"
	"github.com/Noofbiz/gpcvalidate/projection"
	"github.com/Noofbiz/gpcvalidate/sampling"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
)

// Coordinator evaluates the true model and the surrogate on the same grid.
type Coordinator struct {
	Evaluator Evaluator
	Workers   int
}

// NewCoordinator creates a coordinator. A nil evaluator uses a Pool.
func NewCoordinator(ev Evaluator, workers int) *Coordinator {
	if ev == nil {
		ev = NewPool()
	}
	return &Coordinator{Evaluator: ev, Workers: workers}
}

// TrueOutputs runs the true model of s on every point of g.
func (c *Coordinator) TrueOutputs(s *gpc.Surrogate, g *sampling.Grid) (*mat.Dense, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	y, err := c.Evaluator.Evaluate(s.Model, s.Problem, g.Coords, g.CoordsNorm, c.Workers)
	if err != nil {
		return nil, err
	}
	if y == nil {
		return nil, errors.New("evaluator returned no results")
	}
	if r, _ := y.Dims(); r != g.Len() {
		return nil, fmt.Errorf("%w: evaluator returned %d rows for %d points", valerr.ErrShapeMismatch, r, g.Len())
	}
	return y, nil
}

// SurrogateOutputs evaluates the expansion of s on the normalized coordinates
// of g after mapping them into the surrogate's reduced space.
func (c *Coordinator) SurrogateOutputs(s *gpc.Surrogate, coeffs *mat.Dense, g *sampling.Grid, outputIdx []int) (*mat.Dense, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if coeffs == nil {
		return nil, errors.New("coefficients cannot be nil")
	}
	x, err := projection.Reduce(s.Projection, g.CoordsNorm)
	if err != nil {
		return nil, err
	}
	y, err := s.Approx.Approximate(coeffs, x, outputIdx)
	if err != nil {
		return nil, err
	}
	if r, _ := y.Dims(); r != g.Len() {
		return nil, fmt.Errorf("%w: surrogate returned %d rows for %d points", valerr.ErrShapeMismatch, r, g.Len())
	}
	return y, nil
}

// SelectColumns returns the given columns of y as a new matrix. nil keeps
// every column; an empty non-nil selection is an error.
func SelectColumns(y *mat.Dense, idx []int) (*mat.Dense, error) {
	if idx == nil {
		return y, nil
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: empty output selection", valerr.ErrConfiguration)
	}
	r, c := y.Dims()
	out := mat.NewDense(r, len(idx), nil)
	for k, j := range idx {
		if j < 0 || j >= c {
			return nil, fmt.Errorf("%w: output index %d out of range [0, %d)", valerr.ErrShapeMismatch, j, c)
		}
		out.SetCol(k, mat.Col(nil, j, y))
	}
	return out, nil
}

// CheckAligned requires a and b to have identical dimensions.
func CheckAligned(a, b *mat.Dense) error {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb || ca != cb {
		return fmt.Errorf("%w: %dx%d vs %dx%d", valerr.ErrShapeMismatch, ra, ca, rb, cb)
	}
	return nil
}
