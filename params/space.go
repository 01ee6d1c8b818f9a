package params

import (
	"fmt"

	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
)

// Space is an ordered set of named random parameters. The insertion order is
// stable and defines the column order of every coordinate matrix.
type Space struct {
	names  []string
	params map[string]RandomParameter
}

// NewSpace creates an empty parameter space.
func NewSpace() *Space {
	return &Space{params: make(map[string]RandomParameter)}
}

// Add appends a parameter. Names must be unique and non-empty.
func (s *Space) Add(name string, p RandomParameter) error {
	if name == "" {
		return fmt.Errorf("%w: empty parameter name", valerr.ErrConfiguration)
	}
	if p == nil {
		return fmt.Errorf("%w: parameter %q has no distribution", valerr.ErrConfiguration, name)
	}
	if _, ok := s.params[name]; ok {
		return fmt.Errorf("%w: duplicate parameter %q", valerr.ErrConfiguration, name)
	}
	s.names = append(s.names, name)
	s.params[name] = p
	return nil
}

// Len returns the number of parameters.
func (s *Space) Len() int { return len(s.names) }

// Names returns a copy of the parameter names in column order.
func (s *Space) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// At returns the i-th parameter in column order.
func (s *Space) At(i int) (string, RandomParameter) {
	name := s.names[i]
	return name, s.params[name]
}

// Get looks a parameter up by name.
func (s *Space) Get(name string) (RandomParameter, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Index returns the column of name, or -1.
func (s *Space) Index(name string) int {
	for i, n := range s.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Means returns the mean of every parameter in column order.
func (s *Space) Means() []float64 {
	out := make([]float64, len(s.names))
	for i, n := range s.names {
		out[i] = s.params[n].Mean()
	}
	return out
}

// Normalize maps raw coordinates (one column per parameter) into the
// canonical domain of each parameter.
func (s *Space) Normalize(coords mat.Matrix) (*mat.Dense, error) {
	return s.mapColumns(coords, func(p RandomParameter, v float64) float64 { return p.Normalize(v) })
}

// Denormalize maps canonical coordinates back to physical units.
func (s *Space) Denormalize(coordsNorm mat.Matrix) (*mat.Dense, error) {
	return s.mapColumns(coordsNorm, func(p RandomParameter, v float64) float64 { return p.Denormalize(v) })
}

func (s *Space) mapColumns(in mat.Matrix, fn func(RandomParameter, float64) float64) (*mat.Dense, error) {
	r, c := in.Dims()
	if c != len(s.names) {
		return nil, fmt.Errorf("%w: coordinates have %d columns, parameter space has %d", valerr.ErrShapeMismatch, c, len(s.names))
	}
	out := mat.NewDense(r, c, nil)
	for j, n := range s.names {
		p := s.params[n]
		for i := 0; i < r; i++ {
			out.Set(i, j, fn(p, in.At(i, j)))
		}
	}
	return out, nil
}
