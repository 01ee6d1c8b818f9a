package params

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/gpcvalidate/valerr"
)

// Problem couples a parameter space with the deterministic parameters of a
// model. Fixed values are passed to every model call alongside the random
// ones.
type Problem struct {
	Space *Space
	Fixed map[string]float64
}

// NewProblem creates a problem. fixed may be nil.
func NewProblem(space *Space, fixed map[string]float64) (*Problem, error) {
	if space == nil {
		return nil, errors.New("parameter space cannot be nil")
	}
	for name := range fixed {
		if _, ok := space.Get(name); ok {
			return nil, fmt.Errorf("%w: parameter %q is both fixed and random", valerr.ErrConfiguration, name)
		}
	}
	return &Problem{Space: space, Fixed: fixed}, nil
}

// Params builds the named parameter set for one row of raw coordinates.
func (p *Problem) Params(row []float64) map[string]float64 {
	out := make(map[string]float64, len(p.Fixed)+len(row))
	for k, v := range p.Fixed {
		out[k] = v
	}
	for i, n := range p.Space.names {
		if i < len(row) {
			out[n] = row[i]
		}
	}
	return out
}
