// Package testfuns provides analytic benchmark models with known behavior,
// used to exercise validation end to end.
package testfuns

import (
	"fmt"
	"math"
	"sort"

	"github.com/Noofbiz/gpcvalidate/gpc"
)

// Linear is y = Offset + Σ Slopes[name] * p[name]. Terms are summed in
// lexical order of the parameter names so results are bitwise reproducible.
type Linear struct {
	Offset float64
	Slopes map[string]float64

	order []string
}

// NewLinear creates a linear model with its summation order fixed up front.
func NewLinear(offset float64, slopes map[string]float64) Linear {
	return Linear{Offset: offset, Slopes: slopes, order: sortedKeys(slopes)}
}

// Simulate implements gpc.Model.
func (l Linear) Simulate(p map[string]float64) ([]float64, error) {
	order := l.order
	if len(order) != len(l.Slopes) {
		order = sortedKeys(l.Slopes)
	}
	y := l.Offset
	for _, name := range order {
		v, ok := p[name]
		if !ok {
			return nil, fmt.Errorf("linear: missing parameter %q", name)
		}
		y += l.Slopes[name] * v
	}
	return []float64{y}, nil
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Ishigami is the Ishigami function of x1, x2, x3 with constants a and b
// (taken from the fixed parameters, defaulting to 7 and 0.1). It returns the
// function value and its first term.
type Ishigami struct{}

// Simulate implements gpc.Model.
func (Ishigami) Simulate(p map[string]float64) ([]float64, error) {
	x1, x2, x3, err := need3(p, "x1", "x2", "x3")
	if err != nil {
		return nil, fmt.Errorf("ishigami: %w", err)
	}
	a, b := 7.0, 0.1
	if v, ok := p["a"]; ok {
		a = v
	}
	if v, ok := p["b"]; ok {
		b = v
	}
	first := math.Sin(x1)
	y := first + a*math.Pow(math.Sin(x2), 2) + b*math.Pow(x3, 4)*math.Sin(x1)
	return []float64{y, first}, nil
}

// Peaks is the MATLAB peaks surface of x1 and x3 shifted by x2. It returns
// the surface value and the value of x2.
type Peaks struct{}

// Simulate implements gpc.Model.
func (Peaks) Simulate(p map[string]float64) ([]float64, error) {
	x1, x2, x3, err := need3(p, "x1", "x2", "x3")
	if err != nil {
		return nil, fmt.Errorf("peaks: %w", err)
	}
	y := 3*math.Pow(1-x1, 2)*math.Exp(-x1*x1-math.Pow(x3+1, 2)) -
		10*(x1/5-math.Pow(x1, 3)-math.Pow(x3, 5))*math.Exp(-x1*x1-x3*x3) -
		1.0/3*math.Exp(-math.Pow(x1+1, 2)-x3*x3) + x2
	return []float64{y, x2}, nil
}

func need3(p map[string]float64, a, b, c string) (float64, float64, float64, error) {
	var out [3]float64
	for i, n := range []string{a, b, c} {
		v, ok := p[n]
		if !ok {
			return 0, 0, 0, fmt.Errorf("missing parameter %q", n)
		}
		out[i] = v
	}
	return out[0], out[1], out[2], nil
}

var registry = map[string]func() gpc.Model{
	"ishigami": func() gpc.Model { return Ishigami{} },
	"peaks":    func() gpc.Model { return Peaks{} },
}

// ByName returns a registered benchmark model.
func ByName(name string) (gpc.Model, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown test function %q (known: %v)", name, Names())
	}
	return mk(), nil
}

// Names lists the registered benchmark models.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
