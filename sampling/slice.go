package sampling

import (
	"fmt"
	"sort"

	"github.com/Noofbiz/gpcvalidate/params"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxActive is the largest number of active variables a slice can have.
const MaxActive = 2

// Slice is a cartesian slice through the parameter space. Only the Active
// columns vary; every other column holds the mean of its parameter.
type Slice struct {
	*Grid

	// Names of the active parameters in parameter-space order.
	Names []string
	// Active holds the column index of every active parameter, aligned with Names.
	Active []int
	// Axes holds the sorted distinct values of every active parameter,
	// aligned with Names.
	Axes [][]float64
}

// NewSlice builds a slice over the named parameters. Exactly one of nGrid
// (points per axis, aligned with names) and coords (one column per name,
// aligned with names) must be given.
//
// Names are reconciled to the order of the parameter space, and nGrid entries
// and coords columns are reordered with them. With nGrid the active columns
// are the cartesian product of linear ranges over each parameter's limits,
// with the first active axis varying fastest.
func NewSlice(space *params.Space, names []string, nGrid []int, coords mat.Matrix) (*Slice, error) {
	if space == nil {
		return nil, fmt.Errorf("%w: nil parameter space", valerr.ErrConfiguration)
	}
	if len(names) == 0 || len(names) > MaxActive {
		return nil, fmt.Errorf("%w: slices need 1 to %d active variables, got %d", valerr.ErrConfiguration, MaxActive, len(names))
	}
	if (nGrid == nil) == (coords == nil) {
		return nil, fmt.Errorf("%w: exactly one of grid sizes and explicit coordinates is required", valerr.ErrConfiguration)
	}
	if nGrid != nil && len(nGrid) != len(names) {
		return nil, fmt.Errorf("%w: %d grid sizes for %d active variables", valerr.ErrConfiguration, len(nGrid), len(names))
	}
	if coords != nil {
		if _, c := coords.Dims(); c != len(names) {
			return nil, fmt.Errorf("%w: explicit coordinates have %d columns for %d active variables", valerr.ErrConfiguration, c, len(names))
		}
	}

	// order[k] is the caller position of the k-th active variable in space order.
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, fmt.Errorf("%w: duplicate active variable %q", valerr.ErrConfiguration, n)
		}
		if space.Index(n) < 0 {
			return nil, fmt.Errorf("%w: unknown variable %q", valerr.ErrConfiguration, n)
		}
		seen[n] = true
	}
	var (
		sorted []string
		active []int
		order  []int
	)
	for i, n := range space.Names() {
		if !seen[n] {
			continue
		}
		sorted = append(sorted, n)
		active = append(active, i)
		for k, cn := range names {
			if cn == n {
				order = append(order, k)
			}
		}
	}

	var (
		activeCoords *mat.Dense
		axes         = make([][]float64, len(sorted))
	)
	if nGrid != nil {
		for k, n := range sorted {
			size := nGrid[order[k]]
			if size < 1 {
				return nil, fmt.Errorf("%w: grid size for %q must be >= 1, got %d", valerr.ErrConfiguration, n, size)
			}
			p, _ := space.Get(n)
			lo, hi := p.Limits()
			axes[k] = Linspace(lo, hi, size)
		}
		activeCoords = CartesianProduct(axes)
	} else {
		r, _ := coords.Dims()
		if r == 0 {
			return nil, fmt.Errorf("%w: explicit coordinates are empty", valerr.ErrConfiguration)
		}
		activeCoords = mat.NewDense(r, len(sorted), nil)
		for k := range sorted {
			col := make([]float64, r)
			for i := 0; i < r; i++ {
				col[i] = coords.At(i, order[k])
			}
			activeCoords.SetCol(k, col)
			axes[k] = unique(col)
		}
	}

	rows, _ := activeCoords.Dims()
	full := mat.NewDense(rows, space.Len(), nil)
	means := space.Means()
	isActive := make(map[int]int, len(active))
	for k, c := range active {
		isActive[c] = k
	}
	for j := 0; j < space.Len(); j++ {
		k, ok := isActive[j]
		for i := 0; i < rows; i++ {
			if ok {
				full.Set(i, j, activeCoords.At(i, k))
			} else {
				full.Set(i, j, means[j])
			}
		}
	}

	g, err := NewGrid(space, full)
	if err != nil {
		return nil, err
	}
	return &Slice{Grid: g, Names: sorted, Active: active, Axes: axes}, nil
}

// ActiveColumn returns the raw values of the k-th active variable.
func (s *Slice) ActiveColumn(k int) []float64 {
	return mat.Col(nil, s.Active[k], s.Coords)
}

// Linspace returns n evenly spaced values over [lo, hi]. A single point is lo.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// CartesianProduct returns every combination of the given axes, one row per
// combination and one column per axis. The first axis varies fastest.
func CartesianProduct(axes [][]float64) *mat.Dense {
	if len(axes) == 0 {
		return nil
	}
	rows := 1
	for _, a := range axes {
		rows *= len(a)
	}
	if rows == 0 {
		return nil
	}
	out := mat.NewDense(rows, len(axes), nil)
	for i := 0; i < rows; i++ {
		rem := i
		for k, a := range axes {
			out.Set(i, k, a[rem%len(a)])
			rem /= len(a)
		}
	}
	return out
}

func unique(v []float64) []float64 {
	s := make([]float64, len(v))
	copy(s, v)
	sort.Float64s(s)
	out := make([]float64, 0, len(s))
	for _, x := range s {
		if len(out) == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
