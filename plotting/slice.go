package plotting

import (
	"fmt"
	"math"
	"sort"

	"github.com/Noofbiz/gpcvalidate/sampling"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// paletteSize is the number of colors of every heat map palette.
const paletteSize = 255

// SliceFileBase returns the file base of the slice figure for one output
// quantity.
func SliceFileBase(base string, outputIdx int) string {
	return fmt.Sprintf("%s_QOI_idx_%d", base, outputIdx)
}

// SliceComparison renders true outputs, surrogate outputs and their
// difference over the active variables of s for one output quantity and
// writes SliceFileBase(base, outputIdx) in every format.
func SliceComparison(base string, outputIdx int, s *sampling.Slice, original, gpc, diff []float64) ([]string, error) {
	n := s.Len()
	if len(original) != n || len(gpc) != n || len(diff) != n {
		return nil, fmt.Errorf("%w: %d points, %d/%d/%d values", valerr.ErrShapeMismatch, n, len(original), len(gpc), len(diff))
	}
	out := SliceFileBase(base, outputIdx)
	switch len(s.Names) {
	case 1:
		return slice1D(out, s, original, gpc, diff)
	case 2:
		return slice2D(out, s, original, gpc, diff)
	}
	return nil, fmt.Errorf("%w: cannot plot %d active variables", valerr.ErrConfiguration, len(s.Names))
}

func slice1D(base string, s *sampling.Slice, original, gpc, diff []float64) ([]string, error) {
	x := s.ActiveColumn(0)
	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })
	xys := func(y []float64) plotter.XYs {
		out := make(plotter.XYs, len(order))
		for k, i := range order {
			out[k] = plotter.XY{X: x[i], Y: y[i]}
		}
		return out
	}

	name := s.Names[0]
	p1 := plot.New()
	p1.X.Label.Text = name
	p1.Y.Label.Text = fmt.Sprintf("y(%s)", name)
	p1.Add(plotter.NewGrid())
	ol, err := plotter.NewLine(xys(original))
	if err != nil {
		return nil, err
	}
	ol.Color = originalColor
	ol.Width = vg.Points(1.5)
	gl, err := plotter.NewLine(xys(gpc))
	if err != nil {
		return nil, err
	}
	gl.Color = gpcColor
	gl.Width = vg.Points(1.5)
	p1.Add(ol, gl)
	p1.Legend.Add("original", ol)
	p1.Legend.Add("gPC", gl)

	p2 := plot.New()
	p2.X.Label.Text = name
	p2.Add(plotter.NewGrid())
	dl, err := plotter.NewLine(xys(diff))
	if err != nil {
		return nil, err
	}
	dl.Color = diffColor
	dl.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p2.Add(dl)
	p2.Legend.Add("difference", dl)

	return savePanels([]*plot.Plot{p1, p2}, 12*vg.Inch, 5*vg.Inch, base)
}

func slice2D(base string, s *sampling.Slice, original, gpc, diff []float64) ([]string, error) {
	for k, ax := range s.Axes {
		if len(ax) < 2 {
			return nil, fmt.Errorf("%w: axis %s needs at least 2 points for a heat map, got %d", valerr.ErrConfiguration, s.Names[k], len(ax))
		}
	}
	x0 := s.ActiveColumn(0)
	x1 := s.ActiveColumn(1)

	gOrig := newGrid(s.Axes[0], s.Axes[1], x0, x1, original)
	gGPC := newGrid(s.Axes[0], s.Axes[1], x0, x1, gpc)
	gDiff := newGrid(s.Axes[0], s.Axes[1], x0, x1, diff)

	// true and surrogate share one scale
	lo, hi := span(original)
	lo2, hi2 := span(gpc)
	lo, hi = widen(math.Min(lo, lo2), math.Max(hi, hi2))
	seq := palette.Heat(paletteSize, 1)

	// difference scale is symmetric so that zero maps to the neutral middle
	dlo, dhi := span(diff)
	m := math.Max(math.Abs(dlo), math.Abs(dhi))
	if m == 0 || math.IsNaN(m) {
		m = 1
	}
	div := moreland.SmoothBlueRed()
	div.SetMin(-m)
	div.SetMax(m)

	panels := []struct {
		title  string
		grid   gridXYZ
		pal    palette.Palette
		lo, hi float64
	}{
		{"Original model", gOrig, seq, lo, hi},
		{"gPC approximation", gGPC, seq, lo, hi},
		{"Difference (Original vs gPC)", gDiff, div.Palette(paletteSize), -m, m},
	}
	plots := make([]*plot.Plot, 0, len(panels))
	for _, pn := range panels {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s [%.3g, %.3g]", pn.title, pn.lo, pn.hi)
		p.X.Label.Text = s.Names[0]
		p.Y.Label.Text = s.Names[1]
		h := plotter.NewHeatMap(pn.grid, pn.pal)
		h.Min, h.Max = pn.lo, pn.hi
		p.Add(h)
		plots = append(plots, p)
	}
	return savePanels(plots, 16*vg.Inch, 5*vg.Inch, base)
}

// gridXYZ implements plotter.GridXYZ. z is indexed [row][column], rows
// following the second active axis and columns the first.
type gridXYZ struct {
	x, y []float64
	z    [][]float64
}

func (g gridXYZ) Dims() (c, r int)   { return len(g.x), len(g.y) }
func (g gridXYZ) Z(c, r int) float64 { return g.z[r][c] }
func (g gridXYZ) X(c int) float64    { return g.x[c] }
func (g gridXYZ) Y(r int) float64    { return g.y[r] }

// newGrid places every value at the cell of its coordinates on the two axes.
// Cells without a point are NaN.
func newGrid(ax0, ax1, x0, x1, v []float64) gridXYZ {
	z := make([][]float64, len(ax1))
	for r := range z {
		z[r] = make([]float64, len(ax0))
		for c := range z[r] {
			z[r][c] = math.NaN()
		}
	}
	for i := range v {
		c := sort.SearchFloat64s(ax0, x0[i])
		r := sort.SearchFloat64s(ax1, x1[i])
		if c < len(ax0) && r < len(ax1) {
			z[r][c] = v[i]
		}
	}
	return gridXYZ{x: ax0, y: ax1, z: z}
}

func span(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

func widen(lo, hi float64) (float64, float64) {
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 1
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}
