// Package plotting renders validation comparisons: output densities of the
// true model and the surrogate, and 1-D or 2-D slices of both models with
// their pointwise difference. Every figure is written as a vector (pdf) and a
// raster (png) file.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/Noofbiz/gpcvalidate/metrics"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Formats lists the file formats every figure is written in.
var Formats = []string{"pdf", "png"}

var (
	originalColor = color.RGBA{R: 20, G: 80, B: 200, A: 255}
	gpcColor      = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	diffColor     = color.RGBA{A: 255}
)

// DensityComparison overlays the density of the surrogate outputs and of the
// true outputs and annotates the NRMSD. It writes <base>.pdf and <base>.png
// (base without extension) and returns the written paths.
func DensityComparison(base string, gpc, original metrics.Curve, nrmsd float64) ([]string, error) {
	p := plot.New()
	p.Title.Text = "Output density"
	p.X.Label.Text = "y"
	p.Y.Label.Text = "p(y)"
	p.Add(plotter.NewGrid())

	gl, err := curveLine(gpc, gpcColor)
	if err != nil {
		return nil, err
	}
	ol, err := curveLine(original, originalColor)
	if err != nil {
		return nil, err
	}
	p.Add(gl, ol)
	p.Legend.Add("gpc", gl)
	p.Legend.Add("original", ol)
	p.Legend.Top = true

	all := append(curveXYs(gpc), curveXYs(original)...)
	xmin, xmax, ymin, ymax := autoRange(all)
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = math.Min(ymin, 0), ymax

	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: xmin + 0.05*(xmax-xmin), Y: ymax - 0.05*(ymax-ymin)}},
		Labels: []string{fmt.Sprintf("error=%.2f%%", nrmsd)},
	})
	if err != nil {
		return nil, err
	}
	p.Add(label)

	return savePanels([]*plot.Plot{p}, 5.5*vg.Inch, 5*vg.Inch, base)
}

func curveXYs(c metrics.Curve) plotter.XYs {
	xys := make(plotter.XYs, 0, len(c.X))
	for i := range c.X {
		if i < len(c.Y) {
			xys = append(xys, plotter.XY{X: c.X[i], Y: c.Y[i]})
		}
	}
	return xys
}

func curveLine(c metrics.Curve, col color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(curveXYs(c))
	if err != nil {
		return nil, err
	}
	l.Color = col
	l.Width = vg.Points(1.5)
	return l, nil
}

// savePanels draws plots side by side on one canvas per format and writes
// <base>.<format>. base carries no extension.
func savePanels(plots []*plot.Plot, w, h vg.Length, base string) ([]string, error) {
	if err := ensureDir(filepath.Dir(base)); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(Formats))
	for _, format := range Formats {
		c, err := draw.NewFormattedCanvas(w, h, format)
		if err != nil {
			return written, err
		}
		tiles := draw.Tiles{
			Rows:      1,
			Cols:      len(plots),
			PadX:      vg.Millimeter * 6,
			PadTop:    vg.Millimeter * 2,
			PadBottom: vg.Millimeter * 2,
			PadLeft:   vg.Millimeter * 2,
			PadRight:  vg.Millimeter * 2,
		}
		canvases := plot.Align([][]*plot.Plot{plots}, tiles, draw.New(c))
		for j, p := range plots {
			p.Draw(canvases[0][j])
		}

		path := base + "." + format
		f, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := c.WriteTo(f); err != nil {
			f.Close()
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return written, fmt.Errorf("close %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// autoRange computes padded min/max for X and Y for a set of points.
func autoRange(xs plotter.XYs) (xmin, xmax, ymin, ymax float64) {
	if len(xs) == 0 {
		return -1, 1, -1, 1
	}
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, p := range xs {
		xmin = math.Min(xmin, p.X)
		xmax = math.Max(xmax, p.X)
		ymin = math.Min(ymin, p.Y)
		ymax = math.Max(ymax, p.Y)
	}
	padx := (xmax - xmin) * 0.06
	pady := (ymax - ymin) * 0.06
	if padx == 0 {
		padx = 1.0
	}
	if pady == 0 {
		pady = 1.0
	}
	return xmin - padx, xmax + padx, ymin - pady, ymax + pady
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
