// Package validate compares a fitted gPC surrogate with the true model it
// approximates, either statistically on a Monte-Carlo cloud or locally on a
// 1-D or 2-D slice through the parameter space.
package validate

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/Noofbiz/gpcvalidate/archive"
	"github.com/Noofbiz/gpcvalidate/evaluate"
	"github.com/Noofbiz/gpcvalidate/gpc"
	"github.com/Noofbiz/gpcvalidate/metrics"
	"github.com/Noofbiz/gpcvalidate/plotting"
	"github.com/Noofbiz/gpcvalidate/sampling"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
)

// Validator runs validations. Its Evaluator is the backend the true model is
// run on.
type Validator struct {
	Evaluator evaluate.Evaluator
	Workers   int

	// ExportXLSX additionally writes the archive as a spreadsheet.
	ExportXLSX bool
}

// New creates a validator. A nil evaluator uses an in-process evaluate.Pool.
func New(ev evaluate.Evaluator, workers int) *Validator {
	if ev == nil {
		ev = evaluate.NewPool()
	}
	return &Validator{Evaluator: ev, Workers: workers}
}

func (v *Validator) coordinator() *evaluate.Coordinator {
	return evaluate.NewCoordinator(v.Evaluator, v.Workers)
}

// MonteCarloOptions configures a statistical validation.
type MonteCarloOptions struct {
	// Samples is the number of Monte-Carlo points. Ignored when the
	// surrogate carries a validation set.
	Samples int
	// OutputIdx selects the output quantity whose density is compared.
	OutputIdx int
	// Out is the file base of the archive and plot. Empty writes nothing.
	Out string
	// Seed of the Monte-Carlo draw; zero uses a time based seed.
	Seed int64
}

// MonteCarloResult is the outcome of a statistical validation.
type MonteCarloResult struct {
	Grid     *sampling.Grid
	Original *mat.Dense
	GPC      *mat.Dense
	// NRMSD holds one value per output quantity; NaN marks a constant
	// true output.
	NRMSD []float64

	PDFOriginal metrics.Curve
	PDFGPC      metrics.Curve

	// Files lists every artifact written.
	Files []string
	// Cached reports that the surrogate's validation set was reused.
	Cached bool
}

// MonteCarlo evaluates the true model and the surrogate on a Monte-Carlo
// cloud over the full parameter space, or on the surrogate's validation set
// when it has one, and compares them.
//
// A degenerate output distribution does not prevent the accuracy metric: the
// result is returned with NRMSD set together with an error wrapping
// valerr.ErrDegenerateDistribution, the archive is written without densities
// and no plot is rendered.
func (v *Validator) MonteCarlo(s *gpc.Surrogate, coeffs *mat.Dense, opts MonteCarloOptions) (*MonteCarloResult, error) {
	if s == nil {
		return nil, errors.New("surrogate cannot be nil")
	}
	co := v.coordinator()
	res := &MonteCarloResult{}

	if cache, ok := s.Validation(); ok {
		log.Printf("[Validate] reusing validation set of %d points", cache.Grid.Len())
		res.Grid, res.Original, res.Cached = cache.Grid, cache.Results, true
	} else {
		g, err := sampling.MonteCarlo(s.Problem.Space, opts.Samples, opts.Seed)
		if err != nil {
			return nil, err
		}
		log.Printf("[Validate] evaluating original model at %d Monte-Carlo points", g.Len())
		y, err := co.TrueOutputs(s, g)
		if err != nil {
			return nil, err
		}
		res.Grid, res.Original = g, y
	}

	y, err := co.SurrogateOutputs(s, coeffs, res.Grid, nil)
	if err != nil {
		return nil, err
	}
	res.GPC = y
	if err := evaluate.CheckAligned(res.GPC, res.Original); err != nil {
		return nil, err
	}

	res.NRMSD, err = metrics.NRMSD(res.GPC, res.Original)
	if err != nil {
		return nil, err
	}
	for j, e := range res.NRMSD {
		if math.IsNaN(e) {
			log.Printf("[Validate] output %d is constant; NRMSD is undefined", j)
		}
	}

	_, nout := res.Original.Dims()
	if opts.OutputIdx < 0 || opts.OutputIdx >= nout {
		return res, fmt.Errorf("%w: output index %d out of range [0, %d)", valerr.ErrConfiguration, opts.OutputIdx, nout)
	}
	densityErr := res.densities(opts.OutputIdx)

	if opts.Out != "" {
		files, err := v.archiveMonteCarlo(res, opts.Out, densityErr == nil)
		res.Files = append(res.Files, files...)
		if err != nil {
			return res, err
		}
		if densityErr == nil {
			files, err := plotting.DensityComparison(archive.FileName(opts.Out, ""), res.PDFGPC, res.PDFOriginal, res.NRMSD[opts.OutputIdx])
			res.Files = append(res.Files, files...)
			if err != nil {
				return res, fmt.Errorf("plot density comparison: %w", err)
			}
		}
	}
	return res, densityErr
}

func (r *MonteCarloResult) densities(idx int) error {
	var err error
	r.PDFGPC, err = metrics.Density(mat.Col(nil, idx, r.GPC))
	if err != nil {
		return fmt.Errorf("gpc output %d density: %w", idx, err)
	}
	r.PDFOriginal, err = metrics.Density(mat.Col(nil, idx, r.Original))
	if err != nil {
		return fmt.Errorf("original output %d density: %w", idx, err)
	}
	return nil
}

func (v *Validator) archiveMonteCarlo(r *MonteCarloResult, out string, withPDF bool) ([]string, error) {
	a := archive.New()
	a.Put(archive.ResultsOriginal, r.Original)
	a.Put(archive.ResultsGPC, r.GPC)
	a.Put(archive.GridCoords, r.Grid.Coords)
	a.Put(archive.GridCoordsNorm, r.Grid.CoordsNorm)
	a.PutVector(archive.ErrorNRMSD, r.NRMSD)
	if withPDF {
		if err := a.PutPairs(archive.PDFOriginal, r.PDFOriginal.X, r.PDFOriginal.Y); err != nil {
			return nil, err
		}
		if err := a.PutPairs(archive.PDFGPC, r.PDFGPC.X, r.PDFGPC.Y); err != nil {
			return nil, err
		}
	}
	return v.save(a, out)
}

func (v *Validator) save(a *archive.Archive, out string) ([]string, error) {
	var files []string
	path, err := a.Save(out)
	if err != nil {
		return nil, fmt.Errorf("save archive: %w", err)
	}
	files = append(files, path)
	log.Printf("[Validate] archive written to %s (run %s)", path, a.RunID)
	if v.ExportXLSX {
		xp, err := a.ExportXLSX(out)
		if err != nil {
			return files, fmt.Errorf("export archive: %w", err)
		}
		files = append(files, xp)
	}
	return files, nil
}
