package validate

import (
	"errors"
	"fmt"
	"log"

	"github.com/Noofbiz/gpcvalidate/archive"
	"github.com/Noofbiz/gpcvalidate/evaluate"
	"github.com/Noofbiz/gpcvalidate/gpc"
	"github.com/Noofbiz/gpcvalidate/metrics"
	"github.com/Noofbiz/gpcvalidate/plotting"
	"github.com/Noofbiz/gpcvalidate/sampling"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
)

// SliceOptions configures a slice validation.
type SliceOptions struct {
	// Vars names the 1 or 2 active variables.
	Vars []string
	// NGrid is the number of points per active variable, aligned with Vars.
	NGrid []int
	// Coords holds explicit active-variable coordinates, one column per
	// entry of Vars. Exactly one of NGrid and Coords must be set.
	Coords *mat.Dense
	// OutputIdx lists the output quantities to compare; nil compares only
	// output 0.
	OutputIdx []int
	// DataOriginal optionally holds precomputed true-model outputs on the
	// slice (all outputs, one row per slice point). The model is not run
	// when it is set.
	DataOriginal *mat.Dense
	// Out is the file base of the archive and plots. Empty writes nothing.
	Out string
}

// SliceResult is the outcome of a slice validation. Output matrices have one
// column per entry of OutputIdx.
type SliceResult struct {
	Slice      *sampling.Slice
	OutputIdx  []int
	Original   *mat.Dense
	GPC        *mat.Dense
	Difference *mat.Dense
	NRMSD      []float64
	Files      []string
}

// Slice compares the true model and the surrogate on a cartesian slice over
// one or two variables with every other variable at its mean.
func (v *Validator) Slice(s *gpc.Surrogate, coeffs *mat.Dense, opts SliceOptions) (*SliceResult, error) {
	if s == nil {
		return nil, errors.New("surrogate cannot be nil")
	}
	outputIdx := opts.OutputIdx
	if len(outputIdx) == 0 {
		outputIdx = []int{0}
	}

	var explicit mat.Matrix
	if opts.Coords != nil {
		explicit = opts.Coords
	}
	sl, err := sampling.NewSlice(s.Problem.Space, opts.Vars, opts.NGrid, explicit)
	if err != nil {
		return nil, err
	}

	co := v.coordinator()
	yGPC, err := co.SurrogateOutputs(s, coeffs, sl.Grid, outputIdx)
	if err != nil {
		return nil, err
	}

	all := opts.DataOriginal
	if all == nil {
		log.Printf("[Validate] evaluating original model on %d slice points over %v", sl.Len(), sl.Names)
		all, err = co.TrueOutputs(s, sl.Grid)
		if err != nil {
			return nil, err
		}
	} else if r, _ := all.Dims(); r != sl.Len() {
		return nil, fmt.Errorf("%w: precomputed data has %d rows for %d slice points", valerr.ErrShapeMismatch, r, sl.Len())
	}
	yOrig, err := evaluate.SelectColumns(all, outputIdx)
	if err != nil {
		return nil, err
	}
	if err := evaluate.CheckAligned(yGPC, yOrig); err != nil {
		return nil, err
	}

	var diff mat.Dense
	diff.Sub(yOrig, yGPC)
	nrmsd, err := metrics.NRMSD(yGPC, yOrig)
	if err != nil {
		return nil, err
	}
	res := &SliceResult{
		Slice:      sl,
		OutputIdx:  outputIdx,
		Original:   yOrig,
		GPC:        yGPC,
		Difference: &diff,
		NRMSD:      nrmsd,
	}

	if opts.Out == "" {
		return res, nil
	}

	a := archive.New()
	a.Put(archive.ResultsOriginal, yOrig)
	a.Put(archive.ResultsGPC, yGPC)
	a.Put(archive.ResultsDifference, &diff)
	a.Put(archive.GridCoords, sl.Coords)
	a.Put(archive.GridCoordsNorm, sl.CoordsNorm)
	a.PutVector(archive.ErrorNRMSD, nrmsd)
	files, err := v.save(a, opts.Out)
	res.Files = append(res.Files, files...)
	if err != nil {
		return res, err
	}

	base := archive.FileName(opts.Out, "")
	for k, idx := range outputIdx {
		files, err := plotting.SliceComparison(base, idx, sl,
			mat.Col(nil, k, yOrig), mat.Col(nil, k, yGPC), mat.Col(nil, k, &diff))
		res.Files = append(res.Files, files...)
		if err != nil {
			return res, fmt.Errorf("plot output %d: %w", idx, err)
		}
	}
	return res, nil
}
