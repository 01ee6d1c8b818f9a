// Package gpc holds the surrogate handle validated by this module: the
// problem it approximates, its optional dimension-reducing projection, an
// optional validation cache and the evaluation contract of the expansion.
package gpc

import (
	"errors"

	"github.com/Noofbiz/gpcvalidate/params"
	"github.com/Noofbiz/gpcvalidate/projection"
	"github.com/Noofbiz/gpcvalidate/sampling"

	"gonum.org/v1/gonum/mat"
)

// Approximator evaluates a fitted expansion. x holds coordinates in the
// surrogate's own (possibly reduced) normalized space, one row per point.
// outputIdx restricts the returned columns; nil returns every output.
type Approximator interface {
	Approximate(coeffs *mat.Dense, x *mat.Dense, outputIdx []int) (*mat.Dense, error)
}

// Model is the true (expensive) model a surrogate approximates. It receives
// every random and fixed parameter by name and returns one value per output
// quantity.
type Model interface {
	Simulate(p map[string]float64) ([]float64, error)
}

// ValidationSet is a sampling grid together with true-model results on it.
// It is computed once, usually while fitting, and reused by every later
// validation of the same surrogate.
type ValidationSet struct {
	Grid    *sampling.Grid
	Results *mat.Dense
}

// Surrogate ties a fitted expansion to the problem it was fitted on.
type Surrogate struct {
	// Model is the true model.
	Model Model
	// Problem is the original, full parameter space problem.
	Problem *params.Problem
	// Projection is set when the expansion lives in a reduced space.
	Projection *projection.Map
	// Approx evaluates the expansion.
	Approx Approximator

	validation *ValidationSet
}

// New creates a surrogate without projection or validation cache.
func New(model Model, problem *params.Problem, approx Approximator) (*Surrogate, error) {
	if model == nil {
		return nil, errors.New("model cannot be nil")
	}
	if problem == nil || problem.Space == nil {
		return nil, errors.New("problem cannot be nil")
	}
	if approx == nil {
		return nil, errors.New("approximator cannot be nil")
	}
	return &Surrogate{Model: model, Problem: problem, Approx: approx}, nil
}

// SetValidation attaches a validation cache. It is meant to be called by the
// fitting phase; validation only reads it.
func (s *Surrogate) SetValidation(v ValidationSet) error {
	if err := v.Grid.Validate(); err != nil {
		return err
	}
	if v.Results == nil {
		return errors.New("validation results cannot be nil")
	}
	if r, _ := v.Results.Dims(); r != v.Grid.Len() {
		return errors.New("validation results are not aligned with the validation grid")
	}
	s.validation = &v
	return nil
}

// Validation returns the cached validation set, if any.
func (s *Surrogate) Validation() (ValidationSet, bool) {
	if s == nil || s.validation == nil {
		return ValidationSet{}, false
	}
	return *s.validation, true
}

// Reduced reports whether the surrogate is expanded in a projected space.
func (s *Surrogate) Reduced() bool {
	return s.Projection != nil
}
