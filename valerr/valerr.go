// Package valerr holds the error taxonomy shared by the validation packages.
//
// Errors are plain sentinels. Packages wrap them with context using
// fmt.Errorf("%w: ...") and callers test for them with errors.Is.
package valerr

import "errors"

var (
	// ErrConfiguration reports an invalid request: a bad active-variable
	// count, explicit coordinates of the wrong shape or a plot
	// dimensionality that cannot be rendered. Never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrShapeMismatch reports row or column disagreement between matrices
	// that must be aligned (surrogate vs. true outputs, coordinates vs.
	// projection).
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDegenerateDistribution reports a zero-variance sample set handed to
	// density estimation.
	ErrDegenerateDistribution = errors.New("degenerate distribution")
)
