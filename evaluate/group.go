package evaluate

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/Noofbiz/gpcvalidate/gpc"
	"github.com/Noofbiz/gpcvalidate/params"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Group evaluates points with an errgroup bound to Ctx. Unlike Pool it stops
// scheduling points after the first model error or once Ctx is cancelled.
type Group struct {
	Ctx context.Context
}

// Evaluate implements Evaluator. Model errors are wrapped with the point
// index.
func (g *Group) Evaluate(model gpc.Model, problem *params.Problem, coords, coordsNorm *mat.Dense, workers int) (*mat.Dense, error) {
	n, err := checkBatch(model, problem, coords, coordsNorm)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	parent := context.Background()
	if g != nil && g.Ctx != nil {
		parent = g.Ctx
	}
	eg, ctx := errgroup.WithContext(parent)
	eg.SetLimit(workers)

	start := time.Now()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := model.Simulate(problem.Params(coords.RawRowView(i)))
			if err != nil {
				return fmt.Errorf("simulate point %d: %w", i, err)
			}
			rows[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	log.Printf("[Group] evaluated %d points with %d workers in %v", n, workers, time.Since(start))
	return stack(rows)
}
