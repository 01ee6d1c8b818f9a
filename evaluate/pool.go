// Package evaluate obtains row-aligned outputs of the true model and of the
// surrogate for one sampling grid.
package evaluate

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Noofbiz/gpcvalidate/gpc"
	"github.com/Noofbiz/gpcvalidate/params"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
)

// ModelFunc adapts a plain function to gpc.Model.
type ModelFunc func(p map[string]float64) ([]float64, error)

// Simulate implements gpc.Model.
func (f ModelFunc) Simulate(p map[string]float64) ([]float64, error) { return f(p) }

// Evaluator runs a model on a batch of points. It returns one row per row of
// coords and one column per output quantity. workers is a hint for the
// degree of parallelism.
type Evaluator interface {
	Evaluate(model gpc.Model, problem *params.Problem, coords, coordsNorm *mat.Dense, workers int) (*mat.Dense, error)
}

// Pool evaluates points on a bounded pool of goroutines in this process.
type Pool struct {
	// ProgressInterval controls how often progress is logged. Zero disables
	// progress logging.
	ProgressInterval time.Duration
}

// NewPool creates a pool that logs progress every 3 seconds.
func NewPool() *Pool {
	return &Pool{ProgressInterval: 3 * time.Second}
}

// Evaluate implements Evaluator. Every point is simulated exactly once and
// written into its own row. The first model error is returned wrapped with
// the point index; all points must produce the same number of outputs.
func (p *Pool) Evaluate(model gpc.Model, problem *params.Problem, coords, coordsNorm *mat.Dense, workers int) (*mat.Dense, error) {
	n, err := checkBatch(model, problem, coords, coordsNorm)
	if err != nil {
		return nil, err
	}

	// Worker count precedence: explicit hint if > 0, otherwise NumCPU.
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	rows := make([][]float64, n)
	jobs := make(chan int, n)
	errCh := make(chan error, workers)

	var (
		wg   sync.WaitGroup
		done int64
	)

	stopProgress := make(chan struct{})
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		if p == nil || p.ProgressInterval <= 0 {
			<-stopProgress
			return
		}
		ticker := time.NewTicker(p.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d := atomic.LoadInt64(&done)
				log.Printf("[Pool] progress: %d/%d (%.1f%%)", d, n, float64(d)/float64(n)*100.0)
			case <-stopProgress:
				return
			}
		}
	}()

	start := time.Now()
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				out, err := model.Simulate(problem.Params(coords.RawRowView(i)))
				if err != nil {
					errCh <- fmt.Errorf("simulate point %d: %w", i, err)
					return
				}
				rows[i] = out
				atomic.AddInt64(&done, 1)
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(stopProgress)
	<-progressDone
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	log.Printf("[Pool] evaluated %d points with %d workers in %v", n, workers, time.Since(start))
	return stack(rows)
}

// checkBatch validates the inputs of Evaluate and returns the number of points.
func checkBatch(model gpc.Model, problem *params.Problem, coords, coordsNorm *mat.Dense) (int, error) {
	if model == nil {
		return 0, fmt.Errorf("model cannot be nil")
	}
	if problem == nil {
		return 0, fmt.Errorf("problem cannot be nil")
	}
	if coords == nil {
		return 0, fmt.Errorf("coordinates cannot be nil")
	}
	n, _ := coords.Dims()
	if coordsNorm != nil {
		if rn, _ := coordsNorm.Dims(); rn != n {
			return 0, fmt.Errorf("%w: %d raw and %d normalized coordinates", valerr.ErrShapeMismatch, n, rn)
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no points to evaluate", valerr.ErrShapeMismatch)
	}
	return n, nil
}

// stack copies equally long rows into a matrix.
func stack(rows [][]float64) (*mat.Dense, error) {
	nout := len(rows[0])
	if nout == 0 {
		return nil, fmt.Errorf("%w: model returned no outputs", valerr.ErrShapeMismatch)
	}
	out := mat.NewDense(len(rows), nout, nil)
	for i, r := range rows {
		if len(r) != nout {
			return nil, fmt.Errorf("%w: point %d returned %d outputs, point 0 returned %d", valerr.ErrShapeMismatch, i, len(r), nout)
		}
		out.SetRow(i, r)
	}
	return out, nil
}
