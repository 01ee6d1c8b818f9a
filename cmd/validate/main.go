// Command validate compares a fitted gPC surrogate with its true model, either
// on a Monte-Carlo cloud (mode mc) or on a 1-D/2-D slice (mode slice).
//
// The run file is YAML. When -config is left at its default and the file does
// not exist yet, a working default is written there first. Flags that are set
// explicitly override the run file; GPCV_* variables from the environment or
// from -env override it too, with flags taking precedence.
//
//	validate -mode slice -vars x1,x2 -n-grid 40,40 -out output/slice
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/Noofbiz/gpcvalidate/config"
	"github.com/Noofbiz/gpcvalidate/evaluate"
	"github.com/Noofbiz/gpcvalidate/gpc"
	"github.com/Noofbiz/gpcvalidate/valerr"
	"github.com/Noofbiz/gpcvalidate/validate"

	"github.com/joho/godotenv"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "gpcvalidate.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML run file (created from defaults if missing)")
	envFile := flag.String("env", ".env", "optional dotenv file with GPCV_* overrides")
	var cli cliFlags
	cli.register(flag.CommandLine)
	backend := flag.String("backend", "pool", "evaluation backend: 'pool' (logs progress) or 'group' (stops on first error or interrupt)")
	printEffectiveConfig := flag.Bool("print-effective-config", false, "print the effective (file+env+CLI merged) run file and exit")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: could not load %s: %v", *envFile, err)
	}

	if *configPath == defaultConfigPath {
		created, err := config.EnsureDefault(*configPath)
		if err != nil {
			log.Printf("warning: failed to write default run file %s: %v", *configPath, err)
		} else if created {
			log.Printf("Wrote default run file to %s", *configPath)
		}
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load run file: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("invalid environment overrides: %v", err)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if err := cli.apply(cfg, set); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if *printEffectiveConfig {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			log.Fatalf("failed to marshal effective config: %v", err)
		}
		fmt.Print(string(b))
		return
	}

	sur, coeffs, err := cfg.Build()
	if err != nil {
		log.Fatalf("failed to build surrogate: %v", err)
	}

	var ev evaluate.Evaluator
	switch *backend {
	case "pool":
		pool := evaluate.NewPool()
		pool.ProgressInterval = time.Duration(cfg.ProgressIntervalSeconds) * time.Second
		ev = pool
	case "group":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ev = &evaluate.Group{Ctx: ctx}
	default:
		log.Fatalf("unknown backend %q", *backend)
	}
	v := validate.New(ev, cfg.Workers)
	v.ExportXLSX = cfg.XLSX

	start := time.Now()
	switch cfg.Mode {
	case config.ModeMonteCarlo:
		runMonteCarlo(v, cfg, sur, coeffs)
	case config.ModeSlice:
		runSlice(v, cfg, sur, coeffs)
	}
	log.Printf("Validation finished in %s", time.Since(start).Round(time.Millisecond))
}

func runMonteCarlo(v *validate.Validator, cfg *config.Config, sur *gpc.Surrogate, coeffs *mat.Dense) {
	res, err := v.MonteCarlo(sur, coeffs, validate.MonteCarloOptions{
		Samples:   cfg.MC.Samples,
		OutputIdx: cfg.MC.OutputIdx,
		Out:       cfg.Output,
		Seed:      cfg.MC.Seed,
	})
	if res != nil {
		logNRMSD(res.NRMSD)
		logFiles(res.Files)
	}
	if errors.Is(err, valerr.ErrDegenerateDistribution) {
		log.Printf("warning: density comparison skipped: %v", err)
		return
	}
	if err != nil {
		log.Fatalf("monte-carlo validation failed: %v", err)
	}
}

func runSlice(v *validate.Validator, cfg *config.Config, sur *gpc.Surrogate, coeffs *mat.Dense) {
	coords, err := cfg.SliceCoords()
	if err != nil {
		log.Fatalf("failed to load slice coordinates: %v", err)
	}
	data, err := cfg.SliceData()
	if err != nil {
		log.Fatalf("failed to load precomputed model data: %v", err)
	}
	opts := validate.SliceOptions{
		Vars:         cfg.Slice.Vars,
		Coords:       coords,
		OutputIdx:    cfg.Slice.OutputIdx,
		DataOriginal: data,
		Out:          cfg.Output,
	}
	if coords == nil {
		opts.NGrid = cfg.Slice.NGrid
	}
	res, err := v.Slice(sur, coeffs, opts)
	if res != nil {
		logNRMSD(res.NRMSD)
		logFiles(res.Files)
	}
	if err != nil {
		log.Fatalf("slice validation failed: %v", err)
	}
}

// cliFlags holds the flags that override run file values.
type cliFlags struct {
	mode, out                string
	samples                  int
	seed                     int64
	outputIdx                int
	sliceOutputIdx           string
	sliceVars, sliceGrid     string
	workers, progressSeconds int
	xlsx                     bool
}

func (c *cliFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.mode, "mode", "", "validation mode: 'mc' or 'slice' (overrides run file)")
	fs.StringVar(&c.out, "out", "", "output file base for archive and plots (overrides run file)")
	fs.IntVar(&c.samples, "samples", 0, "number of Monte-Carlo samples (overrides run file)")
	fs.Int64Var(&c.seed, "seed", 0, "Monte-Carlo seed, 0 = time based (overrides run file)")
	fs.IntVar(&c.outputIdx, "output-idx", 0, "output quantity whose density is compared in mc mode (see -slice-output-idx for slice mode)")
	fs.StringVar(&c.sliceOutputIdx, "slice-output-idx", "", "comma-separated output quantities compared in slice mode (overrides run file)")
	fs.StringVar(&c.sliceVars, "vars", "", "comma-separated active slice variables (overrides run file)")
	fs.StringVar(&c.sliceGrid, "n-grid", "", "comma-separated points per slice variable (overrides run file)")
	fs.IntVar(&c.workers, "workers", 0, "number of model evaluation workers (0 = NumCPU)")
	fs.IntVar(&c.progressSeconds, "progress-interval", 3, "progress logging interval in seconds (0 disables)")
	fs.BoolVar(&c.xlsx, "xlsx", false, "also export the archive as an xlsx workbook")
}

// apply copies every flag named in set onto cfg.
func (c *cliFlags) apply(cfg *config.Config, set map[string]bool) error {
	if set["mode"] {
		cfg.Mode = c.mode
	}
	if set["out"] {
		cfg.Output = c.out
	}
	if set["samples"] {
		cfg.MC.Samples = c.samples
	}
	if set["seed"] {
		cfg.MC.Seed = c.seed
	}
	if set["output-idx"] {
		cfg.MC.OutputIdx = c.outputIdx
	}
	if set["slice-output-idx"] {
		idx, err := parseInts(c.sliceOutputIdx)
		if err != nil {
			return fmt.Errorf("-slice-output-idx: %w", err)
		}
		cfg.Slice.OutputIdx = idx
	}
	if set["vars"] {
		cfg.Slice.Vars = splitList(c.sliceVars)
	}
	if set["n-grid"] {
		n, err := parseInts(c.sliceGrid)
		if err != nil {
			return fmt.Errorf("-n-grid: %w", err)
		}
		cfg.Slice.NGrid = n
	}
	if set["workers"] {
		cfg.Workers = c.workers
	}
	if set["progress-interval"] {
		cfg.ProgressIntervalSeconds = c.progressSeconds
	}
	if set["xlsx"] {
		cfg.XLSX = c.xlsx
	}
	return nil
}

func logNRMSD(e []float64) {
	for j, v := range e {
		if math.IsNaN(v) {
			log.Printf("output %d: NRMSD undefined (constant true output)", j)
			continue
		}
		log.Printf("output %d: NRMSD = %.4f%%", j, v)
	}
}

func logFiles(files []string) {
	for _, f := range files {
		log.Printf("wrote %s", f)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	parts := splitList(s)
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
