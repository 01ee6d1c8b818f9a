// Package config reads validation run files. A run file describes the
// parameter space, the true model, the fitted surrogate and the validation
// to perform; command-line flags and GPCV_* environment variables override
// the run options it holds.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Noofbiz/gpcvalidate/datasets"
	"github.com/Noofbiz/gpcvalidate/gpc"
	"github.com/Noofbiz/gpcvalidate/params"
	"github.com/Noofbiz/gpcvalidate/projection"
	"github.com/Noofbiz/gpcvalidate/testfuns"
	"github.com/Noofbiz/gpcvalidate/valerr"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Modes of a run.
const (
	ModeMonteCarlo = "mc"
	ModeSlice      = "slice"
)

// DefaultYAML is written to disk when no run file exists yet. It validates an
// exact expansion of a linear model and so runs out of the box.
const DefaultYAML = `# gpcvalidate run file
mode: mc
model: linear
linear:
  offset: 3
  slopes: {x1: 2, x2: -1}

parameters:
  - {name: x1, dist: uniform, lo: 0, hi: 2}
  - {name: x2, dist: uniform, lo: -1, hi: 1}

surrogate:
  multi_index: [[0, 0], [1, 0], [0, 1]]
  coeffs: [[5], [2], [-1]]

mc:
  samples: 10000
  output_idx: 0
  seed: 0

slice:
  vars: [x1, x2]
  n_grid: [50, 50]
  output_idx: [0]

workers: 0
progress_interval_seconds: 3
output: output/validation
xlsx: false
`

// Parameter describes one random parameter. Dist is uniform, beta or normal.
type Parameter struct {
	Name  string  `yaml:"name"`
	Dist  string  `yaml:"dist"`
	Lo    float64 `yaml:"lo"`
	Hi    float64 `yaml:"hi"`
	P     float64 `yaml:"p"`
	Q     float64 `yaml:"q"`
	Mu    float64 `yaml:"mu"`
	Sigma float64 `yaml:"sigma"`
}

// Surrogate describes a fitted expansion. Coefficients come either inline
// (one row per basis function, one column per output) or from CoeffsFile.
type Surrogate struct {
	Families   []string    `yaml:"families"`
	MultiIndex [][]int     `yaml:"multi_index"`
	Coeffs     [][]float64 `yaml:"coeffs"`
	CoeffsFile string      `yaml:"coeffs_file"`
	// Projection is the k × d reduction matrix of a projected expansion.
	Projection [][]float64 `yaml:"projection"`
}

// MonteCarlo holds the options of a statistical validation.
type MonteCarlo struct {
	Samples   int   `yaml:"samples"`
	OutputIdx int   `yaml:"output_idx"`
	Seed      int64 `yaml:"seed"`
}

// Slice holds the options of a slice validation.
type Slice struct {
	Vars         []string `yaml:"vars"`
	NGrid        []int    `yaml:"n_grid"`
	CoordsFile   string   `yaml:"coords_file"`
	DataOriginal string   `yaml:"data_original"`
	OutputIdx    []int    `yaml:"output_idx"`
}

// Linear configures the linear benchmark model.
type Linear struct {
	Offset float64            `yaml:"offset"`
	Slopes map[string]float64 `yaml:"slopes"`
}

// Config is a parsed run file.
type Config struct {
	Mode       string             `yaml:"mode"`
	Model      string             `yaml:"model"`
	Linear     Linear             `yaml:"linear"`
	Parameters []Parameter        `yaml:"parameters"`
	Fixed      map[string]float64 `yaml:"fixed"`
	Surrogate  Surrogate          `yaml:"surrogate"`
	MC         MonteCarlo         `yaml:"mc"`
	Slice      Slice              `yaml:"slice"`

	Workers                 int    `yaml:"workers"`
	ProgressIntervalSeconds int    `yaml:"progress_interval_seconds"`
	Output                  string `yaml:"output"`
	XLSX                    bool   `yaml:"xlsx"`
}

// Parse decodes a run file. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: parse run file: %v", valerr.ErrConfiguration, err)
	}
	if c.Mode == "" {
		c.Mode = ModeMonteCarlo
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the parsed DefaultYAML.
func Default() *Config {
	c, err := Parse([]byte(DefaultYAML))
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads and parses the run file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// EnsureDefault writes DefaultYAML to path unless a file already exists
// there. It reports whether the file was created.
func EnsureDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(DefaultYAML), 0644); err != nil {
		return false, err
	}
	return true, nil
}

// Validate checks the parts of the run file that do not need the model.
func (c *Config) Validate() error {
	var errs []error
	if c.Mode != ModeMonteCarlo && c.Mode != ModeSlice {
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if len(c.Parameters) == 0 {
		errs = append(errs, errors.New("no parameters"))
	}
	if len(c.Surrogate.MultiIndex) == 0 {
		errs = append(errs, errors.New("surrogate has no multi_index"))
	}
	if (len(c.Surrogate.Coeffs) == 0) == (c.Surrogate.CoeffsFile == "") {
		errs = append(errs, errors.New("surrogate needs exactly one of coeffs and coeffs_file"))
	}
	if c.Mode == ModeMonteCarlo && c.MC.Samples <= 0 {
		errs = append(errs, fmt.Errorf("mc.samples must be > 0, got %d", c.MC.Samples))
	}
	if c.Mode == ModeSlice && len(c.Slice.Vars) == 0 {
		errs = append(errs, errors.New("slice.vars is empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", valerr.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// ApplyEnv overrides run options from GPCV_OUTPUT, GPCV_WORKERS, GPCV_SEED and
// GPCV_SAMPLES when they are set.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("GPCV_OUTPUT"); ok {
		c.Output = v
	}
	if v, ok := os.LookupEnv("GPCV_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: GPCV_WORKERS: %v", valerr.ErrConfiguration, err)
		}
		c.Workers = n
	}
	if v, ok := os.LookupEnv("GPCV_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: GPCV_SEED: %v", valerr.ErrConfiguration, err)
		}
		c.MC.Seed = n
	}
	if v, ok := os.LookupEnv("GPCV_SAMPLES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: GPCV_SAMPLES: %v", valerr.ErrConfiguration, err)
		}
		c.MC.Samples = n
	}
	return c.Validate()
}

// Problem builds the parameter space and fixed parameters.
func (c *Config) Problem() (*params.Problem, error) {
	space := params.NewSpace()
	for _, p := range c.Parameters {
		rp, err := p.random()
		if err != nil {
			return nil, err
		}
		if err := space.Add(p.Name, rp); err != nil {
			return nil, err
		}
	}
	return params.NewProblem(space, c.Fixed)
}

func (p Parameter) random() (params.RandomParameter, error) {
	switch p.Dist {
	case "", "uniform":
		return params.NewUniform(p.Lo, p.Hi)
	case "beta":
		return params.NewBeta(p.P, p.Q, p.Lo, p.Hi)
	case "normal":
		n, err := params.NewNormal(p.Mu, p.Sigma)
		if err != nil {
			return nil, err
		}
		if p.Lo < p.Hi {
			n.Lo, n.Hi = p.Lo, p.Hi
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: parameter %s: unknown distribution %q", valerr.ErrConfiguration, p.Name, p.Dist)
}

// TrueModel returns the configured true model.
func (c *Config) TrueModel() (gpc.Model, error) {
	if c.Model == "linear" {
		if len(c.Linear.Slopes) == 0 {
			return nil, fmt.Errorf("%w: linear model has no slopes", valerr.ErrConfiguration)
		}
		return testfuns.NewLinear(c.Linear.Offset, c.Linear.Slopes), nil
	}
	m, err := testfuns.ByName(c.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", valerr.ErrConfiguration, err)
	}
	return m, nil
}

// Build assembles the surrogate described by the run file and returns it
// with its coefficient matrix.
func (c *Config) Build() (*gpc.Surrogate, *mat.Dense, error) {
	problem, err := c.Problem()
	if err != nil {
		return nil, nil, err
	}
	model, err := c.TrueModel()
	if err != nil {
		return nil, nil, err
	}

	var pm *projection.Map
	dims := problem.Space.Len()
	if len(c.Surrogate.Projection) > 0 {
		p, err := denseFromRows(c.Surrogate.Projection)
		if err != nil {
			return nil, nil, fmt.Errorf("projection: %w", err)
		}
		pm, err = projection.New(p)
		if err != nil {
			return nil, nil, err
		}
		if _, d := pm.Dims(); d != dims {
			return nil, nil, fmt.Errorf("%w: projection has %d columns for %d parameters", valerr.ErrConfiguration, d, dims)
		}
		dims, _ = pm.Dims()
	}

	families, err := c.families(dims)
	if err != nil {
		return nil, nil, err
	}
	exp, err := gpc.NewExpansion(families, c.Surrogate.MultiIndex)
	if err != nil {
		return nil, nil, err
	}

	coeffs, err := c.coefficients()
	if err != nil {
		return nil, nil, err
	}

	s, err := gpc.New(model, problem, exp)
	if err != nil {
		return nil, nil, err
	}
	s.Projection = pm
	log.Printf("[Config] surrogate: %d parameters, %d basis functions, projected=%v", problem.Space.Len(), len(c.Surrogate.MultiIndex), s.Reduced())
	return s, coeffs, nil
}

// families returns one polynomial family per expansion axis. Without an
// explicit list, unreduced expansions follow each parameter's distribution
// and reduced ones use Legendre polynomials.
func (c *Config) families(dims int) ([]gpc.Family, error) {
	if len(c.Surrogate.Families) > 0 {
		if len(c.Surrogate.Families) != dims {
			return nil, fmt.Errorf("%w: %d families for %d expansion axes", valerr.ErrConfiguration, len(c.Surrogate.Families), dims)
		}
		out := make([]gpc.Family, dims)
		for i, s := range c.Surrogate.Families {
			f, err := gpc.ParseFamily(s)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
	out := make([]gpc.Family, dims)
	if len(c.Surrogate.Projection) > 0 {
		return out, nil
	}
	for i, p := range c.Parameters {
		switch {
		case p.Dist == "normal":
			out[i] = gpc.Hermite
		case p.Dist == "beta" && (p.P != 1 || p.Q != 1):
			log.Printf("[Config] parameter %s: beta(%g, %g) is expanded in Legendre polynomials; coefficients must use that basis", p.Name, p.P, p.Q)
		}
	}
	return out, nil
}

func (c *Config) coefficients() (*mat.Dense, error) {
	if c.Surrogate.CoeffsFile == "" {
		return denseFromRows(c.Surrogate.Coeffs)
	}
	tab, err := datasets.Read(c.Surrogate.CoeffsFile)
	if err != nil {
		return nil, fmt.Errorf("coefficients: %w", err)
	}
	return tab.Data, nil
}

// SliceCoords loads the explicit slice coordinates, if configured, with
// columns in the order of Slice.Vars.
func (c *Config) SliceCoords() (*mat.Dense, error) {
	if c.Slice.CoordsFile == "" {
		return nil, nil
	}
	tab, err := datasets.Read(c.Slice.CoordsFile)
	if err != nil {
		return nil, err
	}
	return tab.Columns(c.Slice.Vars)
}

// SliceData loads precomputed true-model outputs, if configured.
func (c *Config) SliceData() (*mat.Dense, error) {
	if c.Slice.DataOriginal == "" {
		return nil, nil
	}
	tab, err := datasets.Read(c.Slice.DataOriginal)
	if err != nil {
		return nil, err
	}
	return tab.Data, nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", valerr.ErrConfiguration)
	}
	c := len(rows[0])
	data := make([]float64, 0, len(rows)*c)
	for i, r := range rows {
		if len(r) != c {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", valerr.ErrConfiguration, i, len(r), c)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), c, data), nil
}
