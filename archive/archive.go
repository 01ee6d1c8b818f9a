// Package archive persists validation artifacts in a single container keyed
// by logical path (for example "results/original" or "pdf/gpc").
package archive

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// formatVersion is incremented when the on-disk layout changes.
const formatVersion = 1

// Logical dataset paths written by the validation entry points.
const (
	ResultsOriginal   = "results/original"
	ResultsGPC        = "results/gpc"
	ResultsDifference = "results/difference"
	GridCoords        = "grid/coords"
	GridCoordsNorm    = "grid/coords_norm"
	ErrorNRMSD        = "error/nrmsd"
	PDFOriginal       = "pdf/original"
	PDFGPC            = "pdf/gpc"
)

// Dataset is a dense row-major matrix.
type Dataset struct {
	Rows int
	Cols int
	Data []float64
}

// Archive is an in-memory container of datasets. The zero value is not
// usable; create archives with New or Load.
type Archive struct {
	Version   int
	RunID     string
	CreatedAt int64
	Datasets  map[string]Dataset
}

// New creates an empty archive with a fresh run id.
func New() *Archive {
	return &Archive{
		Version:   formatVersion,
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().Unix(),
		Datasets:  make(map[string]Dataset),
	}
}

// Put stores a copy of m under path, replacing any previous dataset.
func (a *Archive) Put(path string, m mat.Matrix) {
	r, c := m.Dims()
	d := Dataset{Rows: r, Cols: c, Data: make([]float64, 0, r*c)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d.Data = append(d.Data, m.At(i, j))
		}
	}
	a.Datasets[path] = d
}

// PutVector stores v as a single-column dataset.
func (a *Archive) PutVector(path string, v []float64) {
	data := make([]float64, len(v))
	copy(data, v)
	a.Datasets[path] = Dataset{Rows: len(v), Cols: 1, Data: data}
}

// PutPairs stores x and y as the two columns of an n × 2 dataset.
func (a *Archive) PutPairs(path string, x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("pairs for %s: %d x values, %d y values", path, len(x), len(y))
	}
	data := make([]float64, 0, 2*len(x))
	for i := range x {
		data = append(data, x[i], y[i])
	}
	a.Datasets[path] = Dataset{Rows: len(x), Cols: 2, Data: data}
	return nil
}

// Has reports whether path holds a dataset.
func (a *Archive) Has(path string) bool {
	_, ok := a.Datasets[path]
	return ok
}

// Paths returns every dataset path in lexical order.
func (a *Archive) Paths() []string {
	out := make([]string, 0, len(a.Datasets))
	for p := range a.Datasets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Matrix returns the dataset at path as a matrix.
func (a *Archive) Matrix(path string) (*mat.Dense, error) {
	d, ok := a.Datasets[path]
	if !ok {
		return nil, fmt.Errorf("dataset %s not found", path)
	}
	if len(d.Data) != d.Rows*d.Cols {
		return nil, fmt.Errorf("dataset %s is corrupt: %d values for %dx%d", path, len(d.Data), d.Rows, d.Cols)
	}
	if d.Rows == 0 || d.Cols == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}
	data := make([]float64, len(d.Data))
	copy(data, d.Data)
	return mat.NewDense(d.Rows, d.Cols, data), nil
}

// FileName returns base with its extension replaced by ext.
func FileName(base, ext string) string {
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

// Save writes the archive to <base>.gob. The write is atomic: the archive is
// encoded into a temporary file in the same directory which is then renamed.
func (a *Archive) Save(base string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("empty archive path")
	}
	path := FileName(base, ".gob")

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("create temp archive file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		_ = os.Remove(tmpName)
	}()

	if err := gob.NewEncoder(tmpFile).Encode(a); err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		log.Printf("warning: sync temp archive file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("close temp archive file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename temp archive to target: %w", err)
	}
	return path, nil
}

// Load reads an archive written by Save and validates its format version.
func Load(path string) (*Archive, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer fh.Close()

	var a Archive
	if err := gob.NewDecoder(fh).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", path, err)
	}
	if a.Version != formatVersion {
		return nil, fmt.Errorf("archive version mismatch: archive=%d expected=%d", a.Version, formatVersion)
	}
	if a.Datasets == nil {
		a.Datasets = make(map[string]Dataset)
	}
	return &a, nil
}
