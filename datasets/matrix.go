// Package datasets loads and stores numeric tables: precomputed true-model
// outputs for slice validation and explicit slice coordinates. Tables are CSV
// files with a header row, or the first sheet of an xlsx workbook.
package datasets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

// Table is a numeric matrix with named columns.
type Table struct {
	Header []string
	Data   *mat.Dense
}

// Column returns the index of the named column or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Columns returns a new matrix holding the named columns in the given order.
func (t *Table) Columns(names []string) (*mat.Dense, error) {
	r, _ := t.Data.Dims()
	out := mat.NewDense(r, len(names), nil)
	for k, n := range names {
		j := t.Column(n)
		if j < 0 {
			return nil, fmt.Errorf("column %q not found in %v", n, t.Header)
		}
		out.SetCol(k, mat.Col(nil, j, t.Data))
	}
	return out, nil
}

// Read loads a table from a .csv or .xlsx file.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path)
	}
	return nil, fmt.Errorf("unsupported table format: %s", path)
}

// ReadCSV loads a CSV file whose first row is the header. Every other cell
// must be a number.
func ReadCSV(path string) (*Table, error) {
	n, err := countCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("count rows of %s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	data := make([]float64, 0, n*len(header))
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		data, err = appendRow(data, rec, len(header))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
	log.Printf("[Datasets] read %d x %d table from %s", n, len(header), path)
	return &Table{Header: header, Data: mat.NewDense(n, len(header), data)}, nil
}

// ReadXLSX loads the first sheet of a workbook whose first row is the header.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	header := rows[0]
	data := make([]float64, 0, (len(rows)-1)*len(header))
	for i, rec := range rows[1:] {
		data, err = appendRow(data, rec, len(header))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
	}
	log.Printf("[Datasets] read %d x %d table from %s (%s)", len(rows)-1, len(header), path, sheets[0])
	return &Table{Header: header, Data: mat.NewDense(len(rows)-1, len(header), data)}, nil
}

// WriteCSV writes m with the given header. A nil header writes col_0, col_1, ...
func WriteCSV(path string, header []string, m mat.Matrix) error {
	r, c := m.Dims()
	if header == nil {
		header = make([]string, c)
		for j := range header {
			header[j] = fmt.Sprintf("col_%d", j)
		}
	}
	if len(header) != c {
		return fmt.Errorf("%d header names for %d columns", len(header), c)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	rec := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			rec[j] = formatFloat(m.At(i, j))
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func appendRow(data []float64, rec []string, width int) ([]float64, error) {
	if len(rec) != width {
		return data, fmt.Errorf("expected %d fields, got %d", width, len(rec))
	}
	for j, s := range rec {
		v, err := parseFloat(s)
		if err != nil {
			return data, fmt.Errorf("field %d: %w", j+1, err)
		}
		data = append(data, v)
	}
	return data, nil
}

var errNoTable = errors.New("no table files found")
