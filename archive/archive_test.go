package archive

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

func TestSaveLoadKeepsLogicalPaths(t *testing.T) {
	a := New()
	require.NotEmpty(t, a.RunID)

	y := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	a.Put(ResultsOriginal, y)
	a.PutVector(ErrorNRMSD, []float64{0.5, math.NaN()})
	require.NoError(t, a.PutPairs(PDFGPC, []float64{0, 1}, []float64{0.2, 0.3}))
	assert.Error(t, a.PutPairs(PDFOriginal, []float64{0}, nil))

	base := filepath.Join(t.TempDir(), "nested", "validation.pdf")
	path, err := a.Save(base)
	require.NoError(t, err)
	assert.Equal(t, ".gob", filepath.Ext(path))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, a.RunID, b.RunID)
	assert.Equal(t, []string{ErrorNRMSD, PDFGPC, ResultsOriginal}, b.Paths())

	got, err := b.Matrix(ResultsOriginal)
	require.NoError(t, err)
	assert.True(t, mat.Equal(y, got))

	nrmsd, err := b.Matrix(ErrorNRMSD)
	require.NoError(t, err)
	assert.Equal(t, 0.5, nrmsd.At(0, 0))
	assert.True(t, math.IsNaN(nrmsd.At(1, 0)))

	pdf, err := b.Matrix(PDFGPC)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.3}, pdf.RawRowView(1))

	_, err = b.Matrix(GridCoords)
	assert.Error(t, err)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadRejectsOtherVersion(t *testing.T) {
	a := New()
	a.Version = formatVersion + 1
	path, err := a.Save(filepath.Join(t.TempDir(), "old"))
	require.NoError(t, err)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestExportXLSX(t *testing.T) {
	a := New()
	a.Put(GridCoords, mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	a.PutVector(ErrorNRMSD, []float64{math.NaN()})

	path, err := a.ExportXLSX(filepath.Join(t.TempDir(), "validation"))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Meta", "grid_coords", "error_nrmsd"}, f.GetSheetList())
	rows, err := f.GetRows("grid_coords")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, rows)

	meta, err := f.GetRows("Meta")
	require.NoError(t, err)
	assert.Equal(t, a.RunID, meta[0][1])

	nr, err := f.GetRows("error_nrmsd")
	require.NoError(t, err)
	assert.Equal(t, "NaN", nr[0][0])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "out/run.gob", FileName("out/run.pdf", ".gob"))
	assert.Equal(t, "out/run.xlsx", FileName("out/run", ".xlsx"))
	assert.Equal(t, "results_difference", SheetName(ResultsDifference))
}
