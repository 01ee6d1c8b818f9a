package datasets_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Noofbiz/gpcvalidate/datasets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, path, header string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(header + "\n"); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for _, r := range rows {
		if _, err := f.WriteString(r + "\n"); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	writeCSV(t, path, "x1,x2", []string{"0,1.5", " -2 ,3e2", "NaN,4"})

	tab, err := datasets.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2"}, tab.Header)
	r, c := tab.Data.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1.5, tab.Data.At(0, 1))
	assert.Equal(t, -2.0, tab.Data.At(1, 0))
	assert.Equal(t, 300.0, tab.Data.At(1, 1))
	assert.True(t, math.IsNaN(tab.Data.At(2, 0)))

	cols, err := tab.Columns([]string{"x2", "x1"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 0}, mat.Row(nil, 0, cols))

	_, err = tab.Columns([]string{"x3"})
	assert.Error(t, err)
}

func TestReadCSVRejectsBadRows(t *testing.T) {
	dir := t.TempDir()

	ragged := filepath.Join(dir, "ragged.csv")
	writeCSV(t, ragged, "a,b", []string{"1,2", "3"})
	_, err := datasets.ReadCSV(ragged)
	assert.Error(t, err)

	text := filepath.Join(dir, "text.csv")
	writeCSV(t, text, "a,b", []string{"1,two"})
	_, err = datasets.ReadCSV(text)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	writeCSV(t, empty, "a,b", nil)
	_, err = datasets.ReadCSV(empty)
	assert.Error(t, err)

	_, err = datasets.Read(filepath.Join(dir, "data.json"))
	assert.Error(t, err)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "m.csv")
	m := mat.NewDense(2, 3, []float64{1, 2.25, -3, 4e-9, math.NaN(), 6})
	require.NoError(t, datasets.WriteCSV(path, nil, m))

	tab, err := datasets.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"col_0", "col_1", "col_2"}, tab.Header)
	assert.Equal(t, 4e-9, tab.Data.At(1, 0))
	assert.True(t, math.IsNaN(tab.Data.At(1, 1)))
	assert.Equal(t, 2.25, tab.Data.At(0, 1))

	assert.Error(t, datasets.WriteCSV(path, []string{"a"}, m))
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"x", "y"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{0.5, 1}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{-1, 2.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tab, err := datasets.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tab.Header)
	assert.Equal(t, []float64{0.5, 1}, mat.Row(nil, 0, tab.Data))
	assert.Equal(t, []float64{-1, 2.5}, mat.Row(nil, 1, tab.Data))
}

func TestFindTable(t *testing.T) {
	dir := t.TempDir()
	_, err := datasets.FindTable(dir)
	assert.Error(t, err)

	writeCSV(t, filepath.Join(dir, "a.csv"), "x", []string{"1"})
	path, err := datasets.FindTable(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.csv"), path)
}
