package archive

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes every dataset to <base>.xlsx, one sheet per dataset.
// Sheet names are the dataset paths with "/" replaced by "_", and a Meta sheet
// records the run id and creation time.
func (a *Archive) ExportXLSX(base string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("empty export path")
	}
	path := FileName(base, ".xlsx")
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	const meta = "Meta"
	if err := f.SetSheetName("Sheet1", meta); err != nil {
		return "", fmt.Errorf("rename default sheet: %w", err)
	}
	if err := f.SetSheetRow(meta, "A1", &[]interface{}{"run_id", a.RunID}); err != nil {
		return "", err
	}
	if err := f.SetSheetRow(meta, "A2", &[]interface{}{"created_at", a.CreatedAt}); err != nil {
		return "", err
	}

	for _, p := range a.Paths() {
		d := a.Datasets[p]
		sheet := SheetName(p)
		if _, err := f.NewSheet(sheet); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		for i := 0; i < d.Rows; i++ {
			row := make([]interface{}, d.Cols)
			for j := 0; j < d.Cols; j++ {
				v := d.Data[i*d.Cols+j]
				if math.IsNaN(v) || math.IsInf(v, 0) {
					row[j] = strconv.FormatFloat(v, 'g', -1, 64)
					continue
				}
				row[j] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return "", err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return "", fmt.Errorf("write %s row %d: %w", sheet, i, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// SheetName maps a dataset path onto a valid worksheet name.
func SheetName(path string) string {
	name := strings.ReplaceAll(path, "/", "_")
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
