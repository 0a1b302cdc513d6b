// Package tabular reads uploaded spreadsheets into raw cell grids and
// locates the real header row under the operator-selected strategy.
package tabular

import (
	"fmt"
	"strings"

	"github.com/shopbulk/bulk-import-backend/internal/models"
)

const (
	// findScanWindow bounds how many rows past the first the FIND
	// strategy inspects before giving up.
	findScanWindow = 16

	// maxSampleValues bounds the per-column data preview.
	maxSampleValues = 5

	// unnamedSentinel marks a column the upstream naming step could not
	// label. Cells carrying it count as empty for the header check.
	unnamedSentinel = "Unnamed:"
)

// Spec selects the header-detection strategy for one upload.
type Spec struct {
	Option models.HeaderOption

	// ColumnName is the column to search for under FIND.
	ColumnName string

	// HeaderRow is the caller-specified header row under EXACT,
	// already converted to 0-based.
	HeaderRow int
}

// Column is one detected column with its preview sample.
type Column struct {
	Name    string
	Index   int
	Samples []string
}

// Detection is the outcome of header detection on a grid.
type Detection struct {
	HeaderRow int
	DataStart int
	RowCount  int // non-empty data rows below the header
	Columns   []Column
}

// Detect locates the header row and data start of grid under spec,
// names unlabeled columns and gathers per-column samples. A sheet with
// a header but zero usable data rows fails with ErrEmptySheet.
func Detect(grid [][]string, spec Spec) (Detection, error) {
	if len(grid) == 0 {
		return Detection{}, fmt.Errorf("%w: file has no rows", models.ErrEmptySheet)
	}

	headerRow, err := locateHeader(grid, spec)
	if err != nil {
		return Detection{}, err
	}
	dataStart := headerRow + 1

	dataRows := [][]string{}
	if dataStart < len(grid) {
		dataRows = grid[dataStart:]
	}
	rowCount := 0
	for _, row := range dataRows {
		if !rowBlank(row) {
			rowCount++
		}
	}
	if rowCount < 1 {
		return Detection{}, fmt.Errorf("%w: no rows below header %d", models.ErrEmptySheet, headerRow)
	}

	header := grid[headerRow]
	det := Detection{
		HeaderRow: headerRow,
		DataStart: dataStart,
		RowCount:  rowCount,
	}
	for idx := 0; idx < gridWidth(header, dataRows); idx++ {
		det.Columns = append(det.Columns, Column{
			Name:    columnName(header, idx),
			Index:   idx,
			Samples: sampleColumn(dataRows, idx),
		})
	}
	return det, nil
}

// locateHeader resolves the header row index for the chosen strategy.
func locateHeader(grid [][]string, spec Spec) (int, error) {
	switch spec.Option {
	case models.HeaderExact:
		if spec.HeaderRow < 0 || spec.HeaderRow >= len(grid) {
			return 0, fmt.Errorf("%w: header row %d out of range", models.ErrInvalidArgument, spec.HeaderRow)
		}
		return spec.HeaderRow, nil

	case models.HeaderDefault:
		if !rowEmpty(grid[0]) {
			return 0, nil
		}
		// Row 0 is a blank spacer; the next physical row is the header.
		if len(grid) < 2 {
			return 0, fmt.Errorf("%w: only a blank row", models.ErrEmptySheet)
		}
		return 1, nil

	case models.HeaderFind:
		if strings.TrimSpace(spec.ColumnName) == "" {
			return 0, fmt.Errorf("%w: FIND requires a column name", models.ErrInvalidArgument)
		}
		if rowContains(grid[0], spec.ColumnName) {
			return 0, nil
		}
		stop := len(grid)
		if stop > 1+findScanWindow {
			stop = 1 + findScanWindow
		}
		for row := 1; row < stop; row++ {
			if rowContains(grid[row], spec.ColumnName) {
				return row, nil
			}
		}
		return 0, fmt.Errorf("%w: no row within %d contains %q", models.ErrHeaderNotFound, findScanWindow, spec.ColumnName)

	default:
		return 0, fmt.Errorf("%w: unknown header option %q", models.ErrInvalidArgument, spec.Option)
	}
}

// columnName returns the header cell at idx, renaming blank or
// placeholder names deterministically to "Column <n>" (1-based).
func columnName(header []string, idx int) string {
	name := ""
	if idx < len(header) {
		name = strings.TrimSpace(header[idx])
	}
	if name == "" || strings.Contains(name, unnamedSentinel) {
		return fmt.Sprintf("Column %d", idx+1)
	}
	return name
}

// sampleColumn collects up to maxSampleValues non-blank values of the
// column, in original row order, skipping blank cells.
func sampleColumn(dataRows [][]string, idx int) []string {
	samples := []string{}
	for _, row := range dataRows {
		if idx >= len(row) || cellBlank(row[idx]) {
			continue
		}
		samples = append(samples, row[idx])
		if len(samples) == maxSampleValues {
			break
		}
	}
	return samples
}

// gridWidth is the rightmost populated cell across header and data,
// so trailing all-blank columns from ragged rows are dropped while
// blank leading and interior columns keep their index.
func gridWidth(header []string, dataRows [][]string) int {
	width := rowWidth(header, true)
	for _, row := range dataRows {
		if w := rowWidth(row, false); w > width {
			width = w
		}
	}
	return width
}

func rowWidth(row []string, headerRow bool) int {
	for idx := len(row) - 1; idx >= 0; idx-- {
		if headerRow && !cellPlaceholder(row[idx]) {
			return idx + 1
		}
		if !headerRow && !cellBlank(row[idx]) {
			return idx + 1
		}
	}
	return 0
}

// cellBlank reports whether a cell is null or whitespace only.
func cellBlank(cell string) bool {
	return strings.TrimSpace(cell) == ""
}

// cellPlaceholder additionally treats the unnamed-column sentinel as
// empty; only the header check uses this.
func cellPlaceholder(cell string) bool {
	return cellBlank(cell) || strings.Contains(cell, unnamedSentinel)
}

// rowEmpty is the DEFAULT first-row check: every cell null, whitespace
// or an unnamed-column placeholder.
func rowEmpty(row []string) bool {
	for _, cell := range row {
		if !cellPlaceholder(cell) {
			return false
		}
	}
	return true
}

// rowBlank reports whether a data row is entirely empty.
func rowBlank(row []string) bool {
	for _, cell := range row {
		if !cellBlank(cell) {
			return false
		}
	}
	return true
}

// rowContains reports whether any cell matches name, case-insensitive
// after trimming.
func rowContains(row []string, name string) bool {
	want := strings.TrimSpace(name)
	for _, cell := range row {
		if strings.EqualFold(strings.TrimSpace(cell), want) {
			return true
		}
	}
	return false
}
