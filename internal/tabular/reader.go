package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/shopbulk/bulk-import-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// ReadGrid parses the raw upload into a 2-D grid of cell values.
// CSV rows may be ragged; XLSX uses the workbook's first sheet.
func ReadGrid(content []byte, fileType models.FileType) ([][]string, error) {
	switch fileType {
	case models.FileTypeCSV:
		return readCSV(content)
	case models.FileTypeExcel:
		return readXLSX(content)
	default:
		return nil, fmt.Errorf("%w: file type must be CSV or EXCEL", models.ErrInvalidArgument)
	}
}

func readCSV(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", models.ErrInvalidArgument, err)
	}
	return rows, nil
}

func readXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", models.ErrInvalidArgument, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", models.ErrEmptySheet)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %v", models.ErrInvalidArgument, sheets[0], err)
	}
	return rows, nil
}
