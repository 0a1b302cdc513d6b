// Package validate provides functions to validate file uploads and metadata.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopbulk/bulk-import-backend/internal/models"
)

// Media types accepted for upload.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileTypeFor maps an upload's media type onto the sheet format,
// rejecting anything that is not CSV or XLSX.
func FileTypeFor(contentType string) (models.FileType, error) {
	switch strings.TrimSpace(strings.ToLower(contentType)) {
	case ContentTypeCSV:
		return models.FileTypeCSV, nil
	case ContentTypeXLSX:
		return models.FileTypeExcel, nil
	default:
		return "", fmt.Errorf("%w: unsupported media type %q", models.ErrInvalidArgument, contentType)
	}
}

// HeaderOptionOK parses the header-option form field.
func HeaderOptionOK(raw string) (models.HeaderOption, error) {
	switch models.HeaderOption(strings.TrimSpace(strings.ToUpper(raw))) {
	case models.HeaderDefault:
		return models.HeaderDefault, nil
	case models.HeaderFind:
		return models.HeaderFind, nil
	case models.HeaderExact:
		return models.HeaderExact, nil
	default:
		return "", fmt.Errorf("%w: unknown header option %q", models.ErrInvalidArgument, raw)
	}
}

// HeaderRowOK parses the 1-based header-row form field supplied with
// EXACT and converts it to a 0-based index.
func HeaderRowOK(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: header row must be a positive integer, got %q", models.ErrInvalidArgument, raw)
	}
	return n - 1, nil
}

// TaskTypeOK parses the job task type.
func TaskTypeOK(raw string) (models.JobType, error) {
	if models.JobType(raw) != models.JobTypeProductImport {
		return "", fmt.Errorf("%w: unknown task type %q", models.ErrInvalidArgument, raw)
	}
	return models.JobTypeProductImport, nil
}

// FileNameOK rejects empty or path-like file names.
func FileNameOK(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: file name required", models.ErrInvalidArgument)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: file name must not contain path separators", models.ErrInvalidArgument)
	}
	return nil
}
