// Package intake turns an uploaded spreadsheet into a stored blob, a
// file record and the column metadata the mapping UI needs.
package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/shopbulk/bulk-import-backend/internal/models"
	"github.com/shopbulk/bulk-import-backend/internal/s3io"
	"github.com/shopbulk/bulk-import-backend/internal/tabular"
	"github.com/shopbulk/bulk-import-backend/internal/validate"

	"github.com/google/uuid"
)

// Multipart form fields of the upload request.
const (
	fieldFile         = "file"
	fieldHeaderOption = "header-option"
	fieldColumnName   = "column-name"
	fieldHeaderRow    = "header-row"
)

// Upload is a parsed upload request.
type Upload struct {
	FileName    string
	ContentType string
	Content     []byte
	Header      tabular.Spec
}

// Store is the persistence surface the intake needs.
type Store interface {
	PutBlob(ctx context.Context, key string, body []byte) error
	PutFile(ctx context.Context, f models.File) error
}

// Service composes the header detector with the repository.
type Service struct {
	Repo Store
}

// ParseUpload decodes the multipart request body: the file part plus
// the header-option field and its FIND / EXACT companion value.
func ParseUpload(contentType string, body []byte) (Upload, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return Upload{}, fmt.Errorf("%w: request body is not multipart form data", models.ErrInvalidArgument)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return Upload{}, fmt.Errorf("%w: multipart boundary missing", models.ErrInvalidArgument)
	}

	up := Upload{}
	fields := map[string]string{}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Upload{}, fmt.Errorf("%w: read multipart: %v", models.ErrInvalidArgument, err)
		}
		name := part.FormName()
		data, err := io.ReadAll(part)
		if err != nil {
			return Upload{}, fmt.Errorf("%w: read part %s: %v", models.ErrInvalidArgument, name, err)
		}
		if name == fieldFile {
			up.FileName = part.FileName()
			up.ContentType = part.Header.Get("Content-Type")
			up.Content = data
			continue
		}
		fields[name] = string(data)
	}
	if len(up.Content) == 0 {
		return Upload{}, fmt.Errorf("%w: file part missing or empty", models.ErrInvalidArgument)
	}

	option, err := validate.HeaderOptionOK(fields[fieldHeaderOption])
	if err != nil {
		return Upload{}, err
	}
	up.Header.Option = option
	switch option {
	case models.HeaderFind:
		up.Header.ColumnName = fields[fieldColumnName]
		if strings.TrimSpace(up.Header.ColumnName) == "" {
			return Upload{}, fmt.Errorf("%w: FIND requires a column name", models.ErrInvalidArgument)
		}
	case models.HeaderExact:
		row, err := validate.HeaderRowOK(fields[fieldHeaderRow])
		if err != nil {
			return Upload{}, err
		}
		up.Header.HeaderRow = row
	}
	return up, nil
}

// ProcessUpload validates the upload, detects its header structure,
// stores the blob and the file record, and returns the column metadata
// for the mapping step.
func (s *Service) ProcessUpload(ctx context.Context, up Upload) (models.FileDetails, error) {
	if err := validate.FileNameOK(up.FileName); err != nil {
		return models.FileDetails{}, err
	}
	fileType, err := validate.FileTypeFor(up.ContentType)
	if err != nil {
		return models.FileDetails{}, err
	}

	grid, err := tabular.ReadGrid(up.Content, fileType)
	if err != nil {
		return models.FileDetails{}, err
	}
	det, err := tabular.Detect(grid, up.Header)
	if err != nil {
		return models.FileDetails{}, err
	}

	fileID := uuid.NewString()
	objectKey := s3io.BuildKey(fileID, up.FileName)
	idle := false
	file := models.File{
		ID:             fileID,
		Idle:           &idle,
		FileName:       &up.FileName,
		FileType:       &fileType,
		S3Key:          &objectKey,
		ActualRowCount: &det.RowCount,
		HeaderRow:      &det.HeaderRow,
	}

	if err := s.Repo.PutBlob(ctx, objectKey, up.Content); err != nil {
		return models.FileDetails{}, err
	}
	if err := s.Repo.PutFile(ctx, file); err != nil {
		return models.FileDetails{}, err
	}
	slog.Info("processed upload", "file_id", fileID, "file_name", up.FileName, "rows", det.RowCount)

	details := models.FileDetails{
		FileID:         fileID,
		FileName:       up.FileName,
		FileType:       fileType,
		ActualRowCount: det.RowCount,
	}
	for _, col := range det.Columns {
		details.ColumnDetails = append(details.ColumnDetails, models.ColumnDetail{
			Name:       col.Name,
			Index:      col.Index,
			SampleData: col.Samples,
		})
	}
	return details, nil
}
