// Package jobs owns the job-creation use case: derive the field
// mapping, run the atomic create transaction and announce the job.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopbulk/bulk-import-backend/internal/ddb"
	"github.com/shopbulk/bulk-import-backend/internal/models"
	"github.com/shopbulk/bulk-import-backend/internal/snsio"
	"github.com/shopbulk/bulk-import-backend/internal/validate"

	"github.com/oklog/ulid/v2"
)

// generatorProcess is the consumer process tagged on job-start events.
const generatorProcess = "generate-product"

// Assignment maps one uploaded column to a product field.
type Assignment struct {
	Column string `json:"column"`
	Field  string `json:"field"`
}

// Request is the payload of a job-creation call.
type Request struct {
	FileID       string            `json:"fileId"`
	TaskType     string            `json:"type"`
	Options      map[string]string `json:"options"`
	FieldMapping []Assignment      `json:"fieldMapping"`
}

// Store is the persistence surface the orchestrator needs.
type Store interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetFile(ctx context.Context, fileID string) (models.File, error)
	TransactCreateJob(ctx context.Context, job models.Job, fileID string, details models.FieldMapping) error
}

// EventPublisher announces a created job to the worker pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, message any, process string) error
}

// Orchestrator composes repository calls into the job-creation use
// case. Collaborators are injected by the composition root.
type Orchestrator struct {
	Repo   Store
	Events EventPublisher
}

// CreateJob validates the request, loads the user and file, derives
// the field mapping, creates the job atomically with the file update
// and counter increment, and publishes the job-start event.
//
// Retries after ErrStorageUnavailable must reuse the same request; a
// retry of an already committed transaction surfaces ErrConflict.
func (o *Orchestrator) CreateJob(ctx context.Context, userID string, req Request) (models.Job, error) {
	if userID == "" {
		return models.Job{}, fmt.Errorf("%w: missing user id in request context", models.ErrInvalidArgument)
	}
	taskType, err := validate.TaskTypeOK(req.TaskType)
	if err != nil {
		return models.Job{}, err
	}
	if req.FileID == "" {
		return models.Job{}, fmt.Errorf("%w: file id required", models.ErrInvalidArgument)
	}
	mapping, err := deriveMapping(req.FieldMapping)
	if err != nil {
		return models.Job{}, err
	}

	user, err := o.Repo.GetUser(ctx, userID)
	if err != nil {
		return models.Job{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	file, err := o.Repo.GetFile(ctx, req.FileID)
	if err != nil {
		return models.Job{}, fmt.Errorf("load file %s: %w", req.FileID, err)
	}

	start := ddb.NowISO()
	status := models.StatusCreated
	total := 0
	if file.ActualRowCount != nil {
		total = *file.ActualRowCount
	}
	zero := 0
	batch := 1
	job := models.Job{
		ID:            ulid.Make().String(),
		UserID:        user.ID,
		Type:          taskType,
		FileID:        &req.FileID,
		StartTime:     &start,
		Status:        &status,
		Options:       req.Options,
		TotalProducts: &total,
		TotalSuccess:  &zero,
		TotalFailed:   &zero,
		CurrentBatch:  &batch,
	}

	if err := o.Repo.TransactCreateJob(ctx, job, file.ID, mapping); err != nil {
		return models.Job{}, err
	}

	event := snsio.JobStartEvent{FileID: file.ID, JobID: job.ID, UserID: user.ID}
	if err := o.Events.Publish(ctx, event, generatorProcess); err != nil {
		// The transaction is already committed; the job exists. The
		// caller sees the failure and owns any retry of the publish.
		return models.Job{}, fmt.Errorf("announce job %s: %w: %v", job.ID, models.ErrStorageUnavailable, err)
	}
	slog.Info("job created", "job_id", job.ID, "user_id", user.ID, "file_id", file.ID)
	return job, nil
}

// deriveMapping turns the request's column assignments into the stored
// field mapping, ignoring unassigned columns.
func deriveMapping(assignments []Assignment) (models.FieldMapping, error) {
	mapping := models.FieldMapping{}
	for _, a := range assignments {
		column := strings.TrimSpace(a.Column)
		field := strings.TrimSpace(a.Field)
		if column == "" || field == "" {
			continue
		}
		mapping[column] = field
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("%w: at least one column must be mapped to a field", models.ErrInvalidArgument)
	}
	return mapping, nil
}
