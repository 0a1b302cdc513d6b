package ddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopbulk/bulk-import-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// jobsIndex is the GSI over (SK, SK1): partition = user#<id>, sort =
// job start time.
const jobsIndex = "GSI2"

// queryPageSize bounds a single query page. DynamoDB additionally caps
// a page at ~1MB of response data, which is why listing loops until the
// store reports no continuation key.
const queryPageSize = 500

// Client is the narrow DynamoDB surface the repository needs. The real
// *dynamodb.Client satisfies it; tests substitute fakes.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// BlobStore is the object-store surface the repository needs.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Repo wraps the single table and the upload bucket for all entity
// kinds. Encode and decode go through the key codec in this package.
type Repo struct {
	DB    Client
	Blobs BlobStore
	Table string
}

// NowISO returns the current time in ISO8601 format.
func NowISO() string { return time.Now().UTC().Format(time.RFC3339) }

// PutBlob writes the raw upload to the object store. The result only
// reports success or failure; there is no deduplication.
func (r *Repo) PutBlob(ctx context.Context, key string, body []byte) error {
	if err := r.Blobs.Put(ctx, key, body); err != nil {
		return fmt.Errorf("put blob %s: %w: %v", key, models.ErrStorageUnavailable, err)
	}
	return nil
}

// GetUser fetches a user by id.
func (r *Repo) GetUser(ctx context.Context, userID string) (models.User, error) {
	item, err := r.getItem(ctx, UserKey(userID))
	if err != nil {
		return models.User{}, err
	}
	return DecodeUser(item)
}

// GetFile fetches a file record by id.
func (r *Repo) GetFile(ctx context.Context, fileID string) (models.File, error) {
	item, err := r.getItem(ctx, FileKey(fileID))
	if err != nil {
		return models.File{}, err
	}
	return DecodeFile(item)
}

// GetJob fetches a job by id and owning user.
func (r *Repo) GetJob(ctx context.Context, jobID, userID string) (models.Job, error) {
	item, err := r.getItem(ctx, JobKey(jobID, userID))
	if err != nil {
		return models.Job{}, err
	}
	return DecodeJob(item)
}

// GetJobResult fetches the worker-produced result record for a job.
func (r *Repo) GetJobResult(ctx context.Context, jobID string) (models.JobResult, error) {
	key := Item{
		"PK": &types.AttributeValueMemberS{Value: joinKey(resultKeyPrefix, jobID)},
		"SK": &types.AttributeValueMemberS{Value: joinKey(jobKeyPrefix, jobID)},
	}
	item, err := r.getItem(ctx, key)
	if err != nil {
		return models.JobResult{}, err
	}
	return DecodeJobResult(item)
}

func (r *Repo) getItem(ctx context.Context, key Item) (Item, error) {
	out, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.Table),
		Key:       key,
	})
	if err != nil {
		return nil, storageErr("get item", err)
	}
	if len(out.Item) == 0 {
		return nil, models.ErrNotFound
	}
	return out.Item, nil
}

// PutFile writes a full file record.
func (r *Repo) PutFile(ctx context.Context, f models.File) error {
	item, err := EncodeFile(f)
	if err != nil {
		return err
	}
	if _, err := r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.Table),
		Item:      item,
	}); err != nil {
		return storageErr("put file", err)
	}
	slog.Info("stored file record", "file_id", f.ID)
	return nil
}

// UpdateFile applies a partial update covering only the fields set on
// the input. Key attributes are never touched, and the server-side SET
// semantics keep concurrent updates to disjoint fields from clobbering
// each other.
func (r *Repo) UpdateFile(ctx context.Context, f models.File) error {
	if f.ID == "" {
		return fmt.Errorf("%w: file id is required for update", models.ErrInvalidArgument)
	}
	upd, ok, err := fileUpdate(f)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no file fields to update", models.ErrInvalidArgument)
	}
	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return fmt.Errorf("build file update: %w", err)
	}
	if _, err := r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.Table),
		Key:                       FileKey(f.ID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}); err != nil {
		return storageErr("update file", err)
	}
	return nil
}

// fileUpdate builds a SET-only update from the populated fields of f.
func fileUpdate(f models.File) (expression.UpdateBuilder, bool, error) {
	var upd expression.UpdateBuilder
	set := false
	assign := func(name string, value any) {
		upd = upd.Set(expression.Name(name), expression.Value(value))
		set = true
	}
	if f.Idle != nil {
		assign("SK1", joinKey(idleKeyPrefix, fmt.Sprintf("%t", *f.Idle)))
	}
	if f.FileName != nil {
		assign("file_name", *f.FileName)
	}
	if f.FileType != nil {
		assign("file_type", string(*f.FileType))
	}
	if f.S3Key != nil {
		assign("s3_key", *f.S3Key)
	}
	if f.ActualRowCount != nil {
		assign("actual_row_count", *f.ActualRowCount)
	}
	if f.HeaderRow != nil {
		assign("header_row", *f.HeaderRow)
	}
	if f.FieldDetails != nil {
		details, err := json.Marshal(f.FieldDetails)
		if err != nil {
			return upd, false, fmt.Errorf("marshal field details: %w", err)
		}
		assign("field_details", string(details))
	}
	return upd, set, nil
}

// ListJobsForUser returns every job owned by userID in descending start
// time order. Pages are requested sequentially in continuation order
// and concatenated, so callers always see the complete list and never a
// pagination token.
func (r *Repo) ListJobsForUser(ctx context.Context, userID string) ([]models.Job, error) {
	keyCond := expression.Key("SK").Equal(expression.Value(joinKey(userKeyPrefix, userID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build job query: %w", err)
	}

	var jobs []models.Job
	var startKey Item
	for {
		out, err := r.DB.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.Table),
			IndexName:                 aws.String(jobsIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false),
			Limit:                     aws.Int32(queryPageSize),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, storageErr("query jobs", err)
		}
		for _, item := range out.Items {
			job, err := DecodeJob(item)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return jobs, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// TransactCreateJob atomically creates the job, writes the file's field
// mapping and increments the owner's job counter. The create is
// conditioned on the job key not existing; if that condition fails the
// whole transaction is rejected and no partial effects are visible.
// The counter uses the store's atomic ADD, never read-modify-write.
// The field mapping write is last-writer-wins: resubmitting a file to
// a new job replaces its stored mapping.
func (r *Repo) TransactCreateJob(ctx context.Context, job models.Job, fileID string, details models.FieldMapping) error {
	if fileID == "" {
		return fmt.Errorf("%w: file id is required", models.ErrInvalidArgument)
	}
	item, err := EncodeJob(job)
	if err != nil {
		return err
	}

	cond := expression.AttributeNotExists(expression.Name("PK")).
		And(expression.AttributeNotExists(expression.Name("SK")))
	condExpr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build create condition: %w", err)
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal field details: %w", err)
	}
	fileExpr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("field_details"), expression.Value(string(detailsJSON)))).
		Build()
	if err != nil {
		return fmt.Errorf("build file update: %w", err)
	}

	countExpr, err := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name("job_count"), expression.Value(1))).
		Build()
	if err != nil {
		return fmt.Errorf("build counter update: %w", err)
	}

	_, err = r.DB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.Table),
				Item:                     item,
				ConditionExpression:      condExpr.Condition(),
				ExpressionAttributeNames: condExpr.Names(),
			}},
			{Update: &types.Update{
				TableName:                 aws.String(r.Table),
				Key:                       FileKey(fileID),
				UpdateExpression:          fileExpr.Update(),
				ExpressionAttributeNames:  fileExpr.Names(),
				ExpressionAttributeValues: fileExpr.Values(),
			}},
			{Update: &types.Update{
				TableName:                 aws.String(r.Table),
				Key:                       UserKey(job.UserID),
				UpdateExpression:          countExpr.Update(),
				ExpressionAttributeNames:  countExpr.Names(),
				ExpressionAttributeValues: countExpr.Values(),
			}},
		},
	})
	if err != nil {
		if isConditionalCancel(err) {
			return fmt.Errorf("job %s: %w", job.ID, models.ErrConflict)
		}
		return storageErr("create job transaction", err)
	}
	slog.Info("created job", "job_id", job.ID, "user_id", job.UserID, "file_id", fileID)
	return nil
}

// isConditionalCancel reports whether a transaction was cancelled
// because the conditional create failed, as opposed to a store outage.
func isConditionalCancel(err error) bool {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return false
	}
	for _, reason := range cancelled.CancellationReasons {
		if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

// storageErr classifies a store failure. Typed service faults keep the
// AWS error code in the message for operators; everything maps onto
// ErrStorageUnavailable for callers.
func storageErr(op string, err error) error {
	var api smithy.APIError
	if errors.As(err, &api) {
		return fmt.Errorf("%s: %w: %s: %s", op, models.ErrStorageUnavailable, api.ErrorCode(), api.ErrorMessage())
	}
	return fmt.Errorf("%s: %w: %v", op, models.ErrStorageUnavailable, err)
}
