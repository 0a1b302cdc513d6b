// Package ddb provides the single-table repository for users, files,
// jobs and job results, plus the key codec that maps domain records to
// and from flat DynamoDB items.
package ddb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopbulk/bulk-import-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key and attribute layout of the one-table design. The primary key is
// (PK, SK); GSI2 projects (SK, SK1) for the per-user job listing.
const (
	keyDelimiter = "#"

	userKeyPrefix   = "user"
	fileKeyPrefix   = "file"
	jobKeyPrefix    = "job"
	resultKeyPrefix = "result"
	idleKeyPrefix   = "idle"

	sortKeyUser = "user"
	sortKeyFile = "file"

	kindAttr = "kind"
)

// Item is a flat DynamoDB item.
type Item = map[string]types.AttributeValue

// dbUser mirrors a User item. Optional attributes are emitted only
// when set on the domain record.
type dbUser struct {
	PK             string  `dynamodbav:"PK"`
	SK             string  `dynamodbav:"SK"`
	Kind           string  `dynamodbav:"kind"`
	Domain         *string `dynamodbav:"domain,omitempty"`
	Subscription   *string `dynamodbav:"subscription,omitempty"`
	OwnerName      *string `dynamodbav:"owner_name,omitempty"`
	Email          *string `dynamodbav:"email,omitempty"`
	AccessToken    *string `dynamodbav:"access_token,omitempty"`
	TimeZone       *string `dynamodbav:"time_zone,omitempty"`
	ShopName       *string `dynamodbav:"shop_name,omitempty"`
	Active         *bool   `dynamodbav:"active,omitempty"`
	JobCount       *int    `dynamodbav:"job_count,omitempty"`
	ActiveJobCount *int    `dynamodbav:"active_job_count,omitempty"`
}

type dbFile struct {
	PK             string  `dynamodbav:"PK"`
	SK             string  `dynamodbav:"SK"`
	SK1            *string `dynamodbav:"SK1,omitempty"`
	Kind           string  `dynamodbav:"kind"`
	FileName       *string `dynamodbav:"file_name,omitempty"`
	FileType       *string `dynamodbav:"file_type,omitempty"`
	S3Key          *string `dynamodbav:"s3_key,omitempty"`
	ActualRowCount *int    `dynamodbav:"actual_row_count,omitempty"`
	HeaderRow      *int    `dynamodbav:"header_row,omitempty"`
	FieldDetails   *string `dynamodbav:"field_details,omitempty"`
}

type dbJob struct {
	PK            string  `dynamodbav:"PK"`
	SK            string  `dynamodbav:"SK"`
	SK1           *string `dynamodbav:"SK1,omitempty"`
	SK2           *string `dynamodbav:"SK2,omitempty"`
	Kind          string  `dynamodbav:"kind"`
	FileID        *string `dynamodbav:"file_id,omitempty"`
	Status        *string `dynamodbav:"status,omitempty"`
	Options       *string `dynamodbav:"options,omitempty"`
	TotalProducts *int    `dynamodbav:"total_products,omitempty"`
	TotalSuccess  *int    `dynamodbav:"total_success,omitempty"`
	TotalFailed   *int    `dynamodbav:"total_failed,omitempty"`
	CurrentBatch  *int    `dynamodbav:"current_batch,omitempty"`
}

type dbResult struct {
	PK       string  `dynamodbav:"PK"`
	SK       string  `dynamodbav:"SK"`
	Kind     string  `dynamodbav:"kind"`
	Status   *string `dynamodbav:"status,omitempty"`
	Errors   *string `dynamodbav:"errors,omitempty"`
	Warnings *string `dynamodbav:"warnings,omitempty"`
	Product  *string `dynamodbav:"product,omitempty"`
}

// joinKey builds a composite key segment like "user#<id>".
func joinKey(prefix, value string) string {
	return prefix + keyDelimiter + value
}

// splitKey returns the positional segment of a composite key, failing
// with ErrMalformedRecord when the key does not have exactly the
// expected prefix and segment count. Records written by this system
// always split cleanly; a failure here signals corruption or schema
// drift and is surfaced, never patched over.
func splitKey(key, wantPrefix string) (string, error) {
	parts := strings.Split(key, keyDelimiter)
	if len(parts) != 2 || parts[0] != wantPrefix {
		return "", fmt.Errorf("%w: key %q does not match %s%s<id>", models.ErrMalformedRecord, key, wantPrefix, keyDelimiter)
	}
	return parts[1], nil
}

// UserKey returns the primary key of a User item.
func UserKey(userID string) Item {
	return Item{
		"PK": &types.AttributeValueMemberS{Value: joinKey(userKeyPrefix, userID)},
		"SK": &types.AttributeValueMemberS{Value: sortKeyUser},
	}
}

// FileKey returns the primary key of a File item.
func FileKey(fileID string) Item {
	return Item{
		"PK": &types.AttributeValueMemberS{Value: joinKey(fileKeyPrefix, fileID)},
		"SK": &types.AttributeValueMemberS{Value: sortKeyFile},
	}
}

// JobKey returns the primary key of a Job item.
func JobKey(jobID, userID string) Item {
	return Item{
		"PK": &types.AttributeValueMemberS{Value: joinKey(jobKeyPrefix, jobID)},
		"SK": &types.AttributeValueMemberS{Value: joinKey(userKeyPrefix, userID)},
	}
}

// EncodeUser maps a User record onto a flat item.
func EncodeUser(u models.User) (Item, error) {
	if u.ID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidArgument)
	}
	return attributevalue.MarshalMap(dbUser{
		PK:             joinKey(userKeyPrefix, u.ID),
		SK:             sortKeyUser,
		Kind:           string(models.KindUser),
		Domain:         u.Domain,
		Subscription:   u.Subscription,
		OwnerName:      u.OwnerName,
		Email:          u.Email,
		AccessToken:    u.AccessToken,
		TimeZone:       u.TimeZone,
		ShopName:       u.ShopName,
		Active:         u.Active,
		JobCount:       u.JobCount,
		ActiveJobCount: u.ActiveJobCount,
	})
}

// DecodeUser is the inverse of EncodeUser.
func DecodeUser(item Item) (models.User, error) {
	var rec dbUser
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", models.ErrMalformedRecord, err)
	}
	id, err := splitKey(rec.PK, userKeyPrefix)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		ID:             id,
		Domain:         rec.Domain,
		Subscription:   rec.Subscription,
		OwnerName:      rec.OwnerName,
		Email:          rec.Email,
		AccessToken:    rec.AccessToken,
		TimeZone:       rec.TimeZone,
		ShopName:       rec.ShopName,
		Active:         rec.Active,
		JobCount:       rec.JobCount,
		ActiveJobCount: rec.ActiveJobCount,
	}, nil
}

// EncodeFile maps a File record onto a flat item. The field mapping is
// serialized to JSON for storage; counters stay native numbers.
func EncodeFile(f models.File) (Item, error) {
	if f.ID == "" {
		return nil, fmt.Errorf("%w: file id is required", models.ErrInvalidArgument)
	}
	rec := dbFile{
		PK:             joinKey(fileKeyPrefix, f.ID),
		SK:             sortKeyFile,
		Kind:           string(models.KindFile),
		FileName:       f.FileName,
		S3Key:          f.S3Key,
		ActualRowCount: f.ActualRowCount,
		HeaderRow:      f.HeaderRow,
	}
	if f.Idle != nil {
		sk1 := joinKey(idleKeyPrefix, strconv.FormatBool(*f.Idle))
		rec.SK1 = &sk1
	}
	if f.FileType != nil {
		ft := string(*f.FileType)
		rec.FileType = &ft
	}
	if f.FieldDetails != nil {
		details, err := json.Marshal(f.FieldDetails)
		if err != nil {
			return nil, fmt.Errorf("marshal field details: %w", err)
		}
		s := string(details)
		rec.FieldDetails = &s
	}
	return attributevalue.MarshalMap(rec)
}

// DecodeFile is the inverse of EncodeFile.
func DecodeFile(item Item) (models.File, error) {
	var rec dbFile
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return models.File{}, fmt.Errorf("%w: %v", models.ErrMalformedRecord, err)
	}
	id, err := splitKey(rec.PK, fileKeyPrefix)
	if err != nil {
		return models.File{}, err
	}
	f := models.File{
		ID:             id,
		FileName:       rec.FileName,
		S3Key:          rec.S3Key,
		ActualRowCount: rec.ActualRowCount,
		HeaderRow:      rec.HeaderRow,
	}
	if rec.SK1 != nil {
		raw, err := splitKey(*rec.SK1, idleKeyPrefix)
		if err != nil {
			return models.File{}, err
		}
		idle, err := strconv.ParseBool(raw)
		if err != nil {
			return models.File{}, fmt.Errorf("%w: idle flag %q", models.ErrMalformedRecord, raw)
		}
		f.Idle = &idle
	}
	if rec.FileType != nil {
		ft := models.FileType(*rec.FileType)
		f.FileType = &ft
	}
	if rec.FieldDetails != nil {
		var details models.FieldMapping
		if err := json.Unmarshal([]byte(*rec.FieldDetails), &details); err != nil {
			return models.File{}, fmt.Errorf("%w: field details: %v", models.ErrMalformedRecord, err)
		}
		f.FieldDetails = details
	}
	return f, nil
}

// EncodeJob maps a Job record onto a flat item. StartTime must already
// be populated when a type is set, so that the type#start_time index
// key is never ambiguous.
func EncodeJob(j models.Job) (Item, error) {
	if j.ID == "" || j.UserID == "" {
		return nil, fmt.Errorf("%w: job id and user id are required", models.ErrInvalidArgument)
	}
	rec := dbJob{
		PK:            joinKey(jobKeyPrefix, j.ID),
		SK:            joinKey(userKeyPrefix, j.UserID),
		Kind:          string(models.KindJob),
		FileID:        j.FileID,
		TotalProducts: j.TotalProducts,
		TotalSuccess:  j.TotalSuccess,
		TotalFailed:   j.TotalFailed,
		CurrentBatch:  j.CurrentBatch,
	}
	if j.StartTime != nil {
		rec.SK1 = j.StartTime
	}
	if j.Type != "" {
		if j.StartTime == nil {
			return nil, fmt.Errorf("%w: job start time must be set before its index key is computed", models.ErrInvalidArgument)
		}
		sk2 := joinKey(string(j.Type), *j.StartTime)
		rec.SK2 = &sk2
	}
	if j.Status != nil {
		s := string(*j.Status)
		rec.Status = &s
	}
	if j.Options != nil {
		opts, err := json.Marshal(j.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal job options: %w", err)
		}
		s := string(opts)
		rec.Options = &s
	}
	return attributevalue.MarshalMap(rec)
}

// DecodeJob is the inverse of EncodeJob. The job type is recovered
// from the type#start_time index key.
func DecodeJob(item Item) (models.Job, error) {
	var rec dbJob
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return models.Job{}, fmt.Errorf("%w: %v", models.ErrMalformedRecord, err)
	}
	id, err := splitKey(rec.PK, jobKeyPrefix)
	if err != nil {
		return models.Job{}, err
	}
	userID, err := splitKey(rec.SK, userKeyPrefix)
	if err != nil {
		return models.Job{}, err
	}
	j := models.Job{
		ID:            id,
		UserID:        userID,
		FileID:        rec.FileID,
		StartTime:     rec.SK1,
		TotalProducts: rec.TotalProducts,
		TotalSuccess:  rec.TotalSuccess,
		TotalFailed:   rec.TotalFailed,
		CurrentBatch:  rec.CurrentBatch,
	}
	if rec.SK2 != nil {
		parts := strings.Split(*rec.SK2, keyDelimiter)
		if len(parts) != 2 {
			return models.Job{}, fmt.Errorf("%w: job index key %q", models.ErrMalformedRecord, *rec.SK2)
		}
		j.Type = models.JobType(parts[0])
	}
	if rec.Status != nil {
		s := models.JobStatus(*rec.Status)
		j.Status = &s
	}
	if rec.Options != nil {
		var opts map[string]string
		if err := json.Unmarshal([]byte(*rec.Options), &opts); err != nil {
			return models.Job{}, fmt.Errorf("%w: job options: %v", models.ErrMalformedRecord, err)
		}
		j.Options = opts
	}
	return j, nil
}

// EncodeJobResult maps a JobResult record onto a flat item.
func EncodeJobResult(r models.JobResult) (Item, error) {
	if r.JobID == "" {
		return nil, fmt.Errorf("%w: job id is required", models.ErrInvalidArgument)
	}
	rec := dbResult{
		PK:      joinKey(resultKeyPrefix, r.JobID),
		SK:      joinKey(jobKeyPrefix, r.JobID),
		Kind:    string(models.KindResult),
		Status:  r.Status,
		Product: r.Product,
	}
	if r.Errors != nil {
		s, err := marshalList(r.Errors)
		if err != nil {
			return nil, err
		}
		rec.Errors = &s
	}
	if r.Warnings != nil {
		s, err := marshalList(r.Warnings)
		if err != nil {
			return nil, err
		}
		rec.Warnings = &s
	}
	return attributevalue.MarshalMap(rec)
}

// DecodeJobResult is the inverse of EncodeJobResult.
func DecodeJobResult(item Item) (models.JobResult, error) {
	var rec dbResult
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return models.JobResult{}, fmt.Errorf("%w: %v", models.ErrMalformedRecord, err)
	}
	jobID, err := splitKey(rec.PK, resultKeyPrefix)
	if err != nil {
		return models.JobResult{}, err
	}
	r := models.JobResult{
		JobID:   jobID,
		Status:  rec.Status,
		Product: rec.Product,
	}
	if rec.Errors != nil {
		if r.Errors, err = unmarshalList(*rec.Errors); err != nil {
			return models.JobResult{}, err
		}
	}
	if rec.Warnings != nil {
		if r.Warnings, err = unmarshalList(*rec.Warnings); err != nil {
			return models.JobResult{}, err
		}
	}
	return r, nil
}

// DecodeRecord dispatches decoding on the stored kind discriminant.
func DecodeRecord(item Item) (models.Record, error) {
	attr, ok := item[kindAttr]
	if !ok {
		return nil, fmt.Errorf("%w: item has no kind attribute", models.ErrMalformedRecord)
	}
	kind, ok := attr.(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("%w: kind attribute is not a string", models.ErrMalformedRecord)
	}
	switch models.RecordKind(kind.Value) {
	case models.KindUser:
		u, err := DecodeUser(item)
		if err != nil {
			return nil, err
		}
		return u, nil
	case models.KindFile:
		f, err := DecodeFile(item)
		if err != nil {
			return nil, err
		}
		return f, nil
	case models.KindJob:
		j, err := DecodeJob(item)
		if err != nil {
			return nil, err
		}
		return j, nil
	case models.KindResult:
		r, err := DecodeJobResult(item)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: unknown record kind %q", models.ErrMalformedRecord, kind.Value)
	}
}

func marshalList(values []string) (string, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(b), nil
}

func unmarshalList(raw string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: list attribute: %v", models.ErrMalformedRecord, err)
	}
	return values, nil
}
