package ddb_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopbulk/bulk-import-backend/internal/ddb"
	"github.com/shopbulk/bulk-import-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDB is a scriptable stand-in for the DynamoDB client.
type fakeDB struct {
	getItemFn  func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItemFn  func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateFn   func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	queryFn    func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	transactFn func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error)
}

func (f *fakeDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItemFn(in)
}

func (f *fakeDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItemFn(in)
}

func (f *fakeDB) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return f.updateFn(in)
}

func (f *fakeDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.queryFn(in)
}

func (f *fakeDB) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return f.transactFn(in)
}

func mustEncodeJob(t *testing.T, j models.Job) ddb.Item {
	t.Helper()
	item, err := ddb.EncodeJob(j)
	if err != nil {
		t.Fatalf("encode job: %v", err)
	}
	return item
}

func TestGetUserNotFound(t *testing.T) {
	db := &fakeDB{
		getItemFn: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}
	repo := &ddb.Repo{DB: db, Table: "bulk-manager"}

	_, err := repo.GetUser(context.Background(), "u-404")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserStorageFailure(t *testing.T) {
	db := &fakeDB{
		getItemFn: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return nil, &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
		},
	}
	repo := &ddb.Repo{DB: db, Table: "bulk-manager"}

	_, err := repo.GetUser(context.Background(), "u-1")
	if !errors.Is(err, models.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestUpdateFilePartial(t *testing.T) {
	var captured *dynamodb.UpdateItemInput
	db := &fakeDB{
		updateFn: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			captured = in
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}
	repo := &ddb.Repo{DB: db, Table: "bulk-manager"}

	err := repo.UpdateFile(context.Background(), models.File{
		ID:           "f-1",
		FieldDetails: models.FieldMapping{"SKU": "sku"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	wantKey := ddb.FileKey("f-1")
	pk := captured.Key["PK"].(*types.AttributeValueMemberS).Value
	if want := wantKey["PK"].(*types.AttributeValueMemberS).Value; pk != want {
		t.Errorf("update key PK = %q, want %q", pk, want)
	}
	expr := aws.ToString(captured.UpdateExpression)
	if !strings.HasPrefix(expr, "SET ") {
		t.Errorf("update expression %q is not SET-only", expr)
	}
	names := map[string]bool{}
	for _, n := range captured.ExpressionAttributeNames {
		names[n] = true
	}
	if !names["field_details"] {
		t.Errorf("expression names %v missing field_details", captured.ExpressionAttributeNames)
	}
	if names["PK"] || names["SK"] {
		t.Errorf("update must not touch key attributes, names: %v", captured.ExpressionAttributeNames)
	}
}

func TestUpdateFileRequiresFields(t *testing.T) {
	repo := &ddb.Repo{DB: &fakeDB{}, Table: "bulk-manager"}
	if err := repo.UpdateFile(context.Background(), models.File{ID: "f-1"}); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := repo.UpdateFile(context.Background(), models.File{FileName: ptr("a.csv")}); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for missing id, got %v", err)
	}
}

// TestListJobsForUserExhaustive drives the query loop across three
// synthetic pages and checks the caller sees the union, newest first,
// with no duplicates and no continuation token.
func TestListJobsForUserExhaustive(t *testing.T) {
	times := []string{
		"2026-08-03T12:00:00Z", "2026-08-03T11:00:00Z",
		"2026-08-02T10:00:00Z", "2026-08-02T09:00:00Z",
		"2026-08-01T08:00:00Z",
	}
	pages := [][]ddb.Item{
		{
			mustEncodeJob(t, models.Job{ID: "j-1", UserID: "u-1", StartTime: &times[0]}),
			mustEncodeJob(t, models.Job{ID: "j-2", UserID: "u-1", StartTime: &times[1]}),
		},
		{
			mustEncodeJob(t, models.Job{ID: "j-3", UserID: "u-1", StartTime: &times[2]}),
			mustEncodeJob(t, models.Job{ID: "j-4", UserID: "u-1", StartTime: &times[3]}),
		},
		{
			mustEncodeJob(t, models.Job{ID: "j-5", UserID: "u-1", StartTime: &times[4]}),
		},
	}
	cursors := []ddb.Item{
		{"PK": &types.AttributeValueMemberS{Value: "job#j-2"}},
		{"PK": &types.AttributeValueMemberS{Value: "job#j-4"}},
	}

	calls := 0
	db := &fakeDB{
		queryFn: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			if aws.ToString(in.IndexName) != "GSI2" {
				t.Errorf("query index = %q, want GSI2", aws.ToString(in.IndexName))
			}
			if aws.ToBool(in.ScanIndexForward) {
				t.Error("query must scan in descending order")
			}
			page := calls
			// Pages must be requested in strict continuation order.
			switch page {
			case 0:
				if in.ExclusiveStartKey != nil {
					t.Errorf("first page has start key %v", in.ExclusiveStartKey)
				}
			case 1, 2:
				want := cursors[page-1]["PK"].(*types.AttributeValueMemberS).Value
				got := in.ExclusiveStartKey["PK"].(*types.AttributeValueMemberS).Value
				if got != want {
					t.Errorf("page %d start key = %q, want %q", page, got, want)
				}
			default:
				t.Fatalf("unexpected extra query call %d", page)
			}
			calls++
			out := &dynamodb.QueryOutput{Items: pages[page]}
			if page < len(cursors) {
				out.LastEvaluatedKey = cursors[page]
			}
			return out, nil
		},
	}
	repo := &ddb.Repo{DB: db, Table: "bulk-manager"}

	jobsList, err := repo.ListJobsForUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if calls != 3 {
		t.Errorf("query calls = %d, want 3", calls)
	}
	if len(jobsList) != 5 {
		t.Fatalf("job count = %d, want 5", len(jobsList))
	}
	seen := map[string]bool{}
	for i, job := range jobsList {
		if seen[job.ID] {
			t.Errorf("duplicate job %s", job.ID)
		}
		seen[job.ID] = true
		if *job.StartTime != times[i] {
			t.Errorf("job %d start = %s, want %s (descending)", i, *job.StartTime, times[i])
		}
	}
}

func TestTransactCreateJobShape(t *testing.T) {
	var captured *dynamodb.TransactWriteItemsInput
	db := &fakeDB{
		transactFn: func(in *dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
			captured = in
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}
	repo := &ddb.Repo{DB: db, Table: "bulk-manager"}

	start := "2026-08-04T09:00:00Z"
	job := models.Job{ID: "j-10", UserID: "u-1", Type: models.JobTypeProductImport, StartTime: &start}
	if err := repo.TransactCreateJob(context.Background(), job, "f-1", models.FieldMapping{"SKU": "sku"}); err != nil {
		t.Fatalf("transact: %v", err)
	}

	if len(captured.TransactItems) != 3 {
		t.Fatalf("transact items = %d, want 3", len(captured.TransactItems))
	}
	put := captured.TransactItems[0].Put
	if put == nil || put.ConditionExpression == nil {
		t.Fatal("first item must be a conditional put")
	}
	fileUpd := captured.TransactItems[1].Update
	if fileUpd == nil || !strings.HasPrefix(aws.ToString(fileUpd.UpdateExpression), "SET ") {
		t.Fatalf("second item must SET the file mapping, got %+v", fileUpd)
	}
	countUpd := captured.TransactItems[2].Update
	if countUpd == nil || !strings.HasPrefix(aws.ToString(countUpd.UpdateExpression), "ADD ") {
		t.Fatalf("third item must ADD the job counter, got %+v", countUpd)
	}
}

// TestTransactCreateJobConflict simulates a failed create condition and
// checks the whole transaction surfaces as a conflict with no state
// mutated through any other path.
func TestTransactCreateJobConflict(t *testing.T) {
	mutations := 0
	db := &fakeDB{
		putItemFn: func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			mutations++
			return &dynamodb.PutItemOutput{}, nil
		},
		updateFn: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			mutations++
			return &dynamodb.UpdateItemOutput{}, nil
		},
		transactFn: func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
			return nil, &types.TransactionCanceledException{
				Message: aws.String("Transaction cancelled"),
				CancellationReasons: []types.CancellationReason{
					{Code: aws.String("ConditionalCheckFailed")},
					{Code: aws.String("None")},
					{Code: aws.String("None")},
				},
			}
		},
	}
	repo := &ddb.Repo{DB: db, Table: "bulk-manager"}

	start := "2026-08-04T09:00:00Z"
	job := models.Job{ID: "j-dup", UserID: "u-1", Type: models.JobTypeProductImport, StartTime: &start}
	err := repo.TransactCreateJob(context.Background(), job, "f-1", models.FieldMapping{"SKU": "sku"})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if mutations != 0 {
		t.Errorf("no writes may happen outside the transaction, saw %d", mutations)
	}
}

func TestTransactCreateJobOutage(t *testing.T) {
	db := &fakeDB{
		transactFn: func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
			return nil, &types.InternalServerError{Message: aws.String("boom")}
		},
	}
	repo := &ddb.Repo{DB: db, Table: "bulk-manager"}

	start := "2026-08-04T09:00:00Z"
	job := models.Job{ID: "j-11", UserID: "u-1", Type: models.JobTypeProductImport, StartTime: &start}
	err := repo.TransactCreateJob(context.Background(), job, "f-1", models.FieldMapping{"SKU": "sku"})
	if !errors.Is(err, models.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
