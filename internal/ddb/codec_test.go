package ddb_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopbulk/bulk-import-backend/internal/ddb"
	"github.com/shopbulk/bulk-import-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func ptr[T any](v T) *T { return &v }

func TestUserRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		user models.User
	}{
		{
			name: "id only",
			user: models.User{ID: "u-1"},
		},
		{
			name: "some optional fields",
			user: models.User{
				ID:     "u-2",
				Domain: ptr("example.myshopify.com"),
				Email:  ptr("owner@example.com"),
				Active: ptr(false),
			},
		},
		{
			name: "all fields",
			user: models.User{
				ID:             "u-3",
				Domain:         ptr("shop.example.com"),
				Subscription:   ptr("pro"),
				OwnerName:      ptr("Ama Mensah"),
				Email:          ptr("ama@example.com"),
				AccessToken:    ptr("shpat_abc123"),
				TimeZone:       ptr("Africa/Accra"),
				ShopName:       ptr("Ama's Shop"),
				Active:         ptr(true),
				JobCount:       ptr(12),
				ActiveJobCount: ptr(0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := ddb.EncodeUser(tt.user)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := ddb.DecodeUser(item)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.user) {
				t.Errorf("round-trip mismatch:\n  got  %+v\n  want %+v", got, tt.user)
			}
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	csv := models.FileTypeCSV
	tests := []struct {
		name string
		file models.File
	}{
		{
			name: "id only",
			file: models.File{ID: "f-1"},
		},
		{
			name: "upload fields",
			file: models.File{
				ID:             "f-2",
				Idle:           ptr(false),
				FileName:       ptr("products.csv"),
				FileType:       &csv,
				S3Key:          ptr("f-2_products.csv"),
				ActualRowCount: ptr(42),
				HeaderRow:      ptr(1),
			},
		},
		{
			name: "with field mapping",
			file: models.File{
				ID:           "f-3",
				FieldDetails: models.FieldMapping{"SKU": "sku", "Title": "title"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := ddb.EncodeFile(tt.file)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := ddb.DecodeFile(item)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.file) {
				t.Errorf("round-trip mismatch:\n  got  %+v\n  want %+v", got, tt.file)
			}
		})
	}
}

func TestJobRoundTrip(t *testing.T) {
	status := models.StatusCreated
	tests := []struct {
		name string
		job  models.Job
	}{
		{
			name: "identity only",
			job:  models.Job{ID: "01J00000000000000000000000", UserID: "u-1"},
		},
		{
			name: "full job",
			job: models.Job{
				ID:            "01J00000000000000000000001",
				UserID:        "u-1",
				Type:          models.JobTypeProductImport,
				FileID:        ptr("f-1"),
				StartTime:     ptr("2026-08-01T10:00:00Z"),
				Status:        &status,
				Options:       map[string]string{"publish": "true"},
				TotalProducts: ptr(100),
				TotalSuccess:  ptr(0),
				TotalFailed:   ptr(0),
				CurrentBatch:  ptr(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := ddb.EncodeJob(tt.job)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := ddb.DecodeJob(item)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.job) {
				t.Errorf("round-trip mismatch:\n  got  %+v\n  want %+v", got, tt.job)
			}
		})
	}
}

func TestJobResultRoundTrip(t *testing.T) {
	result := models.JobResult{
		JobID:    "01J00000000000000000000002",
		Status:   ptr("FAILED"),
		Errors:   []string{"row 3: missing sku"},
		Warnings: []string{"row 5: price defaulted"},
		Product:  ptr(`{"title":"Mug"}`),
	}
	item, err := ddb.EncodeJobResult(result)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ddb.DecodeJobResult(item)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, result) {
		t.Errorf("round-trip mismatch:\n  got  %+v\n  want %+v", got, result)
	}
}

func TestEncodeJobRequiresStartTimeForType(t *testing.T) {
	_, err := ddb.EncodeJob(models.Job{ID: "j-1", UserID: "u-1", Type: models.JobTypeProductImport})
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDecodeMalformedKey(t *testing.T) {
	tests := []struct {
		name string
		item ddb.Item
	}{
		{
			name: "wrong prefix",
			item: ddb.Item{
				"PK":   &types.AttributeValueMemberS{Value: "job#x"},
				"SK":   &types.AttributeValueMemberS{Value: "user"},
				"kind": &types.AttributeValueMemberS{Value: "user"},
			},
		},
		{
			name: "too many segments",
			item: ddb.Item{
				"PK":   &types.AttributeValueMemberS{Value: "user#a#b"},
				"SK":   &types.AttributeValueMemberS{Value: "user"},
				"kind": &types.AttributeValueMemberS{Value: "user"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ddb.DecodeUser(tt.item); !errors.Is(err, models.ErrMalformedRecord) {
				t.Errorf("expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestDecodeRecordDispatch(t *testing.T) {
	file := models.File{ID: "f-9", FileName: ptr("inventory.xlsx")}
	item, err := ddb.EncodeFile(file)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rec, err := ddb.DecodeRecord(item)
	if err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Kind() != models.KindFile {
		t.Fatalf("kind = %q, want %q", rec.Kind(), models.KindFile)
	}
	if got, ok := rec.(models.File); !ok || !reflect.DeepEqual(got, file) {
		t.Errorf("record = %+v, want %+v", rec, file)
	}
}

func TestDecodeRecordUnknownKind(t *testing.T) {
	item := ddb.Item{
		"PK":   &types.AttributeValueMemberS{Value: "thing#1"},
		"SK":   &types.AttributeValueMemberS{Value: "thing"},
		"kind": &types.AttributeValueMemberS{Value: "thing"},
	}
	if _, err := ddb.DecodeRecord(item); !errors.Is(err, models.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}
