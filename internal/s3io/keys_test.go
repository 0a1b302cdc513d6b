package s3io_test

import (
	"testing"

	"github.com/shopbulk/bulk-import-backend/internal/s3io"
)

func TestBuildAndParseKey(t *testing.T) {
	key := s3io.BuildKey("0f8fad5b", "products.csv")
	if key != "0f8fad5b_products.csv" {
		t.Fatalf("key = %q", key)
	}

	fileID, fileName, ok := s3io.ParseKey(key)
	if !ok || fileID != "0f8fad5b" || fileName != "products.csv" {
		t.Errorf("parsed %q / %q, ok=%v", fileID, fileName, ok)
	}
}

func TestParseKeyUnderscoreInName(t *testing.T) {
	// Only the first separator splits; names may carry underscores.
	fileID, fileName, ok := s3io.ParseKey("abc_q3_inventory.xlsx")
	if !ok || fileID != "abc" || fileName != "q3_inventory.xlsx" {
		t.Errorf("parsed %q / %q, ok=%v", fileID, fileName, ok)
	}
}

func TestParseKeyRejects(t *testing.T) {
	for _, key := range []string{"", "no-separator", "_name.csv", "id_"} {
		if _, _, ok := s3io.ParseKey(key); ok {
			t.Errorf("ParseKey(%q) accepted", key)
		}
	}
}
