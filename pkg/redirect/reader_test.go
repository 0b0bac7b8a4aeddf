package redirect

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "redirsync/pkg/errors"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRecords(t *testing.T) {
	path := writeInput(t, strings.Join([]string{
		`"from";"to";"type";"endDate";"binding"`,
		`"/zulu";"/z";"PERMANENT";"";""`,
		`"/alpha";"/a";"temporary";"2026-06-01";"site"`,
		``,
	}, "\n"))

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// Type is upcased on read.
	for _, r := range records {
		if r.Key() == "/alpha" && r.Type != TypeTemporary {
			t.Errorf("expected TEMPORARY, got %q", r.Type)
		}
	}

	// Canonical order, not file order.
	for i := 1; i < len(records); i++ {
		if KeyHash(records[i-1].Key()) > KeyHash(records[i].Key()) {
			t.Error("records must come back in canonical hash order")
		}
	}
}

func TestReadRecordsDeleteInput(t *testing.T) {
	path := writeInput(t, "\"from\"\n\"/only-source\"\n")

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(records) != 1 || records[0].From != "/only-source" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatal("expected error")
	}
	var classified *errs.Error
	if !errors.As(err, &classified) || classified.Type != errs.ErrorTypeFilesystem {
		t.Errorf("expected filesystem_error, got %v", err)
	}
}

func TestReadRecordsMissingFromColumn(t *testing.T) {
	path := writeInput(t, "\"to\";\"type\"\n\"/x\";\"PERMANENT\"\n")

	_, err := ReadRecords(path)
	if err == nil {
		t.Fatal("expected error")
	}
	var classified *errs.Error
	if !errors.As(err, &classified) || classified.Type != errs.ErrorTypeValidation {
		t.Errorf("expected validation_error, got %v", err)
	}
}

func TestReadRecordsMalformedQuoting(t *testing.T) {
	path := writeInput(t, "\"from\";\"to\"\n\"/ok\";\"unterminated\n")

	_, err := ReadRecords(path)
	if err == nil {
		t.Fatal("expected error for malformed quoting")
	}
	var classified *errs.Error
	if !errors.As(err, &classified) || classified.Type != errs.ErrorTypeValidation {
		t.Errorf("expected validation_error, got %v", err)
	}
}

func TestReadRecordsEmptyFile(t *testing.T) {
	path := writeInput(t, "")

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("empty file should read as zero records, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}
