package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	errs "redirsync/pkg/errors"
	"redirsync/pkg/redirect"
)

func TestImportWithReset(t *testing.T) {
	client := &stubClient{listKeys: []string{"/Kept/", "/stale", "/also-stale"}}
	engine, _ := newTestEngine(t, client, nil)

	path := writeDeleteCSVForReset(t)

	keys, err := engine.ImportWithReset(context.Background(), path)
	if err != nil {
		t.Fatalf("reset import failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "/kept" {
		t.Errorf("unexpected imported keys: %v", keys)
	}

	// Only the keys absent from the import file are removed. "/Kept/"
	// normalizes to the imported "/kept" and survives.
	deletes := client.deleteCalls()
	if len(deletes) != 1 {
		t.Fatalf("expected 1 delete batch, got %d", len(deletes))
	}
	got := map[string]bool{}
	for _, key := range deletes[0] {
		got[key] = true
	}
	if len(got) != 2 || !got["/stale"] || !got["/also-stale"] {
		t.Errorf("unexpected delete set: %v", deletes[0])
	}

	if len(client.importCalls()) != 1 {
		t.Errorf("expected 1 import batch, got %d", len(client.importCalls()))
	}
}

func TestImportWithResetNothingStale(t *testing.T) {
	client := &stubClient{listKeys: []string{"/kept"}}
	engine, _ := newTestEngine(t, client, nil)

	path := writeDeleteCSVForReset(t)

	if _, err := engine.ImportWithReset(context.Background(), path); err != nil {
		t.Fatalf("reset import failed: %v", err)
	}
	if len(client.deleteCalls()) != 0 {
		t.Error("no delete call expected when the remote holds no stale keys")
	}
	if len(client.importCalls()) != 1 {
		t.Errorf("expected 1 import batch, got %d", len(client.importCalls()))
	}
}

func TestImportWithResetListFailure(t *testing.T) {
	client := &stubClient{listErr: errs.New(errs.ErrorTypeServer, "listing unavailable")}
	engine, _ := newTestEngine(t, client, nil)

	path := writeDeleteCSVForReset(t)

	_, err := engine.ImportWithReset(context.Background(), path)
	if err == nil {
		t.Fatal("expected error")
	}
	if errs.Classify(err).Type != errs.ErrorTypeServer {
		t.Errorf("expected server_error, got %v", err)
	}
	if len(client.importCalls()) != 0 {
		t.Error("import must not start when the key listing fails")
	}
}

func TestImportWithResetDeleteFailureStopsImport(t *testing.T) {
	client := &stubClient{
		listKeys:   []string{"/stale"},
		deleteErrs: map[int]error{0: errs.New(errs.ErrorTypeClient, "rejected")},
	}
	engine, _ := newTestEngine(t, client, nil)

	path := writeDeleteCSVForReset(t)

	_, err := engine.ImportWithReset(context.Background(), path)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(client.importCalls()) != 0 {
		t.Error("import must not run after the reset delete fails")
	}
}

func TestImportWithResetValidatesFirst(t *testing.T) {
	client := &stubClient{listKeys: []string{"/whatever"}}
	engine, _ := newTestEngine(t, client, nil)

	path := writeDeleteCSV(t, []string{"/from-only"}) // no "to" column

	_, err := engine.ImportWithReset(context.Background(), path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var classified *errs.Error
	if !errors.As(err, &classified) || classified.Type != errs.ErrorTypeValidation {
		t.Errorf("expected validation_error, got %v", err)
	}
	if len(client.deleteCalls()) != 0 {
		t.Error("nothing may be deleted before the import file validates")
	}
}

// writeDeleteCSVForReset writes a one-record import file keeping /kept
func writeDeleteCSVForReset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.csv")
	content := redirect.EncodeHeader() + "\n" +
		redirect.EncodeRow(redirect.Record{From: "/kept", To: "/target"}) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
