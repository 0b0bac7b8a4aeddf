package transfer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"redirsync/pkg/checkpoint"
	errs "redirsync/pkg/errors"
	"redirsync/pkg/redirect"
	"redirsync/pkg/ui"
)

// ImportWithReset first removes every remote redirect that the import
// file does not mention, then runs the normal import. The removal set
// goes through the regular delete flow via a scratch CSV so it gets
// the same batching and retry treatment.
func (e *Engine) ImportWithReset(ctx context.Context, path string) ([]string, error) {
	records, err := redirect.ReadRecords(path)
	if err != nil {
		return nil, err
	}
	if err := redirect.Validate(redirect.ImportSchema, records); err != nil {
		return nil, err
	}

	keeping := make(map[string]struct{}, len(records))
	for _, key := range redirect.Keys(records) {
		keeping[key] = struct{}{}
	}

	existing, err := e.client.ListKeys(ctx)
	if err != nil {
		if interrupted(ctx) {
			return nil, ErrInterrupted
		}
		return nil, err
	}

	var stale []string
	for _, key := range existing {
		if _, ok := keeping[redirect.Normalize(key)]; !ok {
			stale = append(stale, key)
		}
	}

	if len(stale) > 0 {
		e.logger.InfoWithFields("removing redirects absent from import file", map[string]interface{}{
			"count": len(stale),
		})
		if err := e.deleteViaScratch(ctx, stale); err != nil {
			return nil, err
		}
	} else {
		ui.PrintInfo("reset", "remote has no redirects to remove")
	}

	return e.Import(ctx, path)
}

// deleteViaScratch writes the stale keys to a throwaway CSV, runs the
// delete flow against it, and cleans up both the file and any
// checkpoint it left behind (a new scratch name is generated per run,
// so a leftover entry could never be resumed).
func (e *Engine) deleteViaScratch(ctx context.Context, keys []string) error {
	scratch := filepath.Join(os.TempDir(), "redirsync-reset-"+uuid.NewString()+".csv")

	if err := redirect.WriteKeysFile(scratch, keys); err != nil {
		return errs.Classify(err)
	}
	defer func() {
		fingerprint := e.fingerprint(scratch, readFingerprintContent(scratch))
		os.Remove(scratch)
		_ = e.store.Clear(checkpoint.OpDeletes, fingerprint)
	}()

	_, err := e.Delete(ctx, scratch)
	return err
}
