package transfer

import (
	"context"
	"fmt"
	"sync"

	"redirsync/pkg/checkpoint"
	errs "redirsync/pkg/errors"
	"redirsync/pkg/redirect"
	"redirsync/pkg/retry"
	"redirsync/pkg/ui"
)

// batchSender issues one batch's remote call
type batchSender func(ctx context.Context, batch []redirect.Record) error

// Import reads, validates and uploads the record set at path in
// canonical order, resuming from any saved batch index. It returns the
// full ordered list of identity keys it covered, which feeds the
// follow-up delete in a reset run.
func (e *Engine) Import(ctx context.Context, path string) ([]string, error) {
	records, err := redirect.ReadRecords(path)
	if err != nil {
		return nil, err
	}
	if err := redirect.Validate(redirect.ImportSchema, records); err != nil {
		return nil, err
	}

	err = e.runBatches(ctx, checkpoint.OpImports, path, records, "importing",
		func(ctx context.Context, batch []redirect.Record) error {
			return e.client.ImportBatch(ctx, batch)
		})
	if err != nil {
		return nil, err
	}
	return redirect.Keys(records), nil
}

// Delete reads the key set at path and removes those redirects from
// the remote, resuming from any saved batch index.
func (e *Engine) Delete(ctx context.Context, path string) ([]string, error) {
	records, err := redirect.ReadRecords(path)
	if err != nil {
		return nil, err
	}
	if err := redirect.Validate(redirect.DeleteSchema, records); err != nil {
		return nil, err
	}

	err = e.runBatches(ctx, checkpoint.OpDeletes, path, records, "deleting",
		func(ctx context.Context, batch []redirect.Record) error {
			return e.client.DeleteBatch(ctx, redirect.Keys(batch))
		})
	if err != nil {
		return nil, err
	}
	return redirect.Keys(records), nil
}

// runBatches is the shared import/delete engine: split the sorted set
// into fixed-size batches, skip everything before the checkpointed
// index, send the rest through the retry wrapper, and persist the
// checkpoint as the completed frontier advances. The final batch's
// success clears the checkpoint entirely.
func (e *Engine) runBatches(ctx context.Context, op checkpoint.Operation, path string, records []redirect.Record, label string, send batchSender) error {
	fingerprint := e.fingerprint(path, readFingerprintContent(path))

	// An empty set performs zero remote calls but still sweeps up any
	// leftover checkpoint from a previous failed run.
	if len(records) == 0 {
		if err := e.store.Clear(op, fingerprint); err != nil {
			return errs.Classify(err)
		}
		e.logger.InfoWithFields("nothing to do", map[string]interface{}{"operation": string(op)})
		ui.PrintSuccess(fmt.Sprintf("%s: no records, done", label))
		return nil
	}

	batches := splitBatches(records, e.cfg.Import.BatchSize)

	start := 0
	if entry, ok := e.store.Lookup(op, fingerprint); ok {
		if entry.Counter > 0 && entry.Counter <= len(batches) {
			start = entry.Counter
			e.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
				"operation":   string(op),
				"batch_index": start,
				"batches":     len(batches),
			})
		}
	}

	progress := ui.NewProgressTracker(label, len(records))
	progress.SetProcessed(countRows(batches[:start]))

	for window := start; window < len(batches); {
		if ctx.Err() != nil {
			e.checkpointBatch(op, fingerprint, window)
			return ErrInterrupted
		}

		end := window + e.cfg.Import.Concurrency
		if end > len(batches) {
			end = len(batches)
		}

		completed, err := e.sendWindow(ctx, batches[window:end], send)
		frontier := window + completed
		if err != nil {
			if interrupted(ctx) {
				err = ErrInterrupted
			}
			e.checkpointBatch(op, fingerprint, frontier)
			return err
		}

		for _, batch := range batches[window:end] {
			progress.Advance(len(batch))
		}
		window = end

		if window < len(batches) {
			if err := e.store.Save(op, fingerprint, window, nil); err != nil {
				return errs.Classify(err)
			}
		}
	}

	if err := e.store.Clear(op, fingerprint); err != nil {
		return errs.Classify(err)
	}
	progress.Done()
	return nil
}

// sendWindow issues up to one window of batches concurrently and
// returns how many batches completed as a contiguous prefix — the only
// frontier a checkpoint may safely advance to. With a window of one
// this is plain sequential sending.
func (e *Engine) sendWindow(ctx context.Context, window [][]redirect.Record, send batchSender) (int, error) {
	if len(window) == 1 {
		if err := retry.Do(func() error { return send(ctx, window[0]) }, e.retryConfig(ctx)); err != nil {
			return 0, err
		}
		return 1, nil
	}

	results := make([]error, len(window))
	var wg sync.WaitGroup
	for i, batch := range window {
		wg.Add(1)
		go func(i int, batch []redirect.Record) {
			defer wg.Done()
			results[i] = retry.Do(func() error { return send(ctx, batch) }, e.retryConfig(ctx))
		}(i, batch)
	}
	wg.Wait()

	for i, err := range results {
		if err != nil {
			return i, err
		}
	}
	return len(window), nil
}

// checkpointBatch persists the batch frontier, logging rather than
// masking a persistence failure during an already-failing path
func (e *Engine) checkpointBatch(op checkpoint.Operation, fingerprint string, frontier int) {
	if err := e.store.Save(op, fingerprint, frontier, nil); err != nil {
		e.logger.WithError(err).Error("failed to persist checkpoint")
	}
}

func splitBatches(records []redirect.Record, size int) [][]redirect.Record {
	if size < 1 {
		size = 1
	}
	var batches [][]redirect.Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

func countRows(batches [][]redirect.Record) int {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	return total
}
