package transfer

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"redirsync/pkg/checkpoint"
	errs "redirsync/pkg/errors"
	"redirsync/pkg/queue"
	"redirsync/pkg/redirect"
	"redirsync/pkg/remote"
	"redirsync/pkg/retry"
	"redirsync/pkg/ui"
)

// flushResult carries the outcome of one page submission to the queue
type flushResult struct {
	rows int
	err  error
}

// exportRun is the mutable state of one export pass
type exportRun struct {
	fingerprint string
	writer      *queue.OrderedWriter
	// startRows/startPages come from a resumed checkpoint
	startRows  int
	startPages int
	// startCursor fetches the first page not yet written
	startCursor string
	// rowsOf[rel] is the row count of the rel-th page submitted this run
	rowsOf []int
	// cursorOf[rel] is the next-cursor carried by that page, used to
	// build a resume point consistent with the drained frontier
	cursorOf []string
}

// Export streams the remote redirect set into the CSV at path,
// restoring any saved resume point first. It returns the total number
// of rows in the finished file.
func (e *Engine) Export(ctx context.Context, path string) (int, error) {
	run := &exportRun{fingerprint: e.fingerprint(path, nil)}

	if entry, ok := e.store.Lookup(checkpoint.OpExports, run.fingerprint); ok {
		saved := Resume{Counter: entry.Counter, Cursor: entry.Data["cursor"]}
		if e.confirm(saved) {
			run.startRows = entry.Counter
			run.startCursor = entry.Data["cursor"]
			run.startPages, _ = strconv.Atoi(entry.Data["page"])
			e.logger.InfoWithFields("resuming export from checkpoint", map[string]interface{}{
				"rows_written": run.startRows,
				"pages":        run.startPages,
			})
		} else {
			if err := e.store.Clear(checkpoint.OpExports, run.fingerprint); err != nil {
				return 0, errs.Classify(err)
			}
		}
	}

	file, err := e.openExportFile(path, run.startRows > 0 || run.startCursor != "")
	if err != nil {
		return 0, errs.Classify(err)
	}
	defer file.Close()

	run.writer = queue.NewOrderedWriter(file, e.cfg.Export.WriteBatchSize)

	total, err := e.exportLoop(ctx, run)
	if err != nil {
		return total, err
	}

	if err := file.Sync(); err != nil {
		return total, errs.Classify(err)
	}
	if err := e.store.Clear(checkpoint.OpExports, run.fingerprint); err != nil {
		return total, errs.Classify(err)
	}

	e.logger.InfoWithFields("export completed", map[string]interface{}{
		"path": path,
		"rows": total,
	})
	return total, nil
}

// openExportFile opens the output sink: append when resuming, truncate
// plus header when starting fresh.
func (e *Engine) openExportFile(path string, resuming bool) (*os.File, error) {
	if resuming {
		return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := file.WriteString(redirect.EncodeHeader() + "\n"); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

// exportLoop fetches pages sequentially (the cursor dependency forces
// that), hands each to the ordered writer without awaiting its drain,
// and keeps at most the configured window of undrained submissions in
// flight. Page N+1's fetch overlaps page N's file write.
func (e *Engine) exportLoop(ctx context.Context, run *exportRun) (int, error) {
	progress := ui.NewProgressTracker("exporting", -1)
	progress.SetProcessed(run.startRows)

	cursor := run.startCursor
	var futures []chan flushResult
	rel := 0

	for {
		if ctx.Err() != nil {
			return e.settleAndCheckpoint(run, futures, progress, ErrInterrupted)
		}

		page, timedOut, err := e.fetchPage(ctx, cursor)
		if err != nil {
			if interrupted(ctx) {
				return e.settleAndCheckpoint(run, futures, progress, ErrInterrupted)
			}
			if timedOut {
				// An unresponsive cursor is assumed corrupt rather than
				// transient: drop the resume point entirely so the
				// restart begins again at page 0.
				drainFutures(futures)
				_ = e.store.Clear(checkpoint.OpExports, run.fingerprint)
				return run.startRows, errs.Wrap(errs.ErrorTypeNetwork, err,
					fmt.Sprintf("page fetch exceeded %s, pagination state reset", e.cfg.Export.FetchTimeout))
			}
			return e.settleAndCheckpoint(run, futures, progress, err)
		}

		run.rowsOf = append(run.rowsOf, len(page.Records))
		run.cursorOf = append(run.cursorOf, page.NextCursor)

		result := &queue.PageResult{PageIndex: rel, Records: page.Records, NextCursor: page.NextCursor}
		future := make(chan flushResult, 1)
		go func() {
			rows, err := run.writer.AddPage(result)
			future <- flushResult{rows: rows, err: err}
		}()
		futures = append(futures, future)
		rel++

		if len(futures) >= e.cfg.Export.Concurrency {
			oldest := <-futures[0]
			futures = futures[1:]
			if oldest.err != nil {
				return e.settleAndCheckpoint(run, futures, progress, oldest.err)
			}
			progress.Advance(oldest.rows)
			if err := e.saveExportCheckpoint(run); err != nil {
				return e.settleAndCheckpoint(run, futures, progress, err)
			}
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	// Await the stragglers, then poll until the queue is fully drained
	for _, future := range futures {
		res := <-future
		if res.err != nil {
			return e.settleAndCheckpoint(run, nil, progress, res.err)
		}
		progress.Advance(res.rows)
	}
	for run.writer.Size() > 0 {
		if err := retry.Wait(ctx, waitPoll); err != nil {
			return e.settleAndCheckpoint(run, nil, progress, ErrInterrupted)
		}
	}

	progress.Done()
	return run.totalRows(), nil
}

// fetchPage retrieves one page through the retry wrapper, raced against
// the hard per-page wall-clock timeout. The second return reports
// whether that timeout (not an interrupt) cut the fetch short.
func (e *Engine) fetchPage(ctx context.Context, cursor string) (*remote.Page, bool, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Export.FetchTimeout)
	defer cancel()

	page, err := retry.DoWithResult(func() (*remote.Page, error) {
		return e.client.ExportPage(fetchCtx, cursor)
	}, e.retryConfig(fetchCtx))

	timedOut := err != nil && fetchCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil
	return page, timedOut, err
}

// settleAndCheckpoint awaits outstanding local writes, persists a
// checkpoint consistent with the drained frontier, and returns the
// terminal error. No network calls happen past this point.
func (e *Engine) settleAndCheckpoint(run *exportRun, futures []chan flushResult, progress *ui.ProgressTracker, cause error) (int, error) {
	drainFutures(futures)

	if err := e.saveExportCheckpoint(run); err != nil {
		e.logger.WithError(err).Error("failed to persist export checkpoint")
	}

	total := run.drainedRows()
	progress.SetProcessed(total)
	return total, cause
}

// saveExportCheckpoint records the resume point for everything safely
// on disk: the cursor that refetches the first unwritten page, and the
// running row total through the drained frontier.
func (e *Engine) saveExportCheckpoint(run *exportRun) error {
	frontier := run.writer.NextIndex()

	cursor := run.startCursor
	if frontier > 0 {
		cursor = run.cursorOf[frontier-1]
	}

	return e.store.Save(checkpoint.OpExports, run.fingerprint, run.drainedRows(), map[string]string{
		"cursor": cursor,
		"page":   strconv.Itoa(run.startPages + frontier),
	})
}

// drainedRows is the row total through the writer's drained frontier
func (run *exportRun) drainedRows() int {
	total := run.startRows
	for rel := 0; rel < run.writer.NextIndex() && rel < len(run.rowsOf); rel++ {
		total += run.rowsOf[rel]
	}
	return total
}

// totalRows is the full row count once every page has drained
func (run *exportRun) totalRows() int {
	total := run.startRows
	for _, rows := range run.rowsOf {
		total += rows
	}
	return total
}

func drainFutures(futures []chan flushResult) {
	for _, future := range futures {
		<-future
	}
}
