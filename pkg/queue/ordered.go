package queue

import (
	"fmt"
	"io"
	"sync"

	"redirsync/pkg/redirect"
)

// PageResult is one fetched export page awaiting its turn in the output
type PageResult struct {
	PageIndex  int
	Records    []redirect.Record
	NextCursor string
}

// OrderedWriter buffers export pages that complete out of logical order
// and appends them to the sink strictly by ascending PageIndex, with no
// interleaving of two pages' rows.
//
// Draining is exclusive: if a drain is already running, a concurrent
// AddPage just enqueues and returns 0 and the active drain picks the
// page up. Flushed-row credit therefore lands on whichever call
// completes the drain, so callers must sum the returned counts rather
// than assume local attribution.
type OrderedWriter struct {
	mu        sync.Mutex
	pending   map[int]*PageResult
	nextIndex int
	draining  bool

	sink io.Writer
	// rowBatch groups encoded rows per sink write purely for I/O
	// efficiency; it never affects ordering.
	rowBatch int
}

// NewOrderedWriter creates a writer over the given sink. rowBatch values
// below 1 are clamped to 1.
func NewOrderedWriter(sink io.Writer, rowBatch int) *OrderedWriter {
	if rowBatch < 1 {
		rowBatch = 1
	}
	return &OrderedWriter{
		pending:  make(map[int]*PageResult),
		sink:     sink,
		rowBatch: rowBatch,
	}
}

// AddPage enqueues a page and drains every contiguous, order-ready page
// starting at the next expected index. It returns the number of rows
// flushed by this call: zero when the page has to wait on an earlier
// index, or when another drain is already in flight.
//
// A write failure propagates out with the next expected index left
// unadvanced past the failing page, so Size reflects exactly the pages
// not yet safely written.
func (w *OrderedWriter) AddPage(page *PageResult) (int, error) {
	w.mu.Lock()
	w.pending[page.PageIndex] = page
	if w.draining {
		w.mu.Unlock()
		return 0, nil
	}
	w.draining = true
	w.mu.Unlock()

	flushed := 0
	for {
		w.mu.Lock()
		next, ok := w.pending[w.nextIndex]
		if !ok {
			w.draining = false
			w.mu.Unlock()
			return flushed, nil
		}
		w.mu.Unlock()

		if err := w.writePage(next); err != nil {
			w.mu.Lock()
			w.draining = false
			w.mu.Unlock()
			return flushed, fmt.Errorf("writing page %d: %w", next.PageIndex, err)
		}

		w.mu.Lock()
		delete(w.pending, w.nextIndex)
		w.nextIndex++
		w.mu.Unlock()
		flushed += len(next.Records)
	}
}

// Size returns the number of undrained pages still pending
func (w *OrderedWriter) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// NextIndex returns the next page index the writer is waiting for
func (w *OrderedWriter) NextIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextIndex
}

// writePage encodes and writes one page's rows in rowBatch-sized groups
func (w *OrderedWriter) writePage(page *PageResult) error {
	for start := 0; start < len(page.Records); start += w.rowBatch {
		end := start + w.rowBatch
		if end > len(page.Records) {
			end = len(page.Records)
		}

		var chunk []byte
		for _, r := range page.Records[start:end] {
			chunk = append(chunk, redirect.EncodeRow(r)...)
			chunk = append(chunk, '\n')
		}
		if _, err := w.sink.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}
