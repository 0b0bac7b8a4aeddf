package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	progressBar   = "█"
	progressEmpty = "░"
	barWidth      = 24
)

// ProgressTracker reports batch/row progress for one running operation.
// When the total is unknown (export against an unbounded cursor) it
// degrades to a running count.
type ProgressTracker struct {
	label     string
	total     int
	processed int
	startTime time.Time
}

// NewProgressTracker creates a tracker. total <= 0 means unknown.
func NewProgressTracker(label string, total int) *ProgressTracker {
	return &ProgressTracker{
		label:     label,
		total:     total,
		startTime: time.Now(),
	}
}

// SetProcessed sets the absolute processed count (used when resuming)
func (pt *ProgressTracker) SetProcessed(n int) {
	pt.processed = n
}

// Advance adds n to the processed count and redraws the line
func (pt *ProgressTracker) Advance(n int) {
	pt.processed += n
	pt.Print()
}

// Processed returns the current processed count
func (pt *ProgressTracker) Processed() int {
	return pt.processed
}

// Print redraws the progress line in place
func (pt *ProgressTracker) Print() {
	if IsQuietMode() {
		return
	}
	if pt.total > 0 {
		ratio := float64(pt.processed) / float64(pt.total)
		if ratio > 1 {
			ratio = 1
		}
		filled := int(ratio * barWidth)
		bar := strings.Repeat(progressBar, filled) + strings.Repeat(progressEmpty, barWidth-filled)
		fmt.Printf("\r%s [%s] %d/%d", Cyan(pt.label), bar, pt.processed, pt.total)
	} else {
		fmt.Printf("\r%s %d processed", Cyan(pt.label), pt.processed)
	}
}

// Done finishes the progress line with a rate summary
func (pt *ProgressTracker) Done() {
	if IsQuietMode() {
		return
	}
	elapsed := time.Since(pt.startTime)
	rate := float64(pt.processed) / elapsed.Seconds()
	fmt.Printf("\r%s %d done in %s (%.0f/s)\n",
		Green(pt.label), pt.processed, elapsed.Round(time.Millisecond), rate)
}
