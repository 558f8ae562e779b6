package train

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// StderrReporter prints a single progress line per heartbeat, the Go
// equivalent of the reference's `printf("%cAlpha: %f  Progress: %.2f%% ...`
// carriage-return line — formatted with go-humanize's comma/SI helpers
// instead of hand-rolled number formatting, since nothing in the retrieved
// pack reaches for a structured logging library for this kind of ephemeral
// console output (see DESIGN.md / SPEC_FULL §4.9).
type StderrReporter struct {
	w          io.Writer
	trainWords uint64
	iterations int
}

// NewStderrReporter builds a reporter that prints against total expected
// work iterations*trainWords, matching the reference's progress percentage.
func NewStderrReporter(w io.Writer, trainWords uint64, iterations int) *StderrReporter {
	return &StderrReporter{w: w, trainWords: trainWords, iterations: iterations}
}

// Report implements Reporter.
func (r *StderrReporter) Report(hb Heartbeat) {
	total := uint64(r.iterations) * r.trainWords
	var pct float64
	if total > 0 {
		pct = float64(hb.TotalWordCount) / float64(total) * 100
	}
	fmt.Fprintf(r.w, "\rworker %d  alpha %.6f  progress %.2f%%  words %s",
		hb.WorkerID, hb.Alpha, pct, humanize.Comma(int64(hb.TotalWordCount)))
}
