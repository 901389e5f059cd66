package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
	"yandl/pkg/progress"
)

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewReporter picks a progress reporter for w: a live bar on terminals,
// start and finish lines otherwise, nothing when disabled.
func NewReporter(w io.Writer, enabled bool) progress.Reporter {
	if !enabled {
		return progress.Nop{}
	}
	if IsTerminal(w) {
		return NewBarReporter(w)
	}
	return NewLineReporter(w)
}

// BarReporter draws a progress bar per stage
type BarReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBarReporter creates a BarReporter writing to w
func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{w: w}
}

func (r *BarReporter) Start(c progress.Counter) {
	r.bar = progressbar.NewOptions(c.Total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(c.Label),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (r *BarReporter) Update(c progress.Counter) {
	if r.bar == nil {
		r.Start(c)
	}
	r.bar.Set(c.Completed)
}

func (r *BarReporter) Finish(c progress.Counter) {
	if r.bar == nil {
		return
	}
	r.bar.Set(c.Completed)
	r.bar.Finish()
	fmt.Fprintln(r.w)
	r.bar = nil
}

// LineReporter prints one line when a stage starts and one when it ends
type LineReporter struct {
	w io.Writer
}

// NewLineReporter creates a LineReporter writing to w
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (r *LineReporter) Start(c progress.Counter) {
	fmt.Fprintf(r.w, "%s: 0/%d\n", c.Label, c.Total)
}

func (r *LineReporter) Update(progress.Counter) {}

func (r *LineReporter) Finish(c progress.Counter) {
	state := "done"
	if !c.Done() {
		state = "stopped"
	}
	fmt.Fprintf(r.w, "%s: %d/%d %s\n", c.Label, c.Completed, c.Total, state)
}
