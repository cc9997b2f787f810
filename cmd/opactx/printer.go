package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"opactx/internal/build"
)

// printer renders build events as plain lines.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) observe(ev build.Event) {
	switch ev.Kind {
	case build.StageCompleted:
		mark := "ok"
		if ev.Status == build.StatusSkipped {
			mark = "skip"
		}

		p.line("%-4s %s (%s)", mark, build.Label(ev.Stage), round(ev.Duration))
	case build.StageFailed:
		p.line("FAIL %s [%s]", build.Label(ev.Stage), ev.Code)
		p.indent(strings.Split(ev.Message, "\n"))
	case build.SourceFetched:
		p.line("     source %s: %s (%d bytes)", ev.Name, ev.Note, ev.Size)
	case build.SourceFailed:
		p.line("     source %s: %s failed", ev.Name, ev.Note)
	case build.StepApplied:
		if ev.Status == build.StatusFailed {
			p.line("     step %s failed", ev.Name)
			return
		}

		p.line("     step %s (%s)", ev.Name, round(ev.Duration))
	case build.SchemaLoaded:
		p.line("     schema %s", ev.Path)
	case build.BundleWritten:
		p.line("     wrote %s: %s", ev.Path, strings.Join(ev.Details, ", "))
	}
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) indent(lines []string) {
	for _, l := range lines {
		p.line("       %s", l)
	}
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
