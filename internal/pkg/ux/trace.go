package ux

import (
	"io"

	"github.com/fatih/color"
	"github.com/prequel-dev/sigcascade/internal/pkg/cascade"
)

// ColorTracer writes the same lines as cascade.LineTracer with the enter and
// exit markers colored.
type ColorTracer struct {
	w     io.Writer
	pid   *color.Color
	enter *color.Color
	exit  *color.Color
}

// NewTracer returns a plain tracer unless colored output is requested.
func NewTracer(w io.Writer, colored bool) cascade.Tracer {
	if !colored {
		return cascade.NewLineTracer(w)
	}
	return &ColorTracer{
		w:     w,
		pid:   color.New(color.FgHiBlue, color.Bold),
		enter: color.New(color.FgHiGreen),
		exit:  color.New(color.FgHiMagenta),
	}
}

func (t *ColorTracer) Pid(pid int) {
	t.pid.Fprintf(t.w, "pid: %d\n", pid)
}

func (t *ColorTracer) Enter(name string, x int64) {
	t.enter.Fprintf(t.w, "%s %d +\n", name, x)
}

func (t *ColorTracer) Exit(name string, x int64) {
	t.exit.Fprintf(t.w, "%s %d -\n", name, x)
}
