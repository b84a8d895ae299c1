package cascade

import (
	"fmt"
	"io"
)

const (
	pidFmt   = "pid: %d\n"
	enterFmt = "%s %d +\n"
	exitFmt  = "%s %d -\n"
)

type Tracer interface {
	Pid(pid int)
	Enter(name string, x int64)
	Exit(name string, x int64)
}

type nopTracer struct{}

func (nopTracer) Pid(int)             {}
func (nopTracer) Enter(string, int64) {}
func (nopTracer) Exit(string, int64)  {}

// LineTracer writes one plain line per event.
type LineTracer struct {
	W io.Writer
}

func NewLineTracer(w io.Writer) *LineTracer {
	return &LineTracer{W: w}
}

func (t *LineTracer) Pid(pid int) {
	fmt.Fprintf(t.W, pidFmt, pid)
}

func (t *LineTracer) Enter(name string, x int64) {
	fmt.Fprintf(t.W, enterFmt, name, x)
}

func (t *LineTracer) Exit(name string, x int64) {
	fmt.Fprintf(t.W, exitFmt, name, x)
}
