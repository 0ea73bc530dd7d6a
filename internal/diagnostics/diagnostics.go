// Package diagnostics prints LythonError lists to stderr and renders the
// CLI's end-of-run summary line.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	lyerrors "github.com/lython/lython/internal/errors"
)

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Printer writes diagnostics to a stream, colorizing when that stream is
// an interactive terminal.
type Printer struct {
	out     io.Writer
	colored bool
}

// NewPrinter builds a Printer for w, detecting color support the way the
// teacher's REPL does: isatty on the underlying file descriptor.
func NewPrinter(w io.Writer) *Printer {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{out: w, colored: colored}
}

func (p *Printer) colorize(color, s string) string {
	if !p.colored {
		return s
	}
	return color + s + colorReset
}

// PrintErrors writes one line (plus source/stack context) per error.
func (p *Printer) PrintErrors(errs []*lyerrors.LythonError) {
	for _, e := range errs {
		fmt.Fprintln(p.out, p.colorize(colorRed, e.Error()))
	}
}

// PrintWarning writes a single non-fatal diagnostic.
func (p *Printer) PrintWarning(msg string) {
	fmt.Fprintln(p.out, p.colorize(colorYellow, "warning: "+msg))
}

// Summary is the CLI's post-run report: how much source was processed and
// how long the whole run took.
type Summary struct {
	File        string
	Lines       int
	Bytes       int
	Tokens      int
	Instructions int
	Elapsed     time.Duration
}

// PrintSummary renders a teacher-style one-line human-readable summary,
// e.g. "compiled 842 lines, 3.1 kB in 12ms (318 tokens, 96 instrs)".
func (p *Printer) PrintSummary(s Summary) {
	fmt.Fprintf(p.out, "compiled %s, %s in %s (%s, %d instrs)\n",
		humanize.Comma(int64(s.Lines))+" lines",
		humanize.Bytes(uint64(s.Bytes)),
		s.Elapsed.Round(time.Microsecond),
		humanize.Comma(int64(s.Tokens))+" tokens",
		s.Instructions,
	)
}
