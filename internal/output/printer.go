// Package output formats command-line output: coloured status lines and
// plain tables.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes status lines, coloured when enabled.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer on stdout and stderr. NO_COLOR and a dumb
// terminal switch colours off.
func NewPrinter(useColors bool) *Printer {
	if _, ok := os.LookupEnv("NO_COLOR"); ok || os.Getenv("TERM") == "dumb" {
		useColors = false
	}
	return NewPrinterTo(os.Stdout, os.Stderr, useColors)
}

// NewPrinterTo creates a printer on the given writers.
func NewPrinterTo(out, errOut io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: errOut, useColors: useColors}
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	if p.useColors {
		_, _ = color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		_, _ = color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		_, _ = color.New(color.FgRed).Fprintf(p.err, "✗ "+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

// Header prints a section header
func (p *Printer) Header(title string) {
	if p.useColors {
		_, _ = color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		return
	}
	_, _ = fmt.Fprintf(p.out, "\n%s\n", title)
}

// Status renders a success flag as a short badge.
func (p *Printer) Status(ok bool) string {
	switch {
	case ok && p.useColors:
		return color.GreenString("ok")
	case ok:
		return "ok"
	case p.useColors:
		return color.RedString("failed")
	default:
		return "failed"
	}
}
