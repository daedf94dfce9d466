// Package ui renders user-facing terminal output. Diagnostics go through
// zerolog; everything an operator is meant to read goes through a Printer.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen  = lipgloss.Color("2")
	colorRed    = lipgloss.Color("1")
	colorYellow = lipgloss.Color("3")
	colorBlue   = lipgloss.Color("4")
	colorPurple = lipgloss.Color("5")
	colorCyan   = lipgloss.Color("6")

	successStyle = lipgloss.NewStyle().Foreground(colorGreen)
	failureStyle = lipgloss.NewStyle().Foreground(colorRed)
	stepStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	infoStyle    = lipgloss.NewStyle().Foreground(colorBlue)
	noteStyle    = lipgloss.NewStyle().Foreground(colorCyan)
	rulerStyle   = lipgloss.NewStyle().Foreground(colorPurple)
)

// Printer writes styled lines to a single destination.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer { return &Printer{w: w} }

// Success prints a green check line.
func (p *Printer) Success(format string, a ...any) {
	fmt.Fprintf(p.w, "%s %s\n", successStyle.Render("✓"), fmt.Sprintf(format, a...))
}

// Failure prints a red cross line.
func (p *Printer) Failure(format string, a ...any) {
	fmt.Fprintf(p.w, "%s %s\n", failureStyle.Render("✗"), fmt.Sprintf(format, a...))
}

// Step prints a yellow arrow line for an action in progress.
func (p *Printer) Step(format string, a ...any) {
	fmt.Fprintf(p.w, "%s %s\n", stepStyle.Render("→"), fmt.Sprintf(format, a...))
}

// Warn prints a yellow warning line.
func (p *Printer) Warn(format string, a ...any) {
	fmt.Fprintf(p.w, "%s %s\n", stepStyle.Render("⚠"), fmt.Sprintf(format, a...))
}

// Info prints a blue informational line.
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintln(p.w, infoStyle.Render(fmt.Sprintf(format, a...)))
}

// Note prints a cyan heading line.
func (p *Printer) Note(format string, a ...any) {
	fmt.Fprintln(p.w, noteStyle.Render(fmt.Sprintf(format, a...)))
}

// Banner prints a title with an underline ruler matching its width.
func (p *Printer) Banner(title string) {
	fmt.Fprintln(p.w, infoStyle.Render(title))
	fmt.Fprintln(p.w, strings.Repeat("=", len([]rune(title))))
}

// Ruler prints a purple separator line.
func (p *Printer) Ruler() {
	fmt.Fprintln(p.w, rulerStyle.Render(strings.Repeat("=", 39)))
}

// Printf writes unstyled formatted output.
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}

// Raw writes provider output verbatim with a trailing newline.
func (p *Printer) Raw(s string) {
	fmt.Fprintln(p.w, s)
}
