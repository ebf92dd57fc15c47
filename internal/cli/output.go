// Package cli provides output formatting for complaintctl: colored status
// badges, tables and JSON/YAML rendering.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", raw)
	}
}

// Printer writes command results.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Format Format
	Color  bool
}

// NewPrinter writes to stdout/stderr, coloring only when stdout is a terminal.
func NewPrinter(format Format) *Printer {
	return &Printer{
		Out:    os.Stdout,
		Err:    os.Stderr,
		Format: format,
		Color:  isTerminal(os.Stdout),
	}
}

// Structured reports whether results are rendered as JSON or YAML.
func (p *Printer) Structured() bool {
	return p.Format == FormatJSON || p.Format == FormatYAML
}

// Render writes v as JSON or YAML. In text mode it falls back to YAML.
func (p *Printer) Render(v interface{}) error {
	switch p.Format {
	case FormatJSON:
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}

// Colorize wraps text in color when enabled.
func (p *Printer) Colorize(text, color string) string {
	if !p.Color || color == "" {
		return text
	}
	return color + text + ColorReset
}

// Bold highlights text.
func (p *Printer) Bold(text string) string {
	return p.Colorize(text, ColorBold)
}

// Success prints a success message
func (p *Printer) Success(message string) {
	fmt.Fprintf(p.Out, "%s %s\n", p.Colorize("✓", ColorGreen), message)
}

// Error prints an error message to the error stream.
func (p *Printer) Error(message string) {
	fmt.Fprintf(p.Err, "%s %s\n", p.Colorize("✗", ColorRed), message)
}

// Warning prints a warning message
func (p *Printer) Warning(message string) {
	fmt.Fprintf(p.Err, "%s %s\n", p.Colorize("⚠", ColorYellow), message)
}

// Info prints an info message
func (p *Printer) Info(message string) {
	fmt.Fprintf(p.Out, "%s %s\n", p.Colorize("ℹ", ColorBlue), message)
}

// Line prints one formatted line.
func (p *Printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Status renders a complaint status badge.
func (p *Printer) Status(status string) string {
	color := ""
	switch status {
	case "pending":
		color = ColorYellow
	case "reviewed":
		color = ColorCyan
	case "resolved":
		color = ColorGreen
	}
	return p.Colorize(status, color)
}

// Priority renders a priority label.
func (p *Printer) Priority(priority string) string {
	color := ""
	switch priority {
	case "urgent":
		color = ColorRed
	case "high":
		color = ColorPurple
	case "low":
		color = ColorBlue
	}
	return p.Colorize(priority, color)
}

// Table writes aligned columns. Rows shorter than the header are padded.
func (p *Printer) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		cells := make([]string, len(header))
		copy(cells, row)
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
