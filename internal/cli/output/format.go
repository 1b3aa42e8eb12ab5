// Package output renders CLI results as tables, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format is an output format selected with -o.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a -o value. The empty string selects a table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// Printer writes command results in one format.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a Printer. color enables ANSI colors for status lines.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{out: out, format: format, color: color}
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Print writes data in the printer's format. Tables require a TableRenderer;
// other values fall back to JSON.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Println writes a plain line.
func (p *Printer) Println(a ...any) {
	_, _ = fmt.Fprintln(p.out, a...)
}

// Printf writes formatted plain text.
func (p *Printer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.out, format, a...)
}

// Success prints a status line for a completed action.
func (p *Printer) Success(msg string) {
	p.status(colorGreen, msg)
}

// Warning prints a status line for a skipped or partial action.
func (p *Printer) Warning(msg string) {
	p.status(colorYellow, msg)
}

func (p *Printer) status(color, msg string) {
	if p.color {
		_, _ = fmt.Fprintf(p.out, "%s%s%s\n", color, msg, colorReset)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}
