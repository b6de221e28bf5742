package internal

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// OutputFormat selects how command results are written.
type OutputFormat string

const (
	// FormatText is aligned, colored output for terminals and CI logs.
	FormatText OutputFormat = "text"
	// FormatJSON is one JSON document per result.
	FormatJSON OutputFormat = "json"
)

// Formatter writes command results.
type Formatter interface {
	// Pass reports a check that passed.
	Pass(message string) error
	// Fail reports a check that failed.
	Fail(message string) error
	// Table writes rows under named columns.
	Table(t Table) error
	// JSON writes data as indented JSON regardless of format.
	JSON(data interface{}) error
}

// Table is a block of rows under named columns. Cells in the Tagged column hold vote
// tags or outcomes and are colored in text output.
type Table struct {
	Columns []string
	Rows    [][]string
	Tagged  string
}

// cell returns row[i], or "" for short rows.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// TagColor returns the color used for a vote tag or outcome in text output.
func TagColor(tag string) *color.Color {
	switch strings.ToUpper(tag) {
	case "APPROVE", "APPROVED":
		return color.New(color.FgGreen)
	case "REJECT", "REJECTED":
		return color.New(color.FgRed)
	case "ERROR":
		return color.New(color.FgRed, color.Bold)
	case "ABSTAIN", "NO_QUORUM":
		return color.New(color.FgYellow)
	case "DISABLED":
		return color.New(color.Faint)
	default:
		return color.New(color.Reset)
	}
}

// TextFormatter writes aligned, colored text.
type TextFormatter struct {
	w io.Writer
}

// NewTextFormatter creates a TextFormatter writing to w, or stdout when w is nil.
func NewTextFormatter(w io.Writer) *TextFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &TextFormatter{w: w}
}

func (f *TextFormatter) Pass(message string) error {
	_, err := passColor.Fprintf(f.w, "✓ %s\n", message)
	return err
}

func (f *TextFormatter) Fail(message string) error {
	_, err := failColor.Fprintf(f.w, "✗ %s\n", message)
	return err
}

// Table pads columns itself rather than using tabwriter, which would count color
// escape sequences as cell width.
func (f *TextFormatter) Table(t Table) error {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
		for _, row := range t.Rows {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell(row, i)))
		}
	}

	header := make([]string, len(t.Columns))
	rule := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = strings.ToUpper(c)
		rule[i] = strings.Repeat("-", widths[i])
	}

	var b strings.Builder
	f.writeRow(&b, widths, header, nil)
	f.writeRow(&b, widths, rule, nil)
	for _, row := range t.Rows {
		f.writeRow(&b, widths, row, func(i int) bool { return t.Columns[i] == t.Tagged })
	}

	_, err := io.WriteString(f.w, b.String())
	return err
}

func (f *TextFormatter) writeRow(b *strings.Builder, widths []int, row []string, tagged func(int) bool) {
	var line strings.Builder
	for i, w := range widths {
		if i > 0 {
			line.WriteString("  ")
		}
		value := cell(row, i)
		padded := value
		if i < len(widths)-1 {
			padded += strings.Repeat(" ", w-utf8.RuneCountInString(value))
		}
		if tagged != nil && tagged(i) {
			padded = TagColor(value).Sprint(padded)
		}
		line.WriteString(padded)
	}
	b.WriteString(strings.TrimRight(line.String(), " "))
	b.WriteByte('\n')
}

func (f *TextFormatter) JSON(data interface{}) error {
	return writeJSON(f.w, data)
}

// JSONFormatter writes every result as a JSON document.
type JSONFormatter struct {
	w io.Writer
}

// NewJSONFormatter creates a JSONFormatter writing to w, or stdout when w is nil.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONFormatter{w: w}
}

func (f *JSONFormatter) Pass(message string) error {
	return f.JSON(map[string]interface{}{"ok": true, "message": message})
}

func (f *JSONFormatter) Fail(message string) error {
	return f.JSON(map[string]interface{}{"ok": false, "message": message})
}

// Table writes the rows as a list of records keyed by column name.
func (f *JSONFormatter) Table(t Table) error {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[c] = cell(row, i)
		}
		records = append(records, rec)
	}
	return f.JSON(records)
}

func (f *JSONFormatter) JSON(data interface{}) error {
	return writeJSON(f.w, data)
}

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// NewFormatter returns the Formatter for format. Unknown formats fall back to text.
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	if format == FormatJSON {
		return NewJSONFormatter(w)
	}
	return NewTextFormatter(w)
}
