package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Table writes column-aligned output. Headers and a dash divider are written
// on the first Row, so an empty table prints nothing.
type Table struct {
	w       *tabwriter.Writer
	headers []string
	prefix  string
	written bool
}

// NewTable creates a table on stdout with the given column headers.
func NewTable(headers ...string) *Table {
	return NewTableTo(os.Stdout, headers...)
}

// NewTableTo creates a table writing to out.
func NewTableTo(out io.Writer, headers ...string) *Table {
	return &Table{
		w:       tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		headers: headers,
	}
}

// WithPrefix sets a string prepended to every line.
func (t *Table) WithPrefix(prefix string) *Table {
	t.prefix = prefix
	return t
}

// Row writes one row.
func (t *Table) Row(values ...string) {
	if !t.written {
		t.written = true
		t.line(t.headers)
		dividers := make([]string, len(t.headers))
		for i, h := range t.headers {
			dividers[i] = strings.Repeat("-", len(h))
		}
		t.line(dividers)
	}
	t.line(values)
}

func (t *Table) line(cells []string) {
	fmt.Fprintln(t.w, t.prefix+strings.Join(cells, "\t"))
}

// Flush writes buffered output.
func (t *Table) Flush() {
	if t.written {
		t.w.Flush()
	}
}
