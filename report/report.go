// Package report renders benchmark case results. Every renderer is a
// harness.Sink and receives results as the run produces them.
package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/weiihann/setbench/harness"
)

type column struct {
	name  string
	width int
}

var columns = [...]column{
	{"Size", 10},
	{"Type", 14},
	{"Family", 8},
	{"Struct", 22},
	{"Test", 18},
	{"Mrps", 13},
	{"MB use", 13},
	{"Bytes/elem", 13},
	{"MB leak", 13},
	{"Check", 10},
}

// Table streams results as a fixed-width text table with centered cells.
// The header is written before the first row and the closing border by
// Done, so an empty run prints nothing.
type Table struct {
	w    io.Writer
	open bool
}

var _ harness.Sink = (*Table)(nil)

func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

// Report writes one row, preceded by the header if this is the first row
// since the last Done.
func (t *Table) Report(res harness.CaseResult) error {
	var b strings.Builder

	if !t.open {
		border(&b)
		header(&b)
		border(&b)
	}

	row(&b, [len(columns)]string{
		strconv.Itoa(res.Size),
		res.TypeName,
		res.Family,
		res.Struct,
		res.Test,
		decimal(res.BestMops),
		decimal(mebibytes(res.PeakBytes)),
		decimal(res.BytesPerElem),
		decimal(mebibytes(res.LeakBytes)),
		strconv.Itoa(res.SideEffect),
	})

	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return err
	}
	t.open = true

	return nil
}

// Done closes the table if any row was written.
func (t *Table) Done() error {
	if !t.open {
		return nil
	}
	t.open = false

	var b strings.Builder
	border(&b)
	_, err := io.WriteString(t.w, b.String())

	return err
}

func border(b *strings.Builder) {
	b.WriteByte('+')
	for _, c := range columns {
		b.WriteString(strings.Repeat("-", c.width))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
}

func header(b *strings.Builder) {
	var names [len(columns)]string
	for i, c := range columns {
		names[i] = c.name
	}
	row(b, names)
}

func row(b *strings.Builder, cells [len(columns)]string) {
	b.WriteByte('|')
	for i, c := range columns {
		b.WriteString(center(cells[i], c.width))
		b.WriteByte('|')
	}
	b.WriteByte('\n')
}

// center pads s to width, putting the odd space on the left. Text wider
// than the column is written as is.
func center(s string, width int) string {
	gap := width - len(s)
	if gap <= 0 {
		return s
	}

	left := (gap + 1) / 2

	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func mebibytes(n int64) float64 {
	return float64(n) / 1024 / 1024
}
