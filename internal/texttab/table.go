// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out fixed-width text tables.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Row and Cell return the Table so callers can chain them to build
// up a row at once.
type Table struct {
	rows  [][]cell
	align []Align
}

type cell struct {
	value string
	align Align
	set   bool
}

// Align is the horizontal alignment of a cell within its column.
type Align int

const (
	Left Align = iota
	Right
	Center
)

func (a Align) pad(s string, w int) string {
	gap := w - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	switch a {
	case Right:
		return strings.Repeat(" ", gap) + s
	case Center:
		return strings.Repeat(" ", gap/2) + s + strings.Repeat(" ", gap-gap/2)
	}
	return s + strings.Repeat(" ", gap)
}

// SetAlign sets the default alignment of column col.
func (t *Table) SetAlign(col int, a Align) *Table {
	for len(t.align) <= col {
		t.align = append(t.align, Left)
	}
	t.align[col] = a
	return t
}

// Row starts a new row.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	return t
}

// Cell appends a cell to the current row, starting a row if there is
// none. An optional alignment overrides the column default.
func (t *Table) Cell(value string, align ...Align) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	c := cell{value: value}
	if len(align) > 0 {
		c.align, c.set = align[0], true
	}
	last := len(t.rows) - 1
	t.rows[last] = append(t.rows[last], c)
	return t
}

// Cells appends one cell per value to the current row.
func (t *Table) Cells(values ...string) *Table {
	for _, v := range values {
		t.Cell(v)
	}
	return t
}

// Rule adds a row of dashes spanning each column.
func (t *Table) Rule() *Table {
	t.rows = append(t.rows, []cell{{value: "\x00rule"}})
	return t
}

func isRule(r []cell) bool {
	return len(r) == 1 && r[0].value == "\x00rule"
}

// Format lays out t and writes it to w. Columns are separated by two
// spaces. Trailing spaces are never written.
func (t *Table) Format(w io.Writer) error {
	var widths []int
	for _, r := range t.rows {
		if isRule(r) {
			continue
		}
		for i, c := range r {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(c.value))
		}
	}

	var b strings.Builder
	for _, r := range t.rows {
		b.Reset()
		if isRule(r) {
			for i, wd := range widths {
				if i > 0 {
					b.WriteString("  ")
				}
				b.WriteString(strings.Repeat("-", wd))
			}
		} else {
			for i, c := range r {
				if i > 0 {
					b.WriteString("  ")
				}
				a := c.align
				if !c.set && i < len(t.align) {
					a = t.align[i]
				}
				b.WriteString(a.pad(c.value, widths[i]))
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
