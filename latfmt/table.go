// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latfmt reads tabular latency measurements.
//
// A dataset is a CSV file with a header row naming its columns and
// one row per trial. Column names vary by experiment; analyses name
// the columns they need and Table.Require reports any that are
// absent with a MissingColumnError.
package latfmt

import (
	"math"
	"strings"
)

// A Table is an ordered set of rows with named columns. Every row has
// exactly len(Columns) cells. Tables are not modified once loaded.
type Table struct {
	// Name identifies the table in errors and reports, typically
	// the file it was read from.
	Name string

	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable returns an empty Table with the given columns.
func NewTable(name string, columns ...string) *Table {
	t := &Table{Name: name, Columns: columns}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		c = strings.TrimSpace(c)
		t.Columns[i] = c
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
}

// AddRow appends a row. Short rows are padded with empty (missing)
// cells and long rows are truncated.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows in t.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column. An exact match is
// preferred; otherwise the first case-insensitive match is used.
func (t *Table) Column(name string) (int, bool) {
	if t.index == nil {
		t.buildIndex()
	}
	name = strings.TrimSpace(name)
	if i, ok := t.index[name]; ok {
		return i, true
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return -1, false
}

// Require checks that every named column is present, returning a
// *MissingColumnError for the first one that is not.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if _, ok := t.Column(name); !ok {
			return &MissingColumnError{Table: t.Name, Column: name}
		}
	}
	return nil
}

// Cell returns the raw text of column col in row i.
func (t *Table) Cell(i, col int) string {
	return t.Rows[i][col]
}

// Float parses column col of row i as a number. ok is false if the
// cell is missing or isn't a finite number.
func (t *Table) Float(i, col int) (v float64, ok bool) {
	cell := t.Rows[i][col]
	if IsMissing(cell) {
		return 0, false
	}
	v, err := ParseNum(cell)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
