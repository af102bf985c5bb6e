// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latproc partitions tabular measurements into groups that
// share an experimental condition and summarizes each group.
//
// An Aggregator names the key columns that define a group (working-set
// size, stride, access pattern, ...) and the value column holding the
// measurement. Each group is filtered for outliers independently and
// summarized with latmath. Groups are returned in a deterministic
// order given by per-column Orders.
package latproc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/uarchlab/latstat/latfmt"
	"github.com/uarchlab/latstat/latmath"
)

// An Aggregator describes how to partition and summarize a Table.
type Aggregator struct {
	// Keys are the group-key columns. With no keys, the whole
	// table forms a single group.
	Keys []string

	// Value is the measurement column.
	Value string

	// Filter enables sigma-band outlier rejection within each
	// group, using Sigma as the deviation multiplier.
	Filter bool
	Sigma  float64

	// Orders gives the sort order of each key column. Columns
	// without an entry use NumericOrder.
	Orders map[string]Order

	// Where restricts the rows considered.
	Where []Range

	// Workers bounds the number of groups summarized
	// concurrently. Values <= 1 summarize sequentially.
	Workers int
}

// A Group is one partition of the input.
type Group struct {
	// Key holds the group's value for each key column, in the
	// order of Aggregator.Keys. Numeric values are canonicalized,
	// so "16K" and "16384" form the same group.
	Key []string

	// Raw holds the group's samples in input order.
	Raw latmath.SampleSet

	// Summary describes the group after outlier rejection.
	Summary latmath.Summary
}

// KeyString returns the group key as space-separated col:value pairs.
func (g *Group) KeyString(cols []string) string {
	var b strings.Builder
	for i, v := range g.Key {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i < len(cols) {
			b.WriteString(cols[i])
			b.WriteByte(':')
		}
		b.WriteString(v)
	}
	return b.String()
}

// X returns the group's first key parsed as a number.
func (g *Group) X() (float64, bool) {
	if len(g.Key) == 0 {
		return 0, false
	}
	v, err := latfmt.ParseNum(g.Key[0])
	return v, err == nil
}

// An Aggregate is the result of Aggregator.Aggregate.
type Aggregate struct {
	Keys   []string
	Value  string
	Groups []*Group

	// Warnings lists rows that could not be used.
	Warnings []error
}

// RawCount returns the number of samples across all groups.
func (a *Aggregate) RawCount() int {
	n := 0
	for _, g := range a.Groups {
		n += g.Summary.RawCount
	}
	return n
}

// KeptCount returns the number of samples that survived outlier
// rejection across all groups.
func (a *Aggregate) KeptCount() int {
	n := 0
	for _, g := range a.Groups {
		n += g.Summary.KeptCount
	}
	return n
}

// Rejected returns the total number of samples removed as outliers.
func (a *Aggregate) Rejected() int {
	return a.RawCount() - a.KeptCount()
}

// Aggregate partitions t and summarizes each group. It returns a
// *latfmt.MissingColumnError if a key, value or range column is
// absent.
func (ag *Aggregator) Aggregate(t *latfmt.Table) (*Aggregate, error) {
	if err := t.Require(ag.Value); err != nil {
		return nil, err
	}
	if err := t.Require(ag.Keys...); err != nil {
		return nil, err
	}
	where, err := compileRanges(t, ag.Where)
	if err != nil {
		return nil, err
	}

	valCol, _ := t.Column(ag.Value)
	keyCols := make([]int, len(ag.Keys))
	orders := make([]Order, len(ag.Keys))
	for i, k := range ag.Keys {
		keyCols[i], _ = t.Column(k)
		orders[i] = NumericOrder
		if o := ag.Orders[k]; o != nil {
			orders[i] = o
		}
	}

	agg := &Aggregate{Keys: ag.Keys, Value: ag.Value}
	index := make(map[string]*Group)
	values := make(map[*Group][]float64)
	var missingKey, badValue int
	for row := range t.Rows {
		if !where.match(t, row) {
			continue
		}
		key, ok := rowKey(t, row, keyCols)
		if !ok {
			missingKey++
			continue
		}
		v, ok := t.Float(row, valCol)
		if !ok {
			badValue++
			continue
		}
		id := strings.Join(key, "\x00")
		g := index[id]
		if g == nil {
			g = &Group{Key: key}
			index[id] = g
			agg.Groups = append(agg.Groups, g)
		}
		values[g] = append(values[g], v)
	}
	if missingKey > 0 {
		agg.Warnings = append(agg.Warnings, fmt.Errorf("%s: skipped %d rows with a missing group key", t.Name, missingKey))
	}
	if badValue > 0 {
		agg.Warnings = append(agg.Warnings, fmt.Errorf("%s: skipped %d rows with a missing or non-numeric %q", t.Name, badValue, ag.Value))
	}

	sort.SliceStable(agg.Groups, func(i, j int) bool {
		return less(orders, agg.Groups[i].Key, agg.Groups[j].Key)
	})
	for _, g := range agg.Groups {
		g.Raw = latmath.SampleSet{Values: values[g]}
	}

	summarize := func(g *Group) {
		g.Summary = latmath.Summarize(g.Raw, ag.Sigma, ag.Filter)
	}
	if ag.Workers > 1 && len(agg.Groups) > 1 {
		// Each task writes only its own Group.
		p := pool.New().WithMaxGoroutines(ag.Workers)
		for _, g := range agg.Groups {
			g := g
			p.Go(func() { summarize(g) })
		}
		p.Wait()
	} else {
		for _, g := range agg.Groups {
			summarize(g)
		}
	}
	return agg, nil
}

// rowKey extracts and canonicalizes the key tuple of a row.
func rowKey(t *latfmt.Table, row int, cols []int) ([]string, bool) {
	key := make([]string, len(cols))
	for i, col := range cols {
		cell := strings.TrimSpace(t.Cell(row, col))
		if latfmt.IsMissing(cell) {
			return nil, false
		}
		if v, ok := t.Float(row, col); ok {
			cell = strconv.FormatFloat(v, 'f', -1, 64)
		}
		key[i] = cell
	}
	return key, true
}
