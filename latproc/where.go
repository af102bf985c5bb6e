// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latproc

import (
	"fmt"
	"math"
	"strings"

	"github.com/uarchlab/latstat/latfmt"
)

// A Range selects rows whose numeric value in Column lies in the
// closed interval [Lo, Hi]. Rows where the column is missing or not
// numeric are not selected.
type Range struct {
	Column string
	Lo, Hi float64
}

// ParseRange parses a range predicate of the form "col<=v",
// "col>=v", "col=v" or "col=lo..hi". Values accept size suffixes.
func ParseRange(s string) (Range, error) {
	for _, op := range []string{"<=", ">=", "="} {
		col, val, ok := strings.Cut(s, op)
		if !ok {
			continue
		}
		r := Range{Column: strings.TrimSpace(col), Lo: math.Inf(-1), Hi: math.Inf(1)}
		if r.Column == "" {
			return Range{}, fmt.Errorf("range %q: missing column", s)
		}
		switch op {
		case "<=":
			v, err := latfmt.ParseNum(val)
			if err != nil {
				return Range{}, fmt.Errorf("range %q: bad value %q", s, val)
			}
			r.Hi = v
		case ">=":
			v, err := latfmt.ParseNum(val)
			if err != nil {
				return Range{}, fmt.Errorf("range %q: bad value %q", s, val)
			}
			r.Lo = v
		case "=":
			lo, hi, isSpan := strings.Cut(val, "..")
			if !isSpan {
				hi = lo
			}
			var err1, err2 error
			r.Lo, err1 = latfmt.ParseNum(lo)
			r.Hi, err2 = latfmt.ParseNum(hi)
			if err1 != nil || err2 != nil {
				return Range{}, fmt.Errorf("range %q: bad bounds %q", s, val)
			}
		}
		return r, nil
	}
	return Range{}, fmt.Errorf("range %q: want col<=v, col>=v or col=lo..hi", s)
}

func (r Range) String() string {
	switch {
	case math.IsInf(r.Lo, -1):
		return fmt.Sprintf("%s<=%g", r.Column, r.Hi)
	case math.IsInf(r.Hi, 1):
		return fmt.Sprintf("%s>=%g", r.Column, r.Lo)
	}
	return fmt.Sprintf("%s=%g..%g", r.Column, r.Lo, r.Hi)
}

// rangeFilter is a compiled set of Ranges over a Table.
type rangeFilter struct {
	cols   []int
	ranges []Range
}

func compileRanges(t *latfmt.Table, ranges []Range) (*rangeFilter, error) {
	f := &rangeFilter{ranges: ranges}
	for _, r := range ranges {
		col, ok := t.Column(r.Column)
		if !ok {
			return nil, &latfmt.MissingColumnError{Table: t.Name, Column: r.Column}
		}
		f.cols = append(f.cols, col)
	}
	return f, nil
}

func (f *rangeFilter) match(t *latfmt.Table, row int) bool {
	for i, r := range f.ranges {
		v, ok := t.Float(row, f.cols[i])
		if !ok || v < r.Lo || v > r.Hi {
			return false
		}
	}
	return true
}
