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

// An Order compares two group-key values. It returns a negative
// number if a sorts before b, a positive number if after, and 0 if
// they are unordered.
type Order func(a, b string) int

// NumericOrder sorts values numerically, understanding size
// suffixes such as "32K". Numbers sort before non-numbers, which
// sort among themselves alphabetically.
func NumericOrder(a, b string) int {
	aa, erra := latfmt.ParseNum(a)
	bb, errb := latfmt.ParseNum(b)
	if erra == nil && errb == nil {
		// Sort numerically, and put NaNs after other values.
		if aa < bb || (!math.IsNaN(aa) && math.IsNaN(bb)) {
			return -1
		}
		if aa > bb || (math.IsNaN(aa) && !math.IsNaN(bb)) {
			return 1
		}
		return 0
	}
	if erra != nil && errb != nil {
		return strings.Compare(a, b)
	}
	// Put numbers before non-numbers.
	if erra == nil {
		return -1
	}
	return 1
}

// AlphaOrder sorts values as strings.
func AlphaOrder(a, b string) int {
	return strings.Compare(a, b)
}

// FixedOrder returns an Order that sorts the given categories in the
// order listed, for example "sequential", "random", "stride". Values
// not listed sort after all listed values, alphabetically.
func FixedOrder(categories ...string) Order {
	rank := make(map[string]int, len(categories))
	for i, c := range categories {
		if _, ok := rank[c]; !ok {
			rank[c] = i
		}
	}
	return func(a, b string) int {
		ra, oka := rank[a]
		rb, okb := rank[b]
		switch {
		case oka && okb:
			return ra - rb
		case oka:
			return -1
		case okb:
			return 1
		}
		return strings.Compare(a, b)
	}
}

// ParseOrder parses an order specification: "num", "alpha", or a
// comma-separated list of categories for a FixedOrder.
func ParseOrder(spec string) (Order, error) {
	switch spec {
	case "", "num":
		return NumericOrder, nil
	case "alpha":
		return AlphaOrder, nil
	}
	cats := strings.Split(spec, ",")
	for i, c := range cats {
		cats[i] = strings.TrimSpace(c)
		if cats[i] == "" {
			return nil, fmt.Errorf("empty category in order %q", spec)
		}
	}
	return FixedOrder(cats...), nil
}

// less compares two key tuples under per-column orders. Values that
// an Order considers equal but that differ as strings fall back to a
// string comparison so that the result is a total order.
func less(orders []Order, a, b []string) bool {
	for i, order := range orders {
		aa, bb := a[i], b[i]
		if aa == bb {
			continue
		}
		if cmp := order(aa, bb); cmp != 0 {
			return cmp < 0
		}
		return aa < bb
	}
	return false
}
