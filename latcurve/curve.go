// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latcurve smooths ordered latency curves and locates the
// knee where a curve's growth rate changes most sharply, such as the
// working-set size at which accesses spill out of a cache level or
// the instruction count at which the reorder buffer fills.
package latcurve

import (
	"fmt"
	"math"
)

// A Curve is an ordered sequence of (x, y) points with strictly
// increasing x.
type Curve struct {
	X, Y []float64
}

// NewCurve returns a Curve over copies of x and y. It reports an
// error if the lengths differ, any value is not finite, or x is not
// strictly increasing. Duplicate x values must be merged before a
// Curve is built.
func NewCurve(x, y []float64) (Curve, error) {
	if len(x) != len(y) {
		return Curve{}, fmt.Errorf("curve: %d x values but %d y values", len(x), len(y))
	}
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			return Curve{}, fmt.Errorf("curve: point %d (%v, %v) is not finite", i, x[i], y[i])
		}
		if i > 0 && x[i] <= x[i-1] {
			return Curve{}, fmt.Errorf("curve: x not strictly increasing at index %d (%v after %v)", i, x[i], x[i-1])
		}
	}
	return Curve{
		X: append([]float64(nil), x...),
		Y: append([]float64(nil), y...),
	}, nil
}

// Len returns the number of points in c.
func (c Curve) Len() int {
	return len(c.X)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// A Jump is a step between adjacent points where y grows by more
// than a given ratio, typically a cache-level transition.
type Jump struct {
	Index      int // index of the upper point
	FromX, ToX float64
	FromY, ToY float64
	Ratio      float64
}

// Jumps returns every adjacent pair of points where Y[i]/Y[i-1]
// exceeds ratio. Points with a non-positive predecessor are skipped.
func Jumps(c Curve, ratio float64) []Jump {
	var out []Jump
	for i := 1; i < c.Len(); i++ {
		prev := c.Y[i-1]
		if prev <= 0 {
			continue
		}
		if r := c.Y[i] / prev; r > ratio {
			out = append(out, Jump{
				Index: i,
				FromX: c.X[i-1], ToX: c.X[i],
				FromY: prev, ToY: c.Y[i],
				Ratio: r,
			})
		}
	}
	return out
}
