// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latcurve

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// A Smoother produces a denoised copy of an ordered sequence. The
// result always has the same length as the input and never contains
// NaN for finite input.
type Smoother interface {
	Smooth(y []float64) []float64
	String() string
}

// An EdgeWidther is a Smoother that reports how many points at each
// end of a sequence of n points it computes without a full window.
type EdgeWidther interface {
	EdgeWidth(n int) int
}

// An EdgePolicy says what a windowed smoother does with the points
// within half a window of either end, where no full window exists.
type EdgePolicy int

const (
	// EdgeShrink uses whatever part of the window is available.
	// For a moving average, the window is clipped to the data; for
	// Savitzky-Golay, the polynomial fitted to the first (or last)
	// full window is evaluated at the edge positions.
	EdgeShrink EdgePolicy = iota

	// EdgeRaw leaves edge points at their raw value.
	EdgeRaw
)

func (p EdgePolicy) String() string {
	switch p {
	case EdgeShrink:
		return "shrink"
	case EdgeRaw:
		return "raw"
	}
	return fmt.Sprintf("EdgePolicy(%d)", int(p))
}

// ParseEdgePolicy parses "shrink" or "raw".
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch s {
	case "", "shrink":
		return EdgeShrink, nil
	case "raw":
		return EdgeRaw, nil
	}
	return 0, fmt.Errorf("unknown edge policy %q (want shrink or raw)", s)
}

// NoSmoothing returns its input unchanged.
type NoSmoothing struct{}

func (NoSmoothing) Smooth(y []float64) []float64 {
	return append([]float64(nil), y...)
}

func (NoSmoothing) String() string { return "none" }

// A MovingAverage is a centered rolling mean. For an even Window,
// the window at index i covers [i-Window/2, i+Window/2-1].
type MovingAverage struct {
	// Window is the number of points averaged. If Window <= 0,
	// it is chosen as max(1, len(y)/20).
	Window int
	Edge   EdgePolicy
}

// AutoWindow returns the window a MovingAverage with Window <= 0
// uses for n points.
func AutoWindow(n int) int {
	return max(1, n/20)
}

func (m MovingAverage) Smooth(y []float64) []float64 {
	n := len(y)
	w := m.Window
	if w <= 0 {
		w = AutoWindow(n)
	}
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	// Prefix sums make each window O(1).
	prefix := make([]float64, n+1)
	for i, v := range y {
		prefix[i+1] = prefix[i] + v
	}
	for i := range y {
		lo := i - w/2
		hi := lo + w - 1
		if lo < 0 || hi >= n {
			if m.Edge == EdgeRaw {
				out[i] = y[i]
				continue
			}
			lo, hi = max(lo, 0), min(hi, n-1)
		}
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(hi-lo+1)
	}
	return out
}

// EdgeWidth returns the number of points at the start of n that
// lack a full window. The tail has at most as many.
func (m MovingAverage) EdgeWidth(n int) int {
	w := m.Window
	if w <= 0 {
		w = AutoWindow(n)
	}
	return min(w/2, n)
}

func (m MovingAverage) String() string {
	if m.Window <= 0 {
		return fmt.Sprintf("mean(auto, %s)", m.Edge)
	}
	return fmt.Sprintf("mean(%d, %s)", m.Window, m.Edge)
}

// A SavitzkyGolay smoother fits a polynomial of degree Degree by
// least squares to each window of Window points and replaces the
// center point by the fitted value. It follows sharp features more
// closely than a moving average of the same width.
//
// Sequences no longer than Window are returned unchanged.
type SavitzkyGolay struct {
	Window int // odd; even values are rounded up
	Degree int // < Window
	Edge   EdgePolicy
}

// DefaultSavitzkyGolay is the window/degree pair used for reorder
// buffer sweeps.
var DefaultSavitzkyGolay = SavitzkyGolay{Window: 11, Degree: 3}

// Validate checks that s describes a usable filter.
func (s SavitzkyGolay) Validate() error {
	w := s.window()
	if w < 3 {
		return fmt.Errorf("savitzky-golay: window %d too small", s.Window)
	}
	if s.Degree < 0 || s.Degree >= w {
		return fmt.Errorf("savitzky-golay: degree %d must be in [0, %d)", s.Degree, w)
	}
	return nil
}

func (s SavitzkyGolay) window() int {
	if s.Window%2 == 0 {
		return s.Window + 1
	}
	return s.Window
}

func (s SavitzkyGolay) Smooth(y []float64) []float64 {
	n, w := len(y), s.window()
	out := append([]float64(nil), y...)
	if s.Validate() != nil || n <= w {
		return out
	}
	h := projection(w, s.Degree)
	half := w / 2

	apply := func(row, start int) float64 {
		var sum float64
		for j := 0; j < w; j++ {
			sum += h.At(row, j) * y[start+j]
		}
		return sum
	}
	for i := half; i < n-half; i++ {
		out[i] = apply(half, i-half)
	}
	if s.Edge == EdgeShrink {
		for i := 0; i < half; i++ {
			out[i] = apply(i, 0)
			out[n-1-i] = apply(w-1-i, n-w)
		}
	}
	return out
}

func (s SavitzkyGolay) EdgeWidth(n int) int {
	w := s.window()
	if s.Validate() != nil || n <= w {
		return 0
	}
	return w / 2
}

func (s SavitzkyGolay) String() string {
	return fmt.Sprintf("savgol(%d, %d, %s)", s.window(), s.Degree, s.Edge)
}

// projection returns the w×w hat matrix J(JᵀJ)⁻¹Jᵀ of a degree-d
// polynomial least-squares fit over w equally spaced points. Row i
// gives the weights producing the fitted value at position i.
func projection(w, d int) *mat.Dense {
	half := float64(w / 2)
	j := mat.NewDense(w, d+1, nil)
	for i := 0; i < w; i++ {
		// Scale positions to [-1, 1] to keep JᵀJ well conditioned.
		t := (float64(i) - half) / half
		for k := 0; k <= d; k++ {
			j.Set(i, k, math.Pow(t, float64(k)))
		}
	}
	var jtj, inv, tmp, h mat.Dense
	jtj.Mul(j.T(), j)
	if err := inv.Inverse(&jtj); err != nil {
		// A singular JᵀJ needs d >= w, which Validate rules
		// out. Poor conditioning is tolerable.
		if _, ok := err.(mat.Condition); !ok {
			panic(err)
		}
	}
	tmp.Mul(j, &inv)
	h.Mul(&tmp, j.T())
	return &h
}
