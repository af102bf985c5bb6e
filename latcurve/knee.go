// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latcurve

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/uarchlab/latstat/latmath"
)

// MinKneePoints is the shortest curve Detect accepts.
const MinKneePoints = 3

// Gradient returns the discrete derivative of y with respect to its
// index: central differences in the interior and one-sided
// differences at the two ends.
func Gradient(y []float64) []float64 {
	n := len(y)
	d := make([]float64, n)
	if n < 2 {
		return d
	}
	d[0] = y[1] - y[0]
	d[n-1] = y[n-1] - y[n-2]
	for i := 1; i < n-1; i++ {
		d[i] = (y[i+1] - y[i-1]) / 2
	}
	return d
}

// A TrimPolicy chooses the index window [lo, hi) searched for a
// knee in a curve of n points. Differencing and smoothing both
// distort the ends of a curve, so searches usually skip them.
type TrimPolicy interface {
	Window(n int) (lo, hi int)
	String() string
}

// TrimFraction skips the given fraction of indices at each end. If
// that leaves nothing to search, the full range is searched.
type TrimFraction float64

func (f TrimFraction) Window(n int) (lo, hi int) {
	k := int(math.Floor(float64(n)*float64(f) + 1e-9))
	lo, hi = k, n-k
	if hi <= lo {
		return 0, n
	}
	return lo, hi
}

func (f TrimFraction) String() string { return fmt.Sprintf("fraction(%g)", float64(f)) }

// TrimLeading skips the given number of leading points only. If
// that leaves nothing to search, the full range is searched.
type TrimLeading int

func (k TrimLeading) Window(n int) (lo, hi int) {
	if int(k) >= n || k < 0 {
		return 0, n
	}
	return int(k), n
}

func (k TrimLeading) String() string { return fmt.Sprintf("leading(%d)", int(k)) }

// TrimNone searches the full range.
type TrimNone struct{}

func (TrimNone) Window(n int) (lo, hi int) { return 0, n }

func (TrimNone) String() string { return "none" }

// DefaultTrim skips the first and last 10% of indices.
const DefaultTrim = TrimFraction(0.10)

// ParseTrim parses a trim policy: "none", "fraction" or
// "fraction=F", "leading" or "leading=N". The bare forms use 0.1 and
// 10 respectively.
func ParseTrim(s string) (TrimPolicy, error) {
	name, arg, hasArg := strings.Cut(s, "=")
	switch name {
	case "none":
		if !hasArg {
			return TrimNone{}, nil
		}
	case "", "fraction":
		if !hasArg {
			return DefaultTrim, nil
		}
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil || f < 0 || f >= 0.5 {
			return nil, fmt.Errorf("bad trim fraction %q (want 0 <= f < 0.5)", arg)
		}
		return TrimFraction(f), nil
	case "leading":
		if !hasArg {
			return TrimLeading(10), nil
		}
		k, err := strconv.Atoi(arg)
		if err != nil || k < 0 {
			return nil, fmt.Errorf("bad leading trim %q", arg)
		}
		return TrimLeading(k), nil
	}
	return nil, fmt.Errorf("unknown trim policy %q (want none, fraction[=F] or leading[=N])", s)
}

// A Selection says which second-derivative extreme marks the knee.
type Selection int

const (
	// MaxAbs selects the largest |d²y|, catching both convex and
	// concave transitions.
	MaxAbs Selection = iota

	// MaxPositive selects the largest signed d²y, the steepest
	// onset of growth.
	MaxPositive
)

func (s Selection) String() string {
	if s == MaxPositive {
		return "max"
	}
	return "maxabs"
}

// ParseSelection parses "maxabs" or "max".
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "", "maxabs":
		return MaxAbs, nil
	case "max":
		return MaxPositive, nil
	}
	return 0, fmt.Errorf("unknown knee selection %q (want maxabs or max)", s)
}

// A Detector locates a knee: the point of most extreme curvature.
//
// This is a heuristic, not an inflection-point solver. Its answer
// depends on the smoothing parameters and the density of samples,
// and on a curve with several knees it reports only the single
// strongest curvature change.
type Detector struct {
	// Smoother denoises y before differencing. Nil means no
	// smoothing.
	Smoother Smoother

	// Trim restricts the search window. Nil means DefaultTrim.
	Trim TrimPolicy

	Select Selection
}

// A Knee is the result of Detector.Detect.
type Knee struct {
	// Index is the position of the knee in the curve. X is
	// always the curve's X[Index], never an interpolated value.
	Index int
	X     float64

	// Y is the smoothed value at the knee and Raw the input value.
	Y, Raw float64

	Smoothed []float64
	D1, D2   []float64

	// Lo and Hi bound the index window that was searched: the
	// trim window, narrowed so that it excludes the points the
	// smoother computed from a partial window.
	Lo, Hi int

	// Flat is set if the second derivative is zero throughout the
	// window, in which case Index is simply Lo.
	Flat bool
}

// Detect finds the knee of c. It returns an error matching
// latmath.ErrInsufficientData if c has fewer than MinKneePoints
// points.
func (d *Detector) Detect(c Curve) (*Knee, error) {
	n := c.Len()
	if n < MinKneePoints {
		return nil, &latmath.InsufficientDataError{What: "knee detection", N: n, Need: MinKneePoints}
	}
	sm := d.Smoother
	if sm == nil {
		sm = NoSmoothing{}
	}
	trim := d.Trim
	if trim == nil {
		trim = DefaultTrim
	}

	k := &Knee{Smoothed: sm.Smooth(c.Y)}
	k.D1 = Gradient(k.Smoothed)
	k.D2 = Gradient(k.D1)
	k.Lo, k.Hi = trim.Window(n)
	if e, ok := sm.(EdgeWidther); ok {
		// Each differencing pass spreads an edge artifact by one
		// more point.
		if m := e.EdgeWidth(n); m > 0 {
			m += 2
			if lo, hi := max(k.Lo, m), min(k.Hi, n-m); lo < hi {
				k.Lo, k.Hi = lo, hi
			}
		}
	}

	best, bestV := -1, math.Inf(-1)
	for i := k.Lo; i < k.Hi; i++ {
		v := k.D2[i]
		if d.Select == MaxAbs {
			v = math.Abs(v)
		}
		// Strict > keeps the first index on ties.
		if v > bestV {
			best, bestV = i, v
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("knee detection: second derivative is not finite in [%d, %d)", k.Lo, k.Hi)
	}
	k.Flat = true
	for _, v := range k.D2[k.Lo:k.Hi] {
		if v != 0 {
			k.Flat = false
			break
		}
	}
	k.Index = best
	k.X = c.X[best]
	k.Y = k.Smoothed[best]
	k.Raw = c.Y[best]
	return k, nil
}
