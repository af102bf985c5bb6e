// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latmath

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/mathx"
	"github.com/aclements/go-moremath/stats"
)

// ErrInsufficientData reports that a group or curve has too few
// samples for a requested statistic. It is never fatal to an
// analysis; it appears in Warnings lists.
var ErrInsufficientData = errors.New("insufficient data")

// An InsufficientDataError describes which statistic could not be
// computed and why. It matches ErrInsufficientData with errors.Is.
type InsufficientDataError struct {
	What string // statistic or operation, e.g. "std"
	N    int    // samples available
	Need int    // samples required
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %s needs %d samples, have %d", ErrInsufficientData, e.What, e.Need, e.N)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// A Summary holds the statistics of one group after optional outlier
// rejection. Mean, Std, Median, P25, P75, Min and Max describe the
// kept samples.
type Summary struct {
	RawCount  int
	KeptCount int

	Mean, Std float64
	Median    float64
	P25, P75  float64
	Min, Max  float64

	// Degenerate is set when the raw group had zero standard
	// deviation, so filtering was a no-op.
	Degenerate bool

	// Warnings is a list of warnings about this summary that
	// should be reported to the user.
	Warnings []error
}

// Rejected returns the number of samples removed by outlier
// rejection.
func (s *Summary) Rejected() int {
	return s.RawCount - s.KeptCount
}

// Summarize filters raw with the given sigma (if filter is set) and
// computes the statistics of the remaining samples.
func Summarize(raw SampleSet, sigma float64, filter bool) Summary {
	kept := raw
	if filter {
		kept = raw.Filter(sigma)
	}
	s := Describe(kept)
	s.RawCount = raw.Len()
	if raw.Len() >= 2 {
		if _, std := raw.MeanStd(); std == 0 {
			s.Degenerate = true
		}
	}
	return s
}

// Describe computes the statistics of s without any filtering.
//
// Undefined statistics are NaN: everything for an empty set, and
// the standard deviation for a single sample. Each case adds an
// InsufficientDataError to Warnings.
func Describe(s SampleSet) Summary {
	sum := Summary{RawCount: s.Len(), KeptCount: s.Len()}
	nan := math.NaN()
	if s.Len() == 0 {
		sum.Mean, sum.Std, sum.Median, sum.P25, sum.P75, sum.Min, sum.Max = nan, nan, nan, nan, nan, nan, nan
		sum.Warnings = append(sum.Warnings, &InsufficientDataError{What: "mean", N: 0, Need: 1})
		return sum
	}

	sorted := append([]float64(nil), s.Values...)
	sort.Float64s(sorted)

	sum.Mean, sum.Std = s.MeanStd()
	if s.Len() < 2 {
		sum.Warnings = append(sum.Warnings, &InsufficientDataError{What: "std", N: s.Len(), Need: 2})
	}
	sum.Min, sum.Max = stats.Bounds(sorted)
	sum.Median = Percentile(sorted, 0.5)
	sum.P25 = Percentile(sorted, 0.25)
	sum.P75 = Percentile(sorted, 0.75)
	return sum
}

// Percentile returns the p-quantile of the ascending slice sorted,
// interpolating linearly between the two closest ranks (method R-7
// of Hyndman and Fan, the default of most data-frame libraries).
// It returns NaN for an empty slice. p is clamped to [0, 1].
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	p = math.Max(0, math.Min(1, p))
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// SpreadString returns the standard deviation relative to the mean
// as a percentage, e.g. "±3%". It returns "" when the spread is
// undefined and "?" when it can't be rendered as a percentage.
func (s *Summary) SpreadString() string {
	if math.IsNaN(s.Std) || math.IsNaN(s.Mean) {
		return ""
	}
	if s.Mean == 0 {
		if s.Std == 0 {
			return "±0%"
		}
		return "?"
	}
	if mathx.Sign(s.Mean) < 0 {
		return "?"
	}
	return fmt.Sprintf("±%.0f%%", 100*s.Std/s.Mean)
}

// summaryJSON mirrors Summary with undefined statistics encoded as
// null, since JSON has no NaN. YAML uses the same form.
type summaryJSON struct {
	RawCount   int      `json:"raw_count" yaml:"raw_count"`
	KeptCount  int      `json:"kept_count" yaml:"kept_count"`
	Rejected   int      `json:"rejected" yaml:"rejected"`
	Mean       *float64 `json:"mean" yaml:"mean"`
	Std        *float64 `json:"std" yaml:"std"`
	Median     *float64 `json:"median" yaml:"median"`
	P25        *float64 `json:"p25" yaml:"p25"`
	P75        *float64 `json:"p75" yaml:"p75"`
	Min        *float64 `json:"min" yaml:"min"`
	Max        *float64 `json:"max" yaml:"max"`
	Degenerate bool     `json:"degenerate,omitempty" yaml:"degenerate,omitempty"`
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// MarshalJSON encodes s, writing null for undefined statistics.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.encoded())
}

// MarshalYAML implements yaml.Marshaler with the same field names
// as MarshalJSON.
func (s Summary) MarshalYAML() (interface{}, error) {
	return s.encoded(), nil
}

func (s Summary) encoded() summaryJSON {
	return summaryJSON{
		RawCount:   s.RawCount,
		KeptCount:  s.KeptCount,
		Rejected:   s.Rejected(),
		Mean:       Defined(s.Mean),
		Std:        Defined(s.Std),
		Median:     Defined(s.Median),
		P25:        Defined(s.P25),
		P75:        Defined(s.P75),
		Min:        Defined(s.Min),
		Max:        Defined(s.Max),
		Degenerate: s.Degenerate,
		Warnings:   ErrorStrings(s.Warnings),
	}
}

// Defined returns a pointer to x, or nil if x is NaN or infinite.
func Defined(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

// ErrorStrings returns the messages of errs.
func ErrorStrings(errs []error) []string {
	var out []string
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
