// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latmath provides the numeric core for summarizing noisy
// latency measurements: sigma-band outlier rejection and per-group
// summary statistics.
//
// Statistical edge cases never abort an analysis. Instead, results
// carry a list of warnings, captured as an []error value, which
// should be presented to the user along with the numbers.
package latmath

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultSigma is the deviation multiplier used when a configuration
// does not name one. Call sites disagree on the right value (1, 2 and
// 2.5 are all common), so every API takes sigma explicitly.
const DefaultSigma = 2.0

// A SampleSet is an ordered sequence of measurements sharing the same
// group key. A SampleSet is never modified in place; filtering
// returns a new SampleSet.
type SampleSet struct {
	// Values are the measured values, in input order.
	Values []float64
}

// NewSampleSet returns a SampleSet over a copy of values.
func NewSampleSet(values []float64) SampleSet {
	return SampleSet{Values: append([]float64(nil), values...)}
}

// Len returns the number of samples in s.
func (s SampleSet) Len() int {
	return len(s.Values)
}

// MeanStd returns the mean and the sample standard deviation (n-1
// denominator) of s. The mean is NaN for an empty set and the
// standard deviation is NaN when s has fewer than two samples.
func (s SampleSet) MeanStd() (mean, std float64) {
	switch len(s.Values) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return s.Values[0], math.NaN()
	}
	return stat.MeanStdDev(s.Values, nil)
}

// Bounds returns the closed acceptance interval [mean-sigma*std,
// mean+sigma*std] for s. ok is false when the band is undefined or
// would not reject anything: fewer than two samples, zero or
// non-finite std, or a non-positive sigma.
func (s SampleSet) Bounds(sigma float64) (lo, hi float64, ok bool) {
	if len(s.Values) < 2 || !(sigma > 0) {
		return 0, 0, false
	}
	mean, std := s.MeanStd()
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return 0, 0, false
	}
	return mean - sigma*std, mean + sigma*std, true
}

// Filter returns the samples of s whose value lies within sigma
// standard deviations of the mean of s. The mean and standard
// deviation are computed from s alone.
//
// If s has fewer than two samples, or its standard deviation is zero,
// Filter returns s unchanged. A sigma <= 0 disables filtering.
func (s SampleSet) Filter(sigma float64) SampleSet {
	lo, hi, ok := s.Bounds(sigma)
	if !ok {
		return s
	}
	kept := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if lo <= v && v <= hi {
			kept = append(kept, v)
		}
	}
	return SampleSet{Values: kept}
}

// FilterIter applies Filter repeatedly until a pass rejects nothing
// or maxPasses passes have run. It returns the final set and the
// number of passes that removed at least one sample.
//
// A single Filter pass usually converges. Heavily bimodal data can
// keep shedding points, which is what this reports.
func (s SampleSet) FilterIter(sigma float64, maxPasses int) (SampleSet, int) {
	passes := 0
	for i := 0; i < maxPasses; i++ {
		next := s.Filter(sigma)
		if next.Len() == s.Len() {
			break
		}
		s = next
		passes++
	}
	return s, passes
}
