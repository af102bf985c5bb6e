// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/uarchlab/latstat/latmath"
)

// A Report is the result of one analysis.
type Report struct {
	Name   string `json:"name" yaml:"name"`
	Kind   Kind   `json:"kind" yaml:"kind"`
	Source string `json:"source" yaml:"source"`
	Config Config `json:"config" yaml:"config"`

	// Keys names the components of each group's key. For a
	// columns analysis there is one key, the column name.
	Keys   []string      `json:"keys,omitempty" yaml:"keys,omitempty"`
	Value  string        `json:"value,omitempty" yaml:"value,omitempty"`
	Groups []GroupReport `json:"groups" yaml:"groups"`

	RawCount  int `json:"raw_count" yaml:"raw_count"`
	KeptCount int `json:"kept_count" yaml:"kept_count"`
	Rejected  int `json:"rejected" yaml:"rejected"`

	Curve   *CurveReport   `json:"curve,omitempty" yaml:"curve,omitempty"`
	Columns *ColumnsReport `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Warnings lists problems that did not stop the analysis,
	// such as groups too small for a standard deviation. Messages
	// holds their text for encoding.
	Warnings []error  `json:"-" yaml:"-"`
	Messages []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Warning returns all of r's warnings joined into one error, or nil.
func (r *Report) Warning() error {
	return errors.Join(r.Warnings...)
}

// A GroupReport is the summary of one group or column.
type GroupReport struct {
	Key     []string        `json:"key" yaml:"key"`
	Summary latmath.Summary `json:"summary" yaml:"summary"`
}

// A CurveReport describes the curve formed by per-x group centers.
type CurveReport struct {
	XColumn  string    `json:"x_column" yaml:"x_column"`
	Center   string    `json:"center" yaml:"center"`
	Smoother string    `json:"smoother" yaml:"smoother"`
	X        []float64 `json:"x" yaml:"x"`
	Y        []float64 `json:"y" yaml:"y"`
	Smoothed []float64 `json:"smoothed" yaml:"smoothed"`

	Knee  *KneeReport  `json:"knee,omitempty" yaml:"knee,omitempty"`
	Jumps []JumpReport `json:"jumps,omitempty" yaml:"jumps,omitempty"`
}

// A KneeReport locates the knee of a curve.
type KneeReport struct {
	Index int     `json:"index" yaml:"index"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Raw   float64 `json:"raw" yaml:"raw"`
	D2    float64 `json:"d2" yaml:"d2"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`

	// Lo and Hi are the x values bounding the searched window.
	Lo     float64 `json:"search_lo" yaml:"search_lo"`
	Hi     float64 `json:"search_hi" yaml:"search_hi"`
	Trim   string  `json:"trim" yaml:"trim"`
	Select string  `json:"select" yaml:"select"`
	Flat   bool    `json:"flat,omitempty" yaml:"flat,omitempty"`
}

// A JumpReport is a step between adjacent curve points.
type JumpReport struct {
	FromX float64 `json:"from_x" yaml:"from_x"`
	ToX   float64 `json:"to_x" yaml:"to_x"`
	FromY float64 `json:"from_y" yaml:"from_y"`
	ToY   float64 `json:"to_y" yaml:"to_y"`
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

// A ColumnsReport compares the means of several value columns.
type ColumnsReport struct {
	// Penalties holds the difference between the means of each
	// adjacent pair of columns, and Total their sum.
	Penalties []Penalty `json:"penalties,omitempty" yaml:"penalties,omitempty"`
	Total     Float     `json:"total" yaml:"total"`

	// Ratio is the mean of the last column over the mean of the
	// first. Verdict classifies it against Threshold.
	Ratio     Float   `json:"ratio" yaml:"ratio"`
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Verdict   string  `json:"verdict,omitempty" yaml:"verdict,omitempty"`

	Note string `json:"note" yaml:"note"`
}

// A Penalty is the increase in mean from one column to the next.
type Penalty struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Delta Float  `json:"delta" yaml:"delta"`
}

// Float is a float64 that encodes NaN and infinities as null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	return json.Marshal(latmath.Defined(float64(f)))
}

func (f Float) MarshalYAML() (interface{}, error) {
	return latmath.Defined(float64(f)), nil
}

// String formats f with two decimals, or "NaN".
func (f Float) String() string {
	if math.IsNaN(float64(f)) {
		return "NaN"
	}
	return strconv.FormatFloat(float64(f), 'f', 2, 64)
}
