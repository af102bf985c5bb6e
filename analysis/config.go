// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/uarchlab/latstat/latcurve"
	"github.com/uarchlab/latstat/latmath"
	"github.com/uarchlab/latstat/latproc"
)

// A Kind selects the shape of an analysis.
type Kind string

const (
	// KindGroups summarizes each distinct tuple of GroupKeys.
	KindGroups Kind = "groups"

	// KindCurve summarizes each distinct value of XColumn and
	// treats the per-x centers as a curve, optionally smoothed and
	// searched for a knee.
	KindCurve Kind = "curve"

	// KindColumns summarizes each of ValueColumns, or ValueColumn
	// within each of Regions, independently and compares their
	// means.
	KindColumns Kind = "columns"
)

// ErrConfig is matched by every configuration error Run reports.
var ErrConfig = errors.New("bad analysis config")

// Config describes one analysis. The zero value is not useful; start
// from DefaultConfig or a preset.
type Config struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Kind Kind   `json:"kind" yaml:"kind" mapstructure:"kind"`

	// ValueColumn is the measurement column for groups and curve
	// analyses. ValueColumns lists the columns compared by a
	// columns analysis, in order.
	ValueColumn  string   `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	ValueColumns []string `json:"values,omitempty" yaml:"values,omitempty" mapstructure:"values"`

	// GroupKeys are the key columns of a groups analysis.
	GroupKeys []string `json:"by,omitempty" yaml:"by,omitempty" mapstructure:"by"`

	// XColumn is the independent variable of a curve analysis. If
	// empty, the first of GroupKeys is used.
	XColumn string `json:"x,omitempty" yaml:"x,omitempty" mapstructure:"x"`

	// Filter enables outlier rejection at Sigma standard
	// deviations.
	Filter bool    `json:"filter" yaml:"filter" mapstructure:"filter"`
	Sigma  float64 `json:"sigma" yaml:"sigma" mapstructure:"sigma"`

	// Orders maps a key column to "num", "alpha" or a
	// comma-separated category list.
	Orders map[string]string `json:"orders,omitempty" yaml:"orders,omitempty" mapstructure:"orders"`

	// Where lists row ranges such as "size<=32768".
	Where []string `json:"where,omitempty" yaml:"where,omitempty" mapstructure:"where"`

	// Regions makes a columns analysis compare ValueColumn across
	// named subsets of the rows instead of comparing ValueColumns.
	Regions []Region `json:"regions,omitempty" yaml:"regions,omitempty" mapstructure:"regions"`

	// Curve settings.
	Center   string  `json:"center,omitempty" yaml:"center,omitempty" mapstructure:"center"` // mean or median
	Smoother string  `json:"smooth,omitempty" yaml:"smooth,omitempty" mapstructure:"smooth"` // none, mean or savgol
	Window   int     `json:"window,omitempty" yaml:"window,omitempty" mapstructure:"window"`
	Degree   int     `json:"degree,omitempty" yaml:"degree,omitempty" mapstructure:"degree"`
	Edge     string  `json:"edge,omitempty" yaml:"edge,omitempty" mapstructure:"edge"`
	Knee     bool    `json:"knee,omitempty" yaml:"knee,omitempty" mapstructure:"knee"`
	Trim     string  `json:"trim,omitempty" yaml:"trim,omitempty" mapstructure:"trim"`
	Select   string  `json:"select,omitempty" yaml:"select,omitempty" mapstructure:"select"`
	Labels   []Label `json:"labels,omitempty" yaml:"labels,omitempty" mapstructure:"labels"`

	// JumpRatio reports adjacent curve points whose centers grow
	// by more than this factor. Zero disables jump detection.
	JumpRatio float64 `json:"jump_ratio" yaml:"jump_ratio" mapstructure:"jump_ratio"`

	// RatioThreshold classifies the ratio of the last to the first
	// column mean in a columns analysis as RatioAbove or
	// RatioBelow. Zero disables classification.
	RatioThreshold float64 `json:"ratio_threshold,omitempty" yaml:"ratio_threshold,omitempty" mapstructure:"ratio_threshold"`
	RatioAbove     string  `json:"ratio_above,omitempty" yaml:"ratio_above,omitempty" mapstructure:"ratio_above"`
	RatioBelow     string  `json:"ratio_below,omitempty" yaml:"ratio_below,omitempty" mapstructure:"ratio_below"`
}

// A Label names a range of knee positions, such as the reorder
// buffer size of a known microarchitecture. Min and Max are
// inclusive.
type Label struct {
	Min  float64 `json:"min" yaml:"min" mapstructure:"min"`
	Max  float64 `json:"max" yaml:"max" mapstructure:"max"`
	Text string  `json:"text" yaml:"text" mapstructure:"text"`
}

// A Region is a named subset of rows: those within all of Where, in
// addition to the analysis' own ranges.
type Region struct {
	Name  string   `json:"name" yaml:"name" mapstructure:"name"`
	Where []string `json:"where" yaml:"where" mapstructure:"where"`
}

// ParseRegion parses "name:range,range,...".
func ParseRegion(s string) (Region, error) {
	name, ranges, ok := strings.Cut(s, ":")
	if !ok || name == "" || ranges == "" {
		return Region{}, fmt.Errorf("bad region %q (want name:range,...)", s)
	}
	return Region{Name: name, Where: strings.Split(ranges, ",")}, nil
}

// Compared returns the names of what a columns analysis compares:
// its regions if it has any, otherwise its value columns.
func (c *Config) Compared() []string {
	if len(c.Regions) == 0 {
		return c.ValueColumns
	}
	names := make([]string, len(c.Regions))
	for i, reg := range c.Regions {
		names[i] = reg.Name
	}
	return names
}

// UnknownLabel is reported for a knee outside every configured Label.
const UnknownLabel = "unknown"

// DefaultConfig returns a groups analysis with outlier rejection at
// latmath.DefaultSigma.
func DefaultConfig() Config {
	return Config{
		Kind:      KindGroups,
		Filter:    true,
		Sigma:     latmath.DefaultSigma,
		Center:    "mean",
		JumpRatio: 1.3,
	}
}

// plan is a validated, parsed Config.
type plan struct {
	x        string
	orders   map[string]latproc.Order
	where    []latproc.Range
	regions  [][]latproc.Range
	median   bool
	smoother latcurve.Smoother
	trim     latcurve.TrimPolicy
	sel      latcurve.Selection
}

func configErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Validate reports whether c describes a runnable analysis.
func (c *Config) Validate() error {
	_, err := c.compile()
	return err
}

func (c *Config) compile() (*plan, error) {
	p := &plan{orders: make(map[string]latproc.Order)}

	switch c.Kind {
	case KindGroups:
		if c.ValueColumn == "" {
			return nil, configErr("groups analysis needs a value column")
		}
	case KindCurve:
		if c.ValueColumn == "" {
			return nil, configErr("curve analysis needs a value column")
		}
		p.x = c.XColumn
		if p.x == "" && len(c.GroupKeys) > 0 {
			p.x = c.GroupKeys[0]
		}
		if p.x == "" {
			return nil, configErr("curve analysis needs an x column")
		}
	case KindColumns:
		switch {
		case len(c.Regions) > 0 && len(c.ValueColumns) > 0:
			return nil, configErr("columns analysis takes value columns or regions, not both")
		case len(c.Regions) > 0:
			if c.ValueColumn == "" {
				return nil, configErr("region comparison needs a value column")
			}
		case len(c.ValueColumns) == 0:
			return nil, configErr("columns analysis needs at least one value column or region")
		}
	default:
		return nil, configErr("unknown kind %q (want groups, curve or columns)", c.Kind)
	}

	if c.Filter && (!(c.Sigma > 0) || math.IsInf(c.Sigma, 0)) {
		return nil, configErr("sigma must be a positive number, not %v", c.Sigma)
	}

	for col, spec := range c.Orders {
		o, err := latproc.ParseOrder(spec)
		if err != nil {
			return nil, configErr("order for %q: %v", col, err)
		}
		p.orders[col] = o
	}
	for _, w := range c.Where {
		r, err := latproc.ParseRange(w)
		if err != nil {
			return nil, configErr("%v", err)
		}
		p.where = append(p.where, r)
	}
	seen := make(map[string]bool)
	for _, reg := range c.Regions {
		if reg.Name == "" || seen[reg.Name] {
			return nil, configErr("region names must be unique and non-empty, got %q", reg.Name)
		}
		seen[reg.Name] = true
		var ranges []latproc.Range
		for _, w := range reg.Where {
			r, err := latproc.ParseRange(w)
			if err != nil {
				return nil, configErr("region %q: %v", reg.Name, err)
			}
			ranges = append(ranges, r)
		}
		p.regions = append(p.regions, ranges)
	}

	switch strings.ToLower(c.Center) {
	case "", "mean":
	case "median":
		p.median = true
	default:
		return nil, configErr("unknown center %q (want mean or median)", c.Center)
	}

	edge, err := latcurve.ParseEdgePolicy(c.Edge)
	if err != nil {
		return nil, configErr("%v", err)
	}
	switch strings.ToLower(c.Smoother) {
	case "", "none":
	case "mean", "rolling":
		p.smoother = latcurve.MovingAverage{Window: c.Window, Edge: edge}
	case "savgol":
		sg := latcurve.DefaultSavitzkyGolay
		if c.Window > 0 {
			sg = latcurve.SavitzkyGolay{Window: c.Window, Degree: c.Degree}
		}
		sg.Edge = edge
		if err := sg.Validate(); err != nil {
			return nil, configErr("%v", err)
		}
		p.smoother = sg
	default:
		return nil, configErr("unknown smoother %q (want none, mean or savgol)", c.Smoother)
	}
	if p.trim, err = latcurve.ParseTrim(c.Trim); err != nil {
		return nil, configErr("%v", err)
	}
	if p.sel, err = latcurve.ParseSelection(c.Select); err != nil {
		return nil, configErr("%v", err)
	}

	for _, l := range c.Labels {
		if l.Min > l.Max {
			return nil, configErr("label %q: min %v > max %v", l.Text, l.Min, l.Max)
		}
	}
	if c.JumpRatio < 0 || c.RatioThreshold < 0 {
		return nil, configErr("ratios must not be negative")
	}
	return p, nil
}

// ordersFor returns the orders of keys. Order columns match keys
// case-insensitively, since configuration loaders may fold case.
func (p *plan) ordersFor(keys []string) map[string]latproc.Order {
	m := make(map[string]latproc.Order)
	for _, k := range keys {
		if o, ok := p.orders[k]; ok {
			m[k] = o
			continue
		}
		for col, o := range p.orders {
			if strings.EqualFold(col, k) {
				m[k] = o
				break
			}
		}
	}
	return m
}

// label returns the text of the first Label containing x.
func (c *Config) label(x float64) string {
	if len(c.Labels) == 0 {
		return ""
	}
	for _, l := range c.Labels {
		if l.Min <= x && x <= l.Max {
			return l.Text
		}
	}
	return UnknownLabel
}
