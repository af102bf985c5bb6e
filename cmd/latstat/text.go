// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/uarchlab/latstat/analysis"
	"github.com/uarchlab/latstat/internal/texttab"
)

var statColumns = []string{"n", "kept", "mean", "std", "median", "p25", "p75", "min", "max"}

// describe returns a one-line description of r's analysis.
func describe(r *analysis.Report) string {
	switch r.Kind {
	case analysis.KindCurve:
		return fmt.Sprintf("curve of %s by %s", r.Value, r.Curve.XColumn)
	case analysis.KindColumns:
		if len(r.Config.Regions) > 0 {
			return fmt.Sprintf("regions %s of %s", strings.Join(r.Config.Compared(), ", "), r.Value)
		}
		return "columns " + strings.Join(r.Config.ValueColumns, ", ")
	}
	if len(r.Keys) == 0 {
		return "groups of " + r.Value
	}
	return fmt.Sprintf("groups of %s by %s", r.Value, strings.Join(r.Keys, ", "))
}

// stat formats a summary statistic.
func stat(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "-"
	}
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// coord formats a curve coordinate.
func coord(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func signed(x analysis.Float) string {
	if math.IsNaN(float64(x)) {
		return "-"
	}
	return fmt.Sprintf("%+.2f", float64(x))
}

func formatText(buf *bytes.Buffer, r *analysis.Report) {
	if r.Name != r.Source {
		fmt.Fprintf(buf, "%s (%s): %s\n", r.Name, r.Source, describe(r))
	} else {
		fmt.Fprintf(buf, "%s: %s\n", r.Name, describe(r))
	}
	if r.Config.Filter {
		fmt.Fprintf(buf, "sigma %g: rejected %d of %d samples\n", r.Config.Sigma, r.Rejected, r.RawCount)
	} else {
		fmt.Fprintf(buf, "no outlier rejection: %d samples\n", r.RawCount)
	}
	buf.WriteString("\n")

	var tab texttab.Table
	nk := len(r.Keys)
	for i := range statColumns {
		tab.SetAlign(nk+i, texttab.Right)
	}
	tab.Row().Cells(r.Keys...).Cells(statColumns...)
	tab.Rule()
	for _, g := range r.Groups {
		s := g.Summary
		tab.Row().Cells(g.Key...)
		tab.Cells(strconv.Itoa(s.RawCount), strconv.Itoa(s.KeptCount))
		tab.Cells(stat(s.Mean), stat(s.Std), stat(s.Median), stat(s.P25), stat(s.P75), stat(s.Min), stat(s.Max))
	}
	tab.Format(buf)

	if c := r.Curve; c != nil {
		buf.WriteString("\n")
		fmt.Fprintf(buf, "center: %s, smoother: %s\n", c.Center, c.Smoother)
		if k := c.Knee; k != nil {
			fmt.Fprintf(buf, "knee: %s=%s (index %d, %s=%s)", c.XColumn, coord(k.X), k.Index, c.Center, stat(k.Raw))
			if k.Label != "" {
				fmt.Fprintf(buf, " %s", k.Label)
			}
			buf.WriteString("\n")
			fmt.Fprintf(buf, "searched %s..%s (trim %s, select %s)\n", coord(k.Lo), coord(k.Hi), k.Trim, k.Select)
		}
		if len(c.Jumps) > 0 {
			fmt.Fprintf(buf, "jumps (ratio > %g):\n", r.Config.JumpRatio)
			var jt texttab.Table
			for _, j := range c.Jumps {
				jt.Row().Cells("", coord(j.FromX), "->", coord(j.ToX), fmt.Sprintf("x%.2f", j.Ratio))
			}
			jt.Format(buf)
		}
	}

	if c := r.Columns; c != nil && len(c.Penalties) > 0 {
		buf.WriteString("\n")
		var pt texttab.Table
		pt.SetAlign(3, texttab.Right)
		for _, p := range c.Penalties {
			pt.Row().Cells(p.From, "->", p.To, signed(p.Delta))
		}
		pt.Row().Cells("total", "", "", signed(c.Total))
		pt.Format(buf)
		cols := r.Config.Compared()
		fmt.Fprintf(buf, "ratio %s/%s: %s", cols[len(cols)-1], cols[0], stat(float64(c.Ratio)))
		if c.Verdict != "" {
			fmt.Fprintf(buf, " (%s, threshold %g)", c.Verdict, c.Threshold)
		}
		buf.WriteString("\n")
		fmt.Fprintf(buf, "note: %s\n", c.Note)
	}
}
