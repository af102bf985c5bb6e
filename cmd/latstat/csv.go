// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/uarchlab/latstat/analysis"
)

// formatCSV writes one row per group of r. Undefined statistics are
// written as empty cells.
func formatCSV(w io.Writer, r *analysis.Report) error {
	cw := csv.NewWriter(w)
	header := append([]string(nil), r.Keys...)
	header = append(header, "n", "kept", "rejected", "mean", "std", "median", "p25", "p75", "min", "max")
	cw.Write(header)
	for _, g := range r.Groups {
		s := g.Summary
		row := append([]string(nil), g.Key...)
		row = append(row, strconv.Itoa(s.RawCount), strconv.Itoa(s.KeptCount), strconv.Itoa(s.Rejected()))
		for _, x := range []float64{s.Mean, s.Std, s.Median, s.P25, s.P75, s.Min, s.Max} {
			row = append(row, csvFloat(x))
		}
		cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}

func csvFloat(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
