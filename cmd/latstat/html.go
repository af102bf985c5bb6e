// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/google/safehtml/template"

	"github.com/uarchlab/latstat/analysis"
)

type htmlView struct {
	Title    string
	Subtitle string
	Header   []string
	Rows     [][]string
	Notes    []string
	Warnings []string
}

func newHTMLView(r *analysis.Report) *htmlView {
	v := &htmlView{
		Title:    r.Name,
		Subtitle: describe(r),
		Warnings: r.Messages,
	}
	v.Header = append(append(v.Header, r.Keys...), "n", "kept", "mean", "std", "±", "median", "p25", "p75", "min", "max")
	for _, g := range r.Groups {
		s := g.Summary
		row := append([]string(nil), g.Key...)
		row = append(row, strconv.Itoa(s.RawCount), strconv.Itoa(s.KeptCount), stat(s.Mean), stat(s.Std), s.SpreadString())
		for _, x := range []float64{s.Median, s.P25, s.P75, s.Min, s.Max} {
			row = append(row, stat(x))
		}
		v.Rows = append(v.Rows, row)
	}
	if c := r.Curve; c != nil {
		if k := c.Knee; k != nil {
			note := fmt.Sprintf("knee at %s=%s (index %d)", c.XColumn, coord(k.X), k.Index)
			if k.Label != "" {
				note += ": " + k.Label
			}
			v.Notes = append(v.Notes, note)
		}
		for _, j := range c.Jumps {
			v.Notes = append(v.Notes, fmt.Sprintf("jump %s → %s: ×%.2f", coord(j.FromX), coord(j.ToX), j.Ratio))
		}
	}
	if c := r.Columns; c != nil {
		for _, p := range c.Penalties {
			v.Notes = append(v.Notes, fmt.Sprintf("%s → %s: %s", p.From, p.To, signed(p.Delta)))
		}
		if len(c.Penalties) > 0 {
			v.Notes = append(v.Notes, "total: "+signed(c.Total))
		}
		ratio := "ratio: " + stat(float64(c.Ratio))
		if c.Verdict != "" {
			ratio += " (" + c.Verdict + ")"
		}
		v.Notes = append(v.Notes, ratio, c.Note)
	}
	return v
}

var htmlReport = template.Must(template.New("report").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
.latstat { border-collapse: collapse; }
.latstat th { border-bottom: 1px solid #666; }
.latstat td { text-align: right; padding: 0em 1em; }
.warning { color: #c00; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Subtitle}}</p>
<table class="latstat">
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{if .Notes}}<ul>
{{range .Notes}}<li>{{.}}</li>
{{end}}</ul>
{{end}}{{range .Warnings}}<p class="warning">{{.}}</p>
{{end}}</body>
</html>
`))

// formatHTML writes r as a standalone HTML page.
func formatHTML(w io.Writer, r *analysis.Report) error {
	return htmlReport.Execute(w, newHTMLView(r))
}
