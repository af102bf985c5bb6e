// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latchart draws analysis reports with gonum/plot.
//
// A curve report is drawn as its raw per-x centers, the smoothed
// curve and a vertical marker at the knee. Group and column reports
// are drawn as bars of the group means with ±1 standard deviation
// error bars.
package latchart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/uarchlab/latstat/analysis"
)

// Default chart dimensions.
const (
	Width  = 16 * vg.Centimeter
	Height = 10 * vg.Centimeter
)

var (
	rawColor    = color.NRGBA{0x80, 0x80, 0x80, 0xff}
	smoothColor = color.NRGBA{0, 0, 0xff, 0xff}
	kneeColor   = color.NRGBA{0xff, 0, 0, 0xff}
	barColor    = color.NRGBA{0x87, 0xce, 0xeb, 0xff}
)

// ErrEmpty is returned for a report with nothing to draw.
var ErrEmpty = errors.New("nothing to plot")

// Chart returns a plot of r.
func Chart(r *analysis.Report) (*plot.Plot, error) {
	if r.Curve != nil {
		return curveChart(r)
	}
	return groupChart(r)
}

func curveChart(r *analysis.Report) (*plot.Plot, error) {
	c := r.Curve
	if len(c.X) == 0 {
		return nil, ErrEmpty
	}
	p := plot.New()
	p.Title.Text = r.Name
	p.X.Label.Text = c.XColumn
	p.Y.Label.Text = fmt.Sprintf("%s of %s", c.Center, r.Value)
	p.Add(plotter.NewGrid())

	// Cache-size sweeps span several orders of magnitude.
	if c.X[0] > 0 && c.X[len(c.X)-1]/c.X[0] >= 100 {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	raw, err := plotter.NewScatter(xys(c.X, c.Y))
	if err != nil {
		return nil, err
	}
	raw.GlyphStyle.Color = rawColor
	raw.GlyphStyle.Radius = vg.Points(2)
	raw.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(raw)
	p.Legend.Add("raw "+c.Center, raw)

	if c.Smoother != "none" {
		sm, err := plotter.NewLine(xys(c.X, c.Smoothed))
		if err != nil {
			return nil, err
		}
		sm.LineStyle.Color = smoothColor
		sm.LineStyle.Width = vg.Points(1.5)
		p.Add(sm)
		p.Legend.Add("smoothed "+c.Smoother, sm)
	}

	if k := c.Knee; k != nil {
		lo, hi := bounds(c.Y, c.Smoothed)
		line, err := plotter.NewLine(plotter.XYs{{X: k.X, Y: lo}, {X: k.X, Y: hi}})
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = kneeColor
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
		label := fmt.Sprintf("knee %s=%g", c.XColumn, k.X)
		if k.Label != "" {
			label += " (" + k.Label + ")"
		}
		p.Legend.Add(label, line)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

func groupChart(r *analysis.Report) (*plot.Plot, error) {
	if len(r.Groups) == 0 {
		return nil, ErrEmpty
	}
	p := plot.New()
	p.Title.Text = r.Name
	p.Y.Label.Text = "mean"
	if r.Value != "" {
		p.Y.Label.Text = "mean " + r.Value
	}

	bars := make(meanBars, len(r.Groups))
	names := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		bars[i] = meanBar{mean: finiteOr(g.Summary.Mean, 0), std: finiteOr(g.Summary.Std, 0)}
		names[i] = strings.Join(g.Key, " ")
	}
	bc, err := plotter.NewBarChart(bars, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bc.Color = barColor
	p.Add(bc)

	eb, err := plotter.NewYErrorBars(bars)
	if err != nil {
		return nil, err
	}
	p.Add(eb)
	p.NominalX(names...)
	if len(names) > 6 {
		p.X.Tick.Label.Rotation = -math.Pi / 8
		p.X.Tick.Label.XAlign = draw.XLeft
		p.X.Tick.Label.YAlign = draw.YTop
	}
	return p, nil
}

// Render encodes p in format, "png" or "svg".
func Render(p *plot.Plot, format string) ([]byte, error) {
	format = strings.ToLower(format)
	if format != "png" && format != "svg" {
		return nil, fmt.Errorf("unsupported chart format %q", format)
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes p to path. The format is taken from the extension,
// which must be .png or .svg.
func Save(p *plot.Plot, path string) error {
	data, err := Render(p, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o666)
}

type meanBar struct{ mean, std float64 }

// meanBars implements plotter.Valuer, plotter.XYer and
// plotter.YErrorer.
type meanBars []meanBar

func (b meanBars) Len() int                        { return len(b) }
func (b meanBars) Value(i int) float64             { return b[i].mean }
func (b meanBars) XY(i int) (float64, float64)     { return float64(i), b[i].mean }
func (b meanBars) YError(i int) (float64, float64) { return b[i].std, b[i].std }

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X, pts[i].Y = x[i], y[i]
	}
	return pts
}

func bounds(ys ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		for _, v := range y {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	return lo, hi
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
