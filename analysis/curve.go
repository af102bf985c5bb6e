// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"errors"
	"math"

	"github.com/uarchlab/latstat/latcurve"
	"github.com/uarchlab/latstat/latfmt"
	"github.com/uarchlab/latstat/latmath"
	"github.com/uarchlab/latstat/latproc"
)

func (r *Report) runCurve(t *latfmt.Table, cfg *Config, p *plan, workers int) error {
	ag := &latproc.Aggregator{
		Keys:    []string{p.x},
		Value:   cfg.ValueColumn,
		Filter:  cfg.Filter,
		Sigma:   cfg.Sigma,
		Orders:  map[string]latproc.Order{p.x: latproc.NumericOrder},
		Where:   p.where,
		Workers: workers,
	}
	agg, err := ag.Aggregate(t)
	if err != nil {
		return err
	}
	r.addAggregate(agg)

	var xs, ys []float64
	for _, g := range agg.Groups {
		x, ok := g.X()
		if !ok {
			r.warnf("%s: %q is not numeric; point skipped", g.KeyString(agg.Keys), g.Key[0])
			continue
		}
		y := g.Summary.Mean
		if p.median {
			y = g.Summary.Median
		}
		if math.IsNaN(y) {
			r.warnf("%s: no samples left after filtering; point skipped", g.KeyString(agg.Keys))
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	c, err := latcurve.NewCurve(xs, ys)
	if err != nil {
		return err
	}

	smoother := p.smoother
	if smoother == nil {
		smoother = latcurve.NoSmoothing{}
	}
	cr := &CurveReport{
		XColumn:  p.x,
		Center:   "mean",
		Smoother: smoother.String(),
		X:        c.X,
		Y:        c.Y,
		Smoothed: smoother.Smooth(c.Y),
	}
	if p.median {
		cr.Center = "median"
	}
	r.Curve = cr

	if cfg.Knee {
		d := &latcurve.Detector{Smoother: smoother, Trim: p.trim, Select: p.sel}
		k, err := d.Detect(c)
		switch {
		case errors.Is(err, latmath.ErrInsufficientData):
			r.Warnings = append(r.Warnings, err)
		case err != nil:
			return err
		default:
			cr.Knee = &KneeReport{
				Index:  k.Index,
				X:      k.X,
				Y:      k.Y,
				Raw:    k.Raw,
				D2:     k.D2[k.Index],
				Label:  cfg.label(k.X),
				Lo:     c.X[k.Lo],
				Hi:     c.X[k.Hi-1],
				Trim:   p.trim.String(),
				Select: p.sel.String(),
				Flat:   k.Flat,
			}
			if k.Flat {
				r.warnf("curve has no curvature in the search window; knee is arbitrary")
			}
		}
	}

	if cfg.JumpRatio > 0 {
		for _, j := range latcurve.Jumps(c, cfg.JumpRatio) {
			cr.Jumps = append(cr.Jumps, JumpReport{
				FromX: j.FromX,
				ToX:   j.ToX,
				FromY: j.FromY,
				ToY:   j.ToY,
				Ratio: j.Ratio,
			})
		}
	}
	return nil
}
