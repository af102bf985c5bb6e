// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"math"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"

	"github.com/uarchlab/latstat/latfmt"
	"github.com/uarchlab/latstat/latmath"
	"github.com/uarchlab/latstat/latproc"
)

// significanceNote is attached to every columns report.
const significanceNote = "differences are between filtered means; no significance test is performed"

func (r *Report) runColumns(t *latfmt.Table, cfg *Config, p *plan, workers int) error {
	names := cfg.Compared()
	if err := t.Require(cfg.ValueColumns...); err != nil {
		return err
	}

	// Each column or region is its own single-group aggregate,
	// filtered independently of the others.
	aggs := make([]*latproc.Aggregate, len(names))
	run := func(i int) error {
		ag := &latproc.Aggregator{
			Filter: cfg.Filter,
			Sigma:  cfg.Sigma,
			Where:  p.where,
		}
		if len(p.regions) > 0 {
			ag.Value = cfg.ValueColumn
			ag.Where = append(append([]latproc.Range(nil), p.where...), p.regions[i]...)
		} else {
			ag.Value = cfg.ValueColumns[i]
		}
		agg, err := ag.Aggregate(t)
		aggs[i] = agg
		return err
	}
	tasks := pool.New().WithErrors().WithMaxGoroutines(max(1, workers))
	for i := range aggs {
		i := i
		tasks.Go(func() error { return run(i) })
	}
	if err := tasks.Wait(); err != nil {
		return err
	}

	r.Keys = []string{"column"}
	if len(p.regions) > 0 {
		r.Keys = []string{"region"}
		r.Value = cfg.ValueColumn
	}
	means := make([]float64, len(aggs))
	for i, agg := range aggs {
		col := names[i]
		r.Warnings = append(r.Warnings, agg.Warnings...)
		g := &latproc.Group{}
		if len(agg.Groups) == 0 {
			g.Summary = latmath.Describe(latmath.SampleSet{})
		} else {
			g = agg.Groups[0]
		}
		r.addGroup([]string{col}, col, g)
		means[i] = g.Summary.Mean
	}

	cr := &ColumnsReport{Note: significanceNote}
	deltas := make([]float64, 0, len(means))
	for i := 1; i < len(means); i++ {
		d := means[i] - means[i-1]
		deltas = append(deltas, d)
		cr.Penalties = append(cr.Penalties, Penalty{
			From:  names[i-1],
			To:    names[i],
			Delta: Float(d),
		})
	}
	cr.Total = Float(floats.Sum(deltas))

	first, last := means[0], means[len(means)-1]
	cr.Ratio = Float(math.NaN())
	if first > 0 {
		cr.Ratio = Float(last / first)
	} else {
		r.warnf("mean of %q is not positive; ratio undefined", names[0])
	}
	if cfg.RatioThreshold > 0 {
		cr.Threshold = cfg.RatioThreshold
		cr.Verdict = verdict(cfg, float64(cr.Ratio))
	}
	r.Columns = cr
	return nil
}

func verdict(cfg *Config, ratio float64) string {
	above, below := cfg.RatioAbove, cfg.RatioBelow
	if above == "" {
		above = "above threshold"
	}
	if below == "" {
		below = "below threshold"
	}
	switch {
	case math.IsNaN(ratio):
		return "undetermined"
	case ratio > cfg.RatioThreshold:
		return above
	}
	return below
}
