// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analysis runs a configured analysis over a table of latency
// samples and produces a Report.
//
// Every analysis starts the same way: rows are partitioned into
// groups, each group is filtered for outliers independently, and each
// group is summarized. A curve analysis then takes the per-x centers
// as a curve, optionally smooths it and searches it for a knee. A
// columns analysis instead compares independent measurement columns,
// such as the latency of an L1 hit against that of a RAM access.
package analysis

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/uarchlab/latstat/latfmt"
	"github.com/uarchlab/latstat/latproc"
)

// An Option configures Run.
type Option func(*options)

type options struct {
	log     logrus.FieldLogger
	workers int
}

// WithLogger directs Run's progress and warnings to log.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WithParallelism lets Run summarize up to n groups or columns
// concurrently. The report is identical to a sequential run.
func WithParallelism(n int) Option {
	return func(o *options) { o.workers = n }
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Run performs the analysis described by cfg on t.
//
// Run returns an error matching ErrConfig for an invalid cfg and a
// *latfmt.MissingColumnError if t lacks a named column. Problems
// confined to a group, such as too few samples, do not stop the
// analysis; they are recorded in the report's Warnings.
func Run(t *latfmt.Table, cfg Config, opts ...Option) (*Report, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = discardLogger()
	}

	p, err := cfg.compile()
	if err != nil {
		return nil, err
	}
	r := &Report{
		Name:   cfg.Name,
		Kind:   cfg.Kind,
		Source: t.Name,
		Config: cfg,
	}
	if r.Name == "" {
		r.Name = t.Name
	}
	log := o.log.WithFields(logrus.Fields{"analysis": r.Name, "kind": cfg.Kind})
	log.WithField("rows", t.Len()).Debug("starting analysis")

	switch cfg.Kind {
	case KindGroups:
		err = r.runGroups(t, &cfg, p, o.workers)
	case KindCurve:
		err = r.runCurve(t, &cfg, p, o.workers)
	case KindColumns:
		err = r.runColumns(t, &cfg, p, o.workers)
	}
	if err != nil {
		return nil, err
	}

	for _, w := range r.Warnings {
		log.Warn(w)
		r.Messages = append(r.Messages, w.Error())
	}
	log.WithFields(logrus.Fields{
		"groups":   len(r.Groups),
		"raw":      r.RawCount,
		"rejected": r.Rejected,
	}).Debug("analysis complete")
	return r, nil
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Errorf(format, args...))
}

// addAggregate records the groups of agg and their warnings.
func (r *Report) addAggregate(agg *latproc.Aggregate) {
	r.Keys = agg.Keys
	r.Value = agg.Value
	r.Warnings = append(r.Warnings, agg.Warnings...)
	for _, g := range agg.Groups {
		r.addGroup(g.Key, g.KeyString(agg.Keys), g)
	}
}

func (r *Report) addGroup(key []string, name string, g *latproc.Group) {
	r.Groups = append(r.Groups, GroupReport{Key: key, Summary: g.Summary})
	r.RawCount += g.Summary.RawCount
	r.KeptCount += g.Summary.KeptCount
	r.Rejected += g.Summary.Rejected()
	if name == "" {
		name = "all rows"
	}
	for _, w := range g.Summary.Warnings {
		r.Warnings = append(r.Warnings, fmt.Errorf("%s: %w", name, w))
	}
}

func (r *Report) runGroups(t *latfmt.Table, cfg *Config, p *plan, workers int) error {
	ag := &latproc.Aggregator{
		Keys:    cfg.GroupKeys,
		Value:   cfg.ValueColumn,
		Filter:  cfg.Filter,
		Sigma:   cfg.Sigma,
		Orders:  p.ordersFor(cfg.GroupKeys),
		Where:   p.where,
		Workers: workers,
	}
	agg, err := ag.Aggregate(t)
	if err != nil {
		return err
	}
	if len(agg.Groups) == 0 {
		r.warnf("%s: no rows with a usable %q", t.Name, cfg.ValueColumn)
	}
	r.addAggregate(agg)
	return nil
}
