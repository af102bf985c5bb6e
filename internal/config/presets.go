// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import "github.com/uarchlab/latstat/analysis"

// Builtin returns the built-in presets, keyed by name. Each call
// returns fresh copies.
func Builtin() map[string]analysis.Config {
	base := analysis.DefaultConfig

	sweep := base()
	sweep.Name = "sweep"
	sweep.Kind = analysis.KindCurve
	sweep.XColumn = "working_set_size_bytes"
	sweep.ValueColumn = "time_per_access_cycles"
	sweep.Sigma = 1

	pattern := base()
	pattern.Name = "pattern"
	pattern.ValueColumn = "cycles_per_step"
	pattern.GroupKeys = []string{"pattern"}

	stride := base()
	stride.Name = "stride"
	stride.Kind = analysis.KindCurve
	stride.XColumn = "stride_bytes"
	stride.ValueColumn = "avg_cycles_per_access"
	stride.Sigma = 1

	latency := base()
	latency.Name = "latency"
	latency.Kind = analysis.KindColumns
	latency.ValueColumns = []string{"l1_hit", "l2_hit", "l3_hit", "ram_access"}
	latency.Sigma = 2.5

	inclusivity := base()
	inclusivity.Name = "inclusivity"
	inclusivity.Kind = analysis.KindColumns
	inclusivity.ValueColumns = []string{"initial_hit_time", "probe_after_evict_time"}
	inclusivity.Sigma = 2.5
	inclusivity.RatioThreshold = 2
	inclusivity.RatioAbove = "inclusive"
	inclusivity.RatioBelow = "non-inclusive or exclusive"

	hitmiss := base()
	hitmiss.Name = "hitmiss"
	hitmiss.Kind = analysis.KindColumns
	hitmiss.ValueColumns = []string{"hit_time", "miss_time"}
	hitmiss.Sigma = 1

	// Hit and miss regions of a working-set sweep: within L1 and
	// well beyond any last-level cache.
	hitmissSweep := base()
	hitmissSweep.Name = "hitmiss-sweep"
	hitmissSweep.Kind = analysis.KindColumns
	hitmissSweep.ValueColumn = "time_per_access_cycles"
	hitmissSweep.Regions = []analysis.Region{
		{Name: "hit", Where: []string{"working_set_size_bytes<=32K"}},
		{Name: "miss", Where: []string{"working_set_size_bytes>=64M"}},
	}

	rob := base()
	rob.Name = "rob"
	rob.Kind = analysis.KindCurve
	rob.XColumn = "filler_count"
	rob.ValueColumn = "avg_cycles"
	rob.Smoother = "savgol"
	rob.Window, rob.Degree = 11, 3
	rob.Knee = true
	rob.Trim = "fraction=0.1"
	rob.Labels = []analysis.Label{
		{Min: 190, Max: 200, Text: "Haswell (192 ROB entries)"},
		{Min: 350, Max: 360, Text: "Ice Lake/Sunny Cove (352 ROB entries)"},
		{Min: 500, Max: 520, Text: "Sapphire Rapids/Golden Cove (512 ROB entries)"},
	}

	prf := base()
	prf.Name = "prf"
	prf.Kind = analysis.KindCurve
	prf.XColumn = "ICOUNT"
	prf.ValueColumn = "CYCLES"
	prf.Filter = false
	prf.Center = "median"
	prf.Smoother = "mean"
	prf.Window = 5
	prf.Knee = true
	prf.Trim = "leading=10"
	prf.Select = "max"

	series := base()
	series.Name = "series"
	series.Kind = analysis.KindCurve
	series.XColumn = "run"
	series.ValueColumn = "latency_cycles"
	series.Filter = false
	series.Smoother = "mean"
	series.JumpRatio = 0

	m := make(map[string]analysis.Config)
	for _, c := range []analysis.Config{sweep, pattern, stride, latency, inclusivity, hitmiss, hitmissSweep, rob, prf, series} {
		m[c.Name] = c
	}
	return m
}
