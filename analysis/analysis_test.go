// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/uarchlab/latstat/latfmt"
	"github.com/uarchlab/latstat/latmath"
)

func parse(t *testing.T, name, data string) *latfmt.Table {
	t.Helper()
	var r latfmt.Reader
	tab, err := r.Parse([]byte(data), name)
	require.NoError(t, err)
	return tab
}

const sweepCSV = `size,time
16384,4
16384,5
16384,95
4194304,200
4194304,210
`

func TestRunSweep(t *testing.T) {
	tab := parse(t, "sweep.csv", sweepCSV)

	cfg := DefaultConfig()
	cfg.Kind = KindCurve
	cfg.XColumn = "size"
	cfg.ValueColumn = "time"
	cfg.Sigma = 1
	r, err := Run(tab, cfg)
	require.NoError(t, err)

	require.Len(t, r.Groups, 2)
	assert.Equal(t, []string{"16384"}, r.Groups[0].Key)
	assert.InDelta(t, 4.5, r.Groups[0].Summary.Mean, 1e-9)
	assert.Equal(t, 1, r.Groups[0].Summary.Rejected())
	assert.InDelta(t, 205, r.Groups[1].Summary.Mean, 1e-9)
	assert.Equal(t, 5, r.RawCount)
	assert.Equal(t, 4, r.KeptCount)
	assert.Equal(t, 1, r.Rejected)

	require.NotNil(t, r.Curve)
	assert.Equal(t, []float64{16384, 4194304}, r.Curve.X)
	assert.InDeltaSlice(t, []float64{4.5, 205}, r.Curve.Y, 1e-9)
	require.Len(t, r.Curve.Jumps, 1)
	assert.InDelta(t, 205/4.5, r.Curve.Jumps[0].Ratio, 1e-9)

	// A three-sample group can't hold a point two standard
	// deviations out, so sigma=2 keeps everything.
	cfg.Sigma = 2
	r, err = Run(tab, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Rejected)
	assert.InDelta(t, 104.0/3, r.Groups[0].Summary.Mean, 1e-9)
}

func TestRunSpikeSigma2(t *testing.T) {
	tab := parse(t, "sweep.csv", "size,time\n16K,4\n16K,5\n16K,4\n16K,5\n16K,4\n16K,5\n16K,95\n4M,200\n4M,210\n")
	cfg := DefaultConfig()
	cfg.Kind = KindCurve
	cfg.XColumn = "size"
	cfg.ValueColumn = "time"
	r, err := Run(tab, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, r.Groups[0].Summary.Mean, 1e-9)
	assert.Equal(t, 1, r.Rejected)
	assert.Equal(t, []float64{16384, 4194304}, r.Curve.X)
}

// robTable is a reorder-buffer sweep: flat up to 196 filler
// instructions, rising by one cycle per two instructions after.
func robTable() *latfmt.Table {
	tab := latfmt.NewTable("rob.csv", "filler", "cycles")
	for i := 0; i < 200; i++ {
		x := 2 * i
		y := 50.0
		if i > 98 {
			y += float64(i - 98)
		}
		for _, noise := range []float64{-0.5, 0, 0.5} {
			tab.AddRow(strconv.Itoa(x), strconv.FormatFloat(y+noise, 'f', -1, 64))
		}
	}
	return tab
}

func robConfig() Config {
	cfg := DefaultConfig()
	cfg.Kind = KindCurve
	cfg.XColumn = "filler"
	cfg.ValueColumn = "cycles"
	cfg.Knee = true
	cfg.Labels = []Label{
		{Min: 190, Max: 200, Text: "Haswell (192 ROB entries)"},
		{Min: 350, Max: 360, Text: "Ice Lake/Sunny Cove (352 ROB entries)"},
	}
	return cfg
}

func TestRunKnee(t *testing.T) {
	for _, smooth := range []string{"none", "mean", "savgol"} {
		t.Run(smooth, func(t *testing.T) {
			cfg := robConfig()
			cfg.Smoother = smooth
			if smooth == "mean" {
				cfg.Window = 5
			}
			r, err := Run(robTable(), cfg)
			require.NoError(t, err)
			require.NotNil(t, r.Curve.Knee)
			k := r.Curve.Knee
			assert.GreaterOrEqual(t, k.X, 190.0)
			assert.LessOrEqual(t, k.X, 200.0)
			assert.Equal(t, "Haswell (192 ROB entries)", k.Label)
			assert.Equal(t, r.Curve.X[k.Index], k.X)
			assert.Equal(t, 40.0, k.Lo)
			assert.Equal(t, 358.0, k.Hi)
			assert.Len(t, r.Curve.Smoothed, 200)
		})
	}
}

func TestRunKneeUnknownLabel(t *testing.T) {
	cfg := robConfig()
	cfg.Labels = cfg.Labels[1:]
	r, err := Run(robTable(), cfg)
	require.NoError(t, err)
	assert.Equal(t, UnknownLabel, r.Curve.Knee.Label)
}

func TestRunKneeShortCurve(t *testing.T) {
	cfg := robConfig()
	cfg.XColumn, cfg.ValueColumn = "size", "time"
	r, err := Run(parse(t, "short.csv", sweepCSV), cfg)
	require.NoError(t, err)
	assert.Nil(t, r.Curve.Knee)
	assert.True(t, errors.Is(r.Warning(), latmath.ErrInsufficientData))
}

func TestRunColumns(t *testing.T) {
	tab := parse(t, "cache.csv", `l1,l2,l3,ram
4,12,40,200
4,13,41,210
5,12,40,200
5,13,41,210
`)
	cfg := DefaultConfig()
	cfg.Kind = KindColumns
	cfg.ValueColumns = []string{"l1", "l2", "l3", "ram"}
	cfg.Sigma = 2.5
	r, err := Run(tab, cfg, WithParallelism(4))
	require.NoError(t, err)

	require.Len(t, r.Groups, 4)
	assert.Equal(t, []string{"l3"}, r.Groups[2].Key)
	require.NotNil(t, r.Columns)
	c := r.Columns
	require.Len(t, c.Penalties, 3)
	for i, want := range []float64{8, 28, 164.5} {
		assert.InDelta(t, want, float64(c.Penalties[i].Delta), 1e-9)
	}
	assert.Equal(t, "l1", c.Penalties[0].From)
	assert.Equal(t, "l2", c.Penalties[0].To)
	assert.InDelta(t, 200.5, float64(c.Total), 1e-9)
	assert.InDelta(t, 205/4.5, float64(c.Ratio), 1e-9)
	assert.Empty(t, c.Verdict)
	assert.Contains(t, c.Note, "no significance test")
}

func TestRunRegions(t *testing.T) {
	tab := parse(t, "sweep.csv", sweepCSV)
	cfg := DefaultConfig()
	cfg.Kind = KindColumns
	cfg.ValueColumn = "time"
	cfg.Sigma = 1
	cfg.Regions = []Region{
		{Name: "hit", Where: []string{"size<=32K"}},
		{Name: "miss", Where: []string{"size>=1M"}},
	}
	r, err := Run(tab, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"region"}, r.Keys)
	assert.Equal(t, "time", r.Value)
	require.Len(t, r.Groups, 2)
	// Each region is filtered on its own, so the 95 is rejected
	// against the hit samples only.
	assert.Equal(t, 3, r.Groups[0].Summary.RawCount)
	assert.Equal(t, 1, r.Groups[0].Summary.Rejected())
	assert.InDelta(t, 4.5, r.Groups[0].Summary.Mean, 1e-9)
	assert.Equal(t, 2, r.Groups[1].Summary.KeptCount)

	c := r.Columns
	require.Len(t, c.Penalties, 1)
	assert.Equal(t, Penalty{From: "hit", To: "miss", Delta: 200.5}, c.Penalties[0])
	assert.InDelta(t, 205/4.5, float64(c.Ratio), 1e-9)
	assert.Equal(t, []string{"hit", "miss"}, cfg.Compared())

	reg, err := ParseRegion("hit:size<=32K,size>=1K")
	require.NoError(t, err)
	assert.Equal(t, Region{Name: "hit", Where: []string{"size<=32K", "size>=1K"}}, reg)
	_, err = ParseRegion("size<=32K")
	assert.Error(t, err)
}

func TestRunInclusivity(t *testing.T) {
	tab := parse(t, "inc.csv", `initial_hit_time,probe_after_evict_time
4,40
5,42
4,41
5,43
4,40
5,1000
`)
	cfg := DefaultConfig()
	cfg.Kind = KindColumns
	cfg.ValueColumns = []string{"initial_hit_time", "probe_after_evict_time"}
	cfg.Sigma = 2
	cfg.RatioThreshold = 2
	cfg.RatioAbove, cfg.RatioBelow = "inclusive", "non-inclusive or exclusive"
	r, err := Run(tab, cfg)
	require.NoError(t, err)

	// Columns are filtered independently, so the 1000 costs its
	// row only in the probe column.
	assert.Equal(t, 6, r.Groups[0].Summary.KeptCount)
	assert.Equal(t, 5, r.Groups[1].Summary.KeptCount)
	assert.InDelta(t, 41.2/4.5, float64(r.Columns.Ratio), 1e-9)
	assert.Equal(t, "inclusive", r.Columns.Verdict)

	cfg.RatioThreshold = 10
	r, err = Run(tab, cfg)
	require.NoError(t, err)
	assert.Equal(t, "non-inclusive or exclusive", r.Columns.Verdict)
}

func TestRunGroups(t *testing.T) {
	tab := parse(t, "pattern.csv", `pattern,size,cycles
random,64K,30
sequential,64K,4
stride,64K,9
random,32K,5
sequential,32K,4
zigzag,32K,6
stride,32K,5
`)
	cfg := DefaultConfig()
	cfg.ValueColumn = "cycles"
	cfg.GroupKeys = []string{"pattern", "size"}
	cfg.Orders = map[string]string{"pattern": "sequential,random,stride,zigzag"}
	cfg.Where = []string{"size<=32K"}
	r, err := Run(tab, cfg)
	require.NoError(t, err)

	var keys []string
	for _, g := range r.Groups {
		keys = append(keys, strings.Join(g.Key, "/"))
	}
	assert.Equal(t, []string{"sequential/32768", "random/32768", "stride/32768", "zigzag/32768"}, keys)
	assert.Nil(t, r.Curve)
	assert.Nil(t, r.Columns)

	// Single-sample groups have no standard deviation.
	assert.Len(t, r.Warnings, 4)
	assert.Len(t, r.Messages, 4)
	assert.True(t, errors.Is(r.Warnings[0], latmath.ErrInsufficientData))
	assert.Contains(t, r.Messages[0], "pattern:sequential size:32768")
}

func TestRunErrors(t *testing.T) {
	tab := parse(t, "sweep.csv", sweepCSV)

	cfg := DefaultConfig()
	cfg.ValueColumn = "latency"
	_, err := Run(tab, cfg)
	assert.True(t, errors.Is(err, latfmt.ErrMissingColumn))
	var mc *latfmt.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "latency", mc.Column)

	cfg = DefaultConfig()
	cfg.Kind = KindColumns
	cfg.ValueColumns = []string{"time", "probe"}
	_, err = Run(tab, cfg)
	assert.True(t, errors.Is(err, latfmt.ErrMissingColumn))

	for name, mod := range map[string]func(*Config){
		"kind":     func(c *Config) { c.Kind = "pivot" },
		"value":    func(c *Config) { c.ValueColumn = "" },
		"sigma":    func(c *Config) { c.Sigma = 0 },
		"order":    func(c *Config) { c.Orders = map[string]string{"size": ","} },
		"where":    func(c *Config) { c.Where = []string{"size~4"} },
		"smoother": func(c *Config) { c.Smoother = "lowess" },
		"savgol":   func(c *Config) { c.Smoother, c.Window, c.Degree = "savgol", 5, 7 },
		"trim":     func(c *Config) { c.Trim = "both" },
		"center":   func(c *Config) { c.Center = "mode" },
		"label":    func(c *Config) { c.Labels = []Label{{Min: 2, Max: 1}} },
		"region":   func(c *Config) { c.Regions = []Region{{Name: "hit", Where: []string{"size<4"}}} },
		"regions": func(c *Config) {
			c.Regions = []Region{{Name: "hit"}, {Name: "hit"}}
		},
		"regions and values": func(c *Config) {
			c.Kind = KindColumns
			c.ValueColumns = []string{"time"}
			c.Regions = []Region{{Name: "hit", Where: []string{"size<=4"}}}
		},
		"regions without value": func(c *Config) {
			c.Kind = KindColumns
			c.ValueColumn = ""
			c.Regions = []Region{{Name: "hit", Where: []string{"size<=4"}}}
		},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ValueColumn = "time"
			mod(&cfg)
			_, err := Run(tab, cfg)
			assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
		})
	}

	// Disabling the filter makes sigma irrelevant.
	cfg = DefaultConfig()
	cfg.ValueColumn = "time"
	cfg.Filter = false
	cfg.Sigma = 0
	r, err := Run(tab, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, r.KeptCount)
}

func TestRunParallelMatchesSequential(t *testing.T) {
	cfg := robConfig()
	cfg.Smoother = "savgol"
	seq, err := Run(robTable(), cfg)
	require.NoError(t, err)
	par, err := Run(robTable(), cfg, WithParallelism(8))
	require.NoError(t, err)
	assert.Equal(t, seq.Groups, par.Groups)
	assert.Equal(t, seq.Curve, par.Curve)
}

func TestReportEncoding(t *testing.T) {
	tab := parse(t, "one.csv", "size,time\n64,3\n128,4\n128,6\n")
	cfg := DefaultConfig()
	cfg.ValueColumn = "time"
	cfg.GroupKeys = []string{"size"}
	r, err := Run(tab, cfg)
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var decoded struct {
		Groups []struct {
			Key     []string
			Summary map[string]interface{}
		}
		Warnings []string
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Groups, 2)
	assert.Nil(t, decoded.Groups[0].Summary["std"])
	assert.Equal(t, 5.0, decoded.Groups[1].Summary["mean"])
	assert.Len(t, decoded.Warnings, 1)

	out, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "std: null")
	assert.Contains(t, string(out), "kind: groups")
}
