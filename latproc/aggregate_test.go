// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latproc

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uarchlab/latstat/latfmt"
)

func sweepTable(rows ...[2]string) *latfmt.Table {
	t := latfmt.NewTable("sweep.csv", "size", "time")
	for _, r := range rows {
		t.AddRow(r[0], r[1])
	}
	return t
}

func TestAggregateSweep(t *testing.T) {
	tab := sweepTable(
		[2]string{"16384", "4"},
		[2]string{"16384", "5"},
		[2]string{"16384", "95"},
		[2]string{"4194304", "200"},
		[2]string{"4194304", "210"},
	)

	// With three samples no value can lie more than
	// (n-1)/sqrt(n) ≈ 1.15 standard deviations from the mean, so
	// the spike is only rejected at sigma=1.
	ag := &Aggregator{Keys: []string{"size"}, Value: "time", Filter: true, Sigma: 1}
	agg, err := ag.Aggregate(tab)
	require.NoError(t, err)
	require.Len(t, agg.Groups, 2)

	small, large := agg.Groups[0], agg.Groups[1]
	assert.Equal(t, []string{"16384"}, small.Key)
	assert.Equal(t, 3, small.Summary.RawCount)
	assert.Equal(t, 2, small.Summary.KeptCount)
	assert.InDelta(t, 4.5, small.Summary.Mean, 1e-9)
	assert.Equal(t, []string{"4194304"}, large.Key)
	assert.InDelta(t, 205, large.Summary.Mean, 1e-9)
	assert.Equal(t, 1, agg.Rejected())
	assert.Equal(t, agg.RawCount(), agg.KeptCount()+agg.Rejected())

	ag.Sigma = 2
	agg, err = ag.Aggregate(tab)
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Groups[0].Summary.KeptCount)
	assert.Equal(t, 0, agg.Rejected())
}

func TestAggregateSpikeSigma2(t *testing.T) {
	tab := sweepTable(
		[2]string{"16K", "4"}, [2]string{"16384", "5"}, [2]string{"16K", "4"},
		[2]string{"16K", "5"}, [2]string{"16K", "4"}, [2]string{"16K", "5"},
		[2]string{"16K", "95"},
		[2]string{"4M", "200"}, [2]string{"4194304", "210"},
	)
	ag := &Aggregator{Keys: []string{"size"}, Value: "time", Filter: true, Sigma: 2}
	agg, err := ag.Aggregate(tab)
	require.NoError(t, err)
	require.Len(t, agg.Groups, 2, "size suffixes must merge with plain numbers")
	assert.Equal(t, 7, agg.Groups[0].Summary.RawCount)
	assert.Equal(t, 6, agg.Groups[0].Summary.KeptCount)
	assert.InDelta(t, 4.5, agg.Groups[0].Summary.Mean, 1e-9)
	assert.InDelta(t, 205, agg.Groups[1].Summary.Mean, 1e-9)
	x, ok := agg.Groups[1].X()
	assert.True(t, ok)
	assert.Equal(t, 4194304.0, x)
}

func TestAggregateOrders(t *testing.T) {
	tab := latfmt.NewTable("pattern.csv", "type", "stride", "cycles")
	for _, r := range [][]string{
		{"stride", "64", "3"},
		{"random", "NA", "90"},
		{"sequential", "NA", "1"},
		{"stride", "8", "2"},
		{"stride", "512", "12"},
		{"zigzag", "8", "7"},
	} {
		tab.AddRow(r...)
	}

	ag := &Aggregator{
		Keys:   []string{"type"},
		Value:  "cycles",
		Orders: map[string]Order{"type": FixedOrder("sequential", "random", "stride")},
	}
	agg, err := ag.Aggregate(tab)
	require.NoError(t, err)
	var got []string
	for _, g := range agg.Groups {
		got = append(got, g.Key[0])
	}
	assert.Equal(t, []string{"sequential", "random", "stride", "zigzag"}, got)

	// Without an order, non-numeric keys sort alphabetically rather
	// than by first appearance.
	ag = &Aggregator{Keys: []string{"type"}, Value: "cycles"}
	agg, err = ag.Aggregate(tab)
	require.NoError(t, err)
	got = got[:0]
	for _, g := range agg.Groups {
		got = append(got, g.Key[0])
	}
	assert.Equal(t, []string{"random", "sequential", "stride", "zigzag"}, got)

	// Two keys; rows with a missing stride are skipped with a warning.
	ag = &Aggregator{Keys: []string{"type", "stride"}, Value: "cycles"}
	agg, err = ag.Aggregate(tab)
	require.NoError(t, err)
	got = got[:0]
	for _, g := range agg.Groups {
		got = append(got, g.KeyString(ag.Keys))
	}
	assert.Equal(t, []string{"type:stride stride:8", "type:stride stride:64", "type:stride stride:512", "type:zigzag stride:8"}, got)
	require.Len(t, agg.Warnings, 1)
}

func TestAggregateWhere(t *testing.T) {
	tab := sweepTable(
		[2]string{"4K", "4"}, [2]string{"32K", "5"}, [2]string{"64K", "12"},
		[2]string{"64M", "180"}, [2]string{"128M", "190"},
	)
	hit, err := ParseRange("size<=32K")
	require.NoError(t, err)
	ag := &Aggregator{Value: "time", Where: []Range{hit}}
	agg, err := ag.Aggregate(tab)
	require.NoError(t, err)
	require.Len(t, agg.Groups, 1)
	assert.Equal(t, 2, agg.Groups[0].Summary.RawCount)
	assert.InDelta(t, 4.5, agg.Groups[0].Summary.Mean, 1e-9)

	miss, err := ParseRange("size>=64M")
	require.NoError(t, err)
	ag.Where = []Range{miss}
	agg, err = ag.Aggregate(tab)
	require.NoError(t, err)
	assert.InDelta(t, 185, agg.Groups[0].Summary.Mean, 1e-9)
}

func TestAggregateMissingColumn(t *testing.T) {
	tab := sweepTable([2]string{"1", "2"})
	for _, ag := range []*Aggregator{
		{Keys: []string{"size"}, Value: "cycles"},
		{Keys: []string{"stride"}, Value: "time"},
		{Value: "time", Where: []Range{{Column: "stride", Hi: 1}}},
	} {
		_, err := ag.Aggregate(tab)
		assert.True(t, errors.Is(err, latfmt.ErrMissingColumn), "got %v", err)
	}
}

func TestAggregateBadValues(t *testing.T) {
	tab := sweepTable([2]string{"1", "2"}, [2]string{"1", "oops"}, [2]string{"1", ""}, [2]string{"2", "7"})
	agg, err := (&Aggregator{Keys: []string{"size"}, Value: "time"}).Aggregate(tab)
	require.NoError(t, err)
	require.Len(t, agg.Groups, 2)
	assert.Equal(t, 1, agg.Groups[0].Summary.RawCount)
	assert.True(t, math.IsNaN(agg.Groups[0].Summary.Std))
	assert.NotEmpty(t, agg.Groups[0].Summary.Warnings)
	require.Len(t, agg.Warnings, 1)
	assert.Contains(t, agg.Warnings[0].Error(), "skipped 2 rows")
}

func TestAggregateParallelMatchesSequential(t *testing.T) {
	tab := latfmt.NewTable("big", "k", "v")
	for i := 0; i < 400; i++ {
		v := float64(i%7) + 10
		if i%53 == 0 {
			v = 500
		}
		tab.AddRow(string(rune('a'+i%13)), strconv.FormatFloat(v, 'f', -1, 64))
	}
	seq := &Aggregator{Keys: []string{"k"}, Value: "v", Filter: true, Sigma: 2}
	par := *seq
	par.Workers = 4

	a, err := seq.Aggregate(tab)
	require.NoError(t, err)
	b, err := par.Aggregate(tab)
	require.NoError(t, err)
	require.Equal(t, len(a.Groups), len(b.Groups))
	for i := range a.Groups {
		assert.Equal(t, a.Groups[i].Key, b.Groups[i].Key)
		assert.Equal(t, a.Groups[i].Summary.KeptCount, b.Groups[i].Summary.KeptCount)
		assert.Equal(t, a.Groups[i].Summary.Mean, b.Groups[i].Summary.Mean)
	}
}
