// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latcurve

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisy(n int) []float64 {
	r := rand.New(rand.NewSource(1))
	y := make([]float64, n)
	for i := range y {
		y[i] = float64(i) + r.NormFloat64()
	}
	return y
}

func TestSmoothersShape(t *testing.T) {
	y := noisy(64)
	for _, s := range []Smoother{
		NoSmoothing{},
		MovingAverage{Window: 5},
		MovingAverage{Window: 4, Edge: EdgeRaw},
		MovingAverage{},
		DefaultSavitzkyGolay,
		SavitzkyGolay{Window: 7, Degree: 2, Edge: EdgeRaw},
	} {
		t.Run(s.String(), func(t *testing.T) {
			in := append([]float64(nil), y...)
			out := s.Smooth(in)
			require.Len(t, out, len(y))
			for i, v := range out {
				assert.False(t, math.IsNaN(v), "NaN at %d", i)
			}
			assert.Equal(t, y, in, "input modified")
		})
	}
}

func TestMovingAverage(t *testing.T) {
	constant := []float64{7, 7, 7, 7, 7, 7, 7}
	assert.Equal(t, constant, MovingAverage{Window: 3}.Smooth(constant))

	y := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, []float64{1.5, 2, 3, 4, 4.5}, MovingAverage{Window: 3}.Smooth(y))
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, MovingAverage{Window: 3, Edge: EdgeRaw}.Smooth(y))

	// Window 1 is the identity.
	assert.Equal(t, y, MovingAverage{Window: 1}.Smooth(y))

	assert.Equal(t, 1, AutoWindow(10))
	assert.Equal(t, 5, AutoWindow(100))
}

func TestSavitzkyGolayPolynomial(t *testing.T) {
	// A cubic is reproduced exactly by a degree-3 fit, edges
	// included.
	y := make([]float64, 30)
	for i := range y {
		x := float64(i)
		y[i] = 0.01*x*x*x - x + 3
	}
	got := DefaultSavitzkyGolay.Smooth(y)
	assert.InDeltaSlice(t, y, got, 1e-6)
}

func TestSavitzkyGolayShort(t *testing.T) {
	y := []float64{3, 1, 4, 1, 5}
	assert.Equal(t, y, DefaultSavitzkyGolay.Smooth(y))
}

func TestSavitzkyGolayValidate(t *testing.T) {
	assert.NoError(t, DefaultSavitzkyGolay.Validate())
	assert.NoError(t, SavitzkyGolay{Window: 10, Degree: 3}.Validate())
	assert.Error(t, SavitzkyGolay{Window: 5, Degree: 5}.Validate())
	assert.Error(t, SavitzkyGolay{Window: 1, Degree: 0}.Validate())
}

func TestParseEdgePolicy(t *testing.T) {
	p, err := ParseEdgePolicy("raw")
	require.NoError(t, err)
	assert.Equal(t, EdgeRaw, p)
	p, err = ParseEdgePolicy("")
	require.NoError(t, err)
	assert.Equal(t, EdgeShrink, p)
	_, err = ParseEdgePolicy("mirror")
	assert.Error(t, err)
}
