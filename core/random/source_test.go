package random

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSeedSameSequence(t *testing.T) {
	a := New(1480561820)
	b := New(1480561820)

	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Float64(), b.Float64())
		require.Equal(t, a.IntN(17), b.IntN(17))
	}
	assert.Equal(t, int64(1480561820), a.Seed())
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)

	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 100)
}

func TestFloat64Range(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		u := s.Float64()
		require.GreaterOrEqual(t, u, 0.0)
		require.Less(t, u, 1.0)
	}
}

func TestSampleFeatures(t *testing.T) {
	t.Run("all features consume no randomness", func(t *testing.T) {
		a := New(3)
		b := New(3)

		got := a.SampleFeatures(4, 0, nil)
		assert.Equal(t, []int{0, 1, 2, 3}, got)
		got = a.SampleFeatures(4, 9, got)
		assert.Equal(t, []int{0, 1, 2, 3}, got)

		assert.Equal(t, b.Float64(), a.Float64())
	})

	t.Run("subset is sorted and distinct", func(t *testing.T) {
		s := New(11)
		buf := make([]int, 0, 10)
		for trial := 0; trial < 200; trial++ {
			buf = s.SampleFeatures(10, 3, buf)
			require.Len(t, buf, 3)
			for i := 1; i < len(buf); i++ {
				require.Less(t, buf[i-1], buf[i])
			}
			for _, j := range buf {
				require.True(t, j >= 0 && j < 10)
			}
		}
	})

	t.Run("every feature is eventually drawn", func(t *testing.T) {
		s := New(5)
		seen := make(map[int]bool)
		for trial := 0; trial < 200; trial++ {
			for _, j := range s.SampleFeatures(6, 1, nil) {
				seen[j] = true
			}
		}
		assert.Len(t, seen, 6)
	})
}

func TestBootstrapMatchesPMF(t *testing.T) {
	pmf := []float64{0.4, 0.25, 0.15, 0.20}
	cdf := make([]float64, len(pmf))
	counts := make([]int, len(pmf))
	totals := make([]int, len(pmf))

	s := New(42)
	const rounds = 50000
	for r := 0; r < rounds; r++ {
		s.Bootstrap(pmf, cdf, counts)
		sum := 0
		for i, c := range counts {
			totals[i] += c
			sum += c
		}
		require.Equal(t, len(pmf), sum)
	}

	draws := float64(rounds * len(pmf))
	for i, p := range pmf {
		assert.InDelta(t, p, float64(totals[i])/draws, 1e-2, "row %d", i)
	}
}

func TestBootstrapSkipsZeroMass(t *testing.T) {
	pmf := []float64{0, 0.5, 0, 0.5, 0}
	cdf := make([]float64, len(pmf))
	counts := make([]int, len(pmf))

	s := New(9)
	for r := 0; r < 1000; r++ {
		s.Bootstrap(pmf, cdf, counts)
		assert.Zero(t, counts[0])
		assert.Zero(t, counts[2])
		assert.Zero(t, counts[4])
	}
}

func TestBootstrapAllZero(t *testing.T) {
	pmf := []float64{0, 0}
	counts := []int{7, 7}
	New(1).Bootstrap(pmf, make([]float64, 2), counts)
	assert.Equal(t, []int{0, 0}, counts)
	assert.False(t, math.IsNaN(pmf[0]))
}
