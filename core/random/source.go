// Package random provides the seeded random source used by the boosting engine.
//
// A Source is owned by exactly one call; nothing in oddvibe reads a
// process-wide generator, so two sources built from the same seed and driven
// through the same calls yield identical sequences.
package random

import (
	"math/rand/v2"
	"sort"
)

// Source is a deterministic PCG stream. It is not safe for concurrent use.
type Source struct {
	seed int64
	rng  *rand.Rand
}

// New creates a Source bound to seed.
func New(seed int64) *Source {
	return &Source{
		seed: seed,
		rng:  rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 { return s.seed }

// Float64 returns a uniform draw in [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// IntN returns a uniform draw in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int { return s.rng.IntN(n) }

// Perm returns a random permutation of [0, n).
func (s *Source) Perm(n int) []int { return s.rng.Perm(n) }

// SampleFeatures writes k distinct feature indices from [0, d) into dst in
// ascending order and returns it. When k <= 0 or k >= d every feature is
// returned and no randomness is consumed.
func (s *Source) SampleFeatures(d, k int, dst []int) []int {
	dst = dst[:0]
	if k <= 0 || k >= d {
		for j := 0; j < d; j++ {
			dst = append(dst, j)
		}
		return dst
	}

	// Partial Fisher-Yates over an identity slice.
	pool := make([]int, d)
	for j := range pool {
		pool[j] = j
	}
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(d-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	dst = append(dst, pool[:k]...)
	sort.Ints(dst)
	return dst
}

// Bootstrap draws len(pmf) rows with replacement according to pmf and writes
// each row's multiplicity into counts. cdf is scratch space of len(pmf).
// The pmf need not be normalized; rows with zero mass are never drawn.
func (s *Source) Bootstrap(pmf, cdf []float64, counts []int) {
	n := len(pmf)
	total := 0.0
	for i, p := range pmf {
		if p > 0 {
			total += p
		}
		cdf[i] = total
		counts[i] = 0
	}
	if total <= 0 {
		return
	}

	for k := 0; k < n; k++ {
		u := s.rng.Float64() * total
		// First index whose cumulative mass exceeds u.
		idx := sort.Search(n, func(i int) bool { return cdf[i] > u })
		if idx == n {
			idx = n - 1
		}
		counts[idx]++
	}
}
