package boost

import (
	"sort"
	"time"

	"github.com/ezoic/oddvibe/sklearn/tree"
)

// Report is the full result of one Fit call.
type Report struct {
	// Weights has one entry per input row, each >= 0, summing to 1.
	Weights []float64

	Iterations int // Rounds run
	Skipped    int // Rounds whose stump fit was degenerate

	// Center and Scale are the robust location and spread of the final
	// residuals. Scale never drops below ScaleFloor.
	Center     float64
	Scale      float64
	ScaleFloor float64

	// LastStump is the stump folded in the final effective round, nil when
	// every round was skipped.
	LastStump *tree.Stump

	// SelectionCounts holds how often each row was drawn across all
	// bootstrap rounds. It is nil unless bootstrap is enabled.
	SelectionCounts []int

	Duration time.Duration
}

// SelectionFrequencies returns SelectionCounts divided by the number of
// rounds, or nil when bootstrap was off.
func (r *Report) SelectionFrequencies() []float64 {
	if r.SelectionCounts == nil || r.Iterations == 0 {
		return nil
	}
	out := make([]float64, len(r.SelectionCounts))
	for i, c := range r.SelectionCounts {
		out[i] = float64(c) / float64(r.Iterations)
	}
	return out
}

// MostSuspicious returns the indices of the k rows with the smallest weights,
// lowest weight first. Ties keep row order.
func (r *Report) MostSuspicious(k int) []int {
	idx := make([]int, len(r.Weights))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return r.Weights[idx[a]] < r.Weights[idx[b]]
	})
	if k < 0 {
		k = 0
	}
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}
