// Package datasets generates synthetic regression data with planted
// outliers, for exercising the outlier weighting end to end.
package datasets

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ezoic/oddvibe/pkg/errors"
)

// Cluster is a Gaussian source of feature values.
type Cluster struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
}

// CorruptedLinear describes a linear target over two feature clusters with
// some rows scaled into gross outliers.
//
// Feature values are drawn row-major: the first NearFraction·Rows rows come
// from Near, the rest from Far. The target is Intercept + Coefficients·x.
// Every OutlierEvery-th row among the near rows has its target multiplied by
// OutlierFactor (times i+1 when GrowWithRow is set). Feature noise is added
// after the target is computed, so no row fits the plane exactly.
type CorruptedLinear struct {
	Rows          int       `yaml:"rows"`
	Intercept     float64   `yaml:"intercept"`
	Coefficients  []float64 `yaml:"coefficients"`
	Near          Cluster   `yaml:"near"`
	Far           Cluster   `yaml:"far"`
	NearFraction  float64   `yaml:"near_fraction"`
	OutlierEvery  int       `yaml:"outlier_every"`
	OutlierFactor float64   `yaml:"outlier_factor"`
	GrowWithRow   bool      `yaml:"grow_with_row"`
	FeatureNoise  float64   `yaml:"feature_noise"`
	TargetNoise   float64   `yaml:"target_noise"`
	Seed          int64     `yaml:"seed"`
}

// Sample is one generated dataset.
type Sample struct {
	X        *mat.Dense
	Y        *mat.VecDense
	Clean    []float64 // Target before corruption
	Outliers []int     // Corrupted rows, ascending
}

// DefaultCorruptedLinear returns the two-cluster scenario: 50 rows, two
// features, y = 0.75 + 2·x1 + 5.8·x2, 70% of the rows near 5 and the rest
// near 4000.3, and every fifth near row scaled by 1000·(i+1).
func DefaultCorruptedLinear() CorruptedLinear {
	return CorruptedLinear{
		Rows:          50,
		Intercept:     0.75,
		Coefficients:  []float64{2.0, 5.8},
		Near:          Cluster{Mean: 5.0, StdDev: 1.0},
		Far:           Cluster{Mean: 4000.3, StdDev: 90.0},
		NearFraction:  0.7,
		OutlierEvery:  5,
		OutlierFactor: 1000,
		GrowWithRow:   true,
		FeatureNoise:  1.0,
		Seed:          1480561820,
	}
}

// Validate checks the generator parameters.
func (c CorruptedLinear) Validate() error {
	const op = "CorruptedLinear.Validate"
	switch {
	case c.Rows <= 0:
		return errors.NewValueError(op, fmt.Sprintf("rows must be positive, got %d", c.Rows))
	case len(c.Coefficients) == 0:
		return errors.NewValueError(op, "at least one coefficient is required")
	case c.NearFraction < 0 || c.NearFraction > 1:
		return errors.NewValueError(op, fmt.Sprintf("near_fraction must be in [0, 1], got %v", c.NearFraction))
	case c.OutlierEvery < 0:
		return errors.NewValueError(op, fmt.Sprintf("outlier_every must be >= 0, got %d", c.OutlierEvery))
	case c.Near.StdDev < 0 || c.Far.StdDev < 0 || c.FeatureNoise < 0 || c.TargetNoise < 0:
		return errors.NewValueError(op, "standard deviations must be >= 0")
	}
	return nil
}

// Threshold returns the number of near rows.
func (c CorruptedLinear) Threshold() int {
	return int(c.NearFraction * float64(c.Rows))
}

// Generate draws a Sample. The same configuration always yields the same
// sample.
func (c CorruptedLinear) Generate() (*Sample, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	n, d := c.Rows, len(c.Coefficients)
	src := rand.NewPCG(uint64(c.Seed), uint64(c.Seed))
	noise := distuv.Normal{Mu: 0, Sigma: c.FeatureNoise, Src: src}

	xNoise := make([]float64, n*d)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			xNoise[i*d+j] = draw(noise)
		}
	}

	threshold := c.Threshold()
	near := distuv.Normal{Mu: c.Near.Mean, Sigma: c.Near.StdDev, Src: src}
	far := distuv.Normal{Mu: c.Far.Mean, Sigma: c.Far.StdDev, Src: src}
	flat := make([]float64, n*d)
	for k := range flat {
		if k < threshold*d {
			flat[k] = draw(near)
		} else {
			flat[k] = draw(far)
		}
	}

	targetNoise := distuv.Normal{Mu: 0, Sigma: c.TargetNoise, Src: src}
	clean := make([]float64, n)
	y := make([]float64, n)
	var outliers []int
	for i := 0; i < n; i++ {
		v := c.Intercept
		for j, b := range c.Coefficients {
			v += b * flat[i*d+j]
		}
		v += draw(targetNoise)
		clean[i] = v
		y[i] = v

		if c.OutlierEvery > 0 && i < threshold && i%c.OutlierEvery == 0 {
			factor := c.OutlierFactor
			if c.GrowWithRow {
				factor *= float64(i + 1)
			}
			y[i] = v * factor
			outliers = append(outliers, i)
		}
	}

	for k := range flat {
		flat[k] += xNoise[k]
	}

	return &Sample{
		X:        mat.NewDense(n, d, flat),
		Y:        mat.NewVecDense(n, y),
		Clean:    clean,
		Outliers: outliers,
	}, nil
}

// IsOutlier reports whether row i was corrupted.
func (s *Sample) IsOutlier(i int) bool {
	for _, o := range s.Outliers {
		if o == i {
			return true
		}
	}
	return false
}

// Inliers returns the uncorrupted row indices in ascending order.
func (s *Sample) Inliers() []int {
	n := s.Y.Len()
	out := make([]int, 0, n-len(s.Outliers))
	for i := 0; i < n; i++ {
		if !s.IsOutlier(i) {
			out = append(out, i)
		}
	}
	return out
}

// draw returns a sample, or the mean when the distribution is degenerate.
func draw(n distuv.Normal) float64 {
	if n.Sigma == 0 {
		return n.Mu
	}
	return n.Rand()
}
