package benchmarks

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/boost"
	"github.com/ezoic/oddvibe/datasets"
	"github.com/ezoic/oddvibe/linear"
	"github.com/ezoic/oddvibe/robust"
)

// randomLinear builds an n × d problem with every tenth target inflated.
func randomLinear(n, d int, seed uint64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v := 0.0
		for j := 0; j < d; j++ {
			x := rng.Float64() * 10
			X.Set(i, j, x)
			v += float64(j+1) * x
		}
		v += rng.NormFloat64()
		if i%10 == 0 {
			v *= 50
		}
		y.SetVec(i, v)
	}
	return X, y
}

// BenchmarkBoosterScale measures one Fit across dataset sizes and options.
func BenchmarkBoosterScale(b *testing.B) {
	sizes := []struct {
		name     string
		samples  int
		features int
	}{
		{"1K_4", 1_000, 4},
		{"10K_8", 10_000, 8},
		{"50K_16", 50_000, 16},
	}

	for _, size := range sizes {
		X, y := randomLinear(size.samples, size.features, 42)

		b.Run(size.name, func(b *testing.B) {
			b.Run("Default", func(b *testing.B) {
				benchmarkFit(b, X, y, 100)
			})

			b.Run("FeatureSubset", func(b *testing.B) {
				benchmarkFit(b, X, y, 100, boost.WithMaxFeatures(size.features/2))
			})

			b.Run("Bootstrap", func(b *testing.B) {
				benchmarkFit(b, X, y, 100, boost.WithBootstrap(true))
			})

			b.Run("Tukey", func(b *testing.B) {
				benchmarkFit(b, X, y, 100, boost.WithPolicy(robust.Tukey()))
			})
		})
	}
}

func benchmarkFit(b *testing.B, X *mat.Dense, y *mat.VecDense, iterations int, opts ...boost.Option) {
	b.ReportAllocs()
	n, d := X.Dims()
	booster := boost.NewBooster(7, opts...)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := booster.FindOutlierWeights(X, y, iterations); err != nil {
			b.Fatalf("Failed to fit: %v", err)
		}
	}

	b.SetBytes(int64(n * d * 8))
	b.ReportMetric(float64(b.Elapsed().Nanoseconds())/float64(b.N*iterations), "ns/round")
}

// BenchmarkIterations shows that the cost of a Fit grows linearly in the
// number of rounds.
func BenchmarkIterations(b *testing.B) {
	X, y := randomLinear(2_000, 4, 3)
	for _, it := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("rounds_%d", it), func(b *testing.B) {
			benchmarkFit(b, X, y, it)
		})
	}
}

// BenchmarkParallelBoosters runs independent seeds concurrently on a shared
// read-only dataset.
func BenchmarkParallelBoosters(b *testing.B) {
	X, y := randomLinear(5_000, 8, 9)
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		seed := int64(0)
		for pb.Next() {
			seed++
			if _, err := boost.NewBooster(seed).FindOutlierWeights(X, y, 50); err != nil {
				b.Errorf("Failed to fit: %v", err)
				return
			}
		}
	})
}

// BenchmarkWeightedRefit covers the full pipeline: weights, then a weighted
// least squares refit.
func BenchmarkWeightedRefit(b *testing.B) {
	sample, err := datasets.DefaultCorruptedLinear().Generate()
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		weights, err := boost.NewBooster(1).FindOutlierWeights(sample.X, sample.Y, 500)
		if err != nil {
			b.Fatalf("Failed to fit: %v", err)
		}
		lr := linear.NewLinearRegression()
		if err := lr.FitWeighted(sample.X, sample.Y, weights); err != nil {
			b.Fatalf("Failed to refit: %v", err)
		}
	}
}
