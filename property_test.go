package ppl

import (
	"math"
	"math/rand/v2"
	"testing"
)

const propertyN = 1000

// TestPropertyMultinomialSampleRespectsWeights draws a large number of
// samples from a range of random theta vectors and checks the empirical
// distribution matches theta within a binomial confidence bound, mirroring
// TestDiscreteInverseCDFLaw but varying theta itself across trials.
func TestPropertyMultinomialSampleRespectsWeights(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))
	for trial := 0; trial < 20; trial++ {
		k := 2 + rng.IntN(4)
		theta := make([]float64, k)
		total := 0.0
		for i := range theta {
			theta[i] = 1 + rng.Float64()*9
			total += theta[i]
		}

		const draws = 20000
		counts := make([]int, k)
		for i := 0; i < draws; i++ {
			counts[MultinomialSample(theta)]++
		}
		for i, w := range theta {
			p := w / total
			mean := p * draws
			stddev := math.Sqrt(draws * p * (1 - p))
			if math.Abs(float64(counts[i])-mean) > 5*stddev+5 {
				t.Fatalf("trial %d index %d: got %d, want %g ± %g", trial, i, counts[i], mean, 5*stddev)
			}
		}
	}
}

// TestPropertyMultinomialSampleSkipsZeroWeightIndices: an index with theta=0
// must never be returned, including as the fallback for a trailing run of
// zeros (spec.md §9).
func TestPropertyMultinomialSampleSkipsZeroWeightIndices(t *testing.T) {
	theta := []float64{1, 0, 0}
	for i := 0; i < propertyN; i++ {
		if idx := MultinomialSample(theta); idx != 0 {
			t.Fatalf("expected index 0 every time (only positive weight), got %d", idx)
		}
	}
}

// TestPropertyResampleConservesParticleCount: after resample, the ensemble
// must have exactly N particles regardless of the log-weight distribution
// fed in, across many random weight vectors.
func TestPropertyResampleConservesParticleCount(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 0))
	for trial := 0; trial < propertyN/50; trial++ {
		n := 2 + rng.IntN(20)
		pf := &particleFilter{particles: make([]*particle, n)}
		for i := range pf.particles {
			pf.particles[i] = &particle{logWeight: rng.Float64()*10 - 5}
		}
		if err := pf.resample(); err != nil {
			t.Fatalf("trial %d: resample: %v", trial, err)
		}
		if len(pf.particles) != n {
			t.Fatalf("trial %d: resampled to %d particles, want %d", trial, len(pf.particles), n)
		}
	}
}

// TestPropertyLogSumExpMatchesDirectSum checks logSumExp against a direct
// (less numerically stable, but fine for the small magnitudes used here)
// computation.
func TestPropertyLogSumExpMatchesDirectSum(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 0))
	for i := 0; i < propertyN; i++ {
		n := 1 + rng.IntN(5)
		xs := make([]float64, n)
		direct := 0.0
		for j := range xs {
			xs[j] = rng.Float64()*10 - 5
			direct += math.Exp(xs[j])
		}
		want := math.Log(direct)
		got := logSumExp(xs)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("logSumExp(%v) = %g, want %g", xs, got, want)
		}
	}
}
