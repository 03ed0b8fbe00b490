package ppl

import "math"

// Example computations (SPEC_FULL.md §3). Each is a Program: a plain Go
// function taking the terminal continuation and returning the first Thunk
// of a CPS computation built out of Sample/SampleWithFactor/Factor/Cache and
// the exit continuation. They
// exist to exercise every strategy against a known-correct posterior, for
// both the test suite and the CLI front-end's --program flag.

// TwoFairCoinsMatch flips two fair coins, conditions on them matching via a
// hard factor (log(1) when they agree, log(0) when they don't), and exits
// with the pair (spec.md §8 scenario 2). Enumeration eliminates the two
// non-matching branches outright — their log(0) factor drives their
// log-score to -Inf and so their accumulator weight to 0 — leaving all the
// mass on [true,true] and [false,false], each at 0.5. The non-matching
// pairs stay in the marginal's support with probability 0.
func TwoFairCoinsMatch(exit Cont) Thunk {
	return Sample(func(v1 Value) Thunk {
		return Sample(func(v2 Value) Thunk {
			logWeight := math.Log(0)
			if v1.(bool) == v2.(bool) {
				logWeight = math.Log(1)
			}
			return Factor(func() Thunk {
				return exit([]Value{v1, v2})
			}, logWeight)
		}, BernoulliERP, 0.5)
	}, BernoulliERP, 0.5)
}

// BernoulliMean draws a single coin with bias 0.7 and returns it directly.
// The simplest possible program exercising only Sample and Exit — forward
// sampling's canonical smoke test.
func BernoulliMean(exit Cont) Thunk {
	return Sample(exit, BernoulliERP, 0.7)
}

// WeightedRandomInteger draws an index in [0,5) and reweights it by
// log(v+1) via SampleWithFactor, biasing the posterior toward larger
// indices without a separate explicit factor statement — the idiomatic use
// of the combined sample+factor primitive (spec.md §4.2).
func WeightedRandomInteger(exit Cont) Thunk {
	return SampleWithFactor(exit, RandomIntegerERP, []Value{5}, func(v Value) float64 {
		return math.Log(float64(v.(int) + 1))
	})
}

// squareDeterministicCalls counts invocations of squareDeterministic across
// a process; CachedCounterDemo and cache_test.go use it to assert the
// underlying computation ran at most once per distinct argument.
var squareDeterministicCalls int

func squareDeterministic(args []Value) Value {
	squareDeterministicCalls++
	n := args[0].(int)
	return n * n
}

// CachedCounterDemo wraps a deterministic computation with Cache and calls
// the resulting cf twice with identical arguments, returning both results
// together with the process-wide squareDeterministicCalls count. One run
// adds exactly 1 to that count, not 2, demonstrating memoization (spec.md
// §4.7); the count reads 1 only when it started at 0.
func CachedCounterDemo(exit Cont) Thunk {
	return Cache(func(cfVal Value) Thunk {
		cf := cfVal.(CachedFn)
		return cf(func(first Value) Thunk {
			return cf(func(second Value) Thunk {
				return exit([]Value{first, second, squareDeterministicCalls})
			}, 4)
		}, 4)
	}, CacheDeterministic(squareDeterministic))
}

// hmmTransition[s] gives the unnormalized transition weights out of
// discrete latent state s, biased toward staying put or moving to a
// neighboring state.
var hmmTransition = [][]float64{
	{3, 1, 0},
	{1, 2, 1},
	{0, 1, 3},
}

// hmmObservations is the fixed continuous observation sequence
// HMMFilterDemo filters against.
var hmmObservations = []float64{0.9, 1.6, 2.3}

// HMMFilterDemo runs a three-step hidden Markov model over 3 discrete
// latent states: at each step the state transitions via hmmTransition, and
// a factor statement weighs the transition by how well the new state's
// mean (its own index, as a float) explains the corresponding continuous
// observation under unit-variance Gaussian noise. It returns the filtered
// state after the final observation.
//
// Because the latent state is discrete, this program is enumerable as well
// as filterable — it is the particle filter's and enumeration's shared
// stress case. Every execution passes through exactly len(hmmObservations)
// factor barriers before exit, satisfying the lockstep assumption
// documented on particleFilter.
func HMMFilterDemo(exit Cont) Thunk {
	return hmmStep(exit, 0, 0)
}

func hmmStep(exit Cont, step int, state int) Thunk {
	if step >= len(hmmObservations) {
		return exit(state)
	}
	return Sample(func(next Value) Thunk {
		s := next.(int)
		obs := hmmObservations[step]
		return Factor(func() Thunk {
			return hmmStep(exit, step+1, s)
		}, GaussianERP.Score([]Value{float64(s), 1.0}, obs))
	}, DiscreteERP, hmmTransition[state])
}
