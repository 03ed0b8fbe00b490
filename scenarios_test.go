package ppl_test

import (
	"math"
	"testing"

	"code.ppl.dev/ppl"
)

// The scenarios below are the engine's end-to-end acceptance tests: each
// names one concrete program/strategy/expectation triple rather than a
// general property, so a regression in any one of them points straight at
// which behavior broke.

func TestScenarioForwardBernoulliMean(t *testing.T) {
	trueCount := 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		var erp *ppl.ERP
		if err := ppl.Forward(func(e *ppl.ERP) { erp = e }, ppl.BernoulliMean); err != nil {
			t.Fatalf("Forward: %v", err)
		}
		if erp.Sample(nil).(bool) {
			trueCount++
		}
	}
	p := float64(trueCount) / trials
	if math.Abs(p-0.7) > 0.05 {
		t.Fatalf("empirical P(true) over %d forward draws = %g, want ≈0.7", trials, p)
	}
}

func TestScenarioEnumerateMatchingCoins(t *testing.T) {
	var erp *ppl.ERP
	if err := ppl.Enumerate(func(e *ppl.ERP) { erp = e }, ppl.TwoFairCoinsMatch); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	pMatch := math.Exp(erp.Score(nil, []ppl.Value{true, true}))
	pMismatch := math.Exp(erp.Score(nil, []ppl.Value{false, false}))
	if math.Abs(pMatch-0.5) > 1e-12 || math.Abs(pMismatch-0.5) > 1e-12 {
		t.Fatalf("marginal = {[true,true]: %g, [false,false]: %g}, want exactly 0.5 each", pMatch, pMismatch)
	}
	if p := math.Exp(erp.Score(nil, []ppl.Value{true, false})); p != 0 {
		t.Fatalf("P([true,false]) = %g, want exactly 0 (eliminated by the matching factor)", p)
	}
}

func TestScenarioEnumerateFactorWeightedInteger(t *testing.T) {
	var erp *ppl.ERP
	if err := ppl.Enumerate(func(e *ppl.ERP) { erp = e }, ppl.WeightedRandomInteger); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	support, ok := erp.Support(nil)
	if !ok || len(support) != 5 {
		t.Fatalf("expected 5-element support, got %v (ok=%v)", support, ok)
	}
	total := 0.0
	for _, v := range support {
		total += math.Exp(erp.Score(nil, v))
	}
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("marginal does not normalize: total = %g", total)
	}
}

func TestScenarioParticleFilterConsistency(t *testing.T) {
	var exact, approx *ppl.ERP
	if err := ppl.Enumerate(func(e *ppl.ERP) { exact = e }, ppl.WeightedRandomInteger); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if err := ppl.ParticleFilter(func(e *ppl.ERP) { approx = e }, ppl.WeightedRandomInteger, 500); err != nil {
		t.Fatalf("ParticleFilter: %v", err)
	}
	for _, v := range []ppl.Value{0, 1, 2, 3, 4} {
		pe := math.Exp(exact.Score(nil, v))
		pa := math.Exp(approx.Score(nil, v))
		if math.Abs(pe-pa) > 0.15 {
			t.Fatalf("P(%d): exact=%g particle-filter=%g differ by more than 0.15", v, pe, pa)
		}
	}
}

func TestScenarioEnumerateMaxExecutions(t *testing.T) {
	program := func(exit ppl.Cont) ppl.Thunk {
		return ppl.Sample(exit, ppl.RandomIntegerERP, 10)
	}
	var erp *ppl.ERP
	if err := ppl.Enumerate(func(e *ppl.ERP) { erp = e }, program, 3); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	support, ok := erp.Support(nil)
	if !ok || len(support) != 3 {
		t.Fatalf("maxExecutions=3 should yield a 3-element marginal, got %v (ok=%v)", support, ok)
	}
}

func TestScenarioCacheCounter(t *testing.T) {
	// Each call to CachedCounterDemo builds its own Cache table, so unlike
	// squareDeterministicCalls (a package-level counter shared across the
	// whole test binary), there is no cross-test cache-warming to account
	// for here. The precise at-most-once invocation law against a clean
	// counter is covered by TestCachedCounterDemoRunsUnderlyingComputationOnce.
	var erp *ppl.ERP
	if err := ppl.Forward(func(e *ppl.ERP) { erp = e }, ppl.CachedCounterDemo); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	values := erp.Sample(nil).([]ppl.Value)
	if values[0] != 16 || values[1] != 16 || values[0] != values[1] {
		t.Fatalf("both cached calls should agree and equal 16, got %v and %v", values[0], values[1])
	}
}
