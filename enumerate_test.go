package ppl_test

import (
	"math"
	"testing"

	"code.ppl.dev/ppl"
)

func TestEnumerateTwoFairCoinsMatchIsExact(t *testing.T) {
	var result *ppl.ERP
	err := ppl.Enumerate(func(erp *ppl.ERP) { result = erp }, ppl.TwoFairCoinsMatch)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	pMatch := math.Exp(result.Score(nil, []ppl.Value{true, true}))
	pMismatch := math.Exp(result.Score(nil, []ppl.Value{true, false}))
	if math.Abs(pMatch-0.5) > 1e-9 {
		t.Fatalf("P([true,true]) = %g, want exactly 0.5", pMatch)
	}
	if pMismatch != 0 {
		t.Fatalf("P([true,false]) = %g, want exactly 0 (eliminated by factor)", pMismatch)
	}
}

func TestEnumerateWeightedRandomIntegerFavorsLargerIndices(t *testing.T) {
	var result *ppl.ERP
	err := ppl.Enumerate(func(erp *ppl.ERP) { result = erp }, ppl.WeightedRandomInteger)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	p0 := math.Exp(result.Score(nil, 0))
	p4 := math.Exp(result.Score(nil, 4))
	if p4 <= p0 {
		t.Fatalf("P(4)=%g should exceed P(0)=%g under a log(v+1) factor", p4, p0)
	}
}

func TestEnumerateDepthFirstAndBreadthFirstAgreeWithBestFirst(t *testing.T) {
	var best, depth, breadth *ppl.ERP
	if err := ppl.Enumerate(func(e *ppl.ERP) { best = e }, ppl.TwoFairCoinsMatch); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if err := ppl.EnumerateDepthFirst(func(e *ppl.ERP) { depth = e }, ppl.TwoFairCoinsMatch); err != nil {
		t.Fatalf("EnumerateDepthFirst: %v", err)
	}
	if err := ppl.EnumerateBreadthFirst(func(e *ppl.ERP) { breadth = e }, ppl.TwoFairCoinsMatch); err != nil {
		t.Fatalf("EnumerateBreadthFirst: %v", err)
	}
	for _, v := range [][]ppl.Value{{true, true}, {false, false}} {
		pb, pd, pf := math.Exp(best.Score(nil, v)), math.Exp(depth.Score(nil, v)), math.Exp(breadth.Score(nil, v))
		if math.Abs(pb-pd) > 1e-9 || math.Abs(pb-pf) > 1e-9 {
			t.Fatalf("queue disciplines disagree at %v: best=%g depth=%g breadth=%g", v, pb, pd, pf)
		}
	}
}

func TestEnumerateMaxExecutionsTruncates(t *testing.T) {
	// RandomIntegerERP(5) with no factor has 5 branches at exit; a
	// maxExecutions of 1 must stop after exactly the first one completes.
	program := func(exit ppl.Cont) ppl.Thunk {
		return ppl.Sample(exit, ppl.RandomIntegerERP, 5)
	}
	var result *ppl.ERP
	err := ppl.Enumerate(func(erp *ppl.ERP) { result = erp }, program, 1)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	support, ok := result.Support(nil)
	if !ok {
		t.Fatal("expected finite support")
	}
	if len(support) != 1 {
		t.Fatalf("maxExecutions=1 should truncate to a single completed path, got %d", len(support))
	}
}

func TestEnumerateUnsupportedContinuousDistributionErrors(t *testing.T) {
	program := func(exit ppl.Cont) ppl.Thunk {
		return ppl.Sample(exit, ppl.GaussianERP, 0.0, 1.0)
	}
	err := ppl.Enumerate(func(*ppl.ERP) {}, program)
	if !ppl.IsKind(err, ppl.KindEnumerationUnsupported) {
		t.Fatalf("expected KindEnumerationUnsupported, got %v", err)
	}
}
