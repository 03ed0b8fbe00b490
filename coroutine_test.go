package ppl

import "testing"

// TestCoroutineSlotRestoredOnSuccess and TestCoroutineSlotRestoredOnError
// check spec.md §8's coroutine-slot restoration invariant: whatever the
// outcome, the coroutine stack must return to exactly its pre-call depth
// (just defaultStrategy) once a strategy entry point returns.
func TestCoroutineSlotRestoredOnSuccess(t *testing.T) {
	before := len(coroutineStack)
	err := Forward(func(*ERP) {}, BernoulliMean)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(coroutineStack) != before {
		t.Fatalf("coroutine stack depth = %d, want %d", len(coroutineStack), before)
	}
}

func TestCoroutineSlotRestoredOnError(t *testing.T) {
	before := len(coroutineStack)
	// A factor inside Forward always errors (spec.md §4.4).
	program := func(exit Cont) Thunk {
		return Factor(func() Thunk { return exit(nil) }, 0)
	}
	err := Forward(func(*ERP) {}, program)
	if err == nil {
		t.Fatal("expected factor-outside-inference error")
	}
	if len(coroutineStack) != before {
		t.Fatalf("coroutine stack depth after error = %d, want %d", len(coroutineStack), before)
	}
}

func TestFactorAtTopLevelErrors(t *testing.T) {
	err := runTrampoline(Factor(func() Thunk { return nil }, 0))
	if !IsKind(err, KindFactorOutsideInference) {
		t.Fatalf("expected KindFactorOutsideInference, got %v", err)
	}
}

func TestSampleAtTopLevelUsesDefaultStrategy(t *testing.T) {
	var result Value
	err := runTrampoline(Sample(func(v Value) Thunk {
		result = v
		return nil
	}, BernoulliERP, 0.5))
	if err != nil {
		t.Fatalf("Sample at top level: %v", err)
	}
	if _, ok := result.(bool); !ok {
		t.Fatalf("expected a bool draw, got %T", result)
	}
}

func TestStrategyLabelMatchesInstalledStrategy(t *testing.T) {
	if strategyLabel() != "none" {
		t.Fatalf("default label = %q, want %q", strategyLabel(), "none")
	}
	var observed string
	err := Forward(func(*ERP) {}, func(exit Cont) Thunk {
		observed = strategyLabel()
		return exit(nil)
	})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if observed != "forward" {
		t.Fatalf("label during forward run = %q, want %q", observed, "forward")
	}
}
