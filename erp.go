package ppl

// ERP ("elementary random primitive") is the uniform interface every
// distribution implements (spec.md §3, §4.1): a deterministic score
// function, a possibly-absent finite support enumeration, and a sampler
// that is the only operation allowed to consult the PRNG.
//
// Distributions constructed at runtime (the marginal builder, see
// marginal.go) satisfy exactly the same interface as the built-ins below —
// ERP is the sole currency the engine trades in, never a concrete per-
// distribution type.
type ERP struct {
	name string

	sampleFn  func(params []Value) Value
	scoreFn   func(params []Value, v Value) float64
	supportFn func(params []Value) []Value // nil if the distribution is continuous
}

// NewERP constructs a custom distribution from its three operations.
// support may be nil for continuous distributions; enumeration (spec.md
// §4.5) fails with KindEnumerationUnsupported if it ever needs the support
// of such a distribution.
func NewERP(name string, sample func(params []Value) Value, score func(params []Value, v Value) float64, support func(params []Value) []Value) *ERP {
	return &ERP{name: name, sampleFn: sample, scoreFn: score, supportFn: support}
}

// Name returns the distribution's diagnostic name (used in error messages
// and metrics, never in control flow).
func (e *ERP) Name() string { return e.name }

// Sample draws a value consistent with the density.
func (e *ERP) Sample(params []Value) Value {
	return e.sampleFn(params)
}

// Score returns the log-density of v, or negative infinity if v is outside
// the distribution's support.
func (e *ERP) Score(params []Value, v Value) float64 {
	return e.scoreFn(params, v)
}

// Support returns the distribution's finite support, if it has one. The
// second return value is false for continuous distributions (no support
// function was supplied).
func (e *ERP) Support(params []Value) ([]Value, bool) {
	if e.supportFn == nil {
		return nil, false
	}
	return e.supportFn(params), true
}

// HasSupport reports whether this distribution can be enumerated.
func (e *ERP) HasSupport() bool { return e.supportFn != nil }

// degenerateParams panics with a KindDegenerateParameters EngineError. A
// built-in's sampleFn/scoreFn/supportFn calls this to reject out-of-domain
// parameters (spec.md §7 kind 4); sampleSafe/scoreSafe/supportSafe below are
// the recovery points. The Forward, Enumerate* and ParticleFilter strategies
// call distributions through them, so there the panic becomes an error at
// the strategy call site. The default strategy and direct calls to
// Sample/Score/Support do not recover it.
func degenerateParams(distName, detail string) {
	panic(newEngineError(KindDegenerateParameters, distName+": "+detail))
}

// sampleSafe calls Sample, converting a degenerateParams panic into a
// returned error instead of letting it unwind the trampoline's native
// call stack.
func (e *ERP) sampleSafe(params []Value) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(*EngineError); ok {
				err = ee
				return
			}
			panic(r)
		}
	}()
	v = e.sampleFn(params)
	return v, nil
}

// scoreSafe calls Score, converting a degenerateParams panic into a
// returned error the same way sampleSafe does.
func (e *ERP) scoreSafe(params []Value, v Value) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(*EngineError); ok {
				err = ee
				return
			}
			panic(r)
		}
	}()
	score = e.scoreFn(params, v)
	return score, nil
}

// supportSafe calls Support, converting a degenerateParams panic into a
// returned error the same way sampleSafe/scoreSafe do. A supportFn that
// validates its parameters (e.g. rejecting an out-of-domain theta) must
// panic through degenerateParams exactly like sampleFn/scoreFn, and
// enumeration needs that panic turned into an error before it ever reaches
// the trampoline, just as sampling and scoring do.
func (e *ERP) supportSafe(params []Value) (support []Value, ok bool, err error) {
	if e.supportFn == nil {
		return nil, false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(*EngineError); ok {
				err = ee
				return
			}
			panic(r)
		}
	}()
	support = e.supportFn(params)
	return support, true, nil
}
