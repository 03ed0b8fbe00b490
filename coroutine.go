package ppl

import "log/slog"

// Strategy is the interface every inference strategy implements. The
// process-wide coroutine slot (below) always holds exactly one Strategy;
// sample/factor/exit (the external dispatch functions, spec.md §4.2)
// forward to whichever Strategy is currently installed. This plays the
// role the teacher's F-bounded Handler interface plays for algebraic
// effects, narrowed to the three fixed operations this spec defines.
type Strategy interface {
	Sample(k Cont, dist *ERP, params []Value) Thunk
	Factor(k Cont0, logWeight float64) Thunk
	Exit(v Value) Thunk
}

// FactorSampler is an optional extension a Strategy may implement to
// override the default sampleWithFactor fallback (spec.md §4.2).
type FactorSampler interface {
	SampleWithFactor(k Cont, dist *ERP, params []Value, scoreFn func(Value) float64) Thunk
}

// coroutineStack is the process-wide coroutine slot (spec.md §3, §5): an
// explicit LIFO stack of installed strategies, owned by the engine rather
// than truly global mutable state. Each inference entry point pushes on
// install and pops on exit (success or error) — see withStrategy below.
var coroutineStack = []Strategy{defaultStrategy{}}

func currentStrategy() Strategy {
	return coroutineStack[len(coroutineStack)-1]
}

func pushStrategy(s Strategy) {
	coroutineStack = append(coroutineStack, s)
}

func popStrategy() {
	coroutineStack = coroutineStack[:len(coroutineStack)-1]
}

// withStrategy installs s for the duration of body, guaranteeing s is
// popped again — on success or on error — before withStrategy returns.
// This is the acquire/use/release shape the teacher's resource.go Bracket
// uses for exception-safe cleanup, specialized to the one resource the
// engine ever acquires: occupancy of the coroutine slot. It is also what
// makes the "coroutine-slot restoration" invariant (spec.md §8) hold even
// on the error path: the pop below runs via defer before this function's
// caller ever observes the error.
func withStrategy(s Strategy, body func() error) error {
	pushStrategy(s)
	logger().Debug("strategy installed", "depth", len(coroutineStack))
	defer func() {
		popStrategy()
		logger().Debug("strategy restored", "depth", len(coroutineStack))
	}()
	return body()
}

// defaultStrategy is installed when no inference is running. It passes
// sample straight through to the distribution and raises on factor
// (spec.md §4.2).
type defaultStrategy struct{}

func (defaultStrategy) Sample(k Cont, dist *ERP, params []Value) Thunk {
	return thunkOf(func() Thunk { return k(dist.Sample(params)) })
}

func (defaultStrategy) Factor(Cont0, float64) Thunk {
	return errThunk(errFactorOutsideInference())
}

func (defaultStrategy) Exit(Value) Thunk {
	return nil
}

// Sample dispatches a random draw to the currently installed strategy.
func Sample(k Cont, dist *ERP, params ...Value) Thunk {
	samplesTotal.WithLabelValues(strategyLabel()).Inc()
	return currentStrategy().Sample(k, dist, params)
}

// Factor dispatches a log-weight update to the currently installed
// strategy.
func Factor(k Cont0, logWeight float64) Thunk {
	factorsTotal.WithLabelValues(strategyLabel()).Inc()
	return currentStrategy().Factor(k, logWeight)
}

// Exit dispatches program termination to the currently installed strategy.
func Exit(v Value) Thunk {
	return currentStrategy().Exit(v)
}

// SampleWithFactor dispatches a combined draw-and-weight operation
// (spec.md §4.2). If the installed strategy implements FactorSampler, the
// override is used directly. Otherwise it falls back to: draw v ~ dist,
// then factor by scoreFn(v) before resuming k with v. The fallback
// preserves the semantics "draw from dist and weight by scoreFn(v)"
// regardless of which strategy is active.
func SampleWithFactor(k Cont, dist *ERP, params []Value, scoreFn func(Value) float64) Thunk {
	if fs, ok := currentStrategy().(FactorSampler); ok {
		return fs.SampleWithFactor(k, dist, params, scoreFn)
	}
	return Sample(func(v Value) Thunk {
		return Factor(func() Thunk { return k(v) }, scoreFn(v))
	}, dist, params...)
}

// strategyLabel names the currently installed strategy for metrics
// labeling (metrics.go). Kept cheap (a type switch, no reflection) since
// it runs on every sample/factor dispatch.
func strategyLabel() string {
	switch currentStrategy().(type) {
	case defaultStrategy:
		return "none"
	case *forwardStrategy:
		return "forward"
	case *enumStrategy:
		return "enumerate"
	case *particleFilter:
		return "particle_filter"
	default:
		return "unknown"
	}
}

var pplLogger = slog.Default()

// SetLogger replaces the engine's logging destination (SPEC_FULL.md §2.2).
// Safe to call before starting inference runs; the engine is single-
// threaded cooperative (spec.md §5) so there is no concurrent-run race to
// guard against here.
func SetLogger(l *slog.Logger) {
	if l != nil {
		pplLogger = l
	}
}

func logger() *slog.Logger { return pplLogger }
