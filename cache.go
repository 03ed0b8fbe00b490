package ppl

import "fmt"

// CachedFn is the CPS shape of a cacheable subcomputation (spec.md §4.7):
// given the continuation to resume and the arguments it is called with, it
// returns the next Thunk. Cache wraps one of these so that repeat calls
// with canonically-equal arguments skip straight to the stored result
// instead of re-running f.
type CachedFn func(k Cont, args ...Value) Thunk

// Cache delivers to k a wrapped computation cf (spec.md §4.7, §6
// "cache(k,f)"): on each call cf(k', args...) canonicalizes args and, if
// they were seen by an earlier call to this same cf, resumes k' directly
// with the stored result. Otherwise it invokes f with a continuation that
// stores the result before resuming k'.
//
// f must be deterministic; invoking the same cf from genuinely different
// branches of a program's execution silently violates inference semantics,
// since the engine cannot distinguish a legitimate repeat call from a
// stale hit left over from an abandoned branch — this is the documented
// caveat of the contract, not something Cache can detect.
func Cache(k Cont, f CachedFn) Thunk {
	table := make(map[string]Value)
	var cf CachedFn
	cf = func(k2 Cont, args ...Value) Thunk {
		return func() (Thunk, error) {
			key := canonicalKey(Value(args))
			if v, ok := table[key]; ok {
				return k2(v), nil
			}
			return f(func(v Value) Thunk {
				table[key] = v
				return k2(v)
			}, args...), nil
		}
	}
	return thunkOf(func() Thunk { return k(cf) })
}

// CacheDeterministic adapts a plain synchronous Go function into the
// CachedFn shape Cache expects, for the common case of a host-side
// computation that never suspends on its own (string formatting, array
// indexing, arithmetic) and so has no need to be expressed as further CPS.
func CacheDeterministic(fn func(args []Value) Value) CachedFn {
	return func(k Cont, args ...Value) Thunk {
		return thunkOf(func() Thunk { return k(fn(args)) })
	}
}

// CallPrimitive is the synchronous foreign-function bridge (spec.md §4.8,
// §6): it invokes f with args directly, on the native call stack, and
// resumes k with its result. Unlike sample/factor/exit, a primitive call
// never touches the installed strategy — it is not an effect the engine
// intercepts, just a plain escape hatch for deterministic host-side
// computation.
func CallPrimitive(k Cont, f func(args []Value) Value, args ...Value) Thunk {
	return thunkOf(func() Thunk { return k(f(args)) })
}

// Display resumes k with a human-readable rendering of x, for programs that
// want to surface an intermediate value without terminating (spec.md §6).
func Display(k Cont, x Value) Thunk {
	return CallPrimitive(k, func(args []Value) Value {
		return fmt.Sprintf("%v", args[0])
	}, x)
}
