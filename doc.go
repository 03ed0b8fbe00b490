// Package ppl is a continuation-passing-style inference runtime for a small
// probabilistic programming language.
//
// A probabilistic computation is an ordinary Go function written against
// three primitives — [Sample], [Factor], and a program-supplied exit
// continuation — composed in continuation-passing style so control never
// returns up the native Go call stack. Three inference strategies interpret
// the same computation differently by installing themselves as the active
// coroutine and intercepting every Sample/Factor/exit call it makes:
//
//   - [Forward]: draws one execution from the program's prior; factor is
//     rejected.
//   - [Enumerate] (and [EnumerateDepthFirst], [EnumerateBreadthFirst]):
//     exhaustively explores every branch of every sampled distribution's
//     finite support, weighting each complete path by its accumulated
//     log-score.
//   - [ParticleFilter]: runs N interleaved copies of the computation,
//     resampling at each factor barrier via residual resampling.
//
// All three deliver their result the same way: a [*ERP] — marginal or
// delta — passed to a host-supplied continuation, never returned directly,
// since inference itself is CPS all the way down.
//
// # Distributions
//
// [ERP] is the uniform interface every distribution satisfies, built-in or
// runtime-constructed: [UniformERP], [BernoulliERP], [RandomIntegerERP],
// [GaussianERP], and [DiscreteERP] are the built-ins; [NewERP] constructs
// custom ones.
//
// # Trampolining
//
// Every dispatch method returns a [Thunk] rather than invoking a
// continuation directly; [runTrampoline] drives the resulting chain in a
// flat loop. This is what lets enumeration hold thousands of suspended
// branches and a particle filter interleave hundreds of particles without
// growing the Go call stack per step.
package ppl
