package ppl

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the error conditions the engine can raise (spec.md §7).
type Kind int

const (
	// KindFactorOutsideInference: factor invoked with the default or
	// Forward strategy installed.
	KindFactorOutsideInference Kind = iota
	// KindEnumerationUnsupported: enumeration sampled from a distribution
	// with no finite support function.
	KindEnumerationUnsupported
	// KindEmptyPosterior: the marginal builder found total unnormalized
	// weight 0 — every path scored -Inf.
	KindEmptyPosterior
	// KindDegenerateParameters: a built-in distribution was called with
	// parameters outside its domain (e.g. Bernoulli(p) with p outside
	// [0,1], Gaussian sigma <= 0, Discrete with all-zero weights).
	KindDegenerateParameters
)

func (k Kind) String() string {
	switch k {
	case KindFactorOutsideInference:
		return "factor outside inference"
	case KindEnumerationUnsupported:
		return "enumeration requires finite support"
	case KindEmptyPosterior:
		return "empty posterior"
	case KindDegenerateParameters:
		return "degenerate parameters"
	default:
		return "unknown"
	}
}

// EngineError is the concrete error type raised by the engine. Its cause is
// wrapped with github.com/pkg/errors and carries a stack trace from the
// point of origin; formatting the cause (Unwrap) with %+v prints it, while
// EngineError's own Error string does not include it.
type EngineError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *EngineError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *EngineError) Unwrap() error { return e.cause }

// newEngineError constructs an EngineError whose cause has a stack trace
// attached via github.com/pkg/errors.WithStack, recording the originating
// frame.
func newEngineError(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message, cause: errors.WithStack(fmt.Errorf("%s", message))}
}

func errFactorOutsideInference() error {
	return newEngineError(KindFactorOutsideInference, "factor invoked with no inference strategy active")
}

func errEnumerationUnsupported(distName string) error {
	return newEngineError(KindEnumerationUnsupported, fmt.Sprintf("distribution %q has no support function", distName))
}

func errEmptyPosterior() error {
	return newEngineError(KindEmptyPosterior, "all execution paths scored -Inf")
}

func errDegenerateParameters(detail string) error {
	return newEngineError(KindDegenerateParameters, detail)
}

// IsKind reports whether err is an *EngineError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}
