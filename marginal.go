package ppl

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// marginalBin is one entry of the marginal accumulator: an unnormalized
// probability mass together with the representative value that produced
// the canonical key it is filed under (spec.md §3 "Marginal accumulator").
type marginalBin struct {
	weight float64
	value  Value
}

// marginalAccumulator maps a canonical serialization of a return value to
// its accumulated (unnormalized-probability, representative value). It is
// owned exclusively by the strategy building it, for the lifetime of one
// inference run; insertion order is preserved so that support() and
// sample()'s inverse-CDF scan iterate in first-seen order (spec.md §4.3:
// "order of key insertion into the marginal matches the order in which
// complete paths finish").
type marginalAccumulator struct {
	keys []string
	bins map[string]*marginalBin
}

func newMarginalAccumulator() *marginalAccumulator {
	return &marginalAccumulator{bins: make(map[string]*marginalBin)}
}

// add folds weight into the bin for v's canonical key, creating the bin
// (and remembering v as its representative value) if this is the first
// time v has been observed.
func (m *marginalAccumulator) add(v Value, weight float64) {
	key := canonicalKey(v)
	if bin, ok := m.bins[key]; ok {
		bin.weight += weight
		return
	}
	m.bins[key] = &marginalBin{weight: weight, value: v}
	m.keys = append(m.keys, key)
}

// makeMarginal is the sole publisher of marginal ERPs across all
// strategies (spec.md §4.3): it normalizes the accumulator's weights and
// wraps them as a discrete distribution over the set of observed values.
func makeMarginal(m *marginalAccumulator) (*ERP, error) {
	total := 0.0
	for _, k := range m.keys {
		total += m.bins[k].weight
	}
	if total <= 0 {
		return nil, errEmptyPosterior()
	}

	// Snapshot in insertion order so the returned ERP's closures do not
	// alias the accumulator, which stays owned by the strategy that built
	// it.
	type entry struct {
		value Value
		prob  float64
	}
	entries := make([]entry, len(m.keys))
	for i, k := range m.keys {
		entries[i] = entry{value: m.bins[k].value, prob: m.bins[k].weight / total}
	}

	sampleFn := func([]Value) Value {
		u := pseudoUniform()
		cum := 0.0
		for _, e := range entries {
			cum += e.prob
			if u < cum {
				return e.value
			}
		}
		return entries[len(entries)-1].value
	}
	scoreFn := func(_ []Value, v Value) float64 {
		for _, e := range entries {
			if reflect.DeepEqual(e.value, v) {
				return math.Log(e.prob)
			}
		}
		return math.Inf(-1)
	}
	supportFn := func([]Value) []Value {
		out := make([]Value, len(entries))
		for i, e := range entries {
			out[i] = e.value
		}
		return out
	}

	return NewERP("marginal", sampleFn, scoreFn, supportFn), nil
}

// pseudoUniform draws a uniform [0,1) variate for the marginal's own
// sample method. Split out from UniformERP because the marginal's sample
// is not itself parameterized (it has no params vector to carry bounds).
func pseudoUniform() float64 {
	return UniformERP.sampleFn([]Value{0.0, 1.0}).(float64)
}

// deltaERP returns a point-mass distribution scoring 0 at r and -Inf
// elsewhere, with no support function (spec.md §4.4): the ERP Forward
// delivers to its caller's continuation.
func deltaERP(r Value) *ERP {
	return NewERP("delta",
		func([]Value) Value { return r },
		func(_ []Value, v Value) float64 {
			if reflect.DeepEqual(v, r) {
				return 0
			}
			return math.Inf(-1)
		},
		nil,
	)
}

// canonicalKey serializes v into a string that is equal for two values iff
// they are structurally equal, independent of map key iteration order and
// using exact float64 bit patterns for numeric equality (spec.md §9:
// "exact bit-equality is the safest default; domain-specific tolerances
// are opt-in"). This replaces the teacher-language source's bare string
// serialization (spec.md §9) with a canonicalization scheme that is
// collision-resistant across value shapes (a slice and the string of its
// elements cannot collide, because every scalar carries a kind tag — b:,
// i:, u:, f:, s: — and slices, maps and structs are bracketed). The tag is
// the reflect kind family, not the Go type: integers of different widths
// share i:, and float32/float64 share f:.
func canonicalKey(v Value) string {
	return canonicalKeyValue(reflect.ValueOf(v))
}

func canonicalKeyValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}
	switch rv.Kind() {
	case reflect.Bool:
		return fmt.Sprintf("b:%v", rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("i:%d", rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("u:%d", rv.Uint())
	case reflect.Float32, reflect.Float64:
		// %x on a float64 renders the exact hex/bit representation, giving
		// bit-exact equality rather than decimal-rounding equality.
		return fmt.Sprintf("f:%x", rv.Float())
	case reflect.String:
		return fmt.Sprintf("s:%q", rv.String())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = canonicalKeyValue(rv.Index(i))
		}
		return "[" + joinParts(parts) + "]"
	case reflect.Map:
		type kv struct{ k, v string }
		pairs := make([]kv, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, kv{canonicalKeyValue(iter.Key()), canonicalKeyValue(iter.Value())})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })
		parts := make([]string, len(pairs))
		for i, p := range pairs {
			parts[i] = p.k + "=" + p.v
		}
		return "{" + joinParts(parts) + "}"
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return canonicalKeyValue(rv.Elem())
	case reflect.Struct:
		parts := make([]string, rv.NumField())
		for i := range parts {
			parts[i] = rv.Type().Field(i).Name + "=" + canonicalKeyValue(rv.Field(i))
		}
		return "{" + joinParts(parts) + "}"
	default:
		return fmt.Sprintf("?:%v", rv.Interface())
	}
}

func joinParts(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
