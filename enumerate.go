package ppl

import (
	"container/heap"
	"math"
)

// defaultMaxExecutions is the default bound on completed paths an
// enumeration run will explore before truncating (spec.md §4.5).
const defaultMaxExecutions = 1000

// frontierState is the enumeration state spec.md §3 defines: a
// continuation, the value it should be resumed with, and the cumulative
// log-score accrued up to (and including) that branch. It is owned by the
// frontier queue and destroyed on dequeue.
type frontierState struct {
	k     Cont
	value Value
	score float64
}

// frontier is the queue discipline enumeration explores its search tree
// with (spec.md §4.5): enqueue, dequeue, size. Three disciplines are
// provided below; all share the frontierState representation.
type frontier interface {
	push(frontierState)
	pop() frontierState
	size() int
}

// --- best-first ("likely-first"): priority queue keyed by score descending ---

type bestFirstFrontier struct{ items scoreHeap }

func newBestFirstFrontier() *bestFirstFrontier { return &bestFirstFrontier{} }

func (f *bestFirstFrontier) push(s frontierState) { heap.Push(&f.items, s) }
func (f *bestFirstFrontier) pop() frontierState   { return heap.Pop(&f.items).(frontierState) }
func (f *bestFirstFrontier) size() int            { return len(f.items) }

// scoreHeap is a container/heap max-heap on frontierState.score, so that
// the highest cumulative log-score is always dequeued next.
type scoreHeap []frontierState

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i].score > h[j].score }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x any)         { *h = append(*h, x.(frontierState)) }
func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// --- depth-first: LIFO stack ---

type stackFrontier struct{ items []frontierState }

func newStackFrontier() *stackFrontier { return &stackFrontier{} }

func (f *stackFrontier) push(s frontierState) { f.items = append(f.items, s) }
func (f *stackFrontier) size() int            { return len(f.items) }
func (f *stackFrontier) pop() frontierState {
	n := len(f.items)
	s := f.items[n-1]
	f.items = f.items[:n-1]
	return s
}

// --- breadth-first: FIFO queue ---

type queueFrontier struct {
	items []frontierState
	head  int
}

func newQueueFrontier() *queueFrontier { return &queueFrontier{} }

func (f *queueFrontier) push(s frontierState) { f.items = append(f.items, s) }
func (f *queueFrontier) size() int            { return len(f.items) - f.head }
func (f *queueFrontier) pop() frontierState {
	s := f.items[f.head]
	f.items[f.head] = frontierState{} // drop references so the dequeued slot can be collected
	f.head++
	return s
}

// enumStrategy is the exact enumeration strategy (spec.md §4.5): exhaustive
// best-first/depth-first/breadth-first exploration of every branch of
// every sampled distribution's support, weighted by accumulated log-score.
type enumStrategy struct {
	frontier      frontier
	currentScore  float64
	acc           *marginalAccumulator
	completed     int
	maxExecutions int
	hostK         func(*ERP)
}

func zeroScore(Value) float64 { return 0 }

// Sample requires dist.Support (else KindEnumerationUnsupported). For each
// v in the support it pushes a frontier state scored
// S + dist.Score(params, v), then dequeues the highest-priority state,
// restores its score into S, and resumes its continuation with its value.
func (e *enumStrategy) Sample(k Cont, dist *ERP, params []Value) Thunk {
	return e.sampleWithExtra(k, dist, params, zeroScore)
}

// SampleWithFactor is enumeration's FactorSampler override (spec.md §4.2,
// §9: "the intended call is against this", i.e. instance dispatch against
// the installed enumStrategy rather than a fresh fallback sample+factor
// pair). Folding scoreFn directly into the per-branch push means every
// branch's combined weight is computed once, instead of the generic
// fallback's extra round trip through Factor.
func (e *enumStrategy) SampleWithFactor(k Cont, dist *ERP, params []Value, scoreFn func(Value) float64) Thunk {
	return e.sampleWithExtra(k, dist, params, scoreFn)
}

func (e *enumStrategy) sampleWithExtra(k Cont, dist *ERP, params []Value, extra func(Value) float64) Thunk {
	return func() (Thunk, error) {
		support, ok, err := dist.supportSafe(params)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errEnumerationUnsupported(dist.Name())
		}
		for _, v := range support {
			score, err := dist.scoreSafe(params, v)
			if err != nil {
				return nil, err
			}
			e.frontier.push(frontierState{k: k, value: v, score: e.currentScore + score + extra(v)})
		}
		return e.popAndResume()
	}
}

// Factor updates S directly and resumes k() without touching the frontier
// queue — a factor statement never branches.
func (e *enumStrategy) Factor(k Cont0, s float64) Thunk {
	return func() (Thunk, error) {
		e.currentScore += s
		return k(), nil
	}
}

// Exit files exp(S) into the marginal accumulator under r's canonical key.
// If the frontier still has unexplored branches and the completed-path
// count has not reached maxExecutions, it dequeues the next branch and
// keeps going; otherwise it finalizes the marginal and delivers it to the
// host continuation.
func (e *enumStrategy) Exit(r Value) Thunk {
	return func() (Thunk, error) {
		e.acc.add(r, math.Exp(e.currentScore))
		e.completed++
		if e.frontier.size() > 0 && e.completed < e.maxExecutions {
			next := e.frontier.pop()
			e.currentScore = next.score
			return next.k(next.value), nil
		}
		marginal, err := makeMarginal(e.acc)
		if err != nil {
			return nil, err
		}
		e.hostK(marginal)
		return nil, nil
	}
}

// popAndResume dequeues the next frontier state and resumes it, or — if
// the frontier is exhausted with no execution ever reaching exit along
// this path (a distribution with empty support, for instance) — finalizes
// whatever the accumulator has collected so far.
func (e *enumStrategy) popAndResume() (Thunk, error) {
	if e.frontier.size() == 0 {
		marginal, err := makeMarginal(e.acc)
		if err != nil {
			return nil, err
		}
		e.hostK(marginal)
		return nil, nil
	}
	next := e.frontier.pop()
	e.currentScore = next.score
	return next.k(next.value), nil
}

func enumerateWith(k func(*ERP), program Program, fr frontier, maxExecutions ...int) error {
	maxN := defaultMaxExecutions
	if len(maxExecutions) > 0 && maxExecutions[0] > 0 {
		maxN = maxExecutions[0]
	}
	e := &enumStrategy{frontier: fr, acc: newMarginalAccumulator(), maxExecutions: maxN, hostK: k}
	return withStrategy(e, func() error {
		logger().Info("enumeration starting", "max_executions", maxN)
		err := runTrampoline(program(Exit))
		enumerationExecutionsTotal.Add(float64(e.completed))
		if err != nil {
			logger().Error("enumeration failed", "error", err, "executions", e.completed)
		} else {
			logger().Debug("enumeration completed", "executions", e.completed)
			logger().Info("enumeration finished", "executions", e.completed)
		}
		return err
	})
}

// Enumerate runs best-first ("likely-first") enumeration: the default
// queue discipline (spec.md §6: "Enumerate is an alias for best-first").
func Enumerate(k func(*ERP), program Program, maxExecutions ...int) error {
	return enumerateWith(k, program, newBestFirstFrontier(), maxExecutions...)
}

// EnumerateLikelyFirst is an explicit alias for Enumerate.
func EnumerateLikelyFirst(k func(*ERP), program Program, maxExecutions ...int) error {
	return enumerateWith(k, program, newBestFirstFrontier(), maxExecutions...)
}

// EnumerateDepthFirst runs enumeration with a LIFO frontier.
func EnumerateDepthFirst(k func(*ERP), program Program, maxExecutions ...int) error {
	return enumerateWith(k, program, newStackFrontier(), maxExecutions...)
}

// EnumerateBreadthFirst runs enumeration with a FIFO frontier.
func EnumerateBreadthFirst(k func(*ERP), program Program, maxExecutions ...int) error {
	return enumerateWith(k, program, newQueueFrontier(), maxExecutions...)
}
