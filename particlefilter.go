package ppl

import "math"

// particle is the mutable record spec.md §3 defines: a continuation (the
// resumption after the last factor, or the fresh start of the program),
// a log-weight, and a value that is set only at exit. Particles are owned
// exclusively by the particle filter; the slice has fixed length N
// throughout a run, individual entries are replaced wholesale on
// resampling.
type particle struct {
	pending   Thunk
	logWeight float64
	value     Value
}

func (p *particle) clone() *particle {
	return &particle{pending: p.pending, logWeight: p.logWeight, value: p.value}
}

// particleFilter is the sequential-importance-resampling strategy
// (spec.md §4.6): N interleaved copies of the user computation,
// synchronized at each factor point with residual resampling.
//
// Correctness of the round-robin scheme below assumes every particle's
// execution passes through the same number of factor/exit events in the
// same relative order — true of the HMM-style and discrete-conditioning
// programs spec.md §8 tests against, and of the source system's own
// ParticleFilter coroutine, but not a general guarantee for programs whose
// branches take divergent numbers of factor statements.
type particleFilter struct {
	particles []*particle
	active    int
	hostK     func(*ERP)
}

// Sample draws and resumes with no weight update: prior sampling between
// factor boundaries never touches a particle's log-weight.
func (pf *particleFilter) Sample(k Cont, dist *ERP, params []Value) Thunk {
	return func() (Thunk, error) {
		v, err := dist.sampleSafe(params)
		if err != nil {
			return nil, err
		}
		return k(v), nil
	}
}

// Factor adds s to the active particle's log-weight and stores k as its
// resumption. If the active particle is last (i == N-1), it resamples the
// whole ensemble and resets i to 0; otherwise it advances i by one. Either
// way it trampolines directly into the newly active particle's pending
// continuation.
func (pf *particleFilter) Factor(k Cont0, s float64) Thunk {
	return func() (Thunk, error) {
		active := pf.particles[pf.active]
		active.logWeight += s
		active.pending = wrapCont0(k)

		if pf.active == len(pf.particles)-1 {
			if err := pf.resample(); err != nil {
				return nil, err
			}
			pf.active = 0
		} else {
			pf.active++
		}
		return pf.particles[pf.active].pending, nil
	}
}

// Exit records r as the active particle's value. If it is not the last
// particle, it advances to and resumes the next one. If it is last, every
// particle has now produced a value — the marginal is built from those
// values, each contributing weight 1 (the particles' log-weights were
// already consumed by resamplings along the way), and delivered to the
// host continuation.
func (pf *particleFilter) Exit(r Value) Thunk {
	return func() (Thunk, error) {
		pf.particles[pf.active].value = r
		if pf.active != len(pf.particles)-1 {
			pf.active++
			return pf.particles[pf.active].pending, nil
		}

		acc := newMarginalAccumulator()
		for _, p := range pf.particles {
			acc.add(p.value, 1)
		}
		marginal, err := makeMarginal(acc)
		if err != nil {
			return nil, err
		}
		pf.hostK(marginal)
		return nil, nil
	}
}

func wrapCont0(k Cont0) Thunk {
	return func() (Thunk, error) { return k(), nil }
}

// resample performs residual resampling (Liu 2001, §3.4.4; spec.md §4.6).
// Given log-weights w_j and average log-weight W = logsumexp(w_j):
//  1. each particle deterministically retains floor(exp(logN + w_j - W)) copies
//  2. K = N - sum(retained) particles are drawn multinomially from the
//     residual weights r_j = exp(logN + w_j - W) - retained_j
//  3. every resulting particle's log-weight is reset to W - logN, spreading
//     the ensemble's total mass uniformly across the N survivors.
func (pf *particleFilter) resample() error {
	n := len(pf.particles)
	logWeights := make([]float64, n)
	for i, p := range pf.particles {
		logWeights[i] = p.logWeight
	}
	w := logSumExp(logWeights)
	if math.IsInf(w, -1) {
		return errEmptyPosterior()
	}

	expected := make([]float64, n)
	retained := make([]int, n)
	totalRetained := 0
	logN := math.Log(float64(n))
	for i, lw := range logWeights {
		e := math.Exp(logN + lw - w)
		expected[i] = e
		r := int(math.Floor(e))
		retained[i] = r
		totalRetained += r
	}

	resampled := make([]*particle, 0, n)
	for i, p := range pf.particles {
		for c := 0; c < retained[i]; c++ {
			resampled = append(resampled, p.clone())
		}
	}

	k := n - totalRetained
	if k > 0 {
		residual := make([]float64, n)
		for i := range residual {
			r := expected[i] - float64(retained[i])
			if r < 0 {
				r = 0
			}
			residual[i] = r
		}
		for c := 0; c < k; c++ {
			j := MultinomialSample(residual)
			resampled = append(resampled, pf.particles[j].clone())
		}
	}

	uniformLogWeight := w - logN
	for _, p := range resampled {
		p.logWeight = uniformLogWeight
	}
	pf.particles = resampled

	particleResamplingsTotal.Inc()
	particleFilterParticles.Set(float64(len(pf.particles)))
	logger().Debug("particle filter resampled", "particles", len(pf.particles), "residual_draws", k)
	return nil
}

// logSumExp computes log(sum(exp(xs))) in a numerically stable way. The
// math library proper is out of scope (spec.md §1: "general-purpose math
// utilities (logsumexp, sum)" are external collaborators specified only by
// interface); this is the engine's own minimal internal copy.
func logSumExp(xs []float64) float64 {
	max := math.Inf(-1)
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if math.IsInf(max, -1) {
		return math.Inf(-1)
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}

// ParticleFilter runs the sequential-importance-resampling strategy with N
// particles (spec.md §4.6, §6). Per spec.md §9's redesign note, the engine
// invokes the program entry N times, once per particle, rather than
// sharing one initial continuation across all particles.
func ParticleFilter(k func(*ERP), program Program, n int) error {
	if n <= 0 {
		return errDegenerateParameters("particle filter requires N > 0")
	}
	pf := &particleFilter{hostK: k}
	pf.particles = make([]*particle, n)
	for i := range pf.particles {
		pf.particles[i] = &particle{}
	}
	return withStrategy(pf, func() error {
		logger().Info("particle filter starting", "particles", n)
		for i := range pf.particles {
			pf.particles[i].pending = program(Exit)
		}
		pf.active = 0
		particleFilterParticles.Set(float64(n))

		err := runTrampoline(pf.particles[0].pending)
		if err != nil {
			logger().Error("particle filter failed", "error", err)
		} else {
			logger().Info("particle filter finished")
		}
		return err
	})
}
