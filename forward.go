package ppl

// forwardStrategy draws exactly one execution from the program's prior,
// rejecting any factor statement (spec.md §4.4). It never re-enters the
// program and never resamples.
type forwardStrategy struct {
	hostK func(*ERP)
}

func (s *forwardStrategy) Sample(k Cont, dist *ERP, params []Value) Thunk {
	return func() (Thunk, error) {
		v, err := dist.sampleSafe(params)
		if err != nil {
			return nil, err
		}
		return k(v), nil
	}
}

func (s *forwardStrategy) Factor(Cont0, float64) Thunk {
	return errThunk(newEngineError(KindFactorOutsideInference, "factor not permitted in forward sampling"))
}

func (s *forwardStrategy) Exit(v Value) Thunk {
	return thunkOf(func() Thunk {
		s.hostK(deltaERP(v))
		return nil
	})
}

// Forward runs the Forward strategy: it draws exactly one sample from the
// program's prior, rejecting any factor, and delivers a delta ERP scoring
// 0 at the returned value and -Inf elsewhere to k (spec.md §4.4, §6).
func Forward(k func(*ERP), program Program) error {
	s := &forwardStrategy{hostK: k}
	return withStrategy(s, func() error {
		logger().Info("forward run starting")
		err := runTrampoline(program(Exit))
		if err != nil {
			logger().Error("forward run failed", "error", err)
		} else {
			logger().Info("forward run finished")
		}
		return err
	})
}
