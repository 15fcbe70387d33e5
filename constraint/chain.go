package constraint

import "math"

// checkVelocityConstraint spreads the velocities injected this tick through the chains of
// dynamic bodies touching along the injected direction. Members of a chain share the
// momentum weighted mean of their velocities along that axis, so that two chains pushed
// against each other meet at a common velocity. Chains leaning on a static body are left
// to the solver.
func (s *Solver) checkVelocityConstraint() {
	for i := range s.states {
		s.states[i].chained = false
	}

	for i := range s.states {
		root := &s.states[i]
		injected := root.body.InjectedVelocity()
		if root.chained || !root.body.IsActive() || injected.LenSqr() < 1e-12 {
			continue
		}
		axis := injected.Normalize()

		root.chained = true
		s.queue = append(s.queue[:0], int32(i))
		static := false

		for head := 0; head < len(s.queue); head++ {
			current := s.queue[head]
			for c := range s.constraints {
				constraint := &s.constraints[c]

				var other int32
				switch current {
				case constraint.BodyA:
					other = constraint.BodyB
				case constraint.BodyB:
					other = constraint.BodyA
				default:
					continue
				}
				if math.Abs(constraint.Contact.Normal.Dot(axis)) < CHAIN_ALIGNMENT {
					continue
				}

				state := &s.states[other]
				if !state.body.IsActive() {
					static = true
					continue
				}
				if !state.chained {
					state.chained = true
					s.queue = append(s.queue, other)
				}
			}
		}

		if static || len(s.queue) < 2 {
			continue
		}

		var momentum, mass float64
		for _, member := range s.queue {
			state := &s.states[member]
			momentum += state.body.Mass * state.start.Linear.Dot(axis)
			mass += state.body.Mass
		}
		if mass == 0 {
			continue
		}

		mean := momentum / mass
		for _, member := range s.queue {
			state := &s.states[member]
			along := state.start.Linear.Dot(axis)
			state.start.Linear = state.start.Linear.Add(axis.Mul(mean - along))
		}
	}
}
