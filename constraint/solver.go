package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

type bodyState struct {
	body          *actor.RigidBody
	invMassMatrix Mat6

	// predicted is the velocity after integrating forces, start the one after the chain pass
	predicted Vec6
	start     Vec6

	correction Vec6
	pseudo     Vec6
	chained    bool
}

func (b *bodyState) velocity() Vec6 {
	return b.start.Add(b.correction)
}

// Solver resolves the contacts registered during a tick.
// It is used as AddConstraint* → Compute → UpdateAllBodies → Reset.
type Solver struct {
	log logrus.FieldLogger

	// Gravity is the magnitude of the world gravity, scaling the friction bound
	Gravity float64
	// SplitImpulse solves the positional correction on pseudo velocities
	SplitImpulse bool

	Cache *ContactCache

	states      []bodyState
	index       map[*actor.RigidBody]int32
	constraints []Entity
	rows        []row
	queue       []int32

	warned bool
}

func NewSolver(gravity float64, splitImpulse bool, log logrus.FieldLogger) *Solver {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Solver{
		log:          log,
		Gravity:      gravity,
		SplitImpulse: splitImpulse,
		Cache:        NewContactCache(),
		states:       make([]bodyState, 0, BODIES_MAX),
		index:        make(map[*actor.RigidBody]int32, BODIES_MAX),
		constraints:  make([]Entity, 0, 64),
	}
}

// ConstraintCount returns the number of contacts registered this tick
func (s *Solver) ConstraintCount() int {
	return len(s.constraints)
}

// AddConstraint registers a penetrating pair, e.Normal pointing from a to b.
// It returns false when the pair was dropped because a pool is full.
func (s *Solver) AddConstraint(a, b *actor.RigidBody, e *collision.Entity) bool {
	if e == nil || e.Distance >= 0 || e.HitPointCount() == 0 {
		return false
	}
	if len(s.constraints) >= CONSTRAINTS_MAX {
		s.warnOverflow("constraints", CONSTRAINTS_MAX)
		return false
	}

	indexA, okA := s.register(a)
	indexB, okB := s.register(b)
	if !okA || !okB {
		s.warnOverflow("bodies", BODIES_MAX)
		return false
	}

	s.constraints = append(s.constraints, Entity{
		BodyA:       indexA,
		BodyB:       indexB,
		Contact:     *e,
		restitution: ComputeRestitution(a.Material, b.Material),
		friction:    ComputeFriction(a.Material, b.Material),
		mass:        meanMass(a, b),
		firstRow:    -1,
	})

	return true
}

func (s *Solver) register(body *actor.RigidBody) (int32, bool) {
	if i, ok := s.index[body]; ok {
		return i, true
	}
	if len(s.states) >= BODIES_MAX {
		return -1, false
	}

	state := bodyState{body: body}
	if body.IsActive() {
		state.invMassMatrix = InverseMassMatrix(body.InverseMass, body.GetInverseInertiaWorld())
	}

	i := int32(len(s.states))
	s.states = append(s.states, state)
	s.index[body] = i

	return i, true
}

func (s *Solver) warnOverflow(pool string, capacity int) {
	if s.warned {
		return
	}
	s.warned = true
	s.log.WithFields(logrus.Fields{"pool": pool, "capacity": capacity}).Warn("solver pool exhausted, contacts dropped")
}

// Compute solves every registered contact over the step dt.
// Corrections are kept in the solver until UpdateAllBodies.
func (s *Solver) Compute(dt float64) {
	if dt <= 0 || len(s.constraints) == 0 {
		return
	}

	for i := range s.states {
		state := &s.states[i]
		linear, angular := state.body.PredictedVelocity(dt)
		state.predicted = Vec6{linear, angular}
		state.start = state.predicted
	}

	s.checkVelocityConstraint()

	s.rows = s.rows[:0]
	for i := range s.constraints {
		s.buildRows(&s.constraints[i], dt)
	}

	s.warmStart()

	for iteration := 0; iteration < ITERATIONS; iteration++ {
		for i := range s.rows {
			r := &s.rows[i]
			if r.effectiveMass == 0 {
				continue
			}

			delta := r.effectiveMass * (r.target - s.relativeVelocity(r))
			previous := r.lambda
			r.lambda = mgl64.Clamp(previous+delta, r.lo, r.hi)
			s.applyImpulse(r, r.lambda-previous)
		}
	}

	if s.SplitImpulse {
		for iteration := 0; iteration < ITERATIONS; iteration++ {
			for i := 0; i < len(s.rows); i += ROWS_PER_POINT {
				r := &s.rows[i]
				if r.effectiveMass == 0 || r.positionBias == 0 {
					continue
				}

				delta := r.effectiveMass * (r.positionBias - s.relativePseudoVelocity(r))
				previous := r.pseudoLambda
				r.pseudoLambda = math.Max(previous+delta, 0)
				s.applyPseudoImpulse(r, r.pseudoLambda-previous)
			}
		}
	}

	for i := range s.constraints {
		c := &s.constraints[i]
		if c.firstRow < 0 {
			continue
		}
		rows := s.rows[c.firstRow:]
		s.Cache.store(s.states[c.BodyA].body, s.states[c.BodyB].body, &c.Contact, func(point, kind int) float64 {
			return rows[point*ROWS_PER_POINT+kind].lambda
		})
	}
}

// warmStart applies the impulses of the previous tick to the pairs whose hit points did not move
func (s *Solver) warmStart() {
	for i := range s.constraints {
		c := &s.constraints[i]
		if c.firstRow < 0 {
			continue
		}

		info, ok := s.Cache.warmStart(s.states[c.BodyA].body, s.states[c.BodyB].body, &c.Contact)
		if !ok {
			continue
		}

		for point := 0; point < info.PointCount; point++ {
			for kind := 0; kind < ROWS_PER_POINT; kind++ {
				r := &s.rows[int(c.firstRow)+point*ROWS_PER_POINT+kind]
				r.lambda = mgl64.Clamp(info.Lambdas[point][kind], r.lo, r.hi)
				s.applyImpulse(r, r.lambda)
			}
		}
	}
}

// UpdateAllBodies hands the corrections to the constrained bodies, then integrates every given body
func (s *Solver) UpdateAllBodies(dt float64, bodies []*actor.RigidBody) {
	for i := range s.states {
		state := &s.states[i]
		if !state.body.IsActive() {
			continue
		}

		final := state.velocity()
		linear, angular := clampSmallVelocities(final.Linear, final.Angular)
		state.body.ApplyVelocityCorrection(linear.Sub(state.predicted.Linear), angular.Sub(state.predicted.Angular))
		state.body.AddPseudoVelocity(state.pseudo.Linear, state.pseudo.Angular)
	}

	for _, body := range bodies {
		body.Update(dt)
	}
}

// Reset empties the pools and evicts the stale cache entries
func (s *Solver) Reset() {
	s.states = s.states[:0]
	clear(s.index)
	s.constraints = s.constraints[:0]
	s.rows = s.rows[:0]
	s.warned = false
	s.Cache.sweep()
}
