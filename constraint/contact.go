package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	rowNormal = iota
	rowTangent1
	rowTangent2
	// ROWS_PER_POINT is the normal row followed by two friction rows
	ROWS_PER_POINT
)

// Entity is a penetrating pair registered for one tick.
// Bodies are addressed by their index in the solver pool, the entity is a copy of the narrow phase result.
type Entity struct {
	BodyA   int32
	BodyB   int32
	Contact collision.Entity

	restitution float64
	friction    float64
	mass        float64
	firstRow    int32
}

// row is one scalar constraint J·V = target, bounded by [lo, hi]
type row struct {
	a, b int32
	jA   Vec6
	jB   Vec6
	// M^-1 J^T for each body
	mA Vec6
	mB Vec6

	effectiveMass float64
	target        float64
	positionBias  float64
	lo, hi        float64

	lambda       float64
	pseudoLambda float64
}

// buildRows appends the 3 rows of every hit point of c
func (s *Solver) buildRows(c *Entity, dt float64) {
	stateA := &s.states[c.BodyA]
	stateB := &s.states[c.BodyB]
	bodyA, bodyB := stateA.body, stateB.body

	normal := c.Contact.Normal
	if normal.LenSqr() == 0 {
		return
	}
	normal = normal.Normalize()
	tangent1, tangent2 := actor.TangentBasis(normal)
	axes := [ROWS_PER_POINT]mgl64.Vec3{normal, tangent1, tangent2}

	points := c.Contact.HitPoints()
	frictionBound := c.friction * c.mass * s.Gravity * dt / float64(len(points))
	penetration := c.Contact.Penetration()
	bias := BAUMGARTE * math.Max(penetration-SLOP, 0) / dt

	c.firstRow = int32(len(s.rows))
	for _, point := range points {
		rA := point.Sub(bodyA.Transform.Position)
		rB := point.Sub(bodyB.Transform.Position)

		for kind, axis := range axes {
			r := row{
				a:  c.BodyA,
				b:  c.BodyB,
				jA: Vec6{axis.Mul(-1), rA.Cross(axis).Mul(-1)},
				jB: Vec6{axis, rB.Cross(axis)},
			}
			r.mA = stateA.invMassMatrix.Mul6x1(r.jA)
			r.mB = stateB.invMassMatrix.Mul6x1(r.jB)

			k := r.jA.Dot(r.mA) + r.jB.Dot(r.mB)
			if k > 1e-12 {
				r.effectiveMass = 1.0 / k
			}

			if kind == rowNormal {
				r.lo, r.hi = 0, math.Inf(1)

				vn := s.relativeVelocity(&r)
				if -vn > RESTITUTION_THRESHOLD {
					r.target = c.restitution * -vn
				}
				if s.SplitImpulse {
					r.positionBias = bias
				} else {
					r.target += bias
				}
			} else {
				r.lo, r.hi = -frictionBound, frictionBound
			}

			s.rows = append(s.rows, r)
		}
	}
}

// relativeVelocity returns J·V with the velocities solved so far
func (s *Solver) relativeVelocity(r *row) float64 {
	a, b := &s.states[r.a], &s.states[r.b]
	return r.jA.Dot(a.velocity()) + r.jB.Dot(b.velocity())
}

func (s *Solver) relativePseudoVelocity(r *row) float64 {
	a, b := &s.states[r.a], &s.states[r.b]
	return r.jA.Dot(a.pseudo) + r.jB.Dot(b.pseudo)
}

// applyImpulse folds a change of lambda back into the body corrections
func (s *Solver) applyImpulse(r *row, delta float64) {
	a, b := &s.states[r.a], &s.states[r.b]
	a.correction = a.correction.Add(r.mA.Mul(delta))
	b.correction = b.correction.Add(r.mB.Mul(delta))
}

func (s *Solver) applyPseudoImpulse(r *row, delta float64) {
	a, b := &s.states[r.a], &s.states[r.b]
	a.pseudo = a.pseudo.Add(r.mA.Mul(delta))
	b.pseudo = b.pseudo.Add(r.mB.Mul(delta))
}
