// Package constraint solves contact constraints with a projected Gauss-Seidel solver
// over accumulated impulses, warm started from the previous tick.
package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// BODIES_MAX is the capacity of the body pool of a tick
	BODIES_MAX = 4096
	// CONSTRAINTS_MAX is the capacity of the contact pool of a tick
	CONSTRAINTS_MAX = 3 * BODIES_MAX

	// ITERATIONS is the fixed number of Gauss-Seidel sweeps
	ITERATIONS = 20
	// BAUMGARTE is the fraction of the penetration corrected per tick
	BAUMGARTE = 0.4
	// SLOP is the penetration left uncorrected to keep contacts alive
	SLOP = 0.01
	// RESTITUTION_THRESHOLD is the approach speed under which contacts do not bounce
	RESTITUTION_THRESHOLD = 1.0
	// CHAIN_ALIGNMENT is the minimal |dot| between a contact normal and an injected velocity
	// for bodies to be pushed together
	CHAIN_ALIGNMENT = 0.75
)

func ComputeRestitution(matA, matB actor.Material) float64 {
	// Average: a bouncy ball still bounces a little on a dull floor
	return (matA.Restitution + matB.Restitution) / 2.0
}

func ComputeFriction(matA, matB actor.Material) float64 {
	return (matA.Friction + matB.Friction) / 2.0
}

// meanMass returns the mean mass of the non static bodies of a pair
func meanMass(a, b *actor.RigidBody) float64 {
	switch {
	case a.IsStatic() && b.IsStatic():
		return 0
	case a.IsStatic():
		return b.Mass
	case b.IsStatic():
		return a.Mass
	}

	return (a.Mass + b.Mass) / 2.0
}

func clampSmallVelocities(v, w mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	const velocityThreshold = 1e-5

	if v.Len() < velocityThreshold {
		v = mgl64.Vec3{0, 0, 0}
	}
	if w.Len() < velocityThreshold {
		w = mgl64.Vec3{0, 0, 0}
	}

	return v, w
}
