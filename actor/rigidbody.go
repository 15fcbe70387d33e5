package actor

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeebo/xxh3"
)

const (
	// VELOCITY_SLEEPTOLERANCE is the speed under which a body counts as resting
	VELOCITY_SLEEPTOLERANCE = 0.05
	// SLEEPING_FRAMES is the number of consecutive resting ticks before sleeping (5s at 60Hz)
	SLEEPING_FRAMES = 300

	// Mass under which a body is considered static
	STATIC_MASS_EPSILON = 1e-9
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

type Material struct {
	Restitution float64 // 0= no rebound, 1= perfect restitution
	Friction    float64
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	ID string
	// IDHash is the xxh3 hash of ID, used to build pair keys
	IDHash uint64

	Enabled bool
	// TypeID is the type bit of the body, CollisionMask the type bits it collides with
	TypeID        uint32
	CollisionMask uint32
	// Trigger bodies report collisions but are never constrained
	IsTrigger bool

	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	Velocity        mgl64.Vec3 // Linear velocity (m/s)
	AngularVelocity mgl64.Vec3 // rad/s

	// pseudo velocities only move the body for one step, they are never retained
	pseudoVelocity        mgl64.Vec3
	pseudoAngularVelocity mgl64.Vec3
	injectedVelocity      mgl64.Vec3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	Mass                float64
	InverseMass         float64
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3
	inverseInertiaWorld mgl64.Mat3

	IsSleeping    bool
	sleepFrames   int
	WakeTolerance float64

	// Physical properties
	Material Material
	BodyType BodyType // Dynamic or Static

	// OriginalVolume is the immutable shape in local space,
	// CurrentVolume its world space copy owned by the body
	OriginalVolume Shape
	CurrentVolume  Shape
}

// NewRigidBody creates a new rigid body. A mass close to zero makes the body static.
// A zero inertia tensor is replaced by the inertia of the shape.
func NewRigidBody(id string, transform Transform, shape Shape, mass float64, inertia mgl64.Mat3) *RigidBody {
	transform.Normalize()

	rb := &RigidBody{
		ID:                id,
		IDHash:            xxh3.HashString(id),
		Enabled:           true,
		TypeID:            1,
		CollisionMask:     math.MaxUint32,
		PreviousTransform: transform,
		Transform:         transform,
		OriginalVolume:    shape,
		CurrentVolume:     shape.Clone(),
		WakeTolerance:     VELOCITY_SLEEPTOLERANCE,
	}

	if mass <= STATIC_MASS_EPSILON {
		rb.BodyType = BodyTypeStatic
	} else {
		rb.BodyType = BodyTypeDynamic
		rb.Mass = mass
		rb.InverseMass = 1.0 / mass

		if inertia == (mgl64.Mat3{}) {
			inertia = shape.ComputeInertia(mass)
		}
		rb.InertiaLocal = inertia
		if inertia.Det() != 0 {
			rb.InverseInertiaLocal = inertia.Inv()
		}
	}

	rb.updateInertiaWorld()
	rb.RefreshBoundingVolume()

	return rb
}

// SetStatic makes the body immovable. Mass and local inertia are kept for reference.
func (rb *RigidBody) SetStatic() {
	rb.BodyType = BodyTypeStatic
	rb.InverseMass = 0
	rb.IsSleeping = false
	rb.sleepFrames = 0
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.ClearForces()
	rb.updateInertiaWorld()
}

// IsStatic reports whether the body never integrates
func (rb *RigidBody) IsStatic() bool {
	return rb.BodyType == BodyTypeStatic
}

// IsActive reports whether the body is enabled, dynamic and awake
func (rb *RigidBody) IsActive() bool {
	return rb.Enabled && !rb.IsStatic() && !rb.IsSleeping
}

// TrySleep counts the consecutive resting ticks and puts the body to sleep after frames ticks.
// It returns true when the body falls asleep on this call.
func (rb *RigidBody) TrySleep(velocityTolerance float64, frames int) bool {
	if !rb.IsActive() {
		return false
	}

	if rb.Velocity.Len() < velocityTolerance && rb.AngularVelocity.Len() < velocityTolerance {
		rb.sleepFrames++
		if rb.sleepFrames >= frames {
			rb.Sleep()
			return true
		}
	} else {
		rb.sleepFrames = 0
	}

	return false
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.sleepFrames = 0

	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.pseudoVelocity = mgl64.Vec3{}
	rb.pseudoAngularVelocity = mgl64.Vec3{}
	rb.injectedVelocity = mgl64.Vec3{}
}

// Awake wakes a sleeping body, the resting count of an awake body is kept
func (rb *RigidBody) Awake() {
	if !rb.IsSleeping {
		return
	}
	rb.IsSleeping = false
	rb.sleepFrames = 0
}

// AddForce accumulates force applied at originPoint, with the matching torque, and wakes the body
func (rb *RigidBody) AddForce(originPoint mgl64.Vec3, force mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}
	if rb.IsSleeping && force.Len()*rb.InverseMass <= rb.WakeTolerance {
		return
	}

	rb.Awake()
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
	rb.accumulatedTorque = rb.accumulatedTorque.Add(originPoint.Sub(rb.Transform.Position).Cross(force))
}

// AddTorque accumulates a torque and wakes the body
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}

	rb.Awake()
	rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
}

// AddVelocity injects an external velocity change, remembered until the next Update
func (rb *RigidBody) AddVelocity(delta mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}
	if rb.IsSleeping {
		if delta.Len() <= rb.WakeTolerance {
			return
		}
		rb.Awake()
	}

	rb.Velocity = rb.Velocity.Add(delta)
	rb.injectedVelocity = rb.injectedVelocity.Add(delta)
}

// InjectedVelocity returns the external velocity change of the current tick
func (rb *RigidBody) InjectedVelocity() mgl64.Vec3 {
	return rb.injectedVelocity
}

// AddPseudoVelocity adds a correction that moves the body during the next Update only
func (rb *RigidBody) AddPseudoVelocity(linear, angular mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}

	rb.pseudoVelocity = rb.pseudoVelocity.Add(linear)
	rb.pseudoAngularVelocity = rb.pseudoAngularVelocity.Add(angular)
}

// ApplyVelocityCorrection adds solver corrections to the body velocities
func (rb *RigidBody) ApplyVelocityCorrection(linear, angular mgl64.Vec3) {
	if rb.IsStatic() || rb.IsSleeping {
		return
	}

	rb.Velocity = rb.Velocity.Add(linear)
	rb.AngularVelocity = rb.AngularVelocity.Add(angular)
}

// PredictedVelocity returns the velocities the body will have after integrating
// the accumulated forces over dt
func (rb *RigidBody) PredictedVelocity(dt float64) (mgl64.Vec3, mgl64.Vec3) {
	if !rb.IsActive() {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	linear := rb.Velocity.Add(rb.accumulatedForce.Mul(rb.InverseMass * dt))
	angular := rb.AngularVelocity.Add(rb.inverseInertiaWorld.Mul3x1(rb.accumulatedTorque).Mul(dt))

	return linear, angular
}

// Update integrates the body with semi-implicit Euler
func (rb *RigidBody) Update(dt float64) {
	rb.PreviousTransform = rb.Transform
	if !rb.IsActive() {
		rb.ClearForces()
		return
	}

	rb.Velocity = rb.Velocity.Add(rb.accumulatedForce.Mul(rb.InverseMass * dt))
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.inverseInertiaWorld.Mul3x1(rb.accumulatedTorque).Mul(dt))

	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Add(rb.pseudoVelocity).Mul(dt))

	omega := rb.AngularVelocity.Add(rb.pseudoAngularVelocity)
	if omega.LenSqr() > 0 {
		omegaQuat := mgl64.Quat{V: omega, W: 0}
		qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
		rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
		rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()
	}

	rb.ClearForces()
	rb.pseudoVelocity = mgl64.Vec3{}
	rb.pseudoAngularVelocity = mgl64.Vec3{}
	rb.injectedVelocity = mgl64.Vec3{}
	rb.updateInertiaWorld()
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// AccumulatedForce returns the force accumulated since the last Update
func (rb *RigidBody) AccumulatedForce() mgl64.Vec3 {
	return rb.accumulatedForce
}

// SetTransform teleports the body and refreshes its bounding volume
func (rb *RigidBody) SetTransform(transform Transform) {
	transform.Normalize()
	rb.PreviousTransform = rb.Transform
	rb.Transform = transform
	rb.updateInertiaWorld()
	rb.RefreshBoundingVolume()
	if !rb.IsStatic() {
		rb.Awake()
	}
}

// RefreshBoundingVolume recomputes the current volume from the original one and the transform
func (rb *RigidBody) RefreshBoundingVolume() {
	rb.CurrentVolume.ApplyTransform(rb.OriginalVolume, rb.Transform)
}

// Bounds returns the world AABB of the current volume
func (rb *RigidBody) Bounds() AABB {
	return rb.CurrentVolume.Bounds()
}

// HasMoved reports whether the last Update changed the transform
func (rb *RigidBody) HasMoved() bool {
	return rb.Transform.Position != rb.PreviousTransform.Position || rb.Transform.Rotation != rb.PreviousTransform.Rotation
}

// GetInverseInertiaWorld returns I_world^(-1) = R * I_local^(-1) * R^T
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	return rb.inverseInertiaWorld
}

func (rb *RigidBody) updateInertiaWorld() {
	if rb.IsStatic() {
		rb.inverseInertiaWorld = mgl64.Mat3{}
		return
	}

	R := rb.Transform.RotationMatrix()
	rb.inverseInertiaWorld = R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// PairKey returns a key identifying the unordered pair of bodies a and b
func PairKey(a, b *RigidBody) uint64 {
	lo, hi := a.IDHash, b.IDHash
	if lo > hi {
		lo, hi = hi, lo
	}

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], lo)
	binary.LittleEndian.PutUint64(buf[8:], hi)

	return xxh3.Hash(buf[:])
}
