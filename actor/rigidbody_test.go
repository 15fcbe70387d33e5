package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const dt = 1.0 / 60.0

func createTestBody(id string, mass float64) *RigidBody {
	return NewRigidBody(id, NewTransformAt(mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent()), &Sphere{Radius: 1}, mass, mgl64.Mat3{})
}

// =============================================================================
// NewRigidBody Tests
// =============================================================================

func TestNewRigidBody_Dynamic(t *testing.T) {
	rb := createTestBody("ball", 2)

	if rb.BodyType != BodyTypeDynamic || rb.IsStatic() {
		t.Errorf("BodyType = %v, want BodyTypeDynamic", rb.BodyType)
	}
	if !rb.IsActive() {
		t.Error("new dynamic body should be active")
	}
	if !floatEqual(rb.InverseMass, 0.5, 1e-12) {
		t.Errorf("InverseMass = %v, want 0.5", rb.InverseMass)
	}

	// Zero inertia is replaced by the shape inertia
	expected := (&Sphere{Radius: 1}).ComputeInertia(2)
	if !mat3Equal(rb.InertiaLocal, expected, 1e-12) {
		t.Errorf("InertiaLocal = %v, want %v", rb.InertiaLocal, expected)
	}
	if !mat3Equal(rb.InverseInertiaLocal, expected.Inv(), 1e-9) {
		t.Errorf("InverseInertiaLocal = %v", rb.InverseInertiaLocal)
	}

	// The current volume is a transformed copy
	sphere := rb.CurrentVolume.(*Sphere)
	if sphere == rb.OriginalVolume {
		t.Error("CurrentVolume must not alias OriginalVolume")
	}
	if !vec3Equal(sphere.Centre, mgl64.Vec3{1, 2, 3}, 1e-12) {
		t.Errorf("CurrentVolume centre = %v", sphere.Centre)
	}
	if rb.IDHash == 0 || rb.IDHash != createTestBody("ball", 1).IDHash {
		t.Error("IDHash must be a stable hash of the ID")
	}
}

func TestNewRigidBody_Static(t *testing.T) {
	tests := []struct {
		name string
		mass float64
	}{
		{"zero mass", 0},
		{"negative mass", -1},
		{"mass under epsilon", 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := createTestBody("static", tt.mass)

			if !rb.IsStatic() || rb.IsActive() {
				t.Error("body should be static")
			}
			if rb.InverseMass != 0 {
				t.Errorf("InverseMass = %v, want 0", rb.InverseMass)
			}
			if rb.GetInverseInertiaWorld() != (mgl64.Mat3{}) {
				t.Errorf("inverse inertia = %v, want zero", rb.GetInverseInertiaWorld())
			}
		})
	}
}

func TestSetStatic(t *testing.T) {
	rb := createTestBody("heavy", 5)
	rb.Velocity = mgl64.Vec3{1, 0, 0}
	rb.Sleep()

	rb.SetStatic()

	if !rb.IsStatic() || rb.IsSleeping || rb.InverseMass != 0 || rb.Velocity != (mgl64.Vec3{}) {
		t.Errorf("SetStatic() left a movable body: %+v", rb)
	}
	if rb.Mass != 5 {
		t.Errorf("Mass = %v, want 5", rb.Mass)
	}
	if rb.GetInverseInertiaWorld() != (mgl64.Mat3{}) {
		t.Errorf("inverse inertia = %v, want zero", rb.GetInverseInertiaWorld())
	}
}

func TestNewRigidBody_CustomInertia(t *testing.T) {
	inertia := mgl64.Diag3(mgl64.Vec3{1, 2, 4})
	rb := NewRigidBody("custom", NewTransform(), &Sphere{Radius: 1}, 1, inertia)

	if !mat3Equal(rb.InverseInertiaLocal, mgl64.Diag3(mgl64.Vec3{1, 0.5, 0.25}), 1e-12) {
		t.Errorf("InverseInertiaLocal = %v", rb.InverseInertiaLocal)
	}
}

// =============================================================================
// Update Tests
// =============================================================================

func TestUpdate_Force(t *testing.T) {
	rb := createTestBody("ball", 2)
	rb.AddForce(rb.Transform.Position, mgl64.Vec3{0, -19.62, 0})

	rb.Update(dt)

	// Semi-implicit Euler: the velocity is updated first
	expectedVelocity := mgl64.Vec3{0, -9.81 * dt, 0}
	if !vec3Equal(rb.Velocity, expectedVelocity, 1e-12) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, expectedVelocity)
	}
	expectedPosition := mgl64.Vec3{1, 2 - 9.81*dt*dt, 3}
	if !vec3Equal(rb.Transform.Position, expectedPosition, 1e-12) {
		t.Errorf("Position = %v, want %v", rb.Transform.Position, expectedPosition)
	}
	if rb.AccumulatedForce() != (mgl64.Vec3{}) {
		t.Error("forces must be cleared after Update")
	}
	if !rb.HasMoved() || !vec3Equal(rb.PreviousTransform.Position, mgl64.Vec3{1, 2, 3}, 1e-12) {
		t.Errorf("PreviousTransform = %v", rb.PreviousTransform.Position)
	}
}

func TestUpdate_MultipleSteps(t *testing.T) {
	rb := createTestBody("ball", 1)
	rb.Velocity = mgl64.Vec3{2, 0, 0}

	for i := 0; i < 60; i++ {
		rb.Update(dt)
	}

	if !vec3Equal(rb.Transform.Position, mgl64.Vec3{3, 2, 3}, 1e-9) {
		t.Errorf("Position = %v, want (3, 2, 3)", rb.Transform.Position)
	}
}

func TestUpdate_StaticDoesNotMove(t *testing.T) {
	rb := createTestBody("wall", 0)
	rb.AddForce(rb.Transform.Position, mgl64.Vec3{100, 0, 0})
	rb.AddVelocity(mgl64.Vec3{1, 0, 0})

	rb.Update(dt)

	if !vec3Equal(rb.Transform.Position, mgl64.Vec3{1, 2, 3}, 1e-12) || rb.Velocity != (mgl64.Vec3{}) {
		t.Errorf("static body moved: %v %v", rb.Transform.Position, rb.Velocity)
	}
	if rb.HasMoved() {
		t.Error("HasMoved() = true for a static body")
	}
}

func TestUpdate_PseudoVelocityIsNotRetained(t *testing.T) {
	rb := createTestBody("ball", 1)
	rb.AddPseudoVelocity(mgl64.Vec3{0, 6, 0}, mgl64.Vec3{})

	rb.Update(dt)
	if !floatEqual(rb.Transform.Position.Y(), 2.1, 1e-12) {
		t.Errorf("Position.Y = %v, want 2.1", rb.Transform.Position.Y())
	}
	if rb.Velocity != (mgl64.Vec3{}) {
		t.Errorf("Velocity = %v, pseudo velocity leaked", rb.Velocity)
	}

	rb.Update(dt)
	if !floatEqual(rb.Transform.Position.Y(), 2.1, 1e-12) {
		t.Errorf("Position.Y = %v, pseudo velocity applied twice", rb.Transform.Position.Y())
	}
}

func TestUpdate_AngularVelocity(t *testing.T) {
	rb := createTestBody("ball", 1)
	rb.AngularVelocity = mgl64.Vec3{0, math.Pi, 0}

	for i := 0; i < 60; i++ {
		rb.Update(dt)
	}

	// Half a turn around Y after one second
	if !floatEqual(rb.Transform.Rotation.Len(), 1, 1e-9) {
		t.Errorf("rotation not normalized: %v", rb.Transform.Rotation.Len())
	}
	rotated := rb.Transform.Rotation.Rotate(mgl64.Vec3{1, 0, 0})
	if !vec3Equal(rotated, mgl64.Vec3{-1, 0, 0}, 0.05) {
		t.Errorf("rotated X axis = %v, want about (-1, 0, 0)", rotated)
	}
	if !vec3Equal(rb.Transform.InverseRotation.Rotate(rotated), mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Error("InverseRotation is not refreshed")
	}
}

func TestAddForce_Torque(t *testing.T) {
	rb := createTestBody("ball", 1)

	// A force applied off centre also produces a torque
	rb.AddForce(rb.Transform.Position.Add(mgl64.Vec3{1, 0, 0}), mgl64.Vec3{0, 1, 0})
	linear, angular := rb.PredictedVelocity(dt)

	if !vec3Equal(linear, mgl64.Vec3{0, dt, 0}, 1e-12) {
		t.Errorf("predicted linear = %v", linear)
	}
	if !(angular.Z() > 0) || !floatEqual(angular.X(), 0, 1e-12) || !floatEqual(angular.Y(), 0, 1e-12) {
		t.Errorf("predicted angular = %v, want positive Z", angular)
	}
}

// =============================================================================
// Sleep Tests
// =============================================================================

func TestTrySleep(t *testing.T) {
	rb := createTestBody("ball", 1)

	for i := 1; i < 10; i++ {
		if rb.TrySleep(VELOCITY_SLEEPTOLERANCE, 10) {
			t.Fatalf("fell asleep after %d frames", i)
		}
	}
	if !rb.TrySleep(VELOCITY_SLEEPTOLERANCE, 10) || !rb.IsSleeping {
		t.Fatal("body should sleep after 10 resting frames")
	}
	if rb.IsActive() {
		t.Error("sleeping body must not be active")
	}
}

func TestTrySleep_MovementResetsCount(t *testing.T) {
	rb := createTestBody("ball", 1)

	for i := 0; i < 9; i++ {
		rb.TrySleep(VELOCITY_SLEEPTOLERANCE, 10)
	}
	rb.Velocity = mgl64.Vec3{1, 0, 0}
	rb.TrySleep(VELOCITY_SLEEPTOLERANCE, 10)
	rb.Velocity = mgl64.Vec3{}

	if rb.TrySleep(VELOCITY_SLEEPTOLERANCE, 10) {
		t.Error("count must restart after moving")
	}
}

func TestSleep_ClearsState(t *testing.T) {
	rb := createTestBody("ball", 1)
	rb.Velocity = mgl64.Vec3{1, 2, 3}
	rb.AngularVelocity = mgl64.Vec3{1, 0, 0}
	rb.AddForce(rb.Transform.Position, mgl64.Vec3{0, -10, 0})

	rb.Sleep()

	if rb.Velocity != (mgl64.Vec3{}) || rb.AngularVelocity != (mgl64.Vec3{}) || rb.AccumulatedForce() != (mgl64.Vec3{}) {
		t.Error("sleeping body must have zero velocity and no force")
	}

	rb.Update(dt)
	if !vec3Equal(rb.Transform.Position, mgl64.Vec3{1, 2, 3}, 1e-12) {
		t.Error("sleeping body moved")
	}
}

func TestWake(t *testing.T) {
	tests := []struct {
		name  string
		wake  func(rb *RigidBody)
		awake bool
	}{
		{"strong force", func(rb *RigidBody) { rb.AddForce(rb.Transform.Position, mgl64.Vec3{0, 10, 0}) }, true},
		{"weak force", func(rb *RigidBody) { rb.AddForce(rb.Transform.Position, mgl64.Vec3{0, 0.01, 0}) }, false},
		{"strong velocity", func(rb *RigidBody) { rb.AddVelocity(mgl64.Vec3{1, 0, 0}) }, true},
		{"weak velocity", func(rb *RigidBody) { rb.AddVelocity(mgl64.Vec3{0.01, 0, 0}) }, false},
		{"torque", func(rb *RigidBody) { rb.AddTorque(mgl64.Vec3{0, 0.01, 0}) }, true},
		{"teleport", func(rb *RigidBody) { rb.SetTransform(NewTransform()) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := createTestBody("ball", 1)
			rb.Sleep()

			tt.wake(rb)

			if rb.IsSleeping == tt.awake {
				t.Errorf("IsSleeping = %v, want %v", rb.IsSleeping, !tt.awake)
			}
		})
	}
}

func TestAddVelocity_Injected(t *testing.T) {
	rb := createTestBody("ball", 1)
	rb.AddVelocity(mgl64.Vec3{1, 0, 0})

	if rb.InjectedVelocity() != (mgl64.Vec3{1, 0, 0}) || rb.Velocity != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("InjectedVelocity = %v, Velocity = %v", rb.InjectedVelocity(), rb.Velocity)
	}

	rb.Update(dt)
	if rb.InjectedVelocity() != (mgl64.Vec3{}) {
		t.Error("injected velocity must only last one tick")
	}
}

// =============================================================================
// Inertia and Pair Tests
// =============================================================================

func TestGetInverseInertiaWorld_WithRotation(t *testing.T) {
	rb := NewRigidBody("box", NewTransformAt(mgl64.Vec3{}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})),
		NewOBB(mgl64.Vec3{}, mgl64.Vec3{2, 0.5, 1}), 12, mgl64.Mat3{})

	// local diag (5, 20, 17), X and Y swap in world space
	expected := mgl64.Diag3(mgl64.Vec3{1.0 / 20, 1.0 / 5, 1.0 / 17})
	if !mat3Equal(rb.GetInverseInertiaWorld(), expected, 1e-9) {
		t.Errorf("GetInverseInertiaWorld() = %v, want %v", rb.GetInverseInertiaWorld(), expected)
	}
}

func TestSetTransform(t *testing.T) {
	rb := createTestBody("ball", 1)
	rb.SetTransform(Transform{Position: mgl64.Vec3{0, 10, 0}})

	if rb.Transform.Rotation != mgl64.QuatIdent() {
		t.Errorf("zero rotation must be repaired, got %v", rb.Transform.Rotation)
	}
	if !rb.Bounds().ContainsPoint(mgl64.Vec3{0, 10.5, 0}) || rb.Bounds().ContainsPoint(mgl64.Vec3{1, 2, 3}) {
		t.Errorf("bounds not refreshed: %v", rb.Bounds())
	}
}

func TestPairKey(t *testing.T) {
	a, b, c := createTestBody("a", 1), createTestBody("b", 1), createTestBody("c", 1)

	if PairKey(a, b) != PairKey(b, a) {
		t.Error("PairKey must not depend on the order")
	}
	if PairKey(a, b) == PairKey(a, c) || PairKey(a, b) == PairKey(b, c) {
		t.Error("different pairs share a key")
	}
}
