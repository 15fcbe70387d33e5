package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and an orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at the given position and orientation
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	t := Transform{Position: position, Rotation: rotation}
	t.Normalize()

	return t
}

// Normalize repairs a zero-value rotation and refreshes the cached inverse rotation
func (t *Transform) Normalize() {
	if t.Rotation.W == 0 && t.Rotation.V.LenSqr() == 0 {
		t.Rotation = mgl64.QuatIdent()
	}
	t.Rotation = t.Rotation.Normalize()
	t.InverseRotation = t.Rotation.Inverse()
}

// Apply transforms a point from local space to world space
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(point).Add(t.Position)
}

// ApplyInverse transforms a point from world space to local space
func (t Transform) ApplyInverse(point mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(point.Sub(t.Position))
}

// RotationMatrix returns the 3x3 rotation matrix of the transform
func (t Transform) RotationMatrix() mgl64.Mat3 {
	return t.Rotation.Mat4().Mat3()
}
