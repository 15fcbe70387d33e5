package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape.
// The order is the canonical order used by the narrow phase dispatch table.
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeCapsule
	ShapeTypeAABB
	ShapeTypeOBB
	ShapeTypeTriangle
	ShapeTypeConvexMesh

	ShapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypeCapsule:
		return "capsule"
	case ShapeTypeAABB:
		return "aabb"
	case ShapeTypeOBB:
		return "obb"
	case ShapeTypeTriangle:
		return "triangle"
	case ShapeTypeConvexMesh:
		return "convex-mesh"
	}
	return "unknown"
}

// Shape is the interface that all collision shapes must implement
type Shape interface {
	Type() ShapeType
	// Center is the centre of the bounding sphere
	Center() mgl64.Vec3
	BoundingRadius() float64
	// DimensionOnAxis returns the half extent of the shape projected on axis
	DimensionOnAxis(axis mgl64.Vec3) float64
	// ClosestPoint returns the point of the volume closest to point,
	// which is point itself when it lies inside
	ClosestPoint(point mgl64.Vec3) mgl64.Vec3
	Bounds() AABB
	Clone() Shape
	// ApplyTransform overwrites the receiver with original moved by transform.
	// original must have the same concrete type as the receiver.
	ApplyTransform(original Shape, transform Transform)
	ComputeInertia(mass float64) mgl64.Mat3
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Centre mgl64.Vec3
	Radius float64
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

func (s *Sphere) Center() mgl64.Vec3 {
	return s.Centre
}

func (s *Sphere) BoundingRadius() float64 {
	return s.Radius
}

func (s *Sphere) DimensionOnAxis(axis mgl64.Vec3) float64 {
	return s.Radius
}

func (s *Sphere) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	dir := point.Sub(s.Centre)
	if dir.LenSqr() <= s.Radius*s.Radius {
		return point
	}

	return s.Centre.Add(dir.Normalize().Mul(s.Radius))
}

func (s *Sphere) Bounds() AABB {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	return AABB{
		Min: s.Centre.Sub(radiusVec),
		Max: s.Centre.Add(radiusVec),
	}
}

func (s *Sphere) Clone() Shape {
	c := *s
	return &c
}

func (s *Sphere) ApplyTransform(original Shape, transform Transform) {
	src := original.(*Sphere)
	s.Centre = transform.Apply(src.Centre)
	s.Radius = src.Radius
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// Pour une sphère : I = (2/5) * m * r²
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}
}

// Capsule is a segment swept by a sphere
type Capsule struct {
	Start  mgl64.Vec3
	End    mgl64.Vec3
	Radius float64
}

func (c *Capsule) Type() ShapeType {
	return ShapeTypeCapsule
}

func (c *Capsule) Center() mgl64.Vec3 {
	return c.Start.Add(c.End).Mul(0.5)
}

func (c *Capsule) BoundingRadius() float64 {
	return c.End.Sub(c.Start).Len()*0.5 + c.Radius
}

func (c *Capsule) DimensionOnAxis(axis mgl64.Vec3) float64 {
	return math.Abs(c.End.Sub(c.Start).Mul(0.5).Dot(axis)) + c.Radius
}

func (c *Capsule) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	onSegment := ClosestPointOnSegment(point, c.Start, c.End)
	dir := point.Sub(onSegment)
	if dir.LenSqr() <= c.Radius*c.Radius {
		return point
	}

	return onSegment.Add(dir.Normalize().Mul(c.Radius))
}

func (c *Capsule) Bounds() AABB {
	r := mgl64.Vec3{c.Radius, c.Radius, c.Radius}
	return AABB{Min: c.Start.Sub(r), Max: c.Start.Add(r)}.Union(AABB{Min: c.End.Sub(r), Max: c.End.Add(r)})
}

func (c *Capsule) Clone() Shape {
	clone := *c
	return &clone
}

func (c *Capsule) ApplyTransform(original Shape, transform Transform) {
	src := original.(*Capsule)
	c.Start = transform.Apply(src.Start)
	c.End = transform.Apply(src.End)
	c.Radius = src.Radius
}

// ComputeInertia approximates the capsule with a cylinder of the full capsule length
func (c *Capsule) ComputeInertia(mass float64) mgl64.Mat3 {
	segment := c.End.Sub(c.Start)
	length := segment.Len() + 2*c.Radius
	r2 := c.Radius * c.Radius

	axial := 0.5 * mass * r2
	perpendicular := mass * (3*r2 + length*length) / 12.0
	if segment.LenSqr() < 1e-12 {
		return mgl64.Diag3(mgl64.Vec3{axial, axial, axial}.Mul(0.8))
	}

	a := segment.Normalize()
	outer := mgl64.Mat3{
		a[0] * a[0], a[1] * a[0], a[2] * a[0],
		a[0] * a[1], a[1] * a[1], a[2] * a[1],
		a[0] * a[2], a[1] * a[2], a[2] * a[2],
	}

	return mgl64.Ident3().Mul(perpendicular).Add(outer.Mul(axial - perpendicular))
}
