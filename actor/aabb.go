package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box.
// It is used both as a bounds value and as a collision shape.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB builds an AABB from its centre and half extents
func NewAABB(centre, halfExtents mgl64.Vec3) *AABB {
	return &AABB{Min: centre.Sub(halfExtents), Max: centre.Add(halfExtents)}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// HalfExtents returns half the size of the box on each axis
func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Union returns the smallest AABB containing both boxes
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], other.Min[0]), math.Min(a.Min[1], other.Min[1]), math.Min(a.Min[2], other.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], other.Max[0]), math.Max(a.Max[1], other.Max[1]), math.Max(a.Max[2], other.Max[2])},
	}
}

func (a *AABB) Type() ShapeType {
	return ShapeTypeAABB
}

func (a *AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a *AABB) BoundingRadius() float64 {
	return a.HalfExtents().Len()
}

func (a *AABB) DimensionOnAxis(axis mgl64.Vec3) float64 {
	h := a.HalfExtents()
	return math.Abs(axis.X())*h.X() + math.Abs(axis.Y())*h.Y() + math.Abs(axis.Z())*h.Z()
}

func (a *AABB) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(point.X(), a.Min.X(), a.Max.X()),
		mgl64.Clamp(point.Y(), a.Min.Y(), a.Max.Y()),
		mgl64.Clamp(point.Z(), a.Min.Z(), a.Max.Z()),
	}
}

func (a *AABB) Bounds() AABB {
	return *a
}

func (a *AABB) Clone() Shape {
	c := *a
	return &c
}

// ApplyTransform rotates the corners of the original box and keeps their bounds,
// then translates the result by the transform position.
func (a *AABB) ApplyTransform(original Shape, transform Transform) {
	src := original.(*AABB)
	centre := src.Center()
	h := src.HalfExtents()

	var min, max mgl64.Vec3
	for i := 0; i < 8; i++ {
		corner := mgl64.Vec3{h.X(), h.Y(), h.Z()}
		if i&1 != 0 {
			corner[0] = -corner[0]
		}
		if i&2 != 0 {
			corner[1] = -corner[1]
		}
		if i&4 != 0 {
			corner[2] = -corner[2]
		}
		world := transform.Apply(centre.Add(corner))
		if i == 0 {
			min, max = world, world
			continue
		}
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], world[k])
			max[k] = math.Max(max[k], world[k])
		}
	}

	a.Min = min
	a.Max = max
}

func (a *AABB) ComputeInertia(mass float64) mgl64.Mat3 {
	return boxInertia(a.HalfExtents(), mass)
}

// boxInertia is I = (m/12) * (dimension1² + dimension2²) for a box
func boxInertia(halfExtents mgl64.Vec3, mass float64) mgl64.Mat3 {
	x := halfExtents.X() * 2
	y := halfExtents.Y() * 2
	z := halfExtents.Z() * 2

	factor := mass / 12.0
	ix := factor * (y*y + z*z)
	iy := factor * (x*x + z*z)
	iz := factor * (x*x + y*y)

	return mgl64.Mat3{
		ix, 0, 0,
		0, iy, 0,
		0, 0, iz,
	}
}
