package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// boxFaces lists the 12 outward CCW triangles of a box, as corner indices.
// Corner i has bit 0, 1 and 2 set when it lies on the positive side of axis 0, 1 and 2.
var boxFaces = [12][3]int{
	{1, 3, 7}, {1, 7, 5}, // +X
	{0, 4, 6}, {0, 6, 2}, // -X
	{2, 6, 7}, {2, 7, 3}, // +Y
	{0, 1, 5}, {0, 5, 4}, // -Y
	{4, 5, 7}, {4, 7, 6}, // +Z
	{0, 2, 3}, {0, 3, 1}, // -Z
}

// OBB represents an oriented box collision shape, defined by its centre,
// its half-extents and its three unit axes
type OBB struct {
	Centre      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Axes        [3]mgl64.Vec3
}

// NewOBB creates an OBB aligned with the world axes
func NewOBB(centre, halfExtents mgl64.Vec3) *OBB {
	return &OBB{
		Centre:      centre,
		HalfExtents: halfExtents,
		Axes:        [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

// OBBFromAABB views an AABB as an OBB with identity axes
func OBBFromAABB(a AABB) OBB {
	return OBB{
		Centre:      a.Min.Add(a.Max).Mul(0.5),
		HalfExtents: a.HalfExtents(),
		Axes:        [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

// Corners returns the 8 corners of the box in world space
func (o *OBB) Corners() [8]mgl64.Vec3 {
	var corners [8]mgl64.Vec3
	for i := range corners {
		p := o.Centre
		for k := 0; k < 3; k++ {
			extent := o.HalfExtents[k]
			if i&(1<<k) == 0 {
				extent = -extent
			}
			p = p.Add(o.Axes[k].Mul(extent))
		}
		corners[i] = p
	}

	return corners
}

// Triangles returns the 12 outward facing triangles of the box surface
func (o *OBB) Triangles() [12]Triangle {
	corners := o.Corners()

	var triangles [12]Triangle
	for i, face := range boxFaces {
		triangles[i] = Triangle{Points: [3]mgl64.Vec3{corners[face[0]], corners[face[1]], corners[face[2]]}}
	}

	return triangles
}

// Local returns the coordinates of point along the box axes, relative to its centre
func (o *OBB) Local(point mgl64.Vec3) mgl64.Vec3 {
	d := point.Sub(o.Centre)
	return mgl64.Vec3{d.Dot(o.Axes[0]), d.Dot(o.Axes[1]), d.Dot(o.Axes[2])}
}

// ContainsPoint reports whether point lies inside the box grown by tolerance
func (o *OBB) ContainsPoint(point mgl64.Vec3, tolerance float64) bool {
	local := o.Local(point)
	for k := 0; k < 3; k++ {
		if math.Abs(local[k]) > o.HalfExtents[k]+tolerance {
			return false
		}
	}

	return true
}

func (o *OBB) Type() ShapeType {
	return ShapeTypeOBB
}

func (o *OBB) Center() mgl64.Vec3 {
	return o.Centre
}

func (o *OBB) BoundingRadius() float64 {
	return o.HalfExtents.Len()
}

func (o *OBB) DimensionOnAxis(axis mgl64.Vec3) float64 {
	return o.HalfExtents[0]*math.Abs(o.Axes[0].Dot(axis)) +
		o.HalfExtents[1]*math.Abs(o.Axes[1].Dot(axis)) +
		o.HalfExtents[2]*math.Abs(o.Axes[2].Dot(axis))
}

func (o *OBB) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	local := o.Local(point)
	result := o.Centre
	for k := 0; k < 3; k++ {
		result = result.Add(o.Axes[k].Mul(mgl64.Clamp(local[k], -o.HalfExtents[k], o.HalfExtents[k])))
	}

	return result
}

func (o *OBB) Bounds() AABB {
	var extents mgl64.Vec3
	for j := 0; j < 3; j++ {
		for k := 0; k < 3; k++ {
			extents[j] += o.HalfExtents[k] * math.Abs(o.Axes[k][j])
		}
	}

	return AABB{Min: o.Centre.Sub(extents), Max: o.Centre.Add(extents)}
}

func (o *OBB) Clone() Shape {
	c := *o
	return &c
}

func (o *OBB) ApplyTransform(original Shape, transform Transform) {
	src := original.(*OBB)
	o.Centre = transform.Apply(src.Centre)
	o.HalfExtents = src.HalfExtents
	for k := 0; k < 3; k++ {
		o.Axes[k] = transform.Rotation.Rotate(src.Axes[k]).Normalize()
	}
}

func (o *OBB) ComputeInertia(mass float64) mgl64.Mat3 {
	local := boxInertia(o.HalfExtents, mass)
	r := mgl64.Mat3FromCols(o.Axes[0], o.Axes[1], o.Axes[2])

	return r.Mul3(local).Mul3(r.Transpose())
}
