package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle is a single face, also usable as a static collision shape
type Triangle struct {
	Points [3]mgl64.Vec3
}

// Normal returns the unit normal of the CCW triangle, or a zero vector when degenerate
func (t *Triangle) Normal() mgl64.Vec3 {
	n := t.Points[1].Sub(t.Points[0]).Cross(t.Points[2].Sub(t.Points[0]))
	if n.LenSqr() < 1e-24 {
		return mgl64.Vec3{}
	}

	return n.Normalize()
}

// Edge returns the i-th edge vector of the triangle
func (t *Triangle) Edge(i int) mgl64.Vec3 {
	return t.Points[(i+1)%3].Sub(t.Points[i])
}

func (t *Triangle) Type() ShapeType {
	return ShapeTypeTriangle
}

func (t *Triangle) Center() mgl64.Vec3 {
	return t.Points[0].Add(t.Points[1]).Add(t.Points[2]).Mul(1.0 / 3.0)
}

func (t *Triangle) BoundingRadius() float64 {
	c := t.Center()
	r := 0.0
	for _, p := range t.Points {
		r = math.Max(r, p.Sub(c).Len())
	}

	return r
}

func (t *Triangle) DimensionOnAxis(axis mgl64.Vec3) float64 {
	c := t.Center()
	d := 0.0
	for _, p := range t.Points {
		d = math.Max(d, math.Abs(p.Sub(c).Dot(axis)))
	}

	return d
}

func (t *Triangle) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	return ClosestPointOnTriangle(point, t.Points[0], t.Points[1], t.Points[2])
}

func (t *Triangle) Bounds() AABB {
	b := AABB{Min: t.Points[0], Max: t.Points[0]}
	for _, p := range t.Points[1:] {
		b = b.Union(AABB{Min: p, Max: p})
	}

	return b
}

func (t *Triangle) Clone() Shape {
	c := *t
	return &c
}

func (t *Triangle) ApplyTransform(original Shape, transform Transform) {
	src := original.(*Triangle)
	for i := range t.Points {
		t.Points[i] = transform.Apply(src.Points[i])
	}
}

// ComputeInertia treats the triangle as a sphere of its bounding radius
func (t *Triangle) ComputeInertia(mass float64) mgl64.Mat3 {
	i := (2.0 / 5.0) * mass * t.BoundingRadius() * t.BoundingRadius()
	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

// ConvexMesh is a closed convex polyhedron made of outward CCW triangles
type ConvexMesh struct {
	Vertices []mgl64.Vec3
	Indices  []int

	normals []mgl64.Vec3
	centre  mgl64.Vec3
	radius  float64
}

// NewConvexMesh builds a convex mesh; indices are triangle triples into vertices
func NewConvexMesh(vertices []mgl64.Vec3, indices []int) *ConvexMesh {
	m := &ConvexMesh{
		Vertices: append([]mgl64.Vec3(nil), vertices...),
		Indices:  append([]int(nil), indices[:len(indices)-len(indices)%3]...),
	}
	m.normals = make([]mgl64.Vec3, len(m.Indices)/3)
	m.refresh()

	return m
}

// NewConvexMeshFromOBB builds the 12 triangle mesh of a box
func NewConvexMeshFromOBB(box *OBB) *ConvexMesh {
	corners := box.Corners()
	indices := make([]int, 0, len(boxFaces)*3)
	for _, face := range boxFaces {
		indices = append(indices, face[0], face[1], face[2])
	}

	return NewConvexMesh(corners[:], indices)
}

func (m *ConvexMesh) refresh() {
	var sum mgl64.Vec3
	for _, v := range m.Vertices {
		sum = sum.Add(v)
	}
	if len(m.Vertices) > 0 {
		m.centre = sum.Mul(1.0 / float64(len(m.Vertices)))
	}

	m.radius = 0
	for _, v := range m.Vertices {
		m.radius = math.Max(m.radius, v.Sub(m.centre).Len())
	}

	for i := range m.normals {
		tri := m.Triangle(i)
		m.normals[i] = tri.Normal()
	}
}

// TriangleCount returns the number of faces
func (m *ConvexMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the i-th face
func (m *ConvexMesh) Triangle(i int) Triangle {
	return Triangle{Points: [3]mgl64.Vec3{
		m.Vertices[m.Indices[i*3]],
		m.Vertices[m.Indices[i*3+1]],
		m.Vertices[m.Indices[i*3+2]],
	}}
}

// FaceNormal returns the outward unit normal of the i-th face
func (m *ConvexMesh) FaceNormal(i int) mgl64.Vec3 {
	return m.normals[i]
}

// ContainsPoint reports whether point is behind every face plane, grown by tolerance
func (m *ConvexMesh) ContainsPoint(point mgl64.Vec3, tolerance float64) bool {
	for i, n := range m.normals {
		if n.LenSqr() == 0 {
			continue
		}
		if point.Sub(m.Vertices[m.Indices[i*3]]).Dot(n) > tolerance {
			return false
		}
	}

	return len(m.normals) > 0
}

func (m *ConvexMesh) Type() ShapeType {
	return ShapeTypeConvexMesh
}

func (m *ConvexMesh) Center() mgl64.Vec3 {
	return m.centre
}

func (m *ConvexMesh) BoundingRadius() float64 {
	return m.radius
}

func (m *ConvexMesh) DimensionOnAxis(axis mgl64.Vec3) float64 {
	d := 0.0
	for _, v := range m.Vertices {
		d = math.Max(d, math.Abs(v.Sub(m.centre).Dot(axis)))
	}

	return d
}

func (m *ConvexMesh) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	if m.ContainsPoint(point, 0) {
		return point
	}

	best := point
	bestDist := math.Inf(1)
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		c := tri.ClosestPoint(point)
		if d := c.Sub(point).LenSqr(); d < bestDist {
			bestDist = d
			best = c
		}
	}

	return best
}

func (m *ConvexMesh) Bounds() AABB {
	if len(m.Vertices) == 0 {
		return AABB{}
	}

	b := AABB{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b = b.Union(AABB{Min: v, Max: v})
	}

	return b
}

func (m *ConvexMesh) Clone() Shape {
	return &ConvexMesh{
		Vertices: append([]mgl64.Vec3(nil), m.Vertices...),
		Indices:  append([]int(nil), m.Indices...),
		normals:  append([]mgl64.Vec3(nil), m.normals...),
		centre:   m.centre,
		radius:   m.radius,
	}
}

// ApplyTransform reuses the receiver's slices, which a Clone of original sized correctly
func (m *ConvexMesh) ApplyTransform(original Shape, transform Transform) {
	src := original.(*ConvexMesh)
	if len(m.Vertices) != len(src.Vertices) || len(m.normals) != len(src.normals) {
		*m = *src.Clone().(*ConvexMesh)
	}
	m.Indices = src.Indices

	for i, v := range src.Vertices {
		m.Vertices[i] = transform.Apply(v)
	}
	for i, n := range src.normals {
		m.normals[i] = transform.Rotation.Rotate(n)
	}
	m.centre = transform.Apply(src.centre)
	m.radius = src.radius
}

// ComputeInertia approximates the mesh by its local bounding box
func (m *ConvexMesh) ComputeInertia(mass float64) mgl64.Mat3 {
	return boxInertia(m.Bounds().HalfExtents(), mass)
}
