package collision

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

type polyhedronKind int

const (
	polyBox polyhedronKind = iota
	polyTriangle
	polyMesh
)

// polyhedron is a flat view over the box, triangle and mesh shapes,
// backed by scratch arrays so that building it never allocates
type polyhedron struct {
	kind   polyhedronKind
	box    actor.OBB
	mesh   *actor.ConvexMesh
	centre mgl64.Vec3

	vertices  []mgl64.Vec3
	cornerBuf [8]mgl64.Vec3
	triBuf    [12]actor.Triangle
}

func (p *polyhedron) set(shape actor.Shape) {
	p.mesh = nil

	switch s := shape.(type) {
	case *actor.AABB:
		p.setBox(actor.OBBFromAABB(*s))
	case *actor.OBB:
		p.setBox(*s)
	case *actor.Triangle:
		p.kind = polyTriangle
		p.triBuf[0] = *s
		p.cornerBuf[0], p.cornerBuf[1], p.cornerBuf[2] = s.Points[0], s.Points[1], s.Points[2]
		p.vertices = p.cornerBuf[:3]
		p.centre = s.Center()
	case *actor.ConvexMesh:
		p.kind = polyMesh
		p.mesh = s
		p.vertices = s.Vertices
		p.centre = s.Center()
	}
}

func (p *polyhedron) setBox(box actor.OBB) {
	p.kind = polyBox
	p.box = box
	p.cornerBuf = box.Corners()
	p.triBuf = box.Triangles()
	p.vertices = p.cornerBuf[:]
	p.centre = box.Centre
}

func (p *polyhedron) triangleCount() int {
	switch p.kind {
	case polyBox:
		return 12
	case polyTriangle:
		return 1
	default:
		return p.mesh.TriangleCount()
	}
}

func (p *polyhedron) triangle(i int) actor.Triangle {
	if p.kind == polyMesh {
		return p.mesh.Triangle(i)
	}

	return p.triBuf[i]
}

// solid reports whether the polyhedron encloses a volume
func (p *polyhedron) solid() bool {
	return p.kind != polyTriangle
}

func (p *polyhedron) contains(point mgl64.Vec3, tolerance float64) bool {
	switch p.kind {
	case polyBox:
		return p.box.ContainsPoint(point, tolerance)
	case polyMesh:
		return p.mesh.ContainsPoint(point, tolerance)
	}

	return false
}

// faceCount returns the number of separating planes used by the containment fallback:
// the 6 box faces, both sides of a triangle, or every mesh face
func (p *polyhedron) faceCount() int {
	switch p.kind {
	case polyBox:
		return 6
	case polyTriangle:
		return 2
	default:
		return p.mesh.TriangleCount()
	}
}

// face returns the outward normal and a point of the i-th plane
func (p *polyhedron) face(i int) (mgl64.Vec3, mgl64.Vec3) {
	switch p.kind {
	case polyBox:
		axis := p.box.Axes[i/2]
		if i%2 == 1 {
			axis = axis.Mul(-1)
		}
		return axis, p.box.Centre.Add(axis.Mul(p.box.HalfExtents[i/2]))
	case polyTriangle:
		n := p.triBuf[0].Normal()
		if i == 1 {
			n = n.Mul(-1)
		}
		return n, p.triBuf[0].Points[0]
	default:
		return p.mesh.FaceNormal(i), p.mesh.Vertices[p.mesh.Indices[i*3]]
	}
}
