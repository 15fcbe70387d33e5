// Package collision implements the narrow phase: pairwise tests between shapes producing a Response.
//
// Spheres and capsules are tested analytically through closest points. Boxes, triangles and
// convex meshes are tested with the Separating Axis Theorem; meshes are decomposed into their
// triangles. Hit points come from exact triangle-triangle intersections between the faces of both
// shapes, completed by the vertices of one solid lying inside the other.
package collision

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// Context holds the scratch state of the narrow phase.
// It is owned by its caller and must not be shared between goroutines.
type Context struct {
	log logrus.FieldLogger

	polyA polyhedron
	polyB polyhedron
	axes  [15]mgl64.Vec3

	trianglesTested int
	truncated       bool
}

// NewContext creates a narrow phase context logging truncations to log
func NewContext(log logrus.FieldLogger) *Context {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Context{log: log}
}

type pairFunc func(c *Context, a, b actor.Shape, e *Entity) bool

// dispatch is indexed in canonical order: dispatch[i][j] is set for i <= j only
var dispatch [actor.ShapeTypeCount][actor.ShapeTypeCount]pairFunc

func init() {
	round := []actor.ShapeType{actor.ShapeTypeSphere, actor.ShapeTypeCapsule}
	boxes := []actor.ShapeType{actor.ShapeTypeAABB, actor.ShapeTypeOBB}

	for i, a := range round {
		for _, b := range round[i:] {
			dispatch[a][b] = collideRoundRound
		}
		for b := actor.ShapeTypeAABB; b < actor.ShapeTypeCount; b++ {
			dispatch[a][b] = collideRoundPolyhedron
		}
	}
	for i, a := range boxes {
		for _, b := range boxes[i:] {
			dispatch[a][b] = collideBoxBox
		}
		dispatch[a][actor.ShapeTypeTriangle] = collideDecomposed
		dispatch[a][actor.ShapeTypeConvexMesh] = collideDecomposed
	}
	dispatch[actor.ShapeTypeTriangle][actor.ShapeTypeTriangle] = collideDecomposed
	dispatch[actor.ShapeTypeTriangle][actor.ShapeTypeConvexMesh] = collideDecomposed
	dispatch[actor.ShapeTypeConvexMesh][actor.ShapeTypeConvexMesh] = collideDecomposed
}

// Collide tests a against b and appends an entity to resp when they penetrate.
// movement is the displacement of b relative to a during the step, or a zero vector when unknown;
// it only serves when the contact normal is degenerate.
func (c *Context) Collide(a, b actor.Shape, movement mgl64.Vec3, resp *Response) bool {
	if a == nil || b == nil {
		return false
	}

	// Broad gate on the bounding spheres
	radii := a.BoundingRadius() + b.BoundingRadius()
	if a.Center().Sub(b.Center()).LenSqr() > radii*radii {
		return false
	}

	c.trianglesTested = 0
	c.truncated = false

	flipped := false
	if a.Type() > b.Type() {
		a, b = b, a
		movement = movement.Mul(-1)
		flipped = true
	}

	fn := dispatch[a.Type()][b.Type()]
	if fn == nil {
		return false
	}

	e := resp.next()
	if e == nil {
		c.log.WithField("capacity", ENTITY_COUNT).Warn("collision response is full, contact dropped")
		return false
	}

	if !fn(c, a, b, e) || e.Distance >= 0 {
		resp.discardLast()
		resp.SelectDeepest()
		return false
	}

	if e.Normal.LenSqr() < 1e-18 || isNaN(e.Normal) {
		switch {
		case movement.LenSqr() > 1e-18:
			e.Normal = movement.Normalize().Mul(-1)
			e.Distance = -movement.Len()
		case a.Center().Sub(b.Center()).LenSqr() > 1e-18:
			e.Normal = b.Center().Sub(a.Center()).Normalize()
		default:
			e.Normal = mgl64.Vec3{0, 1, 0}
		}
	}

	if flipped {
		e.Normal = e.Normal.Mul(-1)
	}
	resp.SelectDeepest()

	return true
}

// countTriangleTest returns false once TRIANGLES_TEST_MAX tests have run for this call
func (c *Context) countTriangleTest() bool {
	if c.trianglesTested >= TRIANGLES_TEST_MAX {
		c.warnTruncated("triangle tests", TRIANGLES_TEST_MAX)
		return false
	}
	c.trianglesTested++

	return true
}

func (c *Context) addHitPoint(e *Entity, point mgl64.Vec3) {
	if !e.AddHitPoint(point) {
		c.warnTruncated("hit points", HITPOINT_COUNT)
	}
}

func (c *Context) warnTruncated(what string, capacity int) {
	if c.truncated {
		return
	}
	c.truncated = true
	c.log.WithFields(logrus.Fields{"pool": what, "capacity": capacity}).Warn("collision pool exhausted, excess dropped")
}

func isNaN(v mgl64.Vec3) bool {
	return math.IsNaN(v.X()) || math.IsNaN(v.Y()) || math.IsNaN(v.Z())
}
