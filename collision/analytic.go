package collision

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// roundSegment views spheres and capsules as a segment swept by a radius
func roundSegment(s actor.Shape) (mgl64.Vec3, mgl64.Vec3, float64) {
	switch v := s.(type) {
	case *actor.Sphere:
		return v.Centre, v.Centre, v.Radius
	case *actor.Capsule:
		return v.Start, v.End, v.Radius
	}

	return mgl64.Vec3{}, mgl64.Vec3{}, 0
}

// collideRoundRound handles sphere-sphere, sphere-capsule and capsule-capsule
// with the closest points of both segments
func collideRoundRound(c *Context, a, b actor.Shape, e *Entity) bool {
	p1, q1, r1 := roundSegment(a)
	p2, q2, r2 := roundSegment(b)

	c1, c2 := actor.ClosestPointsBetweenSegments(p1, q1, p2, q2)
	d := c2.Sub(c1)
	dist := d.Len()

	e.Distance = dist - r1 - r2
	if e.Distance >= 0 {
		return false
	}

	if dist > 1e-9 {
		e.Normal = d.Mul(1.0 / dist)
		c.addHitPoint(e, c1.Add(e.Normal.Mul(r1)))
		c.addHitPoint(e, c2.Sub(e.Normal.Mul(r2)))
	} else {
		c.addHitPoint(e, c1)
	}

	return true
}

// collideRoundPolyhedron tests a sphere or capsule against a box, triangle or convex mesh
func collideRoundPolyhedron(c *Context, a, b actor.Shape, e *Entity) bool {
	p, q, r := roundSegment(a)
	poly := &c.polyB
	poly.set(b)

	deep := poly.solid() && (poly.contains(p, 0) || poly.contains(q, 0))
	if !deep {
		onSegment, onPoly, dist, ok := c.closestToPolyhedron(p, q, poly)
		if !ok || dist >= r {
			return false
		}

		if dist > 1e-9 {
			n := onPoly.Sub(onSegment).Mul(1.0 / dist)
			e.Normal = n
			e.Distance = dist - r
			c.addHitPoint(e, onSegment.Add(n.Mul(r)))
			c.addHitPoint(e, onPoly)

			// A capsule lying along a face touches it at both ends
			if p != q {
				for _, end := range [2]mgl64.Vec3{p, q} {
					if _, endOnPoly, endDist, ok := c.closestToPolyhedron(end, end, poly); ok && endDist < r {
						c.addHitPoint(e, endOnPoly)
					}
				}
			}

			return true
		}
	}

	return c.roundDeep(p, q, r, poly, e)
}

// closestToPolyhedron returns the closest points between segment [p, q] and the polyhedron surface
func (c *Context) closestToPolyhedron(p, q mgl64.Vec3, poly *polyhedron) (mgl64.Vec3, mgl64.Vec3, float64, bool) {
	best := math.Inf(1)
	var onSegment, onPoly mgl64.Vec3

	for i := 0; i < poly.triangleCount(); i++ {
		if !c.countTriangleTest() {
			break
		}
		tri := poly.triangle(i)
		s, t := closestSegmentTriangle(p, q, &tri)
		if d := t.Sub(s).LenSqr(); d < best {
			best = d
			onSegment, onPoly = s, t
		}
	}
	if math.IsInf(best, 1) {
		return onSegment, onPoly, 0, false
	}

	return onSegment, onPoly, math.Sqrt(best), true
}

// roundDeep resolves a sphere or capsule whose segment reaches inside the polyhedron:
// the face plane needing the shortest translation to push the shape out gives the normal
func (c *Context) roundDeep(p, q mgl64.Vec3, r float64, poly *polyhedron, e *Entity) bool {
	best := math.Inf(1)
	bestFace := -1
	for f := 0; f < poly.faceCount(); f++ {
		n, point := poly.face(f)
		if n.LenSqr() == 0 {
			continue
		}

		exit := r - math.Min(p.Sub(point).Dot(n), q.Sub(point).Dot(n))
		if exit < best {
			best = exit
			bestFace = f
		}
	}
	if bestFace < 0 || best <= 0 {
		return false
	}

	n, point := poly.face(bestFace)
	e.Normal = n.Mul(-1)
	e.Distance = -best

	for _, end := range [2]mgl64.Vec3{p, q} {
		s := end.Sub(point).Dot(n)
		if s < r {
			c.addHitPoint(e, end.Sub(n.Mul(s)))
			c.addHitPoint(e, end.Sub(n.Mul(r)))
		}
	}

	return true
}

// closestSegmentTriangle returns the closest points between segment [p, q] and a triangle
func closestSegmentTriangle(p, q mgl64.Vec3, tri *actor.Triangle) (mgl64.Vec3, mgl64.Vec3) {
	a, b, c := tri.Points[0], tri.Points[1], tri.Points[2]
	if hit, ok := actor.SegmentTriangleIntersection(p, q, a, b, c); ok {
		return hit, hit
	}

	bestS, bestT := p, tri.ClosestPoint(p)
	best := bestT.Sub(bestS).LenSqr()

	consider := func(s, t mgl64.Vec3) {
		if d := t.Sub(s).LenSqr(); d < best {
			best = d
			bestS, bestT = s, t
		}
	}

	if p != q {
		consider(q, tri.ClosestPoint(q))
		for k := 0; k < 3; k++ {
			consider(actor.ClosestPointsBetweenSegments(p, q, tri.Points[k], tri.Points[(k+1)%3]))
		}
	}

	return bestS, bestT
}
