package collision

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// planeEpsilon is the distance under which a vertex lies on a triangle plane
const planeEpsilon = 1e-9

// intersectTriangles adds the points where the two triangles cross each other:
// the edges of one piercing the other. Coplanar triangles fall back to the closest points
// between their vertices and edges.
func (c *Context) intersectTriangles(t1, t2 *actor.Triangle, e *Entity) {
	n1 := t1.Normal()
	n2 := t2.Normal()
	if n1.LenSqr() == 0 || n2.LenSqr() == 0 {
		return
	}

	side2, coplanar := planeSide(n1, t1.Points[0], t2)
	if side2 != 0 {
		return
	}
	if coplanar {
		c.intersectCoplanar(t1, t2, e)
		return
	}
	if side1, _ := planeSide(n2, t2.Points[0], t1); side1 != 0 {
		return
	}

	for k := 0; k < 3; k++ {
		if hit, ok := actor.SegmentTriangleIntersection(t1.Points[k], t1.Points[(k+1)%3], t2.Points[0], t2.Points[1], t2.Points[2]); ok {
			c.addHitPoint(e, hit)
		}
		if hit, ok := actor.SegmentTriangleIntersection(t2.Points[k], t2.Points[(k+1)%3], t1.Points[0], t1.Points[1], t1.Points[2]); ok {
			c.addHitPoint(e, hit)
		}
	}
}

// planeSide returns +1 or -1 when the whole triangle lies strictly on one side of the plane,
// 0 when it touches or crosses it. coplanar is set when every vertex lies on the plane.
func planeSide(normal, origin mgl64.Vec3, t *actor.Triangle) (int, bool) {
	positive, negative := 0, 0
	for _, p := range t.Points {
		d := p.Sub(origin).Dot(normal)
		switch {
		case d > planeEpsilon:
			positive++
		case d < -planeEpsilon:
			negative++
		}
	}

	switch {
	case positive == 3:
		return 1, false
	case negative == 3:
		return -1, false
	}

	return 0, positive == 0 && negative == 0
}

func (c *Context) intersectCoplanar(t1, t2 *actor.Triangle, e *Entity) {
	const tolerance = 1e-6

	for _, p := range t1.Points {
		if t2.ClosestPoint(p).Sub(p).LenSqr() <= tolerance*tolerance {
			c.addHitPoint(e, p)
		}
	}
	for _, p := range t2.Points {
		if t1.ClosestPoint(p).Sub(p).LenSqr() <= tolerance*tolerance {
			c.addHitPoint(e, p)
		}
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s, t := actor.ClosestPointsBetweenSegments(
				t1.Points[i], t1.Points[(i+1)%3],
				t2.Points[j], t2.Points[(j+1)%3],
			)
			if d := t.Sub(s).Len(); d <= tolerance && !math.IsNaN(d) {
				c.addHitPoint(e, s)
			}
		}
	}
}
