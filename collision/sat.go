package collision

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// axisEpsilon rejects candidate axes built from parallel edges
	axisEpsilon = 1e-12
	// containTolerance grows solids when looking for contained vertices
	containTolerance = 1e-6
	// tieEpsilon is the difference under which both overlaps of an axis are equal
	tieEpsilon = 1e-9
)

func project(vertices []mgl64.Vec3, axis mgl64.Vec3) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range vertices {
		d := v.Dot(axis)
		min = math.Min(min, d)
		max = math.Max(max, d)
	}

	return min, max
}

// satTest projects both vertex sets on every axis and returns the axis of least overlap,
// oriented from a to b. It returns false as soon as one axis separates the sets.
func satTest(a, b []mgl64.Vec3, axes []mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	best := math.Inf(1)
	var normal mgl64.Vec3

	for _, axis := range axes {
		l := axis.LenSqr()
		if l < axisEpsilon || math.IsNaN(l) {
			continue
		}
		axis = axis.Mul(1.0 / math.Sqrt(l))

		minA, maxA := project(a, axis)
		minB, maxB := project(b, axis)
		if maxA <= minB || maxB <= minA {
			return mgl64.Vec3{}, 0, false
		}

		overlap := math.Min(maxA-minB, maxB-minA)
		if overlap < best {
			best = overlap
			switch forward, backward := maxA-minB, maxB-minA; {
			case math.Abs(forward-backward) <= tieEpsilon:
				// Both ways are as deep, follow the centroids
				if centroid(b).Sub(centroid(a)).Dot(axis) < 0 {
					normal = axis.Mul(-1)
				} else {
					normal = axis
				}
			case backward < forward:
				normal = axis.Mul(-1)
			default:
				normal = axis
			}
		}
	}
	if math.IsInf(best, 1) {
		return mgl64.Vec3{}, 0, false
	}

	return normal, best, true
}

func centroid(vertices []mgl64.Vec3) mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, v := range vertices {
		sum = sum.Add(v)
	}
	if len(vertices) == 0 {
		return sum
	}

	return sum.Mul(1.0 / float64(len(vertices)))
}

// boxBoxAxes fills the 15 axes of an OBB pair: 3 face normals each and 9 edge cross products
func boxBoxAxes(dst []mgl64.Vec3, a, b *actor.OBB) []mgl64.Vec3 {
	dst = append(dst, a.Axes[0], a.Axes[1], a.Axes[2], b.Axes[0], b.Axes[1], b.Axes[2])
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst = append(dst, a.Axes[i].Cross(b.Axes[j]))
		}
	}

	return dst
}

// boxTriangleAxes fills the 13 axes of an OBB against a triangle
func boxTriangleAxes(dst []mgl64.Vec3, a *actor.OBB, t *actor.Triangle) []mgl64.Vec3 {
	dst = append(dst, a.Axes[0], a.Axes[1], a.Axes[2], t.Normal())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst = append(dst, a.Axes[i].Cross(t.Edge(j)))
		}
	}

	return dst
}

// triangleTriangleAxes fills the 11 axes of a triangle pair
func triangleTriangleAxes(dst []mgl64.Vec3, a, b *actor.Triangle) []mgl64.Vec3 {
	dst = append(dst, a.Normal(), b.Normal())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dst = append(dst, a.Edge(i).Cross(b.Edge(j)))
		}
	}

	return dst
}

// collideBoxBox handles AABB and OBB pairs
func collideBoxBox(c *Context, a, b actor.Shape, e *Entity) bool {
	c.polyA.set(a)
	c.polyB.set(b)

	axes := boxBoxAxes(c.axes[:0], &c.polyA.box, &c.polyB.box)
	normal, overlap, ok := satTest(c.polyA.vertices, c.polyB.vertices, axes)
	if !ok {
		return false
	}
	e.Normal = normal
	e.Distance = -overlap

	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			if !c.countTriangleTest() {
				break
			}
			c.intersectTriangles(&c.polyA.triBuf[i], &c.polyB.triBuf[j], e)
		}
	}
	c.addContainedVertices(e)
	c.addSupportFallback(e)

	return true
}

// collideDecomposed handles every pair involving a triangle or a convex mesh.
// The second shape is split in triangles, the first one too unless it is a box.
// Hit points accumulate from all the intersecting sub-pairs. The axes of those sub-pairs are the
// candidates for the normal: between two solids they are measured against the whole vertex sets,
// otherwise against the sub-pair itself.
func collideDecomposed(c *Context, a, b actor.Shape, e *Entity) bool {
	c.polyA.set(a)
	c.polyB.set(b)
	pa, pb := &c.polyA, &c.polyB

	best := math.Inf(1)
	var bestNormal mgl64.Vec3

	piecesA := pa.triangleCount()
	if pa.kind == polyBox {
		piecesA = 1
	}
	boundsA := a.Bounds()
	solids := pa.solid() && pb.solid()

loop:
	for j := 0; j < pb.triangleCount(); j++ {
		triB := pb.triangle(j)
		boundsB := triB.Bounds()
		if !boundsA.Overlaps(boundsB) {
			continue
		}

		for i := 0; i < piecesA; i++ {
			if !c.countTriangleTest() {
				break loop
			}

			var normal mgl64.Vec3
			var overlap float64
			var ok bool
			var axesLen int
			if pa.kind == polyBox {
				axes := boxTriangleAxes(c.axes[:0], &pa.box, &triB)
				axesLen = len(axes)
				normal, overlap, ok = satTest(pa.vertices, triB.Points[:], axes)
				if ok {
					for k := range pa.triBuf {
						c.intersectTriangles(&pa.triBuf[k], &triB, e)
					}
				}
			} else {
				triA := pa.triangle(i)
				if !triA.Bounds().Overlaps(boundsB) {
					continue
				}
				axes := triangleTriangleAxes(c.axes[:0], &triA, &triB)
				axesLen = len(axes)
				normal, overlap, ok = satTest(triA.Points[:], triB.Points[:], axes)
				if ok {
					c.intersectTriangles(&triA, &triB, e)
				}
			}

			if ok && solids {
				// The sub-pair overlaps on every axis, so do the solids enclosing it
				normal, overlap, ok = satTest(pa.vertices, pb.vertices, c.axes[:axesLen])
			}
			if ok && overlap < best {
				best = overlap
				bestNormal = normal
			}
		}
	}

	if solids {
		c.addContainedVertices(e)
		if math.IsInf(best, 1) {
			// No face crosses the other solid: one may still enclose the other
			return c.collideEnclosed(e)
		}
	}
	if math.IsInf(best, 1) {
		return false
	}

	e.Normal = bestNormal
	e.Distance = -best
	c.addSupportFallback(e)

	return true
}

// collideEnclosed runs a SAT restricted to the face normals of both solids
func (c *Context) collideEnclosed(e *Entity) bool {
	if e.HitPointCount() == 0 {
		return false
	}

	best := math.Inf(1)
	var bestNormal mgl64.Vec3
	for _, p := range [2]*polyhedron{&c.polyA, &c.polyB} {
		for f := 0; f < p.faceCount(); f++ {
			axis, _ := p.face(f)
			normal, overlap, ok := satTest(c.polyA.vertices, c.polyB.vertices, []mgl64.Vec3{axis})
			if !ok {
				return false
			}
			if overlap < best {
				best = overlap
				bestNormal = normal
			}
		}
	}
	if math.IsInf(best, 1) {
		return false
	}

	e.Normal = bestNormal
	e.Distance = -best

	return true
}

// addContainedVertices adds the vertices of each solid lying inside the other one
func (c *Context) addContainedVertices(e *Entity) {
	if !c.polyA.solid() || !c.polyB.solid() {
		return
	}

	for _, v := range c.polyA.vertices {
		if c.polyB.contains(v, containTolerance) {
			c.addHitPoint(e, v)
		}
	}
	for _, v := range c.polyB.vertices {
		if c.polyA.contains(v, containTolerance) {
			c.addHitPoint(e, v)
		}
	}
}

// addSupportFallback provides a single hit point when the exact extraction found none,
// halfway between the deepest vertices of both shapes along the normal
func (c *Context) addSupportFallback(e *Entity) {
	if e.HitPointCount() > 0 {
		return
	}

	var deepA, deepB mgl64.Vec3
	maxA, minB := math.Inf(-1), math.Inf(1)
	for _, v := range c.polyA.vertices {
		if d := v.Dot(e.Normal); d > maxA {
			maxA, deepA = d, v
		}
	}
	for _, v := range c.polyB.vertices {
		if d := v.Dot(e.Normal); d < minB {
			minB, deepB = d, v
		}
	}
	if math.IsInf(maxA, -1) || math.IsInf(minB, 1) {
		return
	}

	c.addHitPoint(e, deepA.Add(deepB).Mul(0.5))
}
