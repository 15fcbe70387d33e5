package collision

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// RayCast returns the distance along dir from origin to the first surface of shape, within maxDist.
// A ray starting inside a solid shape does not hit it.
func RayCast(shape actor.Shape, origin, dir mgl64.Vec3, maxDist float64) (float64, bool) {
	if shape == nil || dir.LenSqr() == 0 || maxDist <= 0 {
		return 0, false
	}
	dir = dir.Normalize()

	var t float64
	var ok bool
	switch s := shape.(type) {
	case *actor.Sphere:
		t, ok = raySphere(origin, dir, s.Centre, s.Radius)
	case *actor.Capsule:
		t, ok = rayCapsule(origin, dir, s.Start, s.End, s.Radius)
	case *actor.Triangle:
		hit, crossed := actor.SegmentTriangleIntersection(origin, origin.Add(dir.Mul(maxDist)), s.Points[0], s.Points[1], s.Points[2])
		t, ok = hit.Sub(origin).Len(), crossed
	default:
		var poly polyhedron
		poly.set(shape)
		t, ok = rayPolyhedron(origin, dir, &poly)
	}

	if !ok || t < 0 || t > maxDist {
		return 0, false
	}

	return t, true
}

func raySphere(origin, dir, centre mgl64.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(centre)
	c := oc.LenSqr() - radius*radius
	if c <= 0 {
		return 0, false
	}

	b := oc.Dot(dir)
	h := b*b - c
	if b > 0 || h < 0 {
		return 0, false
	}

	return -b - math.Sqrt(h), true
}

func rayCapsule(origin, dir, start, end mgl64.Vec3, radius float64) (float64, bool) {
	if actor.ClosestPointOnSegment(origin, start, end).Sub(origin).LenSqr() <= radius*radius {
		return 0, false
	}

	ba := end.Sub(start)
	oa := origin.Sub(start)
	baba := ba.Dot(ba)
	bard := ba.Dot(dir)
	baoa := ba.Dot(oa)

	a := baba - bard*bard
	if a > 1e-12 {
		b := baba*dir.Dot(oa) - baoa*bard
		c := baba*oa.Dot(oa) - baoa*baoa - radius*radius*baba
		h := b*b - a*c
		if h < 0 {
			return 0, false
		}

		t := (-b - math.Sqrt(h)) / a
		if y := baoa + t*bard; y > 0 && y < baba {
			return t, true
		}
	}

	// Hemispherical caps
	t1, ok1 := raySphere(origin, dir, start, radius)
	t2, ok2 := raySphere(origin, dir, end, radius)
	switch {
	case ok1 && ok2:
		return math.Min(t1, t2), true
	case ok1:
		return t1, true
	case ok2:
		return t2, true
	}

	return 0, false
}

// rayPolyhedron clips the ray against every face plane of a solid
func rayPolyhedron(origin, dir mgl64.Vec3, poly *polyhedron) (float64, bool) {
	enter, exit := math.Inf(-1), math.Inf(1)
	for f := 0; f < poly.faceCount(); f++ {
		n, point := poly.face(f)
		if n.LenSqr() == 0 {
			continue
		}

		denom := n.Dot(dir)
		dist := n.Dot(point.Sub(origin))
		if math.Abs(denom) < 1e-12 {
			if dist < 0 {
				return 0, false
			}
			continue
		}

		t := dist / denom
		if denom < 0 {
			enter = math.Max(enter, t)
		} else {
			exit = math.Min(exit, t)
		}
		if enter > exit {
			return 0, false
		}
	}

	if math.IsInf(enter, -1) || enter < 0 {
		return 0, false
	}

	return enter, true
}
