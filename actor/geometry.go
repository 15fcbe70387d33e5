package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ClosestPointOnSegment returns the point of segment [a, b] closest to p
func ClosestPointOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	lenSqr := ab.LenSqr()
	if lenSqr < 1e-12 {
		return a
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/lenSqr, 0, 1)

	return a.Add(ab.Mul(t))
}

// ClosestPointsBetweenSegments returns the closest points of segments [p1, q1] and [p2, q2]
// (Ericson, Real-Time Collision Detection 5.1.9)
func ClosestPointsBetweenSegments(p1, q1, p2, q2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	const eps = 1e-12

	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a <= eps && e <= eps:
		return p1, p2
	case a <= eps:
		t = mgl64.Clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = mgl64.Clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = mgl64.Clamp((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = mgl64.Clamp(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = mgl64.Clamp((b-c)/a, 0, 1)
			}
		}
	}

	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// ClosestPointOnTriangle returns the point of triangle abc closest to p
// (Ericson, Real-Time Collision Detection 5.1.5)
func ClosestPointOnTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom

	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// SegmentTriangleIntersection returns the point where segment [p, q] crosses triangle abc
// (Möller-Trumbore restricted to the segment)
func SegmentTriangleIntersection(p, q, a, b, c mgl64.Vec3) (mgl64.Vec3, bool) {
	const eps = 1e-12

	dir := q.Sub(p)
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if math.Abs(det) < eps {
		return mgl64.Vec3{}, false
	}

	inv := 1.0 / det
	s := p.Sub(a)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return mgl64.Vec3{}, false
	}
	qv := s.Cross(e1)
	v := inv * dir.Dot(qv)
	if v < 0 || u+v > 1 {
		return mgl64.Vec3{}, false
	}
	t := inv * e2.Dot(qv)
	if t < 0 || t > 1 {
		return mgl64.Vec3{}, false
	}

	return p.Add(dir.Mul(t)), true
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
