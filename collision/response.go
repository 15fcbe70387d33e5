package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// ENTITY_COUNT is the capacity of a Response
	ENTITY_COUNT = 15
	// HITPOINT_COUNT is the capacity of an Entity
	HITPOINT_COUNT = 32
	// TRIANGLES_TEST_MAX bounds the triangle tests of a single Collide call
	TRIANGLES_TEST_MAX = 4096

	// HITPOINT_TOLERANCE is the distance under which two hit points are merged
	HITPOINT_TOLERANCE = 0.1
)

// Entity is one candidate contact manifold along one axis.
// Distance is negative when the shapes penetrate, Normal points from the first shape to the second.
type Entity struct {
	Distance float64
	Normal   mgl64.Vec3

	hitPoints     [HITPOINT_COUNT]mgl64.Vec3
	hitPointCount int
}

func (e *Entity) reset() {
	e.Distance = 0
	e.Normal = mgl64.Vec3{}
	e.hitPointCount = 0
}

// HitPoints returns the deduplicated contact points
func (e *Entity) HitPoints() []mgl64.Vec3 {
	return e.hitPoints[:e.hitPointCount]
}

// HitPointCount returns the number of contact points
func (e *Entity) HitPointCount() int {
	return e.hitPointCount
}

// AddHitPoint stores point unless another hit point lies within HITPOINT_TOLERANCE.
// It returns false when the entity is full and the point was dropped.
func (e *Entity) AddHitPoint(point mgl64.Vec3) bool {
	if math.IsNaN(point.X()) || math.IsNaN(point.Y()) || math.IsNaN(point.Z()) {
		return true
	}
	for _, p := range e.hitPoints[:e.hitPointCount] {
		if p.Sub(point).LenSqr() <= HITPOINT_TOLERANCE*HITPOINT_TOLERANCE {
			return true
		}
	}
	if e.hitPointCount >= HITPOINT_COUNT {
		return false
	}

	e.hitPoints[e.hitPointCount] = point
	e.hitPointCount++

	return true
}

// Penetration returns the penetration depth, zero when the shapes are apart
func (e *Entity) Penetration() float64 {
	return math.Max(-e.Distance, 0)
}

// Response is a fixed capacity set of entities with one selected entity.
// It is reset, never freed, between uses.
type Response struct {
	entities [ENTITY_COUNT]Entity
	count    int
	selected int
}

// Reset empties the response
func (r *Response) Reset() {
	r.count = 0
	r.selected = -1
}

// Len returns the number of entities
func (r *Response) Len() int {
	return r.count
}

// Entity returns the i-th entity
func (r *Response) Entity(i int) *Entity {
	return &r.entities[i]
}

// Selected returns the selected entity, or nil for an empty response
func (r *Response) Selected() *Entity {
	if r.count == 0 || r.selected < 0 {
		return nil
	}

	return &r.entities[r.selected]
}

// IsColliding reports whether the selected entity penetrates
func (r *Response) IsColliding() bool {
	e := r.Selected()
	return e != nil && e.Distance < 0
}

// Copy returns a copy of the response, safe to keep after a listener callback
func (r *Response) Copy() Response {
	return *r
}

// SelectDeepest selects the entity with the least distance
func (r *Response) SelectDeepest() {
	r.selected = -1
	for i := 0; i < r.count; i++ {
		if r.selected < 0 || r.entities[i].Distance < r.entities[r.selected].Distance {
			r.selected = i
		}
	}
}

// SelectByAxis selects the deepest entity whose normal is parallel to axis (|dot| >= minDot)
// when include is true, or not parallel when include is false.
// The selection is left untouched and false is returned when no entity matches.
func (r *Response) SelectByAxis(axis mgl64.Vec3, minDot float64, include bool) bool {
	if axis.LenSqr() == 0 {
		return false
	}
	axis = axis.Normalize()

	best := -1
	for i := 0; i < r.count; i++ {
		parallel := math.Abs(r.entities[i].Normal.Dot(axis)) >= minDot
		if parallel != include {
			continue
		}
		if best < 0 || r.entities[i].Distance < r.entities[best].Distance {
			best = i
		}
	}
	if best < 0 {
		return false
	}

	r.selected = best
	return true
}

func (r *Response) next() *Entity {
	if r.count >= ENTITY_COUNT {
		return nil
	}

	e := &r.entities[r.count]
	e.reset()
	r.count++

	return e
}

func (r *Response) discardLast() {
	if r.count > 0 {
		r.count--
	}
}
