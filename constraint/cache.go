package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// CacheInfo keeps the impulses of a pair from the previous tick
type CacheInfo struct {
	// First is the ID hash of the body the normal started from
	First uint64
	// Second is the ID hash of the other body
	Second uint64

	Points     [collision.HITPOINT_COUNT]mgl64.Vec3
	PointCount int
	Lambdas    [collision.HITPOINT_COUNT][ROWS_PER_POINT]float64

	tick uint64
}

// matches reports whether the info applies to the hit points of e, seen from first
func (ci *CacheInfo) matches(first uint64, e *collision.Entity) bool {
	if ci.First != first || ci.PointCount != e.HitPointCount() {
		return false
	}

	for i, p := range e.HitPoints() {
		if ci.Points[i].Sub(p).LenSqr() > collision.HITPOINT_TOLERANCE*collision.HITPOINT_TOLERANCE {
			return false
		}
	}

	return true
}

// ContactCache stores the accumulated impulses of every pair in contact.
// Entries not refreshed during a tick are evicted at its end, in insertion order.
type ContactCache struct {
	entries *orderedmap.OrderedMap[uint64, *CacheInfo]
	tick    uint64
}

func NewContactCache() *ContactCache {
	return &ContactCache{entries: orderedmap.NewOrderedMap[uint64, *CacheInfo]()}
}

// Lookup returns the info stored for the pair a, b
func (cc *ContactCache) Lookup(a, b *actor.RigidBody) (*CacheInfo, bool) {
	return cc.entries.Get(actor.PairKey(a, b))
}

func (cc *ContactCache) Len() int {
	return cc.entries.Len()
}

// warmStart returns the previous impulses of the pair when its hit points did not move
func (cc *ContactCache) warmStart(a, b *actor.RigidBody, e *collision.Entity) (*CacheInfo, bool) {
	info, ok := cc.Lookup(a, b)
	if !ok || !info.matches(a.IDHash, e) {
		return nil, false
	}

	return info, true
}

// store records the impulses of the pair for the next tick
func (cc *ContactCache) store(a, b *actor.RigidBody, e *collision.Entity, lambdas func(point, kind int) float64) {
	key := actor.PairKey(a, b)
	info, ok := cc.entries.Get(key)
	if !ok {
		info = &CacheInfo{}
		cc.entries.Set(key, info)
	}

	info.First = a.IDHash
	info.Second = b.IDHash
	info.PointCount = e.HitPointCount()
	info.tick = cc.tick
	for i, p := range e.HitPoints() {
		info.Points[i] = p
		for kind := 0; kind < ROWS_PER_POINT; kind++ {
			info.Lambdas[i][kind] = lambdas(i, kind)
		}
	}
}

// sweep evicts the entries not refreshed during the current tick and starts a new one
func (cc *ContactCache) sweep() {
	for el := cc.entries.Front(); el != nil; {
		next := el.Next()
		if el.Value.tick != cc.tick {
			cc.entries.Delete(el.Key)
		}
		el = next
	}
	cc.tick++
}

// Forget drops the entries of every pair involving body
func (cc *ContactCache) Forget(body *actor.RigidBody) {
	for el := cc.entries.Front(); el != nil; {
		next := el.Next()
		if el.Value.First == body.IDHash || el.Value.Second == body.IDHash {
			cc.entries.Delete(el.Key)
		}
		el = next
	}
}
