package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/elliotchance/orderedmap/v2"
)

const (
	COLLISION_BEGIN EventType = iota
	COLLISION_END
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event is buffered during the tick and dispatched when the tick ends
type Event interface {
	Type() EventType
}

type CollisionBeginEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionBeginEvent) Type() EventType { return COLLISION_BEGIN }

type CollisionEndEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionEndEvent) Type() EventType { return COLLISION_END }

type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// CollisionListener receives the collisions of the world.
// OnCollision is called during the narrow phase, resp is only valid during the call: use resp.Copy() to keep it.
// OnCollisionBegin and OnCollisionEnd are called once the tick is done.
type CollisionListener interface {
	OnCollision(a, b *actor.RigidBody, resp *collision.Response)
	OnCollisionBegin(a, b *actor.RigidBody)
	OnCollisionEnd(a, b *actor.RigidBody)
}

// SleepListener may be implemented by a CollisionListener to be told when bodies fall asleep or wake up
type SleepListener interface {
	OnSleep(body *actor.RigidBody)
	OnWake(body *actor.RigidBody)
}

type pair struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// Events tracks the colliding pairs from one tick to the next
type Events struct {
	collisionListeners []CollisionListener
	sleepListeners     []SleepListener

	buffer []Event

	previousActivePairs *orderedmap.OrderedMap[uint64, pair]
	currentActivePairs  *orderedmap.OrderedMap[uint64, pair]

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		buffer:              make([]Event, 0, 256),
		previousActivePairs: orderedmap.NewOrderedMap[uint64, pair](),
		currentActivePairs:  orderedmap.NewOrderedMap[uint64, pair](),
		sleepStates:         make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener, which also receives the sleep events if it implements SleepListener
func (e *Events) Subscribe(listener CollisionListener) {
	e.collisionListeners = append(e.collisionListeners, listener)
	if sl, ok := listener.(SleepListener); ok {
		e.sleepListeners = append(e.sleepListeners, sl)
	}
}

// emitCollision is called by the narrow phase for every colliding pair
func (e *Events) emitCollision(a, b *actor.RigidBody, resp *collision.Response) {
	e.currentActivePairs.Set(actor.PairKey(a, b), pair{bodyA: a, bodyB: b})

	for _, listener := range e.collisionListeners {
		listener.OnCollision(a, b, resp)
	}
}

// processCollisionEvents compares current and previous pairs to detect Begin/End.
// A pair whose bodies are both inactive is not tested anymore, it is carried over
// so that resting stacks do not end when they fall asleep.
func (e *Events) processCollisionEvents() {
	for el := e.previousActivePairs.Front(); el != nil; el = el.Next() {
		p := el.Value
		if p.bodyA.IsActive() || p.bodyB.IsActive() {
			continue
		}
		if !p.bodyA.Enabled || !p.bodyB.Enabled {
			continue
		}
		if _, ok := e.currentActivePairs.Get(el.Key); !ok {
			e.currentActivePairs.Set(el.Key, p)
		}
	}

	for el := e.currentActivePairs.Front(); el != nil; el = el.Next() {
		if _, ok := e.previousActivePairs.Get(el.Key); !ok {
			e.buffer = append(e.buffer, CollisionBeginEvent{BodyA: el.Value.bodyA, BodyB: el.Value.bodyB})
		}
	}

	for el := e.previousActivePairs.Front(); el != nil; el = el.Next() {
		if _, ok := e.currentActivePairs.Get(el.Key); !ok {
			e.buffer = append(e.buffer, CollisionEndEvent{BodyA: el.Value.bodyA, BodyB: el.Value.bodyB})
		}
	}

	// Swap for next tick and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	for _, key := range e.currentActivePairs.Keys() {
		e.currentActivePairs.Delete(key)
	}
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		if body.IsStatic() {
			continue
		}

		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		if !trackedState && body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// forget drops every trace of a removed body, no End event is sent for its pairs
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.sleepStates, body)

	for _, key := range e.previousActivePairs.Keys() {
		p, _ := e.previousActivePairs.Get(key)
		if p.bodyA == body || p.bodyB == body {
			e.previousActivePairs.Delete(key)
		}
	}
	for _, key := range e.currentActivePairs.Keys() {
		p, _ := e.currentActivePairs.Get(key)
		if p.bodyA == body || p.bodyB == body {
			e.currentActivePairs.Delete(key)
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush(bodies []*actor.RigidBody) {
	e.processCollisionEvents()
	e.processSleepEvents(bodies)

	for _, event := range e.buffer {
		switch ev := event.(type) {
		case CollisionBeginEvent:
			for _, listener := range e.collisionListeners {
				listener.OnCollisionBegin(ev.BodyA, ev.BodyB)
			}
		case CollisionEndEvent:
			for _, listener := range e.collisionListeners {
				listener.OnCollisionEnd(ev.BodyA, ev.BodyB)
			}
		case SleepEvent:
			for _, listener := range e.sleepListeners {
				listener.OnSleep(ev.Body)
			}
		case WakeEvent:
			for _, listener := range e.sleepListeners {
				listener.OnWake(ev.Body)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
