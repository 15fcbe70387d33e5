// Package impulse is a real-time rigid-body physics core.
//
// A World owns rigid bodies, a broad phase partition, a narrow phase context and a contact solver.
// Each call to Update advances the simulation by one fixed step.
package impulse

import (
	"cmp"
	"math"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/partition"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

type World struct {
	log    logrus.FieldLogger
	config Config

	// Gravity acceleration (m/s², or N/kg)
	Gravity mgl64.Vec3

	bodies []*actor.RigidBody
	byID   map[string]*actor.RigidBody
	// insertion rank of each body, partition candidates are tested in this order
	order map[*actor.RigidBody]uint64
	rank  uint64

	partition partition.Partition
	context   *collision.Context
	response  collision.Response
	solver    *constraint.Solver

	Events Events

	tested     map[uint64]struct{}
	candidates []*actor.RigidBody
}

// NewWorld creates an empty world. Invalid config values are replaced by their default and logged.
func NewWorld(config Config, log logrus.FieldLogger) *World {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := config.Validate(); err != nil {
		log.WithError(err).Warn("config fields reset to default")
	}

	// Validate guarantees a known kind
	kind, _ := partition.ParseKind(config.Partition)

	return &World{
		log:       log,
		config:    config,
		Gravity:   config.Gravity,
		byID:      make(map[string]*actor.RigidBody),
		order:     make(map[*actor.RigidBody]uint64),
		partition: partition.New(kind, config.PartitionSizeMax, config.PartitionSizeMin, log.WithField("subsystem", "partition")),
		context:   collision.NewContext(log.WithField("subsystem", "collision")),
		solver:    constraint.NewSolver(config.Gravity.Len(), config.SplitImpulse, log.WithField("subsystem", "solver")),
		Events:    NewEvents(),
		tested:    make(map[uint64]struct{}),
	}
}

// Config returns the validated config of the world
func (w *World) Config() Config {
	return w.config
}

// Solver exposes the contact solver, mostly to inspect its cache
func (w *World) Solver() *constraint.Solver {
	return w.solver
}

// AddRigidBody creates a body and inserts it in the world.
// A mass close to zero makes it static; a zero inertia tensor is computed from the shape.
func (w *World) AddRigidBody(id string, enabled bool, typeID uint32, transform actor.Transform, shape actor.Shape, restitution, friction, mass float64, inertia mgl64.Mat3) (*actor.RigidBody, error) {
	return w.addRigidBody(id, enabled, typeID, transform, shape, restitution, friction, mass, inertia, false)
}

// AddStaticRigidBody inserts a body which never moves by itself, whatever its mass
func (w *World) AddStaticRigidBody(id string, enabled bool, typeID uint32, transform actor.Transform, shape actor.Shape, restitution, friction, mass float64, inertia mgl64.Mat3) (*actor.RigidBody, error) {
	return w.addRigidBody(id, enabled, typeID, transform, shape, restitution, friction, mass, inertia, true)
}

func (w *World) addRigidBody(id string, enabled bool, typeID uint32, transform actor.Transform, shape actor.Shape, restitution, friction, mass float64, inertia mgl64.Mat3, static bool) (*actor.RigidBody, error) {
	if shape == nil {
		return nil, errors.Wrap(ErrNilShape, id)
	}
	if _, ok := w.byID[id]; ok {
		return nil, errors.Wrap(ErrDuplicateBody, id)
	}
	if len(w.bodies) >= w.config.BodyLimit {
		w.log.WithFields(logrus.Fields{"body": id, "limit": w.config.BodyLimit}).Warn("body limit reached, body not added")
		return nil, errors.Wrap(ErrBodyLimit, id)
	}
	if math.IsNaN(mass) || math.IsInf(mass, 0) {
		mass = 0
	}

	body := actor.NewRigidBody(id, transform, shape, mass, inertia)
	if static {
		body.SetStatic()
	}
	body.Enabled = enabled
	body.TypeID = typeID
	body.Material = actor.Material{Restitution: restitution, Friction: friction}

	w.bodies = append(w.bodies, body)
	w.byID[id] = body
	w.order[body] = w.rank
	w.rank++
	w.partition.AddRigidBody(body)

	return body, nil
}

// RemoveRigidBody removes a body from the world, its pending collision events are dropped
func (w *World) RemoveRigidBody(id string) error {
	body, ok := w.byID[id]
	if !ok {
		return errors.Wrap(ErrUnknownBody, id)
	}

	w.partition.RemoveRigidBody(body)
	w.solver.Cache.Forget(body)
	w.Events.forget(body)
	delete(w.byID, id)
	delete(w.order, body)

	if k := slices.Index(w.bodies, body); k != -1 {
		w.bodies = slices.Delete(w.bodies, k, k+1)
	}

	return nil
}

// Body returns the body carrying id
func (w *World) Body(id string) (*actor.RigidBody, bool) {
	body, ok := w.byID[id]
	return body, ok
}

// Bodies returns the bodies in insertion order. The slice must not be modified.
func (w *World) Bodies() []*actor.RigidBody {
	return w.bodies
}

// BodyIDs returns the IDs of the bodies in insertion order
func (w *World) BodyIDs() []string {
	return lo.Map(w.bodies, func(body *actor.RigidBody, _ int) string {
		return body.ID
	})
}

// SetBodyTransform teleports a body, waking it up
func (w *World) SetBodyTransform(id string, transform actor.Transform) error {
	body, ok := w.byID[id]
	if !ok {
		return errors.Wrap(ErrUnknownBody, id)
	}

	body.SetTransform(transform)
	w.partition.UpdateRigidBody(body)
	// Impulses cached at the previous place no longer apply
	w.solver.Cache.Forget(body)

	return nil
}

// Subscribe adds a collision listener, see CollisionListener and SleepListener
func (w *World) Subscribe(listener CollisionListener) {
	w.Events.Subscribe(listener)
}

// Update advances the world by dt seconds
func (w *World) Update(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}

	// Phase 1: external forces
	w.applyGravity()

	// Phase 2: broad phase and narrow phase, penetrating pairs become constraints
	w.detectCollisions()

	// Phase 3: solver, then integration of every body
	w.solver.Compute(dt)
	w.solver.UpdateAllBodies(dt, w.bodies)
	w.solver.Reset()

	// Phase 4: bounding volumes, partition and sleep
	w.refreshBodies()

	w.Events.flush(w.bodies)
}

func (w *World) applyGravity() {
	for _, body := range w.bodies {
		if !body.IsActive() {
			continue
		}
		body.AddForce(body.Transform.Position, w.Gravity.Mul(body.Mass))
	}
}

func (w *World) detectCollisions() {
	clear(w.tested)

	for _, a := range w.bodies {
		if !a.IsActive() {
			continue
		}

		bounds := a.Bounds()
		w.candidates = w.partition.ObjectsNearTo(bounds, w.candidates[:0])
		slices.SortFunc(w.candidates, func(x, y *actor.RigidBody) int {
			return cmp.Compare(w.order[x], w.order[y])
		})

		for _, b := range w.candidates {
			if b == a || !b.Enabled || !canCollide(a, b) {
				continue
			}

			key := actor.PairKey(a, b)
			if _, ok := w.tested[key]; ok {
				continue
			}
			w.tested[key] = struct{}{}

			if !bounds.Overlaps(b.Bounds()) {
				continue
			}
			w.collidePair(a, b)
		}
	}
}

// collidePair runs the narrow phase on an awake dynamic body a and a candidate b
func (w *World) collidePair(a, b *actor.RigidBody) {
	movement := displacement(b).Sub(displacement(a))

	w.response.Reset()
	if !w.context.Collide(a.CurrentVolume, b.CurrentVolume, movement, &w.response) {
		return
	}

	isTrigger := a.IsTrigger || b.IsTrigger
	if b.IsSleeping && !isTrigger {
		b.Awake()
	}

	w.Events.emitCollision(a, b, &w.response)

	if isTrigger {
		return
	}
	w.solver.AddConstraint(a, b, w.response.Selected())
}

func (w *World) refreshBodies() {
	for _, body := range w.bodies {
		if body.HasMoved() {
			body.RefreshBoundingVolume()
			w.partition.UpdateRigidBody(body)
		}
		body.TrySleep(w.config.SleepVelocity, w.config.SleepFrames)
	}
}

// canCollide filters the pairs by their type bits
func canCollide(a, b *actor.RigidBody) bool {
	return a.CollisionMask&b.TypeID != 0 && b.CollisionMask&a.TypeID != 0
}

func displacement(body *actor.RigidBody) mgl64.Vec3 {
	return body.Transform.Position.Sub(body.PreviousTransform.Position)
}
