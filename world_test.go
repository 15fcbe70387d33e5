package impulse

import (
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dt = 1.0 / 60.0

	typeGround uint32 = 1
	typeProp   uint32 = 2
)

func newTestWorld(t *testing.T, mutate func(c *Config)) *World {
	t.Helper()

	config := DefaultConfig()
	if mutate != nil {
		mutate(&config)
	}
	logger, _ := logtest.NewNullLogger()

	return NewWorld(config, logger)
}

// addFloor adds a static floor whose top face lies at y=0
func addFloor(t *testing.T, w *World) *actor.RigidBody {
	t.Helper()

	floor, err := w.AddStaticRigidBody("floor", true, typeGround, actor.NewTransformAt(mgl64.Vec3{0, -0.5, 0}, mgl64.QuatIdent()),
		actor.NewAABB(mgl64.Vec3{}, mgl64.Vec3{10, 0.5, 10}), 0, 0.5, 0, mgl64.Mat3{})
	require.NoError(t, err)

	return floor
}

func addSphere(t *testing.T, w *World, id string, position mgl64.Vec3) *actor.RigidBody {
	t.Helper()

	sphere, err := w.AddRigidBody(id, true, typeProp, actor.NewTransformAt(position, mgl64.QuatIdent()),
		&actor.Sphere{Radius: 0.5}, 0, 0.5, 1, mgl64.Mat3{})
	require.NoError(t, err)

	return sphere
}

func step(w *World, ticks int) {
	for i := 0; i < ticks; i++ {
		w.Update(dt)
	}
}

// =============================================================================
// Bodies
// =============================================================================

func TestWorld_AddRigidBody(t *testing.T) {
	w := newTestWorld(t, nil)

	body, err := w.AddRigidBody("box", false, typeProp, actor.NewTransform(), actor.NewOBB(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), 0.3, 0.7, 2, mgl64.Mat3{})
	require.NoError(t, err)

	assert.Equal(t, "box", body.ID)
	assert.False(t, body.Enabled)
	assert.Equal(t, typeProp, body.TypeID)
	assert.InDelta(t, 0.3, body.Material.Restitution, 1e-12)
	assert.InDelta(t, 0.7, body.Material.Friction, 1e-12)
	assert.InDelta(t, 0.5, body.InverseMass, 1e-12)
	assert.False(t, body.IsStatic())

	found, ok := w.Body("box")
	assert.True(t, ok)
	assert.Same(t, body, found)

	static, err := w.AddStaticRigidBody("wall", true, typeGround, actor.NewTransform(), actor.NewAABB(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), 0, 0, 5, mgl64.Mat3{})
	require.NoError(t, err)
	assert.True(t, static.IsStatic())
	assert.Zero(t, static.InverseMass)
	assert.InDelta(t, 5, static.Mass, 1e-12)

	assert.Equal(t, []string{"box", "wall"}, w.BodyIDs())
}

func TestWorld_AddRigidBodyErrors(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.BodyLimit = 2
	})
	addSphere(t, w, "a", mgl64.Vec3{})

	tests := []struct {
		name     string
		id       string
		shape    actor.Shape
		expected error
	}{
		{"nil shape", "b", nil, ErrNilShape},
		{"duplicate id", "a", &actor.Sphere{Radius: 1}, ErrDuplicateBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := w.AddRigidBody(tt.id, true, typeProp, actor.NewTransform(), tt.shape, 0, 0, 1, mgl64.Mat3{})
			assert.Nil(t, body)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	t.Run("body limit", func(t *testing.T) {
		addSphere(t, w, "b", mgl64.Vec3{5, 0, 0})

		body, err := w.AddRigidBody("c", true, typeProp, actor.NewTransform(), &actor.Sphere{Radius: 1}, 0, 0, 1, mgl64.Mat3{})
		assert.Nil(t, body)
		assert.ErrorIs(t, err, ErrBodyLimit)
		assert.Len(t, w.Bodies(), 2)
	})
}

func TestWorld_RemoveRigidBody(t *testing.T) {
	w := newTestWorld(t, nil)
	addSphere(t, w, "a", mgl64.Vec3{})
	addSphere(t, w, "b", mgl64.Vec3{3, 0, 0})
	addSphere(t, w, "c", mgl64.Vec3{6, 0, 0})

	require.NoError(t, w.RemoveRigidBody("b"))
	assert.Equal(t, []string{"a", "c"}, w.BodyIDs())

	_, ok := w.Body("b")
	assert.False(t, ok)
	assert.Empty(t, w.DoesCollideWith(typeProp, &actor.Sphere{Centre: mgl64.Vec3{3, 0, 0}, Radius: 0.5}))

	assert.ErrorIs(t, w.RemoveRigidBody("b"), ErrUnknownBody)
}

func TestWorld_SetBodyTransform(t *testing.T) {
	w := newTestWorld(t, nil)
	sphere := addSphere(t, w, "sphere", mgl64.Vec3{})
	sphere.Sleep()

	require.NoError(t, w.SetBodyTransform("sphere", actor.NewTransformAt(mgl64.Vec3{20, 0, 0}, mgl64.QuatIdent())))

	assert.False(t, sphere.IsSleeping)
	assert.Equal(t, mgl64.Vec3{20, 0, 0}, sphere.Transform.Position)
	assert.Len(t, w.DoesCollideWith(typeProp, &actor.Sphere{Centre: mgl64.Vec3{20, 0.2, 0}, Radius: 0.1}), 1)
	assert.Empty(t, w.DoesCollideWith(typeProp, &actor.Sphere{Centre: mgl64.Vec3{}, Radius: 0.1}))

	assert.ErrorIs(t, w.SetBodyTransform("unknown", actor.NewTransform()), ErrUnknownBody)
}

func TestWorld_RemoveOrMoveForgetsContacts(t *testing.T) {
	tests := []struct {
		name  string
		apply func(w *World) error
	}{
		{"remove", func(w *World) error { return w.RemoveRigidBody("sphere") }},
		{"teleport", func(w *World) error {
			return w.SetBodyTransform("sphere", actor.NewTransformAt(mgl64.Vec3{5, 3, 5}, mgl64.QuatIdent()))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, nil)
			floor := addFloor(t, w)
			sphere := addSphere(t, w, "sphere", mgl64.Vec3{0, 0.45, 0})

			step(w, 2)
			_, ok := w.Solver().Cache.Lookup(sphere, floor)
			require.True(t, ok)

			require.NoError(t, tt.apply(w))
			_, ok = w.Solver().Cache.Lookup(sphere, floor)
			assert.False(t, ok)
		})
	}
}

// =============================================================================
// Simulation
// =============================================================================

func TestWorld_SphereSettlesOnFloor(t *testing.T) {
	for _, partition := range []string{"none", "octree", "quadtree"} {
		t.Run(partition, func(t *testing.T) {
			w := newTestWorld(t, func(c *Config) {
				c.Partition = partition
			})
			floor := addFloor(t, w)
			sphere := addSphere(t, w, "sphere", mgl64.Vec3{0, 5, 0})

			step(w, 240)

			assert.InDelta(t, 0.5-constraint.SLOP, sphere.Transform.Position.Y(), 0.02)
			assert.InDelta(t, 0, sphere.Transform.Position.X(), 1e-6)
			assert.InDelta(t, 0, sphere.Transform.Position.Z(), 1e-6)
			assert.Less(t, sphere.Velocity.Len(), 0.05)

			assert.Equal(t, mgl64.Vec3{0, -0.5, 0}, floor.Transform.Position)
			assert.Zero(t, floor.Velocity.Len())
		})
	}
}

func TestWorld_SleepingBodyStaysInPlace(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.SleepFrames = 60
	})
	addFloor(t, w)
	sphere := addSphere(t, w, "sphere", mgl64.Vec3{0, 2, 0})

	step(w, 300)
	require.True(t, sphere.IsSleeping)

	position := sphere.Transform.Position
	step(w, 60)

	assert.True(t, sphere.IsSleeping)
	assert.Equal(t, position, sphere.Transform.Position)
	assert.Zero(t, sphere.Velocity.Len())
	assert.Zero(t, sphere.AngularVelocity.Len())
	assert.Zero(t, sphere.AccumulatedForce().Len())

	// Still found by the partition
	assert.Len(t, w.DoesCollideWith(typeProp, &actor.Sphere{Centre: position.Add(mgl64.Vec3{0, 0.2, 0}), Radius: 0.1}), 1)
}

func TestWorld_FallingBodyWakesSleepingBody(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.SleepFrames = 60
	})
	addFloor(t, w)
	bottom := addSphere(t, w, "bottom", mgl64.Vec3{0, 0.5, 0})

	step(w, 120)
	require.True(t, bottom.IsSleeping)

	top := addSphere(t, w, "top", mgl64.Vec3{0, 3, 0})
	for i := 0; i < 120; i++ {
		w.Update(dt)
		if !bottom.IsSleeping {
			break
		}
	}

	assert.False(t, bottom.IsSleeping)
	assert.Greater(t, top.Transform.Position.Y(), 1.3)
}

func TestWorld_CollisionMask(t *testing.T) {
	w := newTestWorld(t, nil)
	floor := addFloor(t, w)
	floor.CollisionMask = typeGround
	sphere := addSphere(t, w, "sphere", mgl64.Vec3{0, 1, 0})

	step(w, 60)

	assert.Less(t, sphere.Transform.Position.Y(), -1.0)
}

func TestWorld_DisabledBodyIsIgnored(t *testing.T) {
	w := newTestWorld(t, nil)
	floor := addFloor(t, w)
	floor.Enabled = false
	sphere := addSphere(t, w, "sphere", mgl64.Vec3{0, 1, 0})

	step(w, 60)

	assert.Less(t, sphere.Transform.Position.Y(), -1.0)
}

func TestWorld_Trigger(t *testing.T) {
	w := newTestWorld(t, nil)
	zone, err := w.AddStaticRigidBody("zone", true, typeGround, actor.NewTransform(), actor.NewAABB(mgl64.Vec3{}, mgl64.Vec3{2, 0.5, 2}), 0, 0, 0, mgl64.Mat3{})
	require.NoError(t, err)
	zone.IsTrigger = true
	sphere := addSphere(t, w, "sphere", mgl64.Vec3{0, 2, 0})

	listener := &recordingListener{}
	w.Subscribe(listener)

	step(w, 60)

	assert.Less(t, sphere.Transform.Position.Y(), -1.0)
	assert.Greater(t, listener.collisions, 0)
	assert.Equal(t, []string{"sphere/zone"}, listener.begins)
	assert.Equal(t, []string{"sphere/zone"}, listener.ends)
}

func TestWorld_UpdateIgnoresInvalidStep(t *testing.T) {
	w := newTestWorld(t, nil)
	sphere := addSphere(t, w, "sphere", mgl64.Vec3{0, 1, 0})

	w.Update(0)
	w.Update(-dt)

	assert.Equal(t, mgl64.Vec3{0, 1, 0}, sphere.Transform.Position)
	assert.Zero(t, sphere.Velocity.Len())
}

func TestWorld_OnCollisionResponse(t *testing.T) {
	w := newTestWorld(t, nil)
	addFloor(t, w)
	addSphere(t, w, "sphere", mgl64.Vec3{0, 0.4, 0})

	listener := &recordingListener{}
	w.Subscribe(listener)
	w.Update(dt)

	require.Equal(t, 1, listener.collisions)
	selected := listener.last.Selected()
	require.NotNil(t, selected)
	assert.Less(t, selected.Distance, 0.0)
	assert.Greater(t, selected.HitPointCount(), 0)
	// sphere is body A, the normal points towards the floor
	assert.InDelta(t, -1, selected.Normal.Y(), 1e-6)
}

var _ CollisionListener = (*recordingListener)(nil)
var _ SleepListener = (*recordingListener)(nil)

type recordingListener struct {
	collisions int
	last       collision.Response

	begins []string
	ends   []string
	sleeps []string
	wakes  []string
}

func (l *recordingListener) OnCollision(a, b *actor.RigidBody, resp *collision.Response) {
	l.collisions++
	l.last = resp.Copy()
}

func (l *recordingListener) OnCollisionBegin(a, b *actor.RigidBody) {
	l.begins = append(l.begins, a.ID+"/"+b.ID)
}

func (l *recordingListener) OnCollisionEnd(a, b *actor.RigidBody) {
	l.ends = append(l.ends, a.ID+"/"+b.ID)
}

func (l *recordingListener) OnSleep(body *actor.RigidBody) {
	l.sleeps = append(l.sleeps, body.ID)
}

func (l *recordingListener) OnWake(body *actor.RigidBody) {
	l.wakes = append(l.wakes, body.ID)
}
