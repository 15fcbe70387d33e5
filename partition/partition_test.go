package partition

import (
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createBox(id string, position, halfExtents mgl64.Vec3) *actor.RigidBody {
	return actor.NewRigidBody(
		id,
		actor.NewTransformAt(position, mgl64.QuatIdent()),
		actor.NewAABB(mgl64.Vec3{}, halfExtents),
		1.0,
		mgl64.Mat3{},
	)
}

func newTestPartition(kind Kind) Partition {
	logger, _ := logtest.NewNullLogger()
	return New(kind, 16, 4, logger)
}

// =============================================================================
// Kinds
// =============================================================================

func TestParseKind(t *testing.T) {
	tests := []struct {
		name     string
		expected Kind
		wantErr  bool
	}{
		{"none", KindNone, false},
		{"", KindNone, false},
		{"OctTree", KindOctTree, false},
		{" quadtree ", KindQuadTree, false},
		{"bvh", KindNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ParseKind(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

// =============================================================================
// Self containment
// =============================================================================

func TestPartition_ContainsInsertedBodies(t *testing.T) {
	for _, kind := range []Kind{KindNone, KindOctTree, KindQuadTree} {
		t.Run(kind.String(), func(t *testing.T) {
			p := newTestPartition(kind)
			bodies := []*actor.RigidBody{
				createBox("a", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
				createBox("b", mgl64.Vec3{-20, 3, 7}, mgl64.Vec3{0.5, 0.5, 0.5}),
				createBox("c", mgl64.Vec3{40, -12, -33}, mgl64.Vec3{6, 0.2, 6}),
			}
			for _, b := range bodies {
				p.AddRigidBody(b)
			}

			for _, b := range bodies {
				assert.Contains(t, p.ObjectsNearTo(b.Bounds(), nil), b)
				assert.Contains(t, p.ObjectsNearPoint(b.Transform.Position, nil), b)
				assert.Positive(t, p.Leaves(b))
			}
		})
	}
}

func TestPartition_None(t *testing.T) {
	p := newTestPartition(KindNone)
	a := createBox("a", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := createBox("b", mgl64.Vec3{100, 0, 0}, mgl64.Vec3{1, 1, 1})
	p.AddRigidBody(a)
	p.AddRigidBody(b)
	p.AddRigidBody(a)

	assert.ElementsMatch(t, []*actor.RigidBody{a, b}, p.ObjectsNearPoint(mgl64.Vec3{}, nil))

	p.RemoveRigidBody(a)
	assert.Equal(t, []*actor.RigidBody{b}, p.ObjectsNearTo(a.Bounds(), nil))

	p.Reset()
	assert.Empty(t, p.ObjectsNearPoint(mgl64.Vec3{}, nil))
}

// =============================================================================
// OctTree
// =============================================================================

func TestOctTree_StraddlingBody(t *testing.T) {
	p := newTestPartition(KindOctTree)
	body := createBox("straddling", mgl64.Vec3{16, 2, 2}, mgl64.Vec3{1, 1, 1})

	p.AddRigidBody(body)
	assert.GreaterOrEqual(t, p.Leaves(body), 2)
	assert.Equal(t, 6, p.NodeCount())

	p.RemoveRigidBody(body)
	assert.Equal(t, 0, p.Leaves(body))
	assert.Equal(t, 0, p.NodeCount())
	assert.Empty(t, p.ObjectsNearTo(body.Bounds(), nil))
}

func TestOctTree_QueryIsLocal(t *testing.T) {
	p := newTestPartition(KindOctTree)
	near := createBox("near", mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0.5, 0.5, 0.5})
	far := createBox("far", mgl64.Vec3{100, 1, 1}, mgl64.Vec3{0.5, 0.5, 0.5})
	above := createBox("above", mgl64.Vec3{1, 50, 1}, mgl64.Vec3{0.5, 0.5, 0.5})
	p.AddRigidBody(near)
	p.AddRigidBody(far)
	p.AddRigidBody(above)

	found := p.ObjectsNearTo(near.Bounds(), nil)
	assert.Contains(t, found, near)
	assert.NotContains(t, found, far)
	assert.NotContains(t, found, above)
}

func TestOctTree_Update(t *testing.T) {
	p := newTestPartition(KindOctTree)
	body := createBox("moving", mgl64.Vec3{2, 2, 2}, mgl64.Vec3{0.5, 0.5, 0.5})
	p.AddRigidBody(body)
	nodes := p.NodeCount()

	// Unchanged bounds keep the same nodes
	p.UpdateRigidBody(body)
	assert.Equal(t, nodes, p.NodeCount())

	body.SetTransform(actor.NewTransformAt(mgl64.Vec3{50, 2, 2}, mgl64.QuatIdent()))
	p.UpdateRigidBody(body)

	assert.NotContains(t, p.ObjectsNearPoint(mgl64.Vec3{2, 2, 2}, nil), body)
	assert.Contains(t, p.ObjectsNearPoint(mgl64.Vec3{50, 2, 2}, nil), body)
	assert.Equal(t, nodes, p.NodeCount())
}

func TestOctTree_SharedLeafSurvivesRemoval(t *testing.T) {
	p := newTestPartition(KindOctTree)
	a := createBox("a", mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0.5, 0.5, 0.5})
	b := createBox("b", mgl64.Vec3{2, 2, 2}, mgl64.Vec3{0.5, 0.5, 0.5})
	p.AddRigidBody(a)
	p.AddRigidBody(b)
	nodes := p.NodeCount()

	p.RemoveRigidBody(a)
	assert.Equal(t, nodes, p.NodeCount())
	assert.Equal(t, []*actor.RigidBody{b}, p.ObjectsNearTo(a.Bounds(), nil))
}

func TestOctTree_OversizeBody(t *testing.T) {
	p := newTestPartition(KindOctTree)
	floor := createBox("floor", mgl64.Vec3{}, mgl64.Vec3{5000, 1, 5000})
	p.AddRigidBody(floor)

	assert.Equal(t, 0, p.Leaves(floor))
	assert.Contains(t, p.ObjectsNearPoint(mgl64.Vec3{-1000, 0, 3000}, nil), floor)

	p.RemoveRigidBody(floor)
	assert.Empty(t, p.ObjectsNearPoint(mgl64.Vec3{}, nil))
}

func TestOctTree_NotFiniteBounds(t *testing.T) {
	p := newTestPartition(KindOctTree)
	body := createBox("lost", mgl64.Vec3{math.Inf(1), 0, 0}, mgl64.Vec3{1, 1, 1})
	p.AddRigidBody(body)

	assert.Equal(t, 0, p.NodeCount())
	assert.Contains(t, p.ObjectsNearPoint(mgl64.Vec3{}, nil), body)
}

// =============================================================================
// QuadTree
// =============================================================================

func TestQuadTree_IgnoresHeight(t *testing.T) {
	p := newTestPartition(KindQuadTree)
	low := createBox("low", mgl64.Vec3{1, -500, 1}, mgl64.Vec3{0.5, 0.5, 0.5})
	high := createBox("high", mgl64.Vec3{1, 500, 1}, mgl64.Vec3{0.5, 0.5, 0.5})
	aside := createBox("aside", mgl64.Vec3{40, 0, 1}, mgl64.Vec3{0.5, 0.5, 0.5})
	p.AddRigidBody(low)
	p.AddRigidBody(high)
	p.AddRigidBody(aside)

	found := p.ObjectsNearPoint(mgl64.Vec3{1, 0, 1}, nil)
	assert.Contains(t, found, low)
	assert.Contains(t, found, high)
	assert.NotContains(t, found, aside)
}

func TestQuadTree_StraddlingBody(t *testing.T) {
	p := newTestPartition(KindQuadTree)
	body := createBox("straddling", mgl64.Vec3{16, 2, 16}, mgl64.Vec3{1, 1, 1})

	p.AddRigidBody(body)
	assert.Equal(t, 4, p.Leaves(body))

	p.RemoveRigidBody(body)
	assert.Equal(t, 0, p.NodeCount())
}
