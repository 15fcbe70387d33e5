// Package partition provides the broad phase: spatial structures answering which bodies
// may touch a volume.
package partition

import (
	"strings"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Kind selects the partition implementation
type Kind int

const (
	// KindNone keeps a flat list, every query returns every body
	KindNone Kind = iota
	// KindOctTree subdivides space in 2x2x2 cells
	KindOctTree
	// KindQuadTree subdivides the XZ plane in 2x2 cells, Y is unbounded
	KindQuadTree
)

var ErrUnknownKind = errors.New("unknown partition kind")

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindOctTree:
		return "octree"
	case KindQuadTree:
		return "quadtree"
	}

	return "unknown"
}

// ParseKind reads a Kind from its name, case insensitive
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return KindNone, nil
	case "octree":
		return KindOctTree, nil
	case "quadtree":
		return KindQuadTree, nil
	}

	return KindNone, errors.Wrapf(ErrUnknownKind, "%q", name)
}

// Partition indexes bodies by their world bounds.
// Queries append to out and may return the same body several times; callers deduplicate.
type Partition interface {
	Reset()
	AddRigidBody(body *actor.RigidBody)
	UpdateRigidBody(body *actor.RigidBody)
	RemoveRigidBody(body *actor.RigidBody)

	ObjectsNearTo(volume actor.AABB, out []*actor.RigidBody) []*actor.RigidBody
	ObjectsNearPoint(point mgl64.Vec3, out []*actor.RigidBody) []*actor.RigidBody

	// Leaves returns the number of leaves holding body
	Leaves(body *actor.RigidBody) int
	// NodeCount returns the number of live nodes
	NodeCount() int
}

// New creates a partition of the given kind. sizeMax is the edge of the top level cells,
// sizeMin the edge under which cells are not subdivided anymore.
func New(kind Kind, sizeMax, sizeMin float64, log logrus.FieldLogger) Partition {
	if log == nil {
		log = logrus.StandardLogger()
	}

	switch kind {
	case KindOctTree:
		return newTree(3, sizeMax, sizeMin, log)
	case KindQuadTree:
		return newTree(2, sizeMax, sizeMin, log)
	}

	return newList()
}

// list is the KindNone partition
type list struct {
	bodies []*actor.RigidBody
	index  map[*actor.RigidBody]int
}

func newList() *list {
	return &list{index: make(map[*actor.RigidBody]int)}
}

func (l *list) Reset() {
	l.bodies = l.bodies[:0]
	clear(l.index)
}

func (l *list) AddRigidBody(body *actor.RigidBody) {
	if _, ok := l.index[body]; ok {
		return
	}
	l.index[body] = len(l.bodies)
	l.bodies = append(l.bodies, body)
}

func (l *list) UpdateRigidBody(body *actor.RigidBody) {
	l.AddRigidBody(body)
}

func (l *list) RemoveRigidBody(body *actor.RigidBody) {
	i, ok := l.index[body]
	if !ok {
		return
	}

	last := len(l.bodies) - 1
	l.bodies[i] = l.bodies[last]
	l.index[l.bodies[i]] = i
	l.bodies[last] = nil
	l.bodies = l.bodies[:last]
	delete(l.index, body)
}

func (l *list) ObjectsNearTo(volume actor.AABB, out []*actor.RigidBody) []*actor.RigidBody {
	return append(out, l.bodies...)
}

func (l *list) ObjectsNearPoint(point mgl64.Vec3, out []*actor.RigidBody) []*actor.RigidBody {
	return append(out, l.bodies...)
}

func (l *list) Leaves(body *actor.RigidBody) int {
	if _, ok := l.index[body]; ok {
		return 1
	}

	return 0
}

func (l *list) NodeCount() int {
	return 1
}
