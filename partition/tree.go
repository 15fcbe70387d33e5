package partition

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// MAX_ROOT_CELLS bounds the top level cells a single body may span.
// Larger bodies are kept aside and returned by every query.
const MAX_ROOT_CELLS = 4096

// CellKey is the integer coordinate of a top level cell
type CellKey struct {
	X, Y, Z int
}

type node struct {
	origin   mgl64.Vec3
	size     float64
	parent   int32
	key      CellKey
	children [8]int32
	bodies   []*actor.RigidBody
}

func (n *node) isLeaf(sizeMin float64) bool {
	return n.size <= sizeMin
}

type membership struct {
	bounds   actor.AABB
	leaves   []int32
	oversize bool
}

// tree is a sparse grid of top level cells, each one the root of an octree or a quadtree.
// Nodes live in an arena addressed by index, freed nodes are recycled.
type tree struct {
	log logrus.FieldLogger

	// dims is 3 for an octree, 2 for a quadtree over XZ
	dims    int
	sizeMax float64
	sizeMin float64

	nodes []node
	free  []int32
	roots map[CellKey]int32

	members  map[*actor.RigidBody]*membership
	oversize []*actor.RigidBody
}

func newTree(dims int, sizeMax, sizeMin float64, log logrus.FieldLogger) *tree {
	if sizeMax <= 0 {
		sizeMax = 1
	}
	if sizeMin <= 0 || sizeMin > sizeMax {
		sizeMin = sizeMax
	}

	return &tree{
		log:     log,
		dims:    dims,
		sizeMax: sizeMax,
		sizeMin: sizeMin,
		roots:   make(map[CellKey]int32),
		members: make(map[*actor.RigidBody]*membership),
	}
}

func (t *tree) Reset() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.oversize = t.oversize[:0]
	clear(t.roots)
	clear(t.members)
}

func (t *tree) AddRigidBody(body *actor.RigidBody) {
	if _, ok := t.members[body]; ok {
		t.UpdateRigidBody(body)
		return
	}

	m := &membership{}
	t.members[body] = m
	t.insert(body, m)
}

func (t *tree) UpdateRigidBody(body *actor.RigidBody) {
	m, ok := t.members[body]
	if !ok {
		t.AddRigidBody(body)
		return
	}
	if body.Bounds() == m.bounds {
		return
	}

	t.detach(body, m)
	t.insert(body, m)
}

func (t *tree) RemoveRigidBody(body *actor.RigidBody) {
	m, ok := t.members[body]
	if !ok {
		return
	}

	t.detach(body, m)
	delete(t.members, body)
}

func (t *tree) ObjectsNearTo(volume actor.AABB, out []*actor.RigidBody) []*actor.RigidBody {
	out = append(out, t.oversize...)

	minCell, maxCell, span, ok := t.cellRange(volume)
	if !ok {
		return out
	}

	// Wide volumes walk the existing roots instead of every covered cell
	if span > float64(len(t.roots)) {
		for key, root := range t.roots {
			if key.X >= minCell.X && key.X <= maxCell.X && key.Y >= minCell.Y && key.Y <= maxCell.Y && key.Z >= minCell.Z && key.Z <= maxCell.Z {
				out = t.query(root, volume, out)
			}
		}
		return out
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				if root, ok := t.roots[CellKey{x, y, z}]; ok {
					out = t.query(root, volume, out)
				}
			}
		}
	}

	return out
}

func (t *tree) ObjectsNearPoint(point mgl64.Vec3, out []*actor.RigidBody) []*actor.RigidBody {
	return t.ObjectsNearTo(actor.AABB{Min: point, Max: point}, out)
}

func (t *tree) Leaves(body *actor.RigidBody) int {
	if m, ok := t.members[body]; ok {
		return len(m.leaves)
	}

	return 0
}

func (t *tree) NodeCount() int {
	return len(t.nodes) - len(t.free)
}

func (t *tree) insert(body *actor.RigidBody, m *membership) {
	m.bounds = body.Bounds()
	m.leaves = m.leaves[:0]
	m.oversize = false

	minCell, maxCell, span, ok := t.cellRange(m.bounds)
	if !ok || span > MAX_ROOT_CELLS {
		t.log.WithFields(logrus.Fields{"body": body.ID, "cells": span}).Debug("body bounds exceed the grid, returned by every query")
		m.oversize = true
		t.oversize = append(t.oversize, body)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				root := t.root(CellKey{x, y, z})
				t.insertNode(root, body, m)
			}
		}
	}
}

func (t *tree) insertNode(index int32, body *actor.RigidBody, m *membership) {
	if t.nodes[index].isLeaf(t.sizeMin) {
		t.nodes[index].bodies = append(t.nodes[index].bodies, body)
		m.leaves = append(m.leaves, index)
		return
	}

	for child := 0; child < t.childCount(); child++ {
		origin, size := t.childCell(index, child)
		if !t.overlaps(origin, size, m.bounds) {
			continue
		}

		c := t.nodes[index].children[child]
		if c < 0 {
			c = t.alloc(origin, size, index, CellKey{})
			t.nodes[index].children[child] = c
		}
		t.insertNode(c, body, m)
	}
}

// detach removes body from its leaves and prunes the nodes left empty
func (t *tree) detach(body *actor.RigidBody, m *membership) {
	if m.oversize {
		for i, b := range t.oversize {
			if b == body {
				last := len(t.oversize) - 1
				t.oversize[i] = t.oversize[last]
				t.oversize[last] = nil
				t.oversize = t.oversize[:last]
				break
			}
		}
		m.oversize = false
	}

	for _, leaf := range m.leaves {
		bodies := t.nodes[leaf].bodies
		for i, b := range bodies {
			if b == body {
				last := len(bodies) - 1
				bodies[i] = bodies[last]
				bodies[last] = nil
				t.nodes[leaf].bodies = bodies[:last]
				break
			}
		}
		t.prune(leaf)
	}
	m.leaves = m.leaves[:0]
}

func (t *tree) prune(index int32) {
	for index >= 0 {
		n := &t.nodes[index]
		if len(n.bodies) > 0 {
			return
		}
		for _, c := range n.children {
			if c >= 0 {
				return
			}
		}

		parent := n.parent
		if parent < 0 {
			delete(t.roots, n.key)
		} else {
			children := &t.nodes[parent].children
			for i, c := range children {
				if c == index {
					children[i] = -1
				}
			}
		}
		t.release(index)
		index = parent
	}
}

func (t *tree) query(index int32, volume actor.AABB, out []*actor.RigidBody) []*actor.RigidBody {
	n := &t.nodes[index]
	if n.isLeaf(t.sizeMin) {
		return append(out, n.bodies...)
	}

	for _, c := range n.children {
		if c < 0 {
			continue
		}
		if t.overlaps(t.nodes[c].origin, t.nodes[c].size, volume) {
			out = t.query(c, volume, out)
		}
	}

	return out
}

func (t *tree) root(key CellKey) int32 {
	if index, ok := t.roots[key]; ok {
		return index
	}

	origin := mgl64.Vec3{float64(key.X) * t.sizeMax, float64(key.Y) * t.sizeMax, float64(key.Z) * t.sizeMax}
	index := t.alloc(origin, t.sizeMax, -1, key)
	t.roots[key] = index

	return index
}

func (t *tree) alloc(origin mgl64.Vec3, size float64, parent int32, key CellKey) int32 {
	n := node{
		origin:   origin,
		size:     size,
		parent:   parent,
		key:      key,
		children: [8]int32{-1, -1, -1, -1, -1, -1, -1, -1},
	}

	if last := len(t.free) - 1; last >= 0 {
		index := t.free[last]
		t.free = t.free[:last]
		n.bodies = t.nodes[index].bodies[:0]
		t.nodes[index] = n
		return index
	}

	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

func (t *tree) release(index int32) {
	t.nodes[index].bodies = t.nodes[index].bodies[:0]
	t.nodes[index].parent = -1
	t.free = append(t.free, index)
}

func (t *tree) childCount() int {
	if t.dims == 2 {
		return 4
	}

	return 8
}

// childCell returns the cell of the i-th child: bit 0 splits X, then Z for a quadtree, Y and Z for an octree
func (t *tree) childCell(index int32, i int) (mgl64.Vec3, float64) {
	n := &t.nodes[index]
	half := n.size / 2
	origin := n.origin

	if i&1 != 0 {
		origin[0] += half
	}
	if t.dims == 2 {
		if i&2 != 0 {
			origin[2] += half
		}
	} else {
		if i&2 != 0 {
			origin[1] += half
		}
		if i&4 != 0 {
			origin[2] += half
		}
	}

	return origin, half
}

// overlaps tests a half-open cell [origin, origin+size) against closed bounds
func (t *tree) overlaps(origin mgl64.Vec3, size float64, bounds actor.AABB) bool {
	for k := 0; k < 3; k++ {
		if t.dims == 2 && k == 1 {
			continue
		}
		if bounds.Max[k] < origin[k] || bounds.Min[k] >= origin[k]+size {
			return false
		}
	}

	return true
}

// cellRange returns the top level cells covered by bounds and their count.
// It fails on bounds too large to be addressed by cell coordinates.
func (t *tree) cellRange(bounds actor.AABB) (CellKey, CellKey, float64, bool) {
	const maxCoordinate = 1 << 40

	span := 1.0
	for k := 0; k < 3; k++ {
		if t.dims == 2 && k == 1 {
			continue
		}

		lo := math.Floor(bounds.Min[k] / t.sizeMax)
		hi := math.Floor(bounds.Max[k] / t.sizeMax)
		if math.IsNaN(lo) || math.IsNaN(hi) || lo < -maxCoordinate || hi > maxCoordinate || hi < lo {
			return CellKey{}, CellKey{}, 0, false
		}
		span *= hi - lo + 1
	}

	return t.worldToCell(bounds.Min), t.worldToCell(bounds.Max), span, true
}

// worldToCell converts a world position into top level cell coordinates
func (t *tree) worldToCell(pos mgl64.Vec3) CellKey {
	key := CellKey{
		X: int(math.Floor(pos.X() / t.sizeMax)),
		Y: int(math.Floor(pos.Y() / t.sizeMax)),
		Z: int(math.Floor(pos.Z() / t.sizeMax)),
	}
	if t.dims == 2 {
		key.Y = 0
	}

	return key
}
