package impulse

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RenderNode is the render side counterpart of a body
type RenderNode interface {
	SetTransform(position mgl32.Vec3, rotation mgl32.Quat)
}

// RenderScene resolves the render node of a body ID
type RenderScene interface {
	Node(id string) (RenderNode, bool)
}

// Synch copies the body transforms to their render nodes.
// Bodies without a node are skipped.
func (w *World) Synch(scene RenderScene) {
	if scene == nil {
		return
	}

	for _, body := range w.bodies {
		node, ok := scene.Node(body.ID)
		if !ok {
			w.log.WithField("body", body.ID).Debug("no render node, body skipped")
			continue
		}

		p := body.Transform.Position
		q := body.Transform.Rotation
		node.SetTransform(
			mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])},
			mgl32.Quat{W: float32(q.W), V: mgl32.Vec3{float32(q.V[0]), float32(q.V[1]), float32(q.V[2])}},
		)
	}
}
