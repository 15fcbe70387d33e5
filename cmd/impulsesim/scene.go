package main

import (
	"sort"
	"strconv"
	"strings"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

const (
	typeGround uint32 = 1 << iota
	typeProp
)

var scenes = map[string]func(w *impulse.World) error{
	"drop":  dropScene,
	"stack": stackScene,
	"slope": slopeScene,
}

func sceneNames() string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}

func addFloor(w *impulse.World) error {
	_, err := w.AddStaticRigidBody("floor", true, typeGround, actor.NewTransformAt(mgl64.Vec3{0, -0.5, 0}, mgl64.QuatIdent()),
		actor.NewAABB(mgl64.Vec3{}, mgl64.Vec3{20, 0.5, 20}), 0.2, 0.6, 0, mgl64.Mat3{})

	return err
}

// dropScene drops a sphere, a capsule and a rotated box on the floor
func dropScene(w *impulse.World) error {
	if err := addFloor(w); err != nil {
		return err
	}

	if _, err := w.AddRigidBody("sphere", true, typeProp, actor.NewTransformAt(mgl64.Vec3{0, 5, 0}, mgl64.QuatIdent()),
		&actor.Sphere{Radius: 0.5}, 0.5, 0.5, 1, mgl64.Mat3{}); err != nil {
		return err
	}
	if _, err := w.AddRigidBody("capsule", true, typeProp, actor.NewTransformAt(mgl64.Vec3{3, 4, 0}, mgl64.QuatRotate(0.4, mgl64.Vec3{0, 0, 1})),
		&actor.Capsule{Start: mgl64.Vec3{0, -0.5, 0}, End: mgl64.Vec3{0, 0.5, 0}, Radius: 0.3}, 0.2, 0.5, 1, mgl64.Mat3{}); err != nil {
		return err
	}
	_, err := w.AddRigidBody("box", true, typeProp, actor.NewTransformAt(mgl64.Vec3{-3, 3, 0}, mgl64.QuatRotate(0.3, mgl64.Vec3{1, 0, 0})),
		actor.NewOBB(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}), 0.1, 0.6, 2, mgl64.Mat3{})

	return err
}

// stackScene piles boxes on top of each other
func stackScene(w *impulse.World) error {
	if err := addFloor(w); err != nil {
		return err
	}

	for i := 0; i < 5; i++ {
		id := "box" + strconv.Itoa(i)
		position := mgl64.Vec3{0, 0.5 + float64(i)*1.01, 0}
		if _, err := w.AddRigidBody(id, true, typeProp, actor.NewTransformAt(position, mgl64.QuatIdent()),
			actor.NewOBB(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}), 0, 0.7, 1, mgl64.Mat3{}); err != nil {
			return err
		}
	}

	return nil
}

// slopeScene slides a box down a static ramp made of two triangles
func slopeScene(w *impulse.World) error {
	if err := addFloor(w); err != nil {
		return err
	}

	ramp := actor.NewConvexMesh([]mgl64.Vec3{
		{-4, 3, -2}, {-4, 3, 2}, {4, 0, -2}, {4, 0, 2},
		{-4, 0, -2}, {-4, 0, 2},
	}, []int{
		0, 1, 3, 0, 3, 2, // slope
		4, 2, 3, 4, 3, 5, // bottom
		0, 4, 5, 0, 5, 1, // back
		0, 2, 4, // side
		1, 5, 3, // side
	})
	if _, err := w.AddStaticRigidBody("ramp", true, typeGround, actor.NewTransform(), ramp, 0, 0.3, 0, mgl64.Mat3{}); err != nil {
		return err
	}

	_, err := w.AddRigidBody("slider", true, typeProp, actor.NewTransformAt(mgl64.Vec3{-3, 3.6, 0}, mgl64.QuatRotate(-0.36, mgl64.Vec3{0, 0, 1})),
		actor.NewOBB(mgl64.Vec3{}, mgl64.Vec3{0.3, 0.3, 0.3}), 0, 0.2, 1, mgl64.Mat3{})

	return err
}

func logBodies(log logrus.FieldLogger, w *impulse.World, tick int) {
	for _, body := range w.Bodies() {
		if body.IsStatic() {
			continue
		}
		log.WithFields(logrus.Fields{
			"tick":     tick,
			"body":     body.ID,
			"position": body.Transform.Position,
			"velocity": body.Velocity,
			"sleeping": body.IsSleeping,
		}).Info("body")
	}
}

type eventPrinter struct {
	log    logrus.FieldLogger
	begins int
}

func (p *eventPrinter) OnCollision(a, b *actor.RigidBody, resp *collision.Response) {}

func (p *eventPrinter) OnCollisionBegin(a, b *actor.RigidBody) {
	p.begins++
	p.log.WithFields(logrus.Fields{"a": a.ID, "b": b.ID}).Debug("collision begin")
}

func (p *eventPrinter) OnCollisionEnd(a, b *actor.RigidBody) {
	p.log.WithFields(logrus.Fields{"a": a.ID, "b": b.ID}).Debug("collision end")
}

func (p *eventPrinter) OnSleep(body *actor.RigidBody) {
	p.log.WithField("body", body.ID).Debug("sleep")
}

func (p *eventPrinter) OnWake(body *actor.RigidBody) {
	p.log.WithField("body", body.ID).Debug("wake")
}
