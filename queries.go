package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

var down = mgl64.Vec3{0, -1, 0}

// DetermineHeight casts a ray down from point raised by stepUpMax, against the enabled bodies
// matching typeMask. It returns the highest surface point hit, within the configured query depth.
func (w *World) DetermineHeight(typeMask uint32, stepUpMax float64, point mgl64.Vec3) (mgl64.Vec3, bool) {
	origin := point.Add(mgl64.Vec3{0, stepUpMax, 0})
	depth := w.config.HeightQueryDepth + stepUpMax
	if !(depth > 0) {
		return point, false
	}

	column := actor.AABB{
		Min: origin.Add(down.Mul(depth)),
		Max: origin,
	}
	w.candidates = w.partition.ObjectsNearTo(column, w.candidates[:0])

	best, found := depth, false
	for _, body := range lo.Uniq(w.candidates) {
		if !body.Enabled || body.TypeID&typeMask == 0 || !column.Overlaps(body.Bounds()) {
			continue
		}

		if distance, ok := collision.RayCast(body.CurrentVolume, origin, down, depth); ok && distance <= best {
			best, found = distance, true
		}
	}

	if !found {
		return point, false
	}

	return origin.Add(down.Mul(best)), true
}

// DoesCollideWith returns the enabled bodies matching typeMask which penetrate volume.
// volume is expressed in world space.
func (w *World) DoesCollideWith(typeMask uint32, volume actor.Shape) []*actor.RigidBody {
	if volume == nil {
		return nil
	}

	bounds := volume.Bounds()
	w.candidates = w.partition.ObjectsNearTo(bounds, w.candidates[:0])

	var resp collision.Response
	return lo.Filter(lo.Uniq(w.candidates), func(body *actor.RigidBody, _ int) bool {
		if !body.Enabled || body.TypeID&typeMask == 0 || !bounds.Overlaps(body.Bounds()) {
			return false
		}

		resp.Reset()
		return w.context.Collide(volume, body.CurrentVolume, mgl64.Vec3{}, &resp)
	})
}
