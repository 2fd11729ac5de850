// Package worldlock recomputes, per object and per frame, the render
// transform that keeps a placed object visually fixed at its real-world
// location. Each anchor record variant has its own transform pipeline.
package worldlock

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/arlock/arlock/internal/anchor"
	arerr "github.com/arlock/arlock/internal/errors"
	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/pose"
	"github.com/arlock/arlock/internal/scene"
)

// Frame is the per-tick input to transform resolution.
type Frame struct {
	Seq uint64

	// Orientation is the live orientation-only camera pose, nil when the
	// sensor source has no reading this frame. Only consulted for
	// orientation-relative records.
	Orientation *pose.Pose
}

// Engine resolves placed-object transforms. It keeps the last
// successfully resolved pose per object so a frame with lost anchor
// tracking reuses the previous pose instead of dropping the object.
type Engine struct {
	logger       logging.Logger
	lastResolved map[int64]pose.Pose
}

// New creates a world-lock engine.
func New(logger logging.Logger) *Engine {
	return &Engine{
		logger:       logger.WithComponent("worldlock"),
		lastResolved: make(map[int64]pose.Pose),
	}
}

// Resolve computes the object's render transform for this frame. ok is
// false only when no transform can be produced at all (an anchor that
// has never resolved, or an orientation record before the first sensor
// reading); the object is skipped for that frame, never destroyed.
func (e *Engine) Resolve(obj *scene.Object, f Frame) (pose.Pose, bool) {
	switch rec := obj.Anchor.(type) {
	case *anchor.Native:
		return e.resolveNative(obj.ID, rec, f)
	case *anchor.FixedMatrix:
		// Captured in world space at placement; the session's local
		// frame does not re-anchor itself, so the stored pose is
		// correct verbatim every frame.
		return rec.WorldPose, true
	case *anchor.OrientationRelative:
		return e.resolveOrientationRelative(obj.ID, rec, f)
	default:
		e.logger.Error(context.Background(),
			arerr.NewInternalError("unknown anchor record variant", nil),
			"skipping object", "object_id", obj.ID)
		return pose.Pose{}, false
	}
}

func (e *Engine) resolveNative(id int64, rec *anchor.Native, f Frame) (pose.Pose, bool) {
	p, ok := rec.Handle.Pose(rec.Space)
	if ok {
		e.lastResolved[id] = p
		return p, true
	}

	// Tracking lost this frame: reuse the last good pose, keep the
	// object and its record.
	last, have := e.lastResolved[id]
	if !have {
		return pose.Pose{}, false
	}
	e.logger.Debug(context.Background(), "anchor untrackable, reusing last pose",
		"object_id", id, "seq", f.Seq)
	return last, true
}

// resolveOrientationRelative applies the inverse of the live rotation
// (rotation component only) to the offset from the reference camera
// position to the stored world position. Translational device movement
// after commit is ignored; the record assumes the device only rotated.
func (e *Engine) resolveOrientationRelative(id int64, rec *anchor.OrientationRelative, f Frame) (pose.Pose, bool) {
	if f.Orientation == nil {
		last, have := e.lastResolved[id]
		return last, have
	}

	offset := rec.WorldPosition.Sub(rec.ReferenceCameraPose.Position)
	local := f.Orientation.Orientation.Inverse().Rotate(offset)

	p := pose.Pose{
		Position:    local,
		Orientation: mgl64.QuatIdent(),
		Frame:       pose.FrameViewer,
	}
	e.lastResolved[id] = p
	return p, true
}

// Forget drops the cached pose for an object. Called when the scene is
// cleared.
func (e *Engine) Forget(id int64) {
	delete(e.lastResolved, id)
}

// Reset drops every cached pose. Called on session end.
func (e *Engine) Reset() {
	e.lastResolved = make(map[int64]pose.Pose)
}

// Tick resolves every placed object and submits the resulting local
// transforms to the render target. Runs synchronously inside the frame
// callback.
func (e *Engine) Tick(reg *scene.Registry, f Frame, target host.RenderTarget) []host.ObjectTransform {
	objects := reg.Objects()
	transforms := make([]host.ObjectTransform, 0, len(objects))

	for _, obj := range objects {
		p, ok := e.Resolve(obj, f)
		if !ok {
			continue
		}
		transforms = append(transforms, host.ObjectTransform{
			ObjectID: obj.ID,
			Local:    p,
			Scale:    obj.Scale,
		})
	}

	if target != nil {
		target.SubmitTransforms(f.Seq, transforms)
	}
	return transforms
}
