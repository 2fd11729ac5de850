package session

import (
	"context"

	"github.com/arlock/arlock/internal/anchor"
	"github.com/arlock/arlock/internal/capability"
	arerr "github.com/arlock/arlock/internal/errors"
	"github.com/arlock/arlock/internal/pose"
	"github.com/arlock/arlock/internal/scene"
	"github.com/arlock/arlock/internal/worldlock"
)

// Tick runs one frame: apply resolved placements, sample the pose
// source, update the reticle, and recompute every placed object's render
// transform. All work is synchronous; nothing in here may wait on an
// asynchronous host call. Results that are not ready yet are picked up
// on a later tick.
func (l *Lifecycle) Tick(ctx context.Context) FrameOutput {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Active() || l.source == nil {
		return FrameOutput{}
	}

	l.seq++
	seq := l.seq

	l.drainPlacementsLocked(ctx)

	sample := l.source.Sample(seq)
	l.ret.Update(seq, sample)

	frame := worldlock.Frame{Seq: seq}
	if l.orientation != nil {
		if p, ok := l.orientation.CameraPose(); ok {
			frame.Orientation = &p
		}
	}

	transforms := l.engine.Tick(l.registry, frame, l.target)

	return FrameOutput{
		Seq:        seq,
		Reticle:    l.ret.State(),
		Transforms: transforms,
	}
}

// drainPlacementsLocked applies anchor records resolved since the last
// tick. A record from a previous session epoch is discarded: the
// session it belonged to is gone and its object must not be created.
func (l *Lifecycle) drainPlacementsLocked(ctx context.Context) {
	for {
		select {
		case res := <-l.placements:
			if res.epoch != l.epoch || !l.state.Active() {
				l.logger.Debug(ctx, "discarding stale placement result",
					"result_epoch", res.epoch, "epoch", l.epoch)
				l.detachStale(res.record)
				continue
			}
			obj := l.registry.Place(res.kind, res.modelRef, res.scale, res.record)
			l.logger.Info(ctx, "object placed",
				"object_id", obj.ID,
				"kind", obj.Kind.String(),
				"anchor", res.record.Variant().String())
		default:
			return
		}
	}
}

// detachStale releases a native anchor handle that resolved after its
// session ended.
func (l *Lifecycle) detachStale(rec anchor.Record) {
	if native, ok := rec.(*anchor.Native); ok && native.Handle != nil {
		native.Handle.Detach()
	}
}

// CommitPlacement accepts a placement request at the current reticle
// candidate. Returns false, without creating anything, while the reticle
// is not armed. The strategy selector runs outside the frame loop; the
// placed object appears on the first tick after the record resolves.
func (l *Lifecycle) CommitPlacement(ctx context.Context, kind scene.Kind, modelRef string, scale float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	tier, ok := l.state.Tier()
	if !ok {
		return false
	}
	candidate, ok := l.ret.Candidate()
	if !ok {
		return false
	}

	pc := anchor.PlacementContext{
		Tier:  tier,
		Space: l.space,
	}
	switch tier {
	case capability.TierNativeAR:
		pc.Session = l.sess
		pc.CanCreateAnchors = l.sess != nil && l.sess.SupportsAnchors()
		pc.CameraPose = l.viewerPoseLocked()
	case capability.TierInlineDegraded:
		pc.Session = l.sess
		pc.CameraPose = l.viewerPoseLocked()
	case capability.TierSensorFallback:
		if l.orientation != nil {
			if p, ok := l.orientation.CameraPose(); ok {
				pc.CameraPose = p
			}
		}
	}

	epoch := l.epoch
	go func() {
		record := l.selector.Select(ctx, candidate, pc)
		select {
		case l.placements <- placementResult{
			epoch:    epoch,
			kind:     kind,
			modelRef: modelRef,
			scale:    scale,
			record:   record,
		}:
		default:
			// Nobody is draining (session gone and queue full). Drop
			// the record; a late native anchor must not leak.
			l.detachStale(record)
		}
	}()
	return true
}

// viewerPoseLocked reads the current viewer pose from the host session.
func (l *Lifecycle) viewerPoseLocked() pose.Pose {
	if l.sess == nil || l.space == nil {
		return pose.Identity(pose.FrameLocalFloor)
	}
	p, ok := l.sess.ViewerPose(l.space)
	if !ok {
		return pose.Identity(pose.FrameLocalFloor)
	}
	return p
}

// ClearScene removes every placed object.
func (l *Lifecycle) ClearScene(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registry.Clear()
	l.engine.Reset()
	l.logger.Info(ctx, "scene cleared", "session_id", l.id.String())
}

// SwitchCamera switches the live camera stream to another device. The
// previous stream's tracks are stopped before the new request starts;
// at most one stream is ever open.
func (l *Lifecycle) SwitchCamera(ctx context.Context, deviceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateSensorFallback {
		return arerr.NewInternalError("camera switch outside sensor fallback", nil)
	}

	if l.stream != nil {
		l.stream.StopTracks()
		l.stream = nil
	}

	stream, err := l.camera.OpenStream(ctx, deviceID, l.cfg.CameraWidth, l.cfg.CameraHeight)
	if err != nil {
		l.logger.Warn(ctx, err, "camera switch failed", "device_id", deviceID)
		return arerr.NewPermissionError(arerr.ErrCodeCameraDenied, "camera stream unavailable", err)
	}
	l.stream = stream
	l.cfg.CameraDeviceID = deviceID
	return nil
}

// Devices enumerates the host's cameras.
func (l *Lifecycle) Devices(ctx context.Context) ([]Device, error) {
	devices, err := l.camera.EnumerateDevices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, Device{ID: d.ID, Label: d.Label})
	}
	return out, nil
}

// Device describes one selectable camera.
type Device struct {
	ID    string
	Label string
}
