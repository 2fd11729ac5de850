package bridge

import (
	"context"
	"encoding/json"

	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/pose"
)

// The bridge's host-interface implementations. Per-frame calls read the
// bridge's last-known remote state synchronously; only setup calls go
// over the wire.

// RequestSession implements host.XRSystem.
func (b *Bridge) RequestSession(ctx context.Context, req host.SessionRequest) (host.XRSession, error) {
	resp, err := b.request(ctx, msgRequestSession, sessionRequestPayload{
		RequiredFeatures: req.RequiredFeatures,
		OptionalFeatures: req.OptionalFeatures,
	})
	if err != nil {
		return nil, err
	}

	var p sessionGrantedPayload
	if err := json.Unmarshal(resp.Payload, &p); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.ended = false
	b.endFns = nil
	b.mu.Unlock()

	return &remoteSession{
		bridge:          b,
		mode:            host.SessionMode(p.Mode),
		supportsAnchors: p.SupportsAnchors,
	}, nil
}

type remoteSession struct {
	bridge          *Bridge
	mode            host.SessionMode
	supportsAnchors bool
}

func (s *remoteSession) Mode() host.SessionMode { return s.mode }

func (s *remoteSession) RequestReferenceSpace(ctx context.Context, kind host.ReferenceSpaceKind) (host.ReferenceSpace, error) {
	// The remote host establishes its reference space when the session
	// is granted; the handle is local bookkeeping.
	return remoteSpace{kind: kind}, nil
}

func (s *remoteSession) RequestHitTestSource(ctx context.Context) (host.HitTestSource, error) {
	return &remoteHitSource{bridge: s.bridge}, nil
}

func (s *remoteSession) ViewerPose(space host.ReferenceSpace) (pose.Pose, bool) {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	if s.bridge.viewer == nil || s.bridge.ended {
		return pose.Pose{}, false
	}
	return *s.bridge.viewer, true
}

func (s *remoteSession) SupportsAnchors() bool { return s.supportsAnchors }

func (s *remoteSession) CreateAnchor(ctx context.Context, p pose.Pose) (host.Anchor, error) {
	resp, err := s.bridge.request(ctx, msgCreateAnchor, createAnchorPayload{Pose: toWire(p)})
	if err != nil {
		return nil, err
	}
	var payload anchorCreatedPayload
	if err := json.Unmarshal(resp.Payload, &payload); err != nil {
		return nil, err
	}
	return &remoteAnchor{bridge: s.bridge, id: payload.AnchorID}, nil
}

func (s *remoteSession) OnEnd(fn func()) {
	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	s.bridge.endFns = append(s.bridge.endFns, fn)
}

func (s *remoteSession) End() error {
	return s.bridge.send(context.Background(), Envelope{Type: msgEndSession})
}

type remoteSpace struct {
	kind host.ReferenceSpaceKind
}

func (r remoteSpace) Kind() host.ReferenceSpaceKind { return r.kind }

type remoteHitSource struct {
	bridge *Bridge
}

func (h *remoteHitSource) CurrentHit(space host.ReferenceSpace) (pose.Pose, bool) {
	h.bridge.mu.Lock()
	defer h.bridge.mu.Unlock()
	if h.bridge.hit == nil || h.bridge.ended {
		return pose.Pose{}, false
	}
	return *h.bridge.hit, true
}

func (h *remoteHitSource) Cancel() {
	h.bridge.mu.Lock()
	defer h.bridge.mu.Unlock()
	h.bridge.hit = nil
}

type remoteAnchor struct {
	bridge *Bridge
	id     string
}

func (a *remoteAnchor) Pose(space host.ReferenceSpace) (pose.Pose, bool) {
	a.bridge.mu.Lock()
	defer a.bridge.mu.Unlock()
	p, ok := a.bridge.anchorPoses[a.id]
	return p, ok
}

func (a *remoteAnchor) Detach() {
	_ = a.bridge.send(context.Background(), Envelope{
		Type:    msgDetachAnchor,
		Payload: mustMarshal(detachAnchorPayload{AnchorID: a.id}),
	})
}

// EnumerateDevices implements host.CameraAPI.
func (b *Bridge) EnumerateDevices(ctx context.Context) ([]host.CameraDevice, error) {
	resp, err := b.request(ctx, msgEnumerateDevices, nil)
	if err != nil {
		return nil, err
	}
	var p deviceListPayload
	if err := json.Unmarshal(resp.Payload, &p); err != nil {
		return nil, err
	}
	devices := make([]host.CameraDevice, 0, len(p.Devices))
	for _, d := range p.Devices {
		devices = append(devices, host.CameraDevice{ID: d.ID, Label: d.Label})
	}
	return devices, nil
}

// OpenStream implements host.CameraAPI.
func (b *Bridge) OpenStream(ctx context.Context, deviceID string, width, height int) (host.CameraStream, error) {
	_, err := b.request(ctx, msgOpenStream, openStreamPayload{
		DeviceID: deviceID, Width: width, Height: height,
	})
	if err != nil {
		return nil, err
	}
	return &remoteStream{bridge: b}, nil
}

type remoteStream struct {
	bridge *Bridge
}

func (s *remoteStream) StopTracks() {
	_ = s.bridge.send(context.Background(), Envelope{Type: msgStopStream})
}

// RequestPermission implements host.OrientationSensor.
func (b *Bridge) RequestPermission(ctx context.Context) error {
	_, err := b.request(ctx, msgRequestSensor, nil)
	return err
}

// Events implements host.OrientationSensor. Each call is a fresh
// subscription; sensor pushes fan out to every live one.
func (b *Bridge) Events() <-chan pose.OrientationAngles {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan pose.OrientationAngles, 64)
	b.sensorSubs = append(b.sensorSubs, ch)
	return ch
}

// Unsubscribe implements host.OrientationSensor.
func (b *Bridge) Unsubscribe(ch <-chan pose.OrientationAngles) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.sensorSubs {
		if sub == ch {
			close(sub)
			b.sensorSubs = append(b.sensorSubs[:i], b.sensorSubs[i+1:]...)
			break
		}
	}
}
