// Package hostsim is a deterministic in-process implementation of every
// host interface the tracking core consumes. It drives the replay
// command and the test suite: hit sequences, anchor drift, and failure
// injection (session rejection, anchor-creation errors, permission
// denials) are all scriptable.
package hostsim

import (
	"context"
	"fmt"
	"sync"

	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/pose"
)

// Options configures the simulated host's behavior.
type Options struct {
	// RejectSession makes every session request fail.
	RejectSession bool

	// SessionMode is the mode the granted session reports.
	SessionMode host.SessionMode

	// UnknownMode makes the granted session report no mode at all,
	// overriding SessionMode. Some hosts leave the mode undefined.
	UnknownMode bool

	// SupportsAnchors enables native anchor creation.
	SupportsAnchors bool

	// AnchorCreateErr, when set, makes every anchor creation fail.
	AnchorCreateErr error

	// DenySensor makes the orientation permission request fail.
	DenySensor bool

	// DenyCamera makes every stream request fail.
	DenyCamera bool

	// Devices is the enumerable camera list.
	Devices []host.CameraDevice
}

// Host is the simulated host platform.
type Host struct {
	opts Options

	XR     *XRSystem
	Camera *Camera
	Sensor *Sensor
	Render *RenderRecorder
	Models *ModelLoader
}

// NewHost builds a simulated host from options.
func NewHost(opts Options) *Host {
	if opts.SessionMode == "" && !opts.RejectSession {
		opts.SessionMode = host.ModeImmersiveAR
	}
	h := &Host{opts: opts}
	h.XR = &XRSystem{opts: opts}
	h.Camera = &Camera{devices: opts.Devices, deny: opts.DenyCamera}
	h.Sensor = NewSensor(opts.DenySensor)
	h.Render = &RenderRecorder{}
	h.Models = &ModelLoader{fragments: map[string]string{}}
	return h
}

// XRSystem implements host.XRSystem.
type XRSystem struct {
	opts Options

	mu       sync.Mutex
	sessions []*Session
}

// RequestSession grants or rejects a simulated session.
func (x *XRSystem) RequestSession(ctx context.Context, req host.SessionRequest) (host.XRSession, error) {
	if x.opts.RejectSession {
		return nil, fmt.Errorf("hostsim: session request rejected")
	}
	mode := x.opts.SessionMode
	if x.opts.UnknownMode {
		mode = host.ModeUnknown
	}
	s := &Session{
		mode:            mode,
		supportsAnchors: x.opts.SupportsAnchors,
		anchorErr:       x.opts.AnchorCreateErr,
		viewer:          pose.Identity(pose.FrameLocalFloor),
	}
	x.mu.Lock()
	x.sessions = append(x.sessions, s)
	x.mu.Unlock()
	return s, nil
}

// LastSession returns the most recently granted session.
func (x *XRSystem) LastSession() *Session {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.sessions) == 0 {
		return nil
	}
	return x.sessions[len(x.sessions)-1]
}

// Session implements host.XRSession with scriptable per-frame state.
type Session struct {
	mode            host.SessionMode
	supportsAnchors bool
	anchorErr       error

	mu             sync.Mutex
	viewer         pose.Pose
	hit            *pose.Pose
	onEnd          []func()
	ended          bool
	hitSourcesOpen int
	anchors        []*Anchor

	// anchorGate, when non-nil, blocks anchor creation until the gate
	// is closed. Used to script in-flight creations.
	anchorGate chan struct{}
}

// Mode reports the scripted session mode.
func (s *Session) Mode() host.SessionMode { return s.mode }

// RequestReferenceSpace grants any requested space.
func (s *Session) RequestReferenceSpace(ctx context.Context, kind host.ReferenceSpaceKind) (host.ReferenceSpace, error) {
	return refSpace{kind: kind}, nil
}

// RequestHitTestSource opens a hit-test source bound to this session's
// scripted hit state.
func (s *Session) RequestHitTestSource(ctx context.Context) (host.HitTestSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil, fmt.Errorf("hostsim: session ended")
	}
	s.hitSourcesOpen++
	return &hitSource{session: s}, nil
}

// ViewerPose returns the scripted viewer pose.
func (s *Session) ViewerPose(space host.ReferenceSpace) (pose.Pose, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return pose.Pose{}, false
	}
	return s.viewer, true
}

// SupportsAnchors reports the scripted anchor capability.
func (s *Session) SupportsAnchors() bool { return s.supportsAnchors }

// CreateAnchor creates a simulated anchor at the given pose, honoring
// the scripted failure and the anchor gate.
func (s *Session) CreateAnchor(ctx context.Context, p pose.Pose) (host.Anchor, error) {
	s.mu.Lock()
	gate := s.anchorGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.anchorErr != nil {
		return nil, s.anchorErr
	}

	a := &Anchor{pose: p, trackable: true}
	s.mu.Lock()
	s.anchors = append(s.anchors, a)
	s.mu.Unlock()
	return a, nil
}

// OnEnd registers an end callback. Delivered asynchronously, matching
// host event-queue semantics.
func (s *Session) OnEnd(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = append(s.onEnd, fn)
}

// End terminates the session without firing end callbacks; the core
// called End itself and already knows.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	return nil
}

// SignalEnd simulates a host-initiated session end (hardware interrupt,
// permission revocation) and fires the end callbacks.
func (s *Session) SignalEnd() {
	s.mu.Lock()
	s.ended = true
	callbacks := append([]func(){}, s.onEnd...)
	s.mu.Unlock()
	for _, fn := range callbacks {
		go fn()
	}
}

// Ended reports whether the session has ended.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// SetViewerPose scripts the per-frame viewer pose.
func (s *Session) SetViewerPose(p pose.Pose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewer = p
}

// SetHit scripts the current frame's surface hit; nil scripts a miss.
func (s *Session) SetHit(p *pose.Pose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hit = p
}

// HoldAnchorCreation gates anchor creation; the returned release
// function lets blocked creations proceed.
func (s *Session) HoldAnchorCreation() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.anchorGate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// HitSourcesOpen returns the number of hit-test sources not yet
// canceled. Used by resource-leak assertions.
func (s *Session) HitSourcesOpen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hitSourcesOpen
}

// Anchors returns every anchor the session created.
func (s *Session) Anchors() []*Anchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Anchor{}, s.anchors...)
}

type refSpace struct {
	kind host.ReferenceSpaceKind
}

func (r refSpace) Kind() host.ReferenceSpaceKind { return r.kind }

type hitSource struct {
	session *Session
	mu      sync.Mutex
	stopped bool
}

func (h *hitSource) CurrentHit(space host.ReferenceSpace) (pose.Pose, bool) {
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if stopped {
		return pose.Pose{}, false
	}

	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	if h.session.ended || h.session.hit == nil {
		return pose.Pose{}, false
	}
	return *h.session.hit, true
}

func (h *hitSource) Cancel() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	h.session.mu.Lock()
	h.session.hitSourcesOpen--
	h.session.mu.Unlock()
}

// Anchor implements host.Anchor with scriptable drift and tracking
// state.
type Anchor struct {
	mu        sync.Mutex
	pose      pose.Pose
	trackable bool
	detached  bool
}

// Pose returns the anchor's current pose, false while untrackable.
func (a *Anchor) Pose(space host.ReferenceSpace) (pose.Pose, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detached || !a.trackable {
		return pose.Pose{}, false
	}
	return a.pose, true
}

// Detach releases the anchor.
func (a *Anchor) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detached = true
}

// Detached reports whether Detach was called.
func (a *Anchor) Detached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detached
}

// SetPose scripts anchor drift: the host's corrected world pose.
func (a *Anchor) SetPose(p pose.Pose) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pose = p
}

// SetTrackable scripts tracking loss and recovery.
func (a *Anchor) SetTrackable(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trackable = ok
}
