// Package host declares the interfaces of the external collaborators the
// tracking core consumes: the XR platform, camera device API, orientation
// sensor, model loader, and render target. The core never depends on a
// concrete host; production runs against the websocket bridge and tests
// against the deterministic simulator.
package host

import (
	"context"

	"github.com/arlock/arlock/internal/pose"
)

// SessionMode is the mode the host reports for a granted session.
type SessionMode string

const (
	// ModeImmersiveAR is a full AR session with camera passthrough.
	ModeImmersiveAR SessionMode = "immersive-ar"
	// ModeInline is a non-immersive session rendered in the page.
	ModeInline SessionMode = "inline"
	// ModeImmersiveVR is reported by VR simulators; not an AR session.
	ModeImmersiveVR SessionMode = "immersive-vr"
	// ModeUnknown means the host did not report a mode. Treated as
	// inline-degraded: proceed cautiously, skip anchor creation.
	ModeUnknown SessionMode = ""
)

// SessionRequest carries the feature descriptors for a session request.
type SessionRequest struct {
	RequiredFeatures []string
	OptionalFeatures []string
}

// Standard feature descriptor names.
const (
	FeatureHitTest    = "hit-test"
	FeatureAnchors    = "anchors"
	FeatureLocalFloor = "local-floor"
)

// XRSystem is the entry point of the host AR platform.
type XRSystem interface {
	// RequestSession asks the host for an AR session. Asynchronous;
	// rejection is a normal outcome on unsupported devices.
	RequestSession(ctx context.Context, req SessionRequest) (XRSession, error)
}

// ReferenceSpaceKind names a session reference space.
type ReferenceSpaceKind string

const (
	SpaceViewer     ReferenceSpaceKind = "viewer"
	SpaceLocal      ReferenceSpaceKind = "local"
	SpaceLocalFloor ReferenceSpaceKind = "local-floor"
)

// ReferenceSpace is an opaque handle to a session coordinate space.
type ReferenceSpace interface {
	Kind() ReferenceSpaceKind
}

// XRSession is a granted host session.
type XRSession interface {
	// Mode reports the session mode the host granted. May be
	// ModeUnknown on hosts that leave it undefined.
	Mode() SessionMode

	// RequestReferenceSpace establishes a coordinate space.
	RequestReferenceSpace(ctx context.Context, kind ReferenceSpaceKind) (ReferenceSpace, error)

	// RequestHitTestSource starts forward-ray surface detection from the
	// viewer space.
	RequestHitTestSource(ctx context.Context) (HitTestSource, error)

	// ViewerPose returns the viewer pose for the current frame in the
	// given space. ok is false when tracking has not been established.
	ViewerPose(space ReferenceSpace) (p pose.Pose, ok bool)

	// SupportsAnchors reports whether the session can create native
	// spatial anchors.
	SupportsAnchors() bool

	// CreateAnchor asks the host to create a native anchor at the given
	// pose. Asynchronous; failure is non-fatal for the caller.
	CreateAnchor(ctx context.Context, p pose.Pose) (Anchor, error)

	// OnEnd registers a callback for host-signaled session end (explicit
	// exit, hardware interrupt, permission revocation). Hosts deliver
	// the callback from their event queue, never synchronously from
	// inside End.
	OnEnd(fn func())

	// End terminates the session.
	End() error
}

// HitTestSource emits per-frame surface hits.
type HitTestSource interface {
	// CurrentHit returns the nearest surface hit for the current frame
	// in the given space. ok is false when no surface intersects the
	// forward ray this frame; that is an expected condition, not an
	// error.
	CurrentHit(space ReferenceSpace) (p pose.Pose, ok bool)

	// Cancel stops hit-test sampling. Must be called before the session
	// is abandoned.
	Cancel()
}

// Anchor is a host-tracked spatial anchor.
type Anchor interface {
	// Pose queries the anchor's pose for the current frame in the given
	// space. ok is false when the anchor is untrackable this frame.
	Pose(space ReferenceSpace) (p pose.Pose, ok bool)

	// Detach releases the anchor.
	Detach()
}

// CameraDevice describes one enumerable camera.
type CameraDevice struct {
	ID    string
	Label string // empty until a permission grant exposes labels
}

// CameraStream is one open camera stream.
type CameraStream interface {
	// StopTracks stops every track of the stream. Must be called before
	// opening another stream.
	StopTracks()
}

// CameraAPI wraps device enumeration and stream acquisition.
type CameraAPI interface {
	EnumerateDevices(ctx context.Context) ([]CameraDevice, error)

	// OpenStream opens a stream by device identifier with a requested
	// resolution. Asynchronous; permission prompts happen here.
	OpenStream(ctx context.Context, deviceID string, width, height int) (CameraStream, error)
}

// OrientationSensor is the device-rotation event source.
type OrientationSensor interface {
	// RequestPermission asks for sensor access. Depending on the
	// platform the grant may be synchronous or require an async prompt.
	RequestPermission(ctx context.Context) error

	// Events returns a fresh subscription to the push stream of sensor
	// readings. The channel is closed when the subscription is released
	// or the sensor goes away.
	Events() <-chan pose.OrientationAngles

	// Unsubscribe releases one subscription returned by Events. Other
	// subscriptions keep receiving.
	Unsubscribe(ch <-chan pose.OrientationAngles)
}

// ModelFragment is a renderable scene fragment produced by the model
// loader. Callers must Clone before reuse to avoid shared mutable state
// across placements.
type ModelFragment interface {
	Clone() ModelFragment
}

// ModelLoader resolves a model reference into a renderable fragment.
type ModelLoader interface {
	Load(ctx context.Context, url string) (ModelFragment, error)
}

// ObjectTransform is one per-frame render transform for a placed object.
type ObjectTransform struct {
	ObjectID int64
	Local    pose.Pose
	Scale    float64
}

// RenderTarget consumes per-object local transforms each frame.
type RenderTarget interface {
	SubmitTransforms(seq uint64, transforms []ObjectTransform)
}
