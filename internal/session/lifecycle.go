// Package session owns the capability-tier state machine: how a session
// is established, which tier is active, how tiers degrade on failure,
// and which resources (hit-test sources, camera streams, sensor
// subscriptions) each tier holds. Exactly one tier's resources are held
// at a time; every downgrade releases the abandoned tier before
// acquiring the next.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/arlock/arlock/internal/anchor"
	"github.com/arlock/arlock/internal/capability"
	arerr "github.com/arlock/arlock/internal/errors"
	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/posesource"
	"github.com/arlock/arlock/internal/reticle"
	"github.com/arlock/arlock/internal/scene"
	"github.com/arlock/arlock/internal/worldlock"
)

// Config holds the session-level settings.
type Config struct {
	CameraDeviceID string
	CameraWidth    int
	CameraHeight   int

	// PlaceDistance is how far in front of the camera the sensor
	// fallback places its candidate, in meters.
	PlaceDistance float64

	RequiredFeatures []string
	OptionalFeatures []string
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		CameraWidth:      1280,
		CameraHeight:     720,
		PlaceDistance:    3.0,
		RequiredFeatures: []string{host.FeatureHitTest},
		OptionalFeatures: []string{host.FeatureAnchors, host.FeatureLocalFloor},
	}
}

// StatusHandler receives user-visible status messages on tier changes
// and permission failures.
type StatusHandler func(message string, tier capability.Tier)

// FrameOutput is what one frame tick produces for the render layer.
type FrameOutput struct {
	Seq        uint64
	Reticle    reticle.State
	Transforms []host.ObjectTransform
}

// placementResult carries a resolved anchor record from the selector
// goroutine back into the frame loop.
type placementResult struct {
	epoch    uint64
	kind     scene.Kind
	modelRef string
	scale    float64
	record   anchor.Record
}

// Lifecycle is the session state machine and the owner of all per-tier
// resources, including the single live camera stream.
type Lifecycle struct {
	xr     host.XRSystem
	camera host.CameraAPI
	sensor host.OrientationSensor
	target host.RenderTarget
	logger logging.Logger
	cfg    Config

	mu    sync.Mutex
	state State
	id    uuid.UUID
	epoch uint64
	seq   uint64

	sess        host.XRSession
	space       host.ReferenceSpace
	source      posesource.Source
	orientation *posesource.OrientationSource
	stream      host.CameraStream

	registry *scene.Registry
	ret      *reticle.Reticle
	selector *anchor.Selector
	engine   *worldlock.Engine

	placements chan placementResult
	status     StatusHandler
}

// New creates a lifecycle in the idle state.
func New(xr host.XRSystem, camera host.CameraAPI, sensor host.OrientationSensor, target host.RenderTarget, cfg Config, logger logging.Logger) *Lifecycle {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Lifecycle{
		xr:         xr,
		camera:     camera,
		sensor:     sensor,
		target:     target,
		cfg:        cfg,
		logger:     logger.WithComponent("session"),
		state:      StateIdle,
		registry:   scene.NewRegistry(),
		ret:        reticle.New(),
		selector:   anchor.NewSelector(logger),
		engine:     worldlock.New(logger),
		placements: make(chan placementResult, 16),
	}
}

// SetStatusHandler registers the user-facing status callback.
func (l *Lifecycle) SetStatusHandler(fn StatusHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = fn
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Tier returns the active capability tier. ok is false outside an
// active session.
func (l *Lifecycle) Tier() (capability.Tier, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Tier()
}

// ID returns the session identifier for log correlation, zero outside a
// session.
func (l *Lifecycle) ID() uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.id
}

// Registry returns the placed-object registry.
func (l *Lifecycle) Registry() *scene.Registry {
	return l.registry
}

// Enter starts a session: Idle → Requesting → the highest tier the host
// grants. The downgrade chain on failure is native-AR → inline-degraded
// → sensor-fallback; each step releases the failed tier's resources
// before acquiring the next.
func (l *Lifecycle) Enter(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateIdle {
		return arerr.NewInternalError("enter requested while session in state "+l.state.String(), nil)
	}

	l.state = StateRequesting
	l.id = uuid.New()
	l.epoch++
	log := l.logger.With("session_id", l.id.String())
	log.Info(ctx, "entering AR", "state", l.state.String())

	sess, err := l.xr.RequestSession(ctx, host.SessionRequest{
		RequiredFeatures: l.cfg.RequiredFeatures,
		OptionalFeatures: l.cfg.OptionalFeatures,
	})
	if err != nil {
		log.Warn(ctx, arerr.NewSessionRequestError("host session request failed", err),
			"falling back to sensor tracking")
		return l.activateSensorFallbackLocked(ctx, log)
	}

	switch sess.Mode() {
	case host.ModeImmersiveAR:
		if err := l.activateNativeLocked(ctx, sess, capability.TierNativeAR, log); err != nil {
			return l.activateSensorFallbackLocked(ctx, log)
		}
		return nil
	case host.ModeInline, host.ModeUnknown:
		// An undefined mode is treated as inline: proceed with native
		// tracking but skip anchor creation.
		if err := l.activateNativeLocked(ctx, sess, capability.TierInlineDegraded, log); err != nil {
			return l.activateSensorFallbackLocked(ctx, log)
		}
		return nil
	default:
		// A non-AR mode (e.g. a VR simulator). Not usable for surface
		// tracking; release it and fall through the chain.
		log.Warn(ctx, nil, "host granted non-AR session mode, downgrading",
			"mode", string(sess.Mode()))
		_ = sess.End()
		return l.activateSensorFallbackLocked(ctx, log)
	}
}

// activateNativeLocked wires a granted native session into the given
// tier. On failure it releases everything it acquired.
func (l *Lifecycle) activateNativeLocked(ctx context.Context, sess host.XRSession, tier capability.Tier, log logging.Logger) error {
	space, err := sess.RequestReferenceSpace(ctx, host.SpaceLocalFloor)
	if err != nil {
		space, err = sess.RequestReferenceSpace(ctx, host.SpaceLocal)
	}
	if err != nil {
		log.Warn(ctx, arerr.NewCapabilityError(arerr.ErrCodeNoReferenceSpace, "no usable reference space"),
			"native tier unavailable", "tier", tier.String())
		_ = sess.End()
		return err
	}

	source, err := posesource.NewNative(ctx, sess, space, tier, l.logger)
	if err != nil {
		log.Warn(ctx, err, "native tier unavailable", "tier", tier.String())
		_ = sess.End()
		return err
	}

	l.sess = sess
	l.space = space
	l.source = source
	l.state = stateForTier(tier)
	l.ret.Reset()

	sess.OnEnd(l.handleHostEnd)

	log.Info(ctx, "session active", "tier", tier.String(),
		"anchors", sess.SupportsAnchors(), "space", string(space.Kind()))
	l.notifyLocked("AR session started", tier)
	return nil
}

// activateSensorFallbackLocked acquires the sensor tier: the raw camera
// stream plus the orientation source. A camera that cannot be opened is
// surfaced to the user but does not fail the tier; tracking still works
// from orientation alone.
func (l *Lifecycle) activateSensorFallbackLocked(ctx context.Context, log logging.Logger) error {
	l.releaseTierLocked()

	stream, err := l.camera.OpenStream(ctx, l.cfg.CameraDeviceID, l.cfg.CameraWidth, l.cfg.CameraHeight)
	if err != nil {
		log.Warn(ctx, arerr.NewPermissionError(arerr.ErrCodeCameraDenied, "camera stream unavailable", err),
			"continuing without camera feed")
		l.notifyLocked("Camera unavailable, tracking from motion sensors only", capability.TierSensorFallback)
	} else {
		l.stream = stream
	}

	l.orientation = posesource.NewOrientation(ctx, l.sensor, l.cfg.PlaceDistance, l.logger)
	l.source = l.orientation
	l.state = StateSensorFallback
	l.ret.Reset()

	log.Info(ctx, "session active", "tier", capability.TierSensorFallback.String())
	l.notifyLocked("Using sensor fallback tracking", capability.TierSensorFallback)
	return nil
}

// Downgrade explicitly moves an active session to the next tier in the
// chain. Used when the user opts out of a degraded inline session or a
// native session proves unusable.
func (l *Lifecycle) Downgrade(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tier, ok := l.state.Tier()
	if !ok {
		return arerr.NewInternalError("downgrade requested while session in state "+l.state.String(), nil)
	}
	next, ok := tier.Next()
	if !ok {
		return arerr.NewCapabilityError(arerr.ErrCodeNoXRSystem, "no further fallback tier")
	}

	log := l.logger.With("session_id", l.id.String())
	log.Info(ctx, "downgrading tier", "from", tier.String(), "to", next.String())

	if next == capability.TierSensorFallback {
		return l.activateSensorFallbackLocked(ctx, log)
	}

	// NativeAR → InlineDegraded keeps the host session but drops the
	// anchor-creation privilege.
	l.state = StateInlineDegraded
	l.ret.Reset()
	l.notifyLocked("Continuing with degraded tracking", next)
	return nil
}

// Exit ends the session on user request: active → Ended → Idle.
func (l *Lifecycle) Exit(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateIdle {
		return
	}
	l.logger.Info(ctx, "ending session", "session_id", l.id.String())
	l.endLocked()
}

// handleHostEnd runs when the host signals session end: explicit exit,
// hardware interrupt, or permission revocation.
func (l *Lifecycle) handleHostEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.Active() {
		return
	}
	l.logger.Info(context.Background(), "host signaled session end",
		"session_id", l.id.String())
	l.endLocked()
}

// endLocked performs Ended-state cleanup and returns the machine to
// Idle, ready for a new enter request. Bumping the epoch discards any
// in-flight anchor creations when they later resolve.
func (l *Lifecycle) endLocked() {
	l.state = StateEnded
	l.epoch++
	l.releaseTierLocked()
	l.registry.Clear()
	l.engine.Reset()
	l.seq = 0
	l.state = StateIdle
}

// releaseTierLocked releases every resource of the current tier, in
// order: pose sources first, then the host session, then camera tracks.
func (l *Lifecycle) releaseTierLocked() {
	if l.source != nil {
		l.source.Stop()
		l.source = nil
	}
	l.orientation = nil
	if l.sess != nil {
		_ = l.sess.End()
		l.sess = nil
		l.space = nil
	}
	if l.stream != nil {
		l.stream.StopTracks()
		l.stream = nil
	}
	l.ret.Reset()
}

func (l *Lifecycle) notifyLocked(msg string, tier capability.Tier) {
	if l.status != nil {
		l.status(msg, tier)
	}
}
