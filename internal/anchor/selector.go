package anchor

import (
	"context"

	"github.com/arlock/arlock/internal/capability"
	arerr "github.com/arlock/arlock/internal/errors"
	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/pose"
)

// PlacementContext is the tier state in effect at commit time.
type PlacementContext struct {
	Tier capability.Tier

	// Session and Space are set for native-tracking tiers.
	Session host.XRSession
	Space   host.ReferenceSpace

	// CanCreateAnchors is the host anchor-creation capability. Ignored
	// outside the native-AR tier.
	CanCreateAnchors bool

	// CameraPose is the camera pose in effect at commit time. Captured
	// into orientation-relative records as the reference pose.
	CameraPose pose.Pose
}

// Selector converts a committed candidate pose into a Record according
// to the current capability tier.
type Selector struct {
	logger logging.Logger
}

// NewSelector creates a strategy selector.
func NewSelector(logger logging.Logger) *Selector {
	return &Selector{logger: logger.WithComponent("anchor.selector")}
}

// Select produces the anchor record for a placement commit.
//
// In the native-AR tier the first strategy that succeeds wins: a native
// anchor when the host offers anchor creation, otherwise the candidate
// pose verbatim as a fixed matrix. Anchor-creation failure is non-fatal;
// it degrades the record silently and is logged, never surfaced to the
// user. The inline-degraded tier skips straight to the fixed matrix. The
// sensor-fallback tier always captures an orientation-relative record.
//
// Select blocks on the host's asynchronous anchor creation, so callers
// run it outside the frame loop and apply the result on a later tick.
func (s *Selector) Select(ctx context.Context, candidate pose.Pose, pc PlacementContext) Record {
	switch pc.Tier {
	case capability.TierNativeAR:
		if pc.CanCreateAnchors && pc.Session != nil {
			handle, err := pc.Session.CreateAnchor(ctx, candidate)
			if err == nil {
				return &Native{Handle: handle, Space: pc.Space}
			}
			s.logger.Warn(ctx, arerr.NewAnchorCreationError(err),
				"degrading placement to fixed matrix",
				"tier", pc.Tier.String())
		}
		return &FixedMatrix{WorldPose: candidate}

	case capability.TierInlineDegraded:
		// Anchor creation is assumed unavailable in inline mode.
		return &FixedMatrix{WorldPose: candidate}

	case capability.TierSensorFallback:
		return &OrientationRelative{
			WorldPosition:       candidate.Position,
			ReferenceCameraPose: pc.CameraPose,
		}

	default:
		s.logger.Error(ctx, arerr.NewInternalError("unknown capability tier", nil),
			"falling back to fixed matrix", "tier", int(pc.Tier))
		return &FixedMatrix{WorldPose: candidate}
	}
}
