package posesource

import (
	"context"

	arerr "github.com/arlock/arlock/internal/errors"
	"github.com/arlock/arlock/internal/capability"
	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/pose"
)

// NativeSource samples the host's forward-ray hit-test API and converts
// results into the session's local-floor frame.
type NativeSource struct {
	hits   host.HitTestSource
	space  host.ReferenceSpace
	tier   capability.Tier
	logger logging.Logger
}

// NewNative acquires a hit-test source from the session. The returned
// error is a capability error when the host cannot provide hit testing
// for this session.
func NewNative(ctx context.Context, sess host.XRSession, space host.ReferenceSpace, tier capability.Tier, logger logging.Logger) (*NativeSource, error) {
	hits, err := sess.RequestHitTestSource(ctx)
	if err != nil {
		return nil, arerr.NewCapabilityError(arerr.ErrCodeNoHitTest, "host cannot provide hit testing").WithComponent("posesource")
	}
	return &NativeSource{
		hits:   hits,
		space:  space,
		tier:   tier,
		logger: logger.WithComponent("posesource.native"),
	}, nil
}

// Sample returns the nearest surface hit for this frame in the session's
// local frame, or no hit when the forward ray misses every surface.
func (s *NativeSource) Sample(seq uint64) Sample {
	p, ok := s.hits.CurrentHit(s.space)
	if !ok {
		return Sample{Tier: s.tier}
	}
	if p.Frame != pose.FrameLocalFloor {
		// Hits are queried against the session space; normalize hosts
		// that report a different frame tag.
		p = p.Retag(pose.FrameLocalFloor)
	}
	return Sample{
		Hit:  &pose.HitResult{Pose: p, Seq: seq},
		Tier: s.tier,
	}
}

// Stop cancels hit-test sampling.
func (s *NativeSource) Stop() {
	s.hits.Cancel()
}
