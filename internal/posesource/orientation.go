package posesource

import (
	"context"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/arlock/arlock/internal/capability"
	arerr "github.com/arlock/arlock/internal/errors"
	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/pose"
)

// OrientationSource composes device-rotation sensor readings into an
// orientation-only camera pose and projects a placement candidate a
// fixed distance along the view ray. Platform permission is requested
// once at startup; if it is denied or the API is absent the source emits
// silence forever.
type OrientationSource struct {
	sensor        host.OrientationSensor
	placeDistance float64
	logger        logging.Logger

	mu       sync.Mutex
	angles   pose.OrientationAngles
	haveRead bool
	silenced bool

	stopOnce sync.Once
	done     chan struct{}
}

// NewOrientation starts the orientation provider. The permission grant
// is asynchronous: the source returns immediately and stays in the
// no-reading state until the grant resolves. placeDistance is how far in
// front of the camera the placement candidate sits, in meters.
func NewOrientation(ctx context.Context, sensor host.OrientationSensor, placeDistance float64, logger logging.Logger) *OrientationSource {
	s := &OrientationSource{
		sensor:        sensor,
		placeDistance: placeDistance,
		logger:        logger.WithComponent("posesource.orientation"),
		done:          make(chan struct{}),
	}

	go s.start(ctx)
	return s
}

func (s *OrientationSource) start(ctx context.Context) {
	if err := s.sensor.RequestPermission(ctx); err != nil {
		s.mu.Lock()
		s.silenced = true
		s.mu.Unlock()
		s.logger.Warn(ctx, arerr.NewPermissionError(arerr.ErrCodeSensorDenied, "orientation sensor permission denied", err),
			"sensor source silenced for this session")
		return
	}

	events := s.sensor.Events()
	defer s.sensor.Unsubscribe(events)
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case a, ok := <-events:
			if !ok {
				s.mu.Lock()
				s.silenced = true
				s.mu.Unlock()
				return
			}
			s.mu.Lock()
			s.angles = a
			s.haveRead = true
			s.mu.Unlock()
		}
	}
}

// Sample returns the placement candidate derived from the latest sensor
// reading: an orientation-only pose whose position is the candidate
// point projected placeDistance meters along the current view ray.
func (s *OrientationSource) Sample(seq uint64) Sample {
	s.mu.Lock()
	angles, haveRead, silenced := s.angles, s.haveRead, s.silenced
	s.mu.Unlock()

	if silenced {
		return Sample{Tier: capability.TierSensorFallback, Silent: true}
	}
	if !haveRead {
		// Permission grant still in flight: proceed with no candidate
		// and try again next frame.
		return Sample{Tier: capability.TierSensorFallback}
	}

	p := pose.FromOrientationAngles(angles)
	p.Position = p.Orientation.Rotate(mgl64.Vec3{0, 0, -s.placeDistance})

	return Sample{
		Hit:  &pose.HitResult{Pose: p, Seq: seq},
		Tier: capability.TierSensorFallback,
	}
}

// CameraPose returns the current orientation-only camera pose (zero
// translation). ok is false before the first reading or after the source
// has been silenced.
func (s *OrientationSource) CameraPose() (pose.Pose, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.silenced || !s.haveRead {
		return pose.Pose{}, false
	}
	return pose.FromOrientationAngles(s.angles), true
}

// Stop releases this source's sensor subscription. The sensor itself
// keeps running; a later session subscribes afresh.
func (s *OrientationSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}
