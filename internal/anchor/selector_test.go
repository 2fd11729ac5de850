package anchor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlock/arlock/internal/anchor"
	"github.com/arlock/arlock/internal/capability"
	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/hostsim"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/pose"
)

func grantSession(t *testing.T, opts hostsim.Options) host.XRSession {
	t.Helper()
	h := hostsim.NewHost(opts)
	sess, err := h.XR.RequestSession(context.Background(), host.SessionRequest{
		RequiredFeatures: []string{host.FeatureHitTest, host.FeatureLocalFloor},
	})
	require.NoError(t, err)
	return sess
}

func candidateAt(p mgl64.Vec3) pose.Pose {
	return pose.New(p, mgl64.QuatIdent(), pose.FrameLocalFloor)
}

func TestSelectNativeAnchor(t *testing.T) {
	sess := grantSession(t, hostsim.Options{SupportsAnchors: true})
	sel := anchor.NewSelector(logging.NopLogger{})

	candidate := candidateAt(mgl64.Vec3{1, 0, -2})
	rec := sel.Select(context.Background(), candidate, anchor.PlacementContext{
		Tier:             capability.TierNativeAR,
		Session:          sess,
		CanCreateAnchors: true,
	})

	native, ok := rec.(*anchor.Native)
	require.True(t, ok, "expected native record, got %s", rec.Variant())
	require.NotNil(t, native.Handle)

	got, tracked := native.Handle.Pose(nil)
	assert.True(t, tracked)
	assert.True(t, got.ApproxEqual(candidate))
}

func TestSelectAnchorCreationFailureDegrades(t *testing.T) {
	sess := grantSession(t, hostsim.Options{
		SupportsAnchors: true,
		AnchorCreateErr: fmt.Errorf("tracking subsystem busy"),
	})
	sel := anchor.NewSelector(logging.NopLogger{})

	candidate := candidateAt(mgl64.Vec3{0, 0, -1})
	rec := sel.Select(context.Background(), candidate, anchor.PlacementContext{
		Tier:             capability.TierNativeAR,
		Session:          sess,
		CanCreateAnchors: true,
	})

	fixed, ok := rec.(*anchor.FixedMatrix)
	require.True(t, ok, "expected fixed-matrix record, got %s", rec.Variant())
	assert.True(t, fixed.WorldPose.ApproxEqual(candidate))
}

func TestSelectNativeWithoutAnchorSupport(t *testing.T) {
	sess := grantSession(t, hostsim.Options{SupportsAnchors: false})
	sel := anchor.NewSelector(logging.NopLogger{})

	candidate := candidateAt(mgl64.Vec3{0, 1, -3})
	rec := sel.Select(context.Background(), candidate, anchor.PlacementContext{
		Tier:             capability.TierNativeAR,
		Session:          sess,
		CanCreateAnchors: false,
	})

	fixed, ok := rec.(*anchor.FixedMatrix)
	require.True(t, ok)
	assert.True(t, fixed.WorldPose.ApproxEqual(candidate))
}

func TestSelectInlineDegraded(t *testing.T) {
	// Inline sessions never attempt anchor creation, even when the
	// session claims support.
	sess := grantSession(t, hostsim.Options{SupportsAnchors: true})
	sel := anchor.NewSelector(logging.NopLogger{})

	candidate := candidateAt(mgl64.Vec3{2, 0, -2})
	rec := sel.Select(context.Background(), candidate, anchor.PlacementContext{
		Tier:             capability.TierInlineDegraded,
		Session:          sess,
		CanCreateAnchors: true,
	})

	fixed, ok := rec.(*anchor.FixedMatrix)
	require.True(t, ok, "expected fixed-matrix record, got %s", rec.Variant())
	assert.True(t, fixed.WorldPose.ApproxEqual(candidate))

	simSess := sess.(*hostsim.Session)
	assert.Empty(t, simSess.Anchors())
}

func TestSelectSensorFallback(t *testing.T) {
	sel := anchor.NewSelector(logging.NopLogger{})

	camera := pose.FromOrientationAngles(pose.OrientationAngles{HeadingDeg: 45})
	candidate := pose.New(mgl64.Vec3{0, 0, -3}, camera.Orientation, pose.FrameDeviceOrientation)

	rec := sel.Select(context.Background(), candidate, anchor.PlacementContext{
		Tier:       capability.TierSensorFallback,
		CameraPose: camera,
	})

	rel, ok := rec.(*anchor.OrientationRelative)
	require.True(t, ok, "expected orientation-relative record, got %s", rec.Variant())
	assert.True(t, rel.WorldPosition.ApproxEqual(candidate.Position))
	assert.True(t, rel.ReferenceCameraPose.ApproxEqual(camera))
}

func TestVariantStrings(t *testing.T) {
	assert.Equal(t, "native-anchor", (&anchor.Native{}).Variant().String())
	assert.Equal(t, "fixed-matrix", (&anchor.FixedMatrix{}).Variant().String())
	assert.Equal(t, "orientation-relative", (&anchor.OrientationRelative{}).Variant().String())
}
