package worldlock

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlock/arlock/internal/anchor"
	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/pose"
	"github.com/arlock/arlock/internal/scene"
)

type fakeHandle struct {
	pose      pose.Pose
	trackable bool
}

func (f *fakeHandle) Pose(host.ReferenceSpace) (pose.Pose, bool) {
	if !f.trackable {
		return pose.Pose{}, false
	}
	return f.pose, true
}

func (f *fakeHandle) Detach() { f.trackable = false }

func worldPose(p mgl64.Vec3) pose.Pose {
	return pose.New(p, mgl64.QuatIdent(), pose.FrameLocalFloor)
}

func TestResolveFixedMatrixIsInvariant(t *testing.T) {
	e := New(logging.NopLogger{})
	stored := pose.New(mgl64.Vec3{1.5, 0, -2},
		mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0}), pose.FrameLocalFloor)
	obj := &scene.Object{ID: 1, Anchor: &anchor.FixedMatrix{WorldPose: stored}}

	// The camera moving must never change a fixed-matrix transform.
	for seq := uint64(1); seq <= 100; seq++ {
		camera := pose.FromOrientationAngles(pose.OrientationAngles{
			HeadingDeg: float64(seq) * 3.6,
		})
		got, ok := e.Resolve(obj, Frame{Seq: seq, Orientation: &camera})
		require.True(t, ok)
		assert.Equal(t, stored, got, "frame %d", seq)
	}
}

func TestResolveNativeFollowsAnchorPose(t *testing.T) {
	e := New(logging.NopLogger{})
	handle := &fakeHandle{pose: worldPose(mgl64.Vec3{0, 0, -2}), trackable: true}
	obj := &scene.Object{ID: 2, Anchor: &anchor.Native{Handle: handle}}

	got, ok := e.Resolve(obj, Frame{Seq: 1})
	require.True(t, ok)
	assert.True(t, got.ApproxEqual(worldPose(mgl64.Vec3{0, 0, -2})))

	// The host corrects its world understanding; the transform follows.
	handle.pose = worldPose(mgl64.Vec3{0.1, 0, -2.05})
	got, ok = e.Resolve(obj, Frame{Seq: 2})
	require.True(t, ok)
	assert.True(t, got.ApproxEqual(worldPose(mgl64.Vec3{0.1, 0, -2.05})))
}

func TestResolveNativeTrackingLossReusesLastPose(t *testing.T) {
	e := New(logging.NopLogger{})
	handle := &fakeHandle{pose: worldPose(mgl64.Vec3{1, 0, 0}), trackable: true}
	obj := &scene.Object{ID: 3, Anchor: &anchor.Native{Handle: handle}}

	_, ok := e.Resolve(obj, Frame{Seq: 1})
	require.True(t, ok)

	handle.trackable = false
	got, ok := e.Resolve(obj, Frame{Seq: 2})
	require.True(t, ok, "object must survive tracking loss")
	assert.True(t, got.ApproxEqual(worldPose(mgl64.Vec3{1, 0, 0})))

	// Recovery resumes live poses.
	handle.trackable = true
	handle.pose = worldPose(mgl64.Vec3{1.2, 0, 0})
	got, ok = e.Resolve(obj, Frame{Seq: 3})
	require.True(t, ok)
	assert.True(t, got.ApproxEqual(worldPose(mgl64.Vec3{1.2, 0, 0})))
}

func TestResolveNativeNeverResolvedSkips(t *testing.T) {
	e := New(logging.NopLogger{})
	handle := &fakeHandle{trackable: false}
	obj := &scene.Object{ID: 4, Anchor: &anchor.Native{Handle: handle}}

	_, ok := e.Resolve(obj, Frame{Seq: 1})
	assert.False(t, ok)
}

func TestResolveOrientationRelativeZeroRotation(t *testing.T) {
	e := New(logging.NopLogger{})
	rec := &anchor.OrientationRelative{
		WorldPosition:       mgl64.Vec3{0, 0, -3},
		ReferenceCameraPose: pose.FromOrientationAngles(pose.OrientationAngles{}),
	}
	obj := &scene.Object{ID: 5, Anchor: rec}

	camera := pose.FromOrientationAngles(pose.OrientationAngles{})
	got, ok := e.Resolve(obj, Frame{Seq: 1, Orientation: &camera})
	require.True(t, ok)

	// With no device rotation since commit, the object sits straight
	// ahead at the committed distance.
	assert.InDelta(t, 0, got.Position.X(), 1e-9)
	assert.InDelta(t, 0, got.Position.Y(), 1e-9)
	assert.InDelta(t, -3, got.Position.Z(), 1e-9)
	assert.True(t, got.Orientation.ApproxEqual(mgl64.QuatIdent()))
	assert.Equal(t, pose.FrameViewer, got.Frame)
}

func TestResolveOrientationRelativeCountersDeviceRotation(t *testing.T) {
	e := New(logging.NopLogger{})
	rec := &anchor.OrientationRelative{
		WorldPosition:       mgl64.Vec3{0, 0, -3},
		ReferenceCameraPose: pose.FromOrientationAngles(pose.OrientationAngles{}),
	}
	obj := &scene.Object{ID: 6, Anchor: rec}

	// A 90 degree heading swings the forward ray from -Z to -X, so the
	// committed point stays put in the world and lands on the viewer's
	// +X side.
	camera := pose.FromOrientationAngles(pose.OrientationAngles{HeadingDeg: 90})
	got, ok := e.Resolve(obj, Frame{Seq: 1, Orientation: &camera})
	require.True(t, ok)
	assert.InDelta(t, 3, got.Position.X(), 1e-9)
	assert.InDelta(t, 0, got.Position.Y(), 1e-9)
	assert.InDelta(t, 0, got.Position.Z(), 1e-9)
}

func TestResolveOrientationRelativeNoReadingYet(t *testing.T) {
	e := New(logging.NopLogger{})
	rec := &anchor.OrientationRelative{WorldPosition: mgl64.Vec3{0, 0, -3}}
	obj := &scene.Object{ID: 7, Anchor: rec}

	_, ok := e.Resolve(obj, Frame{Seq: 1})
	assert.False(t, ok, "no transform before the first sensor reading")

	camera := pose.FromOrientationAngles(pose.OrientationAngles{})
	_, ok = e.Resolve(obj, Frame{Seq: 2, Orientation: &camera})
	require.True(t, ok)

	// A dropped reading on a later frame reuses the cached transform.
	got, ok := e.Resolve(obj, Frame{Seq: 3})
	require.True(t, ok)
	assert.InDelta(t, -3, got.Position.Z(), 1e-9)
}

func TestTickSubmitsTransformsInPlacementOrder(t *testing.T) {
	e := New(logging.NopLogger{})
	reg := scene.NewRegistry()
	first := reg.Place(scene.KindCube, "", 1.0,
		&anchor.FixedMatrix{WorldPose: worldPose(mgl64.Vec3{1, 0, 0})})
	second := reg.Place(scene.KindSphere, "", 0.5,
		&anchor.FixedMatrix{WorldPose: worldPose(mgl64.Vec3{2, 0, 0})})

	target := &captureTarget{}
	transforms := e.Tick(reg, Frame{Seq: 9}, target)

	require.Len(t, transforms, 2)
	assert.Equal(t, first.ID, transforms[0].ObjectID)
	assert.Equal(t, second.ID, transforms[1].ObjectID)
	assert.Equal(t, 0.5, transforms[1].Scale)
	assert.Equal(t, uint64(9), target.seq)
	assert.Len(t, target.transforms, 2)
}

func TestTickSkipsUnresolvableObjects(t *testing.T) {
	e := New(logging.NopLogger{})
	reg := scene.NewRegistry()
	reg.Place(scene.KindCube, "", 1.0, &anchor.Native{Handle: &fakeHandle{}})
	kept := reg.Place(scene.KindCube, "", 1.0,
		&anchor.FixedMatrix{WorldPose: worldPose(mgl64.Vec3{})})

	transforms := e.Tick(reg, Frame{Seq: 1}, nil)
	require.Len(t, transforms, 1)
	assert.Equal(t, kept.ID, transforms[0].ObjectID)
	assert.Equal(t, 2, reg.Count(), "unresolvable objects stay in the scene")
}

func TestResetDropsCachedPoses(t *testing.T) {
	e := New(logging.NopLogger{})
	handle := &fakeHandle{pose: worldPose(mgl64.Vec3{1, 0, 0}), trackable: true}
	obj := &scene.Object{ID: 8, Anchor: &anchor.Native{Handle: handle}}

	_, ok := e.Resolve(obj, Frame{Seq: 1})
	require.True(t, ok)

	e.Reset()
	handle.trackable = false
	_, ok = e.Resolve(obj, Frame{Seq: 2})
	assert.False(t, ok)
}

type captureTarget struct {
	seq        uint64
	transforms []host.ObjectTransform
}

func (c *captureTarget) SubmitTransforms(seq uint64, transforms []host.ObjectTransform) {
	c.seq = seq
	c.transforms = transforms
}
