package pose

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	p := Identity(FrameLocalFloor)

	assert.Equal(t, FrameLocalFloor, p.Frame)
	assert.Equal(t, mgl64.Vec3{}, p.Position)
	assert.True(t, p.Orientation.ApproxEqual(mgl64.QuatIdent()))
}

func TestMulFrameMismatch(t *testing.T) {
	a := Identity(FrameLocalFloor)
	b := Identity(FrameViewer)

	_, err := a.Mul(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrameMismatch))
}

func TestMulComposesTranslation(t *testing.T) {
	a := New(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent(), FrameLocalFloor)
	b := New(mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent(), FrameLocalFloor)

	c, err := a.Mul(b)
	require.NoError(t, err)
	assert.True(t, c.Position.ApproxEqual(mgl64.Vec3{1, 2, 0}))
	assert.Equal(t, FrameLocalFloor, c.Frame)
}

func TestFromOrientationAnglesZero(t *testing.T) {
	p := FromOrientationAngles(OrientationAngles{})

	assert.Equal(t, FrameDeviceOrientation, p.Frame)
	assert.Equal(t, mgl64.Vec3{}, p.Position)
	assert.True(t, p.Orientation.ApproxEqual(mgl64.QuatIdent()))
}

func TestFromOrientationAnglesHeading(t *testing.T) {
	// A 90 degree compass heading turns the forward ray from -Z to -X.
	p := FromOrientationAngles(OrientationAngles{HeadingDeg: 90})

	forward := p.Orientation.Rotate(mgl64.Vec3{0, 0, -1})
	assert.InDelta(t, -1, forward.X(), 1e-9)
	assert.InDelta(t, 0, forward.Y(), 1e-9)
	assert.InDelta(t, 0, forward.Z(), 1e-9)
}

func TestFromOrientationAnglesTilt(t *testing.T) {
	// Tilting the device 90 degrees back points the forward ray up.
	p := FromOrientationAngles(OrientationAngles{FrontBackDeg: 90})

	forward := p.Orientation.Rotate(mgl64.Vec3{0, 0, -1})
	assert.InDelta(t, 0, forward.X(), 1e-9)
	assert.InDelta(t, 1, forward.Y(), 1e-9)
	assert.InDelta(t, 0, forward.Z(), 1e-9)
}

func TestFromOrientationAnglesRotationOrder(t *testing.T) {
	// Yaw is applied before pitch: with a 90 degree heading, a
	// front-back tilt rotates about the yawed X axis.
	p := FromOrientationAngles(OrientationAngles{HeadingDeg: 90, FrontBackDeg: 90})

	yawFirst := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}).
		Mul(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0}))
	assert.True(t, p.Orientation.ApproxEqualThreshold(yawFirst, 1e-9))
}

func TestFromOrientationAnglesUnitQuaternion(t *testing.T) {
	cases := []OrientationAngles{
		{HeadingDeg: 13, FrontBackDeg: -42, LeftRightDeg: 7},
		{HeadingDeg: 359, FrontBackDeg: 89, LeftRightDeg: -179},
		{HeadingDeg: -720, FrontBackDeg: 0.001, LeftRightDeg: 0},
	}
	for _, a := range cases {
		p := FromOrientationAngles(a)
		assert.InDelta(t, 1.0, p.Orientation.Len(), 1e-9, "angles %+v", a)
	}
}

func TestMat4CarriesTranslation(t *testing.T) {
	p := New(mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent(), FrameLocalFloor)

	m := p.Mat4()
	assert.Equal(t, 1.0, m[12])
	assert.Equal(t, 2.0, m[13])
	assert.Equal(t, 3.0, m[14])
}

func TestHitResultStaleness(t *testing.T) {
	h := HitResult{Pose: Identity(FrameLocalFloor), Seq: 7}

	assert.False(t, h.StaleFor(7))
	assert.True(t, h.StaleFor(8))
	assert.True(t, h.StaleFor(6))
}

func TestApproxEqualDistinguishesFrames(t *testing.T) {
	a := Identity(FrameLocalFloor)
	b := Identity(FrameViewer)

	assert.False(t, a.ApproxEqual(b))
	assert.True(t, a.ApproxEqual(Identity(FrameLocalFloor)))
}

func TestApproxEqualNegatedQuaternion(t *testing.T) {
	q := mgl64.QuatRotate(1.2, mgl64.Vec3{0, 1, 0})
	neg := mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}

	a := New(mgl64.Vec3{}, q, FrameLocalFloor)
	b := New(mgl64.Vec3{}, neg, FrameLocalFloor)
	assert.True(t, a.ApproxEqual(b))
}
