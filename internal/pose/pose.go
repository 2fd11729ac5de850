// Package pose provides frame-tagged rigid transforms for the tracking
// pipeline. A Pose is meaningless without its reference frame, so every
// transform carries a Frame tag and cross-frame composition is rejected
// unless an explicit conversion is applied.
package pose

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame identifies the reference frame a Pose is expressed in.
type Frame int

const (
	// FrameViewer is camera-relative.
	FrameViewer Frame = iota
	// FrameLocalFloor is the session-established world frame.
	FrameLocalFloor
	// FrameDeviceOrientation is sensor-relative with no translation.
	FrameDeviceOrientation
)

// String returns the string representation of the frame.
func (f Frame) String() string {
	switch f {
	case FrameViewer:
		return "viewer"
	case FrameLocalFloor:
		return "local-floor"
	case FrameDeviceOrientation:
		return "device-orientation"
	default:
		return "unknown"
	}
}

// ErrFrameMismatch is returned when poses from different reference frames
// are combined without an explicit conversion.
var ErrFrameMismatch = fmt.Errorf("pose: reference frame mismatch")

// Pose is a rigid transform (position + orientation) in a tagged
// reference frame.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Frame       Frame
}

// Identity returns the identity pose in the given frame.
func Identity(frame Frame) Pose {
	return Pose{
		Orientation: mgl64.QuatIdent(),
		Frame:       frame,
	}
}

// New builds a pose from a position and orientation in the given frame.
func New(position mgl64.Vec3, orientation mgl64.Quat, frame Frame) Pose {
	return Pose{Position: position, Orientation: orientation, Frame: frame}
}

// Mul composes p with q (p applied after q). Both poses must share a
// reference frame.
func (p Pose) Mul(q Pose) (Pose, error) {
	if p.Frame != q.Frame {
		return Pose{}, fmt.Errorf("%w: %s vs %s", ErrFrameMismatch, p.Frame, q.Frame)
	}
	return Pose{
		Position:    p.Orientation.Rotate(q.Position).Add(p.Position),
		Orientation: p.Orientation.Mul(q.Orientation),
		Frame:       p.Frame,
	}, nil
}

// Rebase retags p into frame after applying the given conversion
// transform. The conversion maps p's current frame into the target frame.
func (p Pose) Rebase(frame Frame, conversion Pose) Pose {
	return Pose{
		Position:    conversion.Orientation.Rotate(p.Position).Add(conversion.Position),
		Orientation: conversion.Orientation.Mul(p.Orientation),
		Frame:       frame,
	}
}

// Retag returns p tagged with a different frame without changing its
// numeric value. Only frame-establishing code (session setup, providers)
// should call this.
func (p Pose) Retag(frame Frame) Pose {
	p.Frame = frame
	return p
}

// Mat4 returns the homogeneous transform matrix for p.
func (p Pose) Mat4() mgl64.Mat4 {
	m := p.Orientation.Mat4()
	m[12] = p.Position.X()
	m[13] = p.Position.Y()
	m[14] = p.Position.Z()
	return m
}

// ApproxEqual reports whether two poses are numerically close and share a
// frame.
func (p Pose) ApproxEqual(q Pose) bool {
	return p.Frame == q.Frame &&
		p.Position.ApproxEqualThreshold(q.Position, 1e-9) &&
		quatApproxEqual(p.Orientation, q.Orientation)
}

func quatApproxEqual(a, b mgl64.Quat) bool {
	// q and -q describe the same rotation.
	d := math.Abs(a.Dot(b))
	return d > 1-1e-9
}

// OrientationAngles are the raw device-orientation sensor readings in
// degrees: compass heading, front-back tilt, and left-right tilt.
type OrientationAngles struct {
	HeadingDeg   float64
	FrontBackDeg float64
	LeftRightDeg float64
}

// FromOrientationAngles composes the three sensor angles into an
// orientation-only pose in the device-orientation frame. Rotation order
// is yaw (Y), then pitch (X), then roll (Z), matching the rendering
// engine's Euler convention.
func FromOrientationAngles(a OrientationAngles) Pose {
	yaw := mgl64.DegToRad(a.HeadingDeg)
	pitch := mgl64.DegToRad(a.FrontBackDeg)
	roll := mgl64.DegToRad(a.LeftRightDeg)

	q := mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0}).
		Mul(mgl64.QuatRotate(pitch, mgl64.Vec3{1, 0, 0})).
		Mul(mgl64.QuatRotate(roll, mgl64.Vec3{0, 0, 1}))

	return Pose{
		Orientation: q,
		Frame:       FrameDeviceOrientation,
	}
}

// HitResult is the nearest detected surface along the viewer's forward
// ray, valid only for the frame that produced it.
type HitResult struct {
	Pose Pose
	// Seq is the frame sequence number the hit was sampled in. A hit
	// whose Seq is not the current frame's sequence is stale and must be
	// discarded.
	Seq uint64
}

// StaleFor reports whether the hit is stale for the given frame sequence.
func (h HitResult) StaleFor(seq uint64) bool {
	return h.Seq != seq
}
