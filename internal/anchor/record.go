// Package anchor defines the durable placement record for placed objects
// and the strategy selector that produces one from a placement commit.
//
// A Record is a closed tagged union over three variants. Exactly one
// variant is active per record; the variant is fixed at creation and
// never migrates. The world-lock engine matches exhaustively over the
// three variants, so adding a tier is a compile-visible change.
package anchor

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/pose"
)

// Variant identifies the active record variant.
type Variant int

const (
	// VariantNative is a host-owned spatial anchor, queried each frame
	// for a live pose. Most accurate; tracks true world drift
	// correction.
	VariantNative Variant = iota
	// VariantFixedMatrix is a pose captured once at placement time and
	// replayed unchanged every frame.
	VariantFixedMatrix
	// VariantOrientationRelative is a world point combined each frame
	// with the live orientation reading to approximate a
	// camera-relative transform.
	VariantOrientationRelative
)

// String returns the string representation of the variant.
func (v Variant) String() string {
	switch v {
	case VariantNative:
		return "native-anchor"
	case VariantFixedMatrix:
		return "fixed-matrix"
	case VariantOrientationRelative:
		return "orientation-relative"
	default:
		return "unknown"
	}
}

// Record is the durable placement record for one object. Implementations
// are sealed to this package.
type Record interface {
	Variant() Variant
	sealedRecord()
}

// Native is a host-platform-owned anchor.
type Native struct {
	Handle host.Anchor
	Space  host.ReferenceSpace
}

func (*Native) Variant() Variant { return VariantNative }
func (*Native) sealedRecord()    {}

// FixedMatrix replays a world-space pose captured at placement time.
type FixedMatrix struct {
	WorldPose pose.Pose
}

func (*FixedMatrix) Variant() Variant { return VariantFixedMatrix }
func (*FixedMatrix) sealedRecord()    {}

// OrientationRelative is a world position captured in an assumed-fixed
// world frame, resolved each frame against the live orientation reading.
type OrientationRelative struct {
	WorldPosition       mgl64.Vec3
	ReferenceCameraPose pose.Pose
}

func (*OrientationRelative) Variant() Variant { return VariantOrientationRelative }
func (*OrientationRelative) sealedRecord()    {}
