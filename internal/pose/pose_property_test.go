//go:build property

package pose

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestPropertyOrientationAngles checks invariants of the sensor-angle
// composition over the full angle range.
func TestPropertyOrientationAngles(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	angles := gen.Float64Range(-720, 720)

	properties.Property("composition yields a unit quaternion", prop.ForAll(
		func(heading, frontBack, leftRight float64) bool {
			p := FromOrientationAngles(OrientationAngles{
				HeadingDeg:   heading,
				FrontBackDeg: frontBack,
				LeftRightDeg: leftRight,
			})
			return math.Abs(p.Orientation.Len()-1) < 1e-9
		},
		angles, angles, angles,
	))

	properties.Property("rotation preserves vector length", prop.ForAll(
		func(heading, frontBack, leftRight, x, y, z float64) bool {
			p := FromOrientationAngles(OrientationAngles{
				HeadingDeg:   heading,
				FrontBackDeg: frontBack,
				LeftRightDeg: leftRight,
			})
			v := mgl64.Vec3{x, y, z}
			return math.Abs(p.Orientation.Rotate(v).Len()-v.Len()) < 1e-6
		},
		angles, angles, angles,
		gen.Float64Range(-100, 100), gen.Float64Range(-100, 100), gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t)
}

// TestPropertyMulSameFrame checks that same-frame composition always
// succeeds and keeps the frame tag.
func TestPropertyMulSameFrame(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	coord := gen.Float64Range(-10, 10)

	properties.Property("same-frame Mul keeps the frame", prop.ForAll(
		func(ax, ay, az, bx, by, bz float64) bool {
			a := New(mgl64.Vec3{ax, ay, az}, mgl64.QuatIdent(), FrameLocalFloor)
			b := New(mgl64.Vec3{bx, by, bz}, mgl64.QuatIdent(), FrameLocalFloor)
			c, err := a.Mul(b)
			if err != nil {
				return false
			}
			return c.Frame == FrameLocalFloor &&
				c.Position.ApproxEqualThreshold(mgl64.Vec3{ax + bx, ay + by, az + bz}, 1e-9)
		},
		coord, coord, coord, coord, coord, coord,
	))

	properties.TestingRun(t)
}
