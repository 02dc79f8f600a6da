package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Overlap tests two axis aligned boxes given by centre and half size. When
// they overlap it returns the normal on the first box: a unit vector on the
// axis of least penetration, pointing from the second box toward the first.
// Ties pick x over y over z. Boxes sharing a centre on that axis get a zero
// normal.
func Overlap(pos1, half1, pos2, half2 mgl32.Vec3) (mgl32.Vec3, bool) {
	posDiff := pos1.Sub(pos2)

	var diff mgl32.Vec3
	for axis := 0; axis < 3; axis++ {
		diff[axis] = (half1[axis] + half2[axis]) - mgl32.Abs(posDiff[axis])
		// NaN fails this test as well.
		if !(diff[axis] >= 0) {
			return mgl32.Vec3{}, false
		}
	}

	var axis int
	switch {
	case diff.X() <= diff.Y() && diff.X() <= diff.Z():
		axis = AxisX
	case diff.Y() <= diff.Z():
		axis = AxisY
	default:
		axis = AxisZ
	}

	var normal mgl32.Vec3
	normal[axis] = sign32(posDiff[axis])
	return normal, true
}

func sign32(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
