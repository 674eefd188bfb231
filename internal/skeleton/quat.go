package skeleton

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the no-rotation quaternion.
var Identity = quat.Number{Real: 1}

// FromAxisAngle builds a unit quaternion rotating angleDeg degrees about
// the given axis. A zero axis yields the identity rotation.
func FromAxisAngle(axis r3.Vec, angleDeg float64) quat.Number {
	n := r3.Norm(axis)
	if n == 0 {
		return Identity
	}
	half := angleDeg * math.Pi / 360
	s := math.Sin(half) / n
	return quat.Number{
		Real: math.Cos(half),
		Imag: axis.X * s,
		Jmag: axis.Y * s,
		Kmag: axis.Z * s,
	}
}

// Rotate applies the rotation q to the vector v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Relative expresses child in the frame of parent: inverse(parent) * child.
// Both inputs are assumed to be unit quaternions, so the inverse is the
// conjugate.
func Relative(parent, child quat.Number) quat.Number {
	return quat.Mul(quat.Conj(parent), child)
}

// PitchYaw decomposes a rotation into its pitch (about X) and yaw
// (about Y) Tait-Bryan components, in degrees. The roll component is
// discarded: finger joints articulate on two axes, so curl and spread
// carry all the signal.
func PitchYaw(q quat.Number) (pitch, yaw float64) {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	pitch = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)) * 180 / math.Pi
	sy := 2 * (w*y - x*z)
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	yaw = math.Asin(sy) * 180 / math.Pi
	return pitch, yaw
}

// DeltaAngle returns the shortest signed difference a-b between two
// angles in degrees, in the range (-180, 180].
func DeltaAngle(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// AngleBetween returns the angle in degrees between two vectors.
// Returns 180 for a zero-length input so that degenerate directions
// never satisfy an aiming constraint.
func AngleBetween(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 180
	}
	cos := r3.Dot(a, b) / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}
