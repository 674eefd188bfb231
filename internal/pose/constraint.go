package pose

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/skeleton"
)

// ConstraintKind selects how a direction constraint resolves its
// reference direction.
type ConstraintKind int

const (
	// TowardObject requires the source direction to face a world point.
	TowardObject ConstraintKind = iota
	// TowardWorldAxis requires the source direction to lie within a
	// cone around a fixed world axis.
	TowardWorldAxis
	// TowardCameraAxis is TowardWorldAxis with the axis expressed in
	// the current view frame.
	TowardCameraAxis
)

// Axis names one of the six fixed cardinal directions.
type Axis int

const (
	AxisUp Axis = iota
	AxisDown
	AxisLeft
	AxisRight
	AxisForward
	AxisBack
)

// axisVectors is the fixed lookup table behind Axis.Vector.
var axisVectors = [...]r3.Vec{
	AxisUp:      {Y: 1},
	AxisDown:    {Y: -1},
	AxisLeft:    {X: -1},
	AxisRight:   {X: 1},
	AxisForward: {Z: 1},
	AxisBack:    {Z: -1},
}

// Vector returns the unit vector for the axis, or the zero vector for
// an out-of-range value.
func (a Axis) Vector() r3.Vec {
	if a < 0 || int(a) >= len(axisVectors) {
		return r3.Vec{}
	}
	return axisVectors[a]
}

var kindNames = [...]string{
	TowardObject:     "toward_object",
	TowardWorldAxis:  "toward_world_axis",
	TowardCameraAxis: "toward_camera_axis",
}

func (k ConstraintKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseConstraintKind converts a stored kind name back to its value.
// Unrecognized names map to TowardObject.
func ParseConstraintKind(s string) ConstraintKind {
	for k, name := range kindNames {
		if name == s {
			return ConstraintKind(k)
		}
	}
	return TowardObject
}

var axisNames = [...]string{
	AxisUp:      "up",
	AxisDown:    "down",
	AxisLeft:    "left",
	AxisRight:   "right",
	AxisForward: "forward",
	AxisBack:    "back",
}

func (a Axis) String() string {
	if a < 0 || int(a) >= len(axisNames) {
		return "unknown"
	}
	return axisNames[a]
}

// ParseAxis converts a stored axis name back to its value.
// Unrecognized names map to AxisUp.
func ParseAxis(s string) Axis {
	for a, name := range axisNames {
		if name == s {
			return Axis(a)
		}
	}
	return AxisUp
}

// DefaultFacingDot is the dot-product threshold for TowardObject
// constraints that do not set their own: a wide facing cone of roughly
// 37 degrees.
const DefaultFacingDot = 0.8

// Constraint is one aiming requirement on a pose. The source is either
// the palm normal or a named bone's pointing direction; the reference
// is a world point, a world axis, or a camera-relative axis. Disabled
// constraints are skipped entirely.
type Constraint struct {
	Enabled bool
	Kind    ConstraintKind

	// SourcePalm selects the palm normal as the direction source.
	// Otherwise SourceFinger/SourceBone name the bone to aim with.
	SourcePalm   bool
	SourceFinger skeleton.FingerKind
	SourceBone   skeleton.BoneKind

	// Target is the world point for TowardObject.
	Target r3.Vec

	// Axis is the reference axis for the two axis kinds.
	Axis Axis

	// MaxAngleDeg is the cone half-angle for the axis kinds.
	MaxAngleDeg float64

	// MinDot is the facing threshold for TowardObject; zero means
	// DefaultFacingDot.
	MinDot float64
}
