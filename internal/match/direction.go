package match

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
)

// evalConstraints runs every enabled direction constraint against the
// live hand and reports whether all of them pass. A malformed or
// unresolvable constraint counts as failing so that a broken pose
// silently stops matching instead of crashing the frame.
func evalConstraints(live *skeleton.Snapshot, constraints []pose.Constraint, view quat.Number) bool {
	for i := range constraints {
		c := &constraints[i]
		if !c.Enabled {
			continue
		}
		if !evalConstraint(live, c, view) {
			return false
		}
	}
	return true
}

func evalConstraint(live *skeleton.Snapshot, c *pose.Constraint, view quat.Number) bool {
	dir, origin, ok := resolveSource(live, c)
	if !ok {
		return false
	}

	switch c.Kind {
	case pose.TowardObject:
		toTarget := r3.Sub(c.Target, origin)
		n := r3.Norm(toTarget)
		if n == 0 {
			return false
		}
		minDot := c.MinDot
		if minDot == 0 {
			minDot = pose.DefaultFacingDot
		}
		return r3.Dot(dir, toTarget)/n > minDot

	case pose.TowardWorldAxis:
		return skeleton.AngleBetween(dir, c.Axis.Vector()) < c.MaxAngleDeg

	case pose.TowardCameraAxis:
		return skeleton.AngleBetween(dir, skeleton.Rotate(view, c.Axis.Vector())) < c.MaxAngleDeg
	}
	return false
}

// resolveSource produces the constraint's direction vector and its
// world origin: the palm normal anchored at the wrist, or a named
// bone's pointing direction anchored at that bone.
func resolveSource(live *skeleton.Snapshot, c *pose.Constraint) (dir, origin r3.Vec, ok bool) {
	if c.SourcePalm {
		dir, ok = live.PalmNormal()
		if !ok {
			return r3.Vec{}, r3.Vec{}, false
		}
		return dir, live.Wrist.Position, true
	}

	dir, ok = live.BoneDirection(c.SourceFinger, c.SourceBone)
	if !ok {
		return r3.Vec{}, r3.Vec{}, false
	}
	bone, _ := live.Bone(c.SourceFinger, c.SourceBone)
	return dir, bone.Position, true
}
