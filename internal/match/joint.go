// Package match implements the per-frame comparison of a live hand
// skeleton against a reference pose.
package match

import (
	"math"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
)

// JointResult records the outcome of comparing one joint. Compared is
// false when the bone was absent on either side and the comparison was
// skipped.
type JointResult struct {
	Compared   bool
	Matched    bool
	DeltaPitch float64
	DeltaYaw   float64
}

// compareJoint measures the chain-local rotation of one joint on the
// live and reference skeletons and checks the angular difference
// against the pose's tolerance, widened by margin on both axes while
// the pose is held. Comparing relative rather than absolute rotation
// keeps the match invariant to wrist orientation: only the finger's own
// curl and spread matter.
func compareJoint(live, ref *skeleton.Snapshot, p *pose.Pose, f skeleton.FingerKind, b skeleton.BoneKind, margin float64) JointResult {
	liveBone, ok := live.Bone(f, b)
	if !ok {
		return JointResult{}
	}
	refBone, ok := ref.Bone(f, b)
	if !ok {
		return JointResult{}
	}
	livePrev, ok := live.Parent(f, b)
	if !ok {
		return JointResult{}
	}
	refPrev, ok := ref.Parent(f, b)
	if !ok {
		return JointResult{}
	}

	livePitch, liveYaw := skeleton.PitchYaw(skeleton.Relative(livePrev.Rotation, liveBone.Rotation))
	refPitch, refYaw := skeleton.PitchYaw(skeleton.Relative(refPrev.Rotation, refBone.Rotation))

	dPitch := skeleton.DeltaAngle(refPitch, livePitch)
	dYaw := skeleton.DeltaAngle(refYaw, liveYaw)

	tolPitch, tolYaw := p.Tolerance(f, b)

	return JointResult{
		Compared:   true,
		Matched:    math.Abs(dPitch) <= tolPitch+margin && math.Abs(dYaw) <= tolYaw+margin,
		DeltaPitch: dPitch,
		DeltaYaw:   dYaw,
	}
}
