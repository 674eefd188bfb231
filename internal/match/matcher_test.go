package match

import (
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
)

// allFingersPose wraps a snapshot into a pose comparing every finger.
func allFingersPose(s *skeleton.Snapshot, tolerance float64) *pose.Pose {
	p := &pose.Pose{
		ID:              "test-pose",
		Name:            "Test Pose",
		Chirality:       s.Chirality,
		Skeleton:        s,
		GlobalTolerance: tolerance,
	}
	for f := range p.Fingers {
		p.Fingers[f] = true
	}
	return p
}

func TestHand_ExactReplicaMatches(t *testing.T) {
	ref := skeleton.Fist(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)

	res := Hand(skeleton.Fist(skeleton.ChiralityRight), p, skeleton.Identity, 0)
	if !res.Matched {
		t.Fatal("exact replica of the reference should match")
	}
}

func TestHand_RotationInvariance(t *testing.T) {
	ref := skeleton.Fist(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)

	// The same fist with the whole hand rotated must still match:
	// chain-local comparison removes global wrist orientation.
	for _, deg := range []float64{30, 90, 180} {
		q := skeleton.FromAxisAngle(r3.Vec{X: 0.3, Y: 1, Z: 0.2}, deg)
		res := Hand(skeleton.Rotated(ref, q), p, skeleton.Identity, 0)
		if !res.Matched {
			t.Errorf("fist rotated %v degrees did not match", deg)
		}
	}
}

func TestHand_MirrorLaw(t *testing.T) {
	ref := skeleton.Fist(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)

	// A left hand that is the exact mirror of the right-handed
	// reference matches through the cached mirror skeleton.
	left := ref.Mirror()
	res := Hand(left, p, skeleton.Identity, 0)
	if !res.Matched {
		t.Fatal("mirrored hand should match the opposite-chirality pose")
	}

	// And a left-handed flat hand does not match a right fist.
	res = Hand(skeleton.FlatHand(skeleton.ChiralityLeft), p, skeleton.Identity, 0)
	if res.Matched {
		t.Fatal("flat left hand matched a fist pose")
	}
}

func TestHand_UnknownChiralityNeverMatches(t *testing.T) {
	ref := skeleton.Fist(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)

	live := skeleton.Fist(skeleton.ChiralityUnknown)
	if Hand(live, p, skeleton.Identity, 0).Matched {
		t.Error("hand without chirality matched")
	}

	p.Chirality = skeleton.ChiralityUnknown
	if Hand(skeleton.Fist(skeleton.ChiralityRight), p, skeleton.Identity, 0).Matched {
		t.Error("pose without chirality matched")
	}
}

func TestHand_ZeroEnabledFingersNeverMatches(t *testing.T) {
	ref := skeleton.Fist(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)
	p.Fingers = [skeleton.NumFingers]bool{}

	res := Hand(skeleton.Fist(skeleton.ChiralityRight), p, skeleton.Identity, 0)
	if res.Matched {
		t.Fatal("pose with zero enabled fingers matched")
	}
}

func TestHand_FingerNeedsThreeMatchedBones(t *testing.T) {
	ref := skeleton.FlatHand(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)

	// Exactly two joints inside tolerance is not enough.
	live := driftIndex(ref, 0, 0, 30)
	res := Hand(live, p, skeleton.Identity, 0)
	if res.Matched {
		t.Fatal("finger with two matched bones counted as matched")
	}
	if got := matchedBones(res, skeleton.Index); got != 2 {
		t.Fatalf("matched bones = %d, want 2", got)
	}

	// All three inside tolerance matches.
	res = Hand(driftIndex(ref, 9, 9, 9), p, skeleton.Identity, 0)
	if !res.Matched {
		t.Fatal("finger with three matched bones did not match")
	}
}

func TestHand_ShortChainThumbMatches(t *testing.T) {
	// Trackers commonly report a thumb with no intermediate bone. An
	// exact replica of such a three-bone chain must still match: absent
	// slots shrink the matched-bone floor instead of counting as misses.
	threeBoneFist := func() *skeleton.Snapshot {
		s := skeleton.Fist(skeleton.ChiralityRight)
		s.Fingers[skeleton.Thumb][skeleton.Intermediate] = skeleton.Bone{}
		return s
	}

	p := allFingersPose(threeBoneFist(), 10)

	res := Hand(threeBoneFist(), p, skeleton.Identity, 0)
	if !res.Matched {
		t.Fatal("exact replica with a three-bone thumb did not match")
	}
	if res.Joints[skeleton.Thumb][skeleton.Intermediate].Compared {
		t.Error("absent bone was compared")
	}

	// The shrunken floor still demands every comparable bone: curling
	// the thumb distal out of tolerance fails the finger.
	drifted := threeBoneFist()
	d := &drifted.Fingers[skeleton.Thumb][skeleton.Distal]
	d.Rotation = quat.Mul(d.Rotation, skeleton.FromAxisAngle(r3.Vec{X: 1}, 30))

	if Hand(drifted, p, skeleton.Identity, 0).Matched {
		t.Fatal("drifted three-bone thumb matched")
	}
}

func TestHand_FingerWithoutComparableBonesFails(t *testing.T) {
	ref := skeleton.Fist(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)

	// An enabled finger wholly absent from the live skeleton has no
	// comparable bones; it must fail the match rather than trivially
	// satisfy a zero-bone floor.
	live := skeleton.Fist(skeleton.ChiralityRight)
	live.Fingers[skeleton.Index] = skeleton.Finger{}

	if Hand(live, p, skeleton.Identity, 0).Matched {
		t.Fatal("hand with a wholly absent enabled finger matched")
	}
}

func TestHand_HysteresisWidensBand(t *testing.T) {
	ref := skeleton.FlatHand(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)
	const margin = 5

	// Just inside the raw band: matches with or without margin.
	if !Hand(driftIndex(ref, 9.9, 9.9, 9.9), p, skeleton.Identity, 0).Matched {
		t.Error("hand inside the raw band did not match unheld")
	}

	// Between the raw band and the widened band: only the held pose
	// keeps matching. This is what stops enter/exit flicker.
	drifted := driftIndex(ref, 12, 12, 12)
	if Hand(drifted, p, skeleton.Identity, 0).Matched {
		t.Error("hand outside the raw band matched while not held")
	}
	if !Hand(drifted, p, skeleton.Identity, margin).Matched {
		t.Error("hand inside the widened band did not match while held")
	}

	// Beyond the widened band the pose is lost even while held.
	if Hand(driftIndex(ref, 16, 16, 16), p, skeleton.Identity, margin).Matched {
		t.Error("hand beyond the widened band matched")
	}
}

func TestHand_DirectionConstraintShortCircuits(t *testing.T) {
	ref := skeleton.FlatHand(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)
	p.Constraints = []pose.Constraint{{
		Enabled:     true,
		Kind:        pose.TowardWorldAxis,
		SourcePalm:  true,
		Axis:        pose.AxisUp, // palm faces down on a flat hand
		MaxAngleDeg: 15,
	}}

	res := Hand(skeleton.FlatHand(skeleton.ChiralityRight), p, skeleton.Identity, 0)
	if res.Matched {
		t.Fatal("pose matched despite a failing constraint")
	}

	// No joint was compared: the constraint gate rejected the pose
	// before the comparator ran.
	for f := 0; f < skeleton.NumFingers; f++ {
		for b := 0; b < skeleton.BonesPerFinger; b++ {
			if res.Joints[f][b].Compared {
				t.Fatalf("joint %v/%v was compared after constraint failure",
					skeleton.FingerKind(f), skeleton.BoneKind(b))
			}
		}
	}
}

func TestHand_DisabledConstraintIsSkipped(t *testing.T) {
	ref := skeleton.FlatHand(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)
	p.Constraints = []pose.Constraint{{
		Enabled:     false,
		Kind:        pose.TowardWorldAxis,
		SourcePalm:  true,
		Axis:        pose.AxisUp,
		MaxAngleDeg: 15,
	}}

	if !Hand(skeleton.FlatHand(skeleton.ChiralityRight), p, skeleton.Identity, 0).Matched {
		t.Fatal("disabled constraint blocked a matching pose")
	}
}

func TestHand_WorldAxisConeBoundary(t *testing.T) {
	ref := skeleton.FlatHand(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)
	p.Constraints = []pose.Constraint{{
		Enabled:      true,
		Kind:         pose.TowardWorldAxis,
		SourceFinger: skeleton.Index,
		SourceBone:   skeleton.Distal,
		Axis:         pose.AxisForward,
		MaxAngleDeg:  15,
	}}

	// 10 degrees off-axis passes a 15 degree cone. The whole hand is
	// rotated, so the relative joint comparison is unaffected.
	tilted := skeleton.Rotated(ref, skeleton.FromAxisAngle(r3.Vec{X: 1}, 10))
	if !Hand(tilted, p, skeleton.Identity, 0).Matched {
		t.Error("10 degrees off-axis failed a 15 degree cone")
	}

	// 20 degrees off-axis fails it.
	tilted = skeleton.Rotated(ref, skeleton.FromAxisAngle(r3.Vec{X: 1}, 20))
	if Hand(tilted, p, skeleton.Identity, 0).Matched {
		t.Error("20 degrees off-axis passed a 15 degree cone")
	}
}

func TestHand_CameraAxisFollowsView(t *testing.T) {
	ref := skeleton.FlatHand(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)
	p.Constraints = []pose.Constraint{{
		Enabled:      true,
		Kind:         pose.TowardCameraAxis,
		SourceFinger: skeleton.Index,
		SourceBone:   skeleton.Distal,
		Axis:         pose.AxisUp,
		MaxAngleDeg:  15,
	}}

	live := skeleton.FlatHand(skeleton.ChiralityRight)

	// With an identity view the camera's up is world up, 90 degrees
	// from the finger's +Z direction.
	if Hand(live, p, skeleton.Identity, 0).Matched {
		t.Error("constraint passed against an unrotated view")
	}

	// Pitch the view so its up axis aligns with +Z and the same hand
	// satisfies the same constraint.
	view := skeleton.FromAxisAngle(r3.Vec{X: 1}, 90)
	if !Hand(live, p, view, 0).Matched {
		t.Error("constraint failed against a view looking along the finger")
	}
}

func TestHand_TowardObjectCone(t *testing.T) {
	ref := skeleton.FlatHand(skeleton.ChiralityRight)
	p := allFingersPose(ref, 10)
	constraint := pose.Constraint{
		Enabled:      true,
		Kind:         pose.TowardObject,
		SourceFinger: skeleton.Index,
		SourceBone:   skeleton.Distal,
		Target:       r3.Vec{Z: 1},
	}
	p.Constraints = []pose.Constraint{constraint}

	live := skeleton.FlatHand(skeleton.ChiralityRight)
	if !Hand(live, p, skeleton.Identity, 0).Matched {
		t.Error("finger aimed at the target failed the facing test")
	}

	p.Constraints[0].Target = r3.Vec{Z: -1}
	if Hand(live, p, skeleton.Identity, 0).Matched {
		t.Error("finger aimed away from the target passed the facing test")
	}

	// A target coincident with the source bone cannot define a
	// direction; the constraint fails rather than dividing by zero.
	bone, _ := live.Bone(skeleton.Index, skeleton.Distal)
	p.Constraints[0].Target = bone.Position
	if Hand(live, p, skeleton.Identity, 0).Matched {
		t.Error("degenerate target passed the facing test")
	}
}

func TestHand_NilInputs(t *testing.T) {
	p := allFingersPose(skeleton.Fist(skeleton.ChiralityRight), 10)

	if Hand(nil, p, skeleton.Identity, 0).Matched {
		t.Error("nil hand matched")
	}
	if Hand(skeleton.Fist(skeleton.ChiralityRight), nil, skeleton.Identity, 0).Matched {
		t.Error("nil pose matched")
	}
	if Hand(skeleton.Fist(skeleton.ChiralityRight), &pose.Pose{Chirality: skeleton.ChiralityRight}, skeleton.Identity, 0).Matched {
		t.Error("pose without skeleton matched")
	}
}

// driftIndex bends the index finger of a copy of the flat reference by
// the given relative angles at each compared joint.
func driftIndex(ref *skeleton.Snapshot, proximal, intermediate, distal float64) *skeleton.Snapshot {
	s := skeleton.FlatHand(ref.Chirality)
	finger := &s.Fingers[skeleton.Index]
	angles := []float64{proximal, intermediate, distal}
	rot := finger[skeleton.Metacarpal].Rotation
	for i, b := range []skeleton.BoneKind{skeleton.Proximal, skeleton.Intermediate, skeleton.Distal} {
		rot = quat.Mul(rot, skeleton.FromAxisAngle(r3.Vec{X: 1}, angles[i]))
		finger[b].Rotation = rot
	}
	return s
}

func matchedBones(res Result, f skeleton.FingerKind) int {
	n := 0
	for b := 0; b < skeleton.BonesPerFinger; b++ {
		if res.Joints[f][b].Matched {
			n++
		}
	}
	return n
}
