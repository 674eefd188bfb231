package match

import (
	"gonum.org/v1/gonum/num/quat"

	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
)

// MinMatchedBones is how many of a finger's compared (non-metacarpal)
// bones must fall inside tolerance for the finger to count as matched.
// Chains with fewer comparable bones must match all of them.
const MinMatchedBones = 3

// Result is the outcome of matching one hand against one pose, with
// per-joint detail kept for diagnostics and editor visualization.
type Result struct {
	Matched bool
	Joints  [skeleton.NumFingers][skeleton.BonesPerFinger]JointResult
}

// Hand matches a live hand snapshot against a candidate pose. The view
// orientation feeds camera-relative constraints; margin is the
// hysteresis widening to apply, zero unless the pose is the detector's
// currently held detection.
//
// The reference skeleton is chosen by chirality: a live hand opposite
// to the pose's recorded hand is compared against the cached mirror.
// Direction constraints gate the joint comparison; if any enabled
// constraint fails the pose is rejected without comparing a single
// joint. Evaluation of fingers stops at the first one that misses.
func Hand(live *skeleton.Snapshot, p *pose.Pose, view quat.Number, margin float64) Result {
	var res Result
	if live == nil || p == nil || p.Skeleton == nil {
		return res
	}
	if live.Chirality == skeleton.ChiralityUnknown || p.Chirality == skeleton.ChiralityUnknown {
		return res
	}
	if p.EnabledFingerCount() == 0 {
		return res
	}

	ref := p.Skeleton
	if live.Chirality != p.Chirality {
		ref = p.Mirrored()
	}
	if ref == nil {
		return res
	}

	if !evalConstraints(live, p.Constraints, view) {
		return res
	}

	for f := skeleton.FingerKind(0); f < skeleton.NumFingers; f++ {
		if !p.Fingers[f] {
			continue
		}
		matched, compared := 0, 0
		for b := skeleton.Proximal; b < skeleton.BonesPerFinger; b++ {
			jr := compareJoint(live, ref, p, f, b, margin)
			res.Joints[f][b] = jr
			if !jr.Compared {
				continue
			}
			compared++
			if jr.Matched {
				matched++
			}
		}
		// Absent slots shrink the floor: a thumb tracked without an
		// intermediate bone needs every comparable bone in tolerance,
		// while a full chain keeps the fixed floor. A finger with no
		// comparable bones at all cannot match.
		need := MinMatchedBones
		if compared < need {
			need = compared
		}
		if compared == 0 || matched < need {
			return res
		}
	}

	res.Matched = true
	return res
}
