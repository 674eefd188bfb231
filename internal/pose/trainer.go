package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/skeleton"
)

// Trainer folds several captured snapshots of the same held pose into
// one reference skeleton, and derives per-joint thresholds from the
// spread observed across the captures.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// thresholdFloor keeps derived tolerances from collapsing to zero when
// the captures happen to be nearly identical.
const thresholdFloor = 5.0

// TrainSkeleton averages the captures into a single reference snapshot.
// A bone is present in the result only when present in every capture;
// all captures must carry the same chirality.
func (t *Trainer) TrainSkeleton(captures []*skeleton.Snapshot) (*skeleton.Snapshot, error) {
	if len(captures) == 0 {
		return nil, fmt.Errorf("no captures provided")
	}

	chirality := captures[0].Chirality
	if chirality == skeleton.ChiralityUnknown {
		return nil, fmt.Errorf("capture 0 has no chirality")
	}
	for i, c := range captures {
		if c == nil {
			return nil, fmt.Errorf("capture %d is empty", i)
		}
		if c.Chirality != chirality {
			return nil, fmt.Errorf("capture %d is a %s hand, expected %s", i, c.Chirality, chirality)
		}
	}

	avg := &skeleton.Snapshot{Chirality: chirality}
	avg.Wrist = averageBone(captures, func(s *skeleton.Snapshot) skeleton.Bone { return s.Wrist })
	for f := 0; f < skeleton.NumFingers; f++ {
		for b := 0; b < skeleton.BonesPerFinger; b++ {
			avg.Fingers[f][b] = averageBone(captures, func(s *skeleton.Snapshot) skeleton.Bone {
				return s.Fingers[f][b]
			})
		}
	}
	return avg, nil
}

// DeriveThresholds measures, for every compared joint, how far the
// individual captures stray from the averaged skeleton and widens that
// spread into a tolerance band. Joints absent from the average get no
// entry and fall back to the pose's global tolerance.
func (t *Trainer) DeriveThresholds(captures []*skeleton.Snapshot, avg *skeleton.Snapshot) [skeleton.NumFingers][skeleton.BonesPerFinger]Threshold {
	var out [skeleton.NumFingers][skeleton.BonesPerFinger]Threshold
	if avg == nil {
		return out
	}

	for f := skeleton.FingerKind(0); f < skeleton.NumFingers; f++ {
		for b := skeleton.Proximal; b < skeleton.BonesPerFinger; b++ {
			refPitch, refYaw, ok := relativePitchYaw(avg, f, b)
			if !ok {
				continue
			}

			maxPitch, maxYaw := 0.0, 0.0
			for _, c := range captures {
				pitch, yaw, ok := relativePitchYaw(c, f, b)
				if !ok {
					continue
				}
				if d := math.Abs(skeleton.DeltaAngle(pitch, refPitch)); d > maxPitch {
					maxPitch = d
				}
				if d := math.Abs(skeleton.DeltaAngle(yaw, refYaw)); d > maxYaw {
					maxYaw = d
				}
			}

			out[f][b] = Threshold{
				Pitch: math.Max(2*maxPitch, thresholdFloor),
				Yaw:   math.Max(2*maxYaw, thresholdFloor),
				Set:   true,
			}
		}
	}
	return out
}

// relativePitchYaw extracts the chain-local pitch/yaw of one joint.
func relativePitchYaw(s *skeleton.Snapshot, f skeleton.FingerKind, b skeleton.BoneKind) (pitch, yaw float64, ok bool) {
	bone, ok := s.Bone(f, b)
	if !ok {
		return 0, 0, false
	}
	parent, ok := s.Parent(f, b)
	if !ok {
		return 0, 0, false
	}
	pitch, yaw = skeleton.PitchYaw(skeleton.Relative(parent.Rotation, bone.Rotation))
	return pitch, yaw, true
}

// averageBone component-averages a bone across captures, aligning
// quaternion signs against the first capture so that q and -q do not
// cancel. Returns an absent bone if any capture misses it.
func averageBone(captures []*skeleton.Snapshot, pick func(*skeleton.Snapshot) skeleton.Bone) skeleton.Bone {
	var sum quat.Number
	var pos r3.Vec
	ref := pick(captures[0]).Rotation

	for _, c := range captures {
		bone := pick(c)
		if !bone.Present {
			return skeleton.Bone{}
		}
		q := bone.Rotation
		if ref.Real*q.Real+ref.Imag*q.Imag+ref.Jmag*q.Jmag+ref.Kmag*q.Kmag < 0 {
			q = quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
		}
		sum = quat.Add(sum, q)
		pos = r3.Add(pos, bone.Position)
	}

	n := float64(len(captures))
	norm := quat.Abs(sum)
	if norm == 0 {
		return skeleton.Bone{}
	}
	return skeleton.Bone{
		Rotation: quat.Scale(1/norm, sum),
		Position: r3.Scale(1/n, pos),
		Present:  true,
	}
}
