package skeleton

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Canned snapshots for tests and demos. These are hand-built rather than
// recorded: rotations accumulate along each chain so that relative
// joint angles come out to known values.

// fingerBaseX spaces the finger chains across the palm.
var fingerBaseX = [NumFingers]float64{-0.035, -0.015, 0, 0.015, 0.03}

// buildFinger fills a chain whose non-metacarpal joints each bend by
// the given per-joint curl angles (degrees about X). Rotations are
// absolute: each bone compounds its parent's rotation.
func buildFinger(f FingerKind, curls [3]float64) Finger {
	var finger Finger
	base := r3.Vec{X: fingerBaseX[f], Z: 0.08}
	rot := Identity
	finger[Metacarpal] = Bone{Rotation: rot, Position: base, Present: true}
	pos := base
	for i, b := range []BoneKind{Proximal, Intermediate, Distal} {
		rot = quat.Mul(rot, FromAxisAngle(r3.Vec{X: 1}, curls[i]))
		pos = r3.Add(pos, Rotate(rot, r3.Vec{Z: 0.03}))
		finger[b] = Bone{Rotation: rot, Position: pos, Present: true}
	}
	return finger
}

// FlatHand returns a snapshot with every joint at rest, fingers
// extended straight along +Z.
func FlatHand(c Chirality) *Snapshot {
	s := &Snapshot{
		Chirality: c,
		Wrist:     Bone{Rotation: Identity, Present: true},
	}
	for f := FingerKind(0); f < NumFingers; f++ {
		s.Fingers[f] = buildFinger(f, [3]float64{0, 0, 0})
	}
	return s
}

// Fist returns a snapshot with all five fingers fully curled.
func Fist(c Chirality) *Snapshot {
	s := &Snapshot{
		Chirality: c,
		Wrist:     Bone{Rotation: Identity, Present: true},
	}
	for f := FingerKind(0); f < NumFingers; f++ {
		curl := [3]float64{80, 90, 45}
		if f == Thumb {
			curl = [3]float64{30, 40, 20}
		}
		s.Fingers[f] = buildFinger(f, curl)
	}
	return s
}

// PointingHand returns a fist with the index finger extended.
func PointingHand(c Chirality) *Snapshot {
	s := Fist(c)
	s.Fingers[Index] = buildFinger(Index, [3]float64{0, 0, 0})
	return s
}

// Rotated returns a copy of the snapshot with the whole hand rotated by
// q: wrist and every bone premultiplied, positions rotated about the
// wrist origin. Relative joint angles are unchanged, which is what the
// comparator's rotation invariance tests rely on.
func Rotated(s *Snapshot, q quat.Number) *Snapshot {
	if s == nil {
		return nil
	}
	r := &Snapshot{Chirality: s.Chirality, Wrist: rotateBone(s.Wrist, q)}
	for f := 0; f < NumFingers; f++ {
		for b := 0; b < BonesPerFinger; b++ {
			r.Fingers[f][b] = rotateBone(s.Fingers[f][b], q)
		}
	}
	return r
}

func rotateBone(b Bone, q quat.Number) Bone {
	if !b.Present {
		return Bone{}
	}
	return Bone{
		Rotation: quat.Mul(q, b.Rotation),
		Position: Rotate(q, b.Position),
		Present:  true,
	}
}
