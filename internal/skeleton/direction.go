package skeleton

import "gonum.org/v1/gonum/spatial/r3"

// Local-frame reference vectors. With an identity wrist rotation the
// fingers point along +Z and the palm faces -Y.
var (
	localPalmNormal = r3.Vec{Y: -1}
	localBoneAxis   = r3.Vec{Z: 1}
)

// PalmNormal returns the world-space palm facing direction, or false
// when the wrist is not tracked.
func (s *Snapshot) PalmNormal() (r3.Vec, bool) {
	if s == nil || !s.Wrist.Present {
		return r3.Vec{}, false
	}
	return Rotate(s.Wrist.Rotation, localPalmNormal), true
}

// BoneDirection returns the world-space pointing direction of a bone,
// or false when the bone is absent.
func (s *Snapshot) BoneDirection(f FingerKind, b BoneKind) (r3.Vec, bool) {
	bone, ok := s.Bone(f, b)
	if !ok {
		return r3.Vec{}, false
	}
	return Rotate(bone.Rotation, localBoneAxis), true
}
