// Package skeleton provides the hand skeleton data model for pose detection.
package skeleton

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Chirality identifies which hand a skeleton belongs to.
type Chirality int

const (
	// ChiralityUnknown marks a skeleton with no hand designation.
	// Skeletons without a chirality never match any pose.
	ChiralityUnknown Chirality = iota
	// ChiralityLeft is a left hand.
	ChiralityLeft
	// ChiralityRight is a right hand.
	ChiralityRight
)

// Opposite returns the flipped chirality. Unknown stays unknown.
func (c Chirality) Opposite() Chirality {
	switch c {
	case ChiralityLeft:
		return ChiralityRight
	case ChiralityRight:
		return ChiralityLeft
	}
	return ChiralityUnknown
}

// String returns the lowercase name of the chirality.
func (c Chirality) String() string {
	switch c {
	case ChiralityLeft:
		return "left"
	case ChiralityRight:
		return "right"
	}
	return "unknown"
}

// ParseChirality converts a stored chirality name back to its value.
func ParseChirality(s string) Chirality {
	switch s {
	case "left":
		return ChiralityLeft
	case "right":
		return ChiralityRight
	}
	return ChiralityUnknown
}

// FingerKind indexes one of the five fingers.
type FingerKind int

const (
	Thumb FingerKind = iota
	Index
	Middle
	Ring
	Pinky
	// NumFingers is the number of fingers per hand.
	NumFingers = 5
)

// String returns the lowercase name of the finger.
func (f FingerKind) String() string {
	switch f {
	case Thumb:
		return "thumb"
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	}
	return "invalid"
}

// BoneKind indexes one bone slot within a finger chain, ordered from
// wrist to fingertip. The thumb has no intermediate bone anatomically but
// keeps all four slots for uniformity; an unfilled slot is simply absent.
type BoneKind int

const (
	Metacarpal BoneKind = iota
	Proximal
	Intermediate
	Distal
	// BonesPerFinger is the number of bone slots per finger.
	BonesPerFinger = 4
)

// String returns the lowercase name of the bone slot.
func (b BoneKind) String() string {
	switch b {
	case Metacarpal:
		return "metacarpal"
	case Proximal:
		return "proximal"
	case Intermediate:
		return "intermediate"
	case Distal:
		return "distal"
	}
	return "invalid"
}

// Bone holds the tracked orientation and position of one joint.
// Present distinguishes a real reading from an empty slot; absent bones
// are skipped during comparison rather than treated as identity.
type Bone struct {
	Rotation quat.Number
	Position r3.Vec
	Present  bool
}

// Finger is the fixed-size chain of bone slots for one finger.
type Finger [BonesPerFinger]Bone

// Snapshot is the immutable per-frame representation of one hand:
// chirality, wrist orientation, and five finger chains. Snapshots are
// produced once by a tracking source or loaded from a stored pose and
// never mutated afterwards.
type Snapshot struct {
	Chirality Chirality
	Wrist     Bone
	Fingers   [NumFingers]Finger
}

// Bone returns the bone at the given slot and whether it is present.
func (s *Snapshot) Bone(f FingerKind, b BoneKind) (Bone, bool) {
	if s == nil || f < 0 || f >= NumFingers || b < 0 || b >= BonesPerFinger {
		return Bone{}, false
	}
	bone := s.Fingers[f][b]
	return bone, bone.Present
}

// Parent returns the closest present bone before slot b in the same
// finger chain, falling back to the wrist when no earlier slot is
// filled. The metacarpal exists only to seed this lookup; it never
// produces a match decision of its own.
func (s *Snapshot) Parent(f FingerKind, b BoneKind) (Bone, bool) {
	if s == nil || f < 0 || f >= NumFingers {
		return Bone{}, false
	}
	for p := b - 1; p >= Metacarpal; p-- {
		if bone := s.Fingers[f][p]; bone.Present {
			return bone, true
		}
	}
	if s.Wrist.Present {
		return s.Wrist, true
	}
	return Bone{}, false
}
