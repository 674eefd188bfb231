package skeleton

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mirror returns the snapshot reflected across the hand's sagittal
// plane (the YZ plane), with chirality flipped. A pose authored on one
// hand is matched on the other through this reflection. The mirror is
// derived once when a pose is loaded and cached; the per-frame matching
// path never calls this.
func (s *Snapshot) Mirror() *Snapshot {
	if s == nil {
		return nil
	}
	m := &Snapshot{
		Chirality: s.Chirality.Opposite(),
		Wrist:     mirrorBone(s.Wrist),
	}
	for f := 0; f < NumFingers; f++ {
		for b := 0; b < BonesPerFinger; b++ {
			m.Fingers[f][b] = mirrorBone(s.Fingers[f][b])
		}
	}
	return m
}

// mirrorBone reflects a single bone across the YZ plane. A rotation by
// angle t about axis (x,y,z) becomes a rotation by -t about (-x,y,z),
// which collapses to negating the J and K components.
func mirrorBone(b Bone) Bone {
	if !b.Present {
		return Bone{}
	}
	return Bone{
		Rotation: quat.Number{
			Real: b.Rotation.Real,
			Imag: b.Rotation.Imag,
			Jmag: -b.Rotation.Jmag,
			Kmag: -b.Rotation.Kmag,
		},
		Position: r3.Vec{X: -b.Position.X, Y: b.Position.Y, Z: b.Position.Z},
		Present:  true,
	}
}
