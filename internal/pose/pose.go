// Package pose provides the reference pose model consumed by the matcher.
package pose

import (
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// Default tolerances in degrees.
const (
	// DefaultGlobalTolerance applies to any joint without its own
	// threshold entry.
	DefaultGlobalTolerance = 20
	// DefaultHysteresisMargin widens the tolerance band while a pose
	// is the currently held detection.
	DefaultHysteresisMargin = 5
)

// Threshold is the two-axis angular tolerance for one joint, in
// degrees. Set distinguishes an authored entry from the zero value so
// that an explicit zero tolerance is honoured instead of falling back
// to the pose's global tolerance.
type Threshold struct {
	Pitch float64
	Yaw   float64
	Set   bool
}

// Pose is one authored reference pose: a recorded skeleton with its
// matching parameters. Poses are read-only at matching time; the
// authoring surface writes them and the detector only reads.
type Pose struct {
	ID        string
	Name      string
	Chirality skeleton.Chirality

	// Skeleton is the recorded reference snapshot.
	Skeleton *skeleton.Snapshot

	// Fingers enables or disables each finger for comparison.
	Fingers [skeleton.NumFingers]bool

	// Thresholds holds per-joint tolerances. Metacarpal entries are
	// ignored: metacarpals only seed the chain-local comparison.
	Thresholds [skeleton.NumFingers][skeleton.BonesPerFinger]Threshold

	// GlobalTolerance is the fallback tolerance in degrees for joints
	// without an authored threshold.
	GlobalTolerance float64

	// HysteresisMargin is added symmetrically to both axes of every
	// tolerance while this pose is the held detection. Zero means the
	// detector's own default margin applies.
	HysteresisMargin float64

	// Constraints are evaluated in order before any joint comparison;
	// all enabled constraints must pass.
	Constraints []Constraint

	CreatedAt time.Time
	UpdatedAt time.Time

	// mirrored caches the opposite-chirality reflection of Skeleton.
	// It is derived once and reused by every frame that needs it.
	mirrored *skeleton.Snapshot
}

// Mirrored returns the cached mirror of the reference skeleton,
// deriving it on first use. Callers on the per-frame path only pay the
// cost of a nil check.
func (p *Pose) Mirrored() *skeleton.Snapshot {
	if p.Skeleton == nil {
		return nil
	}
	if p.mirrored == nil {
		p.mirrored = p.Skeleton.Mirror()
	}
	return p.mirrored
}

// SetSkeleton replaces the reference skeleton and invalidates the
// cached mirror. Used by the authoring surface; never called while the
// pose is being matched.
func (p *Pose) SetSkeleton(s *skeleton.Snapshot) {
	p.Skeleton = s
	p.mirrored = nil
}

// Tolerance returns the effective pitch/yaw tolerance for one joint,
// falling back to the global tolerance for unauthored entries.
func (p *Pose) Tolerance(f skeleton.FingerKind, b skeleton.BoneKind) (pitch, yaw float64) {
	if f >= 0 && f < skeleton.NumFingers && b >= 0 && b < skeleton.BonesPerFinger {
		if t := p.Thresholds[f][b]; t.Set {
			return t.Pitch, t.Yaw
		}
	}
	g := p.GlobalTolerance
	if g <= 0 {
		g = DefaultGlobalTolerance
	}
	return g, g
}

// EnabledFingerCount returns how many fingers the pose compares. A pose
// with zero enabled fingers never matches.
func (p *Pose) EnabledFingerCount() int {
	n := 0
	for _, enabled := range p.Fingers {
		if enabled {
			n++
		}
	}
	return n
}
