// Package detect provides the per-frame detection state machine that
// turns raw pose matching into enter/hold/exit transitions.
package detect

import (
	"github.com/ayusman/mudra/internal/match"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/tracking"
)

// Config holds construction options for a Detector. The tracking source
// is passed in explicitly; a detector never reaches for a global.
type Config struct {
	// Source supplies one frame of hand snapshots per Step call.
	Source tracking.Source

	// Chirality restricts matching to one hand. The zero value
	// (ChiralityUnknown) accepts both hands.
	Chirality skeleton.Chirality

	// HysteresisMargin is the fallback widening in degrees for held
	// poses that do not carry their own margin. Zero selects
	// pose.DefaultHysteresisMargin.
	HysteresisMargin float64
}

// Detector advances a two-state machine (idle, holding a pose) once per
// frame. Each instance owns its candidate pose list and its diagnostic
// buffers; instances share nothing, but a single instance must not be
// stepped concurrently.
type Detector struct {
	source tracking.Source
	filter skeleton.Chirality
	margin float64

	poses []*pose.Pose
	held  *pose.Pose

	// results keeps the most recent per-joint comparison outcome per
	// hand, for diagnostics and editor visualization.
	results map[skeleton.Chirality]match.Result

	// OnDetected fires on the frame a pose becomes held.
	OnDetected func(*pose.Pose)
	// OnOngoing fires once per frame for every subsequent frame the
	// pose stays held. Level-triggered: consumers needing edges must
	// track the previous frame themselves.
	OnOngoing func(*pose.Pose)
	// OnLost fires on the frame the held pose stops matching, with the
	// pose that was released.
	OnLost func(*pose.Pose)
}

// New creates a Detector reading from the configured source.
func New(cfg Config) *Detector {
	margin := cfg.HysteresisMargin
	if margin <= 0 {
		margin = pose.DefaultHysteresisMargin
	}
	return &Detector{
		source:  cfg.Source,
		filter:  cfg.Chirality,
		margin:  margin,
		results: make(map[skeleton.Chirality]match.Result),
	}
}

// AddPose appends a candidate pose. Order matters: the first matching
// pose in hand-then-pose order wins, with no scoring between
// simultaneously matching candidates.
func (d *Detector) AddPose(p *pose.Pose) {
	if p == nil {
		return
	}
	d.poses = append(d.poses, p)
}

// RemovePose removes a candidate pose by its ID. Removing the held pose
// releases it on the next step.
func (d *Detector) RemovePose(id string) {
	for i, p := range d.poses {
		if p.ID == id {
			d.poses = append(d.poses[:i], d.poses[i+1:]...)
			if d.held == p {
				d.held = nil
			}
			return
		}
	}
}

// Poses returns the candidate poses in evaluation order.
func (d *Detector) Poses() []*pose.Pose {
	return d.poses
}

// Held returns the currently held pose, or nil when idle.
func (d *Detector) Held() *pose.Pose {
	return d.held
}

// LastResults returns the per-joint match results of the last stepped
// frame, keyed by hand chirality; hands absent from that frame have no
// entry. The map is the detector's own diagnostic buffer; callers must
// not hold it across Step calls.
func (d *Detector) LastResults() map[skeleton.Chirality]match.Result {
	return d.results
}

// Step advances the state machine by one frame. A missing or failing
// source is not an error: it behaves like a frame with no hands and
// drives the state toward idle.
func (d *Detector) Step() {
	var frame *tracking.Frame
	if d.source != nil {
		if f, err := d.source.Frame(); err == nil {
			frame = f
		}
	}
	d.advance(frame)
}

// advance runs one evaluation pass: every tracked hand passing the
// chirality filter against every candidate pose, first match wins and
// stops the scan.
func (d *Detector) advance(frame *tracking.Frame) {
	var matched *pose.Pose

	// Diagnostics describe this frame only; a hand that left the frame
	// must not keep reporting its last-seen results.
	clear(d.results)

	if frame != nil {
	scan:
		for i := range frame.Hands {
			hand := &frame.Hands[i]
			if d.filter != skeleton.ChiralityUnknown && hand.Chirality != d.filter {
				continue
			}
			for _, p := range d.poses {
				res := match.Hand(hand, p, frame.View, d.effectiveMargin(p))
				d.results[hand.Chirality] = res
				if res.Matched {
					matched = p
					break scan
				}
			}
		}
	}

	switch {
	case matched == nil && d.held != nil:
		lost := d.held
		d.held = nil
		if d.OnLost != nil {
			d.OnLost(lost)
		}
	case matched != nil && d.held == nil:
		d.held = matched
		if d.OnDetected != nil {
			d.OnDetected(matched)
		}
	case matched != nil && matched != d.held:
		// Direct hold-to-hold switch announces the new pose without an
		// intervening lost signal.
		d.held = matched
		if d.OnDetected != nil {
			d.OnDetected(matched)
		}
	case matched != nil:
		if d.OnOngoing != nil {
			d.OnOngoing(matched)
		}
	}
}

// effectiveMargin returns the hysteresis widening for a pose: zero
// unless the pose is currently held, then the pose's own margin or the
// detector default.
func (d *Detector) effectiveMargin(p *pose.Pose) float64 {
	if p != d.held {
		return 0
	}
	if p.HysteresisMargin > 0 {
		return p.HysteresisMargin
	}
	return d.margin
}
