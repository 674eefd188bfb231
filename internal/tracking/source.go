// Package tracking defines the skeleton source interface consumed by
// the detection engine, plus playback and test implementations. Real
// acquisition hardware lives behind the Source interface and outside
// this repository.
package tracking

import (
	"time"

	"gonum.org/v1/gonum/num/quat"

	"github.com/ayusman/mudra/internal/skeleton"
)

// Frame is one tracking frame: zero, one, or two hand snapshots plus
// the current view orientation for camera-relative constraints.
type Frame struct {
	Hands     []skeleton.Snapshot
	View      quat.Number
	Timestamp time.Time
}

// Source supplies one Frame per detection step.
type Source interface {
	// Frame returns the current tracking frame. A nil frame with a nil
	// error means no data this step; the detector treats both a nil
	// frame and an error as "no hands".
	Frame() (*Frame, error)

	// Close releases any resources held by the source.
	Close() error
}
