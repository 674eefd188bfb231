// Package testdata builds synthetic tracking recordings for tests and
// demos. Recordings are generated from the canned skeleton snapshots
// rather than checked in, so they always match the current wire format.
package testdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/tracking"
)

// HoldFrames builds a frame sequence where the given hand appears after
// lead empty frames, stays for hold frames, and disappears for tail
// empty frames. Driving a detector through it produces one full
// detect/hold/lose cycle.
func HoldFrames(hand *skeleton.Snapshot, lead, hold, tail int) []*tracking.Frame {
	var frames []*tracking.Frame
	for i := 0; i < lead; i++ {
		frames = append(frames, &tracking.Frame{View: skeleton.Identity})
	}
	for i := 0; i < hold; i++ {
		frames = append(frames, &tracking.Frame{
			View:  skeleton.Identity,
			Hands: []skeleton.Snapshot{*hand},
		})
	}
	for i := 0; i < tail; i++ {
		frames = append(frames, &tracking.Frame{View: skeleton.Identity})
	}
	return frames
}

// WriteRecording encodes frames and writes them to path.
func WriteRecording(path string, frames []*tracking.Frame) error {
	data, err := tracking.EncodeRecording(frames)
	if err != nil {
		return fmt.Errorf("encode recording: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write recording %s: %w", path, err)
	}
	return nil
}

// FistHoldRecording writes a right-hand fist hold cycle into dir and
// returns the file path. Suitable for feeding a ReplaySource.
func FistHoldRecording(dir string) (string, error) {
	frames := HoldFrames(skeleton.Fist(skeleton.ChiralityRight), 2, 5, 2)
	path := filepath.Join(dir, "fist_hold.json")
	if err := WriteRecording(path, frames); err != nil {
		return "", err
	}
	return path, nil
}
