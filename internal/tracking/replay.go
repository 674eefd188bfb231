package tracking

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/skeleton"
)

// ReplaySource plays back a recorded frame sequence from a JSON file,
// one frame per call. With loop enabled the sequence restarts at the
// end; otherwise Frame returns io.EOF once exhausted. It lets the
// daemon and tests run the full detection path without tracking
// hardware.
type ReplaySource struct {
	mu     sync.Mutex
	frames []*Frame
	next   int
	loop   bool
}

// NewReplaySource loads a recording from path.
func NewReplaySource(path string, loop bool) (*ReplaySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording %s: %w", path, err)
	}
	frames, err := DecodeRecording(data)
	if err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", path, err)
	}
	return &ReplaySource{frames: frames, loop: loop}, nil
}

// Len returns the number of recorded frames.
func (r *ReplaySource) Len() int {
	return len(r.frames)
}

// Frame returns the next recorded frame.
func (r *ReplaySource) Frame() (*Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return nil, io.EOF
	}
	if r.next >= len(r.frames) {
		if !r.loop {
			return nil, io.EOF
		}
		r.next = 0
	}
	f := r.frames[r.next]
	r.next++
	return f, nil
}

// Close is a no-op; the file is fully read at construction.
func (r *ReplaySource) Close() error {
	return nil
}

// Recording wire format. Absent bone slots are encoded as JSON null so
// that presence is explicit in the data rather than inferred.

type recordedBone struct {
	Rotation [4]float64 `json:"rotation"` // w, x, y, z
	Position [3]float64 `json:"position"`
}

type recordedHand struct {
	Chirality string                                               `json:"chirality"`
	Wrist     *recordedBone                                        `json:"wrist"`
	Fingers   [skeleton.NumFingers][skeleton.BonesPerFinger]*recordedBone `json:"fingers"`
}

type recordedFrame struct {
	View  [4]float64     `json:"view"`
	Hands []recordedHand `json:"hands"`
}

type recording struct {
	Frames []recordedFrame `json:"frames"`
}

// DecodeRecording parses a JSON recording into playable frames.
func DecodeRecording(data []byte) ([]*Frame, error) {
	var rec recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	frames := make([]*Frame, 0, len(rec.Frames))
	for _, rf := range rec.Frames {
		f := &Frame{
			View:      quat.Number{Real: rf.View[0], Imag: rf.View[1], Jmag: rf.View[2], Kmag: rf.View[3]},
			Timestamp: time.Now(),
		}
		for _, rh := range rf.Hands {
			s := skeleton.Snapshot{Chirality: skeleton.ParseChirality(rh.Chirality)}
			s.Wrist = decodeBone(rh.Wrist)
			for fi := 0; fi < skeleton.NumFingers; fi++ {
				for bi := 0; bi < skeleton.BonesPerFinger; bi++ {
					s.Fingers[fi][bi] = decodeBone(rh.Fingers[fi][bi])
				}
			}
			f.Hands = append(f.Hands, s)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// EncodeRecording serializes frames into the JSON recording format.
func EncodeRecording(frames []*Frame) ([]byte, error) {
	rec := recording{Frames: make([]recordedFrame, 0, len(frames))}
	for _, f := range frames {
		rf := recordedFrame{
			View: [4]float64{f.View.Real, f.View.Imag, f.View.Jmag, f.View.Kmag},
		}
		for i := range f.Hands {
			h := &f.Hands[i]
			rh := recordedHand{Chirality: h.Chirality.String()}
			rh.Wrist = encodeBone(h.Wrist)
			for fi := 0; fi < skeleton.NumFingers; fi++ {
				for bi := 0; bi < skeleton.BonesPerFinger; bi++ {
					rh.Fingers[fi][bi] = encodeBone(h.Fingers[fi][bi])
				}
			}
			rf.Hands = append(rf.Hands, rh)
		}
		rec.Frames = append(rec.Frames, rf)
	}
	return json.MarshalIndent(rec, "", "  ")
}

// EncodeHand serializes a single hand snapshot into the recording's
// per-hand JSON format. Used for stored authoring captures.
func EncodeHand(s *skeleton.Snapshot) ([]byte, error) {
	rh := recordedHand{Chirality: s.Chirality.String()}
	rh.Wrist = encodeBone(s.Wrist)
	for fi := 0; fi < skeleton.NumFingers; fi++ {
		for bi := 0; bi < skeleton.BonesPerFinger; bi++ {
			rh.Fingers[fi][bi] = encodeBone(s.Fingers[fi][bi])
		}
	}
	return json.Marshal(rh)
}

// DecodeHand parses a single hand snapshot from the per-hand JSON
// format.
func DecodeHand(data []byte) (*skeleton.Snapshot, error) {
	var rh recordedHand
	if err := json.Unmarshal(data, &rh); err != nil {
		return nil, err
	}
	s := &skeleton.Snapshot{Chirality: skeleton.ParseChirality(rh.Chirality)}
	s.Wrist = decodeBone(rh.Wrist)
	for fi := 0; fi < skeleton.NumFingers; fi++ {
		for bi := 0; bi < skeleton.BonesPerFinger; bi++ {
			s.Fingers[fi][bi] = decodeBone(rh.Fingers[fi][bi])
		}
	}
	return s, nil
}

func decodeBone(rb *recordedBone) skeleton.Bone {
	if rb == nil {
		return skeleton.Bone{}
	}
	return skeleton.Bone{
		Rotation: quat.Number{Real: rb.Rotation[0], Imag: rb.Rotation[1], Jmag: rb.Rotation[2], Kmag: rb.Rotation[3]},
		Position: r3.Vec{X: rb.Position[0], Y: rb.Position[1], Z: rb.Position[2]},
		Present:  true,
	}
}

func encodeBone(b skeleton.Bone) *recordedBone {
	if !b.Present {
		return nil
	}
	return &recordedBone{
		Rotation: [4]float64{b.Rotation.Real, b.Rotation.Imag, b.Rotation.Jmag, b.Rotation.Kmag},
		Position: [3]float64{b.Position.X, b.Position.Y, b.Position.Z},
	}
}
