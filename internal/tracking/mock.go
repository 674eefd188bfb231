package tracking

import (
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// MockSource is a test implementation of the Source interface. It
// returns whatever frame or error the test configured last.
type MockSource struct {
	mu    sync.Mutex
	frame *Frame
	err   error
}

// NewMockSource creates a new MockSource with no frame.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// SetFrame sets the frame returned by subsequent Frame calls.
func (m *MockSource) SetFrame(f *Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = f
	m.err = nil
}

// SetHands is a convenience wrapper building a frame from snapshots
// with an identity view and the current time.
func (m *MockSource) SetHands(hands ...*skeleton.Snapshot) {
	f := &Frame{View: skeleton.Identity, Timestamp: time.Now()}
	for _, h := range hands {
		if h != nil {
			f.Hands = append(f.Hands, *h)
		}
	}
	m.SetFrame(f)
}

// SetError sets the error returned by subsequent Frame calls.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Frame returns the configured frame or error.
func (m *MockSource) Frame() (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.frame, nil
}

// Close is a no-op for the mock source.
func (m *MockSource) Close() error {
	return nil
}
