package strip

import (
	"sync"

	"lautenbacher.net/pktleds/pixel"
)

// Recorder keeps every transmitted frame. It is the driver for dry runs
// without a strip and the workhorse of the tests.
type Recorder struct {
	mu     sync.Mutex
	frames []pixel.Frame
	limit  int
	count  int
	closed bool
}

// NewRecorder keeps at most limit frames (the most recent ones). A limit
// of 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (s *Recorder) Transmit(frame pixel.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(pixel.Frame, len(frame))
	copy(cp, frame)
	s.frames = append(s.frames, cp)
	if s.limit > 0 && len(s.frames) > s.limit {
		s.frames = s.frames[len(s.frames)-s.limit:]
	}
	s.count++
	return nil
}

func (s *Recorder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Frames returns a copy of the recorded frames.
func (s *Recorder) Frames() []pixel.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]pixel.Frame, len(s.frames))
	copy(ret, s.frames)
	return ret
}

// Count returns the number of frames transmitted so far.
func (s *Recorder) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Recorder) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
	s.count = 0
}

func (s *Recorder) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
