package platform

import (
	"io"
	"sync"

	"lautenbacher.net/pktleds/util"
)

// KeyInput turns key presses into a command stream. Like a serial line
// that is only read between animations it keeps just the most recent
// unit; older unread ones are overwritten.
type KeyInput struct {
	keys *util.Latest[[]byte]
	done chan struct{}
	once sync.Once
	rest []byte
}

func NewKeyInput() *KeyInput {
	return &KeyInput{
		keys: util.NewLatest[[]byte](),
		done: make(chan struct{}),
	}
}

// Send queues unit, replacing anything not yet read.
func (s *KeyInput) Send(unit []byte) {
	cp := make([]byte, len(unit))
	copy(cp, unit)
	s.keys.Send(cp)
}

// Read blocks until a unit was sent or the input is closed.
func (s *KeyInput) Read(p []byte) (int, error) {
	for len(s.rest) == 0 {
		if unit, ok := s.keys.Take(); ok {
			s.rest = unit
			break
		}
		select {
		case <-s.keys.C():
		case <-s.done:
			return 0, io.EOF
		}
	}
	n := copy(p, s.rest)
	s.rest = s.rest[n:]
	return n, nil
}

// Flush drops whatever was typed but not read yet. It must be called
// from the reading goroutine.
func (s *KeyInput) Flush() error {
	s.keys.Take()
	s.rest = nil
	return nil
}

// Close makes pending and future reads return io.EOF.
func (s *KeyInput) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
