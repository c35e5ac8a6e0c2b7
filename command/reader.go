package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

type Framing string

const (
	// LineFraming reads newline terminated units. Trailing CR and LF are
	// not part of the unit.
	LineFraming Framing = "line"
	// PairFraming reads fixed units of two bytes.
	PairFraming Framing = "pair"
)

func ParseFraming(name string) (Framing, error) {
	switch Framing(name) {
	case LineFraming, PairFraming:
		return Framing(name), nil
	case "":
		return LineFraming, nil
	default:
		return "", fmt.Errorf("unknown framing %q", name)
	}
}

// MaxLine caps the size of a pending line. Longer input can never be a
// valid command and is thrown away as soon as the limit is hit.
const MaxLine = 64

// PairGap is the longest pause between the two bytes of a pair. A lone
// byte older than that is the tail of a flushed unit and gets dropped.
const PairGap = 50 * time.Millisecond

// flusher is implemented by transports that buffer input on their own,
// like serial ports.
type flusher interface {
	Flush() error
}

// UnitReader splits a byte stream into command units. Partial lines
// survive read errors, so a transport that times out can simply be read
// again. A half pair does not survive a timeout: pairs are sent in one
// write, so the missing byte is not coming anymore.
type UnitReader struct {
	src       io.Reader
	r         *bufio.Reader
	framing   Framing
	pending   []byte
	pendingAt time.Time
	now       func() time.Time
}

func NewUnitReader(src io.Reader, framing Framing) *UnitReader {
	return &UnitReader{
		src:     src,
		r:       bufio.NewReaderSize(src, 256),
		framing: framing,
		now:     time.Now,
	}
}

func (s *UnitReader) Framing() Framing {
	return s.framing
}

// Next blocks until a complete unit is available.
func (s *UnitReader) Next() ([]byte, error) {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if s.framing == PairFraming && errors.Is(err, io.ErrNoProgress) {
				s.dropHalfPair("timeout")
			}
			return nil, err
		}
		if s.framing == PairFraming {
			now := s.now()
			if len(s.pending) > 0 && now.Sub(s.pendingAt) > PairGap {
				s.dropHalfPair("gap")
			}
			if len(s.pending) == 0 {
				s.pendingAt = now
			}
			s.pending = append(s.pending, b)
			if len(s.pending) == 2 {
				return s.take(), nil
			}
			continue
		}
		if b == '\n' {
			unit := s.take()
			for len(unit) > 0 && unit[len(unit)-1] == '\r' {
				unit = unit[:len(unit)-1]
			}
			return unit, nil
		}
		if len(s.pending) >= MaxLine {
			slog.Debug("Dropping overlong input line", "length", len(s.pending))
			s.pending = s.pending[:0]
		}
		s.pending = append(s.pending, b)
	}
}

func (s *UnitReader) dropHalfPair(reason string) {
	if len(s.pending) == 0 {
		return
	}
	slog.Debug("Dropping half pair", "byte", s.pending[0], "reason", reason)
	s.pending = s.pending[:0]
}

func (s *UnitReader) take() []byte {
	unit := make([]byte, len(s.pending))
	copy(unit, s.pending)
	s.pending = s.pending[:0]
	return unit
}

// Discard throws away everything received so far: the partial unit,
// the read buffer and whatever the transport holds.
func (s *UnitReader) Discard() int {
	dropped := len(s.pending) + s.r.Buffered()
	s.pending = s.pending[:0]
	s.r.Discard(s.r.Buffered())
	if f, ok := s.src.(flusher); ok {
		if err := f.Flush(); err != nil {
			slog.Warn("Failed to flush input", "error", err)
		}
	}
	return dropped
}
