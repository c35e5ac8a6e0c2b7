package pixel

import (
	"errors"
	"fmt"
)

var ErrIndexOutOfRange = errors.New("led index out of range")

// Buffer holds the current colour of every LED of the strip. Index 0 is
// the first LED in chain order. It has a single owner (the animation
// engine) and is therefore not guarded by a mutex.
type Buffer struct {
	pixels []Pixel
}

// NewBuffer creates an all black buffer for a strip of n LEDs.
func NewBuffer(n int) *Buffer {
	if n < 0 {
		n = 0
	}
	return &Buffer{pixels: make([]Pixel, n)}
}

func (s *Buffer) Len() int {
	return len(s.pixels)
}

func (s *Buffer) inRange(index int) bool {
	return index >= 0 && index < len(s.pixels)
}

// Set writes value at index. An index outside the strip is rejected
// and the buffer stays untouched.
func (s *Buffer) Set(index int, value Pixel) error {
	if !s.inRange(index) {
		return fmt.Errorf("set %d of %d leds: %w", index, len(s.pixels), ErrIndexOutOfRange)
	}
	s.pixels[index] = value
	return nil
}

// Get returns the pixel at index exactly as it was stored.
func (s *Buffer) Get(index int) (Pixel, error) {
	if !s.inRange(index) {
		return Black, fmt.Errorf("get %d of %d leds: %w", index, len(s.pixels), ErrIndexOutOfRange)
	}
	return s.pixels[index], nil
}

func (s *Buffer) Fill(value Pixel) {
	for i := range s.pixels {
		s.pixels[i] = value
	}
}

func (s *Buffer) Clear() {
	s.Fill(Black)
}

// Snapshot returns a copy of all pixels.
func (s *Buffer) Snapshot() []Pixel {
	ret := make([]Pixel, len(s.pixels))
	copy(ret, s.pixels)
	return ret
}

// Lit returns the indices of all LEDs that are not black, in ascending
// order.
func (s *Buffer) Lit() []int {
	var ret []int
	for i, p := range s.pixels {
		if !p.IsEmpty() {
			ret = append(ret, i)
		}
	}
	return ret
}
