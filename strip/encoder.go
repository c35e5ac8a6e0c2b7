package strip

import (
	"fmt"
	"math"

	"lautenbacher.net/pktleds/pixel"
)

const bitsPerLed = 24

// Encoder turns frames into a bit stream for an SPI MOSI line clocked
// at a fixed frequency. Each data bit becomes symbolBits SPI bits, the
// first zeroHigh (or oneHigh) of them set. The stream ends with enough
// zero bytes to hold the line low for the reset time.
type Encoder struct {
	timing     Timing
	hz         int64
	symbolBits int
	zeroHigh   int
	oneHigh    int
	resetBytes int
}

func NewEncoder(timing Timing, hz int64) (*Encoder, error) {
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	if hz <= 0 {
		return nil, fmt.Errorf("spi frequency %d must be positive: %w", hz, ErrTiming)
	}
	tick := 1e9 / float64(hz)
	period := float64(timing.Period.Nanoseconds())
	inst := &Encoder{
		timing:     timing,
		hz:         hz,
		symbolBits: int(math.Round(period / tick)),
		zeroHigh:   int(math.Round(float64(timing.HighZero.Nanoseconds()) / tick)),
		oneHigh:    int(math.Round(float64(timing.HighOne.Nanoseconds()) / tick)),
		resetBytes: int(math.Ceil(float64(timing.Reset.Nanoseconds()) / tick / 8)),
	}

	// Quantization errors are measured against the bit period.
	check := func(what string, bits int, want float64) error {
		if dev := math.Abs(float64(bits)*tick-want) / period; dev > timing.Tolerance {
			return fmt.Errorf("%s is %.1f%% off at %d Hz: %w", what, dev*100, hz, ErrTiming)
		}
		return nil
	}
	if err := check("bit period", inst.symbolBits, period); err != nil {
		return nil, err
	}
	if err := check("0 high time", inst.zeroHigh, float64(timing.HighZero.Nanoseconds())); err != nil {
		return nil, err
	}
	if err := check("1 high time", inst.oneHigh, float64(timing.HighOne.Nanoseconds())); err != nil {
		return nil, err
	}
	if inst.zeroHigh < 1 || inst.zeroHigh >= inst.oneHigh || inst.oneHigh >= inst.symbolBits {
		return nil, fmt.Errorf("%d Hz cannot tell 0 from 1 (%d/%d of %d bits): %w",
			hz, inst.zeroHigh, inst.oneHigh, inst.symbolBits, ErrTiming)
	}
	return inst, nil
}

// Len returns the number of bytes Encode produces for n LEDs.
func (s *Encoder) Len(n int) int {
	return (n*bitsPerLed*s.symbolBits+7)/8 + s.resetBytes
}

// SymbolBits returns the SPI bits used per data bit.
func (s *Encoder) SymbolBits() int {
	return s.symbolBits
}

// Encode emits one 24 bit packet per LED, most significant bit first,
// in the channel order of the frame words.
func (s *Encoder) Encode(frame pixel.Frame) []byte {
	out := make([]byte, s.Len(len(frame)))
	w := bitWriter{buf: out}
	for _, word := range frame {
		for bit := bitsPerLed - 1; bit >= 0; bit-- {
			high := s.zeroHigh
			if word&(1<<uint(bit)) != 0 {
				high = s.oneHigh
			}
			w.ones(high)
			w.zeros(s.symbolBits - high)
		}
	}
	// The reset tail is already zero.
	return out
}

// bitWriter sets bits MSB first into a zeroed buffer.
type bitWriter struct {
	buf []byte
	pos int
}

func (s *bitWriter) ones(n int) {
	for i := 0; i < n; i++ {
		s.buf[s.pos/8] |= 0x80 >> uint(s.pos%8)
		s.pos++
	}
}

func (s *bitWriter) zeros(n int) {
	s.pos += n
}
