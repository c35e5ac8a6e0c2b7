package strip

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"

	"lautenbacher.net/pktleds/pixel"
)

// Rpio is the same SPI symbol stream as SPI, sent through go-rpio's
// direct register access instead of spidev.
type Rpio struct {
	enc  *Encoder
	open bool
}

func NewRpio(hz int64, timing Timing) (*Rpio, error) {
	enc, err := NewEncoder(timing, hz)
	if err != nil {
		return nil, err
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open rpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return nil, fmt.Errorf("failed to begin spi: %w", err)
	}
	rpio.SpiSpeed(int(hz))
	slog.Info("rpio strip driver ready", "hz", hz, "symbolBits", enc.SymbolBits())
	return &Rpio{enc: enc, open: true}, nil
}

func (s *Rpio) Transmit(frame pixel.Frame) error {
	if !s.open {
		return fmt.Errorf("rpio strip driver closed")
	}
	rpio.SpiTransmit(s.enc.Encode(frame)...)
	return nil
}

func (s *Rpio) Close() error {
	if !s.open {
		return nil
	}
	s.open = false
	rpio.SpiEnd(rpio.Spi0)
	return rpio.Close()
}
