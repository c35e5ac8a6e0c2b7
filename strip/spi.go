package strip

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"lautenbacher.net/pktleds/pixel"
)

// SPI drives the chain from the MOSI pin of a spidev port. The pulse
// shapes are produced by the SPI clock, see Encoder.
type SPI struct {
	port spi.PortCloser
	conn spi.Conn
	enc  *Encoder
}

func NewSPI(dev string, hz int64, timing Timing) (*SPI, error) {
	enc, err := NewEncoder(timing, hz)
	if err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init periph: %w", err)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("failed to open spi %s: %w", dev, err)
	}
	conn, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to connect to spi device: %w", err)
	}
	slog.Info("SPI strip driver ready", "device", dev, "hz", hz, "symbolBits", enc.SymbolBits())
	return &SPI{port: port, conn: conn, enc: enc}, nil
}

func (s *SPI) Transmit(frame pixel.Frame) error {
	if err := s.conn.Tx(s.enc.Encode(frame), nil); err != nil {
		return fmt.Errorf("spi transaction failed: %w", err)
	}
	return nil
}

func (s *SPI) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
