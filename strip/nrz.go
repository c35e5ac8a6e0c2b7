package strip

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"lautenbacher.net/pktleds/pixel"
)

// NRZ hands the frame to periph's nrzled driver, which does its own
// NRZ encoding and expects raw RGB.
type NRZ struct {
	port spi.PortCloser
	dev  *nrzled.Dev
	rgb  []byte
}

func NewNRZ(dev string, leds int) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init periph: %w", err)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("failed to open spi %s: %w", dev, err)
	}
	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: leds,
		Channels:  3,
		Freq:      800 * physic.KiloHertz,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to open nrzled: %w", err)
	}
	return &NRZ{port: port, dev: d, rgb: make([]byte, 3*leds)}, nil
}

func (s *NRZ) Transmit(frame pixel.Frame) error {
	if len(frame)*3 != len(s.rgb) {
		return fmt.Errorf("frame of %d leds does not match strip of %d", len(frame), len(s.rgb)/3)
	}
	for i, p := range frame.Pixels() {
		s.rgb[3*i] = p.Red
		s.rgb[3*i+1] = p.Green
		s.rgb[3*i+2] = p.Blue
	}
	if _, err := s.dev.Write(s.rgb); err != nil {
		return fmt.Errorf("nrzled write failed: %w", err)
	}
	return nil
}

func (s *NRZ) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.dev.Halt()
	if cerr := s.port.Close(); err == nil {
		err = cerr
	}
	s.port = nil
	return err
}
