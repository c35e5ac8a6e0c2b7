package platform

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/tarm/serial"

	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/config"
	"lautenbacher.net/pktleds/pixel"
	"lautenbacher.net/pktleds/strip"
)

// HardwarePlatform drives the real strip and reads commands from the
// serial port.
type HardwarePlatform struct {
	config    *config.Config
	tx        strip.Transmitter
	port      *serialInput
	readyChan chan bool
}

// serialInput adapts the port to the command reader. A read that times
// out reports io.ErrNoProgress instead of the io.EOF of the underlying
// file, and reads after Stop report io.EOF.
type serialInput struct {
	port    io.ReadWriteCloser
	flush   func() error
	timeout bool
	closed  atomic.Bool
}

func (s *serialInput) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if s.closed.Load() {
		return n, io.EOF
	}
	if n == 0 && errors.Is(err, io.EOF) && s.timeout {
		return 0, io.ErrNoProgress
	}
	return n, err
}

func (s *serialInput) Flush() error {
	if s.flush == nil {
		return nil
	}
	return s.flush()
}

func (s *serialInput) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.port.Close()
}

func NewHardwarePlatform(conf *config.Config) *HardwarePlatform {
	return &HardwarePlatform{
		config:    conf,
		readyChan: make(chan bool),
	}
}

func (s *HardwarePlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *HardwarePlatform) Start() error {
	tx, err := OpenDriver(s.config)
	if err != nil {
		return fmt.Errorf("failed to open strip driver: %w", err)
	}
	s.tx = tx

	sc := s.config.Serial
	slog.Info("Opening serial port", "device", sc.Device, "baud", sc.Baud, "framing", sc.Framing)
	port, err := serial.OpenPort(&serial.Config{Name: sc.Device, Baud: sc.Baud, ReadTimeout: sc.ReadTimeout})
	if err != nil {
		s.tx.Close()
		return fmt.Errorf("failed to open serial port %s: %w", sc.Device, err)
	}
	s.port = &serialInput{port: port, flush: port.Flush, timeout: sc.ReadTimeout > 0}

	close(s.readyChan) // For the hardware, we are ready immediately.
	return nil
}

func (s *HardwarePlatform) Stop() {
	if s.port != nil {
		if err := s.port.Close(); err != nil {
			slog.Error("Error closing serial port", "error", err)
		}
		s.port = nil
	}
	if s.tx != nil {
		// leave the strip dark
		if err := s.tx.Transmit(make(pixel.Frame, s.config.Strip.LedsTotal)); err != nil {
			slog.Error("Error clearing strip", "error", err)
		}
		if err := s.tx.Close(); err != nil {
			slog.Error("Error closing strip driver", "error", err)
		}
		s.tx = nil
	}
}

func (s *HardwarePlatform) Transmitter() strip.Transmitter {
	return s.tx
}

// Input is the serial port itself. It implements Flush, so the
// dispatcher can drop whatever the UART received during an animation.
func (s *HardwarePlatform) Input() io.Reader {
	if s.port == nil {
		return nil
	}
	return s.port
}

func (s *HardwarePlatform) Framing() command.Framing {
	f, err := command.ParseFraming(s.config.Serial.Framing)
	if err != nil {
		return command.LineFraming
	}
	return f
}
