package platform

import (
	"fmt"
	"io"
	"log/slog"

	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/config"
	"lautenbacher.net/pktleds/strip"
)

// Platform abstracts the real hardware (strip and serial link) from the
// TUI simulation.
type Platform interface {
	// Start opens the devices, or starts the TUI.
	Start() error

	// Stop releases all platform resources. Blocking reads on Input
	// return afterwards.
	Stop()

	// Transmitter renders frames on the strip.
	Transmitter() strip.Transmitter

	// Input delivers the command stream.
	Input() io.Reader

	// Framing is how units are delimited on Input.
	Framing() command.Framing

	// Ready is closed once the platform can display frames.
	Ready() <-chan bool
}

// OpenDriver opens the strip driver selected in the configuration.
func OpenDriver(conf *config.Config) (strip.Transmitter, error) {
	s := conf.Strip
	slog.Info("Opening strip driver", "driver", s.Driver, "leds", s.LedsTotal)
	switch s.Driver {
	case config.DriverSPI:
		return strip.NewSPI(s.SPIDevice, s.SPIFrequency, s.Timing)
	case config.DriverRpio:
		return strip.NewRpio(s.SPIFrequency, s.Timing)
	case config.DriverNRZ:
		return strip.NewNRZ(s.SPIDevice, s.LedsTotal)
	case config.DriverNone:
		return strip.NewRecorder(1), nil
	default:
		return nil, fmt.Errorf("unknown strip driver: %s", s.Driver)
	}
}
