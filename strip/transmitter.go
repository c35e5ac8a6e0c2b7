package strip

import (
	"errors"

	"lautenbacher.net/pktleds/pixel"
)

// Transmitter sends a complete frame down the LED chain. Transmit is
// fire-and-forget: the chain has no acknowledgement, correctness is
// purely a matter of timing.
type Transmitter interface {
	Transmit(frame pixel.Frame) error
	Close() error
}

// Tee fans every frame out to several transmitters, e.g. the strip and
// the live preview.
type Tee []Transmitter

func (s Tee) Transmit(frame pixel.Frame) error {
	var errs []error
	for _, t := range s {
		if err := t.Transmit(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s Tee) Close() error {
	var errs []error
	for _, t := range s {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
