package strip

import (
	"errors"
	"fmt"
	"time"
)

var ErrTiming = errors.New("pulse timing out of tolerance")

// Timing describes the single wire protocol of the LED chips. Every bit
// is one pulse of constant length Period: a 0 is HighZero high followed
// by the rest low, a 1 is HighOne high followed by the rest low. Reset
// is the idle (low) time that latches a frame.
type Timing struct {
	Period    time.Duration `yaml:"Period"`
	HighZero  time.Duration `yaml:"HighZero"`
	HighOne   time.Duration `yaml:"HighOne"`
	Reset     time.Duration `yaml:"Reset"`
	Tolerance float64       `yaml:"Tolerance"`
}

// DefaultTiming matches a WS2812 driven by state machine running at
// 8MHz with 2/5/3 cycle phases: 10 cycles per bit, 2 high for a 0, 7
// high for a 1.
func DefaultTiming() Timing {
	return Timing{
		Period:    1250 * time.Nanosecond,
		HighZero:  250 * time.Nanosecond,
		HighOne:   875 * time.Nanosecond,
		Reset:     280 * time.Microsecond,
		Tolerance: 0.05,
	}
}

// Pulse is the shape of one encoded bit.
type Pulse struct {
	High time.Duration
	Low  time.Duration
}

func (s Pulse) Total() time.Duration {
	return s.High + s.Low
}

func (s Timing) Pulse(bit bool) Pulse {
	high := s.HighZero
	if bit {
		high = s.HighOne
	}
	return Pulse{High: high, Low: s.Period - high}
}

func (s Timing) Validate() error {
	if s.Period <= 0 {
		return fmt.Errorf("period %v must be positive: %w", s.Period, ErrTiming)
	}
	if s.HighZero <= 0 || s.HighZero >= s.HighOne {
		return fmt.Errorf("0 high time %v must be positive and shorter than 1 high time %v: %w", s.HighZero, s.HighOne, ErrTiming)
	}
	if s.HighOne >= s.Period {
		return fmt.Errorf("1 high time %v must be shorter than period %v: %w", s.HighOne, s.Period, ErrTiming)
	}
	if s.Reset <= 0 {
		return fmt.Errorf("reset time %v must be positive: %w", s.Reset, ErrTiming)
	}
	if s.Tolerance <= 0 || s.Tolerance >= 0.1 {
		return fmt.Errorf("tolerance %v must be in (0, 0.1): %w", s.Tolerance, ErrTiming)
	}
	return nil
}
