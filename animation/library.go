package animation

import (
	"fmt"
	"time"

	"lautenbacher.net/pktleds/pixel"
)

type Timings struct {
	FillFrameDelay time.Duration
	ChaseDelay     time.Duration
	SectionHold    time.Duration
	RainbowWait    time.Duration
	WipeWait       time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		FillFrameDelay: 10 * time.Millisecond,
		ChaseDelay:     30 * time.Millisecond,
		SectionHold:    80 * time.Millisecond,
		RainbowWait:    time.Millisecond,
		WipeWait:       10 * time.Millisecond,
	}
}

// WipeSettle is how long a finished wipe stays lit.
const WipeSettle = 200 * time.Millisecond

// Directional styles.
const (
	StyleChase    = "chase"
	StyleSections = "sections"
)

// Boot demos.
const (
	DemoPalette = "palette"
	DemoSweep   = "sweep"
	DemoRainbow = "rainbow"
	DemoWipe    = "wipe"
	DemoNone    = "none"
)

// Library turns dispatched commands into patterns for one strip
// configuration.
type Library struct {
	Layout  Layout
	Timings Timings
	Palette pixel.Palette
	Style   string
}

func (s *Library) color(index int) (pixel.Pixel, error) {
	c, err := s.Palette.At(index)
	if err != nil {
		return pixel.Black, err
	}
	return c.Pixel, nil
}

// Fill returns the fill-bounce for the palette entry at index.
func (s *Library) Fill(index int) (Pattern, error) {
	color, err := s.color(index)
	if err != nil {
		return nil, err
	}
	return NewFillBounce(s.Layout, color, s.Timings.FillFrameDelay), nil
}

// Directional returns the chase (or sectioned chase) for dir in the
// palette entry at index.
func (s *Library) Directional(dir Direction, index int) (Pattern, error) {
	color, err := s.color(index)
	if err != nil {
		return nil, err
	}
	switch s.Style {
	case StyleSections:
		return NewSections(s.Layout, dir, color, s.Timings.SectionHold), nil
	case StyleChase, "":
		return NewChase(s.Layout, dir, color, s.Timings.ChaseDelay), nil
	default:
		return nil, fmt.Errorf("unknown directional style %q", s.Style)
	}
}

// BootDemo returns the startup demonstration of the given kind.
func (s *Library) BootDemo(kind string) (Pattern, error) {
	white := pixel.RGB(255, 255, 255)
	switch kind {
	case DemoPalette:
		var list []Pattern
		for _, c := range s.Palette {
			list = append(list, NewFillBounce(s.Layout, c.Pixel, s.Timings.FillFrameDelay))
		}
		return Sequence(list...), nil
	case DemoSweep:
		return s.Directional(Outbound, 0)
	case DemoRainbow:
		return Sequence(NewRainbow(s.Layout, s.Timings.RainbowWait), NewBlank()), nil
	case DemoWipe:
		return Sequence(NewWipe(s.Layout, white, s.Timings.WipeWait, WipeSettle), NewBlank()), nil
	case DemoNone, "":
		return Sequence(), nil
	default:
		return nil, fmt.Errorf("unknown boot demo %q", kind)
	}
}
