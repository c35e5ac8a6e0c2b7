package animation

import (
	"log/slog"
	"time"

	"lautenbacher.net/pktleds/pixel"
	"lautenbacher.net/pktleds/strip"
)

// Brightness supplies the global dimming factor for one animation.
type Brightness interface {
	Factor() float64
}

// Fixed is a constant brightness factor.
type Fixed float64

func (s Fixed) Factor() float64 {
	return float64(s)
}

// Sleeper blocks for d. Tests replace it to run animations without
// waiting.
type Sleeper func(d time.Duration)

type Options struct {
	Brightness     Brightness
	AllowOverdrive bool
	Sleep          Sleeper
}

// Engine plays patterns on the single framebuffer of the strip. Play
// never returns before the pattern is exhausted, there is no way to
// interrupt an animation that is underway.
type Engine struct {
	buffer *pixel.Buffer
	tx     strip.Transmitter
	opts   Options
}

func NewEngine(buf *pixel.Buffer, tx strip.Transmitter, opts Options) *Engine {
	if opts.Brightness == nil {
		opts.Brightness = Fixed(1)
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Engine{buffer: buf, tx: tx, opts: opts}
}

func (s *Engine) Buffer() *pixel.Buffer {
	return s.buffer
}

// SetBrightness replaces the brightness provider used for the next Play.
func (s *Engine) SetBrightness(b Brightness, allowOverdrive bool) {
	s.opts.Brightness = b
	s.opts.AllowOverdrive = allowOverdrive
}

// Play renders every step of p: apply the mutation, scale the buffer,
// transmit and sleep for the step's hold time. A failing transmission
// is logged and the animation continues; the first such error is
// returned after the last step.
func (s *Engine) Play(p Pattern) error {
	factor := s.opts.Brightness.Factor()
	start := time.Now()
	frames := 0
	var firstErr error

	slog.Debug("Starting pattern", "pattern", p.Name(), "brightness", factor)
	for {
		hold, ok := p.Next(s.buffer)
		if !ok {
			break
		}
		frames++
		if err := s.tx.Transmit(s.frame(factor)); err != nil {
			slog.Error("Failed to transmit frame", "pattern", p.Name(), "frame", frames, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		if hold > 0 {
			s.opts.Sleep(hold)
		}
	}
	slog.Debug("Finished pattern", "pattern", p.Name(), "frames", frames, "elapsed", time.Since(start))
	return firstErr
}

func (s *Engine) frame(factor float64) pixel.Frame {
	if s.opts.AllowOverdrive {
		return pixel.ScaleOverdrive(s.buffer, factor)
	}
	return pixel.Scale(s.buffer, factor)
}
