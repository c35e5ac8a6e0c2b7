package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"lautenbacher.net/pktleds/animation"
	"lautenbacher.net/pktleds/util"
)

// Settings is the part of the configuration that can change while the
// receiver runs.
type Settings struct {
	Library        *animation.Library
	Brightness     animation.Brightness
	AllowOverdrive bool
}

// Dispatcher runs the receive loop: wait for a unit, parse and validate
// it, play the matching pattern to completion, repeat. Input that
// arrives while a pattern plays is dropped.
type Dispatcher struct {
	units    *UnitReader
	engine   *animation.Engine
	library  *animation.Library
	history  *History
	settings *util.Latest[Settings]
	handled  int
	rejected int
}

func NewDispatcher(units *UnitReader, engine *animation.Engine, settings Settings, history *History) *Dispatcher {
	inst := &Dispatcher{
		units:    units,
		engine:   engine,
		history:  history,
		settings: util.NewLatest[Settings](),
	}
	inst.use(settings)
	return inst
}

// Apply schedules new settings. They take effect before the next
// command is dispatched, never in the middle of an animation.
func (s *Dispatcher) Apply(settings Settings) {
	s.settings.Send(settings)
}

func (s *Dispatcher) use(settings Settings) {
	s.library = settings.Library
	if settings.Brightness != nil {
		s.engine.SetBrightness(settings.Brightness, settings.AllowOverdrive)
	}
}

// Run loops until the input is exhausted. A closed or disconnected
// transport ends the loop without an error.
func (s *Dispatcher) Run() error {
	slog.Info("Waiting for commands", "framing", s.units.Framing())
	s.units.Discard()
	for {
		unit, err := s.units.Next()
		switch {
		case errors.Is(err, io.ErrNoProgress):
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, io.ErrUnexpectedEOF):
			slog.Info("Input closed", "handled", s.handled, "rejected", s.rejected)
			return nil
		case err != nil:
			return fmt.Errorf("failed to read command: %w", err)
		}

		if err := s.Handle(unit); err != nil {
			continue
		}
		if dropped := s.units.Discard(); dropped > 0 {
			slog.Debug("Dropped input received during animation", "bytes", dropped)
		}
	}
}

// Handle parses one unit and plays its pattern. Malformed units are
// logged and returned as error without touching the strip.
func (s *Dispatcher) Handle(unit []byte) error {
	cmd, err := Parse(unit)
	if err != nil {
		s.rejected++
		slog.Debug("Ignoring input", "unit", fmt.Sprintf("%q", unit), "error", err)
		return err
	}
	return s.Dispatch(cmd)
}

// Dispatch plays the pattern for cmd synchronously.
func (s *Dispatcher) Dispatch(cmd Command) error {
	if settings, ok := s.settings.Take(); ok {
		slog.Info("Applying new settings")
		s.use(settings)
	}

	var pattern animation.Pattern
	var err error
	if cmd.Kind == Fill {
		pattern, err = s.library.Fill(cmd.ColorIndex)
	} else {
		pattern, err = s.library.Directional(cmd.Direction, cmd.ColorIndex)
	}
	if err != nil {
		s.rejected++
		slog.Debug("Ignoring command", "command", cmd, "error", err)
		return err
	}

	s.handled++
	slog.Debug("Dispatching command", "command", cmd, "pattern", pattern.Name())
	if s.history != nil {
		s.history.Add(Entry{Time: time.Now(), Command: cmd.String(), Pattern: pattern.Name()})
	}
	if err := s.engine.Play(pattern); err != nil {
		slog.Warn("Pattern finished with transmit errors", "pattern", pattern.Name(), "error", err)
	}
	return nil
}

// Stats returns the number of dispatched and rejected units.
func (s *Dispatcher) Stats() (handled, rejected int) {
	return s.handled, s.rejected
}
