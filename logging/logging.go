package logging

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"lautenbacher.net/pktleds/config"
)

// sink is the writer behind the default logger. While held it collects
// records in memory (the TUI owns the terminal until its first draw),
// afterwards it writes to the live target. A log file, if any, gets
// every record regardless.
type sink struct {
	mu      sync.Mutex
	held    bytes.Buffer
	holding bool
	target  io.Writer
	file    *os.File
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	switch {
	case s.holding:
		s.held.Write(p)
	case s.target != nil:
		if _, err := s.target.Write(p); err != nil {
			firstErr = err
		}
	}
	if s.file != nil {
		if _, err := s.file.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(p), firstErr
}

var (
	out   = &sink{}
	level = new(slog.LevelVar)
)

// ParseLevel maps the configured level name to a slog level. Unknown
// names log at INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the default logger. With hold set, output is kept in
// memory until SetOutput is called; otherwise it goes to stderr.
func Init(hold bool, cfg config.LogConfig) error {
	next := &sink{holding: hold}
	if !hold {
		next.target = os.Stderr
	}
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		next.file = file
	}
	out = next
	level.Set(ParseLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// SetLevel changes the level of the running logger, e.g. after a
// configuration reload.
func SetLevel(name string) {
	level.Set(ParseLevel(name))
}

// SetOutput writes everything held so far to target and switches to
// live output.
func SetOutput(target io.Writer) error {
	out.mu.Lock()
	defer out.mu.Unlock()

	if out.held.Len() > 0 {
		if _, err := target.Write(out.held.Bytes()); err != nil {
			return err
		}
		out.held.Reset()
	}
	out.target = target
	out.holding = false
	return nil
}

// BufferOutput detaches the live target and holds output again. The TUI
// calls it before it gives the terminal back.
func BufferOutput() {
	out.mu.Lock()
	defer out.mu.Unlock()

	out.target = nil
	out.holding = true
}

// Close flushes held output into the log file, or to stderr when there
// is neither a file nor a live target.
func Close() error {
	out.mu.Lock()
	defer out.mu.Unlock()

	var firstErr error
	if out.file != nil {
		if out.held.Len() > 0 {
			if _, err := out.file.Write(out.held.Bytes()); err != nil {
				firstErr = err
			}
		}
		if err := out.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		out.file = nil
	} else if out.target == nil && out.held.Len() > 0 {
		if _, err := os.Stderr.Write(out.held.Bytes()); err != nil {
			firstErr = err
		}
	}
	out.held.Reset()
	return firstErr
}
