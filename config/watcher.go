package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"lautenbacher.net/pktleds/util"
)

// Watcher reloads the configuration file whenever it changes on disk.
// Only valid configurations for a strip of the same length are
// published; everything else is logged and ignored.
type Watcher struct {
	path     string
	realHW   bool
	leds     int
	debounce time.Duration
	fs       *fsnotify.Watcher
	updates  *util.Latest[*Config]
	reload   chan struct{}
	done     chan struct{}
}

// NewWatcher watches the directory of the file of current. Editors
// replace files instead of writing them in place, so watching the file
// itself would lose track of it after the first save.
func NewWatcher(current *Config, debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	path := filepath.Clean(current.Configfile)
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	inst := &Watcher{
		path:     path,
		realHW:   current.RealHW,
		leds:     current.Strip.LedsTotal,
		debounce: debounce,
		fs:       fs,
		updates:  util.NewLatest[*Config](),
		reload:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go inst.run()
	return inst, nil
}

// C fires after a new configuration was loaded. Take returns it.
func (s *Watcher) C() <-chan struct{} {
	return s.updates.C()
}

func (s *Watcher) Take() (*Config, bool) {
	return s.updates.Take()
}

// Reload reads the file again without waiting for a change.
func (s *Watcher) Reload() {
	select {
	case s.reload <- struct{}{}:
	default:
	}
}

func (s *Watcher) Close() error {
	close(s.done)
	return s.fs.Close()
}

func (s *Watcher) run() {
	timer := time.NewTimer(s.debounce)
	timer.Stop()
	for {
		select {
		case <-s.done:
			timer.Stop()
			return
		case ev, ok := <-s.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			slog.Debug("Config file changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(s.debounce)
		case err, ok := <-s.fs.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		case <-s.reload:
			s.load()
		case <-timer.C:
			s.load()
		}
	}
}

func (s *Watcher) load() {
	conf, err := ReadConfig(s.path)
	if err != nil {
		slog.Error("Keeping current configuration", "error", err)
		return
	}
	conf.RealHW = s.realHW
	if conf.Strip.LedsTotal != s.leds {
		slog.Warn("Changing the number of leds needs a restart, ignoring new configuration",
			"current", s.leds, "configured", conf.Strip.LedsTotal)
		return
	}
	slog.Info("Configuration reloaded", "file", s.path)
	s.updates.Send(conf)
}
