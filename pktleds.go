package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	portlist "go.bug.st/serial"

	"lautenbacher.net/pktleds/animation"
	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/config"
	"lautenbacher.net/pktleds/logging"
	"lautenbacher.net/pktleds/pixel"
	"lautenbacher.net/pktleds/platform"
	"lautenbacher.net/pktleds/preview"
	"lautenbacher.net/pktleds/strip"
)

const (
	reloadDebounce  = 500 * time.Millisecond
	shutdownTimeout = 3 * time.Second
)

// App is the LED receiver: commands come in through the platform,
// animations go out to the strip and the optional preview.
type App struct {
	ossignal   chan os.Signal
	confMu     sync.Mutex
	conf       *config.Config
	platform   platform.Platform
	preview    *preview.Server
	engine     *animation.Engine
	history    *command.History
	dispatcher *command.Dispatcher
	watcher    *config.Watcher
	stopsignal chan struct{}
	shutdownWg sync.WaitGroup
}

func NewApp(ossignal chan os.Signal) *App {
	return &App{
		ossignal:   ossignal,
		stopsignal: make(chan struct{}),
	}
}

func main() {
	cfile := flag.String("config", config.CONFILE, "Path to the configuration file")
	realp := flag.Bool("real", false, "Set to true if program runs on the real hardware")
	listPorts := flag.Bool("list-ports", false, "List the serial ports and exit")
	flag.Parse()

	if *listPorts {
		ports, err := portlist.GetPortsList()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Can't list serial ports: %s\n", err)
			os.Exit(2)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	conf, err := config.ReadConfig(*cfile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	conf.RealHW = *realp

	if err := logging.Init(!conf.RealHW, conf.LogConfig()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	app := NewApp(ossignal)
	if err := app.initialise(conf); err != nil {
		slog.Error("Failed to start", "error", err)
		app.shutdown()
		logging.Close()
		os.Exit(2)
	}
	app.start()
	app.loop()
	app.shutdown()
	logging.Close()
}

// initialise builds the render pipeline for conf and starts the
// platform. A platform set beforehand is used as is.
func (a *App) initialise(conf *config.Config) error {
	a.conf = conf
	if a.platform == nil {
		if conf.RealHW {
			a.platform = platform.NewHardwarePlatform(conf)
		} else {
			a.platform = platform.NewTUIPlatform(conf, a.ossignal)
		}
	}
	if err := a.platform.Start(); err != nil {
		a.platform = nil
		return err
	}

	a.history = command.NewHistory(conf.Preview.HistorySize)
	tx := a.platform.Transmitter()
	if conf.Preview.Enabled {
		a.preview = preview.NewServer(preview.Options{
			Listen:     conf.Preview.Listen,
			History:    a.history,
			ConfigFile: conf.Configfile,
		})
		if err := a.preview.Start(); err != nil {
			a.preview = nil
			return err
		}
		tx = strip.Tee{tx, a.preview}
	}

	a.engine = animation.NewEngine(pixel.NewBuffer(conf.Strip.LedsTotal), tx, animation.Options{
		Brightness:     conf.Brightness(),
		AllowOverdrive: conf.Strip.AllowOverdrive,
	})
	units := command.NewUnitReader(a.platform.Input(), a.platform.Framing())
	a.dispatcher = command.NewDispatcher(units, a.engine, conf.Settings(), a.history)

	if conf.Configfile != "" {
		w, err := config.NewWatcher(conf, reloadDebounce)
		if err != nil {
			slog.Warn("Configuration changes need a restart", "error", err)
		} else {
			a.watcher = w
		}
	}
	return nil
}

// start plays the boot demo once the platform is ready and then runs
// the receive loop until the input is closed.
func (a *App) start() {
	a.shutdownWg.Add(1)
	go func() {
		defer a.shutdownWg.Done()
		select {
		case <-a.platform.Ready():
		case <-a.stopsignal:
			return
		}

		a.playBootDemo()
		if err := a.dispatcher.Run(); err != nil {
			slog.Error("Receiver stopped", "error", err)
			select {
			case a.ossignal <- os.Interrupt:
			default:
			}
		}
	}()
}

func (a *App) currentConfig() *config.Config {
	a.confMu.Lock()
	defer a.confMu.Unlock()
	return a.conf
}

func (a *App) playBootDemo() {
	conf := a.currentConfig()
	demo, err := conf.Library().BootDemo(conf.Animation.BootDemo)
	if err != nil {
		slog.Error("Skipping boot demo", "error", err)
		return
	}
	slog.Info("Playing boot demo", "demo", conf.Animation.BootDemo)
	if err := a.engine.Play(demo); err != nil {
		slog.Warn("Boot demo incomplete", "error", err)
	}
}

// loop handles signals and configuration updates until asked to stop.
func (a *App) loop() {
	var updates <-chan struct{}
	if a.watcher != nil {
		updates = a.watcher.C()
	}
	for {
		select {
		case sig := <-a.ossignal:
			if sig == syscall.SIGHUP {
				if a.watcher != nil {
					slog.Info("Reloading configuration")
					a.watcher.Reload()
				}
				continue
			}
			slog.Info("Shutting down", "signal", sig.String())
			return
		case <-updates:
			if conf, ok := a.watcher.Take(); ok {
				a.apply(conf)
			}
		}
	}
}

// apply activates a reloaded configuration. The strip length and the
// platform stay as they are.
func (a *App) apply(conf *config.Config) {
	a.confMu.Lock()
	a.conf = conf
	a.confMu.Unlock()
	a.dispatcher.Apply(conf.Settings())
	logging.SetLevel(conf.LogConfig().Level)
}

func (a *App) shutdown() {
	close(a.stopsignal)
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.platform != nil {
		// end the receive loop before the platform releases the strip
		if c, ok := a.platform.Input().(io.Closer); ok {
			c.Close()
		}
		if !waitTimeout(&a.shutdownWg, shutdownTimeout) {
			slog.Warn("Receiver did not stop in time")
		}
		a.platform.Stop()
	}
	if a.preview != nil {
		if err := a.preview.Close(); err != nil {
			slog.Error("Error closing preview", "error", err)
		}
	}
	if a.dispatcher != nil {
		handled, rejected := a.dispatcher.Stats()
		slog.Info("Stopped", "handled", handled, "rejected", rejected)
	}
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
