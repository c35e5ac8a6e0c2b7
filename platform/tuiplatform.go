package platform

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lautenbacher.net/pktleds/animation"
	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/config"
	"lautenbacher.net/pktleds/logging"
	"lautenbacher.net/pktleds/pixel"
	"lautenbacher.net/pktleds/strip"
)

// keyMode selects which command a digit key produces.
type keyMode int

const (
	modeFill keyMode = iota
	modeOutbound
	modeInbound
)

func (m keyMode) String() string {
	switch m {
	case modeOutbound:
		return "outbound"
	case modeInbound:
		return "inbound"
	default:
		return "fill"
	}
}

// unit builds the line framed command for a digit key.
func (m keyMode) unit(digit rune) []byte {
	switch m {
	case modeOutbound:
		return []byte{'0' + byte(animation.Outbound), byte(digit), '\n'}
	case modeInbound:
		return []byte{'0' + byte(animation.Inbound), byte(digit), '\n'}
	default:
		return []byte{byte(digit), '\n'}
	}
}

// TUIPlatform simulates the strip in the terminal. Digit keys take the
// place of the serial link.
type TUIPlatform struct {
	config       *config.Config
	tviewapp     *tview.Application
	intro        *tview.TextView
	ledDisplay   *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	keys         *KeyInput
	mode         keyMode
	markers      string
	legend       string
	mu           sync.Mutex
	last         pixel.Frame
	stopped      atomic.Bool
	logFlushOnce sync.Once
	readyChan    chan bool
}

func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal) *TUIPlatform {
	return &TUIPlatform{
		config:       conf,
		ossignalChan: ossignalchan,
		keys:         NewKeyInput(),
		readyChan:    make(chan bool),
	}
}

func (s *TUIPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *TUIPlatform) Start() error {
	layout := s.config.Layout()
	s.markers = sectionMarkers(spans(layout.Length, layout.Sections), layout.Branch)
	s.legend = paletteLegend(s.config.PaletteValue())
	s.initSimulationTUI()
	return nil
}

func (s *TUIPlatform) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.keys.Close()
	logging.BufferOutput()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

func (s *TUIPlatform) Transmitter() strip.Transmitter {
	return s
}

func (s *TUIPlatform) Input() io.Reader {
	return s.keys
}

// Framing is always line framing, that is what the keys produce.
func (s *TUIPlatform) Framing() command.Framing {
	return command.LineFraming
}

// Transmit queues a redraw of the LED pane. After Stop it does nothing,
// the application loop is gone and QueueUpdateDraw would block.
func (s *TUIPlatform) Transmit(frame pixel.Frame) error {
	if s.stopped.Load() {
		return nil
	}
	s.mu.Lock()
	s.last = append(s.last[:0], frame...)
	s.mu.Unlock()
	s.tviewapp.QueueUpdateDraw(s.simulateLedDisplay)
	return nil
}

func (s *TUIPlatform) Close() error {
	return nil
}

// getIntroText generates the dynamic text for the top info pane.
func (s *TUIPlatform) getIntroText() string {
	line1 := fmt.Sprintf("Mode: [#ffff00]%-8s[white] | Hit [#ff0000]Tab[white] to switch fill/outbound/inbound", s.mode)
	line2 := fmt.Sprintf("Hit [blue]0[-]...[blue]%d[-] to send a color", pixel.PaletteSize-1)
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"

	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText())
	s.intro.SetBorder(true).SetTitle(" PKTLEDS Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- LED Display Pane ---
	s.ledDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.ledDisplay.SetBorder(true)
	s.ledDisplay.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))
	s.simulateLedDisplay()

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	stripeHeight := 2 + 3 + 2 // strip, two marker lines, legend, border

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(s.ledDisplay, stripeHeight, 0, false).
		AddItem(s.logView, 0, 1, true)

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logWriter := tview.ANSIWriter(s.logView)
			if err := logging.SetOutput(logWriter); err != nil {
				slog.Warn("Failed to flush logs", "error", err)
			}
			close(s.readyChan)
		})
	})

	s.tviewapp.SetInputCapture(s.handleKey)

	// --- Start TUI ---
	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
}

func (s *TUIPlatform) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		s.tviewapp.Stop()
		s.ossignalChan <- os.Interrupt
		return nil
	case tcell.KeyTab:
		s.mode = (s.mode + 1) % 3
		s.intro.SetText(s.getIntroText())
		return nil
	case tcell.KeyRune:
		r := event.Rune()
		switch {
		case r >= '0' && r <= '9':
			unit := s.mode.unit(r)
			slog.Debug("Sending command", "mode", s.mode, "unit", strings.TrimSpace(string(unit)))
			s.keys.Send(unit)
			return nil
		case r == 'q' || r == 'Q':
			s.ossignalChan <- os.Interrupt
			return nil
		case r == 'r' || r == 'R':
			s.ossignalChan <- syscall.SIGHUP
			return nil
		}
	case tcell.KeyUp:
		row, col := s.logView.GetScrollOffset()
		s.logView.ScrollTo(row-1, col)
		return nil
	case tcell.KeyDown:
		row, col := s.logView.GetScrollOffset()
		s.logView.ScrollTo(row+1, col)
		return nil
	}
	return event
}

// simulateLedDisplay redraws the entire LED display pane.
// This function must be called on the main TUI thread via app.QueueUpdateDraw().
func (s *TUIPlatform) simulateLedDisplay() {
	s.mu.Lock()
	frame := make(pixel.Frame, s.config.Strip.LedsTotal)
	copy(frame, s.last)
	s.mu.Unlock()

	var buf strings.Builder
	top, bottom := renderStrip(frame.Pixels())
	buf.WriteString(" " + top + "\n")
	buf.WriteString(" " + bottom + "\n")
	buf.WriteString(s.markers)
	buf.WriteString("\n " + s.legend)
	s.ledDisplay.SetText(buf.String())
}

var levels = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// renderStrip draws each LED as a two character high bar. The height
// follows the mean channel value, the colour is the hue at full
// intensity.
func renderStrip(leds []pixel.Pixel) (string, string) {
	var buf1, buf2 strings.Builder
	buf1.Grow(len(leds) * (len("[-][#000000]") + 1))
	buf2.Grow(len(leds) * (len("[-][#000000]") + 1))

	for _, v := range leds {
		if v.IsEmpty() {
			buf1.WriteString(" ")
			buf2.WriteString(" ")
			continue
		}
		value := math.Round((float64(v.Red) + float64(v.Green) + float64(v.Blue)) / 3.0)
		// 16 steps over 0..128, anything brighter is a full bar
		step := min(int(math.Ceil(value/8)), 2*(len(levels)-1))
		bottomChar := levels[min(step, len(levels)-1)]
		topChar := levels[max(step-(len(levels)-1), 0)]

		colorStr := scaledColor(v)
		buf1.WriteString(colorStr + topChar + "[-]")
		buf2.WriteString(colorStr + bottomChar + "[-]")
	}
	return buf1.String(), buf2.String()
}

func scaledColor(led pixel.Pixel) string {
	red, green, blue := float64(led.Red), float64(led.Green), float64(led.Blue)
	maxColor := math.Max(red, math.Max(green, blue))
	if maxColor == 0 {
		return "[#000000]"
	}
	factor := 255 / maxColor
	red = math.Min(red*factor, 255)
	green = math.Min(green*factor, 255)
	blue = math.Min(blue*factor, 255)

	const epsilon = 1e-9

	return fmt.Sprintf("[#%02x%02x%02x]", byte(math.Round(red+epsilon)), byte(math.Round(green+epsilon)), byte(math.Round(blue+epsilon)))
}

// paletteLegend lists the colour classes with their key.
func paletteLegend(p pixel.Palette) string {
	parts := make([]string, 0, len(p))
	for i, c := range p {
		parts = append(parts, fmt.Sprintf("%s%d[-] %s", scaledColor(c.Pixel), i, c.Class))
	}
	return strings.Join(parts, "  ")
}
