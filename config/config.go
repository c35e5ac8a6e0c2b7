package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"lautenbacher.net/pktleds/animation"
	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/pixel"
	"lautenbacher.net/pktleds/strip"
)

const CONFILE = "config.yml"

// Strip drivers.
const (
	DriverSPI  = "spi"
	DriverRpio = "rpio"
	DriverNRZ  = "nrz"
	DriverNone = "none"
)

type Config struct {
	RealHW     bool            `yaml:"-"`
	Configfile string          `yaml:"-"`
	Strip      StripConfig     `yaml:"Strip"`
	Animation  AnimationConfig `yaml:"Animation"`
	Palette    []ColorConfig   `yaml:"Palette"`
	NightDim   NightDimConfig  `yaml:"NightDim"`
	Serial     SerialConfig    `yaml:"Serial"`
	Preview    PreviewConfig   `yaml:"Preview"`
	Sender     SenderConfig    `yaml:"Sender"`
	Logging    LoggingConfig   `yaml:"Logging"`
}

type StripConfig struct {
	LedsTotal      int          `yaml:"LedsTotal"`
	Branch         int          `yaml:"Branch"`
	Sections       []int        `yaml:"Sections"`
	Brightness     float64      `yaml:"Brightness"`
	AllowOverdrive bool         `yaml:"AllowOverdrive"`
	Driver         string       `yaml:"Driver"`
	SPIDevice      string       `yaml:"SPIDevice"`
	SPIFrequency   int64        `yaml:"SPIFrequency"`
	Timing         strip.Timing `yaml:"Timing"`
}

type AnimationConfig struct {
	DirectionalStyle string        `yaml:"DirectionalStyle" json:"DirectionalStyle"`
	FillFrameDelay   time.Duration `yaml:"FillFrameDelay" json:"FillFrameDelay"`
	ChaseDelay       time.Duration `yaml:"ChaseDelay" json:"ChaseDelay"`
	SectionHold      time.Duration `yaml:"SectionHold" json:"SectionHold"`
	RainbowWait      time.Duration `yaml:"RainbowWait" json:"RainbowWait"`
	WipeWait         time.Duration `yaml:"WipeWait" json:"WipeWait"`
	BootDemo         string        `yaml:"BootDemo" json:"BootDemo"`
}

type ColorConfig struct {
	Name  string    `yaml:"Name" json:"Name"`
	Class string    `yaml:"Class" json:"Class"`
	RGB   []float64 `yaml:"RGB" json:"RGB"`
}

type NightDimConfig struct {
	Enabled   bool    `yaml:"Enabled" json:"Enabled"`
	Latitude  float64 `yaml:"Latitude" json:"Latitude"`
	Longitude float64 `yaml:"Longitude" json:"Longitude"`
	Factor    float64 `yaml:"Factor" json:"Factor"`
}

type SerialConfig struct {
	Device      string        `yaml:"Device"`
	Baud        int           `yaml:"Baud"`
	Framing     string        `yaml:"Framing"`
	ReadTimeout time.Duration `yaml:"ReadTimeout"`
}

type PreviewConfig struct {
	Enabled     bool   `yaml:"Enabled"`
	Listen      string `yaml:"Listen"`
	HistorySize int    `yaml:"HistorySize"`
}

type SenderConfig struct {
	Device      string        `yaml:"Device"`
	Baud        int           `yaml:"Baud"`
	Interface   string        `yaml:"Interface"`
	Filter      string        `yaml:"Filter"`
	SnapLen     int32         `yaml:"SnapLen"`
	Promiscuous bool          `yaml:"Promiscuous"`
	Pace        time.Duration `yaml:"Pace"`
	QueueLimit  int           `yaml:"QueueLimit"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

// Default returns the configuration of the reference strip: 13 LEDs in
// four sections, branching after the fifth LED.
func Default() *Config {
	timings := animation.DefaultTimings()
	return &Config{
		Strip: StripConfig{
			LedsTotal:    13,
			Branch:       5,
			Sections:     []int{5, 4, 3, 1},
			Brightness:   0.2,
			Driver:       DriverSPI,
			SPIDevice:    "",
			SPIFrequency: 8_000_000,
			Timing:       strip.DefaultTiming(),
		},
		Animation: AnimationConfig{
			DirectionalStyle: animation.StyleChase,
			FillFrameDelay:   timings.FillFrameDelay,
			ChaseDelay:       timings.ChaseDelay,
			SectionHold:      timings.SectionHold,
			RainbowWait:      timings.RainbowWait,
			WipeWait:         timings.WipeWait,
			BootDemo:         animation.DemoPalette,
		},
		Palette:  PaletteConfig(pixel.DefaultPalette()),
		NightDim: NightDimConfig{Factor: 0.3},
		Serial: SerialConfig{
			Device:      "/dev/serial0",
			Baud:        9600,
			Framing:     string(command.LineFraming),
			ReadTimeout: 20 * time.Millisecond,
		},
		Preview: PreviewConfig{Listen: ":8080", HistorySize: 50},
		Sender: SenderConfig{
			Baud:        9600,
			SnapLen:     65536,
			Promiscuous: true,
			Pace:        150 * time.Millisecond,
			QueueLimit:  50,
		},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "INFO", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
	}
}

// ReadConfig decodes the YAML file on top of the defaults and validates
// the result.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't find config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.Configfile = cfile
	if len(conf.Palette) == 0 {
		conf.Palette = PaletteConfig(pixel.DefaultPalette())
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

func validateRGB(name string, rgb []float64) error {
	if len(rgb) != 3 {
		return fmt.Errorf("%s must have exactly 3 values, got %d", name, len(rgb))
	}
	for i, v := range rgb {
		if v < 0 || v > 255 {
			return fmt.Errorf("%s[%d] must be between 0 and 255, got %v", name, i, v)
		}
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("%s must be one of %v, got %q", name, allowed, value)
	}
	return nil
}

// Validate checks the whole configuration and reports all problems at
// once.
func (c *Config) Validate() error {
	var errs []error
	s := c.Strip
	if s.LedsTotal <= 0 {
		errs = append(errs, fmt.Errorf("Strip.LedsTotal must be positive, got %d", s.LedsTotal))
	}
	if s.Branch <= 0 || s.Branch > s.LedsTotal {
		errs = append(errs, fmt.Errorf("Strip.Branch must be between 1 and %d, got %d", s.LedsTotal, s.Branch))
	}
	sum := 0
	for i, l := range s.Sections {
		if l <= 0 {
			errs = append(errs, fmt.Errorf("Strip.Sections[%d] must be positive, got %d", i, l))
		}
		sum += l
	}
	if sum > s.LedsTotal {
		errs = append(errs, fmt.Errorf("Strip.Sections sum up to %d, more than the %d leds of the strip", sum, s.LedsTotal))
	}
	if s.Brightness < 0 || (s.Brightness > 1 && !s.AllowOverdrive) {
		errs = append(errs, fmt.Errorf("Strip.Brightness must be between 0 and 1 unless AllowOverdrive is set, got %v", s.Brightness))
	}
	if err := oneOf("Strip.Driver", s.Driver, DriverSPI, DriverRpio, DriverNRZ, DriverNone); err != nil {
		errs = append(errs, err)
	}
	if err := s.Timing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("Strip.Timing: %w", err))
	}
	if s.Driver == DriverSPI || s.Driver == DriverRpio {
		if _, err := strip.NewEncoder(s.Timing, s.SPIFrequency); err != nil {
			errs = append(errs, fmt.Errorf("Strip.SPIFrequency: %w", err))
		}
	}

	a := c.Animation
	if err := oneOf("Animation.DirectionalStyle", a.DirectionalStyle, animation.StyleChase, animation.StyleSections); err != nil {
		errs = append(errs, err)
	}
	if err := oneOf("Animation.BootDemo", a.BootDemo, animation.DemoPalette, animation.DemoSweep,
		animation.DemoRainbow, animation.DemoWipe, animation.DemoNone); err != nil {
		errs = append(errs, err)
	}
	for name, d := range map[string]time.Duration{
		"FillFrameDelay": a.FillFrameDelay, "ChaseDelay": a.ChaseDelay, "SectionHold": a.SectionHold,
		"RainbowWait": a.RainbowWait, "WipeWait": a.WipeWait,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("Animation.%s must not be negative, got %v", name, d))
		}
	}
	if a.DirectionalStyle == animation.StyleSections && len(s.Sections) == 0 {
		errs = append(errs, errors.New("Animation.DirectionalStyle sections needs Strip.Sections"))
	}

	if len(c.Palette) != pixel.PaletteSize {
		errs = append(errs, fmt.Errorf("Palette must have exactly %d entries, got %d", pixel.PaletteSize, len(c.Palette)))
	}
	for i, col := range c.Palette {
		if err := validateRGB(fmt.Sprintf("Palette[%d].RGB", i), col.RGB); err != nil {
			errs = append(errs, err)
		}
	}

	if c.NightDim.Enabled {
		if c.NightDim.Latitude < -90 || c.NightDim.Latitude > 90 {
			errs = append(errs, fmt.Errorf("NightDim.Latitude must be between -90 and 90, got %v", c.NightDim.Latitude))
		}
		if c.NightDim.Longitude < -180 || c.NightDim.Longitude > 180 {
			errs = append(errs, fmt.Errorf("NightDim.Longitude must be between -180 and 180, got %v", c.NightDim.Longitude))
		}
		if c.NightDim.Factor < 0 || c.NightDim.Factor > 1 {
			errs = append(errs, fmt.Errorf("NightDim.Factor must be between 0 and 1, got %v", c.NightDim.Factor))
		}
	}

	if c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("Serial.Baud must be positive, got %d", c.Serial.Baud))
	}
	if _, err := command.ParseFraming(c.Serial.Framing); err != nil {
		errs = append(errs, fmt.Errorf("Serial.Framing: %w", err))
	}
	if c.Preview.Enabled && c.Preview.Listen == "" {
		errs = append(errs, errors.New("Preview.Listen must be set when the preview is enabled"))
	}
	if c.Sender.QueueLimit <= 0 {
		errs = append(errs, fmt.Errorf("Sender.QueueLimit must be positive, got %d", c.Sender.QueueLimit))
	}
	if c.Sender.Pace < 0 {
		errs = append(errs, fmt.Errorf("Sender.Pace must not be negative, got %v", c.Sender.Pace))
	}
	for name, l := range map[string]LogConfig{"TUI": c.Logging.TUI, "HW": c.Logging.HW} {
		if err := oneOf("Logging."+name+".Level", l.Level, "DEBUG", "INFO", "WARN", "ERROR"); err != nil {
			errs = append(errs, err)
		}
		if err := oneOf("Logging."+name+".Format", l.Format, "text", "json"); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PaletteConfig converts a palette into its configuration form.
func PaletteConfig(p pixel.Palette) []ColorConfig {
	ret := make([]ColorConfig, 0, len(p))
	for _, c := range p {
		ret = append(ret, ColorConfig{
			Name:  c.Name,
			Class: c.Class,
			RGB:   []float64{float64(c.Pixel.Red), float64(c.Pixel.Green), float64(c.Pixel.Blue)},
		})
	}
	return ret
}

// PaletteValue returns the palette of a validated configuration.
func (c *Config) PaletteValue() pixel.Palette {
	var p pixel.Palette
	for i, col := range c.Palette {
		if i >= pixel.PaletteSize {
			break
		}
		p[i] = pixel.Color{
			Name:  col.Name,
			Class: col.Class,
			Pixel: pixel.RGB(byte(col.RGB[0]), byte(col.RGB[1]), byte(col.RGB[2])),
		}
	}
	return p
}

func (c *Config) Layout() animation.Layout {
	return animation.Layout{Length: c.Strip.LedsTotal, Branch: c.Strip.Branch, Sections: c.Strip.Sections}
}

func (c *Config) Timings() animation.Timings {
	return animation.Timings{
		FillFrameDelay: c.Animation.FillFrameDelay,
		ChaseDelay:     c.Animation.ChaseDelay,
		SectionHold:    c.Animation.SectionHold,
		RainbowWait:    c.Animation.RainbowWait,
		WipeWait:       c.Animation.WipeWait,
	}
}

func (c *Config) Library() *animation.Library {
	return &animation.Library{
		Layout:  c.Layout(),
		Timings: c.Timings(),
		Palette: c.PaletteValue(),
		Style:   c.Animation.DirectionalStyle,
	}
}

func (c *Config) Brightness() animation.Brightness {
	if c.NightDim.Enabled {
		return &animation.NightDim{
			Base:      c.Strip.Brightness,
			Night:     c.NightDim.Factor,
			Latitude:  c.NightDim.Latitude,
			Longitude: c.NightDim.Longitude,
		}
	}
	return animation.Fixed(c.Strip.Brightness)
}

// Settings returns what the dispatcher needs to render commands.
func (c *Config) Settings() command.Settings {
	return command.Settings{
		Library:        c.Library(),
		Brightness:     c.Brightness(),
		AllowOverdrive: c.Strip.AllowOverdrive,
	}
}

// LogConfig returns the logging section for the selected platform.
func (c *Config) LogConfig() LogConfig {
	if c.RealHW {
		return c.Logging.HW
	}
	return c.Logging.TUI
}

// Local Variables:
// compile-command: "cd .. && go build"
// End:
