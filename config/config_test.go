package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/pktleds/animation"
	"lautenbacher.net/pktleds/pixel"
)

const validStrip = `
Strip:
  LedsTotal: 12
  Branch: 5
  Sections: [5, 4, 3]
  Brightness: 0.2
  Driver: none
`

const validAnimation = `
Animation:
  DirectionalStyle: sections
  FillFrameDelay: 10ms
  ChaseDelay: 40ms
  SectionHold: 100ms
  BootDemo: wipe
`

const validLogging = `
Logging:
  TUI:
    Level: "DEBUG"
    Format: "text"
    File: "/tmp/pktleds-tui.log"
  HW:
    Level: "WARN"
    Format: "json"
    File: "/var/log/pktleds-hw.log"
`

const validPalette = `
Palette:
  - { Name: white, Class: others, RGB: [255, 255, 255] }
  - { Name: red, Class: anomaly, RGB: [255, 0, 0] }
  - { Name: green, Class: lldp, RGB: [0, 136, 0] }
  - { Name: lime, Class: dns, RGB: [50, 205, 50] }
  - { Name: pink, Class: icmp, RGB: [255, 192, 203] }
  - { Name: cyan, Class: dhcp, RGB: [0, 156, 209] }
  - { Name: purple, Class: arp, RGB: [128, 0, 128] }
  - { Name: orange, Class: igmp, RGB: [255, 165, 0] }
  - { Name: yellow, Class: udp, RGB: [255, 255, 0] }
  - { Name: blue, Class: tcp, RGB: [0, 0, 255] }
`

func getBaseConfig() string {
	return validStrip + validAnimation + validLogging
}

func createConfigFile(t *testing.T, configData string) string {
	tempDir, err := os.MkdirTemp("", "pktleds-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	configFile := filepath.Join(tempDir, "config.yml")
	err = os.WriteFile(configFile, []byte(configData), 0o644)
	if err != nil {
		t.Fatalf("Failed to write dummy config file: %v", err)
	}
	return configFile
}

func TestReadConfig(t *testing.T) {
	configFile := createConfigFile(t, getBaseConfig())

	conf, err := ReadConfig(configFile)
	require.NoError(t, err, "ReadConfig should not return an error")

	assert.Equal(t, configFile, conf.Configfile)
	assert.Equal(t, 12, conf.Strip.LedsTotal)
	assert.Equal(t, []int{5, 4, 3}, conf.Strip.Sections)
	assert.Equal(t, animation.StyleSections, conf.Animation.DirectionalStyle)
	assert.Equal(t, 40*time.Millisecond, conf.Animation.ChaseDelay, "Animation.ChaseDelay should be 40ms")
	assert.Equal(t, 100*time.Millisecond, conf.Animation.SectionHold)
	assert.Equal(t, time.Millisecond, conf.Animation.RainbowWait, "unset values keep their defaults")
	assert.Equal(t, 9600, conf.Serial.Baud)
	assert.Equal(t, "line", conf.Serial.Framing)

	assert.Equal(t, "DEBUG", conf.Logging.TUI.Level, "Logging.TUI.Level should be DEBUG")
	assert.Equal(t, "/tmp/pktleds-tui.log", conf.Logging.TUI.File)
	assert.Equal(t, "json", conf.Logging.HW.Format, "Logging.HW.Format should be json")

	assert.Equal(t, pixel.DefaultPalette(), conf.PaletteValue(), "a missing palette is the default palette")
	assert.Equal(t, conf.Logging.TUI, conf.LogConfig())
	conf.RealHW = true
	assert.Equal(t, conf.Logging.HW, conf.LogConfig())
}

func TestReadConfig_Palette(t *testing.T) {
	configFile := createConfigFile(t, getBaseConfig()+validPalette)
	conf, err := ReadConfig(configFile)
	require.NoError(t, err)

	p := conf.PaletteValue()
	assert.Equal(t, "red", p[1].Name)
	assert.Equal(t, pixel.RGB(0, 0, 255), p[9].Pixel)
	idx, ok := p.IndexOfClass("dns")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestReadConfig_Derived(t *testing.T) {
	conf, err := ReadConfig(createConfigFile(t, getBaseConfig()))
	require.NoError(t, err)

	lib := conf.Library()
	assert.Equal(t, animation.Layout{Length: 12, Branch: 5, Sections: []int{5, 4, 3}}, lib.Layout)
	assert.Equal(t, 10*time.Millisecond, lib.Timings.FillFrameDelay)
	assert.Equal(t, animation.Fixed(0.2), conf.Brightness())

	conf.NightDim.Enabled = true
	conf.NightDim.Factor = 0.5
	dim, ok := conf.Brightness().(*animation.NightDim)
	require.True(t, ok)
	assert.Equal(t, 0.5, dim.Night)

	settings := conf.Settings()
	assert.Equal(t, animation.StyleSections, settings.Library.Style)
	assert.False(t, settings.AllowOverdrive)
}

func TestReadConfig_Missing(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "can't find config file")
}

func TestReadConfig_Empty(t *testing.T) {
	conf, err := ReadConfig(createConfigFile(t, ""))
	require.NoError(t, err, "an empty file is the default configuration")
	assert.Equal(t, 13, conf.Strip.LedsTotal)
	assert.Equal(t, []int{5, 4, 3, 1}, conf.Strip.Sections)
	assert.Less(t, conf.Serial.ReadTimeout, conf.Sender.Pace, "a half pair times out before the next unit is sent")
}

func TestReadConfig_UnknownField(t *testing.T) {
	_, err := ReadConfig(createConfigFile(t, getBaseConfig()+"\nBogus: 1\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "can't decode config file")
}

func TestReadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr string
	}{
		{"branch beyond strip", "Branch: 5", "Branch: 13", "Strip.Branch must be between 1 and 12"},
		{"sections too long", "Sections: [5, 4, 3]", "Sections: [5, 4, 4]", "more than the 12 leds"},
		{"brightness", "Brightness: 0.2", "Brightness: 1.5", "Strip.Brightness must be between 0 and 1"},
		{"driver", "Driver: none", "Driver: pwm", "Strip.Driver must be one of"},
		{"style", "DirectionalStyle: sections", "DirectionalStyle: zigzag", "Animation.DirectionalStyle must be one of"},
		{"boot demo", "BootDemo: wipe", "BootDemo: fireworks", "Animation.BootDemo must be one of"},
		{"negative delay", "ChaseDelay: 40ms", "ChaseDelay: -40ms", "must not be negative"},
		{"log level", `Level: "WARN"`, `Level: "LOUD"`, "Logging.HW.Level must be one of"},
		{"leds", "LedsTotal: 12", "LedsTotal: 0", "Strip.LedsTotal must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configData := strings.Replace(getBaseConfig(), tt.from, tt.to, 1)
			_, err := ReadConfig(createConfigFile(t, configData))
			assert.Error(t, err)
			if err != nil {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestReadConfig_Overdrive(t *testing.T) {
	configData := strings.Replace(getBaseConfig(), "Brightness: 0.2", "Brightness: 1.5\n  AllowOverdrive: true", 1)
	conf, err := ReadConfig(createConfigFile(t, configData))
	require.NoError(t, err)
	assert.True(t, conf.Settings().AllowOverdrive)
}

func TestReadConfig_InvalidRGB(t *testing.T) {
	configData := strings.Replace(getBaseConfig()+validPalette, "[255, 0, 0]", "[256, 0, 0]", 1)
	_, err := ReadConfig(createConfigFile(t, configData))
	assert.Error(t, err, "ReadConfig should return an error for RGB > 255")
	assert.Contains(t, err.Error(), "must be between 0 and 255", "Error message should indicate invalid RGB range")

	configData = strings.Replace(getBaseConfig()+validPalette, "[255, 0, 0]", "[255, 0]", 1)
	_, err = ReadConfig(createConfigFile(t, configData))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must have exactly 3 values")
}

func TestReadConfig_ShortPalette(t *testing.T) {
	configData := getBaseConfig() + "\nPalette:\n  - { Name: white, Class: others, RGB: [255, 255, 255] }\n"
	_, err := ReadConfig(createConfigFile(t, configData))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Palette must have exactly 10 entries")
}

func TestReadConfig_SPIFrequency(t *testing.T) {
	configData := strings.Replace(getBaseConfig(), "Driver: none", "Driver: spi\n  SPIFrequency: 1000000", 1)
	_, err := ReadConfig(createConfigFile(t, configData))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Strip.SPIFrequency")
}
