package pixel

import "fmt"

// PaletteSize is the number of colour classes addressable over the wire.
const PaletteSize = 10

// Color is one palette entry. Class names the semantic category (a
// packet type) the colour stands for.
type Color struct {
	Name  string
	Class string
	Pixel Pixel
}

// Palette maps the numeric colour index sent over the wire to a
// colour. Index 0 is the neutral colour for everything unclassified.
type Palette [PaletteSize]Color

func DefaultPalette() Palette {
	return Palette{
		{Name: "white", Class: "others", Pixel: RGB(255, 255, 255)},
		{Name: "green", Class: "lldp", Pixel: RGB(0, 136, 0)},
		{Name: "red", Class: "anomaly", Pixel: RGB(255, 0, 0)},
		{Name: "blue", Class: "tcp", Pixel: RGB(0, 0, 255)},
		{Name: "purple", Class: "arp", Pixel: RGB(128, 0, 128)},
		{Name: "pink", Class: "icmp", Pixel: RGB(255, 192, 203)},
		{Name: "yellow", Class: "udp", Pixel: RGB(255, 255, 0)},
		{Name: "orange", Class: "igmp", Pixel: RGB(255, 165, 0)},
		{Name: "cyan", Class: "dhcp", Pixel: RGB(0, 156, 209)},
		{Name: "lime", Class: "dns", Pixel: RGB(50, 205, 50)},
	}
}

func (s Palette) At(index int) (Color, error) {
	if index < 0 || index >= PaletteSize {
		return Color{}, fmt.Errorf("palette index %d: %w", index, ErrIndexOutOfRange)
	}
	return s[index], nil
}

// IndexOfClass returns the index of the first entry for class.
func (s Palette) IndexOfClass(class string) (int, bool) {
	for i, c := range s {
		if c.Class == class {
			return i, true
		}
	}
	return 0, false
}
