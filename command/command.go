package command

import (
	"errors"
	"fmt"
	"log/slog"

	"lautenbacher.net/pktleds/animation"
	"lautenbacher.net/pktleds/pixel"
)

var (
	ErrMalformed       = errors.New("malformed command")
	ErrColorOutOfRange = errors.New("color index out of range")
)

type Kind int

const (
	Fill Kind = iota
	Directional
)

func (s Kind) String() string {
	if s == Fill {
		return "fill"
	}
	return "directional"
}

// Command is one validated instruction received over the wire.
type Command struct {
	Kind       Kind
	Direction  animation.Direction
	ColorIndex int
}

func (s Command) String() string {
	if s.Kind == Fill {
		return fmt.Sprintf("Fill(%d)", s.ColorIndex)
	}
	return fmt.Sprintf("Directional(%d, %d)", s.Direction, s.ColorIndex)
}

// rawLimit is the first byte value that is no longer taken as a raw
// integer. Everything below is a control character and can't be
// confused with a printable digit.
const rawLimit = 0x20

// value returns the integer a command byte stands for. ASCII digits
// count as their digit, control bytes as their raw value (the packet
// sender writes raw values).
func value(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b < rawLimit:
		return int(b), true
	default:
		return 0, false
	}
}

// Parse turns one input unit into a command.
//
// A single ASCII digit is Fill(digit). Two bytes are
// Directional(direction, color). Direction values above 1 select the
// inbound variant. Color indices must address the palette.
func Parse(unit []byte) (Command, error) {
	switch len(unit) {
	case 1:
		if unit[0] < '0' || unit[0] > '9' {
			return Command{}, fmt.Errorf("%w: %q is not a digit", ErrMalformed, unit)
		}
		return Command{Kind: Fill, ColorIndex: int(unit[0] - '0')}, nil
	case 2:
		dir, ok := value(unit[0])
		if !ok {
			return Command{}, fmt.Errorf("%w: direction %q is not numeric", ErrMalformed, unit[0])
		}
		color, ok := value(unit[1])
		if !ok {
			return Command{}, fmt.Errorf("%w: color %q is not numeric", ErrMalformed, unit[1])
		}
		if color >= pixel.PaletteSize {
			return Command{}, fmt.Errorf("%w: %d", ErrColorOutOfRange, color)
		}
		direction := animation.Direction(dir)
		if dir > 1 {
			slog.Debug("Clamping direction to inbound", "direction", dir)
			direction = animation.Inbound
		}
		return Command{Kind: Directional, Direction: direction, ColorIndex: color}, nil
	case 0:
		return Command{}, fmt.Errorf("%w: empty input", ErrMalformed)
	default:
		return Command{}, fmt.Errorf("%w: %d bytes", ErrMalformed, len(unit))
	}
}

// Encode returns the two raw bytes that Parse reads back as a
// directional command.
func Encode(dir animation.Direction, color int) []byte {
	return []byte{byte(dir), byte(color)}
}

// EncodeLine returns the directional command as a line of two ASCII
// digits.
func EncodeLine(dir animation.Direction, color int) []byte {
	return []byte{'0' + byte(dir), '0' + byte(color), '\n'}
}

// EncodeUnit encodes a directional command for the given framing.
func EncodeUnit(framing Framing, dir animation.Direction, color int) []byte {
	if framing == PairFraming {
		return Encode(dir, color)
	}
	return EncodeLine(dir, color)
}
