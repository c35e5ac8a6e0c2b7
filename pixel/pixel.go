package pixel

// Pixel is the logical colour of one LED in storage order (red, green,
// blue). The wire order is only applied when a Frame is built.
type Pixel struct {
	Red   byte
	Green byte
	Blue  byte
}

var Black = Pixel{}

// True if all components are zero, false otherwise
func (s Pixel) IsEmpty() bool {
	return s.Red == 0 && s.Green == 0 && s.Blue == 0
}

func RGB(red, green, blue byte) Pixel {
	return Pixel{Red: red, Green: green, Blue: blue}
}

// Wheel returns a colour on the hue wheel for pos in 0..255. The
// colours are a transition red - green - blue - back to red, each ramp
// spanning 85 positions. Positions outside the wheel are black.
func Wheel(pos int) Pixel {
	if pos < 0 || pos > 255 {
		return Black
	}
	if pos < 85 {
		return Pixel{Red: byte(255 - pos*3), Green: byte(pos * 3)}
	}
	if pos < 170 {
		pos -= 85
		return Pixel{Green: byte(255 - pos*3), Blue: byte(pos * 3)}
	}
	pos -= 170
	return Pixel{Red: byte(pos * 3), Blue: byte(255 - pos*3)}
}
