package pixel

import "math"

// Frame is the transmission view of a Buffer after brightness scaling.
// Each word packs one LED in wire order: green in bits 23..16, red in
// bits 15..8 and blue in bits 7..0.
type Frame []uint32

func Pack(p Pixel) uint32 {
	return uint32(p.Green)<<16 | uint32(p.Red)<<8 | uint32(p.Blue)
}

func Unpack(word uint32) Pixel {
	return Pixel{
		Red:   byte(word >> 8),
		Green: byte(word >> 16),
		Blue:  byte(word),
	}
}

// Pixels converts the frame back into storage order.
func (s Frame) Pixels() []Pixel {
	ret := make([]Pixel, len(s))
	for i, w := range s {
		ret[i] = Unpack(w)
	}
	return ret
}

// Scale builds the frame for buf dimmed by factor. The factor is clamped
// to [0, 1] and every channel is truncated toward zero. buf is never
// modified.
func Scale(buf *Buffer, factor float64) Frame {
	return scale(buf, math.Max(0, math.Min(factor, 1)))
}

// ScaleOverdrive is Scale without the upper clamp. Channels that would
// exceed 255 saturate.
func ScaleOverdrive(buf *Buffer, factor float64) Frame {
	return scale(buf, math.Max(0, factor))
}

func scale(buf *Buffer, factor float64) Frame {
	frame := make(Frame, len(buf.pixels))
	for i, p := range buf.pixels {
		frame[i] = Pack(Pixel{
			Red:   dim(p.Red, factor),
			Green: dim(p.Green, factor),
			Blue:  dim(p.Blue, factor),
		})
	}
	return frame
}

func dim(channel byte, factor float64) byte {
	if factor == 1 {
		return channel
	}
	return byte(math.Min(math.Floor(float64(channel)*factor), 255))
}
