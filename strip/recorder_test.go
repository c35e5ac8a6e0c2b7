package strip

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"lautenbacher.net/pktleds/pixel"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(2)
	frame := pixel.Frame{1, 2}
	assert.NoError(t, r.Transmit(frame))
	frame[0] = 99
	assert.Equal(t, pixel.Frame{1, 2}, r.Frames()[0], "the recorder keeps a copy")

	assert.NoError(t, r.Transmit(pixel.Frame{3}))
	assert.NoError(t, r.Transmit(pixel.Frame{4}))
	assert.Equal(t, 3, r.Count())
	assert.Equal(t, []pixel.Frame{{3}, {4}}, r.Frames(), "only the most recent frames are kept")

	r.Reset()
	assert.Zero(t, r.Count())
	assert.Empty(t, r.Frames())

	assert.NoError(t, r.Close())
	assert.True(t, r.Closed())
}

type failingTransmitter struct{ closed bool }

func (f *failingTransmitter) Transmit(pixel.Frame) error { return errors.New("wire cut") }
func (f *failingTransmitter) Close() error               { f.closed = true; return nil }

func TestTee(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	bad := &failingTransmitter{}
	tee := Tee{a, bad, b}

	err := tee.Transmit(pixel.Frame{7})
	assert.Error(t, err)
	assert.Equal(t, 1, a.Count())
	assert.Equal(t, 1, b.Count(), "a failing transmitter must not starve the others")

	assert.NoError(t, tee.Close())
	assert.True(t, a.Closed())
	assert.True(t, bad.closed)
	assert.True(t, b.Closed())
}
