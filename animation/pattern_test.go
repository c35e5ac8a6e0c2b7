package animation

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/pktleds/pixel"
	"lautenbacher.net/pktleds/strip"
)

var red = pixel.RGB(255, 0, 0)

// play runs p on a fresh strip and returns the frames and the holds.
func play(t *testing.T, length int, p Pattern) ([]pixel.Frame, []time.Duration) {
	t.Helper()
	rec := strip.NewRecorder(0)
	var holds []time.Duration
	eng := NewEngine(pixel.NewBuffer(length), rec, Options{Sleep: func(d time.Duration) { holds = append(holds, d) }})
	require.NoError(t, eng.Play(p))
	return rec.Frames(), holds
}

func lit(frame pixel.Frame) []int {
	ret := []int{}
	for i, w := range frame {
		if w != 0 {
			ret = append(ret, i)
		}
	}
	return ret
}

// litFrames drops the black frames.
func litFrames(frames []pixel.Frame) [][]int {
	var ret [][]int
	for _, f := range frames {
		if l := lit(f); len(l) > 0 {
			ret = append(ret, l)
		}
	}
	return ret
}

func TestFillBounce(t *testing.T) {
	l := Layout{Length: 12, Branch: 5}
	frames, holds := play(t, 12, NewFillBounce(l, red, 10*time.Millisecond))

	require.Len(t, frames, 14)
	seen := map[int]bool{}
	for i := 0; i < 7; i++ {
		on := lit(frames[2*i])
		expected := []int{}
		if 4-i >= 0 {
			expected = append(expected, 4-i)
		}
		expected = append(expected, 5+i)
		assert.Equal(t, expected, on, "step %d", i)
		for _, idx := range on {
			assert.Equal(t, pixel.Pack(red), frames[2*i][idx])
			seen[idx] = true
		}
		assert.Empty(t, lit(frames[2*i+1]), "step %d is followed by a black frame", i)
	}
	assert.Len(t, seen, 12, "every led is lit at some point")
	assert.Empty(t, lit(frames[len(frames)-1]))
	assert.Len(t, holds, 14)
	for _, h := range holds {
		assert.Equal(t, 10*time.Millisecond, h)
	}
}

func TestChase_SinglePairMovesOutward(t *testing.T) {
	l := Layout{Length: 13, Branch: 5}
	frames, _ := play(t, 13, NewChase(l, Outbound, red, time.Millisecond))

	// max(5, 8) positions plus the final clear
	require.Len(t, frames, 9)
	assert.Equal(t, []int{4, 5}, lit(frames[0]))
	assert.Equal(t, []int{3, 6}, lit(frames[1]))
	assert.Equal(t, []int{12}, lit(frames[7]))
	for _, f := range frames {
		assert.LessOrEqual(t, len(lit(f)), 2, "no trail is left behind")
	}
	assert.Empty(t, lit(frames[8]))
}

func TestChase_InboundMirrorsOutbound(t *testing.T) {
	for _, l := range []Layout{{Length: 13, Branch: 5}, {Length: 12, Branch: 6}, {Length: 10, Branch: 1}} {
		a := litFrames(first(play(t, l.Length, NewChase(l, Outbound, red, 0))))
		b := litFrames(first(play(t, l.Length, NewChase(l, Inbound, red, 0))))
		require.Equal(t, len(a), len(b))
		for k := range b {
			expected := mirror(l.Length, a[len(a)-1-k])
			slices.Sort(expected)
			assert.Equal(t, expected, b[k], "layout %v step %d", l, k)
		}
	}
}

func first(frames []pixel.Frame, _ []time.Duration) []pixel.Frame {
	return frames
}

func TestSections(t *testing.T) {
	l := Layout{Length: 13, Sections: []int{5, 4, 3, 1}}

	frames, holds := play(t, 13, NewSections(l, Outbound, red, 30*time.Millisecond))
	require.Len(t, frames, 8)
	assert.Equal(t, [][]int{{0, 1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11}, {12}}, litFrames(frames))
	for i := 1; i < len(frames); i += 2 {
		assert.Empty(t, lit(frames[i]), "a section is cleared before the next one lights")
	}
	assert.Equal(t, []time.Duration{30 * time.Millisecond, 30 * time.Millisecond, 30 * time.Millisecond, 30 * time.Millisecond}, holds)

	frames, _ = play(t, 13, NewSections(l, Inbound, red, 0))
	assert.Equal(t, [][]int{{12}, {9, 10, 11}, {5, 6, 7, 8}, {0, 1, 2, 3, 4}}, litFrames(frames))
}

func TestSections_ShorterThanStrip(t *testing.T) {
	l := Layout{Length: 10, Sections: []int{3, 3}}
	frames, _ := play(t, 10, NewSections(l, Inbound, red, 0))
	assert.Equal(t, [][]int{{7, 8, 9}, {4, 5, 6}}, litFrames(frames))
}

func TestRainbow(t *testing.T) {
	l := Layout{Length: 8}
	frames, holds := play(t, 8, NewRainbow(l, time.Millisecond))
	require.Len(t, frames, RainbowSteps)
	assert.Len(t, holds, RainbowSteps)
	assert.Equal(t, pixel.Pack(pixel.Wheel(0)), frames[0][0])
	assert.Equal(t, pixel.Pack(pixel.Wheel(32)), frames[0][1])
	assert.Equal(t, pixel.Pack(pixel.Wheel((7*32+254)&255)), frames[254][7])
}

func TestWipe(t *testing.T) {
	l := Layout{Length: 4}
	frames, holds := play(t, 4, NewWipe(l, red, 5*time.Millisecond, WipeSettle))
	require.Len(t, frames, 4)
	assert.Equal(t, []int{0}, lit(frames[0]))
	assert.Equal(t, []int{0, 1, 2, 3}, lit(frames[3]))
	assert.Equal(t, 5*time.Millisecond+WipeSettle, holds[3])
}

func TestSequenceAndBlank(t *testing.T) {
	l := Layout{Length: 4}
	frames, _ := play(t, 4, Sequence(NewWipe(l, red, 0, 0), Sequence(), NewBlank()))
	require.Len(t, frames, 5)
	assert.Empty(t, lit(frames[4]))

	frames, _ = play(t, 4, Sequence())
	assert.Empty(t, frames)
}

func TestPattern_ExhaustedLeavesBufferAlone(t *testing.T) {
	buf := pixel.NewBuffer(3)
	p := NewBlank()
	_, ok := p.Next(buf)
	assert.True(t, ok)
	buf.Fill(red)
	_, ok = p.Next(buf)
	assert.False(t, ok)
	assert.Equal(t, []int{0, 1, 2}, buf.Lit())
}
