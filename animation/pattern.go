package animation

import (
	"log/slog"
	"time"

	"lautenbacher.net/pktleds/pixel"
)

// Direction selects which way a directional pattern travels.
type Direction int

const (
	Outbound Direction = 0
	Inbound  Direction = 1
)

func (s Direction) String() string {
	if s == Outbound {
		return "outbound"
	}
	return "inbound"
}

// Pattern is a finite animation expressed as a resumable sequence of
// steps. Every call to Next applies the mutation of one step to buf and
// returns how long the rendered result is to be held. ok is false once
// the pattern is exhausted and buf was not touched.
type Pattern interface {
	Name() string
	Next(buf *pixel.Buffer) (hold time.Duration, ok bool)
}

// Layout describes the physical strip the patterns are computed for.
type Layout struct {
	Length   int
	Branch   int
	Sections []int
}

type step struct {
	apply func(buf *pixel.Buffer)
	hold  time.Duration
}

// steps is the Pattern implementation shared by all concrete patterns:
// the steps are computed up front and replayed in order.
type steps struct {
	name  string
	list  []step
	index int
}

func (s *steps) Name() string {
	return s.name
}

func (s *steps) Next(buf *pixel.Buffer) (time.Duration, bool) {
	if s.index >= len(s.list) {
		return 0, false
	}
	st := s.list[s.index]
	s.index++
	if st.apply != nil {
		st.apply(buf)
	}
	return st.hold, true
}

// Len returns the number of steps (= rendered frames) of the pattern.
func (s *steps) Len() int {
	return len(s.list)
}

// paint sets every index to value. Indices outside the strip are
// skipped; the arithmetic of the patterns can run one past either end.
func paint(buf *pixel.Buffer, indices []int, value pixel.Pixel) {
	for _, idx := range indices {
		if err := buf.Set(idx, value); err != nil {
			slog.Debug("Skipping led outside strip", "index", idx, "length", buf.Len())
		}
	}
}

func positions(from, to int) []int {
	ret := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		ret = append(ret, i)
	}
	return ret
}

func mirror(length int, indices []int) []int {
	ret := make([]int, len(indices))
	for i, idx := range indices {
		ret[i] = length - 1 - idx
	}
	return ret
}

// NewFillBounce lights the pair of LEDs at branch-1-i and branch+i with
// color and immediately turns them off again, for i in 0..length-branch.
// The result is a pulse running outward from the branch point.
func NewFillBounce(l Layout, color pixel.Pixel, frameDelay time.Duration) Pattern {
	inst := &steps{name: "fill-bounce"}
	for i := 0; i < l.Length-l.Branch; i++ {
		pair := []int{l.Branch - 1 - i, l.Branch + i}
		inst.list = append(inst.list,
			step{apply: func(b *pixel.Buffer) { paint(b, pair, color) }, hold: frameDelay},
			step{apply: func(b *pixel.Buffer) { paint(b, pair, pixel.Black) }, hold: frameDelay},
		)
	}
	return inst
}

// chasePairs returns the mirrored pairs of an outbound chase: they start
// at the branch point and move outward until both strip ends are
// reached.
func chasePairs(l Layout) [][]int {
	n := max(l.Branch, l.Length-l.Branch)
	ret := make([][]int, n)
	for i := 0; i < n; i++ {
		ret[i] = []int{l.Branch - 1 - i, l.Branch + i}
	}
	return ret
}

// NewChase moves a single lit pair along the strip, holding every
// position for delay. Outbound expands from the branch point toward the
// ends, Inbound runs the same path mirrored across the strip and in
// reverse order, i.e. from the far ends inward.
func NewChase(l Layout, dir Direction, color pixel.Pixel, delay time.Duration) Pattern {
	pairs := chasePairs(l)
	if dir != Outbound {
		rev := make([][]int, len(pairs))
		for i, p := range pairs {
			rev[len(pairs)-1-i] = mirror(l.Length, p)
		}
		pairs = rev
	}

	inst := &steps{name: "chase-" + dir.String()}
	var prev []int
	for _, pair := range pairs {
		last, cur := prev, pair
		inst.list = append(inst.list, step{
			apply: func(b *pixel.Buffer) {
				paint(b, last, pixel.Black)
				paint(b, cur, color)
			},
			hold: delay,
		})
		prev = pair
	}
	if prev != nil {
		last := prev
		inst.list = append(inst.list, step{apply: func(b *pixel.Buffer) { paint(b, last, pixel.Black) }})
	}
	return inst
}

// sectionRanges splits the strip into contiguous sections. Outbound
// walks the section list from the start of the strip, Inbound walks it
// backwards from the far end.
func sectionRanges(l Layout, dir Direction) [][]int {
	var ret [][]int
	if dir == Outbound {
		start := 0
		for _, length := range l.Sections {
			ret = append(ret, positions(start, start+length))
			start += length
		}
		return ret
	}
	start := l.Length
	for i := len(l.Sections) - 1; i >= 0; i-- {
		start -= l.Sections[i]
		ret = append(ret, positions(start, start+l.Sections[i]))
	}
	return ret
}

// NewSections lights one section at a time, holds it and clears it
// before the next section lights up.
func NewSections(l Layout, dir Direction, color pixel.Pixel, hold time.Duration) Pattern {
	inst := &steps{name: "sections-" + dir.String()}
	for _, section := range sectionRanges(l, dir) {
		leds := section
		inst.list = append(inst.list,
			step{apply: func(b *pixel.Buffer) { paint(b, leds, color) }, hold: hold},
			step{apply: func(b *pixel.Buffer) { paint(b, leds, pixel.Black) }},
		)
	}
	return inst
}

// RainbowSteps is the number of frames of one rainbow cycle.
const RainbowSteps = 255

// NewRainbow spreads the hue wheel over the strip and rotates it for
// RainbowSteps frames.
func NewRainbow(l Layout, wait time.Duration) Pattern {
	inst := &steps{name: "rainbow"}
	for j := 0; j < RainbowSteps; j++ {
		offset := j
		inst.list = append(inst.list, step{
			apply: func(b *pixel.Buffer) {
				for i := 0; i < l.Length; i++ {
					paint(b, []int{i}, pixel.Wheel((i*256/l.Length+offset)&255))
				}
			},
			hold: wait,
		})
	}
	return inst
}

// NewWipe lights the strip LED by LED and leaves it lit. The last frame
// is held for settle.
func NewWipe(l Layout, color pixel.Pixel, wait, settle time.Duration) Pattern {
	inst := &steps{name: "wipe"}
	for i := 0; i < l.Length; i++ {
		idx := []int{i}
		inst.list = append(inst.list, step{apply: func(b *pixel.Buffer) { paint(b, idx, color) }, hold: wait})
	}
	if n := len(inst.list); n > 0 {
		inst.list[n-1].hold += settle
	}
	return inst
}

// NewBlank renders a single all black frame.
func NewBlank() Pattern {
	return &steps{name: "blank", list: []step{{apply: func(b *pixel.Buffer) { b.Clear() }}}}
}

type sequence struct {
	patterns []Pattern
	index    int
}

// Sequence plays patterns back to back as one pattern.
func Sequence(patterns ...Pattern) Pattern {
	return &sequence{patterns: patterns}
}

func (s *sequence) Name() string {
	return "sequence"
}

func (s *sequence) Next(buf *pixel.Buffer) (time.Duration, bool) {
	for s.index < len(s.patterns) {
		if hold, ok := s.patterns[s.index].Next(buf); ok {
			return hold, true
		}
		s.index++
	}
	return 0, false
}
