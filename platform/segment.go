package platform

import "strings"

// span is a run of LEDs in chain order. Invisible spans fill the part of
// the strip no section covers.
type span struct {
	firstLed int
	lastLed  int
	visible  bool
}

func (s span) length() int {
	return s.lastLed - s.firstLed + 1
}

// spans cuts a strip of length LEDs into the configured sections. The
// remainder after the last section becomes an invisible span. Sections
// reaching past the strip are cut off.
func spans(length int, sections []int) []span {
	var ret []span
	start := 0
	for _, l := range sections {
		if l <= 0 || start >= length {
			continue
		}
		last := min(start+l, length) - 1
		ret = append(ret, span{firstLed: start, lastLed: last, visible: true})
		start = last + 1
	}
	if start < length {
		ret = append(ret, span{firstLed: start, lastLed: length - 1, visible: false})
	}
	return ret
}

// sectionMarkers draws the section boundaries below the strip and marks
// the two LEDs next to the branch point.
func sectionMarkers(segments []span, branch int) string {
	length := 0
	var line1 strings.Builder
	for _, seg := range segments {
		n := seg.length()
		length += n
		switch {
		case !seg.visible:
			line1.WriteString(strings.Repeat("·", n))
		case n == 1:
			line1.WriteString("│")
		default:
			line1.WriteString("├" + strings.Repeat("─", n-2) + "┤")
		}
	}

	line2 := []rune(strings.Repeat(" ", length))
	for _, i := range []int{branch - 1, branch} {
		if i >= 0 && i < length {
			line2[i] = '▲'
		}
	}
	return " [#888888]" + line1.String() + "[-]\n [#ffff00]" + strings.TrimRight(string(line2), " ") + "[-]"
}
