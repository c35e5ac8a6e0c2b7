// Package sender feeds classified packets to the LED receiver over a
// serial link.
package sender

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"

	"lautenbacher.net/pktleds/animation"
	"lautenbacher.net/pktleds/classify"
	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/pixel"
)

type Options struct {
	// Pace is the pause after every written unit. The receiver is busy
	// animating for about that long.
	Pace time.Duration
	// QueueLimit is the number of packets that may wait. Packets beyond
	// are dropped.
	QueueLimit int
	// Framing must match the receiver's. The zero value is line framing.
	Framing command.Framing
	Sleep   func(time.Duration)
}

// Sender classifies packets and writes one unit per packet: the flow
// direction and the palette index of the class.
type Sender struct {
	out     io.Writer
	palette pixel.Palette
	local   []net.IP
	queue   chan gopacket.Packet
	opts    Options
	sent    atomic.Int64
	dropped atomic.Int64
}

func New(out io.Writer, palette pixel.Palette, local []net.IP, opts Options) *Sender {
	if opts.QueueLimit < 1 {
		opts.QueueLimit = 1
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Sender{
		out:     out,
		palette: palette,
		local:   local,
		queue:   make(chan gopacket.Packet, opts.QueueLimit),
		opts:    opts,
	}
}

// Offer queues p without blocking. It returns false when the queue is
// full and p was dropped.
func (s *Sender) Offer(p gopacket.Packet) bool {
	select {
	case s.queue <- p:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Feed offers every packet of src and closes the queue once src is
// exhausted.
func (s *Sender) Feed(ctx context.Context, src <-chan gopacket.Packet) {
	defer close(s.queue)
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-src:
			if !ok {
				return
			}
			s.Offer(p)
		}
	}
}

// Unit returns the wire unit for p.
func (s *Sender) Unit(p gopacket.Packet) ([]byte, classify.Result) {
	r := classify.Classify(p, s.local)
	return command.EncodeUnit(s.opts.Framing, animation.Direction(r.Flow), s.index(r.Class)), r
}

// index resolves class through the palette, unknown classes show as
// others.
func (s *Sender) index(class string) int {
	idx, ok := s.palette.IndexOfClass(class)
	if !ok {
		idx, _ = s.palette.IndexOfClass(classify.Others)
	}
	return idx
}

// Run writes the queued packets until the queue is closed or ctx is
// done. A failing write ends the run.
func (s *Sender) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-s.queue:
			if !ok {
				return nil
			}
			unit, r := s.Unit(p)
			if _, err := s.out.Write(unit); err != nil {
				return fmt.Errorf("failed to write to receiver: %w", err)
			}
			s.sent.Add(1)
			slog.Info("Packet", "class", r.Class, "flow", r.Flow, "src", r.Src, "dst", r.Dst, "index", s.index(r.Class))
			if s.opts.Pace > 0 {
				s.opts.Sleep(s.opts.Pace)
			}
		}
	}
}

// Stats returns the number of written and dropped packets.
func (s *Sender) Stats() (sent, dropped int64) {
	return s.sent.Load(), s.dropped.Load()
}
