package sender

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/pktleds/animation"
	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/config"
	"lautenbacher.net/pktleds/pixel"
)

var (
	local  = net.IPv4(10, 0, 0, 1)
	remote = net.IPv4(10, 0, 0, 2)
)

func udpPacket(t *testing.T, src, dst net.IP) gopacket.Packet {
	t.Helper()
	eth := &layers.Ethernet{SrcMAC: net.HardwareAddr{0, 1, 2, 3, 4, 5}, DstMAC: net.HardwareAddr{0, 1, 2, 3, 4, 6}, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: src.To4(), DstIP: dst.To4()}
	udp := &layers.UDP{SrcPort: 5000, DstPort: 6000}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		eth, ip, udp, gopacket.Payload([]byte("x"))))
	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestSender_WritesUnits(t *testing.T) {
	var out bytes.Buffer
	var paces []time.Duration
	s := New(&out, pixel.DefaultPalette(), []net.IP{local}, Options{
		Pace:       150 * time.Millisecond,
		QueueLimit: 4,
		Framing:    command.PairFraming,
		Sleep:      func(d time.Duration) { paces = append(paces, d) },
	})

	require.True(t, s.Offer(udpPacket(t, remote, local)))
	require.True(t, s.Offer(udpPacket(t, local, remote)))
	close(s.queue)
	require.NoError(t, s.Run(context.Background()))

	// udp is index 6 in the default palette
	assert.Equal(t, []byte{0, 6, 1, 6}, out.Bytes())
	assert.Equal(t, []time.Duration{150 * time.Millisecond, 150 * time.Millisecond}, paces)
	sent, dropped := s.Stats()
	assert.Equal(t, int64(2), sent)
	assert.Zero(t, dropped)

	cmd, err := command.Parse(out.Bytes()[:2])
	require.NoError(t, err, "the receiver understands what the sender writes")
	assert.Equal(t, command.Directional, cmd.Kind)
	assert.Equal(t, 6, cmd.ColorIndex)
}

func TestSender_DefaultFramingReachesReceiver(t *testing.T) {
	conf := config.Default()
	framing, err := command.ParseFraming(conf.Serial.Framing)
	require.NoError(t, err)

	var wire bytes.Buffer
	s := New(&wire, conf.PaletteValue(), []net.IP{local}, Options{QueueLimit: 4, Framing: framing})
	for range 3 {
		unit, _ := s.Unit(udpPacket(t, local, remote))
		wire.Write(unit)
	}

	units := command.NewUnitReader(&wire, framing)
	for range 3 {
		unit, err := units.Next()
		require.NoError(t, err)
		cmd, err := command.Parse(unit)
		require.NoError(t, err)
		assert.Equal(t, command.Command{Kind: command.Directional, Direction: animation.Inbound, ColorIndex: 6}, cmd)
	}
}

func TestSender_LineUnits(t *testing.T) {
	s := New(&bytes.Buffer{}, pixel.DefaultPalette(), []net.IP{local}, Options{QueueLimit: 1, Framing: command.LineFraming})
	unit, _ := s.Unit(udpPacket(t, remote, local))
	assert.Equal(t, []byte("06\n"), unit)
}

func TestSender_PaletteDecidesIndex(t *testing.T) {
	palette := pixel.DefaultPalette()
	palette[3], palette[6] = palette[6], palette[3]
	s := New(&bytes.Buffer{}, palette, nil, Options{QueueLimit: 1, Framing: command.PairFraming})
	unit, r := s.Unit(udpPacket(t, remote, local))
	assert.Equal(t, "udp", r.Class)
	assert.Equal(t, []byte{1, 3}, unit)
}

func TestSender_UnknownClassFallsBackToOthers(t *testing.T) {
	palette := pixel.DefaultPalette()
	palette[6].Class = "datagram"
	s := New(&bytes.Buffer{}, palette, nil, Options{QueueLimit: 1, Framing: command.PairFraming})
	unit, _ := s.Unit(udpPacket(t, remote, local))
	assert.Equal(t, []byte{1, 0}, unit)
}

func TestSender_DropsWhenQueueFull(t *testing.T) {
	s := New(&bytes.Buffer{}, pixel.DefaultPalette(), nil, Options{QueueLimit: 2})
	p := udpPacket(t, remote, local)
	assert.True(t, s.Offer(p))
	assert.True(t, s.Offer(p))
	assert.False(t, s.Offer(p))
	_, dropped := s.Stats()
	assert.Equal(t, int64(1), dropped)
}

func TestSender_Feed(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, pixel.DefaultPalette(), nil, Options{QueueLimit: 10})
	src := make(chan gopacket.Packet, 3)
	for i := 0; i < 3; i++ {
		src <- udpPacket(t, remote, local)
	}
	close(src)

	s.Feed(context.Background(), src)
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, "16\n16\n16\n", out.String(), "line framing by default")
}

type brokenPort struct{}

func (brokenPort) Write([]byte) (int, error) { return 0, errors.New("unplugged") }

func TestSender_WriteError(t *testing.T) {
	s := New(brokenPort{}, pixel.DefaultPalette(), nil, Options{QueueLimit: 1})
	s.Offer(udpPacket(t, remote, local))
	err := s.Run(context.Background())
	assert.ErrorContains(t, err, "unplugged")
}

func TestSender_Cancel(t *testing.T) {
	s := New(&bytes.Buffer{}, pixel.DefaultPalette(), nil, Options{QueueLimit: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}
