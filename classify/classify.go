// Package classify sorts captured packets into the colour classes of
// the palette.
package classify

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	Others  = "others"
	Anomaly = "anomaly"
	LLDP    = "lldp"
	DNS     = "dns"
	ICMP    = "icmp"
	DHCP    = "dhcp"
	ARP     = "arp"
	IGMP    = "igmp"
	UDP     = "udp"
	TCP     = "tcp"
)

// Flow is the direction of a packet relative to the capturing host.
// The values are the direction bytes of the wire protocol.
type Flow byte

const (
	Received Flow = 0
	Sent     Flow = 1
)

func (s Flow) String() string {
	if s == Received {
		return "received"
	}
	return "sent"
}

type Result struct {
	Class string
	Flow  Flow
	Src   string
	Dst   string
}

// rules are checked in order, the first match wins.
var rules = []struct {
	class string
	match func(gopacket.Packet) bool
}{
	{Anomaly, IsAnomaly},
	{LLDP, has(layers.LayerTypeLinkLayerDiscovery)},
	{DNS, has(layers.LayerTypeDNS)},
	{ICMP, func(p gopacket.Packet) bool {
		return p.Layer(layers.LayerTypeICMPv4) != nil || p.Layer(layers.LayerTypeICMPv6) != nil
	}},
	{DHCP, has(layers.LayerTypeDHCPv4)},
	{ARP, has(layers.LayerTypeARP)},
	{IGMP, has(layers.LayerTypeIGMP)},
	{UDP, has(layers.LayerTypeUDP)},
	{TCP, has(layers.LayerTypeTCP)},
}

func has(t gopacket.LayerType) func(gopacket.Packet) bool {
	return func(p gopacket.Packet) bool {
		return p.Layer(t) != nil
	}
}

// IsAnomaly reports TCP segments with FIN, URG and PSH set at the same
// time (a christmas tree scan).
func IsAnomaly(p gopacket.Packet) bool {
	tcp, ok := p.Layer(layers.LayerTypeTCP).(*layers.TCP)
	return ok && tcp.FIN && tcp.URG && tcp.PSH
}

// Classify returns the class of p and whether it was sent to one of the
// local addresses. Packets without a network layer count as sent.
func Classify(p gopacket.Packet, local []net.IP) Result {
	ret := Result{Class: Others, Flow: Sent}
	for _, r := range rules {
		if r.match(p) {
			ret.Class = r.class
			break
		}
	}
	if nl := p.NetworkLayer(); nl != nil {
		flow := nl.NetworkFlow()
		ret.Src = flow.Src().String()
		ret.Dst = flow.Dst().String()
		dst := net.IP(flow.Dst().Raw())
		for _, ip := range local {
			if ip.Equal(dst) {
				ret.Flow = Received
				break
			}
		}
	}
	return ret
}
