package main

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/google/gopacket/pcap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoose(t *testing.T) {
	var out bytes.Buffer
	i, err := choose("Serial ports", []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, strings.NewReader("7\nx\n1\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Contains(t, out.String(), "1. /dev/ttyACM0")
	assert.Equal(t, 2, strings.Count(out.String(), "Please enter a number between 0 and 1"))
}

func TestChoose_Errors(t *testing.T) {
	_, err := choose("Devices", nil, strings.NewReader("0\n"), io.Discard)
	assert.ErrorIs(t, err, errNoChoice)

	_, err = choose("Devices", []string{"eth0"}, strings.NewReader(""), io.Discard)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDevices(t *testing.T) {
	devs := []pcap.Interface{
		{Name: "lo"},
		{Name: "eth0", Addresses: []pcap.InterfaceAddress{
			{IP: net.ParseIP("192.168.1.10")},
			{IP: net.ParseIP("fe80::1")},
		}},
	}
	assert.Equal(t, []string{"lo", "eth0 (192.168.1.10, fe80::1)"}, describeDevices(devs))

	dev, ok := findDevice(devs, "eth0")
	require.True(t, ok)
	assert.Len(t, localIPs(dev), 2)
	assert.True(t, localIPs(dev)[0].Equal(net.ParseIP("192.168.1.10")))

	_, ok = findDevice(devs, "wlan0")
	assert.False(t, ok)
}
