package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/google/gopacket/pcap"
)

var errNoChoice = errors.New("nothing to choose from")

// choose lists items on out and reads the number of the selected item
// from in. It asks again until the answer is valid.
func choose(title string, items []string, in io.Reader, out io.Writer) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("%s: %w", title, errNoChoice)
	}
	fmt.Fprintf(out, "%s available:\n", title)
	for i, item := range items {
		fmt.Fprintf(out, "%d. %s\n", i, item)
	}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Select %s number: ", strings.ToLower(title))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, err
			}
			return 0, io.ErrUnexpectedEOF
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err == nil && n >= 0 && n < len(items) {
			return n, nil
		}
		fmt.Fprintf(out, "Please enter a number between 0 and %d\n", len(items)-1)
	}
}

// describeDevices renders one line per capture device with its
// addresses.
func describeDevices(devs []pcap.Interface) []string {
	ret := make([]string, len(devs))
	for i, dev := range devs {
		var addrs []string
		for _, a := range dev.Addresses {
			addrs = append(addrs, a.IP.String())
		}
		ret[i] = dev.Name
		if len(addrs) > 0 {
			ret[i] += " (" + strings.Join(addrs, ", ") + ")"
		}
	}
	return ret
}

func findDevice(devs []pcap.Interface, name string) (pcap.Interface, bool) {
	for _, dev := range devs {
		if dev.Name == name {
			return dev, true
		}
	}
	return pcap.Interface{}, false
}

// localIPs returns the addresses packets to this host are sent to.
func localIPs(dev pcap.Interface) []net.IP {
	ret := make([]net.IP, 0, len(dev.Addresses))
	for _, a := range dev.Addresses {
		if a.IP != nil {
			ret = append(ret, a.IP)
		}
	}
	return ret
}
