// Command pktsend captures packets on a network interface and sends one
// command per packet to the LED receiver over a serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/tarm/serial"
	portlist "go.bug.st/serial"

	"lautenbacher.net/pktleds/command"
	"lautenbacher.net/pktleds/config"
	"lautenbacher.net/pktleds/logging"
	"lautenbacher.net/pktleds/sender"
)

func main() {
	cfile := flag.String("config", config.CONFILE, "Path to the configuration file")
	portName := flag.String("port", "", "Serial port of the receiver, asked for if empty")
	ifaceName := flag.String("iface", "", "Interface to capture on, asked for if empty")
	flag.Parse()

	if err := run(*cfile, *portName, *ifaceName); err != nil {
		slog.Error("pktsend failed", "error", err)
		logging.Close()
		os.Exit(2)
	}
	logging.Close()
}

func loadConfig(cfile string) (*config.Config, error) {
	conf, err := config.ReadConfig(cfile)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("No config file, using defaults", "file", cfile)
		return config.Default(), nil
	}
	return conf, err
}

func run(cfile, portName, ifaceName string) error {
	conf, err := loadConfig(cfile)
	if err != nil {
		return err
	}
	conf.RealHW = true
	if err := logging.Init(false, conf.LogConfig()); err != nil {
		return err
	}
	sc := conf.Sender

	if portName == "" {
		portName = sc.Device
	}
	if portName == "" {
		ports, err := portlist.GetPortsList()
		if err != nil {
			return fmt.Errorf("failed to list serial ports: %w", err)
		}
		i, err := choose("Serial ports", ports, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		portName = ports[i]
	}

	devs, err := pcap.FindAllDevs()
	if err != nil {
		return fmt.Errorf("failed to list capture devices: %w", err)
	}
	if ifaceName == "" {
		ifaceName = sc.Interface
	}
	var dev pcap.Interface
	if ifaceName == "" {
		i, err := choose("Devices", describeDevices(devs), os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		dev = devs[i]
	} else {
		var ok bool
		if dev, ok = findDevice(devs, ifaceName); !ok {
			return fmt.Errorf("unknown capture device %s", ifaceName)
		}
	}

	port, err := serial.OpenPort(&serial.Config{Name: portName, Baud: sc.Baud})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	defer port.Close()

	handle, err := pcap.OpenLive(dev.Name, sc.SnapLen, sc.Promiscuous, pcap.BlockForever)
	if err != nil {
		return fmt.Errorf("failed to open capture on %s: %w", dev.Name, err)
	}
	defer handle.Close()
	if sc.Filter != "" {
		if err := handle.SetBPFFilter(sc.Filter); err != nil {
			return fmt.Errorf("invalid capture filter %q: %w", sc.Filter, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the receiver reads the same configuration
	framing, err := command.ParseFraming(conf.Serial.Framing)
	if err != nil {
		return err
	}
	snd := sender.New(port, conf.PaletteValue(), localIPs(dev), sender.Options{
		Pace:       sc.Pace,
		QueueLimit: sc.QueueLimit,
		Framing:    framing,
	})
	slog.Info("Capturing", "device", dev.Name, "port", portName, "filter", sc.Filter, "framing", framing)
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	go snd.Feed(ctx, source.Packets())

	err = snd.Run(ctx)
	sent, dropped := snd.Stats()
	slog.Info("Stopped capturing", "sent", sent, "dropped", dropped)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
