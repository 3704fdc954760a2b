package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
)

// ParseFlags overlays command-line options on top of the environment
// values already held by c. Both the short and the long spelling of each
// option are accepted (-p 1234, --port 1234).
func (c *Config) ParseFlags(name string, args []string, output io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.BoolVar(&c.Help, "h", c.Help, "Show this help")
	fs.BoolVar(&c.Help, "help", c.Help, "Show this help")
	fs.IntVar(&c.Port, "p", c.Port, "Port to listen on")
	fs.IntVar(&c.Port, "port", c.Port, "Port to listen on")
	fs.StringVar(&c.ListenAddress, "L", c.ListenAddress, "IP to listen on")
	fs.StringVar(&c.ListenAddress, "listen", c.ListenAddress, "IP to listen on")
	fs.StringVar(&c.RemoteNotifyAddress, "r", c.RemoteNotifyAddress, "IP to notify when cpu reaches threshold")
	fs.StringVar(&c.RemoteNotifyAddress, "remote", c.RemoteNotifyAddress, "IP to notify when cpu reaches threshold")
	fs.Float64Var(&c.AlertThresholdPercent, "t", c.AlertThresholdPercent, "Percentage threshold to be reached for notification")
	fs.Float64Var(&c.AlertThresholdPercent, "threshold", c.AlertThresholdPercent, "Percentage threshold to be reached for notification")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [OPTIONS]\n", name)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if c.Help {
		fs.Usage()
	}

	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
