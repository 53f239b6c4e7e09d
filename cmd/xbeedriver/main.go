// Command xbeedriver is a small interactive example that opens a
// serial port, drives it with xbeeapi, and prints association status
// and received packets.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/JohnMLarkin/XBeeAPIParser"
	"github.com/JohnMLarkin/XBeeAPIParser/transport/serialport"
)

type options struct {
	Port     string `short:"p" long:"port" description:"Serial port device" required:"true"`
	Baud     int    `short:"b" long:"baud" description:"Baud rate" default:"9600"`
	Config   string `short:"c" long:"config" description:"Path to a driver config file (yaml/json/toml)"`
	Poll     bool   `long:"poll" description:"Poll association status every second instead of exiting after one check"`
	SendTo   string `long:"send-to" description:"16-hex-digit destination address to transmit --send-payload to, then exit"`
	Payload  string `long:"send-payload" description:"Payload to transmit to --send-to" default:"ping"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	cfg := xbeeapi.Config{}
	if opts.Config != "" {
		loaded, err := xbeeapi.LoadConfig(opts.Config)
		if err != nil {
			fmt.Fprintln(os.Stderr, "xbeedriver:", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	port, err := serialport.Open(opts.Port, opts.Baud)
	if err != nil {
		fmt.Fprintln(os.Stderr, "xbeedriver:", err)
		os.Exit(1)
	}
	defer port.Close()

	driver := xbeeapi.New(port, port, cfg)
	driver.Open()
	defer driver.Close()

	if opts.SendTo != "" {
		addr, err := xbeeapi.ParseAddress(opts.SendTo)
		if err != nil {
			fmt.Fprintln(os.Stderr, "xbeedriver: --send-to:", err)
			os.Exit(1)
		}
		n, err := driver.TxAddressed(addr, []byte(opts.Payload))
		if err != nil {
			fmt.Fprintln(os.Stderr, "xbeedriver: send:", err)
			os.Exit(1)
		}
		fmt.Println("send result:", n)
		return
	}

	alerts := make(chan struct{}, 1)
	driver.RegisterAlert(alerts)

	for {
		associated, err := driver.Associated()
		if err != nil {
			fmt.Fprintln(os.Stderr, "xbeedriver: associated():", err)
		} else {
			fmt.Println("associated:", associated)
		}

		if payload, addr, n := driver.RxPacket(); n > 0 {
			fmt.Printf("rx from %016X: %q\n", addr, payload)
		}

		if !opts.Poll {
			return
		}

		select {
		case <-alerts:
		case <-time.After(time.Second):
		}
	}
}
