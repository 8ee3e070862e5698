// Command slush is a simple Linux UART shell: an interactive terminal that
// relays lines from standard input to a serial device and renders the
// device's replies on standard output.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/richardcochran/slush"
)

func main() {
	fs := pflag.NewFlagSet("slush", pflag.ContinueOnError)

	annotate := fs.BoolP("annotate", "a", false, "annotated mode")
	baud := fs.IntP("baud", "b", slush.DefaultBaud, "baud rate in bits per second")
	crnl := fs.BoolP("crnl", "c", false, "map CR to NL on input")
	debug := fs.BoolP("debug", "d", false, "debug mode, hex and ASCII dump")
	flow := fs.BoolP("flow", "f", false, "enable hardware flow control")
	help := fs.BoolP("help", "h", false, "prints this message")
	nlmap := fs.IntP("output-map", "o", 0, "NL mapping on output, 0=none 1=CR 2=CRNL")
	device := fs.StringP("port", "p", slush.DefaultDevice, "serial port device to open")
	trace := fs.BoolP("trace", "t", false, "trace mode, with relative time stamps")

	usage := func(w io.Writer) {
		fmt.Fprintf(w, "Usage: slush [OPTION]...\n%s", fs.FlagUsages())
	}
	fs.Usage = func() { usage(os.Stderr) }

	if err := fs.Parse(os.Args[1:]); err != nil {
		// pflag already printed the error and the usage text.
		os.Exit(1)
	}
	if *help {
		usage(os.Stdout)
		os.Exit(0)
	}

	mode := slush.ModePlain
	selected := 0
	if *annotate {
		mode = slush.ModeAnnotated
		selected++
	}
	if *debug {
		mode = slush.ModeDebug
		selected++
	}
	if *trace {
		mode = slush.ModeTrace
		selected++
	}
	if selected > 1 {
		fmt.Fprintln(os.Stderr, "slush: -a, -d and -t are mutually exclusive")
		usage(os.Stderr)
		os.Exit(1)
	}
	if *nlmap < 0 || *nlmap > 2 {
		fmt.Fprintf(os.Stderr, "slush: bad output mapping %d\n", *nlmap)
		usage(os.Stderr)
		os.Exit(1)
	}

	sess, err := slush.Open(slush.Config{
		Device:       *device,
		BaudRate:     *baud,
		CRToNL:       *crnl,
		HardwareFlow: *flow,
		Raw:          mode.Raw(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "slush: %v\n", err)
		if errors.Is(err, slush.ErrUnsupportedBaud) {
			usage(os.Stderr)
		}
		os.Exit(1)
	}

	relay := slush.NewRelay(sess, os.Stdin, os.Stdout,
		slush.NewRenderer(mode), slush.NewlineMapping(*nlmap))
	err = relay.Run()
	sess.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "slush: %v\n", err)
		os.Exit(1)
	}
}
