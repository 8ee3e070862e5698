// Package slush implements a minimal, Linux-only interactive terminal for
// UART devices.
//
// It configures the serial line from scratch and then relays bytes in both
// directions: lines typed on standard input are sent to the device, with an
// optional rewrite of the trailing newline, and bytes arriving from the
// device are shown through one of four display modes (plain, annotated,
// hex/ASCII debug, or timestamped trace). One poll multiplexes both streams;
// there is no internal concurrency, no reconnect logic and no protocol
// framing. It is a session aid, not a transport.
//
// Features:
//   - termios configuration via raw syscalls: baud rate, 8N1, optional
//     RTS/CTS flow control, optional CR-to-NL input translation
//   - canonical line delivery for the text display modes, raw byte
//     delivery for the byte-level ones
//   - killability through a self-pipe, so Close unblocks a running relay
//   - PTY-based tests for reliability
//
// This package does **not** support Windows.
//
// Example usage:
//
//	sess, err := slush.Open(slush.Config{
//	    Device:   "/dev/ttyUSB0",
//	    BaudRate: 115200,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	relay := slush.NewRelay(sess, os.Stdin, os.Stdout,
//	    slush.NewRenderer(slush.ModePlain), slush.MapNone)
//	if err := relay.Run(); err != nil {
//	    log.Fatal(err)
//	}
package slush
