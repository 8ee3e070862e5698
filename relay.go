package slush

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// bufLen bounds both a line read from the operator and a chunk read from
// the device.
const bufLen = 1024

// NewlineMapping rewrites the terminator of each line sent to the device.
type NewlineMapping int

const (
	// MapNone sends the line exactly as read.
	MapNone NewlineMapping = iota
	// MapCR overwrites the trailing newline with a carriage return.
	MapCR
	// MapCRNL overwrites the trailing newline with CR and appends NL.
	MapCRNL
)

// Apply rewrites the line terminator in place according to the mapping and
// returns the line to transmit. An empty line is returned untouched since
// there is no terminator to overwrite.
func (m NewlineMapping) Apply(line []byte) []byte {
	if len(line) == 0 {
		return line
	}
	switch m {
	case MapCR:
		line[len(line)-1] = '\r'
	case MapCRNL:
		line[len(line)-1] = '\r'
		line = append(line, '\n')
	}
	return line
}

// Fatal device conditions reported by the relay loop.
var (
	ErrDeviceError = errors.New("device error (POLLERR)")
	ErrHangup      = errors.New("device hangup (POLLHUP)")
)

// Relay shuttles bytes between the operator's input stream and an open
// serial session until the input ends or the device fails.
type Relay struct {
	sess   *Session
	in     *os.File
	out    *bufio.Writer
	render Renderer
	nlmap  NewlineMapping
}

// NewRelay builds a relay over sess that reads operator lines from in and
// renders device output onto out using r.
func NewRelay(sess *Session, in *os.File, out io.Writer, r Renderer, m NewlineMapping) *Relay {
	return &Relay{
		sess:   sess,
		in:     in,
		out:    bufio.NewWriter(out),
		render: r,
		nlmap:  m,
	}
}

// Run blocks relaying bytes in both directions. It returns nil when the
// operator's input reaches end of stream or the session is closed, and an
// error for any device or wait failure. All failures are final; there is
// no retry path.
func (r *Relay) Run() error {
	line := make([]byte, 0, bufLen+1)
	reply := make([]byte, bufLen)

	for {
		pfd := []unix.PollFd{
			{Fd: int32(r.in.Fd()), Events: unix.POLLIN | unix.POLLPRI},
			{Fd: int32(r.sess.fd), Events: unix.POLLIN | unix.POLLPRI},
			{Fd: int32(r.sess.pipeR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(pfd, -1)

		// A concurrent Close may have invalidated the fds; check before
		// interpreting whatever poll reported.
		select {
		case <-r.sess.done:
			return nil
		default:
		}
		if err == unix.EINTR {
			// The runtime's preemption signals interrupt raw syscalls.
			continue
		}
		if err != nil {
			return fmt.Errorf("poll failed: %w", err)
		}
		if n == 0 {
			// The wait has no timeout and must never return empty-handed.
			return errors.New("poll: unexpected time out")
		}

		if pfd[2].Revents&unix.POLLIN != 0 {
			var b [1]byte
			unix.Read(r.sess.pipeR, b[:])
			return nil
		}

		// A pipe on the operator side reports end of input as POLLHUP
		// with no POLLIN; fold it into the read path so the EOF shows
		// up as a zero-byte line read.
		if pfd[0].Revents&(unix.POLLIN|unix.POLLPRI|unix.POLLHUP|unix.POLLERR) != 0 {
			cnt, err := readLine(r.in, line[:bufLen])
			if cnt == 0 {
				if err == nil || err == io.EOF {
					// End of operator input, the clean way out.
					return nil
				}
				return fmt.Errorf("read input: %w", err)
			}
			out := r.nlmap.Apply(line[:cnt])
			if _, err := r.sess.Write(out); err != nil {
				return fmt.Errorf("write %s: %w", r.sess.Device(), err)
			}
		}

		rev := pfd[1].Revents
		if rev&unix.POLLERR != 0 {
			return fmt.Errorf("%s: %w", r.sess.Device(), ErrDeviceError)
		}
		if rev&unix.POLLHUP != 0 {
			return fmt.Errorf("%s: %w", r.sess.Device(), ErrHangup)
		}
		if rev&(unix.POLLIN|unix.POLLPRI) != 0 {
			cnt, err := r.sess.Read(reply)
			if err != nil && err != io.EOF {
				return fmt.Errorf("read %s: %w", r.sess.Device(), err)
			}
			// A zero-byte read is still rendered; a hung-up device is
			// caught by the condition flags above, not here.
			if err := r.render.Render(r.out, reply[:cnt]); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			// Flush right away so partial exchanges stay visible.
			if err := r.out.Flush(); err != nil {
				return fmt.Errorf("flush output: %w", err)
			}
		}
	}
}

// readLine fills buf from f one byte at a time, stopping after a newline or
// when buf is full. Reading byte-wise avoids buffering input past the
// newline, which would desynchronize the poll loop. Returns the number of
// bytes read; zero means end of input.
func readLine(f *os.File, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := f.Read(buf[n : n+1])
		if m > 0 {
			n += m
			if buf[n-1] == '\n' {
				break
			}
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
