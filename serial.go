package slush

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// Defaults used by the command-line tool when no flags are given.
const (
	DefaultDevice = "/dev/ttyS0"
	DefaultBaud   = 115200
)

// Config holds the line settings applied when opening a serial device.
type Config struct {
	Device   string
	BaudRate int

	// CRToNL translates carriage return to newline on input.
	CRToNL bool

	// HardwareFlow enables RTS/CTS flow control.
	HardwareFlow bool

	// Raw disables canonical line assembly so bytes are delivered as they
	// arrive. Required for the byte-level display modes.
	Raw bool
}

// Session is an open serial device with its line discipline configured.
// Close is safe to call from another goroutine and unblocks a relay loop
// waiting on the device.
type Session struct {
	fd        int
	file      *os.File
	config    Config
	done      chan struct{}
	closeOnce sync.Once
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
}

// ErrUnsupportedBaud is returned for baud rates outside the supported set.
var ErrUnsupportedBaud = errors.New("unsupported baud rate")

// baudBits maps a numeric rate onto its termios Cflag bits. Only the
// classic UART rates are accepted.
func baudBits(rate int) (uint32, error) {
	switch rate {
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnsupportedBaud, rate)
}

// Open opens the device and configures its line discipline from scratch
// rather than layering on whatever state the terminal was left in. The
// baud rate is validated before the device is touched.
func Open(cfg Config) (*Session, error) {
	baud, err := baudBits(cfg.BaudRate)
	if err != nil {
		return nil, err
	}

	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", cfg.Device, err)
	}

	termios := unix.Termios{
		// Ignore framing errors and parity errors.
		Iflag: unix.IGNPAR,
		// No output post-processing.
		Oflag: 0,
		// 8-bit characters, ignore modem control lines, enable receiver.
		Cflag: baud | unix.CS8 | unix.CLOCAL | unix.CREAD,
	}
	if cfg.CRToNL {
		termios.Iflag |= unix.ICRNL
	}
	if cfg.HardwareFlow {
		termios.Cflag |= unix.CRTSCTS
	}
	if !cfg.Raw {
		termios.Lflag = unix.ICANON
	}

	// Reads block until at least one byte arrives or 1 second passes.
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 10

	// Drop any stale bytes queued before we configured the line.
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &termios); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set termios on %s: %w", cfg.Device, err)
	}

	// Turn back into blocking mode now that config is done.
	syscall.SetNonblock(fd, false)

	// Create self-pipe so Close can wake a blocked poll.
	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("pipe: %w", err)
	}

	return &Session{
		fd:     fd,
		file:   os.NewFile(uintptr(fd), cfg.Device),
		config: cfg,
		done:   make(chan struct{}),
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
	}, nil
}

// Device returns the path the session was opened with.
func (s *Session) Device() string {
	return s.config.Device
}

func (s *Session) Read(p []byte) (int, error) {
	return s.file.Read(p)
}

func (s *Session) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

// Close closes the serial device and unblocks any relay loop waiting on it.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		// Wake up poll using the self-pipe.
		unix.Write(s.pipeW, []byte{1})
		err = s.file.Close()
		unix.Close(s.pipeR)
		unix.Close(s.pipeW)
	})
	return err
}
