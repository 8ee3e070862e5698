package slush

import (
	"bytes"
	"fmt"
	"io"
	"time"
)

// Mode selects how bytes received from the device are shown.
type Mode int

const (
	// ModePlain writes received text through untouched.
	ModePlain Mode = iota
	// ModeAnnotated prefixes each chunk with its byte count.
	ModeAnnotated
	// ModeDebug dumps each chunk as hex plus a printable rendering.
	ModeDebug
	// ModeTrace prefixes the printable rendering with relative timestamps.
	ModeTrace
)

// Raw reports whether the mode needs byte-level delivery from the device.
// The hex and trace dumps are useless if partial or binary frames sit in
// the line discipline until a terminator shows up.
func (m Mode) Raw() bool {
	return m == ModeDebug || m == ModeTrace
}

// Renderer formats one chunk of received bytes onto w.
type Renderer interface {
	Render(w io.Writer, p []byte) error
}

// NewRenderer returns the renderer for the given display mode.
func NewRenderer(m Mode) Renderer {
	switch m {
	case ModeAnnotated:
		return annotated{}
	case ModeDebug:
		return debugHex{}
	case ModeTrace:
		return newTracer()
	}
	return plain{}
}

// textFragment cuts p at the first NUL, matching the C-string view of a
// received buffer.
func textFragment(p []byte) []byte {
	if i := bytes.IndexByte(p, 0); i >= 0 {
		return p[:i]
	}
	return p
}

// printable substitutes '.' for every byte outside printable ASCII.
func printable(p []byte) []byte {
	out := make([]byte, len(p))
	for i, b := range p {
		if b >= 0x20 && b < 0x7f {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return out
}

type plain struct{}

func (plain) Render(w io.Writer, p []byte) error {
	_, err := w.Write(textFragment(p))
	return err
}

type annotated struct{}

func (annotated) Render(w io.Writer, p []byte) error {
	_, err := fmt.Fprintf(w, "read %2d bytes {%s}\n", len(p), textFragment(p))
	return err
}

type debugHex struct{}

func (debugHex) Render(w io.Writer, p []byte) error {
	_, err := fmt.Fprintf(w, "%x  %s\n", p, printable(p))
	return err
}

// tracer renders chunks with the elapsed milliseconds since the previous
// chunk and a running total. The clock state lives on the instance; the
// first chunk seen reports an elapsed time of zero.
type tracer struct {
	now   func() uint64 // monotonic milliseconds
	last  uint64
	total uint64
	seen  bool
}

func newTracer() *tracer {
	epoch := time.Now()
	return &tracer{
		now: func() uint64 {
			return uint64(time.Since(epoch) / time.Millisecond)
		},
	}
}

func (t *tracer) Render(w io.Writer, p []byte) error {
	now := t.now()
	var diff uint64
	if t.seen {
		diff = now - t.last
		t.total += diff
	}
	t.seen = true
	t.last = now

	_, err := fmt.Fprintf(w, "%d %d %s\n", t.total, diff, printable(p))
	return err
}
