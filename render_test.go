package slush

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainRender(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(ModePlain)

	require.NoError(t, r.Render(&buf, []byte("hello\n")))
	require.Equal(t, "hello\n", buf.String())

	// Bytes past a NUL are not part of the text fragment.
	buf.Reset()
	require.NoError(t, r.Render(&buf, []byte("hi\x00garbage")))
	require.Equal(t, "hi", buf.String())
}

func TestAnnotatedRender(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(ModeAnnotated)

	require.NoError(t, r.Render(&buf, []byte("hello")))
	require.Equal(t, "read  5 bytes {hello}\n", buf.String())

	// Counts of ten or more fill the fixed-width field.
	buf.Reset()
	require.NoError(t, r.Render(&buf, []byte("hello, world")))
	require.Equal(t, "read 12 bytes {hello, world}\n", buf.String())

	// The count reflects the read, the braces only the text fragment.
	buf.Reset()
	require.NoError(t, r.Render(&buf, []byte("ab\x00cd")))
	require.Equal(t, "read  5 bytes {ab}\n", buf.String())
}

func TestDebugRender(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(ModeDebug)

	require.NoError(t, r.Render(&buf, []byte{0x41, 0x00, 0x7e}))
	require.Equal(t, "41007e  A.~\n", buf.String())

	buf.Reset()
	require.NoError(t, r.Render(&buf, []byte("OK\r\n")))
	require.Equal(t, "4f4b0d0a  OK..\n", buf.String())
}

func TestTraceRender(t *testing.T) {
	clock := uint64(5)
	tr := &tracer{now: func() uint64 { return clock }}

	var buf bytes.Buffer
	require.NoError(t, tr.Render(&buf, []byte("hi")))
	require.Equal(t, "0 0 hi\n", buf.String())

	clock = 12
	buf.Reset()
	require.NoError(t, tr.Render(&buf, []byte("hi")))
	require.Equal(t, "7 7 hi\n", buf.String())

	// Back-to-back chunks in the same millisecond.
	buf.Reset()
	require.NoError(t, tr.Render(&buf, []byte("hi")))
	require.Equal(t, "7 0 hi\n", buf.String())

	clock = 40
	buf.Reset()
	require.NoError(t, tr.Render(&buf, []byte{0x02, 'x'}))
	require.Equal(t, "35 28 .x\n", buf.String())
}

func TestTraceRenderWallClock(t *testing.T) {
	tr := newTracer()

	var buf bytes.Buffer
	require.NoError(t, tr.Render(&buf, []byte("a")))
	require.Equal(t, "0 0 a\n", buf.String())
	require.True(t, tr.seen)
}

func TestModeRaw(t *testing.T) {
	require.False(t, ModePlain.Raw())
	require.False(t, ModeAnnotated.Raw())
	require.True(t, ModeDebug.Raw())
	require.True(t, ModeTrace.Raw())
}
