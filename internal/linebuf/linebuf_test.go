package linebuf_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-systems/procwatch/internal/linebuf"
)

func newOpenPair(t *testing.T, capacity int, dest *bytes.Buffer) (*linebuf.LineBuffer, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(); _ = w.Close() })

	lb := linebuf.New(capacity, dest)
	lb.Open(int(r.Fd()))
	return lb, w
}

func TestPumpFlushesOnNewline(t *testing.T) {
	var dest bytes.Buffer
	lb, w := newOpenPair(t, 120, &dest)

	_, err := w.Write([]byte("hello world\n"))
	require.NoError(t, err)

	more, eof, err := lb.Pump("child")
	require.NoError(t, err)
	require.True(t, more)
	require.False(t, eof)
	require.Equal(t, "[child] hello world\n", dest.String())
}

func TestPumpSanitizesControlCharsAndDiscardsCR(t *testing.T) {
	var dest bytes.Buffer
	lb, w := newOpenPair(t, 120, &dest)

	_, err := w.Write([]byte("a\tb\rc\n"))
	require.NoError(t, err)

	_, _, err = lb.Pump("child")
	require.NoError(t, err)
	require.Equal(t, "[child] a b c\n", dest.String())
}

func TestPumpReportsEOFOnZeroRead(t *testing.T) {
	var dest bytes.Buffer
	lb, w := newOpenPair(t, 120, &dest)

	require.NoError(t, w.Close())

	more, eof, err := lb.Pump("child")
	require.NoError(t, err)
	require.False(t, more)
	require.True(t, eof)
	require.Equal(t, "[child] \n", dest.String())
}

func TestPumpForcedFlushOnFullBufferIsNotMistakenForEOF(t *testing.T) {
	var dest bytes.Buffer
	lb, w := newOpenPair(t, 4, &dest)

	_, err := w.Write([]byte("abcd"))
	require.NoError(t, err)

	more, eof, err := lb.Pump("child")
	require.NoError(t, err)
	require.True(t, more)
	require.False(t, eof)
	require.Equal(t, "[child] abcd\n", dest.String())

	require.True(t, lb.Quiescent() == false)
}

func TestMarkClosedTransitionsToQuiescent(t *testing.T) {
	var dest bytes.Buffer
	lb, _ := newOpenPair(t, 120, &dest)

	require.False(t, lb.Quiescent())
	lb.MarkClosed()
	require.True(t, lb.Quiescent())
	require.Equal(t, -1, lb.SourceFD())
}
