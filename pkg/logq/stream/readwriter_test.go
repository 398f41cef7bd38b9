package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/logq.go/pkg/logq/wire"
)

// drip yields one byte per Read to exercise reassembly.
type drip struct {
	bytes.Buffer
}

func (d *drip) Read(p []byte) (int, error) {
	if d.Len() == 0 {
		return 0, io.EOF
	}
	return d.Buffer.Read(p[:1])
}

func TestReadWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WriteFrame(append(wire.AppendPreamble(nil, 3), "hello"...)))
	require.NoError(t, rw.WriteFrame(append(wire.AppendPreamble(nil, 4), "world"...)))

	for i, want := range []string{"hello", "world"} {
		frame, err := rw.ReadFrame()
		require.NoError(t, err)
		seq, data, err := wire.ParsePreamble(frame)
		require.NoError(t, err)
		require.Equal(t, uint32(3+i), seq)
		require.Equal(t, want, string(data))
	}
	_, err := rw.ReadFrame()
	require.Equal(t, io.EOF, err)
}

func TestReadFrameBytewise(t *testing.T) {
	d := &drip{}
	rw := New(d)
	payload := bytes.Repeat([]byte{0x7e}, 300)
	require.NoError(t, rw.WriteFrame(payload))

	frame, err := rw.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, payload, frame)
}

func TestReadFrameBadPrefix(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0) // zero-length frame is never written
	rw := New(&buf)
	_, err := rw.ReadFrame()
	require.Equal(t, wire.ErrBadFrame, err)
}
