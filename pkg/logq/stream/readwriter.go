// Package stream carries log frames over byte streams such as pipes,
// sockets, and serial links.
package stream

import (
	"io"

	"github.com/robotalks/logq.go/pkg/logq/wire"
)

// ReadWriter implements wire.FrameReadWriter over an io.ReadWriter.
// Each frame payload is delimited by a varint length prefix, so partial
// reads of any size reassemble correctly.
type ReadWriter struct {
	io.ReadWriter

	dec     wire.Decoder
	rbuf    [512]byte
	pending []byte
}

// New creates a ReadWriter over s.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s}
}

// ReadFrame implements wire.FrameReader.
func (p *ReadWriter) ReadFrame() ([]byte, error) {
	for {
		for len(p.pending) > 0 {
			b := p.pending[0]
			p.pending = p.pending[1:]
			frame, err := p.dec.Decode(b)
			if err != nil {
				return nil, err
			}
			if frame != nil {
				return frame, nil
			}
		}
		n, err := p.Read(p.rbuf[:])
		if n > 0 {
			p.pending = p.rbuf[:n]
		} else if err != nil {
			return nil, err
		}
	}
}

// WriteFrame implements wire.FrameWriter.
func (p *ReadWriter) WriteFrame(payload []byte) error {
	buf := wire.AppendDelimited(make([]byte, 0, len(payload)+5), payload)
	_, err := p.Write(buf)
	return err
}
