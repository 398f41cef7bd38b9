// Package wire encodes log entries for transport. A frame payload is the
// varint sequence preamble followed by the entry bytes; on byte streams
// each payload is delimited by a varint length prefix.
package wire

import (
	"errors"
	"math"

	"github.com/golang/protobuf/proto"
)

// ErrBadFrame indicates a frame with an undecodable preamble or length.
var ErrBadFrame = errors.New("bad frame")

// FrameReader reads frame payloads.
type FrameReader interface {
	ReadFrame() ([]byte, error)
}

// FrameWriter writes frame payloads.
type FrameWriter interface {
	WriteFrame([]byte) error
}

// FrameReadWriter reads/writes frame payloads.
type FrameReadWriter interface {
	FrameReader
	FrameWriter
}

// AppendPreamble appends the varint encoding of seq to dst.
func AppendPreamble(dst []byte, seq uint32) []byte {
	return append(dst, proto.EncodeVarint(uint64(seq))...)
}

// ParsePreamble splits a frame payload into its sequence ID and entry
// bytes.
func ParsePreamble(p []byte) (uint32, []byte, error) {
	v, n := proto.DecodeVarint(p)
	if n == 0 || v > math.MaxUint32 {
		return 0, nil, ErrBadFrame
	}
	return uint32(v), p[n:], nil
}

// AppendDelimited appends payload to dst prefixed by its varint length.
func AppendDelimited(dst, payload []byte) []byte {
	dst = append(dst, proto.EncodeVarint(uint64(len(payload)))...)
	return append(dst, payload...)
}

// AppendFrame appends one delimited frame carrying seq and data to dst.
func AppendFrame(dst []byte, seq uint32, data []byte) []byte {
	pre := proto.EncodeVarint(uint64(seq))
	dst = append(dst, proto.EncodeVarint(uint64(len(pre)+len(data)))...)
	dst = append(dst, pre...)
	return append(dst, data...)
}
