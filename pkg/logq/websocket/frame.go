// Package websocket carries log frames over websocket messages, one
// frame payload per binary message.
package websocket

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/logq.go/pkg/logq"
	"github.com/robotalks/logq.go/pkg/logq/pump"
)

// FrameConn implements wire.FrameReadWriter over a websocket connection.
type FrameConn websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *FrameConn {
	return (*FrameConn)(conn)
}

// ReadFrame implements wire.FrameReader.
func (c *FrameConn) ReadFrame() (payload []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(c), &payload)
	return
}

// WriteFrame implements wire.FrameWriter.
func (c *FrameConn) WriteFrame(payload []byte) error {
	return websocket.Message.Send((*websocket.Conn)(c), payload)
}

// Server streams a sink to websocket clients. Every connection gets a
// drain of its own, so slow clients lose entries independently.
type Server struct {
	Sink *logq.MultiSink
}

// Handler returns the http.Handler accepting follower connections.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

func (s *Server) serve(conn *websocket.Conn) {
	p, err := pump.New(s.Sink, pump.ForwardTo(New(conn)))
	if err != nil {
		glog.Errorf("follower rejected: %v", err)
		conn.Close()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// Any read, including EOF, ends the session; followers send
		// nothing.
		var discard []byte
		websocket.Message.Receive(conn, &discard)
		cancel()
	}()
	if err := p.Run(ctx); err != nil && err != context.Canceled {
		glog.V(1).Infof("follower disconnected: %v", err)
	}
	cancel()
	conn.Close()
}
