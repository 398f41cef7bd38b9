package mqtt

import (
	"github.com/robotalks/logq.go/pkg/logq/pump"
)

// Forwarder publishes wire frames to a topic. It implements
// wire.FrameWriter so a pump can stream a sink over the broker.
type Forwarder struct {
	Queue *Queue
	Topic string
	QoS   byte
}

// WriteFrame implements wire.FrameWriter.
func (f *Forwarder) WriteFrame(payload []byte) error {
	token := f.Queue.PubWith(f.Topic, payload, f.QoS, false)
	token.Wait()
	return token.Error()
}

// Handler returns a pump.Handler publishing drained entries through
// this forwarder.
func (f *Forwarder) Handler() pump.Handler {
	return pump.ForwardTo(f)
}
