// Package pump drives a drain in its own goroutine, delivering entries
// to a handler as the sink accepts them.
package pump

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/logq.go/pkg/logq"
	"github.com/robotalks/logq.go/pkg/logq/wire"
)

// Handler consumes drained entries. An entry with nil Bytes and nonzero
// DropCount reports a gap with nothing attached to it.
type Handler interface {
	HandleDrainedEntry(ctx context.Context, entry logq.Entry) error
}

// HandlerFunc is the func form of Handler.
type HandlerFunc func(ctx context.Context, entry logq.Entry) error

// HandleDrainedEntry implements Handler.
func (f HandlerFunc) HandleDrainedEntry(ctx context.Context, entry logq.Entry) error {
	return f(ctx, entry)
}

// Pump owns one drain on a sink and forwards everything it yields to a
// handler. It implements framework.Runnable; entries flow only while Run
// is active. A handler error stops the pump and surfaces from Run.
type Pump struct {
	sink    *logq.MultiSink
	handler Handler
	drain   logq.Drain
	wakeCh  chan struct{}
}

// New creates a Pump delivering entries from sink to handler. The drain
// attaches immediately, so entries stored before Run starts are not
// lost; they are delivered once Run is active.
func New(sink *logq.MultiSink, handler Handler) (*Pump, error) {
	p := &Pump{
		sink:    sink,
		handler: handler,
		wakeCh:  make(chan struct{}, 1),
	}
	if err := sink.AttachDrain(&p.drain); err != nil {
		return nil, err
	}
	if err := sink.AttachListener(p); err != nil {
		sink.DetachDrain(&p.drain)
		return nil, err
	}
	return p, nil
}

// OnNewEntryAvailable implements logq.Listener. It runs under the sink
// lock and only nudges the pump goroutine.
func (p *Pump) OnNewEntryAvailable() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// Run implements framework.Runnable. On cancellation the pump flushes
// whatever is still buffered before detaching. Run detaches the drain on
// return; the pump is not reusable afterwards.
func (p *Pump) Run(ctx context.Context) error {
	defer p.sink.DetachDrain(&p.drain)
	defer p.sink.DetachListener(p)

	buf := make([]byte, p.sink.BufferSize())
	for {
		if err := p.flush(ctx, buf); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			if err := p.flush(context.Background(), buf); err != nil {
				return err
			}
			return ctx.Err()
		case <-p.wakeCh:
		}
	}
}

func (p *Pump) flush(ctx context.Context, buf []byte) error {
	for {
		e, err := p.drain.PopEntry(buf)
		switch err {
		case nil:
		case logq.ErrNoEntries:
			if e.DropCount == 0 {
				return nil
			}
			return p.handler.HandleDrainedEntry(ctx, e)
		case logq.ErrCorruptEntry:
			glog.Warning("pump: discarding corrupt entry")
			continue
		default:
			return err
		}
		if err := p.handler.HandleDrainedEntry(ctx, e); err != nil {
			return err
		}
	}
}

// ForwardTo returns a Handler writing entries as wire frames. Gap-only
// reports are not written; receivers recover the gap from the sequence
// ID of the next frame.
func ForwardTo(w wire.FrameWriter) Handler {
	return HandlerFunc(func(_ context.Context, e logq.Entry) error {
		if len(e.Bytes) == 0 {
			return nil
		}
		payload := wire.AppendPreamble(make([]byte, 0, len(e.Bytes)+5), e.Sequence)
		return w.WriteFrame(append(payload, e.Bytes...))
	})
}
