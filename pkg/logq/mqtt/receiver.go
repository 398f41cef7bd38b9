package mqtt

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/logq.go/pkg/logq/wire"
)

// EntryFunc receives one remote entry together with the number of
// entries from the same topic that never arrived before it.
type EntryFunc func(topic string, seq uint32, data []byte, missed uint32)

// Receiver subscribes to forwarded log frames and recovers per-topic
// gaps from sequence IDs. Subscribe to a wildcard topic to follow many
// sources at once; gaps are tracked per concrete topic.
type Receiver struct {
	Queue   *Queue
	Topic   string
	OnEntry EntryFunc

	lock sync.Mutex
	last map[string]uint32
}

// Run implements framework.Runnable, subscribing for the life of ctx.
func (r *Receiver) Run(ctx context.Context) error {
	sub := r.Queue.Sub(r.Topic, r.handle)
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (r *Receiver) handle(topic string, payload []byte) {
	seq, data, err := wire.ParsePreamble(payload)
	if err != nil {
		glog.Warningf("bad frame on %q: %v", topic, err)
		return
	}
	var missed uint32
	r.lock.Lock()
	if last, ok := r.last[topic]; ok {
		missed = seq - last - 1
	}
	if r.last == nil {
		r.last = make(map[string]uint32)
	}
	r.last[topic] = seq
	r.lock.Unlock()
	if h := r.OnEntry; h != nil {
		h(topic, seq, data, missed)
	}
}
