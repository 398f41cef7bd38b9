package logq

import (
	"github.com/robotalks/logq.go/pkg/logq/ring"
)

// Entry is one pull result from a drain. Bytes aliases the buffer passed
// to PopEntry and is only valid until the next call with that buffer.
type Entry struct {
	// Bytes is the entry payload, nil when no entry was returned.
	Bytes []byte
	// Sequence is the sequence ID the sink assigned to the entry.
	Sequence uint32
	// DropCount is the number of entries lost to this drain since its
	// previous pull, whether evicted, cleared, or reported via
	// HandleDropped.
	DropCount uint32
}

// Drain pulls entries from a MultiSink at its own pace. The zero value is
// detached; storage belongs to the caller, the sink only links it.
type Drain struct {
	sink        *MultiSink
	reader      ring.Reader
	lastHandled uint32
}

// PopEntry copies the oldest unconsumed entry into buf and returns it
// together with the drop count accumulated since the previous call.
//
// ErrNoEntries means the drain is caught up; the returned Entry still
// carries any pending DropCount. ErrBufferTooSmall means buf cannot hold
// the entry; retry with a larger buffer sized from the sink's BufferSize.
func (d *Drain) PopEntry(buf []byte) (Entry, error) {
	if d.sink == nil {
		return Entry{}, ErrDetached
	}
	return d.sink.popEntry(d, buf)
}

// UnreadCount returns the number of entries currently buffered for this
// drain. It does not include entries already dropped.
func (d *Drain) UnreadCount() uint32 {
	if d.sink == nil {
		return 0
	}
	return d.sink.UnreadEntryCount(d)
}

// Listener is notified whenever the sink accepts an entry or a drop
// report. Callbacks run under the sink lock: they must not call back into
// the sink, and should hand off to another goroutine for real work.
type Listener interface {
	OnNewEntryAvailable()
}
