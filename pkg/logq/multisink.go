package logq

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/logq.go/pkg/logq/ring"
)

// maxPreambleBytes is the largest varint encoding of a 32-bit sequence ID.
const maxPreambleBytes = 5

// Option customizes a MultiSink at construction.
type Option func(*MultiSink)

// WithLocker replaces the default mutex guarding all sink state, for
// callers that must share a lock with surrounding code.
func WithLocker(l sync.Locker) Option {
	return func(s *MultiSink) {
		s.lock = l
	}
}

// MultiSink is a single-writer multi-reader log queue. Entries are opaque
// bytes stored in a fixed circular arena; each is stamped with a 32-bit
// wrapping sequence ID. Attached drains pull independently, and losses
// (eviction, Clear, or drops reported by the writer) surface per drain as
// a count derived from sequence ID gaps.
//
// One goroutine writes at a time; drains and listeners may be driven from
// any goroutine. All state is guarded by a single lock.
type MultiSink struct {
	lock      sync.Locker
	ring      ring.Buffer
	seq       uint32
	listeners []Listener
	scratch   []byte
}

// NewMultiSink builds a sink over the given byte region. The region
// belongs to the sink afterwards. An unusable region is a programming
// error and panics.
func NewMultiSink(region []byte, opts ...Option) *MultiSink {
	s := &MultiSink{lock: &sync.Mutex{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ring.SetBuffer(region); err != nil {
		panic(err)
	}
	s.scratch = make([]byte, maxPreambleBytes+len(region))
	return s
}

// BufferSize returns the arena capacity. A pull buffer of this size can
// hold any entry the sink will ever return.
func (s *MultiSink) BufferSize() int {
	return s.ring.TotalSizeBytes()
}

// HandleEntry stores one entry and returns the sequence ID it was
// assigned. An entry too large to ever fit still consumes a sequence ID,
// so drains observe it as dropped; empty entries are rejected outright.
// Listeners are notified before the call returns.
func (s *MultiSink) HandleEntry(entry []byte) (uint32, error) {
	if len(entry) == 0 {
		return 0, ErrInvalidEntry
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	seq := s.seq
	s.seq++
	m := binary.PutUvarint(s.scratch, uint64(seq))
	if ring.FrameSize(m+len(entry)) > s.ring.TotalSizeBytes() {
		s.notifyLocked()
		return seq, ErrEntryTooLarge
	}
	copy(s.scratch[m:], entry)
	if err := s.ring.PushBack(s.scratch[:m+len(entry)]); err != nil {
		return seq, err
	}
	s.notifyLocked()
	return seq, nil
}

// HandleDropped records count entries lost before they reached the sink,
// such as messages discarded at the producer. Drains observe them on
// their next pull.
func (s *MultiSink) HandleDropped(count uint32) {
	if count == 0 {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.seq += count
	s.notifyLocked()
}

// Clear removes all buffered entries. Sequence IDs keep counting, so
// drains observe the cleared entries as dropped.
func (s *MultiSink) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.ring.Clear()
}

// AttachDrain registers a drain. It sees only entries stored after this
// call.
func (s *MultiSink) AttachDrain(d *Drain) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if d.sink != nil {
		return ErrAlreadyAttached
	}
	if err := s.ring.Attach(&d.reader); err != nil {
		return err
	}
	d.sink = s
	d.lastHandled = s.seq - 1
	return nil
}

// DetachDrain removes a drain. The drain is unusable until attached again.
func (s *MultiSink) DetachDrain(d *Drain) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if d.sink != s {
		return ErrNotAttached
	}
	if err := s.ring.Detach(&d.reader); err != nil {
		return err
	}
	d.sink = nil
	return nil
}

// AttachListener registers a listener for new-entry notification.
func (s *MultiSink) AttachListener(l Listener) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, attached := range s.listeners {
		if attached == l {
			return ErrAlreadyAttached
		}
	}
	s.listeners = append(s.listeners, l)
	return nil
}

// DetachListener removes a listener.
func (s *MultiSink) DetachListener(l Listener) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i, attached := range s.listeners {
		if attached == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return nil
		}
	}
	return ErrNotAttached
}

func (s *MultiSink) notifyLocked() {
	for _, l := range s.listeners {
		l.OnNewEntryAvailable()
	}
}

// UnreadEntryCount returns the number of entries currently buffered for
// an attached drain, not counting entries already dropped.
func (s *MultiSink) UnreadEntryCount(d *Drain) uint32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return d.reader.EntryCount()
}

// popEntry implements Drain.PopEntry under the sink lock. Drop counts are
// derived from the gap between the pulled sequence ID and the last ID the
// drain handled; a caught-up drain reconciles against the newest ID
// assigned so writer-side drops surface without waiting for a stored
// entry.
func (s *MultiSink) popEntry(d *Drain, buf []byte) (Entry, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	n, size, err := d.reader.PeekFront(buf)
	if err == ring.ErrEmpty {
		latest := s.seq - 1
		drop := latest - d.lastHandled
		d.lastHandled = latest
		return Entry{DropCount: drop}, ErrNoEntries
	}
	if err != nil {
		return Entry{}, err
	}

	v, m := proto.DecodeVarint(buf[:n])
	if size > len(buf) {
		// The entry stays put for a retry; when the preamble made it
		// into buf the gap up to it can be settled now so the retry
		// reports zero.
		if m > 0 && v <= math.MaxUint32 {
			seq := uint32(v)
			drop := seq - d.lastHandled - 1
			d.lastHandled = seq - 1
			return Entry{DropCount: drop}, ErrBufferTooSmall
		}
		return Entry{}, ErrBufferTooSmall
	}
	if m == 0 || v > math.MaxUint32 {
		d.reader.SkipFront()
		return Entry{}, ErrCorruptEntry
	}

	seq := uint32(v)
	drop := seq - d.lastHandled - 1
	d.lastHandled = seq
	d.reader.SkipFront()
	return Entry{Bytes: buf[m:size], Sequence: seq, DropCount: drop}, nil
}
