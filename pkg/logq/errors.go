package logq

import (
	"errors"
)

var (
	// ErrDetached indicates the drain is not attached to a sink.
	ErrDetached = errors.New("drain detached")
	// ErrAlreadyAttached indicates the drain or listener is attached already.
	ErrAlreadyAttached = errors.New("already attached")
	// ErrNotAttached indicates the drain or listener is attached to a
	// different sink, or not attached at all.
	ErrNotAttached = errors.New("not attached to this sink")
	// ErrNoEntries indicates the drain has consumed everything available.
	ErrNoEntries = errors.New("no entries")
	// ErrInvalidEntry indicates an empty entry was offered to the sink.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrEntryTooLarge indicates the entry can never fit the sink buffer.
	// The sink counts it as dropped.
	ErrEntryTooLarge = errors.New("entry too large for sink buffer")
	// ErrBufferTooSmall indicates the caller's buffer cannot hold the next
	// entry; the entry remains available for a retry with a larger buffer.
	ErrBufferTooSmall = errors.New("buffer too small for entry")
	// ErrCorruptEntry indicates a stored entry had no decodable sequence
	// preamble. The entry is discarded.
	ErrCorruptEntry = errors.New("corrupt entry")
)
