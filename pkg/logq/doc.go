// Package logq provides an asynchronous single-writer multi-reader log queue.
package logq

// The queue stores opaque byte entries in a fixed circular arena and
// assigns every entry a 32-bit sequence ID. Readers (drains) pull entries
// at their own pace; when the writer outruns a reader the oldest entries
// are overwritten and the reader learns exactly how many entries it
// missed from the sequence ID gap reported on its next pull. Writers may
// also record entries dropped before they ever reached the queue, which
// readers observe the same way.
//
// Storing and pulling entries never allocate after construction; only
// attaching drains and listeners may grow the sink's internal lists. Every
// operation completes in bounded time, so the queue is suitable as the log
// core of long-running device daemons.
//
// Producer: the single writer (one goroutine at a time)
// Consumer: any number of drains, each pumped independently
