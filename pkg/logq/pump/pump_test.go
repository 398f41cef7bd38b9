package pump

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/logq.go/pkg/logq"
	"github.com/robotalks/logq.go/pkg/logq/wire"
)

type recorder struct {
	entries []logq.Entry
}

func (r *recorder) HandleDrainedEntry(_ context.Context, e logq.Entry) error {
	e.Bytes = append([]byte(nil), e.Bytes...)
	r.entries = append(r.entries, e)
	return nil
}

func cancelled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestPumpFlushesBacklogOnCancel(t *testing.T) {
	sink := logq.NewMultiSink(make([]byte, 256))
	rec := &recorder{}
	p, err := New(sink, rec)
	require.NoError(t, err)

	for _, payload := range []string{"a", "b", "c"} {
		_, err := sink.HandleEntry([]byte(payload))
		require.NoError(t, err)
	}

	require.Equal(t, context.Canceled, p.Run(cancelled()))
	require.Len(t, rec.entries, 3)
	require.Equal(t, "a", string(rec.entries[0].Bytes))
	require.Equal(t, "c", string(rec.entries[2].Bytes))
}

func TestPumpReportsGapWithoutEntry(t *testing.T) {
	sink := logq.NewMultiSink(make([]byte, 256))
	rec := &recorder{}
	p, err := New(sink, rec)
	require.NoError(t, err)

	sink.HandleDropped(2)

	require.Equal(t, context.Canceled, p.Run(cancelled()))
	require.Len(t, rec.entries, 1)
	require.Nil(t, rec.entries[0].Bytes)
	require.Equal(t, uint32(2), rec.entries[0].DropCount)
}

func TestPumpStopsOnHandlerError(t *testing.T) {
	sink := logq.NewMultiSink(make([]byte, 256))
	fail := errors.New("handler failed")
	var handled int
	p, err := New(sink, HandlerFunc(func(_ context.Context, e logq.Entry) error {
		handled++
		return fail
	}))
	require.NoError(t, err)

	sink.HandleEntry([]byte("a"))
	sink.HandleEntry([]byte("b"))

	require.Equal(t, fail, p.Run(cancelled()))
	require.Equal(t, 1, handled)
}

func TestPumpDeliversWhileRunning(t *testing.T) {
	sink := logq.NewMultiSink(make([]byte, 256))
	ch := make(chan logq.Entry, 16)
	p, err := New(sink, HandlerFunc(func(_ context.Context, e logq.Entry) error {
		e.Bytes = append([]byte(nil), e.Bytes...)
		ch <- e
		return nil
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	recv := func() logq.Entry {
		select {
		case e := <-ch:
			return e
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for entry")
			return logq.Entry{}
		}
	}

	sink.HandleEntry([]byte("x"))
	require.Equal(t, "x", string(recv().Bytes))

	sink.HandleDropped(1)
	sink.HandleEntry([]byte("z"))
	var drops uint32
	for {
		e := recv()
		drops += e.DropCount
		if string(e.Bytes) == "z" {
			break
		}
	}
	require.Equal(t, uint32(1), drops)

	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pump to stop")
	}
}

type frameSink struct {
	frames [][]byte
}

func (s *frameSink) WriteFrame(p []byte) error {
	s.frames = append(s.frames, p)
	return nil
}

func TestForwardTo(t *testing.T) {
	fs := &frameSink{}
	h := ForwardTo(fs)

	require.NoError(t, h.HandleDrainedEntry(context.Background(), logq.Entry{
		Bytes: []byte("hello"), Sequence: 9, DropCount: 1,
	}))
	require.NoError(t, h.HandleDrainedEntry(context.Background(), logq.Entry{
		DropCount: 3,
	}))
	require.Len(t, fs.frames, 1)

	seq, data, err := wire.ParsePreamble(fs.frames[0])
	require.NoError(t, err)
	require.Equal(t, uint32(9), seq)
	require.Equal(t, "hello", string(data))
}
