package mqtt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/logq.go/pkg/logq/wire"
)

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic   string
		pattern string
		match   bool
	}{
		{"a/b/c", "a/b/c", true},
		{"a/b/c", "a/+/c", true},
		{"a/b/c", "+/+/+", true},
		{"a/b/c", "a/#", true},
		{"a/b/c", "#", true},
		{"a/b/c", "a/b", false},
		{"a/b", "a/b/c", false},
		{"a/x/c", "a/b/c", false},
		{"a/b/c", "a/b/#", true},
		{"a", "#", true},
	}
	for _, tc := range testCases {
		t.Run(tc.topic+"|"+tc.pattern, func(t *testing.T) {
			require.Equal(t, tc.match, MatchTopic(tc.topic, tc.pattern))
		})
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://user:pw@host:1883/robots/?client-id=abc")
	require.NoError(t, err)
	require.Equal(t, "robots/", prefix)
	require.Equal(t, "tcp://host:1883", opts.Servers[0].String())
	require.Equal(t, "user", opts.Username)
	require.Equal(t, "pw", opts.Password)
	require.Equal(t, "abc", opts.ClientID)

	opts, prefix, err = ClientOptionsFromURL("ssl://host:8883")
	require.NoError(t, err)
	require.Equal(t, "", prefix)
	require.Equal(t, "ssl://host:8883", opts.Servers[0].String())
	if opts.ClientID != "" {
		require.True(t, strings.HasPrefix(opts.ClientID, "logq-"))
	}
}

func TestReceiverGapTracking(t *testing.T) {
	type received struct {
		topic  string
		seq    uint32
		data   string
		missed uint32
	}
	var got []received
	r := &Receiver{OnEntry: func(topic string, seq uint32, data []byte, missed uint32) {
		got = append(got, received{topic, seq, string(data), missed})
	}}

	frame := func(seq uint32, data string) []byte {
		return append(wire.AppendPreamble(nil, seq), data...)
	}
	r.handle("dev1/log", frame(5, "a"))
	r.handle("dev1/log", frame(6, "b"))
	r.handle("dev1/log", frame(9, "c"))
	r.handle("dev2/log", frame(100, "x"))
	r.handle("dev2/log", frame(100+3, "y"))
	r.handle("dev1/log", []byte{0x80}) // undecodable preamble, ignored

	require.Equal(t, []received{
		{"dev1/log", 5, "a", 0},
		{"dev1/log", 6, "b", 0},
		{"dev1/log", 9, "c", 2},
		{"dev2/log", 100, "x", 0},
		{"dev2/log", 103, "y", 2},
	}, got)
}

func TestSubscriptionBookkeeping(t *testing.T) {
	opts, _, err := ClientOptionsFromURL("mqtt://localhost:1883?client-id=test")
	require.NoError(t, err)
	q := NewQueue(opts, "pre/")
	s1 := q.Sub("a/b", func(string, []byte) {})
	s2 := q.Sub("a/b", func(string, []byte) {})
	require.Len(t, q.subs["a/b"], 2)

	// Removing one of two keeps the broker subscription.
	require.NoError(t, s1.Close())
	require.Len(t, q.subs["a/b"], 1)
	// The last Close unsubscribes; the client is offline so the broker
	// call fails, but the local bookkeeping still settles.
	s2.Close()
	require.Empty(t, q.subs)
}
