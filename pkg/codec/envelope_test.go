package codec

import (
	"bytes"
	"encoding/gob"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type envelopeTestPayload struct {
	Name string
	Ids  []int
}

func init() {
	gob.Register(envelopeTestPayload{})
}

func TestConnSendReceiveRoundTrip(t *testing.T) {
	tok, err := NewToken("secret", TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	var transport bytes.Buffer
	conn := NewConn(&transport, tok)

	sent := envelopeTestPayload{Name: "widgets", Ids: []int{1, 2, 3}}
	require.NoError(t, conn.Send(sent))

	got, err := conn.Receive()
	require.NoError(t, err)
	require.Equal(t, sent, got)
}

func TestConnReceiveAfterCloseReturnsErrClosed(t *testing.T) {
	tok, err := NewToken("secret", TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	var transport bytes.Buffer
	conn := NewConn(&transport, tok)

	require.NoError(t, conn.Close())

	_, err = conn.Receive()
	require.ErrorIs(t, err, ErrClosed)
}

// TestConnSendIsSerializedAcrossGoroutines guards against two frames'
// length prefixes and payloads interleaving on the wire: every concurrent
// Send must reach the transport as one unbroken length-prefix+payload
// pair, or Receive would desync and fail to decode at least one of them.
func TestConnSendIsSerializedAcrossGoroutines(t *testing.T) {
	tok, err := NewToken("secret", TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	var transport bytes.Buffer
	conn := NewConn(&transport, tok)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			require.NoError(t, conn.Send(envelopeTestPayload{Name: "widgets", Ids: []int{i}}))
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		got, err := conn.Receive()
		require.NoError(t, err)
		payload, ok := got.(envelopeTestPayload)
		require.True(t, ok)
		require.Len(t, payload.Ids, 1)
		seen[payload.Ids[0]] = true
	}
	require.Len(t, seen, n)
}
