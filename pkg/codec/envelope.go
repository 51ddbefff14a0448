package codec

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Conn pairs a byte stream with a Token and turns it into an object
// channel: Send gob-encodes and seals a value into one frame, Receive
// reads one frame and opens and decodes it back into a value, mirroring
// pack_obj/send_obj/receive_obj in original_source/src/luxdb/connection.py.
//
// Any concrete type passed to Send must have been registered with
// encoding/gob (see pkg/command's init) so Receive can reconstruct it
// without the caller naming the type up front.
//
// Send and Close share a write mutex and a bufio.Writer so the length
// prefix and payload of one frame always reach the wire together, even
// if two goroutines call Send on the same Conn concurrently.
type Conn struct {
	r       io.Reader
	w       *bufio.Writer
	writeMu sync.Mutex
	token   *Token
}

// NewConn wraps rw with token for framed, authenticated object exchange.
func NewConn(rw io.ReadWriter, token *Token) *Conn {
	return &Conn{r: rw, w: bufio.NewWriter(rw), token: token}
}

// Send encodes, encrypts, and frames v.
func (c *Conn) Send(v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return fmt.Errorf("codec: encode: %w", err)
	}
	sealed, err := c.token.Seal(buf.Bytes())
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := WriteFrame(c.w, sealed); err != nil {
		return err
	}
	return c.w.Flush()
}

// Receive reads, authenticates, and decodes the next object. It returns
// ErrClosed if the peer sent the graceful-close sentinel instead.
func (c *Conn) Receive() (any, error) {
	payload, err := ReadFrame(c.r)
	if err != nil {
		if errors.Is(err, ErrClosed) || errors.Is(err, io.EOF) {
			return nil, ErrClosed
		}
		return nil, err
	}

	plaintext, err := c.token.Open(payload)
	if err != nil {
		return nil, err
	}

	var v any
	if err := gob.NewDecoder(bytes.NewReader(plaintext)).Decode(&v); err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	return v, nil
}

// Close sends the graceful-close sentinel. It does not close the
// underlying stream; callers own that lifecycle.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := WriteFrame(c.w, nil); err != nil {
		return err
	}
	return c.w.Flush()
}
