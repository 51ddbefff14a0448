package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sacovo/vectord/pkg/vdberr"
)

// frameLengthBytes is the width of the big-endian length prefix, matching
// original_source/src/luxdb/connection.py's INT_LENGTH.
const frameLengthBytes = 8

// ErrClosed is returned by ReadFrame when the peer sent a graceful-close
// sentinel (a zero-length frame) instead of a payload.
var ErrClosed = errors.New("codec: peer closed connection")

// WriteFrame writes payload as an 8-byte big-endian length prefix followed
// by payload itself. Passing a nil or empty payload writes the graceful-
// close sentinel. WriteFrame itself issues two independent writes with no
// locking of its own — callers that need the two halves to reach the wire
// atomically under concurrent use must serialize their own calls, the way
// Conn's writeMu does for Send/Close.
func WriteFrame(w io.Writer, payload []byte) error {
	var length [frameLengthBytes]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(payload)))

	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("codec: write frame length: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("codec: write frame payload: %w", err)
	}
	return nil
}

// WriteClose sends the zero-length sentinel that tells the peer this side
// is done sending frames.
func WriteClose(w io.Writer) error {
	return WriteFrame(w, nil)
}

// ReadFrame reads one length-prefixed frame from r. It returns ErrClosed
// if the frame is the zero-length close sentinel, and a *vdberr.ProtocolError
// if the stream ends mid-frame (a partial length prefix or a short payload),
// since that can only mean the peer vanished mid-write.
func ReadFrame(r io.Reader) ([]byte, error) {
	var length [frameLengthBytes]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &vdberr.ProtocolError{Reason: "truncated length prefix"}
	}

	size := binary.BigEndian.Uint64(length[:])
	if size == 0 {
		return nil, ErrClosed
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, &vdberr.ProtocolError{Reason: "truncated frame payload"}
	}
	return payload, nil
}
