// Package wire implements the chat wire format: each logical message is a
// single UTF-8 string framed as [2-byte big-endian length][payload]. The
// framing is compatible with Java's DataOutputStream.writeUTF for plain
// ASCII and BMP text, which is what the original clients speak.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxMessageSize is the largest payload a single frame can carry. The
// 2-byte length prefix caps it at 64KiB-1.
const MaxMessageSize = 1<<16 - 1

// ErrMessageTooLarge is returned when a message exceeds MaxMessageSize.
var ErrMessageTooLarge = errors.New("wire: message too large")

// WriteMessage sends one string as a discrete frame. The frame is
// assembled into a single buffer so one call results in one Write,
// keeping concurrent senders from interleaving partial frames as long
// as they serialize on the same writer.
func WriteMessage(w io.Writer, text string) error {
	if len(text) > MaxMessageSize {
		return ErrMessageTooLarge
	}
	buf := make([]byte, 2+len(text))
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(text)))
	copy(buf[2:], text)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}
	return nil
}

// ReadMessage blocks until one complete frame is available and returns its
// payload. A peer disconnect or a short frame surfaces as an error; no
// partial-frame state is retained between calls.
func ReadMessage(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", fmt.Errorf("wire: read length: %w", err)
	}
	length := binary.BigEndian.Uint16(lenBuf[:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", fmt.Errorf("wire: read payload: %w", err)
	}
	return string(payload), nil
}
