// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package frame implements the wire format of switch traffic.

A switch message consists of two frames. The first frame is the
destination identity, which the switch uses as routing key. The second
frame is the raw payload, which the switch never modifies.

Each frame is encoded as an unsigned varint length followed by the
frame bytes. A length prefix, rather than a separator, makes identity
matching exact: the identity "a1" is never a prefix match for "a10".

# Design Documents

This package is experimental and has no design documents for now.
*/
package frame

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

// MaxFrameSize is the largest frame we are willing to decode.
const MaxFrameSize = 1 << 20

var (
	// ErrFrameTooLarge indicates a frame larger than [MaxFrameSize].
	ErrFrameTooLarge = errors.New("frame: frame too large")

	// ErrTruncated indicates a message or frame missing some bytes.
	ErrTruncated = errors.New("frame: truncated frame")

	// ErrTrailingData indicates a message with extra bytes after the payload.
	ErrTrailingData = errors.New("frame: trailing data after payload")
)

// Message is a switch message.
type Message struct {
	// Tag is the destination identity.
	Tag []byte

	// Payload is the raw payload.
	Payload []byte
}

// New creates a new [Message] for the given identity and payload.
func New(identity string, payload []byte) Message {
	return Message{Tag: []byte(identity), Payload: payload}
}

// AppendFrame appends a single length-prefixed frame to buf.
func AppendFrame(buf, data []byte) []byte {
	buf = append(buf, varint.ToUvarint(uint64(len(data)))...)
	return append(buf, data...)
}

// MarshalBinary encodes both frames into a single buffer.
func (m Message) MarshalBinary() ([]byte, error) {
	if len(m.Tag) > MaxFrameSize || len(m.Payload) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	size := varint.UvarintSize(uint64(len(m.Tag))) + len(m.Tag) +
		varint.UvarintSize(uint64(len(m.Payload))) + len(m.Payload)
	buf := make([]byte, 0, size)
	buf = AppendFrame(buf, m.Tag)
	return AppendFrame(buf, m.Payload), nil
}

// UnmarshalBinary decodes a buffer produced by [Message.MarshalBinary].
//
// The decoded frames are copies and do not alias data.
func (m *Message) UnmarshalBinary(data []byte) error {
	tag, rest, err := cutFrame(data)
	if err != nil {
		return err
	}
	payload, rest, err := cutFrame(rest)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, len(rest))
	}
	m.Tag = append([]byte{}, tag...)
	m.Payload = append([]byte{}, payload...)
	return nil
}

// cutFrame splits the first frame from the rest of the buffer.
func cutFrame(data []byte) ([]byte, []byte, error) {
	size, count, err := varint.FromUvarint(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	if size > MaxFrameSize {
		return nil, nil, ErrFrameTooLarge
	}
	data = data[count:]
	if uint64(len(data)) < size {
		return nil, nil, ErrTruncated
	}
	return data[:size], data[size:], nil
}

// WriteFrame writes a single frame to w.
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(AppendFrame(nil, data))
	return err
}

// ReadFrame reads a single frame from r.
//
// A clean end of stream before the length prefix returns [io.EOF], while
// an end of stream inside a frame returns [ErrTruncated].
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	size, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, maybeTruncated(err)
	}
	if size > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, maybeTruncated(err)
	}
	return data, nil
}

// maybeTruncated maps an unexpected EOF to [ErrTruncated] and
// returns any other error unchanged.
func maybeTruncated(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}

// WriteMessage writes both frames of m to w using a single write.
func WriteMessage(w io.Writer, m Message) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadMessage reads both frames of a message from r.
func ReadMessage(r *bufio.Reader) (Message, error) {
	tag, err := ReadFrame(r)
	if err != nil {
		return Message{}, err
	}
	payload, err := ReadFrame(r)
	if errors.Is(err, io.EOF) {
		return Message{}, ErrTruncated
	}
	if err != nil {
		return Message{}, err
	}
	return Message{Tag: tag, Payload: payload}, nil
}
