//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// AXI-stream word.
//

package aurora

import (
	"encoding/binary"
	"fmt"
)

const (
	// DataBytes is the width of the data field of an [Element] (512 bits).
	DataBytes = 64

	// ElementSize is the size of a serialized [Element]: data, keep mask
	// and last flag.
	ElementSize = DataBytes + 8 + 1

	// KeepAll is the keep mask enabling every data byte.
	KeepAll = ^uint64(0)
)

// Element is one word of a 512-bit AXI stream.
//
// The zero value is a valid word with all data bytes disabled.
type Element struct {
	// Data is the word payload in little-endian byte order.
	Data [DataBytes]byte

	// Keep is the byte-enable mask: bit i set means Data[i] is valid.
	Keep uint64

	// Last marks the final word of a frame.
	Last bool
}

// FromUint64 returns an [Element] whose data is the little-endian
// encoding of v, with every byte enabled.
func FromUint64(v uint64) Element {
	elem := Element{Keep: KeepAll}
	binary.LittleEndian.PutUint64(elem.Data[:8], v)
	return elem
}

// Uint64 returns the low 64 bits of the data.
func (e Element) Uint64() uint64 {
	return binary.LittleEndian.Uint64(e.Data[:8])
}

// String returns a compact representation of the element.
func (e Element) String() string {
	return fmt.Sprintf("data=%x keep=%016x last=%v", e.Data, e.Keep, e.Last)
}

// MarshalBinary implements [encoding.BinaryMarshaler].
//
// The returned slice is always [ElementSize] bytes long.
func (e Element) MarshalBinary() ([]byte, error) {
	return e.AppendBinary(make([]byte, 0, ElementSize))
}

// AppendBinary appends the serialized element to buf.
func (e Element) AppendBinary(buf []byte) ([]byte, error) {
	buf = append(buf, e.Data[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, e.Keep)
	if e.Last {
		return append(buf, 1), nil
	}
	return append(buf, 0), nil
}

// UnmarshalBinary implements [encoding.BinaryUnmarshaler].
//
// It returns [ErrPayloadWidth] unless data is exactly [ElementSize] bytes.
func (e *Element) UnmarshalBinary(data []byte) error {
	if len(data) != ElementSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPayloadWidth, len(data), ElementSize)
	}
	copy(e.Data[:], data[:DataBytes])
	e.Keep = binary.LittleEndian.Uint64(data[DataBytes : DataBytes+8])
	e.Last = data[ElementSize-1] != 0
	return nil
}
