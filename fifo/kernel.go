//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Issue and dump kernels.
//

package fifo

import (
	"context"
	"fmt"

	"github.com/aurora-emu/x/aurora"
)

// Issue writes data to the stream as a sequence of words, like the issue
// kernel moving a buffer from device memory into an Aurora core.
//
// The last word is zero padded and its keep mask only enables the bytes
// actually carrying data. When frameSize is positive, every frameSize-th
// word has the Last flag set.
func Issue(ctx context.Context, s aurora.Stream, data []byte, frameSize int) error {
	words := (len(data) + aurora.DataBytes - 1) / aurora.DataBytes
	for idx := 0; idx < words; idx++ {
		chunk := data[idx*aurora.DataBytes:]
		elem := Element{Keep: aurora.KeepAll}
		if count := copy(elem.Data[:], chunk); count < aurora.DataBytes {
			elem.Keep = (uint64(1) << count) - 1
		}
		elem.Last = frameSize > 0 && (idx+1)%frameSize == 0
		if err := s.Write(ctx, elem); err != nil {
			return err
		}
	}
	return nil
}

// Dump reads the words carrying byteSize bytes from the stream and returns
// their data, like the dump kernel moving data from an Aurora core into
// device memory. A negative byteSize is an error.
func Dump(ctx context.Context, s aurora.Stream, byteSize int) ([]byte, error) {
	if byteSize < 0 {
		return nil, fmt.Errorf("fifo: invalid dump size: %d", byteSize)
	}
	words := (byteSize + aurora.DataBytes - 1) / aurora.DataBytes
	data := make([]byte, 0, words*aurora.DataBytes)
	for idx := 0; idx < words; idx++ {
		elem, err := s.Read(ctx)
		if err != nil {
			return nil, err
		}
		data = append(data, elem.Data[:]...)
	}
	return data[:byteSize], nil
}
