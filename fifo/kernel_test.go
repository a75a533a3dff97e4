// SPDX-License-Identifier: GPL-3.0-or-later

package fifo

import (
	"bytes"
	"context"
	"testing"

	"github.com/aurora-emu/x/aurora"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueDump(t *testing.T) {
	ctx := context.Background()

	t.Run("full words with framing", func(t *testing.T) {
		data := bytes.Repeat([]byte{0x5a}, 4*aurora.DataBytes)
		f := New("loop", 8)
		require.NoError(t, Issue(ctx, f, data, 2))
		assert.Equal(t, 4, f.Len())

		var lasts []bool
		var got []byte
		for !f.Empty() {
			elem, err := f.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, aurora.KeepAll, elem.Keep)
			lasts = append(lasts, elem.Last)
			got = append(got, elem.Data[:]...)
		}
		assert.Equal(t, []bool{false, true, false, true}, lasts)
		assert.Equal(t, data, got)
	})

	t.Run("partial last word", func(t *testing.T) {
		data := make([]byte, aurora.DataBytes+3)
		for i := range data {
			data[i] = byte(i)
		}
		f := New("loop", 8)
		require.NoError(t, Issue(ctx, f, data, 0))
		assert.Equal(t, 2, f.Len())

		first, err := f.Read(ctx)
		require.NoError(t, err)
		assert.False(t, first.Last)
		second, err := f.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x7), second.Keep)
		assert.False(t, second.Last)

		require.NoError(t, f.Write(ctx, first))
		require.NoError(t, f.Write(ctx, second))
		got, err := Dump(ctx, f, len(data))
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("dump reports stream errors", func(t *testing.T) {
		f := New("loop", 1)
		f.Close()
		_, err := Dump(ctx, f, 10)
		assert.ErrorIs(t, err, aurora.ErrStreamClosed)
	})

	t.Run("dump rejects a negative size", func(t *testing.T) {
		f := New("loop", 1)
		require.NoError(t, f.Write(ctx, aurora.FromUint64(1)))
		_, err := Dump(ctx, f, -1)
		assert.Error(t, err)
		assert.Equal(t, 1, f.Len())
	})

	t.Run("dump of nothing reads nothing", func(t *testing.T) {
		f := New("loop", 1)
		require.NoError(t, f.Write(ctx, aurora.FromUint64(1)))
		got, err := Dump(ctx, f, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 1, f.Len())
	})
}
