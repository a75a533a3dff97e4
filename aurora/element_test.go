// SPDX-License-Identifier: GPL-3.0-or-later

package aurora

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElement(t *testing.T) {
	t.Run("FromUint64", func(t *testing.T) {
		elem := FromUint64(345686)
		assert.Equal(t, uint64(345686), elem.Uint64())
		assert.Equal(t, KeepAll, elem.Keep)
		assert.False(t, elem.Last)
	})

	t.Run("serialization preserves every field", func(t *testing.T) {
		elem := FromUint64(7)
		elem.Data[DataBytes-1] = 0xab
		elem.Keep = 0x00ff
		elem.Last = true

		data, err := elem.MarshalBinary()
		require.NoError(t, err)
		assert.Len(t, data, ElementSize)

		var got Element
		require.NoError(t, got.UnmarshalBinary(data))
		assert.Equal(t, elem, got)
	})

	t.Run("AppendBinary appends", func(t *testing.T) {
		data, err := FromUint64(1).AppendBinary([]byte("xx"))
		require.NoError(t, err)
		assert.Len(t, data, ElementSize+2)
		assert.Equal(t, []byte("xx"), data[:2])
	})

	t.Run("wrong width", func(t *testing.T) {
		var elem Element
		err := elem.UnmarshalBinary(make([]byte, ElementSize-1))
		assert.ErrorIs(t, err, ErrPayloadWidth)
		err = elem.UnmarshalBinary(make([]byte, ElementSize+1))
		assert.ErrorIs(t, err, ErrPayloadWidth)
	})
}
