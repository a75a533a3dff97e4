// SPDX-License-Identifier: GPL-3.0-or-later

package aurora

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		addr := Local("hans")
		assert.True(t, addr.IsValid())
		assert.Equal(t, "ipc://hans", addr.String())
		assert.Equal(t, NetworkIPC, addr.Network())
		assert.Equal(t, "hans", addr.Endpoint())
		assert.Equal(t, uint16(0), addr.Port())
	})

	t.Run("remote", func(t *testing.T) {
		addr := Remote("127.0.0.1", 20003)
		assert.Equal(t, "tcp://127.0.0.1:20003", addr.String())
		assert.Equal(t, NetworkTCP, addr.Network())
		assert.Equal(t, "127.0.0.1:20003", addr.Endpoint())
		assert.Equal(t, "127.0.0.1", addr.Host())
		assert.Equal(t, uint16(20003), addr.Port())
	})

	t.Run("remote IPv6", func(t *testing.T) {
		addr := Remote("::1", 20000)
		assert.Equal(t, "tcp://[::1]:20000", addr.String())
	})

	t.Run("zero value", func(t *testing.T) {
		var addr Address
		assert.False(t, addr.IsValid())
		assert.Equal(t, "", addr.String())
	})

	t.Run("next", func(t *testing.T) {
		next, err := Remote("127.0.0.1", 20000).Next()
		require.NoError(t, err)
		assert.Equal(t, "tcp://127.0.0.1:20001", next.String())

		_, err = Remote("127.0.0.1", 65535).Next()
		assert.ErrorIs(t, err, ErrInvalidAddress)

		_, err = Local("hans").Next()
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}

func TestParseAddress(t *testing.T) {
	type testcase struct {
		input  string
		expect Address
		fail   bool
	}

	tests := []testcase{
		{input: "ipc://hans", expect: Local("hans")},
		{input: "ipc:///tmp/aurora/a1", expect: Local("/tmp/aurora/a1")},
		{input: "tcp://127.0.0.1:20000", expect: Remote("127.0.0.1", 20000)},
		{input: "tcp://[::1]:443", expect: Remote("::1", 443)},
		{input: "", fail: true},
		{input: "ipc://", fail: true},
		{input: "udp://127.0.0.1:53", fail: true},
		{input: "tcp://127.0.0.1", fail: true},
		{input: "tcp://127.0.0.1:70000", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.fail {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}
