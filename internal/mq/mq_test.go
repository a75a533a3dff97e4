// SPDX-License-Identifier: GPL-3.0-or-later

package mq

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aurora-emu/x/aurora"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPull(t *testing.T) {
	t.Run("messages flow in order", func(t *testing.T) {
		addr := aurora.Local(filepath.Join(t.TempDir(), "a1"))
		pullSock, err := NewPull(addr)
		require.NoError(t, err)
		defer pullSock.Close()

		pushSock, err := NewPush(addr, 0, nil)
		require.NoError(t, err)
		defer pushSock.Close()

		for _, msg := range []string{"one", "two", "three"} {
			require.NoError(t, pushSock.Send([]byte(msg)))
		}
		for _, expect := range []string{"one", "two", "three"} {
			data, err := pullSock.Recv()
			require.NoError(t, err)
			assert.Equal(t, expect, string(data))
		}
	})

	t.Run("binding twice fails", func(t *testing.T) {
		addr := aurora.Local(filepath.Join(t.TempDir(), "a1"))
		first, err := NewPull(addr)
		require.NoError(t, err)
		defer first.Close()

		_, err = NewPull(addr)
		assert.ErrorIs(t, err, aurora.ErrAddressInUse)
	})

	t.Run("dialing nobody fails", func(t *testing.T) {
		addr := aurora.Local(filepath.Join(t.TempDir(), "nobody"))
		_, err := NewPush(addr, 4, nil)
		assert.ErrorIs(t, err, aurora.ErrConnectionFailed)
	})

	t.Run("losing the peer is reported", func(t *testing.T) {
		addr := aurora.Local(filepath.Join(t.TempDir(), "a1"))
		pullSock, err := NewPull(addr)
		require.NoError(t, err)

		detached := make(chan struct{}, 1)
		pushSock, err := NewPush(addr, 0, func() {
			select {
			case detached <- struct{}{}:
			default:
			}
		})
		require.NoError(t, err)
		defer pushSock.Close()

		require.NoError(t, pullSock.Close())
		select {
		case <-detached:
		case <-time.After(5 * time.Second):
			t.Fatal("detach not reported")
		}
	})
}
