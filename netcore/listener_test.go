// SPDX-License-Identifier: GPL-3.0-or-later

package netcore

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"path/filepath"
	"testing"

	"github.com/aurora-emu/x/aurora"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork_ListenContext(t *testing.T) {
	t.Run("custom listen failure", func(t *testing.T) {
		expectedErr := errors.New("mocked listen error")
		nx := &Network{
			ListenFunc: func(ctx context.Context, network, address string) (net.Listener, error) {
				return nil, expectedErr
			},
		}
		lis, err := nx.ListenContext(context.Background(), "tcp", "127.0.0.1:0")
		assert.ErrorIs(t, err, expectedErr)
		assert.Nil(t, lis)
	})

	t.Run("address in use", func(t *testing.T) {
		nx := &Network{}
		first, err := nx.ListenContext(context.Background(), "tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer first.Close()

		_, err = nx.ListenContext(context.Background(), "tcp", first.Addr().String())
		assert.ErrorIs(t, err, aurora.ErrAddressInUse)
	})

	t.Run("logging behavior", func(t *testing.T) {
		nx, buf := newTestNetwork(slog.LevelInfo)
		path := filepath.Join(t.TempDir(), "sock")
		lis, err := nx.ListenContext(context.Background(), aurora.NetworkIPC, path)
		require.NoError(t, err)
		defer lis.Close()

		entries := parseLogs(t, buf)
		require.Len(t, entries, 2)
		assert.Equal(t, map[string]any{
			"level":     "INFO",
			"msg":       "listenStart",
			"protocol":  "unix",
			"localAddr": path,
			"t":         fixedTimeString,
		}, entries[0])
		assert.Equal(t, map[string]any{
			"level":     "INFO",
			"msg":       "listenDone",
			"boundAddr": path,
			"err":       nil,
			"errClass":  "",
			"protocol":  "unix",
			"localAddr": path,
			"t0":        fixedTimeString,
			"t":         fixedTimeString,
		}, entries[1])
	})
}

func TestNetwork_ListenAddressDialAddress(t *testing.T) {
	t.Run("invalid address", func(t *testing.T) {
		_, err := (&Network{}).ListenAddress(context.Background(), aurora.Address{})
		assert.ErrorIs(t, err, aurora.ErrInvalidAddress)
	})

	t.Run("accepted and dialed conns are wrapped", func(t *testing.T) {
		nx, buf := newTestNetwork(slog.LevelInfo)
		nx.WrapConn = WrapConn
		addr := aurora.Local(filepath.Join(t.TempDir(), "a1"))

		lis, err := nx.ListenAddress(context.Background(), addr)
		require.NoError(t, err)
		defer lis.Close()

		accepted := make(chan net.Conn, 1)
		go func() {
			conn, err := lis.Accept()
			if err != nil {
				close(accepted)
				return
			}
			accepted <- conn
		}()

		client, err := nx.DialAddress(context.Background(), addr)
		require.NoError(t, err)
		assert.IsType(t, &connWrapper{}, client)

		server, ok := <-accepted
		require.True(t, ok)
		assert.IsType(t, &connWrapper{}, server)

		_, err = client.Write([]byte("ping"))
		require.NoError(t, err)
		data := make([]byte, 4)
		_, err = server.Read(data)
		require.NoError(t, err)
		assert.Equal(t, "ping", string(data))

		require.NoError(t, client.Close())
		require.NoError(t, server.Close())

		var msgs []string
		for _, entry := range parseLogs(t, buf) {
			msgs = append(msgs, entry["msg"].(string))
		}
		assert.Contains(t, msgs, "connectDone")
		assert.Contains(t, msgs, "closeDone")
		assert.NotContains(t, msgs, "readDone")
	})
}
