// SPDX-License-Identifier: GPL-3.0-or-later

package netcore

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurora-emu/x/aurora"
	"github.com/rbmk-project/common/mocks"
	"github.com/rbmk-project/common/runtimex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork_DialContext(t *testing.T) {
	t.Run("lookup failure", func(t *testing.T) {
		expectedErr := errors.New("mocked lookup error")
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return nil, expectedErr
			},
		}
		conn, err := nx.DialContext(context.Background(), "tcp", "switch.local:5555")
		assert.ErrorIs(t, err, expectedErr)
		assert.Nil(t, conn)
	})

	t.Run("dial failure", func(t *testing.T) {
		expectedErr := errors.New("mocked dial error")
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return []string{"10.0.0.1"}, nil
			},
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				return nil, expectedErr
			},
		}
		conn, err := nx.DialContext(context.Background(), "tcp", "switch.local:5555")
		assert.ErrorIs(t, err, expectedErr)
		assert.Nil(t, conn)
	})

	t.Run("ipc skips the lookup", func(t *testing.T) {
		mockConn := &mocks.Conn{}
		var gotNetwork, gotAddress string
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return nil, errors.New("should not be called")
			},
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				gotNetwork, gotAddress = network, address
				return mockConn, nil
			},
		}
		conn, err := nx.DialContext(context.Background(), aurora.NetworkIPC, "/tmp/aurora-a1")
		require.NoError(t, err)
		assert.Equal(t, mockConn, conn)
		assert.Equal(t, "unix", gotNetwork)
		assert.Equal(t, "/tmp/aurora-a1", gotAddress)
	})

	t.Run("timeout is applied", func(t *testing.T) {
		nx := &Network{
			DialContextTimeout: 10 * time.Millisecond,
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		_, err := nx.DialContext(context.Background(), "tcp", "127.0.0.1:5555")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNetwork_DialAddress(t *testing.T) {
	t.Run("invalid address", func(t *testing.T) {
		_, err := (&Network{}).DialAddress(context.Background(), aurora.Address{})
		assert.ErrorIs(t, err, aurora.ErrInvalidAddress)
	})

	t.Run("remote address", func(t *testing.T) {
		mockConn := &mocks.Conn{}
		var gotAddress string
		nx := &Network{
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				gotAddress = address
				return mockConn, nil
			},
		}
		conn, err := nx.DialAddress(context.Background(), aurora.Remote("127.0.0.1", 5556))
		require.NoError(t, err)
		assert.Equal(t, mockConn, conn)
		assert.Equal(t, "127.0.0.1:5556", gotAddress)
	})
}

func TestNetwork_sequentialDial(t *testing.T) {
	t.Run("empty endpoints list", func(t *testing.T) {
		nx := &Network{}
		conn, err := nx.sequentialDial(context.Background(), "tcp", nx.dialLog)
		assert.Error(t, err)
		assert.Nil(t, conn)
	})

	t.Run("all endpoints fail", func(t *testing.T) {
		expectedErr1 := errors.New("error 1")
		expectedErr2 := errors.New("error 2")
		attempts := 0
		nx := &Network{
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				attempts++
				if address == "10.0.0.1:5555" {
					return nil, expectedErr1
				}
				return nil, expectedErr2
			},
		}
		conn, err := nx.sequentialDial(context.Background(), "tcp", nx.dialLog, "10.0.0.1:5555", "10.0.0.2:5555")
		assert.Nil(t, conn)
		assert.Equal(t, 2, attempts)
		assert.ErrorIs(t, err, expectedErr1)
		assert.ErrorIs(t, err, expectedErr2)
	})

	t.Run("second endpoint succeeds", func(t *testing.T) {
		mockConn := &mocks.Conn{}
		attempts := 0
		nx := &Network{
			DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
				attempts++
				if attempts == 1 {
					return nil, errors.New("first endpoint fails")
				}
				return mockConn, nil
			},
		}
		conn, err := nx.sequentialDial(context.Background(), "tcp", nx.dialLog, "10.0.0.1:5555", "10.0.0.2:5555")
		assert.NoError(t, err)
		assert.Equal(t, mockConn, conn)
		assert.Equal(t, 2, attempts)
	})
}

func TestNetwork_dialLog(t *testing.T) {
	t.Run("successful dial with logging", func(t *testing.T) {
		nx, buf := newTestNetwork(slog.LevelInfo)
		mockConn := &mocks.Conn{
			MockLocalAddr: func() net.Addr {
				return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1234}
			},
			MockRemoteAddr: func() net.Addr {
				return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 5556}
			},
		}
		nx.DialContextFunc = func(ctx context.Context, network, address string) (net.Conn, error) {
			return mockConn, nil
		}

		conn, err := nx.dialLog(context.Background(), "tcp", "127.0.0.1:5556")
		assert.NoError(t, err)
		assert.Equal(t, mockConn, conn)

		entries := parseLogs(t, buf)
		require.Len(t, entries, 2)
		assert.Equal(t, map[string]any{
			"level":      "INFO",
			"msg":        "connectStart",
			"protocol":   "tcp",
			"remoteAddr": "127.0.0.1:5556",
			"t":          fixedTimeString,
		}, entries[0])
		assert.Equal(t, map[string]any{
			"level":      "INFO",
			"msg":        "connectDone",
			"err":        nil,
			"errClass":   "",
			"localAddr":  "127.0.0.1:1234",
			"protocol":   "tcp",
			"remoteAddr": "127.0.0.1:5556",
			"t0":         fixedTimeString,
			"t":          fixedTimeString,
		}, entries[1])
	})

	t.Run("dial failure with logging", func(t *testing.T) {
		nx, buf := newTestNetwork(slog.LevelInfo)
		expectedErr := errors.New("mocked dial error")
		nx.DialContextFunc = func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, expectedErr
		}

		conn, err := nx.dialLog(context.Background(), "unix", "/tmp/aurora-a1")
		assert.ErrorIs(t, err, expectedErr)
		assert.Nil(t, conn)

		entries := parseLogs(t, buf)
		require.Len(t, entries, 2)
		assert.Equal(t, map[string]any{
			"level":      "INFO",
			"msg":        "connectDone",
			"err":        expectedErr.Error(),
			"errClass":   "EGENERIC",
			"localAddr":  "",
			"protocol":   "unix",
			"remoteAddr": "/tmp/aurora-a1",
			"t0":         fixedTimeString,
			"t":          fixedTimeString,
		}, entries[1])
	})
}

func TestNetwork_dialNet(t *testing.T) {
	t.Run("using net package over tcp", func(t *testing.T) {
		lis := runtimex.Try1(net.Listen("tcp", "127.0.0.1:0"))
		defer lis.Close()

		nx := &Network{}
		conn, err := nx.dialNet(context.Background(), "tcp", lis.Addr().String())
		require.NoError(t, err)
		conn.Close()
	})

	t.Run("using net package over unix", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sock")
		lis := runtimex.Try1(net.Listen("unix", path))
		defer lis.Close()

		nx := &Network{}
		conn, err := nx.dialNet(context.Background(), "unix", path)
		require.NoError(t, err)
		conn.Close()
	})

	t.Run("connection refused", func(t *testing.T) {
		lis := runtimex.Try1(net.Listen("tcp", "127.0.0.1:0"))
		addr := lis.Addr().String()
		lis.Close()

		nx := &Network{}
		_, err := nx.dialNet(context.Background(), "tcp", addr)
		assert.Error(t, err)
	})
}
