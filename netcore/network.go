//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Definition of Network.
//

package netcore

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/aurora-emu/x/aurora"
)

// Network allows dialing, listening, and observing TCP/IPC connections.
//
// The zero value is ready to use.
//
// A [*Network] is safe for concurrent use by multiple goroutines as long as
// you don't modify its fields after construction and the underlying fields you
// may set (e.g., DialContextFunc) are also safe.
type Network struct {
	// DialContextFunc is the optional dialer for creating new
	// TCP and IPC connections. If this field is nil, the default
	// dialer from the [net] package will be used.
	DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

	// ListenFunc is the optional function for creating new TCP and
	// IPC listeners. If this field is nil, we use a zero-initialized
	// [*net.ListenConfig] from the [net] package.
	ListenFunc func(ctx context.Context, network, address string) (net.Listener, error)

	// Logger is the optional structured logger for emitting
	// structured diagnostic events. If this field is nil, we
	// will not be emitting structured logs.
	Logger *slog.Logger

	// LookupHostFunc is the optional function to resolve a domain
	// name to IP addresses. If this field is nil, we use the
	// default [*net.Resolver] from the [net] package.
	LookupHostFunc func(ctx context.Context, domain string) ([]string, error)

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time

	// WrapConn is an optional function to wrap a connection to emit
	// structured logs. [WrapConn] is the default wrapper to use.
	WrapConn func(ctx context.Context, netx *Network, conn net.Conn) net.Conn

	// DialContextTimeout is the optional timeout to use for limiting
	// the maximum time spent creating a single connection.
	DialContextTimeout time.Duration
}

// DefaultNetwork is the default [*Network] used by this package.
var DefaultNetwork = &Network{}

// NewNetwork creates a [*Network] wrapping connections using [WrapConn]
// and logging using the given logger, which may be nil.
func NewNetwork(logger *slog.Logger) *Network {
	return &Network{Logger: logger, WrapConn: WrapConn}
}

// timeNow is a function that returns the current time.
func (nx *Network) timeNow() time.Time {
	if nx.TimeNow != nil {
		return nx.TimeNow()
	}
	return time.Now()
}

// netNetwork maps the network of an [aurora.Address] to the
// corresponding network of the [net] package.
func netNetwork(network string) string {
	if network == aurora.NetworkIPC {
		return "unix"
	}
	return network
}
