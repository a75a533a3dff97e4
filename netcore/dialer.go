//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
//
// TCP/IPC conn dialer.
//

package netcore

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/aurora-emu/x/aurora"
	"github.com/aurora-emu/x/errclass"
)

// DialContext establishes a new TCP or IPC connection.
//
// The network is "tcp" (or any other [net] stream network) or "ipc", in
// which case the address is the path of a Unix domain socket.
func (nx *Network) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if nx.DialContextTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nx.DialContextTimeout)
		defer cancel()
	}

	// IPC endpoints are file names and there is nothing to resolve
	network = netNetwork(network)
	if network == "unix" {
		return nx.dialLog(ctx, network, address)
	}

	// resolve the endpoints to connect to
	endpoints, err := nx.maybeLookupEndpoint(ctx, address)
	if err != nil {
		return nil, err
	}

	// sequentially attempt with each available endpoint
	return nx.sequentialDial(ctx, network, nx.dialLog, endpoints...)
}

// DialAddress is like DialContext but takes an [aurora.Address].
func (nx *Network) DialAddress(ctx context.Context, addr aurora.Address) (net.Conn, error) {
	if !addr.IsValid() {
		return nil, aurora.ErrInvalidAddress
	}
	return nx.DialContext(ctx, addr.Network(), addr.Endpoint())
}

// dialContextFunc is a function used to dial a connection.
type dialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// sequentialDial attempts to dial the endpoints in sequence until one
// of them succeeds. It returns the first successfully established network
// connection, on success, and the union of all errors, otherwise.
func (nx *Network) sequentialDial(
	ctx context.Context,
	network string,
	fx dialContextFunc,
	endpoints ...string,
) (net.Conn, error) {
	if len(endpoints) <= 0 {
		return nil, errors.New("netcore: no endpoints to dial")
	}
	var errv []error
	for _, endpoint := range endpoints {
		conn, err := fx(ctx, network, endpoint)
		if conn != nil && err == nil {
			return conn, nil
		}
		errv = append(errv, err)
	}
	return nil, errors.Join(errv...)
}

// dialLog dials and emits structured logs around the dial.
func (nx *Network) dialLog(ctx context.Context, network, address string) (net.Conn, error) {
	t0 := nx.emitConnectStart(ctx, network, address)
	conn, err := nx.dialNet(ctx, network, address)
	nx.emitConnectDone(ctx, network, address, t0, conn, err)
	return nx.maybeWrapConn(ctx, conn), err
}

// dialNet dials using either the user-provided function or the [net] package.
func (nx *Network) dialNet(ctx context.Context, network, address string) (net.Conn, error) {
	// if there's an user provided dialer func, use it
	if nx.DialContextFunc != nil {
		return nx.DialContextFunc(ctx, network, address)
	}

	// otherwise use the net package
	child := &net.Dialer{}
	child.SetMultipathTCP(false)
	return child.DialContext(ctx, network, address)
}

// emitConnectStart emits a structured event before dialing.
func (nx *Network) emitConnectStart(ctx context.Context, network, address string) time.Time {
	t0 := nx.timeNow()
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"connectStart",
			slog.String("protocol", network),
			slog.String("remoteAddr", address),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitConnectDone emits a structured event after dialing.
func (nx *Network) emitConnectDone(ctx context.Context,
	network, address string, t0 time.Time, conn net.Conn, err error) {
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"connectDone",
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("localAddr", connLocalAddr(conn).String()),
			slog.String("protocol", network),
			slog.String("remoteAddr", address),
			slog.Time("t0", t0),
			slog.Time("t", nx.timeNow()),
		)
	}
}
