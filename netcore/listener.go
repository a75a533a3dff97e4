//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// TCP/IPC listener.
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

// ListenContext creates a new TCP or IPC listener.
//
// Failures caused by another listener owning the address are
// reported as [aurora.ErrAddressInUse].
func (nx *Network) ListenContext(ctx context.Context, network, address string) (net.Listener, error) {
	network = netNetwork(network)
	t0 := nx.emitListenStart(ctx, network, address)
	lis, err := nx.listenNet(ctx, network, address)
	if err != nil && errclass.New(err) == errclass.EADDRINUSE {
		err = errors.Join(aurora.ErrAddressInUse, err)
	}
	nx.emitListenDone(ctx, network, address, t0, lis, err)
	if err != nil {
		return nil, err
	}
	return &listenerWrapper{Listener: lis, ctx: ctx, netx: nx}, nil
}

// ListenAddress is like ListenContext but takes an [aurora.Address].
func (nx *Network) ListenAddress(ctx context.Context, addr aurora.Address) (net.Listener, error) {
	if !addr.IsValid() {
		return nil, aurora.ErrInvalidAddress
	}
	return nx.ListenContext(ctx, addr.Network(), addr.Endpoint())
}

// listenNet listens using either the user-provided function or the [net] package.
func (nx *Network) listenNet(ctx context.Context, network, address string) (net.Listener, error) {
	if nx.ListenFunc != nil {
		return nx.ListenFunc(ctx, network, address)
	}
	lc := &net.ListenConfig{}
	return lc.Listen(ctx, network, address)
}

// listenerWrapper wraps accepted conns using [*Network.WrapConn].
type listenerWrapper struct {
	net.Listener
	ctx  context.Context // only used for logging
	netx *Network
}

// Accept implements [net.Listener].
func (lw *listenerWrapper) Accept() (net.Conn, error) {
	conn, err := lw.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return lw.netx.maybeWrapConn(lw.ctx, conn), nil
}

// emitListenStart emits a structured event before listening.
func (nx *Network) emitListenStart(ctx context.Context, network, address string) time.Time {
	t0 := nx.timeNow()
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"listenStart",
			slog.String("protocol", network),
			slog.String("localAddr", address),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitListenDone emits a structured event after listening.
func (nx *Network) emitListenDone(ctx context.Context,
	network, address string, t0 time.Time, lis net.Listener, err error) {
	if nx.Logger != nil {
		boundAddr := ""
		if lis != nil {
			boundAddr = lis.Addr().String()
		}
		nx.Logger.InfoContext(
			ctx,
			"listenDone",
			slog.String("boundAddr", boundAddr),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("protocol", network),
			slog.String("localAddr", address),
			slog.Time("t0", t0),
			slog.Time("t", nx.timeNow()),
		)
	}
}
