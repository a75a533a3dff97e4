//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
//
// Host lookups for switch and endpoint host names.
//

package netcore

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/aurora-emu/x/errclass"
)

// maybeLookupEndpoint resolves the host name inside an endpoint into
// a list of TCP endpoints. If the host is already an IP address, we
// short circuit the lookup.
func (nx *Network) maybeLookupEndpoint(ctx context.Context, endpoint string) ([]string, error) {
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return nil, err
	}

	addrs, err := nx.maybeLookupHost(ctx, host)
	if err != nil {
		return nil, err
	}

	endpoints := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		endpoints = append(endpoints, net.JoinHostPort(addr, port))
	}
	return endpoints, nil
}

// maybeLookupHost resolves a host name to IP addresses unless the host
// is already an IP address, in which case we short circuit the lookup.
func (nx *Network) maybeLookupHost(ctx context.Context, host string) ([]string, error) {
	if net.ParseIP(host) != nil {
		return []string{host}, nil
	}

	t0 := nx.emitLookupHostStart(ctx, host)
	addrs, err := nx.doLookupHost(ctx, host)
	nx.emitLookupHostDone(ctx, host, t0, addrs, err)
	return addrs, err
}

// doLookupHost performs the lookup.
func (nx *Network) doLookupHost(ctx context.Context, host string) ([]string, error) {
	if nx.LookupHostFunc != nil {
		return nx.LookupHostFunc(ctx, host)
	}
	reso := &net.Resolver{}
	return reso.LookupHost(ctx, host)
}

// emitLookupHostStart emits a structured event before the lookup.
func (nx *Network) emitLookupHostStart(ctx context.Context, host string) time.Time {
	t0 := nx.timeNow()
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"lookupHostStart",
			slog.String("dnsLookupDomain", host),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitLookupHostDone emits a structured event after the lookup.
func (nx *Network) emitLookupHostDone(ctx context.Context,
	host string, t0 time.Time, addrs []string, err error) {
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"lookupHostDone",
			slog.String("dnsLookupDomain", host),
			slog.Any("dnsResolvedAddrs", addrs),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.Time("t0", t0),
			slog.Time("t", nx.timeNow()),
		)
	}
}
