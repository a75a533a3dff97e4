// SPDX-License-Identifier: GPL-3.0-or-later

package netswitch

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/aurora-emu/x/aurora"
	"github.com/aurora-emu/x/errclass"
	"github.com/aurora-emu/x/frame"
	"github.com/aurora-emu/x/netcore"
)

// Subscription is a consumer attached to the egress port of a [*Switch].
//
// Construct using [Subscribe].
type Subscription struct {
	conn      net.Conn
	identity  string
	closeOnce sync.Once
	r         *bufio.Reader
}

// Subscribe connects to the egress address of a switch and attaches
// as the consumer of identity. A nil nx means [netcore.DefaultNetwork].
//
// An unreachable switch fails with [aurora.ErrConnectionFailed]; an
// identity attached by another consumer fails with [aurora.ErrIdentityInUse].
func Subscribe(ctx context.Context, nx *netcore.Network, egress aurora.Address, identity string) (*Subscription, error) {
	if nx == nil {
		nx = netcore.DefaultNetwork
	}

	t0 := networkTimeNow(nx)
	if nx.Logger != nil {
		nx.Logger.InfoContext(ctx, "subscribeStart",
			slog.String("egressAddr", egress.String()),
			slog.String("identity", identity),
			slog.Time("t", t0),
		)
	}
	sub, err := subscribe(ctx, nx, egress, identity)
	if nx.Logger != nil {
		nx.Logger.InfoContext(ctx, "subscribeDone",
			slog.String("egressAddr", egress.String()),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("identity", identity),
			slog.Time("t0", t0),
			slog.Time("t", networkTimeNow(nx)),
		)
	}
	return sub, err
}

// subscribe dials egress and performs the handshake.
func subscribe(ctx context.Context, nx *netcore.Network, egress aurora.Address, identity string) (*Subscription, error) {
	conn, err := nx.DialAddress(ctx, egress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", aurora.ErrConnectionFailed, err)
	}

	// bound the handshake by the context deadline, if any
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	r := bufio.NewReader(conn)
	status, err := handshake(conn, r, identity)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", aurora.ErrConnectionFailed, err)
	}
	if status != statusOK {
		conn.Close()
		return nil, fmt.Errorf("%w: %q", aurora.ErrIdentityInUse, identity)
	}
	conn.SetDeadline(time.Time{})

	return &Subscription{conn: conn, identity: identity, r: r}, nil
}

// handshake sends the identity and reads the status.
func handshake(conn net.Conn, r *bufio.Reader, identity string) (byte, error) {
	if err := frame.WriteFrame(conn, []byte(identity)); err != nil {
		return 0, err
	}
	status, err := frame.ReadFrame(r)
	if err != nil {
		return 0, err
	}
	if len(status) != 1 {
		return 0, fmt.Errorf("netswitch: invalid status frame length: %d", len(status))
	}
	return status[0], nil
}

// Identity returns the identity of the subscription.
func (s *Subscription) Identity() string {
	return s.identity
}

// Recv blocks until the next message for this subscription arrives.
func (s *Subscription) Recv() (frame.Message, error) {
	return frame.ReadMessage(s.r)
}

// Close detaches from the switch. This method is idempotent.
func (s *Subscription) Close() (err error) {
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return
}

// networkTimeNow returns the current time according to nx.
func networkTimeNow(nx *netcore.Network) time.Time {
	if nx.TimeNow != nil {
		return nx.TimeNow()
	}
	return time.Now()
}
