// SPDX-License-Identifier: GPL-3.0-or-later

package netswitch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/aurora-emu/x/aurora"
	"github.com/aurora-emu/x/closepool"
	"github.com/aurora-emu/x/connpool"
	"github.com/aurora-emu/x/errclass"
	"github.com/aurora-emu/x/frame"
	"github.com/aurora-emu/x/internal/mq"
	"github.com/aurora-emu/x/internal/pump"
	"github.com/aurora-emu/x/netipx"
	"github.com/rs/xid"
)

// State is the binding state of a [*Switch].
type State int

const (
	// Unbound is the state of a switch that is not listening yet.
	Unbound State = iota

	// Bound is the state of a listening switch.
	Bound
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case Unbound:
		return "Unbound"
	case Bound:
		return "Bound"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status values sent by the switch after reading the consumer identity.
const (
	statusOK            = 0
	statusIdentityInUse = 1
)

// New creates an [Unbound] [*Switch] using the [DefaultConfig].
func New() (*Switch, error) {
	return DefaultConfig.New()
}

// NewListening creates a [*Switch] listening at host and port
// using the [DefaultConfig].
func NewListening(host string, port uint16) (*Switch, error) {
	return DefaultConfig.NewListening(host, port)
}

// New is like [New] but uses the given [*Config].
func (c *Config) New() (*Switch, error) {
	m, err := newMetrics(c.Registerer)
	if err != nil {
		return nil, err
	}
	sw := &Switch{
		boxes:   newMailboxes(c.mailboxHint()),
		config:  c,
		conns:   connpool.New(),
		group:   pump.NewGroup(),
		id:      xid.New().String(),
		metrics: m,
	}
	return sw, nil
}

// NewListening is like [NewListening] but uses the given [*Config].
func (c *Config) NewListening(host string, port uint16) (*Switch, error) {
	sw, err := c.New()
	if err != nil {
		return nil, err
	}
	if err := sw.Listen(host, port); err != nil {
		sw.Close()
		return nil, err
	}
	return sw, nil
}

// Switch routes tagged messages from producers to the consumer
// whose identity equals the tag.
//
// Construct using [New], [NewListening], or the [*Config] methods.
type Switch struct {
	boxes     *mailboxes
	closeErr  error
	closeOnce sync.Once
	closed    bool
	config    *Config
	conns     *connpool.Pool
	egress    aurora.Address
	group     *pump.Group
	id        string
	ingress   aurora.Address
	metrics   *metrics
	mu        sync.Mutex
	pool      closepool.Pool
	state     State
}

// State returns the binding state of the switch.
func (sw *Switch) State() State {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.state
}

// IngressAddress returns the address producers push to. The
// returned address is invalid while the switch is [Unbound].
func (sw *Switch) IngressAddress() aurora.Address {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.ingress
}

// EgressAddress returns the address consumers subscribe at. The
// returned address is invalid while the switch is [Unbound].
func (sw *Switch) EgressAddress() aurora.Address {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.egress
}

// Listen binds the ingress socket at host and port and the egress
// socket at host and port+1.
//
// Listening on a [Bound] switch fails with [aurora.ErrAddressInUse].
// If binding either socket fails, the switch remains [Unbound].
func (sw *Switch) Listen(host string, port uint16) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.closed {
		return aurora.ErrEndpointClosed
	}
	if sw.state == Bound {
		return fmt.Errorf("%w: switch already bound to %s", aurora.ErrAddressInUse, sw.ingress)
	}

	ingress := aurora.Remote(host, port)
	egress, err := ingress.Next()
	if err != nil {
		return err
	}

	t0 := sw.timeNow()
	sw.emit(slog.LevelInfo, "listenStart",
		slog.String("ingressAddr", ingress.String()),
		slog.String("egressAddr", egress.String()),
		slog.Time("t", t0),
	)
	sock, lis, err := sw.bind(ingress, egress)
	var boundAddr string
	if lis != nil {
		bound, _ := netipx.ToAddress(lis.Addr())
		boundAddr = bound.String()
	}
	sw.emitDone("listenDone", t0, err,
		slog.String("ingressAddr", ingress.String()),
		slog.String("egressAddr", egress.String()),
		slog.String("egressBoundAddr", boundAddr),
	)
	if err != nil {
		return err
	}

	sw.pool.Add(sock)
	sw.pool.Add(lis)
	sw.pool.AddFunc(func() error {
		_ = sw.conns.Close() // serve may have closed some conns already
		return nil
	})
	sw.pool.Add(sw.boxes)
	sw.ingress, sw.egress, sw.state = ingress, egress, Bound

	sw.group.Go(func(ctx context.Context) error {
		return sw.forward(ctx, sock)
	})
	sw.group.Go(func(ctx context.Context) error {
		return sw.accept(ctx, lis)
	})
	return nil
}

// bind creates the ingress socket and the egress listener, releasing
// the former when the latter cannot be created.
func (sw *Switch) bind(ingress, egress aurora.Address) (mq.Socket, net.Listener, error) {
	sock, err := mq.NewPull(ingress)
	if err != nil {
		return nil, nil, err
	}
	lis, err := sw.config.network().ListenAddress(context.Background(), egress)
	if err != nil {
		sock.Close()
		return nil, nil, err
	}
	return sock, lis, nil
}

// forward moves messages from the ingress socket to the mailboxes.
func (sw *Switch) forward(ctx context.Context, sock mq.Socket) error {
	for {
		data, err := sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("netswitch: ingress: %w", err)
		}

		var msg frame.Message
		if err := msg.UnmarshalBinary(data); err != nil {
			sw.emit(slog.LevelWarn, "dropMessage",
				slog.Any("err", err),
				slog.String("errClass", errclass.New(err)),
				slog.Int("size", len(data)),
			)
			continue
		}

		identity := string(msg.Tag)
		mb, err := sw.boxes.get(identity)
		if err != nil {
			return nil // closing
		}
		if err := mb.put(msg.Payload); err != nil {
			return nil // closing
		}
		sw.metrics.received.WithLabelValues(identity).Inc()
	}
}

// accept accepts consumer connections at the egress listener.
func (sw *Switch) accept(ctx context.Context, lis net.Listener) error {
	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("netswitch: egress: %w", err)
		}
		if !sw.conns.Add(conn) {
			return nil // closing
		}
		sw.group.Go(func(ctx context.Context) error {
			sw.serve(ctx, conn)
			return nil
		})
	}
}

// consumer is a consumer attached to a mailbox.
type consumer struct {
	conn net.Conn
	w    *bufio.Writer
}

// serve runs the egress protocol with a consumer connection.
func (sw *Switch) serve(ctx context.Context, conn net.Conn) {
	defer func() {
		conn.Close()
		sw.conns.Remove(conn)
	}()

	r := bufio.NewReader(conn)
	rawIdentity, err := frame.ReadFrame(r)
	if err != nil {
		return
	}
	identity := string(rawIdentity)

	t0 := sw.timeNow()
	sw.emit(slog.LevelInfo, "attachStart",
		slog.String("identity", identity),
		slog.String("remoteAddr", netipx.AddrToAddrPort(conn.RemoteAddr()).String()),
		slog.Time("t", t0),
	)
	mb, err := sw.attach(identity)
	if err != nil {
		sw.emitDone("attachDone", t0, err, slog.String("identity", identity))
		if errors.Is(err, aurora.ErrIdentityInUse) {
			_ = frame.WriteFrame(conn, []byte{statusIdentityInUse})
		}
		return
	}
	defer mb.detach()

	c := &consumer{conn: conn, w: bufio.NewWriter(conn)}
	err = frame.WriteFrame(c.w, []byte{statusOK})
	if err == nil {
		err = c.w.Flush()
	}
	sw.emitDone("attachDone", t0, err, slog.String("identity", identity))
	if err != nil {
		return
	}

	sw.metrics.subscribers.Inc()
	defer sw.metrics.subscribers.Dec()

	// consumers never write after the identity: a read returning
	// means the consumer went away
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		_, _ = r.ReadByte()
		conn.Close()
		mb.wakeup(c)
	}()

	err = sw.deliver(mb, c)
	conn.Close()
	<-watchDone
	sw.emit(slog.LevelInfo, "detach",
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("identity", identity),
		slog.Time("t0", t0),
		slog.Time("t", sw.timeNow()),
	)
}

// attach returns the mailbox of identity marked as attached.
func (sw *Switch) attach(identity string) (*mailbox, error) {
	mb, err := sw.boxes.get(identity)
	if err != nil {
		return nil, err
	}
	if !mb.attach() {
		return nil, fmt.Errorf("%w: %q", aurora.ErrIdentityInUse, identity)
	}
	return mb, nil
}

// deliver writes the payloads in mb to c until c detaches,
// a write fails, or the switch is closed.
func (sw *Switch) deliver(mb *mailbox, c *consumer) error {
	tag := []byte(mb.identity)
	delivered := sw.metrics.delivered.WithLabelValues(mb.identity)
	for {
		payload, ok := mb.next(c)
		if !ok {
			return nil
		}
		err := frame.WriteMessage(c.w, frame.Message{Tag: tag, Payload: payload})
		if err == nil {
			err = c.w.Flush()
		}
		if err != nil {
			mb.unget(payload)
			return err
		}
		delivered.Inc()
	}
}

// Done returns a channel closed when the switch stops forwarding,
// either because a worker failed or because of [*Switch.Close].
func (sw *Switch) Done() <-chan struct{} {
	return sw.group.Done()
}

// Err returns the first failure of a background worker, if any.
func (sw *Switch) Err() error {
	return sw.group.Err()
}

// Close unbinds the sockets, disconnects the consumers and waits
// for the background goroutines. Messages still in the mailboxes
// are dropped. This method is idempotent.
func (sw *Switch) Close() error {
	sw.closeOnce.Do(func() {
		t0 := sw.timeNow()
		sw.emit(slog.LevelInfo, "closeStart",
			slog.Int("consumers", sw.conns.Len()),
			slog.Time("t", t0),
		)

		sw.mu.Lock()
		sw.closed = true
		sw.mu.Unlock()

		sw.group.Stop()
		sw.closeErr = sw.pool.Close()
		sw.group.Wait()

		sw.emitDone("closeDone", t0, sw.closeErr)
	})
	return sw.closeErr
}

// timeNow returns the current time.
func (sw *Switch) timeNow() time.Time {
	if sw.config.TimeNow != nil {
		return sw.config.TimeNow()
	}
	return time.Now()
}

// emit emits a structured event annotated with the switch identity.
func (sw *Switch) emit(level slog.Level, msg string, attrs ...slog.Attr) {
	if sw.config.Logger == nil {
		return
	}
	attrs = append(attrs, slog.String("switchID", sw.id))
	sw.config.Logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// emitDone emits the structured event terminating an operation.
func (sw *Switch) emitDone(msg string, t0 time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	attrs = append(attrs,
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.Time("t0", t0),
		slog.Time("t", sw.timeNow()),
	)
	sw.emit(level, msg, attrs...)
}
