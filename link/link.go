// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package link emulates a direct, point-to-point Aurora link.

An [*Endpoint] binds a socket at its own [aurora.Address] when created
and forwards what it receives there to its output stream. Calling
[*Endpoint.Connect] opens the opposite direction, forwarding the input
stream of each endpoint to the other one.

	a, _ := link.NewLocal("a", inA, outA)
	b, _ := link.NewLocal("b", inB, outB)
	_ = a.Connect(b)

Words written to inA come out of outB in the same order, and vice versa.
Connecting an endpoint to itself creates a loopback.
*/
package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aurora-emu/x/aurora"
	"github.com/aurora-emu/x/closepool"
	"github.com/aurora-emu/x/errclass"
	"github.com/aurora-emu/x/internal/mq"
	"github.com/aurora-emu/x/internal/pump"
	"github.com/rs/xid"
)

// Config contains configuration for creating an [*Endpoint].
//
// The zero value is ready to use.
type Config struct {
	// Logger is the optional structured logger. If this field
	// is nil, we will not be emitting structured logs.
	Logger *slog.Logger

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time

	// WriteQLen is the optional number of elements queued for
	// sending before the input worker blocks. If zero, we use
	// [mq.DefaultWriteQLen].
	WriteQLen int
}

// DefaultConfig is the [*Config] used by [NewLocal] and [NewRemote].
var DefaultConfig = &Config{}

// NewLocal creates an [*Endpoint] reachable at `ipc://<name>`
// using the [DefaultConfig].
func NewLocal(name string, in, out aurora.Stream) (*Endpoint, error) {
	return DefaultConfig.NewLocal(name, in, out)
}

// NewRemote creates an [*Endpoint] reachable at `tcp://<host>:<port>`
// using the [DefaultConfig].
func NewRemote(host string, port uint16, in, out aurora.Stream) (*Endpoint, error) {
	return DefaultConfig.NewRemote(host, port, in, out)
}

// NewLocal is like [NewLocal] but uses the given [*Config].
func (c *Config) NewLocal(name string, in, out aurora.Stream) (*Endpoint, error) {
	return c.New(aurora.Local(name), in, out)
}

// NewRemote is like [NewRemote] but uses the given [*Config].
func (c *Config) NewRemote(host string, port uint16, in, out aurora.Stream) (*Endpoint, error) {
	return c.New(aurora.Remote(host, port), in, out)
}

// New creates an [*Endpoint] bound at addr, forwarding what it
// receives to out. The in stream is only read after [*Endpoint.Connect].
//
// Binding an address in use fails with [aurora.ErrAddressInUse].
func (c *Config) New(addr aurora.Address, in, out aurora.Stream) (*Endpoint, error) {
	if !addr.IsValid() {
		return nil, aurora.ErrInvalidAddress
	}
	ep := &Endpoint{
		addr:   addr,
		config: c,
		group:  pump.NewGroup(),
		id:     xid.New().String(),
		in:     in,
		out:    out,
	}

	t0 := ep.timeNow()
	ep.emit(slog.LevelInfo, "bindStart", slog.Time("t", t0))
	sock, err := mq.NewPull(addr)
	ep.emitDone("bindDone", t0, err)
	if err != nil {
		return nil, err
	}
	ep.pool.Add(sock)

	ep.goWorker("receive", func(ctx context.Context) error {
		return pump.Move(ctx, recvSource(sock), ep.counters.CountReceived(pump.StreamSink(out)))
	})
	return ep, nil
}

// Endpoint is one side of a direct link.
//
// Construct using [NewLocal], [NewRemote], or [*Config.New].
type Endpoint struct {
	addr      aurora.Address
	closeErr  error
	closeOnce sync.Once
	closed    bool
	config    *Config
	counters  pump.Counters
	group     *pump.Group
	id        string
	in        aurora.Stream
	mu        sync.Mutex
	out       aurora.Stream
	pool      closepool.Pool
	sending   bool
}

// Address returns the address at which the endpoint is reachable.
func (ep *Endpoint) Address() string {
	return ep.addr.String()
}

// Connect connects this endpoint and peer in both directions. Using
// the endpoint itself as the peer creates a loopback.
//
// Connecting an endpoint that is already sending fails with
// [aurora.ErrAlreadyConnected]; an unreachable peer fails with
// [aurora.ErrConnectionFailed]. On failure neither endpoint is left
// with a send path, so Connect may be retried.
//
// Once connected, losing the peer marks the endpoint failed with
// [aurora.ErrConnectionFailed] rather than queueing elements for it.
func (ep *Endpoint) Connect(peer *Endpoint) error {
	if peer == ep {
		if err := ep.reserve(); err != nil {
			return err
		}
		path, err := ep.dial(ep.addr)
		if err != nil {
			ep.release()
			return err
		}
		return ep.startSending(path)
	}

	if err := ep.reserve(); err != nil {
		return err
	}
	if err := peer.reserve(); err != nil {
		ep.release()
		return err
	}
	forward, err := ep.dial(peer.addr)
	if err != nil {
		ep.release()
		peer.release()
		return err
	}
	backward, err := peer.dial(ep.addr)
	if err != nil {
		forward.sock.Close()
		ep.release()
		peer.release()
		return err
	}
	return errors.Join(ep.startSending(forward), peer.startSending(backward))
}

// reserve marks the endpoint as sending, failing if it is closed or
// if it already has a send path.
func (ep *Endpoint) reserve() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.closed {
		return aurora.ErrEndpointClosed
	}
	if ep.sending {
		return aurora.ErrAlreadyConnected
	}
	ep.sending = true
	return nil
}

// release undoes [*Endpoint.reserve].
func (ep *Endpoint) release() {
	ep.mu.Lock()
	ep.sending = false
	ep.mu.Unlock()
}

// sendPath is a PUSH socket towards a peer, watched once armed.
type sendPath struct {
	addr  aurora.Address
	armed atomic.Bool
	sock  mq.Socket
}

// dial opens a [*sendPath] towards addr.
func (ep *Endpoint) dial(addr aurora.Address) (*sendPath, error) {
	path := &sendPath{addr: addr}
	t0 := ep.timeNow()
	ep.emit(slog.LevelInfo, "connectPeerStart", slog.String("peerAddr", addr.String()), slog.Time("t", t0))
	sock, err := mq.NewPush(addr, ep.config.WriteQLen, func() {
		if path.armed.Load() {
			ep.peerDetached(addr)
		}
	})
	ep.emitDone("connectPeerDone", t0, err, slog.String("peerAddr", addr.String()))
	if err != nil {
		return nil, err
	}
	path.sock = sock
	return path, nil
}

// startSending starts forwarding the input stream using path.
func (ep *Endpoint) startSending(path *sendPath) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.closed {
		path.sock.Close()
		return aurora.ErrEndpointClosed
	}
	ep.pool.Add(path.sock)
	path.armed.Store(true)

	ep.goWorker("send", func(ctx context.Context) error {
		return pump.Move(ctx, pump.StreamSource(ep.in), ep.counters.CountSent(sendSink(path.sock)))
	})
	return nil
}

// peerDetached marks the endpoint failed after losing the peer at addr.
func (ep *Endpoint) peerDetached(addr aurora.Address) {
	select {
	case <-ep.group.Done():
		return // stopping or already failed
	default:
	}
	err := fmt.Errorf("%w: lost peer %s", aurora.ErrConnectionFailed, addr)
	ep.emit(slog.LevelWarn, "peerDetached",
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("peerAddr", addr.String()),
		slog.Time("t", ep.timeNow()),
	)
	ep.group.Fail(err)
}

// Err returns the first failure of a background worker, if any.
func (ep *Endpoint) Err() error {
	return ep.group.Err()
}

// Done returns a channel closed when the endpoint stops forwarding,
// either because a worker failed or because of [*Endpoint.Close].
func (ep *Endpoint) Done() <-chan struct{} {
	return ep.group.Done()
}

// Stats returns the number of elements moved so far.
func (ep *Endpoint) Stats() aurora.Stats {
	return ep.counters.Stats()
}

// Close stops the workers and releases the sockets. Elements still
// in flight may be lost. This method is idempotent.
func (ep *Endpoint) Close() error {
	ep.closeOnce.Do(func() {
		t0 := ep.timeNow()
		ep.emit(slog.LevelInfo, "closeStart", slog.Time("t", t0))

		ep.mu.Lock()
		ep.closed = true
		ep.mu.Unlock()

		ep.group.Stop()
		ep.closeErr = ep.pool.Close()
		ep.group.Wait()

		ep.emitDone("closeDone", t0, ep.closeErr)
	})
	return ep.closeErr
}

// goWorker runs a worker logging its lifecycle.
func (ep *Endpoint) goWorker(name string, fx func(ctx context.Context) error) {
	ep.group.Go(func(ctx context.Context) error {
		t0 := ep.timeNow()
		ep.emit(slog.LevelDebug, "workerStart", slog.String("worker", name), slog.Time("t", t0))
		err := fx(ctx)
		if err != nil {
			err = fmt.Errorf("link: %s worker: %w", name, err)
		}
		ep.emitDone("workerDone", t0, err, slog.String("worker", name))
		return err
	})
}

// recvSource returns a source decoding the elements received by sock.
func recvSource(sock mq.Socket) pump.Source[aurora.Element] {
	return func(ctx context.Context) (aurora.Element, error) {
		var elem aurora.Element
		data, err := sock.Recv()
		if err != nil {
			return elem, err
		}
		err = elem.UnmarshalBinary(data)
		return elem, err
	}
}

// sendSink returns a sink encoding elements and sending them using sock.
func sendSink(sock mq.Socket) pump.Sink[aurora.Element] {
	return func(ctx context.Context, elem aurora.Element) error {
		data, err := elem.MarshalBinary()
		if err != nil {
			return err
		}
		return sock.Send(data)
	}
}

// timeNow returns the current time.
func (ep *Endpoint) timeNow() time.Time {
	if ep.config.TimeNow != nil {
		return ep.config.TimeNow()
	}
	return time.Now()
}

// emit emits a structured event annotated with the endpoint identity.
func (ep *Endpoint) emit(level slog.Level, msg string, attrs ...slog.Attr) {
	if ep.config.Logger == nil {
		return
	}
	attrs = append(attrs,
		slog.String("endpointAddr", ep.addr.String()),
		slog.String("endpointID", ep.id),
	)
	ep.config.Logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// emitDone emits the structured event terminating an operation.
func (ep *Endpoint) emitDone(msg string, t0 time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	attrs = append(attrs,
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.Time("t0", t0),
		slog.Time("t", ep.timeNow()),
	)
	ep.emit(level, msg, attrs...)
}
