// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package routed emulates an Aurora endpoint attached to a switch.

An [*Endpoint] has an identity and a peer identity. Words read from the
input stream are pushed to the switch tagged with the peer identity, and
words the switch delivers for the endpoint identity are written to the
output stream. Using the same identity for both creates a loopback
through the switch.

	sw, _ := netswitch.NewListening("127.0.0.1", 20000)
	a1, _ := routed.New(ctx, "127.0.0.1", 20000, "a1", "a2", in1, out1)
	a2, _ := routed.New(ctx, "127.0.0.1", 20000, "a2", "a1", in2, out2)

Words written to in1 come out of out2 in the same order, and vice versa.
*/
package routed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aurora-emu/x/aurora"
	"github.com/aurora-emu/x/closepool"
	"github.com/aurora-emu/x/errclass"
	"github.com/aurora-emu/x/frame"
	"github.com/aurora-emu/x/internal/mq"
	"github.com/aurora-emu/x/internal/pump"
	"github.com/aurora-emu/x/netcore"
	"github.com/aurora-emu/x/netswitch"
	"github.com/rs/xid"
)

// Config contains configuration for creating an [*Endpoint].
//
// The zero value is ready to use.
type Config struct {
	// Logger is the optional structured logger. If this field
	// is nil, we will not be emitting structured logs.
	Logger *slog.Logger

	// Network is the optional [*netcore.Network] used to subscribe to
	// the switch. If this field is nil, we use [netcore.DefaultNetwork].
	Network *netcore.Network

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time

	// WriteQLen is the optional number of elements queued for
	// sending before the input worker blocks. If zero, we use
	// [mq.DefaultWriteQLen].
	WriteQLen int
}

// DefaultConfig is the [*Config] used by [New].
var DefaultConfig = &Config{}

// New creates an [*Endpoint] attached to the switch listening at
// host and port using the [DefaultConfig].
func New(ctx context.Context, host string, port uint16, own, peer string, in, out aurora.Stream) (*Endpoint, error) {
	return DefaultConfig.New(ctx, host, port, own, peer, in, out)
}

// New is like [New] but uses the given [*Config].
//
// The ctx bounds the construction only. An unreachable switch fails
// with [aurora.ErrConnectionFailed], and an identity already attached
// to the switch fails with [aurora.ErrIdentityInUse].
func (c *Config) New(ctx context.Context,
	host string, port uint16, own, peer string, in, out aurora.Stream) (*Endpoint, error) {
	ingress := aurora.Remote(host, port)
	egress, err := ingress.Next()
	if err != nil {
		return nil, err
	}

	ep := &Endpoint{
		config:  c,
		group:   pump.NewGroup(),
		id:      xid.New().String(),
		ingress: ingress,
		own:     own,
		peer:    peer,
	}

	t0 := ep.timeNow()
	ep.emit(slog.LevelInfo, "attachStart", slog.String("switchAddr", ingress.String()), slog.Time("t", t0))
	push, sub, err := ep.attach(ctx, ingress, egress)
	ep.emitDone("attachDone", t0, err, slog.String("switchAddr", ingress.String()))
	if err != nil {
		return nil, err
	}
	ep.pool.Add(push)
	ep.pool.Add(sub)
	ep.watching.Store(true)

	ep.goWorker("send", func(ctx context.Context) error {
		return pump.Move(ctx, pump.StreamSource(in), ep.counters.CountSent(ep.sendSink(push)))
	})
	ep.goWorker("receive", func(ctx context.Context) error {
		return pump.Move(ctx, recvSource(sub), ep.counters.CountReceived(pump.StreamSink(out)))
	})
	return ep, nil
}

// attach connects to the switch ingress and subscribes at its egress,
// releasing the former when the latter fails.
func (ep *Endpoint) attach(ctx context.Context,
	ingress, egress aurora.Address) (mq.Socket, *netswitch.Subscription, error) {
	push, err := mq.NewPush(ingress, ep.config.WriteQLen, func() {
		if ep.watching.Load() {
			ep.switchDetached()
		}
	})
	if err != nil {
		return nil, nil, err
	}
	sub, err := netswitch.Subscribe(ctx, ep.config.Network, egress, ep.own)
	if err != nil {
		push.Close()
		return nil, nil, err
	}
	return push, sub, nil
}

// Endpoint is an endpoint attached to a switch.
//
// Construct using [New] or [*Config.New].
type Endpoint struct {
	closeErr  error
	closeOnce sync.Once
	config    *Config
	counters  pump.Counters
	group     *pump.Group
	id        string
	ingress   aurora.Address
	own       string
	peer      string
	pool      closepool.Pool
	watching  atomic.Bool
}

// Identity returns the identity under which the endpoint receives.
func (ep *Endpoint) Identity() string {
	return ep.own
}

// Peer returns the identity the endpoint sends to.
func (ep *Endpoint) Peer() string {
	return ep.peer
}

// SwitchAddress returns the ingress address of the switch.
func (ep *Endpoint) SwitchAddress() aurora.Address {
	return ep.ingress
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

// Close detaches from the switch and stops the workers. Elements
// still in flight may be lost. This method is idempotent.
func (ep *Endpoint) Close() error {
	ep.closeOnce.Do(func() {
		t0 := ep.timeNow()
		ep.emit(slog.LevelInfo, "closeStart", slog.Time("t", t0))
		ep.group.Stop()
		ep.closeErr = ep.pool.Close()
		ep.group.Wait()
		ep.emitDone("closeDone", t0, ep.closeErr)
	})
	return ep.closeErr
}

// switchDetached marks the endpoint failed after losing the ingress
// connection to the switch.
func (ep *Endpoint) switchDetached() {
	select {
	case <-ep.group.Done():
		return // stopping or already failed
	default:
	}
	err := fmt.Errorf("%w: lost switch %s", aurora.ErrConnectionFailed, ep.ingress)
	ep.emit(slog.LevelWarn, "switchDetached",
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("switchAddr", ep.ingress.String()),
		slog.Time("t", ep.timeNow()),
	)
	ep.group.Fail(err)
}

// sendSink returns a sink pushing elements tagged with the peer identity.
func (ep *Endpoint) sendSink(sock mq.Socket) pump.Sink[aurora.Element] {
	tag := []byte(ep.peer)
	return func(ctx context.Context, elem aurora.Element) error {
		payload, err := elem.MarshalBinary()
		if err != nil {
			return err
		}
		data, err := frame.Message{Tag: tag, Payload: payload}.MarshalBinary()
		if err != nil {
			return err
		}
		return sock.Send(data)
	}
}

// recvSource returns a source decoding the elements delivered to sub.
func recvSource(sub *netswitch.Subscription) pump.Source[aurora.Element] {
	return func(ctx context.Context) (aurora.Element, error) {
		var elem aurora.Element
		msg, err := sub.Recv()
		if err != nil {
			return elem, err
		}
		err = elem.UnmarshalBinary(msg.Payload)
		return elem, err
	}
}

// goWorker runs a worker logging its lifecycle.
func (ep *Endpoint) goWorker(name string, fx func(ctx context.Context) error) {
	ep.group.Go(func(ctx context.Context) error {
		t0 := ep.timeNow()
		ep.emit(slog.LevelDebug, "workerStart", slog.String("worker", name), slog.Time("t", t0))
		err := fx(ctx)
		if err != nil {
			err = fmt.Errorf("routed: %s worker: %w", name, err)
		}
		ep.emitDone("workerDone", t0, err, slog.String("worker", name))
		return err
	})
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
		slog.String("endpointID", ep.id),
		slog.String("identity", ep.own),
		slog.String("peer", ep.peer),
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
