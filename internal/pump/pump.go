// SPDX-License-Identifier: GPL-3.0-or-later

// Package pump moves elements between streams and sockets.
package pump

import (
	"context"
	"sync/atomic"

	"github.com/aurora-emu/x/aurora"
)

// Source returns the next value, blocking until one is available.
type Source[T any] func(ctx context.Context) (T, error)

// Sink consumes a value, blocking until there is room for it.
type Sink[T any] func(ctx context.Context, value T) error

// Move moves values from src to dst until either fails.
//
// Errors occurring after ctx is done are the expected outcome of
// tearing down the owner and are not reported.
func Move[T any](ctx context.Context, src Source[T], dst Sink[T]) error {
	for {
		value, err := src(ctx)
		if err != nil {
			return maybeCanceled(ctx, err)
		}
		if err := dst(ctx, value); err != nil {
			return maybeCanceled(ctx, err)
		}
	}
}

// maybeCanceled returns nil if ctx is done and err otherwise.
func maybeCanceled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Counters collects [aurora.Stats] atomically.
//
// The zero value is ready to use.
type Counters struct {
	sent     atomic.Uint64
	received atomic.Uint64
	frames   atomic.Uint64
}

// CountSent wraps a sink to count the elements it consumes.
func (c *Counters) CountSent(dst Sink[aurora.Element]) Sink[aurora.Element] {
	return func(ctx context.Context, elem aurora.Element) error {
		if err := dst(ctx, elem); err != nil {
			return err
		}
		c.sent.Add(1)
		return nil
	}
}

// CountReceived wraps a sink to count the elements it consumes
// and the frames they terminate.
func (c *Counters) CountReceived(dst Sink[aurora.Element]) Sink[aurora.Element] {
	return func(ctx context.Context, elem aurora.Element) error {
		if err := dst(ctx, elem); err != nil {
			return err
		}
		c.received.Add(1)
		if elem.Last {
			c.frames.Add(1)
		}
		return nil
	}
}

// Stats returns a snapshot of the counters.
func (c *Counters) Stats() aurora.Stats {
	return aurora.Stats{
		Sent:     c.sent.Load(),
		Received: c.received.Load(),
		Frames:   c.frames.Load(),
	}
}

// StreamSource adapts an [aurora.Stream] to a [Source].
func StreamSource(s aurora.Stream) Source[aurora.Element] {
	return s.Read
}

// StreamSink adapts an [aurora.Stream] to a [Sink].
func StreamSink(s aurora.Stream) Sink[aurora.Element] {
	return s.Write
}
