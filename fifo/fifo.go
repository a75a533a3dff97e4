// SPDX-License-Identifier: GPL-3.0-or-later

// Package fifo implements an in-memory [aurora.Stream].
//
// A [*FIFO] behaves like the bounded hardware streams connecting FPGA
// kernels: writes block while the FIFO is full and reads block while it is
// empty. It is the stream used by tests and by Go programs driving the
// emulator in place of real kernels.
package fifo

import (
	"context"
	"sync"

	"github.com/aurora-emu/x/aurora"
)

// Element is the [aurora.Element] alias used by this package.
type Element = aurora.Element

// FIFO is a bounded blocking queue of [Element].
//
// The zero value is not ready to use; construct using [New].
type FIFO struct {
	// elems holds the queued elements.
	elems chan Element

	// eof is closed by Close.
	eof chan struct{}

	// eofOnce ensures we close just once.
	eofOnce sync.Once

	// name is the name used for diagnostics.
	name string
}

var _ aurora.Stream = &FIFO{}

// New creates a [*FIFO] holding up to depth elements. A depth
// lower than one is treated as one, mirroring hardware defaults.
func New(name string, depth int) *FIFO {
	if depth < 1 {
		depth = 1
	}
	return &FIFO{
		elems:   make(chan Element, depth),
		eof:     make(chan struct{}),
		eofOnce: sync.Once{},
		name:    name,
	}
}

// Name returns the FIFO name.
func (f *FIFO) Name() string {
	return f.name
}

// Len returns the number of queued elements.
func (f *FIFO) Len() int {
	return len(f.elems)
}

// Empty implements [aurora.Stream].
func (f *FIFO) Empty() bool {
	return len(f.elems) == 0
}

// Close shuts the FIFO down. Blocked writers fail immediately, while
// readers drain the queued elements before failing.
func (f *FIFO) Close() error {
	f.eofOnce.Do(func() { close(f.eof) })
	return nil
}

// Read implements [aurora.Stream].
//
// The following errors are possible:
//
// 1. nil if we read an element;
//
// 2. [aurora.ErrStreamClosed] if the FIFO is closed and drained;
//
// 3. the context error if the context is done first.
func (f *FIFO) Read(ctx context.Context) (Element, error) {
	select {
	case elem := <-f.elems:
		return elem, nil

	case <-ctx.Done():
		return Element{}, ctx.Err()

	case <-f.eof:
		// As documented, drain before reporting EOF
		select {
		case elem := <-f.elems:
			return elem, nil
		default:
			return Element{}, aurora.ErrStreamClosed
		}
	}
}

// Write implements [aurora.Stream].
//
// The following errors are possible:
//
// 1. nil if the element is queued;
//
// 2. [aurora.ErrStreamClosed] if the FIFO is closed;
//
// 3. the context error if the context is done first.
func (f *FIFO) Write(ctx context.Context, elem Element) error {
	if isClosedChan(f.eof) {
		return aurora.ErrStreamClosed
	}
	select {
	case f.elems <- elem:
		return nil

	case <-ctx.Done():
		return ctx.Err()

	case <-f.eof:
		return aurora.ErrStreamClosed
	}
}

// isClosedChan returns whether a channel is closed.
func isClosedChan(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}
