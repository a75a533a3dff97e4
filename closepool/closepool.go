// SPDX-License-Identifier: GPL-3.0-or-later

// Package closepool allows pooling [io.Closer] instances
// and closing them in a single operation.
//
// Endpoints and switches register their sockets here as soon as they
// open them, so that both a failed construction and a regular teardown
// release everything with a single Close call.
package closepool

import (
	"errors"
	"io"
	"slices"
	"sync"
)

// Pool allows pooling a set of [io.Closer].
//
// The zero value is ready to use.
type Pool struct {
	// handles contains the [io.Closer] to close.
	handles []io.Closer

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// Add adds a given [io.Closer] to the pool.
func (p *Pool) Add(conn io.Closer) {
	p.mu.Lock()
	p.handles = append(p.handles, conn)
	p.mu.Unlock()
}

// AddFunc adds a close function to the pool.
func (p *Pool) AddFunc(fx func() error) {
	p.Add(closerFunc(fx))
}

// closerFunc adapts a function to [io.Closer].
type closerFunc func() error

// Close implements [io.Closer].
func (fx closerFunc) Close() error {
	return fx()
}

// Close closes all the [io.Closer] inside the pool iterating
// in backward order. Therefore, if one registers a socket and then
// the goroutine reading from it, the goroutine is stopped first.
// The returned error is the join of all the errors that occurred
// when closing. The pool is empty and reusable after Close.
func (p *Pool) Close() error {
	// Lock and copy the [io.Closer] to close.
	p.mu.Lock()
	conns := p.handles
	p.handles = nil
	p.mu.Unlock()

	// Close all the [io.Closer].
	var errv []error
	for _, conn := range slices.Backward(conns) {
		if err := conn.Close(); err != nil {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}
