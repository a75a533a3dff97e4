// SPDX-License-Identifier: GPL-3.0-or-later

// Package connpool contains a pool of live connections.
//
// Unlike [github.com/aurora-emu/x/closepool], connections come and go:
// the switch adds a consumer connection when it attaches and removes it
// when the consumer goes away, and closes the survivors on shutdown.
package connpool

import (
	"errors"
	"io"
	"sync"
)

// Pool is a pool of connections.
//
// Construct using [New].
type Pool struct {
	// conns contains the connections to close.
	conns map[io.Closer]struct{}

	// closed is set by Close.
	closed bool

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// New constructs a new [*Pool] instance.
func New() *Pool {
	return &Pool{conns: map[io.Closer]struct{}{}}
}

// Add adds a given connection to the pool. It returns false, after
// closing the connection, when the pool is already closed.
func (p *Pool) Add(conn io.Closer) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return false
	}
	p.conns[conn] = struct{}{}
	p.mu.Unlock()
	return true
}

// Remove removes a connection from the pool without closing it.
func (p *Pool) Remove(conn io.Closer) {
	p.mu.Lock()
	delete(p.conns, conn)
	p.mu.Unlock()
}

// Len returns the number of connections in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Close closes all the connections inside the pool. Connections
// added after Close are closed immediately.
func (p *Pool) Close() error {

	p.mu.Lock()
	conns := p.conns
	p.conns = map[io.Closer]struct{}{}
	p.closed = true
	p.mu.Unlock()

	var errv []error
	for conn := range conns {
		if err := conn.Close(); err != nil {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}
