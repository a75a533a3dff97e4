// SPDX-License-Identifier: GPL-3.0-or-later

package pump

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group runs the workers of a single endpoint or switch.
//
// The first worker failure is recorded and cancels the context
// shared by all the workers.
//
// Construct using [NewGroup].
type Group struct {
	cancel context.CancelFunc
	ctx    context.Context
	err    error
	group  *errgroup.Group
	mu     sync.Mutex
}

// NewGroup creates a new [*Group].
func NewGroup() *Group {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	return &Group{cancel: cancel, ctx: ctx, group: group}
}

// Go runs fx in a background goroutine.
func (g *Group) Go(fx func(ctx context.Context) error) {
	g.group.Go(func() error {
		err := fx(g.ctx)
		if err != nil {
			g.mu.Lock()
			if g.err == nil {
				g.err = err
			}
			g.mu.Unlock()
		}
		return err
	})
}

// Fail records err as a failure, unless one is already recorded or the
// group has been stopped, and cancels the context shared by the workers.
//
// Use it for failures detected outside of the workers.
func (g *Group) Fail(err error) {
	g.mu.Lock()
	if g.err == nil && g.ctx.Err() == nil {
		g.err = err
	}
	g.mu.Unlock()
	g.cancel()
}

// Done returns a channel closed once the workers have been told to stop,
// either because one of them failed or because of [*Group.Stop].
func (g *Group) Done() <-chan struct{} {
	return g.ctx.Done()
}

// Err returns the first worker failure, if any.
func (g *Group) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Stop cancels the context shared by the workers.
func (g *Group) Stop() {
	g.cancel()
}

// Wait waits for all the workers to return.
func (g *Group) Wait() {
	_ = g.group.Wait()
}
