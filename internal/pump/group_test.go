// SPDX-License-Identifier: GPL-3.0-or-later

package pump

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroup(t *testing.T) {
	t.Run("first failure wins and cancels", func(t *testing.T) {
		g := NewGroup()
		first := errors.New("first")
		g.Go(func(ctx context.Context) error {
			return first
		})
		g.Go(func(ctx context.Context) error {
			<-ctx.Done()
			return errors.New("second")
		})
		<-g.Done()
		g.Wait()
		assert.ErrorIs(t, g.Err(), first)
	})

	t.Run("stop is not a failure", func(t *testing.T) {
		g := NewGroup()
		g.Go(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
		g.Stop()
		g.Wait()
		assert.NoError(t, g.Err())
		select {
		case <-g.Done():
		default:
			t.Fatal("expected Done to be closed")
		}
	})

	t.Run("fail records the error and stops the workers", func(t *testing.T) {
		g := NewGroup()
		g.Go(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
		expected := errors.New("peer went away")
		g.Fail(expected)
		<-g.Done()
		g.Wait()
		assert.ErrorIs(t, g.Err(), expected)
	})

	t.Run("fail after stop is ignored", func(t *testing.T) {
		g := NewGroup()
		g.Stop()
		g.Fail(errors.New("socket closed while stopping"))
		g.Wait()
		assert.NoError(t, g.Err())
	})

	t.Run("only the first failure is kept", func(t *testing.T) {
		g := NewGroup()
		first := errors.New("first")
		g.Fail(first)
		g.Fail(errors.New("second"))
		assert.ErrorIs(t, g.Err(), first)
	})
}
