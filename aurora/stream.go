// SPDX-License-Identifier: GPL-3.0-or-later

package aurora

import "context"

// Stream is the hardware-style bounded FIFO used to hand [Element] words
// to and from the emulator.
//
// Each stream is owned by exactly one producing and one consuming goroutine.
type Stream interface {
	// Read blocks until an element is available, the context is done, or
	// the stream is shut down, in which case it returns [ErrStreamClosed].
	Read(ctx context.Context) (Element, error)

	// Write blocks while the stream is at capacity. It fails with the
	// context error or with [ErrStreamClosed].
	Write(ctx context.Context, elem Element) error

	// Empty reports whether the stream currently holds no elements.
	Empty() bool
}
