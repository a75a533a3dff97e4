// SPDX-License-Identifier: GPL-3.0-or-later

package netswitch

import (
	"sync"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/aurora-emu/x/aurora"
)

// mailbox holds the payloads addressed to one identity.
type mailbox struct {
	// attached is true while a consumer is attached.
	attached bool

	// identity is the tag of the payloads in this mailbox.
	identity string

	// mu provides mutual exclusion for attached and pending.
	mu sync.Mutex

	// pending contains payloads a detached consumer failed to write.
	pending [][]byte

	// queue contains []byte payloads and [*consumer] wakeup tokens.
	queue *queue.Queue
}

// attach marks the mailbox as used by a consumer and returns
// whether it was free.
func (mb *mailbox) attach() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.attached {
		return false
	}
	mb.attached = true
	return true
}

// detach marks the mailbox as free.
func (mb *mailbox) detach() {
	mb.mu.Lock()
	mb.attached = false
	mb.mu.Unlock()
}

// put appends a payload to the mailbox.
func (mb *mailbox) put(payload []byte) error {
	return mb.queue.Put(payload)
}

// wakeup unblocks the delivery loop of the given consumer.
func (mb *mailbox) wakeup(c *consumer) {
	_ = mb.queue.Put(c)
}

// unget saves a payload that could not be delivered, so that the
// next consumer receives it first.
func (mb *mailbox) unget(payload []byte) {
	mb.mu.Lock()
	mb.pending = append(mb.pending, payload)
	mb.mu.Unlock()
}

// next returns the next payload for c. It returns false when c
// has been woken up to detach or when the mailbox is disposed.
func (mb *mailbox) next(c *consumer) ([]byte, bool) {
	mb.mu.Lock()
	if len(mb.pending) > 0 {
		payload := mb.pending[0]
		mb.pending = mb.pending[1:]
		mb.mu.Unlock()
		return payload, true
	}
	mb.mu.Unlock()

	for {
		items, err := mb.queue.Get(1)
		if err != nil {
			return nil, false // disposed
		}
		switch item := items[0].(type) {
		case []byte:
			return item, true
		case *consumer:
			if item == c {
				return nil, false
			}
			// stale token of a consumer that already left
		}
	}
}

// mailboxes maps identities to their mailbox.
//
// Construct using [newMailboxes].
type mailboxes struct {
	boxes  map[string]*mailbox
	closed bool
	hint   int64
	mu     sync.Mutex
}

// newMailboxes creates [*mailboxes] whose queues start with hint capacity.
func newMailboxes(hint int64) *mailboxes {
	return &mailboxes{boxes: map[string]*mailbox{}, hint: hint}
}

// get returns the mailbox of identity, creating it if needed.
func (mbs *mailboxes) get(identity string) (*mailbox, error) {
	mbs.mu.Lock()
	defer mbs.mu.Unlock()
	if mbs.closed {
		return nil, aurora.ErrEndpointClosed
	}
	mb, found := mbs.boxes[identity]
	if !found {
		mb = &mailbox{identity: identity, queue: queue.New(mbs.hint)}
		mbs.boxes[identity] = mb
	}
	return mb, nil
}

// Close disposes all the mailboxes, dropping their content and
// unblocking the delivery loops.
func (mbs *mailboxes) Close() error {
	mbs.mu.Lock()
	defer mbs.mu.Unlock()
	mbs.closed = true
	for _, mb := range mbs.boxes {
		mb.queue.Dispose()
	}
	return nil
}
