// SPDX-License-Identifier: GPL-3.0-or-later

package aurora

import "errors"

var (
	// ErrAddressInUse indicates that an address is already bound, including
	// the case of binding an already-bound switch a second time.
	ErrAddressInUse = errors.New("aurora: address already in use")

	// ErrAlreadyConnected indicates that an endpoint already has a send path.
	ErrAlreadyConnected = errors.New("aurora: endpoint already connected")

	// ErrConnectionFailed indicates that a peer or switch was unreachable.
	ErrConnectionFailed = errors.New("aurora: connection failed")

	// ErrEndpointClosed indicates an operation on a closed endpoint or switch.
	ErrEndpointClosed = errors.New("aurora: endpoint closed")

	// ErrIdentityInUse indicates that a switch consumer with the same
	// identity is already attached.
	ErrIdentityInUse = errors.New("aurora: identity already in use")

	// ErrInvalidAddress indicates a malformed endpoint address.
	ErrInvalidAddress = errors.New("aurora: invalid address")

	// ErrPayloadWidth indicates a payload whose size is not [ElementSize].
	ErrPayloadWidth = errors.New("aurora: invalid payload width")

	// ErrStreamClosed indicates that a [Stream] has been shut down.
	ErrStreamClosed = errors.New("aurora: stream closed")
)
