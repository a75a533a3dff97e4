// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package errclass implements error classification.

The general idea is to classify golang errors to an enum of strings
with names resembling standard Unix error names. The classes end up
in the `errClass` field of the structured logs emitted by endpoints
and switches.

# Design Principles

1. Preserve original error in `err` in the structured logs.

2. Add the classified error as the `errClass` field.

3. Use [errors.Is] for classification.

4. Prefer the most specific class: system errors wrapped by an emulator
error win over the emulator error itself.

5. Follow Unix-like naming where appropriate.

6. Prefix emulator-specific errors with `EAURORA_`.

7. Map the nil error to an empty string.

# System and Network Errors

We delegate to [github.com/rbmk-project/common/errclass], which maps
[context.DeadlineExceeded], [net.ErrClosed], [io.EOF] and the usual
socket errors ([ECONNREFUSED], [EADDRINUSE], ...). On top of that, we
classify [EPIPE] and [ENOENT], which are common when dialing a stale
IPC socket, using platform-specific files:

- unix.go for Unix-like systems using x/sys/unix

- windows.go for Windows systems using x/sys/windows

# Messaging Errors

Errors returned by the nanomsg sockets are mapped to the closest Unix
name (e.g., a closed socket maps to [EINTR]).

# Emulator Errors

- [EADDRINUSE] for [aurora.ErrAddressInUse]

- [EISCONN] for [aurora.ErrAlreadyConnected]

- [ESHUTDOWN] for [aurora.ErrEndpointClosed]

- [EINVAL] for [aurora.ErrInvalidAddress]

- [EMSGSIZE] for [aurora.ErrPayloadWidth]

- [EAURORA_CONN_FAILED] for [aurora.ErrConnectionFailed]

- [EAURORA_IDENTITY_IN_USE] for [aurora.ErrIdentityInUse]

- [EAURORA_STREAM_CLOSED] for [aurora.ErrStreamClosed]

# Fallback

- [EGENERIC] for unclassified errors
*/
package errclass

import (
	"errors"

	"github.com/aurora-emu/x/aurora"
	"github.com/rbmk-project/common/errclass"
	"go.nanomsg.org/mangos/v3"
)

const (
	//
	// Errors classified by the common package:
	//

	// EADDRNOTAVAIL is the address not available error.
	EADDRNOTAVAIL = errclass.EADDRNOTAVAIL

	// EADDRINUSE is the address in use error.
	EADDRINUSE = errclass.EADDRINUSE

	// ECONNABORTED is the connection aborted error.
	ECONNABORTED = errclass.ECONNABORTED

	// ECONNREFUSED is the connection refused error.
	ECONNREFUSED = errclass.ECONNREFUSED

	// ECONNRESET is the connection reset by peer error.
	ECONNRESET = errclass.ECONNRESET

	// EHOSTUNREACH is the host unreachable error.
	EHOSTUNREACH = errclass.EHOSTUNREACH

	// EEOF indicates an unexpected EOF.
	EEOF = errclass.EEOF

	// EINVAL is the invalid argument error.
	EINVAL = errclass.EINVAL

	// EINTR is the interrupted system call error.
	EINTR = errclass.EINTR

	// ENETUNREACH is the network unreachable error.
	ENETUNREACH = errclass.ENETUNREACH

	// ENOTCONN is the not connected error.
	ENOTCONN = errclass.ENOTCONN

	// ETIMEDOUT is the operation timed out error.
	ETIMEDOUT = errclass.ETIMEDOUT

	//
	// Errors classified by this package:
	//

	// EISCONN is the already connected error.
	EISCONN = "EISCONN"

	// EMSGSIZE is the message too long error.
	EMSGSIZE = "EMSGSIZE"

	// ENOENT is the no such file or directory error.
	ENOENT = "ENOENT"

	// EPIPE is the broken pipe error.
	EPIPE = "EPIPE"

	// ESHUTDOWN is the endpoint shut down error.
	ESHUTDOWN = "ESHUTDOWN"

	// EAURORA_CONN_FAILED is a connection failure without a more specific cause.
	EAURORA_CONN_FAILED = "EAURORA_CONN_FAILED"

	// EAURORA_IDENTITY_IN_USE is the duplicate switch consumer error.
	EAURORA_IDENTITY_IN_USE = "EAURORA_IDENTITY_IN_USE"

	// EAURORA_STREAM_CLOSED is the stream shut down error.
	EAURORA_STREAM_CLOSED = "EAURORA_STREAM_CLOSED"

	//
	// Fallback errors:
	//

	// EGENERIC is the generic, unclassified error.
	EGENERIC = errclass.EGENERIC
)

// classifier associates an error with its class.
type classifier struct {
	err   error
	class string
}

// errorsIsList contains the errors we map using [errors.Is], in
// order of precedence, after the common package failed to classify.
var errorsIsList = []classifier{
	// system errors
	{errEPIPE, EPIPE},
	{errENOENT, ENOENT},

	// messaging errors
	{mangos.ErrAddrInUse, EADDRINUSE},
	{mangos.ErrConnRefused, ECONNREFUSED},
	{mangos.ErrClosed, EINTR},
	{mangos.ErrRecvTimeout, ETIMEDOUT},
	{mangos.ErrSendTimeout, ETIMEDOUT},

	// emulator errors
	{aurora.ErrAddressInUse, EADDRINUSE},
	{aurora.ErrAlreadyConnected, EISCONN},
	{aurora.ErrEndpointClosed, ESHUTDOWN},
	{aurora.ErrInvalidAddress, EINVAL},
	{aurora.ErrPayloadWidth, EMSGSIZE},
	{aurora.ErrIdentityInUse, EAURORA_IDENTITY_IN_USE},
	{aurora.ErrStreamClosed, EAURORA_STREAM_CLOSED},
	{aurora.ErrConnectionFailed, EAURORA_CONN_FAILED},
}

// New returns the class of the given error.
func New(err error) string {
	if err == nil {
		return ""
	}
	if class := errclass.New(err); class != EGENERIC {
		return class
	}
	for _, entry := range errorsIsList {
		if errors.Is(err, entry.err) {
			return entry.class
		}
	}
	return EGENERIC
}
