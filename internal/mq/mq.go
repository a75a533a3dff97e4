// SPDX-License-Identifier: GPL-3.0-or-later

// Package mq wraps the nanomsg sockets used by endpoints and switches.
//
// Importing this package registers every nanomsg transport (ipc, tcp, ...)
// once for the whole process.
package mq

import (
	"fmt"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pull"
	"go.nanomsg.org/mangos/v3/protocol/push"

	// register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/aurora-emu/x/aurora"
)

// Socket is the nanomsg socket type.
type Socket = mangos.Socket

// DefaultWriteQLen is the PUSH queue length used when none is configured.
const DefaultWriteQLen = 128

// NewPull creates a PULL socket listening at addr.
//
// A failure to bind is reported as [aurora.ErrAddressInUse] wrapping
// the transport error.
func NewPull(addr aurora.Address) (Socket, error) {
	sock, err := pull.NewSocket()
	if err != nil {
		return nil, err
	}
	if err := sock.Listen(addr.String()); err != nil {
		sock.Close()
		return nil, fmt.Errorf("%w: %w", aurora.ErrAddressInUse, err)
	}
	return sock, nil
}

// NewPush creates a PUSH socket connected to addr.
//
// The dial is synchronous: an unreachable peer is reported as
// [aurora.ErrConnectionFailed] wrapping the transport error.
//
// PUSH sockets queue messages while reconnecting, so a peer going away
// is otherwise invisible to the sender. When onDetached is not nil, it
// is called each time the connection to the peer is lost, including
// when the socket itself is closed.
func NewPush(addr aurora.Address, writeQLen int, onDetached func()) (Socket, error) {
	sock, err := push.NewSocket()
	if err != nil {
		return nil, err
	}
	if writeQLen <= 0 {
		writeQLen = DefaultWriteQLen
	}
	if err := sock.SetOption(mangos.OptionWriteQLen, writeQLen); err != nil {
		sock.Close()
		return nil, err
	}
	if onDetached != nil {
		sock.SetPipeEventHook(func(ev mangos.PipeEvent, _ mangos.Pipe) {
			if ev == mangos.PipeEventDetached {
				onDetached()
			}
		})
	}
	if err := sock.Dial(addr.String()); err != nil {
		sock.Close()
		return nil, fmt.Errorf("%w: %w", aurora.ErrConnectionFailed, err)
	}
	return sock, nil
}
