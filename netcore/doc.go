// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package netcore provides a TCP/IPC dialer and listener.

This package is designed to facilitate observing the connections
between Aurora endpoints and switches via the [log/slog] package.

# Features

- TCP/IPC dialer compatible with the [*net.Dialer];

- TCP/IPC listener compatible with the [*net.ListenConfig];

- [aurora.Address] aware helpers mapping `ipc://` to Unix domain sockets.

# Design Documents

This package is experimental and has no design documents for now.
*/
package netcore
