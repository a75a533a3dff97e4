//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import "golang.org/x/sys/unix"

const (
	errECONNREFUSED = unix.ECONNREFUSED
	errENOENT       = unix.ENOENT
	errEPIPE        = unix.EPIPE
)
