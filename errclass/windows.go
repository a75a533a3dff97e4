//go:build windows

// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import "golang.org/x/sys/windows"

const (
	errECONNREFUSED = windows.WSAECONNREFUSED
	errENOENT       = windows.ERROR_FILE_NOT_FOUND
	errEPIPE        = windows.ERROR_BROKEN_PIPE
)
