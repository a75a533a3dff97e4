// SPDX-License-Identifier: GPL-3.0-or-later

// Package porttest picks loopback TCP ports for integration tests.
package porttest

import (
	"net"
	"testing"
)

// Host is the host used by integration tests.
const Host = "127.0.0.1"

// Free returns a TCP port that was free when this function was called.
func Free(t testing.TB) uint16 {
	t.Helper()
	lis, err := net.Listen("tcp", net.JoinHostPort(Host, "0"))
	if err != nil {
		t.Fatal(err)
	}
	defer lis.Close()
	return uint16(lis.Addr().(*net.TCPAddr).Port)
}

// FreePair returns a port p such that both p and p+1 were free when
// this function was called, which is what a switch needs.
func FreePair(t testing.TB) uint16 {
	t.Helper()
	for attempt := 0; attempt < 64; attempt++ {
		first, err := net.Listen("tcp", net.JoinHostPort(Host, "0"))
		if err != nil {
			t.Fatal(err)
		}
		port := first.Addr().(*net.TCPAddr).Port
		if port >= 65535 {
			first.Close()
			continue
		}
		second, err := net.Listen("tcp", (&net.TCPAddr{IP: net.ParseIP(Host), Port: port + 1}).String())
		first.Close()
		if err != nil {
			continue
		}
		second.Close()
		return uint16(port)
	}
	t.Fatal("porttest: cannot find two consecutive free ports")
	return 0
}
