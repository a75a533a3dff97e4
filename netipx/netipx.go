// SPDX-License-Identifier: GPL-3.0-or-later

// Package netipx converts between [net.Addr], [net/netip], and
// [aurora.Address] values.
package netipx

import (
	"net"
	"net/netip"

	"github.com/aurora-emu/x/aurora"
)

// AddrToAddrPort converts a [net.Addr] to a [netip.AddrPort].
//
// If the input is nil or not a [*net.TCPAddr], returns an unspecified
// IPv6 address with port 0. IPv4-mapped IPv6 addresses are unmapped.
func AddrToAddrPort(addr net.Addr) netip.AddrPort {
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp != nil {
		ap := tcp.AddrPort()
		return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}
	return netip.AddrPortFrom(netip.IPv6Unspecified(), 0)
}

// ToAddress converts the address of a TCP or Unix domain socket to an
// [aurora.Address]. It returns false for other addresses.
func ToAddress(addr net.Addr) (aurora.Address, bool) {
	switch v := addr.(type) {
	case *net.TCPAddr:
		if v == nil {
			return aurora.Address{}, false
		}
		ap := AddrToAddrPort(v)
		return aurora.Remote(ap.Addr().String(), ap.Port()), true
	case *net.UnixAddr:
		if v == nil || v.Name == "" {
			return aurora.Address{}, false
		}
		return aurora.Local(v.Name), true
	default:
		return aurora.Address{}, false
	}
}
