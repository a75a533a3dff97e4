// SPDX-License-Identifier: GPL-3.0-or-later

package netipx_test

import (
	"net"
	"net/netip"
	"testing"

	"github.com/aurora-emu/x/aurora"
	"github.com/aurora-emu/x/netipx"
	"github.com/stretchr/testify/assert"
)

func TestAddrToAddrPort(t *testing.T) {
	tests := []struct {
		name string
		addr net.Addr
		want netip.AddrPort
	}{
		{
			name: "nil address",
			addr: nil,
			want: netip.AddrPortFrom(netip.IPv6Unspecified(), 0),
		},

		{
			name: "IPv6 TCP address",
			addr: &net.TCPAddr{IP: net.ParseIP("2001:db8::1"), Port: 20001},
			want: netip.MustParseAddrPort("[2001:db8::1]:20001"),
		},

		{
			name: "IPv4 TCP address is unmapped",
			addr: &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 20001},
			want: netip.MustParseAddrPort("127.0.0.1:20001"),
		},

		{
			name: "unix address",
			addr: &net.UnixAddr{Name: "/tmp/a1", Net: "unix"},
			want: netip.AddrPortFrom(netip.IPv6Unspecified(), 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, netipx.AddrToAddrPort(tt.addr))
		})
	}
}

func TestToAddress(t *testing.T) {
	tests := []struct {
		name   string
		addr   net.Addr
		want   aurora.Address
		wantOk bool
	}{
		{
			name:   "TCP address",
			addr:   &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 20001},
			want:   aurora.Remote("127.0.0.1", 20001),
			wantOk: true,
		},

		{
			name:   "IPv6 TCP address",
			addr:   &net.TCPAddr{IP: net.ParseIP("::1"), Port: 20000},
			want:   aurora.Remote("::1", 20000),
			wantOk: true,
		},

		{
			name:   "unix address",
			addr:   &net.UnixAddr{Name: "/tmp/a1", Net: "unix"},
			want:   aurora.Local("/tmp/a1"),
			wantOk: true,
		},

		{
			name:   "unnamed unix address",
			addr:   &net.UnixAddr{Net: "unix"},
			wantOk: false,
		},

		{
			name:   "UDP address",
			addr:   &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 53},
			wantOk: false,
		},

		{
			name:   "nil address",
			addr:   nil,
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := netipx.ToAddress(tt.addr)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
