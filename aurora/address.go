//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Endpoint addresses.
//

package aurora

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	// NetworkIPC is the network of addresses created using [Local].
	NetworkIPC = "ipc"

	// NetworkTCP is the network of addresses created using [Remote].
	NetworkTCP = "tcp"
)

// Address is the address of an endpoint or of a switch socket.
//
// An address is either local, naming an interprocess socket, or remote,
// naming a TCP host and port. Addresses are immutable values.
//
// The zero value is invalid; construct using [Local], [Remote],
// or [ParseAddress].
type Address struct {
	// network is either [NetworkIPC] or [NetworkTCP].
	network string

	// name is the IPC socket name.
	name string

	// host is the TCP host.
	host string

	// port is the TCP port.
	port uint16
}

// Local returns the [Address] rendered as `ipc://<name>`.
func Local(name string) Address {
	return Address{network: NetworkIPC, name: name}
}

// Remote returns the [Address] rendered as `tcp://<host>:<port>`.
func Remote(host string, port uint16) Address {
	return Address{network: NetworkTCP, host: host, port: port}
}

// ParseAddress parses an address previously rendered by [Address.String].
func ParseAddress(s string) (Address, error) {
	scheme, rest, found := strings.Cut(s, "://")
	if !found || rest == "" {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	switch scheme {
	case NetworkIPC:
		return Local(rest), nil

	case NetworkTCP:
		host, sport, err := net.SplitHostPort(rest)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		port, err := strconv.ParseUint(sport, 10, 16)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		return Remote(host, uint16(port)), nil

	default:
		return Address{}, fmt.Errorf("%w: unknown scheme %q", ErrInvalidAddress, scheme)
	}
}

// IsValid returns whether the address was properly constructed.
func (a Address) IsValid() bool {
	return a.network == NetworkIPC || a.network == NetworkTCP
}

// Network returns [NetworkIPC] or [NetworkTCP].
func (a Address) Network() string {
	return a.network
}

// Endpoint returns the socket name for local addresses and
// the `<host>:<port>` pair for remote addresses.
func (a Address) Endpoint() string {
	if a.network == NetworkIPC {
		return a.name
	}
	return net.JoinHostPort(a.host, strconv.Itoa(int(a.port)))
}

// Host returns the TCP host, or the empty string for local addresses.
func (a Address) Host() string {
	return a.host
}

// Port returns the TCP port, or zero for local addresses.
func (a Address) Port() uint16 {
	return a.port
}

// Next returns the remote address with the same host and the next port,
// which is where a switch binds its egress socket.
func (a Address) Next() (Address, error) {
	if a.network != NetworkTCP || a.port == 65535 {
		return Address{}, fmt.Errorf("%w: no next port for %q", ErrInvalidAddress, a.String())
	}
	return Remote(a.host, a.port+1), nil
}

// String renders the address as `ipc://<name>` or `tcp://<host>:<port>`.
func (a Address) String() string {
	if !a.IsValid() {
		return ""
	}
	return a.network + "://" + a.Endpoint()
}
