// SPDX-License-Identifier: GPL-3.0-or-later

package netswitch

import (
	"log/slog"
	"time"

	"github.com/aurora-emu/x/netcore"
	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for creating a [*Switch].
//
// The zero value is ready to use.
type Config struct {
	// Logger is the optional structured logger. If this field
	// is nil, we will not be emitting structured logs.
	Logger *slog.Logger

	// MailboxHint is the optional initial capacity of each
	// identity mailbox. Mailboxes grow as needed.
	MailboxHint int64

	// Network is the optional [*netcore.Network] used for the egress
	// listener. If this field is nil, we use [netcore.DefaultNetwork].
	Network *netcore.Network

	// Registerer is the optional Prometheus registerer for the
	// switch metrics. If this field is nil, metrics are collected
	// but not registered.
	Registerer prometheus.Registerer

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time
}

// DefaultConfig is the [*Config] used by [New] and [NewListening].
var DefaultConfig = &Config{}

// network returns the network to use.
func (c *Config) network() *netcore.Network {
	if c.Network != nil {
		return c.Network
	}
	return netcore.DefaultNetwork
}

// mailboxHint returns the mailbox capacity hint to use.
func (c *Config) mailboxHint() int64 {
	if c.MailboxHint > 0 {
		return c.MailboxHint
	}
	return 64
}
