// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package netswitch emulates a switch routing Aurora words between many
endpoints.

A [*Switch] listens at two consecutive TCP ports. Producers push
two-frame `(tag, payload)` messages (see [github.com/aurora-emu/x/frame])
to the ingress port using nanomsg PUSH sockets. Consumers connect to the
egress port (ingress port plus one) using [Subscribe], announce their
identity, and receive the messages whose tag equals that identity.

# Egress Protocol

After connecting, the consumer sends one frame containing its identity.
The switch answers with a one-frame status: `0` when the identity was
free, `1` when another consumer is attached with the same identity, in
which case the switch closes the connection. After a `0` status, the
switch streams `(tag, payload)` messages until either side closes.

# Delivery Guarantees

Each identity owns an unbounded mailbox. Messages for an identity
without a consumer wait in the mailbox until one subscribes, and a slow
consumer never blocks consumers of other identities. Messages sent by the
same producer to the same identity are delivered in order. Messages sent
by different producers to the same identity are interleaved arbitrarily.

Closing the switch drops the messages still in the mailboxes.

# Metrics

When [Config.Registerer] is set, the switch registers Prometheus
counters of received and delivered messages per identity and a gauge
of attached consumers.
*/
package netswitch
