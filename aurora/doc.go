// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package aurora contains the vocabulary shared by the Aurora link emulator.

An Aurora link moves fixed-width [Element] words between two FPGA kernels.
Kernels hand words to the emulator through a [Stream], a bounded blocking
FIFO the emulator consumes but does not own. Endpoints are reachable at an
[Address], rendered either as `ipc://<name>` or as `tcp://<host>:<port>`.

The packages implementing the emulator are:

- [github.com/aurora-emu/x/link] for direct, point-to-point links;

- [github.com/aurora-emu/x/netswitch] for the switch routing tagged
messages between many endpoints;

- [github.com/aurora-emu/x/routed] for endpoints attached to a switch.

The [github.com/aurora-emu/x/fifo] package provides an in-memory [Stream].

# Errors

All packages wrap the sentinel errors defined here, so callers can
use [errors.Is] regardless of the underlying transport error.

# Design Documents

This package is experimental and has no design documents for now.
*/
package aurora
