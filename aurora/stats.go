// SPDX-License-Identifier: GPL-3.0-or-later

package aurora

// Stats counts the elements an endpoint moved.
type Stats struct {
	// Sent is the number of elements read from the input stream
	// and handed to the transport.
	Sent uint64

	// Received is the number of elements received from the
	// transport and written to the output stream.
	Received uint64

	// Frames is the number of received elements with Last set.
	Frames uint64
}
