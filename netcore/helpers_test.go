// SPDX-License-Identifier: GPL-3.0-or-later

package netcore

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fixedTime is the time returned by [newTestNetwork]'s TimeNow.
var fixedTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fixedTimeString is fixedTime as it appears in the JSON logs.
var fixedTimeString = fixedTime.Format(time.RFC3339Nano)

// newTestNetwork returns a [*Network] logging JSON at the given level
// into the returned buffer, without the wall-clock time key.
func newTestNetwork(level slog.Level) (*Network, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	nx := &Network{
		Logger:  logger,
		TimeNow: func() time.Time { return fixedTime },
	}
	return nx, &buf
}

// parseLogs parses each JSON line in buf.
func parseLogs(t *testing.T, buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}
