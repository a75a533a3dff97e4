// SPDX-License-Identifier: GPL-3.0-or-later

// Command auroraswitch runs a standalone Aurora switch.
//
// Usage:
//
//	auroraswitch --host 127.0.0.1 --port 20000 [--metrics-address 127.0.0.1:9100]
//
// Producers push to the given port and consumers subscribe at port+1.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aurora-emu/x/aurora"
	"github.com/aurora-emu/x/netcore"
	"github.com/aurora-emu/x/netswitch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	atexit.Register(cancel)
	if err := newRootCommand(os.Stderr).ExecuteContext(ctx); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// options contains the command line options.
type options struct {
	address        string
	host           string
	logFormat      string
	logLevel       string
	metricsAddress string
	port           uint16

	// ready, if not nil, is called once the switch is listening.
	ready func(sw *netswitch.Switch)
}

// newRootCommand creates the root command logging to stderr.
func newRootCommand(stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "auroraswitch",
		Short: "Run an Aurora link switch.",
		Long: `Run an Aurora link switch routing tagged messages between ` +
			`endpoints. Producers push to --port and consumers subscribe ` +
			`at --port plus one.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.parseAddress(); err != nil {
				return err
			}
			return run(cmd.Context(), stderr, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.address, "address", "", "ingress address as tcp://host:port; overrides --host and --port")
	flags.StringVar(&opts.host, "host", "127.0.0.1", "host to bind")
	flags.Uint16Var(&opts.port, "port", 20000, "ingress port; egress uses port+1")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	flags.StringVar(&opts.metricsAddress, "metrics-address", "", "serve Prometheus metrics at this address")
	return cmd
}

// parseAddress sets host and port from the --address flag, if set.
func (opts *options) parseAddress() error {
	if opts.address == "" {
		return nil
	}
	addr, err := aurora.ParseAddress(opts.address)
	if err != nil {
		return fmt.Errorf("invalid --address: %w", err)
	}
	if addr.Network() != aurora.NetworkTCP {
		return fmt.Errorf("invalid --address: %w: a switch needs a tcp address", aurora.ErrInvalidAddress)
	}
	opts.host, opts.port = addr.Host(), addr.Port()
	return nil
}

// run runs the switch until ctx is done.
func run(ctx context.Context, stderr io.Writer, opts *options) error {
	logger, err := newLogger(stderr, opts.logFormat, opts.logLevel)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	config := &netswitch.Config{
		Logger:     logger,
		Network:    netcore.NewNetwork(logger),
		Registerer: registry,
	}
	sw, err := config.NewListening(opts.host, opts.port)
	if err != nil {
		return err
	}
	atexit.Register(func() { sw.Close() })
	defer sw.Close()

	if opts.metricsAddress != "" {
		srv, err := serveMetrics(ctx, logger, opts.metricsAddress, registry)
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	if opts.ready != nil {
		opts.ready(sw)
	}
	return wait(ctx, sw)
}

// wait blocks until ctx is done or the switch stops, returning the
// switch failure, if any.
func wait(ctx context.Context, sw *netswitch.Switch) error {
	select {
	case <-ctx.Done():
	case <-sw.Done():
	}
	return sw.Err()
}

// newLogger creates the [*slog.Logger] selected by the command line.
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format: %q", format)
	}
}
