// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsServer serves the switch metrics over HTTP.
type metricsServer struct {
	lis net.Listener
	srv *http.Server
}

// serveMetrics serves the metrics in registry at address.
func serveMetrics(ctx context.Context,
	logger *slog.Logger, address string, registry *prometheus.Registry) (*metricsServer, error) {
	lis, err := (&net.ListenConfig{}).Listen(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	ms := &metricsServer{lis: lis, srv: &http.Server{Handler: mux}}
	go func() {
		err := ms.srv.Serve(lis)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metricsServeDone", slog.Any("err", err))
		}
	}()
	logger.Info("metricsListening", slog.String("localAddr", lis.Addr().String()))
	return ms, nil
}

// Addr returns the address the server listens at.
func (ms *metricsServer) Addr() net.Addr {
	return ms.lis.Addr()
}

// Close stops the server.
func (ms *metricsServer) Close() error {
	return ms.srv.Close()
}
