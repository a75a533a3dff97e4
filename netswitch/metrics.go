// SPDX-License-Identifier: GPL-3.0-or-later

package netswitch

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics contains the switch Prometheus collectors.
type metrics struct {
	delivered   *prometheus.CounterVec
	received    *prometheus.CounterVec
	subscribers prometheus.Gauge
}

// newMetrics creates the collectors and registers them with reg, if
// not nil, reusing collectors registered by another switch.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aurora",
			Subsystem: "switch",
			Name:      "delivered_messages_total",
			Help:      "Messages written to the consumer of their tag.",
		}, []string{"identity"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aurora",
			Subsystem: "switch",
			Name:      "received_messages_total",
			Help:      "Messages read from the ingress socket.",
		}, []string{"identity"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aurora",
			Subsystem: "switch",
			Name:      "subscribers",
			Help:      "Consumers attached to the egress port.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.delivered, err = register(reg, m.delivered); err != nil {
		return nil, err
	}
	if m.received, err = register(reg, m.received); err != nil {
		return nil, err
	}
	if m.subscribers, err = register(reg, m.subscribers); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c with reg or returns the equivalent collector
// that is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}
