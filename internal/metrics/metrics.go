// Package metrics exposes operation counters on a prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Set struct {
	registry *prometheus.Registry

	Ops           *prometheus.CounterVec
	StoreFailures prometheus.Counter
}

func New() *Set {
	reg := prometheus.NewRegistry()
	s := &Set{
		registry: reg,
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "operations_total",
			Help:      "Player operations by op and outcome code.",
		}, []string{"op", "code"}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "store_failures_total",
			Help:      "Document store load/save failures.",
		}),
	}
	reg.MustRegister(s.Ops, s.StoreFailures)
	return s
}

func (s *Set) Observe(op, code string) {
	if s == nil {
		return
	}
	s.Ops.WithLabelValues(op, code).Inc()
}

func (s *Set) StoreFailure() {
	if s == nil {
		return
	}
	s.StoreFailures.Inc()
}

func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
