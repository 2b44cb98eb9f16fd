// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus collectors of the web server.
type Metrics struct {
	registry *prometheus.Registry

	Requests    *prometheus.CounterVec
	AgentRuns   *prometheus.HistogramVec
	WSMessages  prometheus.Counter
	AgentErrors prometheus.Counter
}

// NewMetrics creates the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentkit_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		AgentRuns: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentkit_agent_run_duration_seconds",
			Help:    "Duration of agent turns.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"source"}),
		WSMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentkit_websocket_messages_total",
			Help: "Messages received over WebSocket connections.",
		}),
		AgentErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentkit_agent_errors_total",
			Help: "Agent turns that failed.",
		}),
	}
	m.registry.MustRegister(
		m.Requests, m.AgentRuns, m.WSMessages, m.AgentErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a finished agent turn.
func (m *Metrics) ObserveRun(source string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.AgentRuns.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		m.AgentErrors.Inc()
	}
}

// Instrument counts requests served by next under the route name.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerCounter(m.Requests.MustCurryWith(prometheus.Labels{"route": route}), next)
}
