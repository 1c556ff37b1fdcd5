/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package metrics exports the engine's Stat counters over Prometheus.

METRIC CATEGORIES:
==================
- Operations: one request counter per operation (set, get,
  get_prefix), labelled by op. Unlike the engine's Stat counters, Set
  and Get calls that return an error are not counted here.
- Keys: current key count gauge.

PROMETHEUS ENDPOINT:
====================
Metrics are exposed at /metrics in Prometheus text format via
promhttp.HandlerFor on the registry passed to NewEngineMetrics;
cmd/shardkv-server wires that handler onto an http.Server alongside
the RPC listener.

EXAMPLE METRICS:
================

	shardkv_requests_total{op="set"} 12345
	shardkv_requests_total{op="get"} 98765
	shardkv_requests_total{op="get_prefix"} 42
	shardkv_key_count 12345
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics holds the Prometheus collectors backing the engine's
// externally-scraped view of its own Stat counters.
type EngineMetrics struct {
	requestsTotal *prometheus.CounterVec
	keyCount      prometheus.Gauge
}

// NewEngineMetrics registers a fresh set of collectors against reg.
// Passing prometheus.NewRegistry() (rather than the global default
// registry) lets tests build isolated instances without collisions.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shardkv_requests_total",
			Help: "Total engine requests, by operation.",
		}, []string{"op"}),
		keyCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shardkv_key_count",
			Help: "Current number of keys held by the index.",
		}),
	}
}

// ObserveSet records one Set call.
func (m *EngineMetrics) ObserveSet() { m.requestsTotal.WithLabelValues("set").Inc() }

// ObserveGet records one Get call.
func (m *EngineMetrics) ObserveGet() { m.requestsTotal.WithLabelValues("get").Inc() }

// ObserveGetPrefix records one GetPrefix call.
func (m *EngineMetrics) ObserveGetPrefix() { m.requestsTotal.WithLabelValues("get_prefix").Inc() }

// SetKeyCount updates the key-count gauge to the index's current size.
func (m *EngineMetrics) SetKeyCount(n int) { m.keyCount.Set(float64(n)) }
