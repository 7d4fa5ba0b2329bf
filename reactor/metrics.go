/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package reactor

import "github.com/prometheus/client_golang/prometheus"

// PromMetrics exposes the reactor's activity as Prometheus collectors:
// the live connection count as a gauge, and connects, accepts and fired
// timeouts as counters. Register it once per Reactor.
type PromMetrics struct {
	ActiveConnections prometheus.GaugeFunc
	Connects          prometheus.Counter
	Accepts           prometheus.Counter
	TimeoutsFired     prometheus.Counter
}

// NewPromMetrics builds and registers a PromMetrics for r against reg,
// wiring it back onto r so the loop can bump the counters; call this
// once, immediately after New.
func NewPromMetrics(reg prometheus.Registerer, namespace string, r *Reactor) *PromMetrics {
	m := &PromMetrics{
		ActiveConnections: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "active_connections",
			Help:      "Connections (listeners included) currently tracked.",
		}, func() float64 { return float64(r.ActiveConnections()) }),
		Connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "connects_total",
			Help:      "Client connects completed successfully.",
		}),
		Accepts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "accepts_total",
			Help:      "Inbound connections accepted by listeners.",
		}),
		TimeoutsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "timeouts_fired_total",
			Help:      "Per-operation timeouts reported as ENoResponse.",
		}),
	}

	reg.MustRegister(m.ActiveConnections, m.Connects, m.Accepts, m.TimeoutsFired)
	r.mu.Lock()
	r.metrics = m
	r.mu.Unlock()
	return m
}
