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

package heap

import "github.com/prometheus/client_golang/prometheus"

// PromMetrics exposes the allocator's internal counters as Prometheus
// collectors: live bytes/blocks as gauges, and cache hit/miss and region
// growth counts as counters. Register it once per
// Allocator against a prometheus.Registerer.
type PromMetrics struct {
	LiveBytes     prometheus.GaugeFunc
	LiveBlocks    prometheus.GaugeFunc
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	RegionGrowths prometheus.Counter
}

// NewPromMetrics builds and registers a PromMetrics for a against reg. The
// returned value is also wired back onto a so Alloc/Free can bump its
// counters; call this once, immediately after heap.New.
func NewPromMetrics(reg prometheus.Registerer, namespace string, a *Allocator) *PromMetrics {
	m := &PromMetrics{
		LiveBytes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "heap",
			Name:      "live_bytes",
			Help:      "Sum of currently allocated user payload bytes.",
		}, func() float64 { return float64(a.LiveBytes()) }),
		LiveBlocks: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "heap",
			Name:      "live_blocks",
			Help:      "Number of currently allocated blocks.",
		}, func() float64 { return float64(a.LiveCount()) }),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "heap",
			Name:      "cache_hits_total",
			Help:      "Allocations served from the exact-size cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "heap",
			Name:      "cache_misses_total",
			Help:      "Allocations that found the exact-size cache empty.",
		}),
		RegionGrowths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "heap",
			Name:      "region_growths_total",
			Help:      "Number of base regions acquired from growHeap.",
		}),
	}

	reg.MustRegister(m.LiveBytes, m.LiveBlocks, m.CacheHits, m.CacheMisses, m.RegionGrowths)
	a.mu.Lock()
	a.metrics = m
	a.mu.Unlock()
	return m
}
