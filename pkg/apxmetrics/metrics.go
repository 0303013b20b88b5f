/*
MIT License

Copyright (c) 2026 cogu

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package apxmetrics is the optional ambient Prometheus instrumentation for
// the RMF connection and file-manager layer, grounded on
// github.com/prometheus/client_golang (a teacher dependency with no other
// plausible home in this project). A nil *Registry is a legal no-op
// receiver, mirroring how the teacher's monitor/status packages tolerate
// an absent collector.
package apxmetrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every metric this project exposes. Construct with New and
// register it with a prometheus.Registerer, or leave nil to disable.
type Registry struct {
	OpenConnections   prometheus.Gauge
	SigMapEntries     prometheus.Gauge
	FramesDecoded     *prometheus.CounterVec
	PackUnpackErrors  *prometheus.CounterVec
	BytesRouted       prometheus.Counter
}

// New builds a Registry and registers its collectors with reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		OpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "apx", Subsystem: "rmf", Name: "open_connections",
			Help: "Number of RMF connections created and not yet closed.",
		}),
		SigMapEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "apx", Subsystem: "sigmap", Name: "entries",
			Help: "Number of live port-signature-map entries.",
		}),
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apx", Subsystem: "rmf", Name: "frames_decoded_total",
			Help: "RMF frames decoded, by command type.",
		}, []string{"command"}),
		PackUnpackErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apx", Subsystem: "serialvm", Name: "errors_total",
			Help: "pack()/unpack() failures, by error kind.",
		}, []string{"kind"}),
		BytesRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "apx", Subsystem: "filemgr", Name: "bytes_routed_total",
			Help: "Bytes written into remote (peer-published) files via received data frames.",
		}),
	}

	if reg != nil {
		reg.MustRegister(r.OpenConnections, r.SigMapEntries, r.FramesDecoded, r.PackUnpackErrors, r.BytesRouted)
	}

	return r
}

func (r *Registry) IncConn() {
	if r == nil {
		return
	}
	r.OpenConnections.Inc()
}

func (r *Registry) DecConn() {
	if r == nil {
		return
	}
	r.OpenConnections.Dec()
}

func (r *Registry) SetSigMapEntries(n int) {
	if r == nil {
		return
	}
	r.SigMapEntries.Set(float64(n))
}

func (r *Registry) ObserveFrame(command string) {
	if r == nil {
		return
	}
	r.FramesDecoded.WithLabelValues(command).Inc()
}

func (r *Registry) ObservePackUnpackError(kind string) {
	if r == nil {
		return
	}
	r.PackUnpackErrors.WithLabelValues(kind).Inc()
}

func (r *Registry) AddBytesRouted(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.BytesRouted.Add(float64(n))
}
