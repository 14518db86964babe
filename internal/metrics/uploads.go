// Package metrics holds the Prometheus instrumentation of firmware uploads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Uploads records the outcome of firmware uploads.
type Uploads struct {
	total    *prometheus.CounterVec
	duration prometheus.Histogram
	workers  prometheus.Gauge
	retries  prometheus.Counter
}

// NewUploads creates the upload metrics and registers them with reg.
func NewUploads(reg prometheus.Registerer) *Uploads {
	u := &Uploads{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gige_firmware_uploads_total",
			Help: "Firmware uploads by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gige_firmware_upload_duration_seconds",
			Help:    "Time taken by a single firmware upload.",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gige_batch_workers",
			Help: "Upload workers started by the last batch.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gige_firmware_upload_retries_total",
			Help: "Uploads retried sequentially after failing in the parallel phase.",
		}),
	}
	reg.MustRegister(u.total, u.duration, u.workers, u.retries)
	return u
}

// Observe records one finished upload. result is "success" or the error kind.
func (u *Uploads) Observe(result string, took time.Duration) {
	if u == nil {
		return
	}
	u.total.WithLabelValues(result).Inc()
	u.duration.Observe(took.Seconds())
}

func (u *Uploads) SetWorkers(n int) {
	if u == nil {
		return
	}
	u.workers.Set(float64(n))
}

func (u *Uploads) Retried() {
	if u == nil {
		return
	}
	u.retries.Inc()
}
