package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tt2import/internal/model"
)

// File outcome labels besides the ImportError codes.
const (
	fileImported  = "IMPORTED"
	fileDuplicate = "DUPLICATE"
	fileSkipped   = "SKIPPED"
)

// Metrics holds the import pipeline's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	files    *prometheus.CounterVec
	jobs     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the import collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tt2_import_files_total",
				Help: "TT2 files processed, by outcome.",
			},
			[]string{"outcome"},
		),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tt2_import_jobs_total",
				Help: "Import jobs finished, by terminal status.",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tt2_import_job_duration_seconds",
			Help:    "Wall time from PROCESSING to the terminal write.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{m.files, m.jobs, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeFile(outcome string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeJob(status model.JobStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(string(status)).Inc()
	m.duration.Observe(d.Seconds())
}
