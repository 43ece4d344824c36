// Package metrics holds the Prometheus collectors exported on /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// filesharing_registrations_total{outcome}
	Registrations *prometheus.CounterVec
	// filesharing_verifications_total{outcome}
	Verifications *prometheus.CounterVec
	// filesharing_shares_total{action}
	Shares *prometheus.CounterVec
	// filesharing_files_total{action}
	Files *prometheus.CounterVec

	DownloadLinks  prometheus.Counter
	BytesUploaded  prometheus.Counter
	SweptPending   prometheus.Counter
	OrphansRemoved prometheus.Counter
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests
// so repeated construction doesn't panic on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	f := promauto.With(reg)

	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesharing_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),

		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesharing_verifications_total",
			Help: "Email verification attempts by outcome",
		}, []string{"outcome"}),

		Shares: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesharing_shares_total",
			Help: "Share ledger mutations by action",
		}, []string{"action"}),

		Files: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesharing_files_total",
			Help: "File registry mutations by action",
		}, []string{"action"}),

		DownloadLinks: f.NewCounter(prometheus.CounterOpts{
			Name: "filesharing_download_links_total",
			Help: "Presigned download links issued",
		}),

		BytesUploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "filesharing_bytes_uploaded_total",
			Help: "Total bytes written to object storage",
		}),

		SweptPending: f.NewCounter(prometheus.CounterOpts{
			Name: "filesharing_pending_swept_total",
			Help: "Expired pending registrations removed by the sweep",
		}),

		OrphansRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "filesharing_orphan_objects_removed_total",
			Help: "Objects removed from storage after their file was deleted",
		}),
	}
}
