package server

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeLimited  = "limited"
)

type metrics struct {
	reports      *prometheus.CounterVec
	publications prometheus.Histogram
	dropped      prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bix_reports_total",
			Help: "Report requests by outcome.",
		}, []string{"outcome"}),
		publications: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bix_report_publications",
			Help:    "Publications per computed report.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 7),
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bix_dropped_rows_total",
			Help: "CSV rows dropped during normalization.",
		}),
	}
	reg.MustRegister(m.reports, m.publications, m.dropped)
	return m
}
