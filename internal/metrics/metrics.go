package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/triage/backend/internal/models"
)

type Import struct {
	rows     *prometheus.CounterVec
	tickets  *prometheus.CounterVec
	duration prometheus.Histogram
}

var (
	globalOnce sync.Once
	globalInst *Import
)

// Global returns the process-wide recorder registered on the default registry.
func Global() *Import {
	globalOnce.Do(func() {
		globalInst = New(prometheus.DefaultRegisterer)
	})
	return globalInst
}

func New(reg prometheus.Registerer) *Import {
	f := promauto.With(reg)
	return &Import{
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Rows processed by the importer, labeled by result",
		}, []string{"result"}),
		tickets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "tickets_total",
			Help:      "Tickets created, labeled by priority and sentiment",
		}, []string{"priority", "sentiment"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of CSV imports",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Import) ObserveImport(report models.ImportReport, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues("succeeded").Add(float64(report.Succeeded))
	m.rows.WithLabelValues("failed").Add(float64(report.Failed))
	for _, t := range report.Tickets {
		m.tickets.WithLabelValues(string(t.Priority), string(t.Sentiment)).Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}
