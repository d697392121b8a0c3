package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triage/backend/internal/models"
)

func TestObserveImport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveImport(models.ImportReport{
		TotalRows: 3,
		Succeeded: 2,
		Failed:    1,
		Tickets: []models.Ticket{
			{Priority: models.PriorityUrgent, Sentiment: models.SentimentNegative},
			{Priority: models.PriorityUrgent, Sentiment: models.SentimentNegative},
		},
	}, 250*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range metric.GetLabel() {
				key += "|" + lp.GetName() + "=" + lp.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				got[key] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				got[key] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, got["triage_import_rows_total|result=succeeded"])
	assert.Equal(t, 1.0, got["triage_import_rows_total|result=failed"])
	assert.Equal(t, 2.0, got["triage_tickets_total|priority=urgent|sentiment=negative"])
	assert.Equal(t, 1.0, got["triage_import_duration_seconds"])
}

func TestNilRecorderIsNoop(t *testing.T) {
	var m *Import
	assert.NotPanics(t, func() {
		m.ObserveImport(models.ImportReport{Succeeded: 1}, time.Second)
	})
}
