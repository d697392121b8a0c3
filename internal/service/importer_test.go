package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triage/backend/internal/ai"
	"github.com/triage/backend/internal/classify"
	"github.com/triage/backend/internal/csvparse"
	"github.com/triage/backend/internal/models"
)

var fixedNow = time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)

type flakyAdapter struct {
	rules ai.RuleAdapter
}

func (f flakyAdapter) Classify(ctx context.Context, subject, body string) (models.Classification, error) {
	switch subject {
	case "boom":
		return models.Classification{}, errors.New("service unavailable")
	case "panic":
		panic("classifier exploded")
	}
	return f.rules.Classify(ctx, subject, body)
}

func newTestImporter(adapter ai.Adapter) *Importer {
	im := NewImporter(adapter, zerolog.Nop())
	im.Clock = FixedClock(fixedNow)
	im.IDs = SequenceIDs{Prefix: "t"}
	im.Location = time.UTC
	return im
}

func TestImportCSV_ScenarioA(t *testing.T) {
	text := "sender,subject,body,sent_date\n" +
		`"Jane Doe <jane@x.com>","URGENT: help","cannot access account","2025-01-01T00:00:00Z"`

	report, err := newTestImporter(nil).ImportCSV(context.Background(), text)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalRows)
	require.Len(t, report.Tickets, 1)

	tk := report.Tickets[0]
	assert.Equal(t, "t-0", tk.ID)
	assert.Equal(t, "Jane Doe", tk.Sender.Name)
	assert.Equal(t, "jane@x.com", tk.Sender.Email)
	assert.Equal(t, models.PriorityUrgent, tk.Priority)
	assert.Equal(t, models.SentimentNegative, tk.Sentiment)
	assert.Equal(t, models.StatusPending, tk.Status)
	assert.Nil(t, tk.AIResponse)
	assert.Contains(t, tk.ExtractedInfo.UrgencyKeywords, "urgent")
	assert.Contains(t, tk.ExtractedInfo.UrgencyKeywords, "cannot access")
	assert.True(t, tk.ReceivedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestImportCSV_DroppedRowNotCounted(t *testing.T) {
	text := "sender,subject,body,sent_date\n" +
		"a@x.com,hello,first body,2025-01-01T10:00:00Z\n" +
		"b@x.com,short row,2025-01-01T10:00:00Z\n" +
		"c@x.com,bye,second body,2025-01-01T11:00:00Z\n"

	report, err := newTestImporter(nil).ImportCSV(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, "hello", report.Tickets[0].Subject)
	assert.Equal(t, "bye", report.Tickets[1].Subject)
}

func TestImportCSV_MissingColumns(t *testing.T) {
	report, err := newTestImporter(nil).ImportCSV(context.Background(), "sender,subject,sent_date\na,b,c")
	var mc *csvparse.MissingColumnsError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, []string{"body"}, mc.Missing)
	assert.Empty(t, report.Tickets)
}

func TestImportCSV_NoRecords(t *testing.T) {
	_, err := newTestImporter(nil).ImportCSV(context.Background(), "sender,subject,body,sent_date\n,,,\n")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestImport_RowFailuresDoNotAbort(t *testing.T) {
	records := []models.RawRecord{
		{"sender": "a@x.com", "subject": "fine", "body": "thanks, great job", "sent_date": "2025-01-01"},
		{"sender": "b@x.com", "subject": "boom", "body": "x", "sent_date": "2025-01-01"},
		{"sender": "c@x.com", "subject": "panic", "body": "x", "sent_date": "2025-01-01"},
		{"sender": "d@x.com", "subject": "also fine", "body": "hello", "sent_date": "2025-01-01"},
	}

	report := newTestImporter(flakyAdapter{}).Import(context.Background(), records)

	assert.Equal(t, 4, report.TotalRows)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, report.TotalRows, report.Succeeded+report.Failed)
	require.Len(t, report.Errors, 2)
	assert.True(t, strings.HasPrefix(report.Errors[0], "Row 3: "), report.Errors[0])
	assert.Contains(t, report.Errors[0], "service unavailable")
	assert.True(t, strings.HasPrefix(report.Errors[1], "Row 4: "), report.Errors[1])
	assert.Contains(t, report.Errors[1], "classifier exploded")
	assert.Equal(t, []string{"t-0", "t-3"}, []string{report.Tickets[0].ID, report.Tickets[1].ID})
}

func TestImport_UnparseableDateDefaultsToClock(t *testing.T) {
	records := []models.RawRecord{
		{"sender": "a@x.com", "subject": "s", "body": "b", "sent_date": "yesterday-ish"},
	}
	report := newTestImporter(nil).Import(context.Background(), records)
	require.Equal(t, 1, report.Succeeded)
	assert.True(t, report.Tickets[0].ReceivedAt.Equal(fixedNow))
}

func TestImport_InvalidClassificationFailsRow(t *testing.T) {
	bad := adapterFunc(func(context.Context, string, string) (models.Classification, error) {
		return models.Classification{Priority: "high", Sentiment: models.SentimentNeutral}, nil
	})
	records := []models.RawRecord{{"sender": "a@x.com", "subject": "s", "body": "b", "sent_date": "2025-01-01"}}

	report := newTestImporter(bad).Import(context.Background(), records)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Errors[0], "invalid ticket")
}

func TestImport_DefaultIDsUniqueWithinBatch(t *testing.T) {
	im := NewImporter(ai.NewRuleAdapter(classify.DefaultLexicon()), zerolog.Nop())
	records := make([]models.RawRecord, 5)
	for i := range records {
		records[i] = models.RawRecord{"sender": "a@x.com", "subject": "s", "body": "b", "sent_date": "2025-01-01"}
	}
	report := im.Import(context.Background(), records)

	seen := map[string]bool{}
	for _, tk := range report.Tickets {
		assert.False(t, seen[tk.ID], "duplicate id %s", tk.ID)
		seen[tk.ID] = true
	}
	assert.Len(t, seen, 5)
}

func TestParseSentDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		raw  string
		ok   bool
		want time.Time
	}{
		{"2025-01-27T08:30:00Z", true, time.Date(2025, 1, 27, 8, 30, 0, 0, time.UTC)},
		{"2025-01-27T08:30:00+02:00", true, time.Date(2025, 1, 27, 6, 30, 0, 0, time.UTC)},
		{"2025-01-27", true, time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)},
		{"2025-01-27 08:30:00", true, time.Date(2025, 1, 27, 8, 30, 0, 0, ny)},
		{"Mon, 27 Jan 2025 08:30:00 GMT", true, time.Date(2025, 1, 27, 8, 30, 0, 0, time.UTC)},
		{"not a date", false, time.Time{}},
		{"", false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseSentDate(tt.raw, ny)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			}
		})
	}
}

type adapterFunc func(ctx context.Context, subject, body string) (models.Classification, error)

func (f adapterFunc) Classify(ctx context.Context, subject, body string) (models.Classification, error) {
	return f(ctx, subject, body)
}
