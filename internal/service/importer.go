package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/triage/backend/internal/ai"
	"github.com/triage/backend/internal/classify"
	"github.com/triage/backend/internal/csvparse"
	"github.com/triage/backend/internal/identity"
	"github.com/triage/backend/internal/models"
)

// ErrNoRecords is returned when a file parses but yields no usable rows.
var ErrNoRecords = errors.New("no valid data rows found")

// Importer turns raw records into tickets. The zero value is not usable;
// construct it with NewImporter.
type Importer struct {
	Adapter   ai.Adapter
	Clock     Clock
	IDs       IDGenerator
	Validator *validator.Validate
	// Location applies to sent_date values that carry no zone.
	Location *time.Location
	Logger   zerolog.Logger
}

func NewImporter(adapter ai.Adapter, logger zerolog.Logger) *Importer {
	if adapter == nil {
		adapter = ai.NewRuleAdapter(classify.DefaultLexicon())
	}
	return &Importer{
		Adapter:   adapter,
		Clock:     SystemClock{},
		Validator: validator.New(),
		Location:  time.Local,
		Logger:    logger,
	}
}

// ImportCSV parses text and imports every surviving row. Missing columns and
// an empty data set are whole-file errors; everything else is reported per row.
func (im *Importer) ImportCSV(ctx context.Context, text string) (models.ImportReport, error) {
	records, err := csvparse.Parse(text)
	if err != nil {
		return models.ImportReport{}, err
	}
	if len(records) == 0 {
		return models.ImportReport{}, ErrNoRecords
	}
	return im.Import(ctx, records), nil
}

// Import processes records in order. A failing row is counted and described
// in Errors as "Row <n>: ..." where n = index + 2 (header line + 1-based row).
func (im *Importer) Import(ctx context.Context, records []models.RawRecord) models.ImportReport {
	report := models.ImportReport{
		TotalRows: len(records),
		Errors:    []string{},
		Tickets:   []models.Ticket{},
	}

	ids := im.IDs
	if ids == nil {
		ids = NewBatchIDs()
	}

	for i, rec := range records {
		t, err := im.buildTicket(ctx, rec, ids.NewID(i))
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("Row %d: %s", i+2, err.Error()))
			im.Logger.Warn().Err(err).Int("row", i+2).Msg("ticket import failed")
			continue
		}
		report.Succeeded++
		report.Tickets = append(report.Tickets, t)
	}

	im.Logger.Info().
		Int("total", report.TotalRows).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("import finished")
	return report
}

func (im *Importer) buildTicket(ctx context.Context, rec models.RawRecord, id string) (t models.Ticket, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	subject := rec[models.FieldSubject]
	body := rec[models.FieldBody]

	cls, err := im.Adapter.Classify(ctx, subject, body)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("classification failed: %w", err)
	}

	t = models.Ticket{
		ID:            id,
		Sender:        identity.Resolve(rec[models.FieldSender]),
		Subject:       subject,
		Body:          body,
		ReceivedAt:    im.receivedAt(rec[models.FieldSentDate]),
		Priority:      cls.Priority,
		Sentiment:     cls.Sentiment,
		Status:        models.StatusPending,
		ExtractedInfo: cls.ExtractedInfo,
	}
	if im.Validator != nil {
		if err := im.Validator.Struct(t); err != nil {
			return models.Ticket{}, fmt.Errorf("invalid ticket: %w", err)
		}
	}
	return t, nil
}

func (im *Importer) receivedAt(raw string) time.Time {
	if ts, ok := ParseSentDate(raw, im.Location); ok {
		return ts
	}
	clock := im.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return clock.Now()
}

var sentDateLayouts = []struct {
	layout string
	utc    bool
}{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02T15:04:05Z0700", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", true},
	{time.RFC1123Z, false},
	{time.RFC1123, false},
	{time.RFC822Z, false},
	{time.RFC822, false},
	{"01/02/2006 15:04:05", false},
	{"01/02/2006 15:04", false},
	{"01/02/2006", false},
	{"Jan 2, 2006", false},
	{"January 2, 2006", false},
}

// ParseSentDate accepts the date shapes common in mail exports. Date-only ISO
// values are UTC midnight; other zone-less values are read in loc.
func ParseSentDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, l := range sentDateLayouts {
		in := loc
		if l.utc {
			in = time.UTC
		}
		if ts, err := time.ParseInLocation(l.layout, raw, in); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
