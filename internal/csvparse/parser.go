// Package csvparse turns the four-column message export into raw records.
//
// The line splitter is deliberately simpler than RFC 4180: a double quote only
// toggles the "inside quotes" state and is never emitted, so a doubled quote
// ("") inside a quoted field disappears instead of becoming a literal quote.
// Records never span lines.
package csvparse

import (
	"fmt"
	"strings"

	"github.com/triage/backend/internal/models"
)

type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Parse reads the header and every data line of text. Rows whose field count
// differs from the header, or that leave a required value empty, are skipped.
func Parse(text string) ([]models.RawRecord, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	headers := parseHeader(lines[0])

	if missing := missingColumns(headers); len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	out := []models.RawRecord{}
	for _, line := range lines[1:] {
		values := SplitLine(line)
		if len(values) != len(headers) {
			continue
		}

		rec := models.RawRecord{}
		for i, h := range headers {
			rec[h] = strings.TrimSpace(values[i])
		}
		if !hasRequiredValues(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// SplitLine splits one data line on commas that are not inside double quotes.
func SplitLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, current.String())
}

func parseHeader(line string) []string {
	parts := strings.Split(line, ",")
	headers := make([]string, 0, len(parts))
	for _, p := range parts {
		headers = append(headers, normalizeHeader(p))
	}
	return headers
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func missingColumns(headers []string) []string {
	present := map[string]struct{}{}
	for _, h := range headers {
		present[h] = struct{}{}
	}
	var missing []string
	for _, f := range models.RequiredFields {
		if _, ok := present[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func hasRequiredValues(rec models.RawRecord) bool {
	for _, f := range models.RequiredFields {
		if rec[f] == "" {
			return false
		}
	}
	return true
}
