package models

import (
	"fmt"
	"strings"
	"time"
)

// TicketFilter narrows a ticket listing. Zero-valued fields match everything;
// From is inclusive and To exclusive.
type TicketFilter struct {
	Priority  Priority
	Sentiment Sentiment
	Status    Status
	From      *time.Time
	To        *time.Time
}

func (f TicketFilter) Match(t Ticket) bool {
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Sentiment != "" && t.Sentiment != f.Sentiment {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.From != nil && t.ReceivedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.ReceivedAt.Before(*f.To) {
		return false
	}
	return true
}

func (f TicketFilter) Apply(tickets []Ticket) []Ticket {
	out := []Ticket{}
	for _, t := range tickets {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// ParsePriority accepts "" and "all" as "no constraint".
func ParsePriority(v string) (Priority, error) {
	switch p := Priority(normalizeEnum(v)); p {
	case "", PriorityUrgent, PriorityNormal:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", v)
	}
}

func ParseSentiment(v string) (Sentiment, error) {
	switch s := Sentiment(normalizeEnum(v)); s {
	case "", SentimentPositive, SentimentNegative, SentimentNeutral:
		return s, nil
	default:
		return "", fmt.Errorf("unknown sentiment %q", v)
	}
}

func ParseStatus(v string) (Status, error) {
	switch s := Status(normalizeEnum(v)); s {
	case "", StatusPending, StatusResponded, StatusResolved:
		return s, nil
	default:
		return "", fmt.Errorf("unknown status %q", v)
	}
}

func normalizeEnum(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "all" {
		return ""
	}
	return v
}
