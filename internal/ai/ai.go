package ai

import (
	"context"

	"github.com/triage/backend/internal/models"
)

// Adapter classifies a single message. Implementations may call out to a
// remote service; an error fails only the row being imported.
type Adapter interface {
	Classify(ctx context.Context, subject, body string) (models.Classification, error)
}

// Drafter produces a reply text for a ticket in the requested tone.
type Drafter interface {
	Draft(ctx context.Context, t models.Ticket, tone Tone) (string, error)
}
