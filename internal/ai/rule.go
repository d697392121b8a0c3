package ai

import (
	"context"

	"github.com/triage/backend/internal/classify"
	"github.com/triage/backend/internal/models"
)

// RuleAdapter runs the local keyword classifier. It never returns an error.
type RuleAdapter struct {
	Classifier *classify.Classifier
}

func NewRuleAdapter(lexicon classify.Lexicon) RuleAdapter {
	return RuleAdapter{Classifier: classify.New(lexicon)}
}

func (r RuleAdapter) Classify(_ context.Context, subject, body string) (models.Classification, error) {
	c := r.Classifier
	if c == nil {
		c = classify.New(classify.DefaultLexicon())
	}
	return c.Classify(subject, body), nil
}
