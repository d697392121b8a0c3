// Package classify derives priority, sentiment and extracted entities from a
// message with fixed keyword lists. Matching is plain substring containment on
// the lower-cased "subject body" text, so "downtime" counts as "down".
package classify

import (
	"regexp"
	"strings"

	"github.com/triage/backend/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

type Classifier struct {
	lexicon Lexicon
}

func New(lexicon Lexicon) *Classifier {
	return &Classifier{lexicon: lexicon}
}

func (c *Classifier) Lexicon() Lexicon {
	return c.lexicon
}

func (c *Classifier) Classify(subject, body string) models.Classification {
	text := strings.ToLower(subject + " " + body)

	urgency := matching(text, c.lexicon.urgency)
	priority := models.PriorityNormal
	if len(urgency) > 0 {
		priority = models.PriorityUrgent
	}

	positive := matching(text, c.lexicon.positive)
	negative := matching(text, c.lexicon.negative)
	sentiment := models.SentimentNeutral
	indicators := []string{}
	switch {
	case len(positive) > len(negative):
		sentiment = models.SentimentPositive
		indicators = positive
	case len(negative) > len(positive):
		sentiment = models.SentimentNegative
		indicators = negative
	}

	return models.Classification{
		Priority:  priority,
		Sentiment: sentiment,
		ExtractedInfo: models.ExtractedInfo{
			ContactDetails:      ContactDetails(body),
			Requirements:        matching(text, c.lexicon.requirements),
			SentimentIndicators: indicators,
			UrgencyKeywords:     urgency,
			ProductMentions:     matching(text, c.lexicon.products),
		},
	}
}

// ContactDetails lists every email address in body followed by every phone
// number, in order of appearance, duplicates included.
func ContactDetails(body string) []string {
	out := []string{}
	out = append(out, emailPattern.FindAllString(body, -1)...)
	out = append(out, phonePattern.FindAllString(body, -1)...)
	return out
}

func matching(text string, phrases []string) []string {
	out := []string{}
	for _, p := range phrases {
		if strings.Contains(text, p) {
			out = append(out, p)
		}
	}
	return out
}
