package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/triage/backend/internal/models"
)

// HTTPAdapter delegates classification to an external service exposing
// POST /classify.
type HTTPAdapter struct {
	BaseURL string
	Client  *http.Client
}

type classifyRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type classifyResponse struct {
	Priority      string `json:"priority"`
	Sentiment     string `json:"sentiment"`
	ExtractedInfo struct {
		ContactDetails      []string `json:"contactDetails"`
		Requirements        []string `json:"requirements"`
		SentimentIndicators []string `json:"sentimentIndicators"`
		UrgencyKeywords     []string `json:"urgencyKeywords"`
		ProductMentions     []string `json:"productMentions"`
	} `json:"extractedInfo"`
}

func (h HTTPAdapter) Classify(ctx context.Context, subject, body string) (models.Classification, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 15 * time.Second}
	}

	b, _ := json.Marshal(classifyRequest{Subject: subject, Body: body})
	url := strings.TrimRight(h.BaseURL, "/") + "/classify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return models.Classification{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return models.Classification{}, fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Classification{}, fmt.Errorf("classification service error: %s", resp.Status)
	}

	var r classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.Classification{}, fmt.Errorf("decode classification: %w", err)
	}

	priority, err := parsePriority(r.Priority)
	if err != nil {
		return models.Classification{}, err
	}
	sentiment, err := parseSentiment(r.Sentiment)
	if err != nil {
		return models.Classification{}, err
	}

	return models.Classification{
		Priority:  priority,
		Sentiment: sentiment,
		ExtractedInfo: models.ExtractedInfo{
			ContactDetails:      nonNil(r.ExtractedInfo.ContactDetails),
			Requirements:        nonNil(r.ExtractedInfo.Requirements),
			SentimentIndicators: nonNil(r.ExtractedInfo.SentimentIndicators),
			UrgencyKeywords:     nonNil(r.ExtractedInfo.UrgencyKeywords),
			ProductMentions:     nonNil(r.ExtractedInfo.ProductMentions),
		},
	}, nil
}

func parsePriority(v string) (models.Priority, error) {
	switch p := models.Priority(strings.ToLower(strings.TrimSpace(v))); p {
	case models.PriorityUrgent, models.PriorityNormal:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", v)
	}
}

func parseSentiment(v string) (models.Sentiment, error) {
	switch s := models.Sentiment(strings.ToLower(strings.TrimSpace(v))); s {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
		return s, nil
	default:
		return "", fmt.Errorf("unknown sentiment %q", v)
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
