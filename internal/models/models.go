package models

import (
	"encoding/json"
	"time"
)

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusResponded Status = "responded"
	StatusResolved  Status = "resolved"
)

// RawRecord is one parsed input row keyed by lower-cased column name.
type RawRecord map[string]string

const (
	FieldSender   = "sender"
	FieldSubject  = "subject"
	FieldBody     = "body"
	FieldSentDate = "sent_date"
)

// RequiredFields lists the input columns every file must carry, in report order.
var RequiredFields = []string{FieldSender, FieldSubject, FieldBody, FieldSentDate}

type Sender struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarRef string `json:"avatarRef"`
}

type ExtractedInfo struct {
	ContactDetails      []string `json:"contactDetails"`
	Requirements        []string `json:"requirements"`
	SentimentIndicators []string `json:"sentimentIndicators"`
	UrgencyKeywords     []string `json:"urgencyKeywords"`
	ProductMentions     []string `json:"productMentions"`
}

type Classification struct {
	Priority      Priority      `json:"priority"`
	Sentiment     Sentiment     `json:"sentiment"`
	ExtractedInfo ExtractedInfo `json:"extractedInfo"`
}

type Ticket struct {
	ID            string        `json:"id" validate:"required"`
	Sender        Sender        `json:"sender"`
	Subject       string        `json:"subject" validate:"required"`
	Body          string        `json:"body" validate:"required"`
	ReceivedAt    time.Time     `json:"receivedAt" validate:"required"`
	Priority      Priority      `json:"priority" validate:"oneof=urgent normal"`
	Sentiment     Sentiment     `json:"sentiment" validate:"oneof=positive negative neutral"`
	Status        Status        `json:"status" validate:"oneof=pending responded resolved"`
	ExtractedInfo ExtractedInfo `json:"extractedInfo"`
	AIResponse    *string       `json:"aiResponse,omitempty"`
}

type ImportReport struct {
	TotalRows int      `json:"totalRows"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
	Tickets   []Ticket `json:"tickets"`
}

type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

type PriorityBreakdown struct {
	Urgent int `json:"urgent"`
	Normal int `json:"normal"`
}

type AnalysisSummary struct {
	TotalProcessed     int                `json:"totalProcessed"`
	SentimentBreakdown SentimentBreakdown `json:"sentimentBreakdown"`
	PriorityBreakdown  PriorityBreakdown  `json:"priorityBreakdown"`
	CommonKeywords     []KeywordCount     `json:"commonKeywords"`
	TimeDistribution   [24]int            `json:"timeDistribution"`
	// AvgResponseTimeNeeded is in hours; nil when the ticket set is empty.
	AvgResponseTimeNeeded *float64 `json:"avgResponseTimeNeeded"`
}

type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	Status     string          `json:"status"`
	Summary    json.RawMessage `json:"summary"`
}
