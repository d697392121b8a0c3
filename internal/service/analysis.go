package service

import (
	"sort"
	"time"

	"github.com/triage/backend/internal/models"
)

const topKeywords = 10

// ResponseHours is the heuristic turnaround a ticket needs: 4h by default,
// 1h when urgent, scaled by 0.8 when negative.
func ResponseHours(t models.Ticket) float64 {
	hours := 4.0
	if t.Priority == models.PriorityUrgent {
		hours = 1
	}
	if t.Sentiment == models.SentimentNegative {
		hours *= 0.8
	}
	return hours
}

// Summarize aggregates tickets. Hours of day are taken in loc (time.Local
// when nil). The average response time is nil for an empty set.
func Summarize(tickets []models.Ticket, loc *time.Location) models.AnalysisSummary {
	if loc == nil {
		loc = time.Local
	}
	summary := models.AnalysisSummary{
		TotalProcessed: len(tickets),
		CommonKeywords: []models.KeywordCount{},
	}

	var (
		counts     = map[string]int{}
		order      []string
		totalHours float64
	)
	count := func(words []string) {
		for _, w := range words {
			if _, ok := counts[w]; !ok {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	for _, t := range tickets {
		switch t.Sentiment {
		case models.SentimentPositive:
			summary.SentimentBreakdown.Positive++
		case models.SentimentNegative:
			summary.SentimentBreakdown.Negative++
		case models.SentimentNeutral:
			summary.SentimentBreakdown.Neutral++
		}
		switch t.Priority {
		case models.PriorityUrgent:
			summary.PriorityBreakdown.Urgent++
		case models.PriorityNormal:
			summary.PriorityBreakdown.Normal++
		}

		count(t.ExtractedInfo.UrgencyKeywords)
		count(t.ExtractedInfo.SentimentIndicators)
		count(t.ExtractedInfo.Requirements)

		summary.TimeDistribution[t.ReceivedAt.In(loc).Hour()]++
		totalHours += ResponseHours(t)
	}

	keywords := make([]models.KeywordCount, 0, len(order))
	for _, w := range order {
		keywords = append(keywords, models.KeywordCount{Word: w, Count: counts[w]})
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})
	if len(keywords) > topKeywords {
		keywords = keywords[:topKeywords]
	}
	summary.CommonKeywords = keywords

	if len(tickets) > 0 {
		avg := totalHours / float64(len(tickets))
		summary.AvgResponseTimeNeeded = &avg
	}
	return summary
}
