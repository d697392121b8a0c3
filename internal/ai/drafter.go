package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/triage/backend/internal/models"
)

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneEmpathetic   Tone = "empathetic"
)

// ParseTone maps an empty value to ToneProfessional.
func ParseTone(v string) (Tone, error) {
	switch t := Tone(strings.ToLower(strings.TrimSpace(v))); t {
	case "":
		return ToneProfessional, nil
	case ToneProfessional, ToneFriendly, ToneEmpathetic:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tone %q", v)
	}
}

const (
	escalationBody = `Thank you for reaching out to us. I understand the urgency of your situation and sincerely apologize for the inconvenience you're experiencing.

I've immediately escalated your case to our senior technical team with the highest priority. We're actively investigating the issue and will provide you with a detailed update within the next 15 minutes.

In the meantime, I'm personally monitoring your case to ensure we resolve this as quickly as possible. We value your business and are committed to getting this sorted out immediately.

Please don't hesitate to reach out if you need any additional assistance.`

	appreciationBody = `Thank you so much for your wonderful feedback! It truly brightens our day to hear from satisfied customers like yourself.

I'm excited to let you know that we're always working on new features based on customer feedback like yours. I've forwarded your feedback to our product team for consideration in our upcoming roadmap.

Thank you for being such a valued customer. If there's anything else I can help you with, please don't hesitate to reach out.`

	acknowledgementBody = `Thank you for contacting us regarding your inquiry. I've reviewed your request and I'm here to help.

Based on the information provided, I'll need to gather some additional details to provide you with the most accurate assistance. I'll reach out to you shortly with the specific information we need.

We appreciate your patience and look forward to resolving this matter promptly.`
)

// TemplateDrafter picks one of three canned replies from the ticket's
// sentiment and priority.
type TemplateDrafter struct {
	Signature string
}

func (d TemplateDrafter) Draft(_ context.Context, t models.Ticket, tone Tone) (string, error) {
	body := acknowledgementBody
	switch {
	case t.Sentiment == models.SentimentNegative && t.Priority == models.PriorityUrgent:
		body = escalationBody
	case t.Sentiment == models.SentimentPositive:
		body = appreciationBody
	}

	signature := d.Signature
	if signature == "" {
		signature = "Support Team"
	}
	greeting, closing := toneWords(tone)
	return fmt.Sprintf("%s %s,\n\n%s\n\n%s,\n%s", greeting, recipientName(t), body, closing, signature), nil
}

func toneWords(tone Tone) (string, string) {
	switch tone {
	case ToneFriendly:
		return "Hi", "Cheers"
	case ToneEmpathetic:
		return "Dear", "Warm regards"
	default:
		return "Dear", "Best regards"
	}
}

func recipientName(t models.Ticket) string {
	if name := strings.TrimSpace(t.Sender.Name); name != "" {
		return name
	}
	return "Customer"
}
