package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/triage/backend/internal/models"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient talks to an OpenAI-compatible /chat/completions endpoint.
// Answers are cached per prompt for CacheTTL.
type ChatClient struct {
	BaseURL   string
	Model     string
	APIKey    string
	MaxTokens int
	CacheTTL  time.Duration
	Client    *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value string
	exp   time.Time
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

func (c *ChatClient) Ask(ctx context.Context, messages []ChatMessage) (string, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", fmt.Errorf("ASSISTANT_BASE_URL is not set")
	}
	if strings.TrimSpace(c.Model) == "" {
		return "", fmt.Errorf("ASSISTANT_MODEL is not set")
	}

	key := cacheKey(messages)
	if v, ok := c.cacheGet(key); ok {
		return v, nil
	}

	payload := struct {
		Model     string        `json:"model"`
		MaxTokens int           `json:"max_tokens,omitempty"`
		Messages  []ChatMessage `json:"messages"`
	}{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Messages:  messages,
	}
	b, _ := json.Marshal(payload)
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("assistant request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("assistant request timed out")
		}
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}
		}
		return "", fmt.Errorf("assistant http error: %s", resp.Status)
	}

	var res struct {
		Choices []struct {
			Message ChatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("empty assistant response")
	}
	answer := strings.TrimSpace(res.Choices[0].Message.Content)
	c.cacheSet(key, answer)
	return answer, nil
}

func (c *ChatClient) cacheGet(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.cache[key]; ok {
		if time.Now().Before(e.exp) {
			return e.value, true
		}
		delete(c.cache, key)
	}
	return "", false
}

func (c *ChatClient) cacheSet(key, value string) {
	ttl := c.CacheTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		c.cache = map[string]cacheEntry{}
	}
	c.cache[key] = cacheEntry{value: value, exp: time.Now().Add(ttl)}
}

func cacheKey(messages []ChatMessage) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(m.Role)
		sb.WriteByte(0)
		sb.WriteString(m.Content)
		sb.WriteByte(0)
	}
	return sb.String()
}

func retryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v + "s"); err == nil {
		return d
	}
	return 0
}

// AssistantDrafter asks a chat model for the reply and falls back to the
// canned templates when the model is unavailable.
type AssistantDrafter struct {
	Chat     *ChatClient
	Fallback Drafter
	Logger   zerolog.Logger
}

func (d AssistantDrafter) Draft(ctx context.Context, t models.Ticket, tone Tone) (string, error) {
	answer, err := d.Chat.Ask(ctx, draftPrompt(t, tone))
	if err == nil && answer != "" {
		return answer, nil
	}
	if d.Fallback == nil {
		return "", err
	}
	d.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("assistant draft failed, using template")
	return d.Fallback.Draft(ctx, t, tone)
}

func draftPrompt(t models.Ticket, tone Tone) []ChatMessage {
	system := fmt.Sprintf("You are a customer support agent. Write a %s reply to the customer email. "+
		"Do not invent facts. Sign the reply as Support Team.", tone)

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s <%s>\n", t.Sender.Name, t.Sender.Email)
	fmt.Fprintf(&sb, "Subject: %s\n", t.Subject)
	fmt.Fprintf(&sb, "Priority: %s\nSentiment: %s\n", t.Priority, t.Sentiment)
	if len(t.ExtractedInfo.Requirements) > 0 {
		fmt.Fprintf(&sb, "Requests: %s\n", strings.Join(t.ExtractedInfo.Requirements, ", "))
	}
	sb.WriteString("\n")
	sb.WriteString(t.Body)

	return []ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: sb.String()},
	}
}
