package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triage/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS import_runs (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at TIMESTAMPTZ,
	summary     JSONB
);

CREATE TABLE IF NOT EXISTS tickets (
	id             TEXT PRIMARY KEY,
	run_id         UUID REFERENCES import_runs(id),
	sender_name    TEXT NOT NULL,
	sender_email   TEXT NOT NULL,
	avatar_ref     TEXT NOT NULL,
	subject        TEXT NOT NULL,
	body           TEXT NOT NULL,
	received_at    TIMESTAMPTZ NOT NULL,
	priority       TEXT NOT NULL,
	sentiment      TEXT NOT NULL,
	status         TEXT NOT NULL,
	extracted_info JSONB NOT NULL,
	ai_response    TEXT,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS tickets_received_at_idx ON tickets (received_at DESC);
`

const ticketColumns = `id, sender_name, sender_email, avatar_ref, subject, body, received_at,
	priority, sentiment, status, extracted_info, ai_response`

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertTickets(ctx context.Context, runID string, tickets []models.Ticket) (int64, error) {
	var run *string
	if runID != "" {
		run = &runID
	}
	rows := make([][]any, 0, len(tickets))
	for _, t := range tickets {
		info, err := json.Marshal(t.ExtractedInfo)
		if err != nil {
			return 0, fmt.Errorf("marshal extracted info for %s: %w", t.ID, err)
		}
		rows = append(rows, []any{
			t.ID, run, t.Sender.Name, t.Sender.Email, t.Sender.AvatarRef, t.Subject, t.Body, t.ReceivedAt,
			string(t.Priority), string(t.Sentiment), string(t.Status), info, t.AIResponse,
		})
	}

	var copied int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"tickets"}, []string{
			"id", "run_id", "sender_name", "sender_email", "avatar_ref", "subject", "body", "received_at",
			"priority", "sentiment", "status", "extracted_info", "ai_response",
		}, pgx.CopyFromRows(rows))
		copied = n
		return err
	})
	return copied, err
}

func (s *Store) ListTickets(ctx context.Context, f models.TicketFilter, limit, offset int) ([]models.Ticket, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	where, args := filterClause(f)
	query := `SELECT ` + ticketColumns + ` FROM tickets` + where +
		fmt.Sprintf(" ORDER BY received_at DESC, id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return s.queryTickets(ctx, query, args...)
}

// TicketsForAnalysis returns every matching ticket, oldest first.
func (s *Store) TicketsForAnalysis(ctx context.Context, f models.TicketFilter) ([]models.Ticket, error) {
	where, args := filterClause(f)
	return s.queryTickets(ctx, `SELECT `+ticketColumns+` FROM tickets`+where+` ORDER BY received_at ASC, id ASC`, args...)
}

func (s *Store) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

// Respond stores the reply text and marks the ticket responded.
func (s *Store) Respond(ctx context.Context, id string, response string) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE tickets SET ai_response = $1, status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+ticketColumns, response, string(models.StatusResponded), id)
	return scanTicket(row)
}

func (s *Store) Resolve(ctx context.Context, id string) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE tickets SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+ticketColumns, string(models.StatusResolved), id)
	return scanTicket(row)
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO import_runs (status, started_at) VALUES ($1, NOW()) RETURNING id::text`, status).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE import_runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id::text, started_at, finished_at, status, summary FROM import_runs ORDER BY started_at DESC LIMIT 1`)
	var (
		r       models.Run
		summary []byte
	)
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &summary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Run{}, ErrNotFound
		}
		return models.Run{}, err
	}
	r.Summary = summary
	return r, nil
}

func (s *Store) queryTickets(ctx context.Context, query string, args ...any) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var (
		t          models.Ticket
		priority   string
		sentiment  string
		status     string
		info       []byte
		receivedAt time.Time
	)
	err := row.Scan(&t.ID, &t.Sender.Name, &t.Sender.Email, &t.Sender.AvatarRef, &t.Subject, &t.Body, &receivedAt,
		&priority, &sentiment, &status, &info, &t.AIResponse)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, ErrNotFound
		}
		return models.Ticket{}, err
	}
	t.ReceivedAt = receivedAt
	t.Priority = models.Priority(priority)
	t.Sentiment = models.Sentiment(sentiment)
	t.Status = models.Status(status)
	if err := json.Unmarshal(info, &t.ExtractedInfo); err != nil {
		return models.Ticket{}, fmt.Errorf("decode extracted info for %s: %w", t.ID, err)
	}
	return t, nil
}

func filterClause(f models.TicketFilter) (string, []any) {
	var (
		args   []any
		wheres []string
	)
	if f.Priority != "" {
		args = append(args, string(f.Priority))
		wheres = append(wheres, fmt.Sprintf("priority = $%d", len(args)))
	}
	if f.Sentiment != "" {
		args = append(args, string(f.Sentiment))
		wheres = append(wheres, fmt.Sprintf("sentiment = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		wheres = append(wheres, fmt.Sprintf("received_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		wheres = append(wheres, fmt.Sprintf("received_at < $%d", len(args)))
	}
	if len(wheres) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(wheres, " AND "), args
}
