package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/triage/backend/internal/ai"
	"github.com/triage/backend/internal/csvparse"
	"github.com/triage/backend/internal/db"
	"github.com/triage/backend/internal/metrics"
	"github.com/triage/backend/internal/models"
	"github.com/triage/backend/internal/service"
)

// TicketStore is satisfied by db.Store and db.MemoryStore.
type TicketStore interface {
	Ping(ctx context.Context) error
	InsertTickets(ctx context.Context, runID string, tickets []models.Ticket) (int64, error)
	ListTickets(ctx context.Context, f models.TicketFilter, limit, offset int) ([]models.Ticket, error)
	TicketsForAnalysis(ctx context.Context, f models.TicketFilter) ([]models.Ticket, error)
	GetTicket(ctx context.Context, id string) (models.Ticket, error)
	Respond(ctx context.Context, id string, response string) (models.Ticket, error)
	Resolve(ctx context.Context, id string) (models.Ticket, error)
	CreateRun(ctx context.Context, status string) (string, error)
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
	GetLatestRun(ctx context.Context) (models.Run, error)
}

type EventPublisher interface {
	PublishTicketImported(ctx context.Context, t models.Ticket) error
}

type Handler struct {
	Store     TicketStore
	Importer  *service.Importer
	Drafter   ai.Drafter
	Publisher EventPublisher
	Metrics   *metrics.Import
	Validator *validator.Validate
	Logger    zerolog.Logger
	Location  *time.Location
	// MaxUploadBytes caps the size of an uploaded file; zero disables the check.
	MaxUploadBytes int64
}

type ImportResponse struct {
	RunID    string                 `json:"run_id,omitempty"`
	DryRun   bool                   `json:"dry_run"`
	Report   models.ImportReport    `json:"report"`
	Analysis models.AnalysisSummary `json:"analysis"`
}

type runSummary struct {
	TotalRows int                    `json:"totalRows"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Errors    []string               `json:"errors"`
	Analysis  models.AnalysisSummary `json:"analysis"`
}

type DraftRequest struct {
	Tone string `json:"tone"`
}

type RespondRequest struct {
	Response string `json:"response" validate:"required"`
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Import support messages
// @Description Upload a CSV of sender, subject, body, sent_date rows. Rows are classified and stored unless dry_run is set.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "messages.csv"
// @Param dry_run query bool false "classify without storing"
// @Success 200 {object} ImportResponse
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required", nil)
		return
	}
	if !validateExt(fh.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .csv", nil)
		return
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		writeError(c, http.StatusRequestEntityTooLarge, "INVALID_REQUEST", "file too large", fmt.Sprintf("limit is %d bytes", h.MaxUploadBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot open file", err.Error())
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot read file", err.Error())
		return
	}

	ctx := c.Request.Context()
	dryRun := parseBool(c.Query("dry_run"))

	var runID string
	if !dryRun {
		runID, err = h.Store.CreateRun(ctx, "RUNNING")
		if err != nil {
			h.Logger.Error().Err(err).Msg("failed to create run")
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
			return
		}
	}

	start := time.Now()
	report, err := h.Importer.ImportCSV(ctx, string(data))
	if err != nil {
		h.finishRun(ctx, runID, "FAILED", gin.H{"error": err.Error()})
		var missing *csvparse.MissingColumnsError
		switch {
		case errors.As(err, &missing):
			writeError(c, http.StatusBadRequest, "MISSING_COLUMNS", err.Error(), missing.Missing)
		case errors.Is(err, service.ErrNoRecords):
			writeError(c, http.StatusBadRequest, "NO_DATA", err.Error(), nil)
		default:
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to import file", err.Error())
		}
		return
	}
	h.Metrics.ObserveImport(report, time.Since(start))
	analysis := service.Summarize(report.Tickets, h.Location)

	if !dryRun {
		if _, err := h.Store.InsertTickets(ctx, runID, report.Tickets); err != nil {
			h.Logger.Error().Err(err).Msg("failed to insert tickets")
			h.finishRun(ctx, runID, "FAILED", gin.H{"error": err.Error()})
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert tickets", err.Error())
			return
		}
		h.publish(ctx, report.Tickets)
		h.finishRun(ctx, runID, "SUCCESS", runSummary{
			TotalRows: report.TotalRows,
			Succeeded: report.Succeeded,
			Failed:    report.Failed,
			Errors:    report.Errors,
			Analysis:  analysis,
		})
	}

	c.JSON(http.StatusOK, ImportResponse{
		RunID:    runID,
		DryRun:   dryRun,
		Report:   report,
		Analysis: analysis,
	})
}

// @Summary List tickets
// @Tags tickets
// @Produce json
// @Param priority query string false "urgent|normal|all"
// @Param sentiment query string false "positive|negative|neutral|all"
// @Param status query string false "pending|responded|resolved|all"
// @Param from query string false "received at or after"
// @Param to query string false "received before"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} map[string]any
// @Router /api/tickets [get]
func (h *Handler) TicketsList(c *gin.Context) {
	f, err := h.parseFilter(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filter", err.Error())
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListTickets(c.Request.Context(), f, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

// @Summary Ticket details
// @Tags tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} map[string]any
// @Router /api/tickets/{id} [get]
func (h *Handler) TicketDetails(c *gin.Context) {
	t, err := h.Store.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Failed to get ticket")
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary Analysis of stored tickets
// @Tags analysis
// @Produce json
// @Param priority query string false "urgent|normal|all"
// @Param sentiment query string false "positive|negative|neutral|all"
// @Param status query string false "pending|responded|resolved|all"
// @Param from query string false "received at or after"
// @Param to query string false "received before"
// @Success 200 {object} models.AnalysisSummary
// @Router /api/analysis [get]
func (h *Handler) Analysis(c *gin.Context) {
	f, err := h.parseFilter(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filter", err.Error())
		return
	}
	tickets, err := h.Store.TicketsForAnalysis(c.Request.Context(), f)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, service.Summarize(tickets, h.Location))
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} models.Run
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Draft a reply
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param request body DraftRequest false "tone: professional|friendly|empathetic"
// @Param tone query string false "used when the body has no tone"
// @Success 200 {object} map[string]any
// @Router /api/tickets/{id}/draft [post]
func (h *Handler) Draft(c *gin.Context) {
	var req DraftRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return
		}
	}
	if req.Tone == "" {
		req.Tone = c.Query("tone")
	}
	tone, err := ai.ParseTone(req.Tone)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	t, err := h.Store.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Failed to get ticket")
		return
	}
	draft, err := h.Drafter.Draft(c.Request.Context(), t, tone)
	if err != nil {
		h.Logger.Error().Err(err).Str("ticket_id", t.ID).Msg("draft failed")
		writeError(c, http.StatusBadGateway, "ASSISTANT_ERROR", "Failed to draft reply", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_id": t.ID, "tone": tone, "draft": draft})
}

// @Summary Record a reply
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param request body RespondRequest true "reply text"
// @Success 200 {object} models.Ticket
// @Router /api/tickets/{id}/respond [post]
func (h *Handler) Respond(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	req.Response = strings.TrimSpace(req.Response)
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	t, err := h.Store.Respond(c.Request.Context(), c.Param("id"), req.Response)
	if err != nil {
		h.storeError(c, err, "Failed to record response")
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary Resolve ticket
// @Tags tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} models.Ticket
// @Router /api/tickets/{id}/resolve [post]
func (h *Handler) ResolveTicket(c *gin.Context) {
	t, err := h.Store.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Failed to resolve ticket")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) parseFilter(c *gin.Context) (models.TicketFilter, error) {
	var (
		f   models.TicketFilter
		err error
	)
	if f.Priority, err = models.ParsePriority(c.Query("priority")); err != nil {
		return f, err
	}
	if f.Sentiment, err = models.ParseSentiment(c.Query("sentiment")); err != nil {
		return f, err
	}
	if f.Status, err = models.ParseStatus(c.Query("status")); err != nil {
		return f, err
	}
	if f.From, err = h.parseTime("from", c.Query("from")); err != nil {
		return f, err
	}
	if f.To, err = h.parseTime("to", c.Query("to")); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) parseTime(name, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	ts, ok := service.ParseSentDate(raw, h.Location)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &ts, nil
}

func (h *Handler) storeError(c *gin.Context, err error, message string) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	writeError(c, http.StatusInternalServerError, "DB_ERROR", message, err.Error())
}

func (h *Handler) finishRun(ctx context.Context, runID, status string, summary any) {
	if runID == "" {
		return
	}
	b, _ := json.Marshal(summary)
	if err := h.Store.FinishRun(ctx, runID, status, b); err != nil {
		h.Logger.Error().Err(err).Str("run_id", runID).Msg("failed to finish run")
	}
}

// publish is best effort: tickets are already stored.
func (h *Handler) publish(ctx context.Context, tickets []models.Ticket) {
	if h.Publisher == nil {
		return
	}
	for _, t := range tickets {
		if err := h.Publisher.PublishTicketImported(ctx, t); err != nil {
			h.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("failed to publish ticket event")
		}
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
