package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/triage/backend/internal/ai"
	"github.com/triage/backend/internal/classify"
	"github.com/triage/backend/internal/config"
	"github.com/triage/backend/internal/db"
	httpapi "github.com/triage/backend/internal/http"
	"github.com/triage/backend/internal/http/handlers"
	"github.com/triage/backend/internal/queue"
	"github.com/triage/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "triage-backend").Logger()

	ctx := context.Background()

	var store handlers.TicketStore
	if cfg.DatabaseURL == "" {
		store = db.NewMemoryStore()
		logger.Warn().Msg("DATABASE_URL not set, tickets are kept in memory")
	} else {
		pg, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate db")
		}
		store = pg
	}

	lexicon := classify.DefaultLexicon()
	if cfg.LexiconPath != "" {
		if lexicon, err = classify.LoadLexicon(cfg.LexiconPath); err != nil {
			logger.Fatal().Err(err).Msg("failed to load lexicon")
		}
		logger.Info().Str("path", cfg.LexiconPath).Msg("lexicon loaded")
	}

	var adapter ai.Adapter
	if cfg.AIURL == "" {
		adapter = ai.NewRuleAdapter(lexicon)
		logger.Info().Msg("using rule-based classifier")
	} else {
		adapter = ai.HTTPAdapter{BaseURL: cfg.AIURL}
	}

	var drafter ai.Drafter = ai.TemplateDrafter{}
	if cfg.AssistantEnabled() {
		drafter = ai.AssistantDrafter{
			Chat: &ai.ChatClient{
				BaseURL:   cfg.AssistantBaseURL,
				Model:     cfg.AssistantModel,
				APIKey:    cfg.AssistantAPIKey,
				MaxTokens: cfg.AssistantMaxTokens,
			},
			Fallback: drafter,
			Logger:   logger,
		}
		logger.Info().Str("model", cfg.AssistantModel).Msg("assistant drafting enabled")
	}

	var publisher handlers.EventPublisher
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		p := queue.NewPublisher(redis.NewClient(opt), cfg.RedisQueue, logger)
		if err := p.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer p.Close()
		publisher = p
		logger.Info().Str("queue", cfg.RedisQueue).Msg("publishing ticket events")
	}

	loc, _ := cfg.Location()
	importer := service.NewImporter(adapter, logger)
	importer.Location = loc

	router := httpapi.Router(cfg, store, importer, drafter, publisher, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
