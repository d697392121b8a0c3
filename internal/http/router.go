package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/triage/backend/internal/ai"
	"github.com/triage/backend/internal/config"
	"github.com/triage/backend/internal/http/handlers"
	"github.com/triage/backend/internal/http/middleware"
	"github.com/triage/backend/internal/metrics"
	"github.com/triage/backend/internal/service"

	_ "github.com/triage/backend/docs"
)

// Router wires the API. publisher may be nil.
func Router(cfg config.Config, store handlers.TicketStore, importer *service.Importer, drafter ai.Drafter, publisher handlers.EventPublisher, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" || cfg.CORSAllowed == "" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = splitOrigins(cfg.CORSAllowed)
	}
	r.Use(cors.New(corsCfg))

	loc := importer.Location
	if loc == nil {
		loc = time.Local
	}
	h := &handlers.Handler{
		Store:          store,
		Importer:       importer,
		Drafter:        drafter,
		Publisher:      publisher,
		Metrics:        metrics.Global(),
		Validator:      validator.New(),
		Logger:         logger,
		Location:       loc,
		MaxUploadBytes: cfg.MaxUploadSizeMB << 20,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if cfg.RequestTimeout > 0 {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	{
		api.POST("/import", h.Import)
		api.GET("/tickets", h.TicketsList)
		api.GET("/tickets/:id", h.TicketDetails)
		api.GET("/analysis", h.Analysis)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/tickets/:id/draft", h.Draft)
		admin.POST("/tickets/:id/respond", h.Respond)
		admin.POST("/tickets/:id/resolve", h.ResolveTicket)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func splitOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
