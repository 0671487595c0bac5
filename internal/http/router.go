package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samzcoder/hotel-control/internal/config"
	"github.com/samzcoder/hotel-control/internal/http/handlers"
	"github.com/samzcoder/hotel-control/internal/http/middlewares"
	"github.com/samzcoder/hotel-control/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Log   *slog.Logger
	Store handlers.RegistrationStore
	// Ping backs /readyz; nil means always ready.
	Ping func(ctx context.Context) error
	// Prom and Metrics are optional; /metrics is mounted only when Metrics is set.
	Prom    *observability.Prom
	Metrics http.Handler
}

func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// wire up handlers
	registrationHandler := handlers.NewRegistrationHandler(deps.Store, handlers.RegistrationHandlerOptions{
		Logger:  deps.Log,
		Strict:  cfg.StrictErrors,
		Timeout: cfg.RequestTimeout,
	})

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())

	api.GET("/registrations", registrationHandler.List)
	api.POST("/registrations", registrationHandler.Create)
	api.PUT("/registrations", registrationHandler.Update)
	api.DELETE("/registrations", registrationHandler.Delete)

	return r
}
