package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
)

// RouterConfig tunes the shared middleware stack.
type RouterConfig struct {
	Name           string
	AllowedOrigins []string
	LogLevel       slog.Level
	LogJSON        bool
}

// NewRouter builds a chi router with request ids, access logs, panic
// recovery and CORS.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Name == "" {
		cfg.Name = "ahcview"
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)

	accessLog := httplog.NewLogger(cfg.Name, httplog.Options{
		LogLevel:         cfg.LogLevel,
		JSON:             cfg.LogJSON,
		Concise:          true,
		RequestHeaders:   false,
		MessageFieldName: "message",
		QuietDownRoutes:  []string{"/healthz"},
		QuietDownPeriod:  time.Minute,
	})
	router.Use(httplog.RequestLogger(accessLog))
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	return router
}
