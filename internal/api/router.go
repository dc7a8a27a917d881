package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/avancesaude/agenda-portal/internal/archive"
	"github.com/avancesaude/agenda-portal/internal/prefetch"
)

type RouterConfig struct {
	Engine   *prefetch.Engine
	Archive  *archive.Repository // optional
	PgPool   *pgxpool.Pool       // optional, health only
	Redis    *redis.Client       // optional, health only
	SpanDays int
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Agenda endpoints
	s := NewServer(cfg.Engine, cfg.Archive, cfg.SpanDays)
	r.Get("/agenda/events", s.eventsHandler)
	r.Get("/agenda/progress", s.progressHandler)
	r.Post("/agenda/reload", s.reloadHandler)
	r.Get("/agenda/professionals", s.professionalsHandler)

	return r
}
