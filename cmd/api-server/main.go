package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avancesaude/agenda-portal/internal/api"
	"github.com/avancesaude/agenda-portal/internal/archive"
	"github.com/avancesaude/agenda-portal/internal/config"
	"github.com/avancesaude/agenda-portal/internal/konsist"
	"github.com/avancesaude/agenda-portal/internal/logging"
	"github.com/avancesaude/agenda-portal/internal/prefetch"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("agenda-portal", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}
	logging.Init("agenda-portal", cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := api.RouterConfig{
		SpanDays: cfg.DefaultSpanDays,
		Env:      cfg.Env,
		Version:  version,
	}

	// Chunk cache: Redis when configured, in-memory otherwise.
	var cache prefetch.Cache = prefetch.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb, err := prefetch.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing redis")
			}
		}()
		cache = prefetch.NewRedisCache(rdb, uuid.NewString(), cfg.CacheTTL)
		router.Redis = rdb
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	}

	// Snapshot archive: optional, Postgres-backed.
	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := archive.Connect(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pgPool.Close()

		repo := archive.NewRepository(pgPool)
		if err := repo.EnsureSchema(rootCtx); err != nil {
			log.Fatal().Err(err).Msg("snapshot schema error")
		}
		router.Archive = repo
		router.PgPool = pgPool
		log.Info().Msg("connected to Postgres, snapshot archive enabled")
	}

	upstream := konsist.NewHTTPClient(cfg.KonsistBaseURL, cfg.KonsistEndpoint, cfg.KonsistBearer, cfg.KonsistTimeout)
	router.Engine = prefetch.NewEngine(upstream, cache, cfg.ChunkDays)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.NewRouter(router),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
}
