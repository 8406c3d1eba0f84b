// Command server runs the feed HTTP API together with its fanout workers.
//
// Startup order: config → logging → tracing → database → cache → fanout
// backend → services → router → HTTP server. SIGINT/SIGTERM drain the HTTP
// server first, then the fanout backend, so accepted tweets still reach
// their followers.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/tbourn/go-feed-backend/internal/cache"
	"github.com/tbourn/go-feed-backend/internal/config"
	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/fanout"
	httpapi "github.com/tbourn/go-feed-backend/internal/http"
	"github.com/tbourn/go-feed-backend/internal/observability"
	"github.com/tbourn/go-feed-backend/internal/repo"
	"github.com/tbourn/go-feed-backend/internal/services"
	"github.com/tbourn/go-feed-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	lg := sysutil.InitLogging(cfg.LogLevel, cfg.LogPretty)

	if err := run(cfg, lg); err != nil {
		lg.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config, lg zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			lg.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Database
	db, err := repo.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if cfg.OTEL.Enabled {
		if err := repo.Instrument(db); err != nil {
			return fmt.Errorf("instrument db: %w", err)
		}
	}
	if sysutil.IsTruthy(sysutil.FirstNonEmpty(os.Getenv("AUTO_MIGRATE"), "true")) {
		if err := repo.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Recency cache
	store, closeStore, err := openCacheStore(ctx, cfg.Cache, lg)
	if err != nil {
		return err
	}
	defer closeStore()
	cacheLog := lg.With().Str("component", "cache").Logger()
	feedCache := cache.NewListCache[domain.NewsFeed](store, "newsfeed", cfg.Cache.ListLimit, cfg.Cache.TTL, cacheLog)
	tweetCache := cache.NewListCache[domain.Tweet](store, "tweets", cfg.Cache.ListLimit, cfg.Cache.TTL, cacheLog)

	// Fanout
	friends := services.NewFriendshipService(db)
	engine := &fanout.Engine{
		DB:        db,
		Directory: friends,
		Cache:     feedCache,
		BatchSize: cfg.Fanout.BatchSize,
		Deadline:  cfg.Fanout.Deadline,
		Log:       lg.With().Str("component", "fanout").Logger(),
	}
	dispatcher, stopFanout, err := startFanout(cfg.Fanout, engine, lg)
	if err != nil {
		return err
	}

	// Services
	tweets := services.NewTweetService(db, tweetCache, dispatcher, cfg.Feed.PageSize, lg.With().Str("component", "tweets").Logger())
	tweets.MaxRunes = cfg.Feed.TweetMaxLen
	tweets.MaxPageSize = cfg.Feed.MaxPageSize
	feeds := services.NewNewsFeedService(db, feedCache, cfg.Feed.PageSize, lg.With().Str("component", "newsfeed").Logger())
	feeds.MaxPageSize = cfg.Feed.MaxPageSize

	// HTTP
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:          db,
		Tweets:      tweets,
		NewsFeeds:   feeds,
		Friendships: friends,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("db", cfg.DB.Driver).
			Str("cache", cfg.Cache.Backend).
			Str("fanout", cfg.Fanout.Backend).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		lg.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			stopFanout(context.Background())
			return fmt.Errorf("listen: %w", err)
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		lg.Error().Err(err).Msg("http shutdown")
	}
	stopFanout(sctx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	lg.Info().Msg("bye")
	return nil
}

// openCacheStore builds the configured ListStore and its closer.
func openCacheStore(ctx context.Context, cfg config.CacheConfig, lg zerolog.Logger) (cache.ListStore, func(), error) {
	switch cfg.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := cache.NewRedisStore(rdb)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pctx); err != nil {
			// Reads fall back to the database while Redis is down.
			lg.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at startup")
		}
		return store, func() { _ = rdb.Close() }, nil
	default:
		return cache.NewMemoryStore(), func() {}, nil
	}
}

// startFanout starts the configured fanout backend and returns its
// dispatcher plus a stop function that drains it.
func startFanout(cfg config.FanoutConfig, engine *fanout.Engine, lg zerolog.Logger) (fanout.Dispatcher, func(context.Context), error) {
	switch cfg.Backend {
	case fanout.BackendTemporal:
		c, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalHostPort,
			Namespace: cfg.TemporalNamespace,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("temporal dial %s: %w", cfg.TemporalHostPort, err)
		}
		w := fanout.NewWorker(c, cfg.TemporalTaskQueue, engine)
		if err := w.Start(); err != nil {
			c.Close()
			return nil, nil, fmt.Errorf("temporal worker: %w", err)
		}
		d := &fanout.TemporalDispatcher{
			Client:    c,
			TaskQueue: cfg.TemporalTaskQueue,
			Deadline:  cfg.Deadline,
			Log:       lg.With().Str("component", "fanout").Logger(),
		}
		return d, func(context.Context) { stopTemporal(w, c) }, nil
	default:
		q := fanout.NewQueue(engine, cfg.Workers, cfg.QueueSize, lg.With().Str("component", "fanout-queue").Logger())
		return q, func(ctx context.Context) {
			if err := q.Close(ctx); err != nil {
				lg.Warn().Err(err).Msg("fanout queue did not drain")
			}
		}, nil
	}
}

func stopTemporal(w worker.Worker, c client.Client) {
	w.Stop()
	c.Close()
}
