package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/config"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/database"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/migrations"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/roomstore"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/server"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite (fallback store) ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	fallback := roomstore.NewSQLiteStore(db, logger)

	// --- Redis (primary realtime store, optional) ---
	var rdb *redis.Client
	var store roomstore.Store = fallback
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			// Boot anyway: the failover path exists precisely for this.
			logger.Warn("redis unavailable at startup, running on fallback store", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
			logger.Info("connected to redis")
			store = roomstore.NewFailover(roomstore.NewRedisStore(rdb, logger), fallback, logger)
		}
	} else {
		logger.Info("no redis configured, using local store only")
	}

	sessions := session.NewManager(ctx, store, logger)
	defer sessions.Close()

	srv := server.New(cfg.HTTPAddr, logger, sessions, db, rdb, cfg.SPADir)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
