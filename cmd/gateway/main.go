package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/generator"
	"github.com/mind-engage/mindengage-quiz/internal/history"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

func main() {
	os.Exit(gatewayMain())
}

// gatewayMain returns the process exit code. Deferred cleanup, including
// flushing buffered log output, runs before main exits.
func gatewayMain() int {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("gateway stopped", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	// --- DB (history + event log) ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()
	events := syncx.NewEventRepo(dbh, cfg.SiteID)

	store, ready, closeStore, err := openHistory(openCtx, cfg, dbh)
	if err != nil {
		return err
	}
	defer closeStore()
	hist := history.NewService(store, log.With("component", "history"))

	// --- Quiz sessions ---
	gen := generator.New(generator.WithMinUnitLength(cfg.MinUnitLength))
	sessLog := log.With("component", "session")
	sessions := quiz.NewRegistry(func(key string) *quiz.Session {
		return quiz.NewSession(gen,
			quiz.WithQuestionCount(cfg.QuestionCount),
			quiz.WithLatency(cfg.GenerateLatency),
			quiz.WithSessionLogger(sessLog.With("session", key)),
			quiz.WithObserver(quiz.EventObserver(events, key, sessLog)),
		)
	})
	recorder := quiz.NewRecorder(hist,
		quiz.WithDefaultTitle(cfg.DefaultTitle),
		quiz.WithEventSink(events),
		quiz.WithRecorderLogger(log.With("component", "recorder")),
	)

	var blobs storage.BlobStore
	if cfg.EnableUploads {
		fs, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			return fmt.Errorf("blob store: %w", err)
		}
		blobs = fs
	}

	r := api.NewRouter(api.Deps{
		Sessions:       sessions,
		Recorder:       recorder,
		History:        hist,
		Blobs:          blobs,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RecentCount:    cfg.RecentCount,
		CORSOrigins:    cfg.CORSOrigins(),
		Ready:          ready,
		Log:            log,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode,
			"history", cfg.HistoryDriver, "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openHistory picks the ledger backend. The returned ready func backs
// /readyz.
func openHistory(ctx context.Context, cfg config.Config, dbh *sql.DB) (history.Store, func() error, func(), error) {
	switch cfg.HistoryDriver {
	case "sql", "":
		ready := func() error {
			c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return dbh.PingContext(c)
		}
		return history.NewSQLStore(dbh), ready, func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		ready := func() error {
			c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Ping(c).Err()
		}
		return history.NewRedisStore(rdb), ready, func() { _ = rdb.Close() }, nil
	case "memory":
		return history.NewMemoryStore(), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported history driver: %s", cfg.HistoryDriver)
	}
}
