package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/club-events/internal/application"
	"github.com/example/club-events/internal/config"
	httptransport "github.com/example/club-events/internal/http"
	"github.com/example/club-events/internal/persistence"
	"github.com/example/club-events/internal/persistence/memory"
	"github.com/example/club-events/internal/persistence/slot"
	"github.com/example/club-events/internal/persistence/sqlite"
	"github.com/example/club-events/internal/seed"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	events, sessionSlot, cleanup, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	idGenerator := newIDGenerator()
	now := time.Now

	eventService := application.NewEventService(events, idGenerator, now, logger)
	sessionService := application.NewSessionService(sessionSlot, idGenerator, now, cfg.SessionTTL, logger)

	if session := sessionService.Restore(ctx); session.Authenticated {
		logger.Info("session restored from slot", "user_id", session.User.ID, "admin", session.Admin)
	}

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.SweepSchedule, func() {
		if removed := sessionService.SweepExpired(context.Background()); removed > 0 {
			logger.Info("expired sessions swept", "removed", removed)
		}
	}); err != nil {
		logger.Error("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Sessions:       httptransport.NewSessionHandler(sessionService, logger),
		Events:         httptransport.NewEventHandler(eventService, logger),
		RequireSession: httptransport.RequireSession(sessionService, logger),
		Middleware:     []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("club events API listening", "addr", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.EventRepository, persistence.SessionSlot, func(), error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		pool, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		store := sqlite.NewStore(pool)
		if cfg.SeedDemoData {
			if err := seedSQLite(ctx, store); err != nil {
				pool.Close()
				return nil, nil, nil, err
			}
		}

		cleanup := func() {
			if err := pool.Close(); err != nil {
				logger.Error("failed to close storage", "error", err)
			}
		}
		return store, store, cleanup, nil

	default:
		store := memory.NewStore()
		if cfg.SeedDemoData {
			store.Seed(seed.Events())
		}
		// The in-memory store would lose the session on restart, so the
		// durable slot lives in a JSON file alongside it.
		return store, slot.NewFile(cfg.SessionSlotPath), func() {}, nil
	}
}

// seedSQLite loads the demo catalog into an empty database.
func seedSQLite(ctx context.Context, store *sqlite.Store) error {
	existing, err := store.ListEvents(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, event := range seed.Events() {
		if err := store.CreateEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// newIDGenerator yields millisecond timestamps, bumped monotonically when two
// calls land on the same tick.
func newIDGenerator() func() int64 {
	var last atomic.Int64
	return func() int64 {
		for {
			candidate := time.Now().UnixMilli()
			prev := last.Load()
			if candidate <= prev {
				candidate = prev + 1
			}
			if last.CompareAndSwap(prev, candidate) {
				return candidate
			}
		}
	}
}
