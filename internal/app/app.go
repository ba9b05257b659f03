package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/notesync-backend/internal/config"
	"github.com/heartmarshall/notesync-backend/internal/service/notesync"
	"github.com/heartmarshall/notesync-backend/internal/transport/middleware"
)

// Run is the application entry point. It loads configuration, wires the
// backend for the configured sync mode, starts the session and serves HTTP
// until ctx is cancelled. An empty configPath falls back to CONFIG_PATH.
func Run(ctx context.Context, configPath string) error {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("sync_mode", cfg.Sync.Mode),
		slog.String("project_id", cfg.Sync.ProjectID.String()),
	)

	var b *backend
	if cfg.Sync.Offline() {
		b, err = newOfflineBackend(cfg, logger)
	} else {
		b, err = newOnlineBackend(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}
	defer b.close()

	session := notesync.NewSession(logger, b.notes, b.feed, notesync.Config{
		ProjectID:     cfg.Sync.ProjectID,
		Offline:       cfg.Sync.Offline(),
		HistoryLimit:  cfg.Sync.HistoryLimit,
		ResyncTimeout: cfg.Sync.ResyncTimeout,
	})

	if err := startSession(ctx, session, b); err != nil {
		return err
	}
	defer session.Disconnect()

	limiter := middleware.NewRateLimiter(cfg.Sync.RateLimit, cfg.Sync.RateBurst, time.Minute)
	defer limiter.Stop()

	srv := newServer(cfg.Server, newHandler(cfg, logger, session, b, limiter))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if b.run != nil {
		g.Go(func() error {
			if err := b.run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("change feed: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	runErr := g.Wait()

	if cfg.Sync.Offline() {
		if err := saveOfflineState(context.WithoutCancel(ctx), cfg.Sync.StateFile, session); err != nil {
			logger.Error("save state", slog.String("error", err.Error()))
			return errors.Join(runErr, fmt.Errorf("save state: %w", err))
		}
		logger.Info("state saved", slog.String("path", cfg.Sync.StateFile))
	}

	return runErr
}

// saveOfflineState writes the session state together with the backend's trash,
// so soft-deleted notes outlive the history entries that point at them.
func saveOfflineState(ctx context.Context, path string, session *notesync.Session) error {
	st := session.ExportState()
	trash, err := session.Trash(ctx)
	if err != nil {
		return err
	}
	st.Trash = trash
	return notesync.SaveStateFile(path, st)
}

// startSession fills the store, restoring saved history offline, and
// subscribes to the change feed.
func startSession(ctx context.Context, session *notesync.Session, b *backend) error {
	if b.state != nil {
		if err := session.ImportState(*b.state); err != nil {
			return fmt.Errorf("import state: %w", err)
		}
	} else if err := session.Load(ctx); err != nil {
		return fmt.Errorf("load notes: %w", err)
	}

	if err := session.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}
