// Command cleanup physically removes notes soft-deleted before the
// configured retention window (RETENTION_DELETED_NOTES). It is intended to
// be invoked by an external cron job, not as an in-process goroutine.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres/note"
	"github.com/heartmarshall/notesync-backend/internal/app"
	"github.com/heartmarshall/notesync-backend/internal/config"
	"github.com/heartmarshall/notesync-backend/internal/service/notes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	if cfg.Sync.Offline() {
		logger.Error("cleanup needs the database; SYNC_MODE is offline")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svc := notes.NewService(logger, note.New(pool), audit.New(pool), postgres.NewTxManager(pool))

	deleted, err := svc.PurgeDeleted(ctx, cfg.Retention.DeletedNotes)
	if err != nil {
		logger.Error("hard delete failed",
			slog.String("error", err.Error()),
			slog.Duration("retention", cfg.Retention.DeletedNotes),
		)
		os.Exit(1)
	}

	logger.Info("hard delete completed",
		slog.Int64("deleted", deleted),
		slog.Duration("retention", cfg.Retention.DeletedNotes),
	)
}
