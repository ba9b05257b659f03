package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/notesync-backend/internal/adapter/memory"
	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres/note"
	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres/notefeed"
	"github.com/heartmarshall/notesync-backend/internal/config"
	"github.com/heartmarshall/notesync-backend/internal/domain"
	"github.com/heartmarshall/notesync-backend/internal/service/notes"
	"github.com/heartmarshall/notesync-backend/internal/service/notesync"
)

// changeFeed is what the session subscribes to in either mode.
type changeFeed interface {
	Subscribe(ctx context.Context, projectID uuid.UUID, handlers domain.FeedHandlers) (func(), error)
}

// backend bundles the persistence side of one sync mode.
type backend struct {
	notes *notes.Service
	feed  changeFeed

	// pool is nil offline.
	pool *pgxpool.Pool
	// run drives the change feed until ctx is cancelled; nil offline.
	run func(ctx context.Context) error
	// state is the offline snapshot loaded at startup, if any.
	state *notesync.State

	close func()
}

// newOnlineBackend connects to PostgreSQL and starts a LISTEN/NOTIFY feed.
func newOnlineBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	noteRepo := note.New(pool)
	listener := notefeed.New(log, noteRepo, notefeed.Config{
		DSN:        cfg.Database.DSN,
		Channel:    cfg.Sync.Channel,
		MinBackoff: cfg.Sync.MinBackoff,
		MaxBackoff: cfg.Sync.MaxBackoff,
	})

	return &backend{
		notes: notes.NewService(log, noteRepo, audit.New(pool), postgres.NewTxManager(pool)),
		feed:  listener,
		pool:  pool,
		run:   listener.Run,
		close: pool.Close,
	}, nil
}

// newOfflineBackend builds the in-memory backend and seeds it from the state
// file. Notes the saved history refers to are seeded as soft-deleted rows so
// undo and redo still find them after a restart.
func newOfflineBackend(cfg *config.Config, log *slog.Logger) (*backend, error) {
	mem := memory.New()
	b := &backend{
		notes: notes.NewService(log, mem, mem.Audit(), memory.TxManager{}),
		feed:  mem.Feed(),
		close: func() {},
	}

	st, err := notesync.LoadStateFile(cfg.Sync.StateFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info("no saved state, starting empty", slog.String("path", cfg.Sync.StateFile))
		return b, nil
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	}
	if st.ProjectID != cfg.Sync.ProjectID {
		log.Warn("saved state belongs to another project, ignoring it",
			slog.String("path", cfg.Sync.StateFile),
			slog.String("state_project_id", st.ProjectID.String()),
		)
		return b, nil
	}

	mem.Seed(st.Notes...)
	mem.Seed(st.Tombstones()...)
	b.state = &st

	log.Info("state loaded",
		slog.String("path", cfg.Sync.StateFile),
		slog.Int("notes", len(st.Notes)),
		slog.Int("commands", len(st.Commands)),
	)
	return b, nil
}
