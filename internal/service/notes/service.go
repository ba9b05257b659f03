// Package notes is the persistence service behind the sync engine: it
// validates writes, stores them through the note repository and records an
// audit entry for every mutation in the same transaction.
package notes

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

type noteRepo interface {
	Create(ctx context.Context, note *domain.Note) (*domain.Note, error)
	GetByID(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	Update(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error)
	SoftDelete(ctx context.Context, id domain.NoteID, by *uuid.UUID) (*domain.Note, error)
	Restore(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	ListActive(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error)
	ListDeleted(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error)
	HardDeleteOld(ctx context.Context, threshold time.Time) (int64, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides note persistence operations.
type Service struct {
	notes noteRepo
	audit auditLogger
	tx    txManager
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a new notes service.
func NewService(
	log *slog.Logger,
	notes noteRepo,
	audit auditLogger,
	tx txManager,
) *Service {
	return &Service{
		notes: notes,
		audit: audit,
		tx:    tx,
		log:   log.With("service", "notes"),
		now:   time.Now,
	}
}
