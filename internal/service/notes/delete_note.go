package notes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/notesync-backend/internal/domain"
	"github.com/heartmarshall/notesync-backend/pkg/ctxutil"
)

// SoftDelete marks an active note deleted, recording the caller as deleted_by.
func (s *Service) SoftDelete(ctx context.Context, id domain.NoteID) error {
	if id == "" {
		return domain.NewValidationError("id", "required")
	}

	actor := ctxutil.ActorPtr(ctx)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		deleted, deleteErr := s.notes.SoftDelete(txCtx, id, actor)
		if deleteErr != nil {
			return fmt.Errorf("soft delete note: %w", deleteErr)
		}

		auditErr := s.audit.Log(txCtx, domain.AuditRecord{
			ProjectID: deleted.ProjectID,
			ActorID:   actor,
			NoteID:    id,
			Action:    domain.AuditActionDelete,
			Changes: map[string]any{
				"title": map[string]any{"old": deleted.Title},
			},
		})
		if auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "note soft-deleted", slog.String("note_id", id.String()))
	return nil
}

// PurgeDeleted hard-deletes notes soft-deleted longer than retention ago.
func (s *Service) PurgeDeleted(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, domain.NewValidationError("retention", "must be positive")
	}

	threshold := s.now().Add(-retention)
	purged, err := s.notes.HardDeleteOld(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("purge deleted notes: %w", err)
	}

	s.log.InfoContext(ctx, "deleted notes purged",
		slog.Int64("purged", purged),
		slog.Time("threshold", threshold),
	)
	return purged, nil
}
