package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notesync-backend/internal/domain"
	"github.com/heartmarshall/notesync-backend/pkg/ctxutil"
)

// Restore re-activates a soft-deleted note.
func (s *Service) Restore(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "required")
	}

	var restored *domain.Note
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var restoreErr error
		restored, restoreErr = s.notes.Restore(txCtx, id)
		if restoreErr != nil {
			return fmt.Errorf("restore note: %w", restoreErr)
		}

		auditErr := s.audit.Log(txCtx, domain.AuditRecord{
			ProjectID: restored.ProjectID,
			ActorID:   ctxutil.ActorPtr(ctx),
			NoteID:    id,
			Action:    domain.AuditActionRestore,
		})
		if auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "note restored", slog.String("note_id", id.String()))
	return restored, nil
}
