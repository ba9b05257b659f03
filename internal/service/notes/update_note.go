package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notesync-backend/internal/domain"
	"github.com/heartmarshall/notesync-backend/pkg/ctxutil"
)

// Update applies a partial update to an active note.
func (s *Service) Update(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error) {
	if err := validatePatch(id, patch); err != nil {
		return nil, err
	}

	current, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if current.IsDeleted() {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}

	var updated *domain.Note
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var updateErr error
		updated, updateErr = s.notes.Update(txCtx, id, patch)
		if updateErr != nil {
			return fmt.Errorf("update note: %w", updateErr)
		}

		changes := patch.Changes(*current)
		if len(changes) == 0 {
			return nil
		}
		auditErr := s.audit.Log(txCtx, domain.AuditRecord{
			ProjectID: current.ProjectID,
			ActorID:   ctxutil.ActorPtr(ctx),
			NoteID:    id,
			Action:    domain.AuditActionUpdate,
			Changes:   changes,
		})
		if auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "note changed", slog.String("note_id", id.String()))

	return updated, nil
}
