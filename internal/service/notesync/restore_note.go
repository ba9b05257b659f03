package notesync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// Trash returns the soft-deleted notes of the project, straight from the backend.
func (s *Session) Trash(ctx context.Context) ([]domain.Note, error) {
	notes, err := s.persistence.ListDeleted(ctx, s.ProjectID())
	if err != nil {
		return nil, fmt.Errorf("list deleted notes: %w", err)
	}
	return notes, nil
}

// RestoreNote re-activates a note from the trash. Trash restores are not
// recorded in the history.
func (s *Session) RestoreNote(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	if id == "" {
		return nil, domain.NewValidationError("note_id", "required")
	}
	if s.store.Has(id) {
		return nil, fmt.Errorf("note %s is not deleted: %w", id, domain.ErrConflict)
	}

	snapshot, err := s.persistence.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if snapshot.ProjectID != s.ProjectID() {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}

	restored, err := s.restore(ctx, *snapshot)
	if err != nil {
		mutationTotal.WithLabelValues("restore", resultFailed).Inc()
		return nil, &domain.MutationError{Op: "restore", NoteID: id, Err: err}
	}
	mutationTotal.WithLabelValues("restore", resultOK).Inc()

	s.log.InfoContext(ctx, "note restored",
		slog.String("note_id", id.String()),
	)

	return &restored, nil
}
