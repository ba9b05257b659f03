package notesync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// DeleteReceipt is returned by a successful DeleteNote. Undo is the inline
// undo affordance for that delete.
type DeleteReceipt struct {
	Note      domain.Note
	CommandID uuid.UUID

	session *Session
}

// Undo reverts the delete if it is still the most recent command in the
// history. Otherwise it returns domain.ErrStaleUndo.
func (r *DeleteReceipt) Undo(ctx context.Context) error {
	return r.session.UndoCommand(ctx, r.CommandID)
}

// UndoCommand reverts the command with the given id only while it is the
// undo top. Callers that kept a receipt id across requests use it in place of
// DeleteReceipt.Undo.
func (s *Session) UndoCommand(ctx context.Context, commandID uuid.UUID) error {
	cmd, ok := s.stack.PopUndoIf(commandID)
	if !ok {
		return domain.ErrStaleUndo
	}
	return s.undo(ctx, cmd)
}

// DeleteNote soft-deletes a note: it leaves the active view immediately and
// comes back if the backend rejects the delete.
func (s *Session) DeleteNote(ctx context.Context, id domain.NoteID) (*DeleteReceipt, error) {
	if id == "" {
		return nil, domain.NewValidationError("note_id", "required")
	}

	prev, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}

	if err := s.softDelete(ctx, id); err != nil {
		mutationTotal.WithLabelValues("delete", resultFailed).Inc()
		return nil, &domain.MutationError{Op: "delete", NoteID: id, Err: err}
	}

	cmd := domain.NewDeleteCommand(prev, s.now())
	s.stack.Push(cmd)
	mutationTotal.WithLabelValues("delete", resultOK).Inc()
	s.publish()

	s.log.InfoContext(ctx, "note deleted",
		slog.String("note_id", id.String()),
		slog.String("title", prev.Title),
	)

	return &DeleteReceipt{Note: prev, CommandID: cmd.ID, session: s}, nil
}
