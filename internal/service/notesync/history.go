package notesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// Undo reverts the most recent executed command. If the inverse returns an
// error the note is re-read from the backend: when the re-read shows the
// inverse was committed the undo stands, otherwise the command stays undoable.
func (s *Session) Undo(ctx context.Context) error {
	cmd, ok := s.stack.PopUndo()
	if !ok {
		return domain.ErrNothingToUndo
	}
	return s.undo(ctx, cmd)
}

// Redo re-applies the most recently reverted command, with the same re-read
// on error as Undo. A failed command that can no longer be made redoable is
// dropped from the history.
func (s *Session) Redo(ctx context.Context) error {
	cmd, ok := s.stack.PopRedo()
	if !ok {
		return domain.ErrNothingToRedo
	}
	return s.redo(ctx, cmd)
}

// undo applies the inverse of an already popped command.
func (s *Session) undo(ctx context.Context, cmd domain.Command) error {
	h := cmd.Header()

	var err error
	switch c := cmd.(type) {
	case domain.CreateCommand:
		err = s.softDelete(ctx, c.NoteID)
	case domain.UpdateCommand:
		_, _, err = s.applyUpdate(ctx, c.NoteID, c.PreviousState.FullPatch())
	case domain.DeleteCommand:
		_, err = s.restore(ctx, c.PreviousState)
	default:
		err = fmt.Errorf("unknown command %T", cmd)
	}

	if err != nil {
		backend, known := s.resync(ctx, h.NoteID)
		if known && undone(cmd, backend) {
			// The inverse was committed and only the response was lost.
			historyTotal.WithLabelValues("undo", cmd.Kind().String(), resultLanded).Inc()
			s.log.WarnContext(ctx, "undo committed despite error",
				slog.String("kind", cmd.Kind().String()),
				slog.String("note_id", h.NoteID.String()),
				slog.String("error", err.Error()),
			)
			s.publish()
			return nil
		}

		if !s.stack.CancelUndo(cmd) {
			s.stack.Push(cmd)
		}
		historyTotal.WithLabelValues("undo", cmd.Kind().String(), resultFailed).Inc()
		s.log.WarnContext(ctx, "undo failed",
			slog.String("kind", cmd.Kind().String()),
			slog.String("note_id", h.NoteID.String()),
			slog.String("error", err.Error()),
		)
		s.publish()
		return &domain.MutationError{Op: "undo " + cmd.Kind().String(), NoteID: h.NoteID, Err: err}
	}

	historyTotal.WithLabelValues("undo", cmd.Kind().String(), resultOK).Inc()
	s.publish()
	s.log.InfoContext(ctx, "undo",
		slog.String("kind", cmd.Kind().String()),
		slog.String("note_id", h.NoteID.String()),
	)
	return nil
}

// redo re-applies an already popped command.
func (s *Session) redo(ctx context.Context, cmd domain.Command) error {
	h := cmd.Header()

	var err error
	switch c := cmd.(type) {
	case domain.CreateCommand:
		_, err = s.restore(ctx, c.NewState)
	case domain.UpdateCommand:
		_, _, err = s.applyUpdate(ctx, c.NoteID, c.NewState.FullPatch())
	case domain.DeleteCommand:
		err = s.softDelete(ctx, c.NoteID)
	default:
		err = fmt.Errorf("unknown command %T", cmd)
	}

	if err != nil {
		backend, known := s.resync(ctx, h.NoteID)
		if known && redone(cmd, backend) {
			historyTotal.WithLabelValues("redo", cmd.Kind().String(), resultLanded).Inc()
			s.log.WarnContext(ctx, "redo committed despite error",
				slog.String("kind", cmd.Kind().String()),
				slog.String("note_id", h.NoteID.String()),
				slog.String("error", err.Error()),
			)
			s.publish()
			return nil
		}

		if !s.stack.CancelRedo(cmd) {
			// A push moved the pointer past cmd while the call was in flight.
			// Its change never happened, so it must not stay in the executed region.
			s.stack.Drop(h.ID)
			s.log.WarnContext(ctx, "history moved during failed redo",
				slog.String("command_id", h.ID.String()),
			)
		}
		historyTotal.WithLabelValues("redo", cmd.Kind().String(), resultFailed).Inc()
		s.log.WarnContext(ctx, "redo failed",
			slog.String("kind", cmd.Kind().String()),
			slog.String("note_id", h.NoteID.String()),
			slog.String("error", err.Error()),
		)
		s.publish()
		return &domain.MutationError{Op: "redo " + cmd.Kind().String(), NoteID: h.NoteID, Err: err}
	}

	historyTotal.WithLabelValues("redo", cmd.Kind().String(), resultOK).Inc()
	s.publish()
	s.log.InfoContext(ctx, "redo",
		slog.String("kind", cmd.Kind().String()),
		slog.String("note_id", h.NoteID.String()),
	)
	return nil
}

// resync re-reads a note after a failed undo/redo, since a transport error
// leaves the backend state unknown, and merges it into the store. It returns
// the authoritative note (nil when the row is gone) and whether the read
// succeeded. It runs even if ctx was cancelled.
func (s *Session) resync(ctx context.Context, id domain.NoteID) (*domain.Note, bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.resyncTimeout)
	defer cancel()

	note, err := s.persistence.Get(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.store.Remove(id)
		return nil, true
	case err != nil:
		divergenceTotal.Inc()
		s.log.WarnContext(ctx, "local view may diverge from backend",
			slog.String("note_id", id.String()),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	if note.ProjectID != s.ProjectID() {
		return nil, false
	}
	s.merge(note.Clone())
	return note, true
}

// undone reports whether backend shows the end state of cmd's inverse.
func undone(cmd domain.Command, backend *domain.Note) bool {
	switch c := cmd.(type) {
	case domain.CreateCommand:
		return backend == nil || backend.IsDeleted()
	case domain.UpdateCommand:
		return backend != nil && !backend.IsDeleted() && backend.SameFields(c.PreviousState)
	case domain.DeleteCommand:
		return backend != nil && !backend.IsDeleted()
	}
	return false
}

// redone reports whether backend shows the end state of cmd itself.
func redone(cmd domain.Command, backend *domain.Note) bool {
	switch c := cmd.(type) {
	case domain.CreateCommand:
		return backend != nil && !backend.IsDeleted()
	case domain.UpdateCommand:
		return backend != nil && !backend.IsDeleted() && backend.SameFields(c.NewState)
	case domain.DeleteCommand:
		return backend == nil || backend.IsDeleted()
	}
	return false
}
