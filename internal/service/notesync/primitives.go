package notesync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// The primitives below apply one optimistic change, call the backend and
// roll back on failure. They never touch the history; AddNote/UpdateNote/
// DeleteNote record commands and Undo/Redo reuse the primitives as inverses.

// applyUpdate snapshots the note, patches the store, and persists the patch.
// On failure the full previous snapshot is written back.
func (s *Session) applyUpdate(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (prev, next domain.Note, err error) {
	prev, ok := s.store.Get(id)
	if !ok {
		return domain.Note{}, domain.Note{}, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}

	s.store.Patch(id, patch)

	updated, err := s.persistence.Update(ctx, id, patch)
	if err != nil {
		s.store.Replace(prev)
		rollbackTotal.WithLabelValues("update").Inc()
		s.log.WarnContext(ctx, "update rolled back",
			slog.String("note_id", id.String()),
			slog.String("error", err.Error()),
		)
		return domain.Note{}, domain.Note{}, err
	}

	next = prev.Apply(patch)
	next.UpdatedAt = s.now()
	if updated != nil {
		next.UpdatedAt = updated.UpdatedAt
	}
	s.store.Touch(id, next.UpdatedAt)

	return prev, next, nil
}

// softDelete removes the note from the active view and persists the soft
// delete. On failure the removed snapshot is re-inserted.
func (s *Session) softDelete(ctx context.Context, id domain.NoteID) error {
	prev, had := s.store.Remove(id)

	if err := s.persistence.SoftDelete(ctx, id); err != nil {
		if had {
			s.store.Insert(prev)
		}
		rollbackTotal.WithLabelValues("delete").Inc()
		s.log.WarnContext(ctx, "delete rolled back",
			slog.String("note_id", id.String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	return nil
}

// restore re-activates a soft-deleted note, inserting snapshot (with the
// delete marker cleared) optimistically. On failure the insert is undone.
func (s *Session) restore(ctx context.Context, snapshot domain.Note) (domain.Note, error) {
	active := snapshot.Clone()
	active.DeletedAt = nil
	active.DeletedBy = nil

	inserted := s.store.Insert(active)

	restored, err := s.persistence.Restore(ctx, snapshot.ID)
	if err != nil {
		if inserted {
			s.store.Remove(active.ID)
		}
		rollbackTotal.WithLabelValues("restore").Inc()
		s.log.WarnContext(ctx, "restore rolled back",
			slog.String("note_id", snapshot.ID.String()),
			slog.String("error", err.Error()),
		)
		return domain.Note{}, err
	}

	if restored != nil && !restored.IsDeleted() {
		active = restored.Clone()
		if !s.store.Replace(active) {
			s.store.Insert(active)
		}
	}

	return active, nil
}
