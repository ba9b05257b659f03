package notesync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// UpdateNote patches a note optimistically, persists the patch and records
// an update command with full before/after snapshots. On failure the full
// previous snapshot is restored.
func (s *Session) UpdateNote(ctx context.Context, input UpdateNoteInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if !s.store.Has(input.NoteID) {
		return fmt.Errorf("note %s: %w", input.NoteID, domain.ErrNotFound)
	}

	prev, next, err := s.applyUpdate(ctx, input.NoteID, input.Patch())
	if err != nil {
		mutationTotal.WithLabelValues("update", resultFailed).Inc()
		return &domain.MutationError{Op: "update", NoteID: input.NoteID, Err: err}
	}
	mutationTotal.WithLabelValues("update", resultOK).Inc()

	// Nothing observable changed: keep the history free of no-op entries.
	if next.SameFields(prev) {
		return nil
	}

	s.stack.Push(domain.NewUpdateCommand(prev, next, s.now()))
	s.publish()

	s.log.InfoContext(ctx, "note updated",
		slog.String("note_id", input.NoteID.String()),
	)

	return nil
}
