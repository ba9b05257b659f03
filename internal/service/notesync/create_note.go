package notesync

import (
	"context"
	"log/slog"
	"strings"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// AddNote inserts a provisional note, persists it and records a create
// command. On failure the provisional note is removed and no command is recorded.
func (s *Session) AddNote(ctx context.Context, input AddNoteInput) (*domain.Note, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	provisional := domain.Note{
		ID:         s.newLocalID(),
		ProjectID:  s.ProjectID(),
		Category:   input.Category,
		Title:      strings.TrimSpace(input.Title),
		Content:    input.Content,
		Attributes: input.Attributes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.store.Insert(provisional)

	req := provisional.Clone()
	if !s.offline {
		req.ID = ""
	}

	created, err := s.persistence.Create(ctx, &req)
	if err != nil {
		s.store.Remove(provisional.ID)
		rollbackTotal.WithLabelValues("create").Inc()
		mutationTotal.WithLabelValues("create", resultFailed).Inc()
		s.log.WarnContext(ctx, "create rolled back",
			slog.String("provisional_id", provisional.ID.String()),
			slog.String("error", err.Error()),
		)
		return nil, &domain.MutationError{Op: "create", Err: err}
	}

	canonical := created.Clone()
	s.store.Swap(provisional.ID, canonical)
	s.stack.Push(domain.NewCreateCommand(canonical, s.now()))
	mutationTotal.WithLabelValues("create", resultOK).Inc()
	s.publish()

	s.log.InfoContext(ctx, "note created",
		slog.String("note_id", canonical.ID.String()),
		slog.String("category", canonical.Category.String()),
	)

	return &canonical, nil
}
