package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notesync-backend/internal/domain"
	"github.com/heartmarshall/notesync-backend/pkg/ctxutil"
)

// Create validates and stores a new note. An empty ID lets the database
// assign one; a client id (offline mode) is kept.
func (s *Service) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	if err := validateNew(note); err != nil {
		return nil, err
	}

	var created *domain.Note
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var createErr error
		created, createErr = s.notes.Create(txCtx, note)
		if createErr != nil {
			return fmt.Errorf("create note: %w", createErr)
		}

		auditErr := s.audit.Log(txCtx, domain.AuditRecord{
			ProjectID: created.ProjectID,
			ActorID:   ctxutil.ActorPtr(ctx),
			NoteID:    created.ID,
			Action:    domain.AuditActionCreate,
			Changes: map[string]any{
				"title":    map[string]any{"new": created.Title},
				"category": map[string]any{"new": created.Category.String()},
			},
		})
		if auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "note stored",
		slog.String("note_id", created.ID.String()),
		slog.String("project_id", created.ProjectID.String()),
		slog.String("category", created.Category.String()),
	)

	return created, nil
}
