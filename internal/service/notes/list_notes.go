package notes

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// Get returns a note by id, including soft-deleted notes.
func (s *Service) Get(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// List returns the project's active notes.
func (s *Service) List(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	if projectID == uuid.Nil {
		return nil, domain.NewValidationError("project_id", "required")
	}
	notes, err := s.notes.ListActive(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// ListDeleted returns the project's soft-deleted notes.
func (s *Service) ListDeleted(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	if projectID == uuid.Nil {
		return nil, domain.NewValidationError("project_id", "required")
	}
	notes, err := s.notes.ListDeleted(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list deleted notes: %w", err)
	}
	return notes, nil
}
