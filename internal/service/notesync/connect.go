package notesync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// Load replaces the store contents with the project's active notes.
func (s *Session) Load(ctx context.Context) error {
	projectID := s.ProjectID()

	notes, err := s.persistence.List(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	grouped := make(map[domain.Category][]domain.Note, len(domain.Categories()))
	for _, n := range notes {
		grouped[n.Category] = append(grouped[n.Category], n)
	}
	for _, c := range domain.Categories() {
		s.store.SetAll(c, grouped[c])
	}

	s.log.InfoContext(ctx, "notes loaded",
		slog.String("project_id", projectID.String()),
		slog.Int("count", len(notes)),
	)
	return nil
}

// Connect subscribes the session to the change feed. Calling it while
// connected is a no-op.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return nil
	}
	projectID := s.projectID
	s.mu.Unlock()

	unsubscribe, err := s.feed.Subscribe(ctx, projectID, s.feedHandlers())
	if err != nil {
		s.setStatus(domain.StatusError)
		return fmt.Errorf("subscribe to change feed: %w", err)
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	return nil
}

// Disconnect unsubscribes from the change feed.
func (s *Session) Disconnect() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.setStatus(domain.StatusDisconnected)
}

// SwitchProject rebinds the session to another project. The history and
// the store are cleared so nothing leaks across projects.
func (s *Session) SwitchProject(ctx context.Context, projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return domain.NewValidationError("project_id", "required")
	}

	s.mu.Lock()
	connected := s.unsubscribe != nil
	s.mu.Unlock()

	s.Disconnect()

	s.mu.Lock()
	s.projectID = projectID
	s.mu.Unlock()

	s.stack.Clear()
	s.store.Clear()

	if err := s.Load(ctx); err != nil {
		return err
	}
	if connected {
		if err := s.Connect(ctx); err != nil {
			return err
		}
	}

	s.log.InfoContext(ctx, "project switched", slog.String("project_id", projectID.String()))
	s.publish()
	return nil
}
