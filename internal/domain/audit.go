package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord logs a mutation event on a note.
type AuditRecord struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	ActorID   *uuid.UUID
	NoteID    NoteID
	Action    AuditAction
	Changes   map[string]any
	CreatedAt time.Time
}
