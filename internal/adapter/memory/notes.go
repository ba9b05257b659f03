// Package memory is the offline backend: an in-process note table with the
// same contract as the Postgres repository, an audit log, a pass-through
// transaction manager and a change feed that echoes every write back to
// subscribers asynchronously, the way the database trigger does online.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// Backend holds the notes of every project in memory.
type Backend struct {
	mu    sync.RWMutex
	notes map[domain.NoteID]domain.Note
	now   func() time.Time

	feed  *Feed
	audit *AuditLog
}

// New creates an empty Backend.
func New() *Backend {
	return &Backend{
		notes: make(map[domain.NoteID]domain.Note),
		now:   func() time.Time { return time.Now().UTC() },
		feed:  newFeed(),
		audit: &AuditLog{},
	}
}

// Feed returns the change feed echoing this backend's writes.
func (b *Backend) Feed() *Feed { return b.feed }

// Audit returns the backend's audit log.
func (b *Backend) Audit() *AuditLog { return b.audit }

// Seed loads notes without emitting change events. Deleted notes keep their
// delete marker so they can be restored.
func (b *Backend) Seed(notes ...domain.Note) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range notes {
		b.notes[n.ID] = n.Clone()
	}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a note by id, including soft-deleted notes.
func (b *Backend) GetByID(_ context.Context, id domain.NoteID) (*domain.Note, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, ok := b.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	c := n.Clone()
	return &c, nil
}

// ListActive returns the project's active notes, newest first.
func (b *Backend) ListActive(_ context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	out := b.filter(func(n domain.Note) bool {
		return n.ProjectID == projectID && !n.IsDeleted()
	})
	slices.SortFunc(out, func(a, c domain.Note) int {
		if d := c.CreatedAt.Compare(a.CreatedAt); d != 0 {
			return d
		}
		return cmp.Compare(a.ID, c.ID)
	})
	return out, nil
}

// ListDeleted returns the project's soft-deleted notes, most recently deleted first.
func (b *Backend) ListDeleted(_ context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	out := b.filter(func(n domain.Note) bool {
		return n.ProjectID == projectID && n.IsDeleted()
	})
	slices.SortFunc(out, func(a, c domain.Note) int {
		if d := c.DeletedAt.Compare(*a.DeletedAt); d != 0 {
			return d
		}
		return cmp.Compare(a.ID, c.ID)
	})
	return out, nil
}

// All returns every note, deleted ones included.
func (b *Backend) All() []domain.Note {
	return b.filter(func(domain.Note) bool { return true })
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a note. An empty id is replaced with a fresh UUID; a
// client-assigned id is kept.
func (b *Backend) Create(_ context.Context, note *domain.Note) (*domain.Note, error) {
	n := note.Clone()
	if n.ID == "" {
		n.ID = domain.NoteID(uuid.NewString())
	}
	now := b.now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = n.CreatedAt
	n.DeletedAt = nil
	n.DeletedBy = nil

	b.mu.Lock()
	if _, exists := b.notes[n.ID]; exists {
		b.mu.Unlock()
		return nil, fmt.Errorf("note %s: %w", n.ID, domain.ErrAlreadyExists)
	}
	b.notes[n.ID] = n
	b.mu.Unlock()

	b.feed.publish(domain.ChangeInsert, n)
	out := n.Clone()
	return &out, nil
}

// Update applies a patch to an active note and bumps UpdatedAt.
func (b *Backend) Update(_ context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error) {
	return b.modify(id, true, func(n *domain.Note) {
		*n = n.Apply(patch)
		n.UpdatedAt = b.now()
	})
}

// SoftDelete marks an active note deleted.
func (b *Backend) SoftDelete(_ context.Context, id domain.NoteID, by *uuid.UUID) (*domain.Note, error) {
	return b.modify(id, true, func(n *domain.Note) {
		at := b.now()
		n.DeletedAt = &at
		if by != nil {
			actor := *by
			n.DeletedBy = &actor
		}
	})
}

// Restore clears the delete marker of a soft-deleted note.
func (b *Backend) Restore(_ context.Context, id domain.NoteID) (*domain.Note, error) {
	return b.modify(id, false, func(n *domain.Note) {
		n.DeletedAt = nil
		n.DeletedBy = nil
		n.UpdatedAt = b.now()
	})
}

// HardDeleteOld removes notes soft-deleted before threshold and returns the count.
func (b *Backend) HardDeleteOld(_ context.Context, threshold time.Time) (int64, error) {
	b.mu.Lock()
	var purged []domain.Note
	for id, n := range b.notes {
		if n.IsDeleted() && n.DeletedAt.Before(threshold) {
			purged = append(purged, n)
			delete(b.notes, id)
		}
	}
	b.mu.Unlock()

	for _, n := range purged {
		b.feed.publish(domain.ChangeDelete, n)
	}
	return int64(len(purged)), nil
}

// modify applies fn to a note whose deleted state must equal !active and
// publishes an update. Soft delete and restore travel as updates, as in the
// table trigger.
func (b *Backend) modify(id domain.NoteID, active bool, fn func(*domain.Note)) (*domain.Note, error) {
	b.mu.Lock()
	n, ok := b.notes[id]
	if !ok || n.IsDeleted() == active {
		b.mu.Unlock()
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	n = n.Clone()
	fn(&n)
	b.notes[id] = n
	b.mu.Unlock()

	b.feed.publish(domain.ChangeUpdate, n)
	out := n.Clone()
	return &out, nil
}

func (b *Backend) filter(keep func(domain.Note) bool) []domain.Note {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.Note, 0, len(b.notes))
	for _, id := range slices.Sorted(maps.Keys(b.notes)) {
		if n := b.notes[id]; keep(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}
