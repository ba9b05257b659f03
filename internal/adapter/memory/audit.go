package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// AuditLog keeps audit records in memory.
type AuditLog struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

// Log appends a record, filling in its id.
func (a *AuditLog) Log(_ context.Context, record domain.AuditRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Changes = maps.Clone(record.Changes)

	a.mu.Lock()
	a.records = append(a.records, record)
	a.mu.Unlock()
	return nil
}

// ByNote returns the records of a note, newest first.
func (a *AuditLog) ByNote(noteID domain.NoteID) []domain.AuditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []domain.AuditRecord
	for i := len(a.records) - 1; i >= 0; i-- {
		if a.records[i].NoteID == noteID {
			out = append(out, a.records[i])
		}
	}
	return out
}

// TxManager runs functions directly. The in-memory table applies each write
// atomically on its own, so there is nothing to roll back.
type TxManager struct{}

// RunInTx calls fn with ctx.
func (TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
