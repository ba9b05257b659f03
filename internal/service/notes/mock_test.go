package notes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

var (
	_ noteRepo    = &noteRepoMock{}
	_ auditLogger = &auditLoggerMock{}
	_ txManager   = &txManagerMock{}
)

// noteRepoMock is a mock implementation of noteRepo.
type noteRepoMock struct {
	CreateFunc        func(ctx context.Context, note *domain.Note) (*domain.Note, error)
	GetByIDFunc       func(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	UpdateFunc        func(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error)
	SoftDeleteFunc    func(ctx context.Context, id domain.NoteID, by *uuid.UUID) (*domain.Note, error)
	RestoreFunc       func(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	ListActiveFunc    func(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error)
	ListDeletedFunc   func(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error)
	HardDeleteOldFunc func(ctx context.Context, threshold time.Time) (int64, error)

	calls struct {
		Create []struct {
			Note *domain.Note
		}
		GetByID []struct {
			ID domain.NoteID
		}
		Update []struct {
			ID    domain.NoteID
			Patch domain.NotePatch
		}
		SoftDelete []struct {
			ID domain.NoteID
			By *uuid.UUID
		}
		Restore []struct {
			ID domain.NoteID
		}
		HardDeleteOld []struct {
			Threshold time.Time
		}
	}
	lock sync.RWMutex
}

func (m *noteRepoMock) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	if m.CreateFunc == nil {
		panic("noteRepoMock.CreateFunc: method is nil but noteRepo.Create was just called")
	}
	m.lock.Lock()
	m.calls.Create = append(m.calls.Create, struct{ Note *domain.Note }{note})
	m.lock.Unlock()
	return m.CreateFunc(ctx, note)
}

// CreateCalls gets all the calls that were made to Create.
func (m *noteRepoMock) CreateCalls() []struct{ Note *domain.Note } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Create
}

func (m *noteRepoMock) GetByID(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	if m.GetByIDFunc == nil {
		panic("noteRepoMock.GetByIDFunc: method is nil but noteRepo.GetByID was just called")
	}
	m.lock.Lock()
	m.calls.GetByID = append(m.calls.GetByID, struct{ ID domain.NoteID }{id})
	m.lock.Unlock()
	return m.GetByIDFunc(ctx, id)
}

func (m *noteRepoMock) Update(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error) {
	if m.UpdateFunc == nil {
		panic("noteRepoMock.UpdateFunc: method is nil but noteRepo.Update was just called")
	}
	m.lock.Lock()
	m.calls.Update = append(m.calls.Update, struct {
		ID    domain.NoteID
		Patch domain.NotePatch
	}{id, patch})
	m.lock.Unlock()
	return m.UpdateFunc(ctx, id, patch)
}

// UpdateCalls gets all the calls that were made to Update.
func (m *noteRepoMock) UpdateCalls() []struct {
	ID    domain.NoteID
	Patch domain.NotePatch
} {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Update
}

func (m *noteRepoMock) SoftDelete(ctx context.Context, id domain.NoteID, by *uuid.UUID) (*domain.Note, error) {
	if m.SoftDeleteFunc == nil {
		panic("noteRepoMock.SoftDeleteFunc: method is nil but noteRepo.SoftDelete was just called")
	}
	m.lock.Lock()
	m.calls.SoftDelete = append(m.calls.SoftDelete, struct {
		ID domain.NoteID
		By *uuid.UUID
	}{id, by})
	m.lock.Unlock()
	return m.SoftDeleteFunc(ctx, id, by)
}

// SoftDeleteCalls gets all the calls that were made to SoftDelete.
func (m *noteRepoMock) SoftDeleteCalls() []struct {
	ID domain.NoteID
	By *uuid.UUID
} {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.SoftDelete
}

func (m *noteRepoMock) Restore(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	if m.RestoreFunc == nil {
		panic("noteRepoMock.RestoreFunc: method is nil but noteRepo.Restore was just called")
	}
	m.lock.Lock()
	m.calls.Restore = append(m.calls.Restore, struct{ ID domain.NoteID }{id})
	m.lock.Unlock()
	return m.RestoreFunc(ctx, id)
}

func (m *noteRepoMock) ListActive(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	if m.ListActiveFunc == nil {
		panic("noteRepoMock.ListActiveFunc: method is nil but noteRepo.ListActive was just called")
	}
	return m.ListActiveFunc(ctx, projectID)
}

func (m *noteRepoMock) ListDeleted(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	if m.ListDeletedFunc == nil {
		panic("noteRepoMock.ListDeletedFunc: method is nil but noteRepo.ListDeleted was just called")
	}
	return m.ListDeletedFunc(ctx, projectID)
}

func (m *noteRepoMock) HardDeleteOld(ctx context.Context, threshold time.Time) (int64, error) {
	if m.HardDeleteOldFunc == nil {
		panic("noteRepoMock.HardDeleteOldFunc: method is nil but noteRepo.HardDeleteOld was just called")
	}
	m.lock.Lock()
	m.calls.HardDeleteOld = append(m.calls.HardDeleteOld, struct{ Threshold time.Time }{threshold})
	m.lock.Unlock()
	return m.HardDeleteOldFunc(ctx, threshold)
}

// HardDeleteOldCalls gets all the calls that were made to HardDeleteOld.
func (m *noteRepoMock) HardDeleteOldCalls() []struct{ Threshold time.Time } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.HardDeleteOld
}

// auditLoggerMock is a mock implementation of auditLogger.
type auditLoggerMock struct {
	LogFunc func(ctx context.Context, record domain.AuditRecord) error

	calls struct {
		Log []struct {
			Record domain.AuditRecord
		}
	}
	lock sync.RWMutex
}

func (m *auditLoggerMock) Log(ctx context.Context, record domain.AuditRecord) error {
	if m.LogFunc == nil {
		panic("auditLoggerMock.LogFunc: method is nil but auditLogger.Log was just called")
	}
	m.lock.Lock()
	m.calls.Log = append(m.calls.Log, struct{ Record domain.AuditRecord }{record})
	m.lock.Unlock()
	return m.LogFunc(ctx, record)
}

// LogCalls gets all the calls that were made to Log.
func (m *auditLoggerMock) LogCalls() []struct{ Record domain.AuditRecord } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Log
}

// txManagerMock is a mock implementation of txManager.
type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc == nil {
		panic("txManagerMock.RunInTxFunc: method is nil but txManager.RunInTx was just called")
	}
	return m.RunInTxFunc(ctx, fn)
}
