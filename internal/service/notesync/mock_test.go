package notesync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

var (
	_ notePersistence = &persistenceMock{}
	_ changeFeed      = &feedMock{}
)

// persistenceMock behaves like an in-memory backend unless a Func field
// overrides the method.
type persistenceMock struct {
	CreateFunc      func(ctx context.Context, note *domain.Note) (*domain.Note, error)
	UpdateFunc      func(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error)
	SoftDeleteFunc  func(ctx context.Context, id domain.NoteID) error
	RestoreFunc     func(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	GetFunc         func(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	ListFunc        func(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error)
	ListDeletedFunc func(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error)

	mu     sync.Mutex
	notes  map[domain.NoteID]domain.Note
	nextID int
	clock  time.Time

	calls struct {
		Create     []*domain.Note
		Update     []domain.NoteID
		SoftDelete []domain.NoteID
		Restore    []domain.NoteID
		Get        []domain.NoteID
	}
}

func newPersistenceMock(notes ...domain.Note) *persistenceMock {
	m := &persistenceMock{
		notes: make(map[domain.NoteID]domain.Note),
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, n := range notes {
		m.notes[n.ID] = n.Clone()
	}
	return m
}

func (m *persistenceMock) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *persistenceMock) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	m.mu.Lock()
	m.calls.Create = append(m.calls.Create, note)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, note)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	created := note.Clone()
	if created.ID == "" {
		m.nextID++
		created.ID = domain.NoteID(fmt.Sprintf("n%d", m.nextID))
	}
	created.CreatedAt = m.tick()
	created.UpdatedAt = created.CreatedAt
	m.notes[created.ID] = created
	out := created.Clone()
	return &out, nil
}

func (m *persistenceMock) Update(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error) {
	m.mu.Lock()
	m.calls.Update = append(m.calls.Update, id)
	m.mu.Unlock()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return m.applyUpdate(id, patch)
}

// applyUpdate is the default Update. Func overrides call it to commit a
// write and still fail the call.
func (m *persistenceMock) applyUpdate(id domain.NoteID, patch domain.NotePatch) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	n = n.Apply(patch)
	n.UpdatedAt = m.tick()
	m.notes[id] = n
	out := n.Clone()
	return &out, nil
}

func (m *persistenceMock) SoftDelete(ctx context.Context, id domain.NoteID) error {
	m.mu.Lock()
	m.calls.SoftDelete = append(m.calls.SoftDelete, id)
	m.mu.Unlock()
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id)
	}
	return m.applySoftDelete(id)
}

func (m *persistenceMock) applySoftDelete(id domain.NoteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.IsDeleted() {
		return domain.ErrNotFound
	}
	at := m.tick()
	n.DeletedAt = &at
	m.notes[id] = n
	return nil
}

func (m *persistenceMock) Restore(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	m.mu.Lock()
	m.calls.Restore = append(m.calls.Restore, id)
	m.mu.Unlock()
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, id)
	}
	return m.applyRestore(id)
}

func (m *persistenceMock) applyRestore(id domain.NoteID) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	n.DeletedAt = nil
	n.DeletedBy = nil
	n.UpdatedAt = m.tick()
	m.notes[id] = n
	out := n.Clone()
	return &out, nil
}

func (m *persistenceMock) Get(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	m.mu.Lock()
	m.calls.Get = append(m.calls.Get, id)
	m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := n.Clone()
	return &out, nil
}

func (m *persistenceMock) List(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, projectID)
	}
	return m.filter(projectID, false), nil
}

func (m *persistenceMock) ListDeleted(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	if m.ListDeletedFunc != nil {
		return m.ListDeletedFunc(ctx, projectID)
	}
	return m.filter(projectID, true), nil
}

func (m *persistenceMock) filter(projectID uuid.UUID, deleted bool) []domain.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Note
	for _, n := range m.notes {
		if n.ProjectID == projectID && n.IsDeleted() == deleted {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (m *persistenceMock) stored(id domain.NoteID) (domain.Note, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	return n.Clone(), ok
}

func (m *persistenceMock) CreateCalls() []*domain.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Create
}

func (m *persistenceMock) GetCalls() []domain.NoteID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Get
}

func (m *persistenceMock) SoftDeleteCalls() []domain.NoteID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.SoftDelete
}

type feedMock struct {
	SubscribeFunc func(ctx context.Context, projectID uuid.UUID, handlers domain.FeedHandlers) (func(), error)

	mu    sync.Mutex
	calls struct {
		Subscribe []uuid.UUID
	}
	unsubscribed int
	handlers     domain.FeedHandlers
}

func (m *feedMock) Subscribe(ctx context.Context, projectID uuid.UUID, handlers domain.FeedHandlers) (func(), error) {
	m.mu.Lock()
	m.calls.Subscribe = append(m.calls.Subscribe, projectID)
	m.handlers = handlers
	m.mu.Unlock()
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, projectID, handlers)
	}
	handlers.SetStatus(domain.StatusConnected)
	return func() {
		m.mu.Lock()
		m.unsubscribed++
		m.mu.Unlock()
	}, nil
}

func (m *feedMock) SubscribeCalls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Subscribe
}
