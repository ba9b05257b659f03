package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

var project = uuid.MustParse("2b0c1e4f-7d6a-4f3b-8c2d-9e8f7a6b5c4d")

func newNote(id domain.NoteID, title string) *domain.Note {
	return &domain.Note{
		ID:        id,
		ProjectID: project,
		Category:  domain.CategoryIdea,
		Title:     title,
	}
}

// recorder collects feed events.
type recorder struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	status []domain.ConnectionStatus
}

func (r *recorder) handlers() domain.FeedHandlers {
	add := func(op domain.ChangeOp) func(domain.NoteRecord) {
		return func(rec domain.NoteRecord) {
			r.mu.Lock()
			r.events = append(r.events, domain.ChangeEvent{Op: op, Record: rec})
			r.mu.Unlock()
		}
	}
	return domain.FeedHandlers{
		OnInsert: add(domain.ChangeInsert),
		OnUpdate: add(domain.ChangeUpdate),
		OnDelete: add(domain.ChangeDelete),
		OnStatusChange: func(s domain.ConnectionStatus) {
			r.mu.Lock()
			r.status = append(r.status, s)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) snapshot() []domain.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChangeEvent(nil), r.events...)
}

func TestBackend_CreateAssignsID(t *testing.T) {
	t.Parallel()

	b := New()
	ctx := context.Background()

	created, err := b.Create(ctx, newNote("", "Weekly sync"))
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID.String())
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	kept, err := b.Create(ctx, newNote("local-01abc", "Offline"))
	require.NoError(t, err)
	assert.Equal(t, domain.NoteID("local-01abc"), kept.ID)

	_, err = b.Create(ctx, newNote("local-01abc", "Again"))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestBackend_SoftDeleteRestoreLifecycle(t *testing.T) {
	t.Parallel()

	b := New()
	ctx := context.Background()
	actor := uuid.New()

	n, err := b.Create(ctx, newNote("n1", "Weekly sync"))
	require.NoError(t, err)

	deleted, err := b.SoftDelete(ctx, n.ID, &actor)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)
	assert.Equal(t, actor, *deleted.DeletedBy)

	_, err = b.SoftDelete(ctx, n.ID, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = b.Update(ctx, n.ID, domain.NotePatch{Content: new(string)})
	require.ErrorIs(t, err, domain.ErrNotFound)

	active, err := b.ListActive(ctx, project)
	require.NoError(t, err)
	assert.Empty(t, active)
	trash, err := b.ListDeleted(ctx, project)
	require.NoError(t, err)
	require.Len(t, trash, 1)

	restored, err := b.Restore(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
	assert.Nil(t, restored.DeletedBy)

	_, err = b.Restore(ctx, n.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := b.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted())
}

func TestBackend_ListActiveNewestFirst(t *testing.T) {
	t.Parallel()

	b := New()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	older := newNote("a", "older")
	older.CreatedAt = base
	newer := newNote("b", "newer")
	newer.CreatedAt = base.Add(time.Hour)
	other := newNote("c", "other project")
	other.ProjectID = uuid.New()
	b.Seed(*older, *newer, *other)

	notes, err := b.ListActive(context.Background(), project)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, domain.NoteID("b"), notes[0].ID)
	assert.Equal(t, domain.NoteID("a"), notes[1].ID)
}

func TestBackend_HardDeleteOld(t *testing.T) {
	t.Parallel()

	b := New()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Now()

	gone := newNote("gone", "gone")
	gone.DeletedAt = &old
	kept := newNote("kept", "kept")
	kept.DeletedAt = &recent
	b.Seed(*gone, *kept, *newNote("live", "live"))

	n, err := b.HardDeleteOld(context.Background(), old.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = b.GetByID(context.Background(), "gone")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, b.All(), 2)
}

func TestFeed_EchoesWritesInOrder(t *testing.T) {
	t.Parallel()

	b := New()
	ctx := context.Background()
	rec := &recorder{}

	unsubscribe, err := b.Feed().Subscribe(ctx, project, rec.handlers())
	require.NoError(t, err)

	foreign := newNote("x", "foreign")
	foreign.ProjectID = uuid.New()
	_, err = b.Create(ctx, foreign)
	require.NoError(t, err)

	_, err = b.Create(ctx, newNote("n1", "Weekly sync"))
	require.NoError(t, err)
	_, err = b.Update(ctx, "n1", domain.NotePatch{Title: ptr("Focus call")})
	require.NoError(t, err)
	_, err = b.SoftDelete(ctx, "n1", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)

	events := rec.snapshot()
	assert.Equal(t, domain.ChangeInsert, events[0].Op)
	assert.Equal(t, domain.ChangeUpdate, events[1].Op)
	assert.Equal(t, "Focus call", events[1].Record.Title)
	assert.Equal(t, domain.ChangeUpdate, events[2].Op)
	assert.NotNil(t, events[2].Record.DeletedAt)

	unsubscribe()
	unsubscribe()

	_, err = b.Create(ctx, newNote("n2", "after unsubscribe"))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 3)

	rec.mu.Lock()
	assert.Equal(t, []domain.ConnectionStatus{domain.StatusConnected, domain.StatusDisconnected}, rec.status)
	rec.mu.Unlock()
}

func TestFeed_RequiresProject(t *testing.T) {
	t.Parallel()

	_, err := New().Feed().Subscribe(context.Background(), uuid.Nil, domain.FeedHandlers{})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuditLog_ByNote(t *testing.T) {
	t.Parallel()

	a := &AuditLog{}
	ctx := context.Background()
	require.NoError(t, a.Log(ctx, domain.AuditRecord{NoteID: "n1", Action: domain.AuditActionCreate}))
	require.NoError(t, a.Log(ctx, domain.AuditRecord{NoteID: "n2", Action: domain.AuditActionCreate}))
	require.NoError(t, a.Log(ctx, domain.AuditRecord{NoteID: "n1", Action: domain.AuditActionUpdate}))

	got := a.ByNote("n1")
	require.Len(t, got, 2)
	assert.Equal(t, domain.AuditActionUpdate, got[0].Action)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
}

func ptr[T any](v T) *T { return &v }
