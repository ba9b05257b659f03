// Package notesync keeps a client's view of a shared project's notes in sync
// with the backend. Mutations are applied optimistically, confirmed or rolled
// back, reconciled against the change feed, and recorded in a per-session
// undo/redo history.
package notesync

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type notePersistence interface {
	Create(ctx context.Context, note *domain.Note) (*domain.Note, error)
	Update(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error)
	SoftDelete(ctx context.Context, id domain.NoteID) error
	Restore(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	Get(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	List(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error)
	ListDeleted(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error)
}

type changeFeed interface {
	Subscribe(ctx context.Context, projectID uuid.UUID, handlers domain.FeedHandlers) (func(), error)
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Config holds the session settings.
type Config struct {
	ProjectID uuid.UUID
	// Offline keeps client-assigned ids: the backend stores the provisional id as is.
	Offline bool
	// HistoryLimit caps the undo history; 0 means unlimited.
	HistoryLimit int
	// ResyncTimeout bounds the authoritative re-query after a failed undo/redo.
	ResyncTimeout time.Duration
}

// View is what a UI renders: the active notes plus history and feed state.
type View struct {
	Version uint64
	Notes   map[domain.Category][]domain.Note
	CanUndo bool
	CanRedo bool
	Status  domain.ConnectionStatus
}

// Session is the sync and history engine for one project. The store and the
// history are scoped to the session and reset when the project changes.
type Session struct {
	persistence notePersistence
	feed        changeFeed
	log         *slog.Logger

	offline       bool
	resyncTimeout time.Duration
	now           func() time.Time
	newLocalID    func() domain.NoteID

	store *Store
	stack *Stack

	mu          sync.Mutex
	projectID   uuid.UUID
	status      domain.ConnectionStatus
	unsubscribe func()

	views registry[View]
}

// NewSession creates a Session for cfg.ProjectID.
func NewSession(log *slog.Logger, persistence notePersistence, feed changeFeed, cfg Config) *Session {
	if cfg.ResyncTimeout <= 0 {
		cfg.ResyncTimeout = 5 * time.Second
	}

	s := &Session{
		persistence:   persistence,
		feed:          feed,
		log:           log.With("service", "notesync"),
		offline:       cfg.Offline,
		resyncTimeout: cfg.ResyncTimeout,
		now:           time.Now,
		newLocalID:    newLocalID,
		store:         NewStore(),
		stack:         NewStack(cfg.HistoryLimit),
		projectID:     cfg.ProjectID,
		status:        domain.StatusDisconnected,
	}
	s.store.Subscribe(func(StoreSnapshot) { s.publish() })

	return s
}

// ProjectID returns the project the session is bound to.
func (s *Session) ProjectID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

// Notes returns the active notes of a category.
func (s *Session) Notes(category domain.Category) []domain.Note {
	return s.store.GetAll(category)
}

// Note returns an active note by id.
func (s *Session) Note(id domain.NoteID) (domain.Note, bool) {
	return s.store.Get(id)
}

// CanUndo reports whether Undo has a command to revert.
func (s *Session) CanUndo() bool { return s.stack.CanUndo() }

// CanRedo reports whether Redo has a command to re-apply.
func (s *Session) CanRedo() bool { return s.stack.CanRedo() }

// Status returns the change feed connection status.
func (s *Session) Status() domain.ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns the current View.
func (s *Session) Snapshot() View {
	snap := s.store.Snapshot()
	return View{
		Version: snap.Version,
		Notes:   snap.Notes,
		CanUndo: s.stack.CanUndo(),
		CanRedo: s.stack.CanRedo(),
		Status:  s.Status(),
	}
}

// Subscribe registers a listener called with the new View after every
// store, history or connection change. The returned function unsubscribes.
func (s *Session) Subscribe(listener func(View)) func() {
	return s.views.add(listener)
}

func (s *Session) publish() {
	if s.views.empty() {
		return
	}
	s.views.emit(s.Snapshot())
}

func (s *Session) setStatus(status domain.ConnectionStatus) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed {
		s.log.Info("feed status changed", slog.String("status", status.String()))
		s.publish()
	}
}

func newLocalID() domain.NoteID {
	return domain.NoteID(domain.LocalIDPrefix + strings.ToLower(ulid.Make().String()))
}
