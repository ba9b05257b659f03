package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// Feed delivers the backend's writes to subscribers. Each subscription has
// its own goroutine and unbounded queue, so events arrive in write order
// without ever blocking the writer.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscription
}

func newFeed() *Feed {
	return &Feed{subs: make(map[int]*subscription)}
}

type subscription struct {
	projectID uuid.UUID
	handlers  domain.FeedHandlers

	mu     sync.Mutex
	queue  []domain.ChangeEvent
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// Subscribe registers handlers for one project's events. The in-process
// feed is always connected; the status is reported immediately.
func (f *Feed) Subscribe(ctx context.Context, projectID uuid.UUID, handlers domain.FeedHandlers) (func(), error) {
	if projectID == uuid.Nil {
		return nil, domain.NewValidationError("project_id", "required")
	}

	sub := &subscription{
		projectID: projectID,
		handlers:  handlers,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = sub
	f.mu.Unlock()

	handlers.SetStatus(domain.StatusConnected)
	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			sub.close()
			handlers.SetStatus(domain.StatusDisconnected)
		})
	}, nil
}

func (f *Feed) publish(op domain.ChangeOp, n domain.Note) {
	ev := domain.ChangeEvent{Op: op, Record: domain.RecordFromNote(n)}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.projectID == n.ProjectID {
			sub.enqueue(ev)
		}
	}
}

func (s *subscription) enqueue(ev domain.ChangeEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if s.closed || len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			s.handlers.Dispatch(ev)
		}
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}
