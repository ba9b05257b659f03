// Package notefeed delivers note change events from PostgreSQL LISTEN/NOTIFY.
// A single Listener holds one dedicated connection, reconnects with
// exponential backoff and fans events out to per-project subscribers.
package notefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// DefaultChannel is the channel the notes trigger publishes on.
const DefaultChannel = "note_changes"

type noteLoader interface {
	GetByID(ctx context.Context, id domain.NoteID) (*domain.Note, error)
}

// conn is the subset of *pgx.Conn the listener needs.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Config holds the listener settings.
type Config struct {
	DSN        string
	Channel    string
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// message is the NOTIFY payload written by notify_note_change().
type message struct {
	Op      domain.ChangeOp   `json:"op"`
	Partial bool              `json:"partial"`
	Record  domain.NoteRecord `json:"record"`
}

type subscriber struct {
	projectID uuid.UUID
	handlers  domain.FeedHandlers
}

// Listener is a change feed backed by LISTEN/NOTIFY.
type Listener struct {
	cfg   Config
	notes noteLoader
	log   *slog.Logger
	dial  func(ctx context.Context) (conn, error)

	mu     sync.Mutex
	status domain.ConnectionStatus
	subs   map[int]subscriber
	nextID int
}

// New creates a Listener. Call Run to start it.
func New(log *slog.Logger, notes noteLoader, cfg Config) *Listener {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 30 * time.Second
	}

	l := &Listener{
		cfg:    cfg,
		notes:  notes,
		log:    log.With("component", "notefeed"),
		status: domain.StatusDisconnected,
		subs:   make(map[int]subscriber),
	}
	l.dial = func(ctx context.Context) (conn, error) {
		c, err := pgx.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return l
}

// Subscribe registers handlers for one project's events. The current status
// is reported immediately. The returned function unsubscribes.
func (l *Listener) Subscribe(_ context.Context, projectID uuid.UUID, handlers domain.FeedHandlers) (func(), error) {
	if projectID == uuid.Nil {
		return nil, domain.NewValidationError("project_id", "required")
	}

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = subscriber{projectID: projectID, handlers: handlers}
	status := l.status
	l.mu.Unlock()

	handlers.SetStatus(status)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}, nil
}

// Status returns the connection status of the listener.
func (l *Listener) Status() domain.ConnectionStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Run listens until ctx is cancelled, reconnecting after failures.
func (l *Listener) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.cfg.MinBackoff
	b.MaxInterval = l.cfg.MaxBackoff
	b.MaxElapsedTime = 0

	defer l.setStatus(domain.StatusDisconnected)

	for {
		l.setStatus(domain.StatusConnecting)

		err := l.listen(ctx, b.Reset)
		if ctx.Err() != nil {
			return nil
		}

		l.setStatus(domain.StatusError)
		l.fail(err)

		wait := b.NextBackOff()
		l.log.WarnContext(ctx, "change feed connection lost",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// listen holds one connection until it fails. connected is called once
// LISTEN succeeds.
func (l *Listener) listen(ctx context.Context, connected func()) error {
	c, err := l.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = c.Close(closeCtx)
	}()

	if _, err := c.Exec(ctx, "LISTEN "+pgx.Identifier{l.cfg.Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.cfg.Channel, err)
	}

	connected()
	l.setStatus(domain.StatusConnected)
	l.log.InfoContext(ctx, "change feed connected", slog.String("channel", l.cfg.Channel))

	for {
		n, err := c.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.handle(ctx, n.Payload)
	}
}

func (l *Listener) handle(ctx context.Context, payload string) {
	var msg message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		l.fail(fmt.Errorf("decode notification: %w", err))
		return
	}

	if msg.Partial && msg.Op != domain.ChangeDelete {
		n, err := l.notes.GetByID(ctx, domain.NoteID(msg.Record.ID))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return
		case err != nil:
			l.fail(fmt.Errorf("load note %s: %w", msg.Record.ID, err))
			return
		}
		msg.Record = domain.RecordFromNote(*n)
	}

	ev := domain.ChangeEvent{Op: msg.Op, Record: msg.Record}
	for _, sub := range l.subscribers() {
		if sub.projectID.String() != ev.Record.ProjectID {
			continue
		}
		sub.handlers.Dispatch(ev)
	}
}

func (l *Listener) subscribers() []subscriber {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]subscriber, 0, len(l.subs))
	for _, s := range l.subs {
		out = append(out, s)
	}
	return out
}

func (l *Listener) setStatus(status domain.ConnectionStatus) {
	l.mu.Lock()
	changed := l.status != status
	l.status = status
	l.mu.Unlock()

	if !changed {
		return
	}
	for _, sub := range l.subscribers() {
		sub.handlers.SetStatus(status)
	}
}

func (l *Listener) fail(err error) {
	for _, sub := range l.subscribers() {
		sub.handlers.Fail(err)
	}
}
