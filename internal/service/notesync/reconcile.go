package notesync

import (
	"log/slog"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// Feed event outcomes, used as the "outcome" metric label.
const (
	outcomeApplied  = "applied"
	outcomeNoop     = "noop"
	outcomeIgnored  = "ignored"
	outcomeRejected = "rejected"
)

// OnInsert merges an insert event. An id already present (the local create's
// echo, or a redelivery) is a no-op.
func (s *Session) OnInsert(rec domain.NoteRecord) {
	note, ok := s.decode(domain.ChangeInsert, rec)
	if !ok {
		return
	}
	if note.IsDeleted() {
		s.countEvent(domain.ChangeInsert, outcomeIgnored)
		return
	}
	if s.store.Insert(note) {
		s.countEvent(domain.ChangeInsert, outcomeApplied)
		return
	}
	s.countEvent(domain.ChangeInsert, outcomeNoop)
}

// OnUpdate merges an update event: a newly set deleted_at removes the note,
// a cleared deleted_at for an absent note restores it, anything else
// replaces the fields in place.
func (s *Session) OnUpdate(rec domain.NoteRecord) {
	note, ok := s.decode(domain.ChangeUpdate, rec)
	if !ok {
		return
	}
	s.countEvent(domain.ChangeUpdate, s.merge(note))
}

// OnDelete merges a hard delete: the note is removed unconditionally.
func (s *Session) OnDelete(rec domain.NoteRecord) {
	if rec.ID == "" {
		s.countEvent(domain.ChangeDelete, outcomeRejected)
		return
	}
	if rec.ProjectID != "" && rec.ProjectID != s.ProjectID().String() {
		s.countEvent(domain.ChangeDelete, outcomeIgnored)
		return
	}
	if _, removed := s.store.Remove(domain.NoteID(rec.ID)); removed {
		s.countEvent(domain.ChangeDelete, outcomeApplied)
		return
	}
	s.countEvent(domain.ChangeDelete, outcomeNoop)
}

// merge applies an authoritative note to the store with the update rules.
func (s *Session) merge(note domain.Note) string {
	held := s.store.Has(note.ID)

	switch {
	case note.IsDeleted() && held:
		s.store.Remove(note.ID)
		return outcomeApplied
	case note.IsDeleted():
		return outcomeNoop
	case !held:
		s.store.Insert(note)
		return outcomeApplied
	}

	if current, ok := s.store.Get(note.ID); ok && current.SameFields(note) && current.UpdatedAt.Equal(note.UpdatedAt) {
		return outcomeNoop
	}
	if !s.store.Replace(note) {
		// Removed between the check and the write; treat as a restore.
		s.store.Insert(note)
	}
	return outcomeApplied
}

func (s *Session) decode(op domain.ChangeOp, rec domain.NoteRecord) (domain.Note, bool) {
	note, err := rec.ToNote()
	if err != nil {
		s.countEvent(op, outcomeRejected)
		s.log.Warn("malformed feed record",
			slog.String("op", op.String()),
			slog.String("note_id", rec.ID),
			slog.String("error", err.Error()),
		)
		return domain.Note{}, false
	}
	if note.ProjectID != s.ProjectID() {
		s.countEvent(op, outcomeIgnored)
		return domain.Note{}, false
	}
	return note, true
}

func (s *Session) countEvent(op domain.ChangeOp, outcome string) {
	feedEventTotal.WithLabelValues(op.String(), outcome).Inc()
}

func (s *Session) feedHandlers() domain.FeedHandlers {
	return domain.FeedHandlers{
		OnInsert:       s.OnInsert,
		OnUpdate:       s.OnUpdate,
		OnDelete:       s.OnDelete,
		OnStatusChange: s.setStatus,
		OnError: func(err error) {
			s.log.Error("change feed error", slog.String("error", err.Error()))
		},
	}
}
