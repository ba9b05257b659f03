package notesync

import (
	"slices"
	"sync"
	"time"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// StoreSnapshot is an immutable copy of the store contents.
type StoreSnapshot struct {
	Version uint64
	Notes   map[domain.Category][]domain.Note
}

// Store is the in-memory collection of active notes grouped by category.
// Patch and Remove are no-ops for unknown ids so that late or duplicated
// feed events are harmless. No two notes share an id across categories.
type Store struct {
	mu         sync.RWMutex
	byCategory map[domain.Category][]domain.Note
	version    uint64

	listeners registry[StoreSnapshot]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byCategory: make(map[domain.Category][]domain.Note)}
}

// GetAll returns a copy of the notes in a category, newest first.
func (s *Store) GetAll(category domain.Category) []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotes(s.byCategory[category])
}

// Get returns a copy of the note with the given id.
func (s *Store) Get(id domain.NoteID) (domain.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, i := s.locate(id)
	if i < 0 {
		return domain.Note{}, false
	}
	return s.byCategory[c][i].Clone(), true
}

// Has reports whether a note with the given id is in the active view.
func (s *Store) Has(id domain.NoteID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, i := s.locate(id)
	return i >= 0
}

// Len returns the total number of active notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, notes := range s.byCategory {
		n += len(notes)
	}
	return n
}

// SetAll replaces the contents of a category. Soft-deleted notes and
// duplicate ids in the input are dropped.
func (s *Store) SetAll(category domain.Category, notes []domain.Note) {
	s.mutate(func() bool {
		seen := make(map[domain.NoteID]struct{}, len(notes))
		next := make([]domain.Note, 0, len(notes))
		for _, n := range notes {
			if n.IsDeleted() {
				continue
			}
			if _, dup := seen[n.ID]; dup {
				continue
			}
			seen[n.ID] = struct{}{}
			s.removeLocked(n.ID, category)
			n.Category = category
			next = append(next, n.Clone())
		}
		s.byCategory[category] = next
		return true
	})
}

// Insert prepends a note to its category. It returns false and leaves the
// store unchanged if a note with the same id already exists.
func (s *Store) Insert(note domain.Note) bool {
	return s.mutate(func() bool {
		if _, i := s.locate(note.ID); i >= 0 {
			return false
		}
		s.byCategory[note.Category] = slices.Insert(s.byCategory[note.Category], 0, note.Clone())
		return true
	})
}

// Patch applies partial fields to the note with the given id.
func (s *Store) Patch(id domain.NoteID, patch domain.NotePatch) bool {
	return s.mutate(func() bool {
		c, i := s.locate(id)
		if i < 0 {
			return false
		}
		s.byCategory[c][i] = s.byCategory[c][i].Apply(patch)
		return true
	})
}

// Touch sets the updated-at timestamp of a note.
func (s *Store) Touch(id domain.NoteID, at time.Time) bool {
	return s.mutate(func() bool {
		c, i := s.locate(id)
		if i < 0 {
			return false
		}
		s.byCategory[c][i].UpdatedAt = at
		return true
	})
}

// Replace overwrites the full field set of an existing note in place.
// A category change moves the note to the front of its new category.
func (s *Store) Replace(note domain.Note) bool {
	return s.mutate(func() bool {
		c, i := s.locate(note.ID)
		if i < 0 {
			return false
		}
		if c == note.Category {
			s.byCategory[c][i] = note.Clone()
			return true
		}
		s.byCategory[c] = slices.Delete(s.byCategory[c], i, i+1)
		s.byCategory[note.Category] = slices.Insert(s.byCategory[note.Category], 0, note.Clone())
		return true
	})
}

// Remove deletes the note with the given id and returns it.
func (s *Store) Remove(id domain.NoteID) (domain.Note, bool) {
	var removed domain.Note
	ok := s.mutate(func() bool {
		c, i := s.locate(id)
		if i < 0 {
			return false
		}
		removed = s.byCategory[c][i]
		s.byCategory[c] = slices.Delete(s.byCategory[c], i, i+1)
		return true
	})
	return removed, ok
}

// Swap replaces a provisional note with its canonical version. If the
// canonical id is already present (the feed echo won the race) the
// provisional entry is dropped instead, so the note never appears twice.
func (s *Store) Swap(provisional domain.NoteID, canonical domain.Note) {
	s.mutate(func() bool {
		pc, pi := s.locate(provisional)
		if provisional != canonical.ID {
			if _, ci := s.locate(canonical.ID); ci >= 0 {
				if pi >= 0 {
					s.byCategory[pc] = slices.Delete(s.byCategory[pc], pi, pi+1)
				}
				return true
			}
		}
		if pi < 0 {
			s.byCategory[canonical.Category] = slices.Insert(s.byCategory[canonical.Category], 0, canonical.Clone())
			return true
		}
		if pc == canonical.Category {
			s.byCategory[pc][pi] = canonical.Clone()
			return true
		}
		s.byCategory[pc] = slices.Delete(s.byCategory[pc], pi, pi+1)
		s.byCategory[canonical.Category] = slices.Insert(s.byCategory[canonical.Category], 0, canonical.Clone())
		return true
	})
}

// Clear removes every note.
func (s *Store) Clear() {
	s.mutate(func() bool {
		s.byCategory = make(map[domain.Category][]domain.Note)
		return true
	})
}

// Snapshot returns a copy of the whole store.
func (s *Store) Snapshot() StoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers a listener called with a fresh snapshot after every
// change. The returned function unsubscribes.
func (s *Store) Subscribe(listener func(StoreSnapshot)) func() {
	return s.listeners.add(listener)
}

// mutate runs fn under the write lock and notifies listeners if fn reports a change.
func (s *Store) mutate(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	var snap StoreSnapshot
	notify := changed && !s.listeners.empty()
	if changed {
		s.version++
		if notify {
			snap = s.snapshotLocked()
		}
	}
	s.mu.Unlock()

	if notify {
		s.listeners.emit(snap)
	}
	return changed
}

func (s *Store) snapshotLocked() StoreSnapshot {
	notes := make(map[domain.Category][]domain.Note, len(s.byCategory))
	for c, list := range s.byCategory {
		notes[c] = cloneNotes(list)
	}
	return StoreSnapshot{Version: s.version, Notes: notes}
}

// locate finds a note by id across all categories. Caller holds the lock.
func (s *Store) locate(id domain.NoteID) (domain.Category, int) {
	for c, list := range s.byCategory {
		for i := range list {
			if list[i].ID == id {
				return c, i
			}
		}
	}
	return "", -1
}

// removeLocked deletes id from every category except keep.
func (s *Store) removeLocked(id domain.NoteID, keep domain.Category) {
	for c, list := range s.byCategory {
		if c == keep {
			continue
		}
		if i := slices.IndexFunc(list, func(n domain.Note) bool { return n.ID == id }); i >= 0 {
			s.byCategory[c] = slices.Delete(list, i, i+1)
		}
	}
}

func cloneNotes(notes []domain.Note) []domain.Note {
	out := make([]domain.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
