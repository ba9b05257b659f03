package domain

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NoteID is an opaque note identifier. Server-assigned ids are UUIDs;
// provisional ids created before confirmation carry the "local-" prefix.
type NoteID string

// LocalIDPrefix marks ids assigned by a client before the backend confirms them.
const LocalIDPrefix = "local-"

// Field limits shared by client-side and backend validation.
const (
	MaxTitleLength   = 200
	MaxContentLength = 20000
	MaxAttributes    = 32
)

func (id NoteID) String() string { return string(id) }

// IsLocal reports whether the id was assigned client-side.
func (id NoteID) IsLocal() bool { return strings.HasPrefix(string(id), LocalIDPrefix) }

// UUID parses the id as a server UUID.
func (id NoteID) UUID() (uuid.UUID, bool) {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}

// Note is a categorized record attached to a shared project.
type Note struct {
	ID         NoteID
	ProjectID  uuid.UUID
	Category   Category
	Title      string
	Content    string
	Attributes map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
	DeletedBy  *uuid.UUID
}

// IsDeleted returns true if the note has been soft-deleted.
func (n *Note) IsDeleted() bool {
	return n.DeletedAt != nil
}

// Clone returns a deep copy so snapshots never share mutable state with the store.
func (n Note) Clone() Note {
	c := n
	if n.Attributes != nil {
		c.Attributes = maps.Clone(n.Attributes)
	}
	if n.DeletedAt != nil {
		t := *n.DeletedAt
		c.DeletedAt = &t
	}
	if n.DeletedBy != nil {
		u := *n.DeletedBy
		c.DeletedBy = &u
	}
	return c
}

// Apply returns a copy of n with the patch fields applied. Timestamps are untouched.
func (n Note) Apply(p NotePatch) Note {
	c := n.Clone()
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Attributes != nil {
		c.Attributes = maps.Clone(p.Attributes)
	}
	return c
}

// FullPatch returns a patch that sets every mutable field to n's values.
// Applying it restores n's complete field set, not just a diff.
func (n Note) FullPatch() NotePatch {
	title, content := n.Title, n.Content
	attrs := maps.Clone(n.Attributes)
	if attrs == nil {
		attrs = map[string]string{}
	}
	return NotePatch{Title: &title, Content: &content, Attributes: attrs}
}

// SameFields reports whether two notes carry identical domain fields,
// ignoring timestamps and the soft-delete marker.
func (n Note) SameFields(o Note) bool {
	if n.ID != o.ID || n.ProjectID != o.ProjectID || n.Category != o.Category {
		return false
	}
	if n.Title != o.Title || n.Content != o.Content {
		return false
	}
	return maps.Equal(n.Attributes, o.Attributes)
}

// NotePatch is a partial update. nil fields are left unchanged;
// a non-nil Attributes map replaces the whole attribute set.
type NotePatch struct {
	Title      *string
	Content    *string
	Attributes map[string]string
}

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Attributes == nil
}

// Changes returns the audit diff between old and the patched values.
func (p NotePatch) Changes(old Note) map[string]any {
	changes := make(map[string]any)
	if p.Title != nil && *p.Title != old.Title {
		changes["title"] = map[string]any{"old": old.Title, "new": *p.Title}
	}
	if p.Content != nil && *p.Content != old.Content {
		changes["content"] = map[string]any{"old": len(old.Content), "new": len(*p.Content)}
	}
	if p.Attributes != nil && !maps.Equal(p.Attributes, old.Attributes) {
		changes["attributes"] = map[string]any{"old": old.Attributes, "new": p.Attributes}
	}
	return changes
}
