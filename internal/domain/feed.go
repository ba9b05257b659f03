package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NoteRecord is the backend-shaped note payload delivered by the change feed
// (the JSON image of a notes row).
type NoteRecord struct {
	ID         string            `json:"id"`
	ProjectID  string            `json:"project_id"`
	Category   string            `json:"category"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  *time.Time        `json:"deleted_at"`
	DeletedBy  *string           `json:"deleted_by"`
}

// ToNote converts the payload into a Note, rejecting malformed records.
func (r NoteRecord) ToNote() (Note, error) {
	if r.ID == "" {
		return Note{}, NewValidationError("id", "required")
	}
	projectID, err := uuid.Parse(r.ProjectID)
	if err != nil {
		return Note{}, NewValidationError("project_id", "invalid uuid")
	}
	category := Category(r.Category)
	if !category.IsValid() {
		return Note{}, NewValidationError("category", fmt.Sprintf("unknown category %q", r.Category))
	}

	n := Note{
		ID:         NoteID(r.ID),
		ProjectID:  projectID,
		Category:   category,
		Title:      r.Title,
		Content:    r.Content,
		Attributes: r.Attributes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		DeletedAt:  r.DeletedAt,
	}
	if r.DeletedBy != nil {
		if by, err := uuid.Parse(*r.DeletedBy); err == nil {
			n.DeletedBy = &by
		}
	}
	return n.Clone(), nil
}

// RecordFromNote converts a Note into its backend-shaped payload.
func RecordFromNote(n Note) NoteRecord {
	c := n.Clone()
	r := NoteRecord{
		ID:         c.ID.String(),
		ProjectID:  c.ProjectID.String(),
		Category:   c.Category.String(),
		Title:      c.Title,
		Content:    c.Content,
		Attributes: c.Attributes,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		DeletedAt:  c.DeletedAt,
	}
	if c.DeletedBy != nil {
		by := c.DeletedBy.String()
		r.DeletedBy = &by
	}
	return r
}

// ChangeEvent is one change feed message.
type ChangeEvent struct {
	Op     ChangeOp   `json:"op"`
	Record NoteRecord `json:"record"`
}

// FeedHandlers are the callbacks a change feed subscriber registers.
// Nil handlers are skipped.
type FeedHandlers struct {
	OnInsert       func(NoteRecord)
	OnUpdate       func(NoteRecord)
	OnDelete       func(NoteRecord)
	OnStatusChange func(ConnectionStatus)
	OnError        func(error)
}

// Dispatch routes an event to the matching handler.
func (h FeedHandlers) Dispatch(ev ChangeEvent) {
	var fn func(NoteRecord)
	switch ev.Op {
	case ChangeInsert:
		fn = h.OnInsert
	case ChangeUpdate:
		fn = h.OnUpdate
	case ChangeDelete:
		fn = h.OnDelete
	}
	if fn != nil {
		fn(ev.Record)
	}
}

// SetStatus reports a connection status change if a handler is registered.
func (h FeedHandlers) SetStatus(s ConnectionStatus) {
	if h.OnStatusChange != nil {
		h.OnStatusChange(s)
	}
}

// Fail reports a feed error if a handler is registered.
func (h FeedHandlers) Fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}
