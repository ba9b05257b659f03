package notesync

import (
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// AddNoteInput holds the parameters for creating a note.
type AddNoteInput struct {
	Category   domain.Category
	Title      string
	Content    string
	Attributes map[string]string
}

// Validate checks all fields and collects all errors.
func (i AddNoteInput) Validate() error {
	var errs []domain.FieldError

	if !i.Category.IsValid() {
		errs = append(errs, domain.FieldError{Field: "category", Message: "invalid value"})
	}
	title := strings.TrimSpace(i.Title)
	if title == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	errs = append(errs, checkLimits(&title, &i.Content, i.Attributes)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateNoteInput holds the parameters for a partial note update.
type UpdateNoteInput struct {
	NoteID     domain.NoteID
	Title      *string
	Content    *string
	Attributes map[string]string // nil = don't change; empty map = clear
}

// Validate checks all fields and collects all errors.
func (i UpdateNoteInput) Validate() error {
	var errs []domain.FieldError

	if i.NoteID == "" {
		errs = append(errs, domain.FieldError{Field: "note_id", Message: "required"})
	}
	if i.Title == nil && i.Content == nil && i.Attributes == nil {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}
	if i.Title != nil && strings.TrimSpace(*i.Title) == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	errs = append(errs, checkLimits(i.Title, i.Content, i.Attributes)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// Patch converts the input into a domain patch with trimmed title.
func (i UpdateNoteInput) Patch() domain.NotePatch {
	p := domain.NotePatch{Content: i.Content, Attributes: i.Attributes}
	if i.Title != nil {
		t := strings.TrimSpace(*i.Title)
		p.Title = &t
	}
	return p
}

func checkLimits(title, content *string, attrs map[string]string) []domain.FieldError {
	var errs []domain.FieldError
	if title != nil && utf8.RuneCountInString(*title) > domain.MaxTitleLength {
		errs = append(errs, domain.FieldError{Field: "title", Message: "max 200 characters"})
	}
	if content != nil && utf8.RuneCountInString(*content) > domain.MaxContentLength {
		errs = append(errs, domain.FieldError{Field: "content", Message: "max 20000 characters"})
	}
	if len(attrs) > domain.MaxAttributes {
		errs = append(errs, domain.FieldError{Field: "attributes", Message: "max 32 attributes"})
	}
	for k := range attrs {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, domain.FieldError{Field: "attributes", Message: "empty key"})
			break
		}
	}
	return errs
}
