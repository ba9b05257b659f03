package notes

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// validateNew checks a note about to be created and collects all errors.
func validateNew(n *domain.Note) error {
	if n == nil {
		return domain.NewValidationError("note", "required")
	}

	var errs []domain.FieldError
	if n.ProjectID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "project_id", Message: "required"})
	}
	if !n.Category.IsValid() {
		errs = append(errs, domain.FieldError{Field: "category", Message: "invalid value"})
	}
	if strings.TrimSpace(n.Title) == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	errs = append(errs, checkFields(&n.Title, &n.Content, n.Attributes)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// validatePatch checks a partial update and collects all errors.
func validatePatch(id domain.NoteID, p domain.NotePatch) error {
	var errs []domain.FieldError
	if id == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if p.IsEmpty() {
		errs = append(errs, domain.FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	errs = append(errs, checkFields(p.Title, p.Content, p.Attributes)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func checkFields(title, content *string, attrs map[string]string) []domain.FieldError {
	var errs []domain.FieldError
	if title != nil && len([]rune(*title)) > domain.MaxTitleLength {
		errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
	}
	if content != nil && len([]rune(*content)) > domain.MaxContentLength {
		errs = append(errs, domain.FieldError{Field: "content", Message: "too long"})
	}
	if len(attrs) > domain.MaxAttributes {
		errs = append(errs, domain.FieldError{Field: "attributes", Message: "too many entries"})
	}
	return errs
}
