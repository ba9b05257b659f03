package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
	"github.com/heartmarshall/notesync-backend/internal/service/notesync"
)

// syncSession is the subset of notesync.Session the HTTP surface drives.
type syncSession interface {
	Notes(category domain.Category) []domain.Note
	AddNote(ctx context.Context, input notesync.AddNoteInput) (*domain.Note, error)
	UpdateNote(ctx context.Context, input notesync.UpdateNoteInput) error
	DeleteNote(ctx context.Context, id domain.NoteID) (*notesync.DeleteReceipt, error)
	UndoCommand(ctx context.Context, commandID uuid.UUID) error
	RestoreNote(ctx context.Context, id domain.NoteID) (*domain.Note, error)
	Trash(ctx context.Context) ([]domain.Note, error)
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error
	CanUndo() bool
	CanRedo() bool
	Status() domain.ConnectionStatus
}

// NotesHandler exposes the sync session over JSON.
type NotesHandler struct {
	session syncSession
	log     *slog.Logger
}

// NewNotesHandler creates a NotesHandler.
func NewNotesHandler(session syncSession, log *slog.Logger) *NotesHandler {
	return &NotesHandler{session: session, log: log.With("handler", "notes")}
}

// Register mounts the note and history routes on mux.
func (h *NotesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/notes", h.List)
	mux.HandleFunc("POST /v1/notes", h.Create)
	mux.HandleFunc("PATCH /v1/notes/{id}", h.Update)
	mux.HandleFunc("DELETE /v1/notes/{id}", h.Delete)
	mux.HandleFunc("POST /v1/notes/{id}/restore", h.Restore)
	mux.HandleFunc("GET /v1/trash", h.Trash)
	mux.HandleFunc("GET /v1/history", h.History)
	mux.HandleFunc("POST /v1/history/undo", h.Undo)
	mux.HandleFunc("POST /v1/history/redo", h.Redo)
	mux.HandleFunc("POST /v1/history/commands/{id}/undo", h.UndoCommand)
	mux.HandleFunc("GET /v1/status", h.Status)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// NoteResponse is the JSON shape of a note.
type NoteResponse struct {
	ID         string            `json:"id"`
	ProjectID  string            `json:"projectId"`
	Category   string            `json:"category"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	DeletedAt  *time.Time        `json:"deletedAt,omitempty"`
	DeletedBy  *string           `json:"deletedBy,omitempty"`
}

func toNoteResponse(n domain.Note) NoteResponse {
	resp := NoteResponse{
		ID:         n.ID.String(),
		ProjectID:  n.ProjectID.String(),
		Category:   n.Category.String(),
		Title:      n.Title,
		Content:    n.Content,
		Attributes: n.Attributes,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
		DeletedAt:  n.DeletedAt,
	}
	if n.DeletedBy != nil {
		by := n.DeletedBy.String()
		resp.DeletedBy = &by
	}
	return resp
}

func toNoteResponses(notes []domain.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	return out
}

type createNoteRequest struct {
	Category   string            `json:"category"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Attributes map[string]string `json:"attributes"`
}

type updateNoteRequest struct {
	Title      *string           `json:"title"`
	Content    *string           `json:"content"`
	Attributes map[string]string `json:"attributes"`
}

type deleteResponse struct {
	Undoable  bool   `json:"undoable"`
	CommandID string `json:"commandId"`
}

type historyResponse struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// List returns the active notes of one category, or of every category when
// the category query parameter is omitted.
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := domain.Categories()
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := domain.Category(raw)
		if !c.IsValid() {
			writeServiceError(w, r, h.log, domain.NewValidationError("category", "invalid value"))
			return
		}
		categories = []domain.Category{c}
	}

	var notes []domain.Note
	for _, c := range categories {
		notes = append(notes, h.session.Notes(c)...)
	}
	writeJSON(w, http.StatusOK, toNoteResponses(notes))
}

// Create adds a note.
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.session.AddNote(r.Context(), notesync.AddNoteInput{
		Category:   domain.Category(req.Category),
		Title:      req.Title,
		Content:    req.Content,
		Attributes: req.Attributes,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(*note))
}

// Update applies a partial update.
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.session.UpdateNote(r.Context(), notesync.UpdateNoteInput{
		NoteID:     domain.NoteID(r.PathValue("id")),
		Title:      req.Title,
		Content:    req.Content,
		Attributes: req.Attributes,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete soft-deletes a note. The response carries the command id for the
// inline undo affordance.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.session.DeleteNote(r.Context(), domain.NoteID(r.PathValue("id")))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{
		Undoable:  true,
		CommandID: receipt.CommandID.String(),
	})
}

// Restore re-activates a note from the trash.
func (h *NotesHandler) Restore(w http.ResponseWriter, r *http.Request) {
	note, err := h.session.RestoreNote(r.Context(), domain.NoteID(r.PathValue("id")))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(*note))
}

// Trash lists soft-deleted notes of the project.
func (h *NotesHandler) Trash(w http.ResponseWriter, r *http.Request) {
	notes, err := h.session.Trash(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponses(notes))
}

// History reports whether undo and redo are available.
func (h *NotesHandler) History(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.history())
}

// Undo reverts the most recent command.
func (h *NotesHandler) Undo(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Undo(r.Context()); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.history())
}

// Redo re-applies the most recently undone command.
func (h *NotesHandler) Redo(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Redo(r.Context()); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.history())
}

// UndoCommand reverts a specific command while it is still the undo top.
func (h *NotesHandler) UndoCommand(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.log, domain.NewValidationError("command_id", "invalid uuid"))
		return
	}
	if err := h.session.UndoCommand(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.history())
}

// Status returns the change feed connection status.
func (h *NotesHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: h.session.Status().String()})
}

func (h *NotesHandler) history() historyResponse {
	return historyResponse{CanUndo: h.session.CanUndo(), CanRedo: h.session.CanRedo()}
}
