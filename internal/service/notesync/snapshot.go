package notesync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// StateVersion is the current schema version of the persisted client state.
const StateVersion = 2

// State is the persisted client state of one session: the active notes, the
// command history and, offline, the backend's soft-deleted rows.
type State struct {
	ProjectID uuid.UUID
	SavedAt   time.Time
	Notes     []domain.Note
	Trash     []domain.Note
	Commands  []domain.Command
	Pointer   int
}

// ---------------------------------------------------------------------------
// Wire documents
// ---------------------------------------------------------------------------

type noteDoc struct {
	ID         string            `yaml:"id"`
	ProjectID  string            `yaml:"project_id,omitempty"`
	Category   string            `yaml:"category,omitempty"`
	Title      string            `yaml:"title"`
	Content    string            `yaml:"content,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	CreatedAt  time.Time         `yaml:"created_at"`
	UpdatedAt  time.Time         `yaml:"updated_at"`
	DeletedAt  *time.Time        `yaml:"deleted_at,omitempty"`
}

type commandDoc struct {
	Kind       string    `yaml:"kind"`
	ID         string    `yaml:"id"`
	NoteID     string    `yaml:"note_id"`
	Category   string    `yaml:"category"`
	RecordedAt time.Time `yaml:"recorded_at"`
	Previous   *noteDoc  `yaml:"previous,omitempty"`
	Next       *noteDoc  `yaml:"next,omitempty"`
}

// stateV1 is the original layout: a flat note list and an undo-only history.
type stateV1 struct {
	Version int          `yaml:"version"`
	Project string       `yaml:"project"`
	Notes   []noteDoc    `yaml:"notes"`
	Undo    []commandDoc `yaml:"undo"`
}

type historyDoc struct {
	Pointer  int          `yaml:"pointer"`
	Commands []commandDoc `yaml:"commands"`
}

type stateV2 struct {
	Version   int                  `yaml:"version"`
	ProjectID string               `yaml:"project_id"`
	SavedAt   time.Time            `yaml:"saved_at"`
	Notes     map[string][]noteDoc `yaml:"notes"`
	Trash     []noteDoc            `yaml:"trash,omitempty"`
	History   historyDoc           `yaml:"history"`
}

// migrateV1 converts a version 1 document. Every v1 command was executed,
// so the pointer sits on the last one.
func migrateV1(in stateV1) stateV2 {
	out := stateV2{
		Version:   2,
		ProjectID: in.Project,
		Notes:     make(map[string][]noteDoc),
		History: historyDoc{
			Pointer:  len(in.Undo) - 1,
			Commands: append([]commandDoc(nil), in.Undo...),
		},
	}
	for _, n := range in.Notes {
		out.Notes[n.Category] = append(out.Notes[n.Category], n)
	}
	return out
}

// ---------------------------------------------------------------------------
// Encode / decode
// ---------------------------------------------------------------------------

// EncodeState renders st in the current schema version.
func EncodeState(st State) ([]byte, error) {
	doc := stateV2{
		Version:   StateVersion,
		ProjectID: st.ProjectID.String(),
		SavedAt:   st.SavedAt.UTC(),
		Notes:     make(map[string][]noteDoc),
		History:   historyDoc{Pointer: st.Pointer},
	}
	for _, n := range st.Notes {
		doc.Notes[n.Category.String()] = append(doc.Notes[n.Category.String()], toNoteDoc(n))
	}
	for _, n := range st.Trash {
		doc.Trash = append(doc.Trash, toNoteDoc(n))
	}
	for _, cmd := range st.Commands {
		doc.History.Commands = append(doc.History.Commands, toCommandDoc(cmd))
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses a state document of any known version, migrating older
// versions first.
func DecodeState(data []byte) (State, error) {
	var header struct {
		Version int `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return State{}, fmt.Errorf("decode state header: %w", err)
	}

	var doc stateV2
	switch {
	case header.Version <= 1:
		var v1 stateV1
		if err := yaml.Unmarshal(data, &v1); err != nil {
			return State{}, fmt.Errorf("decode state v1: %w", err)
		}
		doc = migrateV1(v1)
	case header.Version == StateVersion:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return State{}, fmt.Errorf("decode state v%d: %w", header.Version, err)
		}
	default:
		return State{}, fmt.Errorf("state version %d is newer than supported %d", header.Version, StateVersion)
	}

	return fromDoc(doc)
}

func fromDoc(doc stateV2) (State, error) {
	projectID, err := uuid.Parse(doc.ProjectID)
	if err != nil {
		return State{}, domain.NewValidationError("project_id", "invalid uuid")
	}

	st := State{ProjectID: projectID, SavedAt: doc.SavedAt, Pointer: doc.History.Pointer}

	for category, notes := range doc.Notes {
		c := domain.Category(category)
		if !c.IsValid() {
			return State{}, domain.NewValidationError("notes", fmt.Sprintf("unknown category %q", category))
		}
		for _, nd := range notes {
			nd.Category = category
			st.Notes = append(st.Notes, nd.toNote(projectID))
		}
	}

	for _, nd := range doc.Trash {
		n := nd.toNote(projectID)
		if !n.Category.IsValid() {
			return State{}, domain.NewValidationError("trash", fmt.Sprintf("unknown category %q", nd.Category))
		}
		if n.DeletedAt == nil {
			at := doc.SavedAt
			n.DeletedAt = &at
		}
		st.Trash = append(st.Trash, n)
	}

	for i, cd := range doc.History.Commands {
		cmd, err := cd.toCommand(projectID)
		if err != nil {
			return State{}, fmt.Errorf("history[%d]: %w", i, err)
		}
		st.Commands = append(st.Commands, cmd)
	}
	if st.Pointer < -1 || st.Pointer >= len(st.Commands) {
		return State{}, domain.NewValidationError("history.pointer", "out of range")
	}

	return st, nil
}

func toNoteDoc(n domain.Note) noteDoc {
	doc := noteDoc{
		ID:         n.ID.String(),
		Category:   n.Category.String(),
		Title:      n.Title,
		Content:    n.Content,
		Attributes: n.Attributes,
		CreatedAt:  n.CreatedAt.UTC(),
		UpdatedAt:  n.UpdatedAt.UTC(),
	}
	if n.DeletedAt != nil {
		at := n.DeletedAt.UTC()
		doc.DeletedAt = &at
	}
	return doc
}

func (d noteDoc) toNote(projectID uuid.UUID) domain.Note {
	return domain.Note{
		ID:         domain.NoteID(d.ID),
		ProjectID:  projectID,
		Category:   domain.Category(d.Category),
		Title:      d.Title,
		Content:    d.Content,
		Attributes: d.Attributes,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		DeletedAt:  d.DeletedAt,
	}
}

func toCommandDoc(cmd domain.Command) commandDoc {
	h := cmd.Header()
	doc := commandDoc{
		Kind:       cmd.Kind().String(),
		ID:         h.ID.String(),
		NoteID:     h.NoteID.String(),
		Category:   h.Category.String(),
		RecordedAt: h.RecordedAt.UTC(),
	}
	switch c := cmd.(type) {
	case domain.CreateCommand:
		next := toNoteDoc(c.NewState)
		doc.Next = &next
	case domain.UpdateCommand:
		prev, next := toNoteDoc(c.PreviousState), toNoteDoc(c.NewState)
		doc.Previous, doc.Next = &prev, &next
	case domain.DeleteCommand:
		prev := toNoteDoc(c.PreviousState)
		doc.Previous = &prev
	}
	return doc
}

func (d commandDoc) toCommand(projectID uuid.UUID) (domain.Command, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, domain.NewValidationError("id", "invalid uuid")
	}
	if d.NoteID == "" {
		return nil, domain.NewValidationError("note_id", "required")
	}
	header := domain.CommandHeader{
		ID:         id,
		NoteID:     domain.NoteID(d.NoteID),
		Category:   domain.Category(d.Category),
		RecordedAt: d.RecordedAt,
	}
	if !header.Category.IsValid() {
		return nil, domain.NewValidationError("category", fmt.Sprintf("unknown category %q", d.Category))
	}

	snapshot := func(nd *noteDoc, field string) (domain.Note, error) {
		if nd == nil {
			return domain.Note{}, domain.NewValidationError(field, "required")
		}
		n := nd.toNote(projectID)
		n.ID = header.NoteID
		if n.Category == "" {
			n.Category = header.Category
		}
		return n, nil
	}

	switch domain.CommandKind(d.Kind) {
	case domain.CommandCreate:
		next, err := snapshot(d.Next, "next")
		if err != nil {
			return nil, err
		}
		return domain.CreateCommand{CommandHeader: header, NewState: next}, nil
	case domain.CommandUpdate:
		prev, err := snapshot(d.Previous, "previous")
		if err != nil {
			return nil, err
		}
		next, err := snapshot(d.Next, "next")
		if err != nil {
			return nil, err
		}
		return domain.UpdateCommand{CommandHeader: header, PreviousState: prev, NewState: next}, nil
	case domain.CommandDelete:
		prev, err := snapshot(d.Previous, "previous")
		if err != nil {
			return nil, err
		}
		return domain.DeleteCommand{CommandHeader: header, PreviousState: prev}, nil
	default:
		return nil, domain.NewValidationError("kind", fmt.Sprintf("unknown command kind %q", d.Kind))
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

// SaveStateFile writes st to path atomically.
func SaveStateFile(path string, st State) error {
	data, err := EncodeState(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".notesync-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// LoadStateFile reads a state file. A missing file yields an error matching
// os.ErrNotExist.
func LoadStateFile(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	return DecodeState(data)
}

// Tombstones returns the soft-deleted rows an offline backend must hold: the
// saved trash, plus notes the history refers to that are neither active nor
// trashed, so undo and redo still find them. History notes carry the last
// snapshot the history recorded for them.
func (st State) Tombstones() []domain.Note {
	known := make(map[domain.NoteID]struct{}, len(st.Notes)+len(st.Trash))
	for _, n := range st.Notes {
		known[n.ID] = struct{}{}
	}

	latest := make(map[domain.NoteID]domain.Note)
	var order []domain.NoteID
	for _, n := range st.Trash {
		if _, ok := known[n.ID]; ok {
			continue
		}
		known[n.ID] = struct{}{}
		order = append(order, n.ID)
		latest[n.ID] = n
	}

	fromHistory := make(map[domain.NoteID]bool)
	remember := func(n domain.Note) {
		if _, ok := known[n.ID]; ok && !fromHistory[n.ID] {
			return
		}
		if !fromHistory[n.ID] {
			fromHistory[n.ID] = true
			known[n.ID] = struct{}{}
			order = append(order, n.ID)
		}
		latest[n.ID] = n
	}
	for _, cmd := range st.Commands {
		switch c := cmd.(type) {
		case domain.CreateCommand:
			remember(c.NewState)
		case domain.UpdateCommand:
			remember(c.NewState)
		case domain.DeleteCommand:
			remember(c.PreviousState)
		}
	}

	out := make([]domain.Note, 0, len(order))
	for _, id := range order {
		n := latest[id].Clone()
		if n.DeletedAt == nil {
			at := st.SavedAt
			n.DeletedAt = &at
		}
		out = append(out, n)
	}
	return out
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// ExportState captures the current notes and history.
func (s *Session) ExportState() State {
	snap := s.store.Snapshot()
	commands, pointer := s.stack.Commands()

	st := State{
		ProjectID: s.ProjectID(),
		SavedAt:   s.now(),
		Commands:  commands,
		Pointer:   pointer,
	}
	for _, c := range domain.Categories() {
		st.Notes = append(st.Notes, snap.Notes[c]...)
	}
	return st
}

// ImportState replaces the store and history with st. The state must belong
// to the session's project.
func (s *Session) ImportState(st State) error {
	if st.ProjectID != s.ProjectID() {
		return fmt.Errorf("state belongs to project %s: %w", st.ProjectID, domain.ErrConflict)
	}
	if err := s.stack.Load(st.Commands, st.Pointer); err != nil {
		return errors.Join(domain.ErrValidation, err)
	}

	grouped := make(map[domain.Category][]domain.Note)
	for _, n := range st.Notes {
		grouped[n.Category] = append(grouped[n.Category], n)
	}
	for _, c := range domain.Categories() {
		s.store.SetAll(c, grouped[c])
	}
	s.publish()
	return nil
}
