package domain

import (
	"time"

	"github.com/google/uuid"
)

// Command is an immutable record of one completed mutation. It is a closed
// union over CreateCommand, UpdateCommand and DeleteCommand; callers switch
// on the concrete type.
type Command interface {
	Kind() CommandKind
	Header() CommandHeader
	isCommand()
}

// CommandHeader carries the fields shared by every command.
type CommandHeader struct {
	ID         uuid.UUID
	NoteID     NoteID
	Category   Category
	RecordedAt time.Time
}

// Header returns the shared command fields.
func (h CommandHeader) Header() CommandHeader { return h }

// CreateCommand records a note creation. NewState is the canonical note.
type CreateCommand struct {
	CommandHeader
	NewState Note
}

// UpdateCommand records a field update with full before/after snapshots.
type UpdateCommand struct {
	CommandHeader
	PreviousState Note
	NewState      Note
}

// DeleteCommand records a soft delete. PreviousState is the active note.
type DeleteCommand struct {
	CommandHeader
	PreviousState Note
}

func (CreateCommand) Kind() CommandKind { return CommandCreate }
func (UpdateCommand) Kind() CommandKind { return CommandUpdate }
func (DeleteCommand) Kind() CommandKind { return CommandDelete }

func (CreateCommand) isCommand() {}
func (UpdateCommand) isCommand() {}
func (DeleteCommand) isCommand() {}

// NewCreateCommand builds a CreateCommand for the canonical note.
func NewCreateCommand(note Note, at time.Time) CreateCommand {
	return CreateCommand{
		CommandHeader: newHeader(note, at),
		NewState:      note.Clone(),
	}
}

// NewUpdateCommand builds an UpdateCommand from full snapshots.
func NewUpdateCommand(prev, next Note, at time.Time) UpdateCommand {
	return UpdateCommand{
		CommandHeader: newHeader(next, at),
		PreviousState: prev.Clone(),
		NewState:      next.Clone(),
	}
}

// NewDeleteCommand builds a DeleteCommand from the pre-delete snapshot.
func NewDeleteCommand(prev Note, at time.Time) DeleteCommand {
	return DeleteCommand{
		CommandHeader: newHeader(prev, at),
		PreviousState: prev.Clone(),
	}
}

func newHeader(n Note, at time.Time) CommandHeader {
	return CommandHeader{
		ID:         uuid.New(),
		NoteID:     n.ID,
		Category:   n.Category,
		RecordedAt: at,
	}
}
