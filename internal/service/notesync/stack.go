package notesync

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// Stack is a linear, pointer-addressed command history.
// Invariant: -1 <= pointer < len(commands). Commands above the pointer are redoable.
type Stack struct {
	mu       sync.Mutex
	commands []domain.Command
	pointer  int
	limit    int
}

// NewStack creates an empty Stack. A positive limit caps the history length;
// the oldest commands are dropped first.
func NewStack(limit int) *Stack {
	return &Stack{pointer: -1, limit: limit}
}

// Push records a new command, discarding the redo branch.
func (s *Stack) Push(cmd domain.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer < len(s.commands)-1 {
		clear(s.commands[s.pointer+1:])
		s.commands = s.commands[:s.pointer+1]
	}
	s.commands = append(s.commands, cmd)

	if s.limit > 0 && len(s.commands) > s.limit {
		drop := len(s.commands) - s.limit
		clear(s.commands[:drop])
		s.commands = s.commands[drop:]
	}
	s.pointer = len(s.commands) - 1
}

// PeekUndo returns the command that Undo would revert.
func (s *Stack) PeekUndo() (domain.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer < 0 {
		return nil, false
	}
	return s.commands[s.pointer], true
}

// PopUndo returns the command at the pointer and moves the pointer down.
func (s *Stack) PopUndo() (domain.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popUndoLocked()
}

// PopUndoIf pops the undo top only if it is the command with the given id.
func (s *Stack) PopUndoIf(id uuid.UUID) (domain.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer < 0 || s.commands[s.pointer].Header().ID != id {
		return nil, false
	}
	return s.popUndoLocked()
}

func (s *Stack) popUndoLocked() (domain.Command, bool) {
	if s.pointer < 0 {
		return nil, false
	}
	cmd := s.commands[s.pointer]
	s.pointer--
	return cmd, true
}

// PeekRedo returns the command that Redo would re-apply.
func (s *Stack) PeekRedo() (domain.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer >= len(s.commands)-1 {
		return nil, false
	}
	return s.commands[s.pointer+1], true
}

// PopRedo returns the command above the pointer and moves the pointer up.
func (s *Stack) PopRedo() (domain.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer >= len(s.commands)-1 {
		return nil, false
	}
	s.pointer++
	return s.commands[s.pointer], true
}

// CancelUndo reverses a PopUndo of cmd whose inverse failed. It returns
// false if the history changed since the pop and cmd is no longer directly
// above the pointer.
func (s *Stack) CancelUndo(cmd domain.Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.pointer + 1
	if next >= len(s.commands) || s.commands[next].Header().ID != cmd.Header().ID {
		return false
	}
	s.pointer = next
	return true
}

// CancelRedo reverses a PopRedo of cmd whose re-application failed.
func (s *Stack) CancelRedo(cmd domain.Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer < 0 || s.commands[s.pointer].Header().ID != cmd.Header().ID {
		return false
	}
	s.pointer--
	return true
}

// Drop removes the command with the given id wherever it sits, shifting the
// pointer down when the command was in the executed region. It reports
// whether the command was found.
func (s *Stack) Drop(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cmd := range s.commands {
		if cmd.Header().ID != id {
			continue
		}
		s.commands = slices.Delete(s.commands, i, i+1)
		if i <= s.pointer {
			s.pointer--
		}
		return true
	}
	return false
}

// CanUndo reports whether there is a command to revert.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer >= 0
}

// CanRedo reports whether there is a command to re-apply.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer < len(s.commands)-1
}

// Len returns the number of recorded commands, including redoable ones.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commands)
}

// Pointer returns the index of the current undo top, -1 if none.
func (s *Stack) Pointer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer
}

// Clear drops the whole history.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = nil
	s.pointer = -1
}

// Commands returns a copy of the history and the pointer.
func (s *Stack) Commands() ([]domain.Command, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Command, len(s.commands))
	copy(out, s.commands)
	return out, s.pointer
}

// Load replaces the history. It rejects a pointer outside [-1, len).
func (s *Stack) Load(commands []domain.Command, pointer int) error {
	if pointer < -1 || pointer >= len(commands) {
		return fmt.Errorf("history pointer %d out of range for %d commands", pointer, len(commands))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append([]domain.Command(nil), commands...)
	s.pointer = pointer
	return nil
}
