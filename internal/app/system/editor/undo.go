// internal/app/system/editor/undo.go
package editor

import (
	"context"

	"github.com/dalemusser/folderforge/internal/app/system/history"
)

// PushUndoAction records an edit that was written outside the session.
func (s *Session) PushUndoAction(a history.Action) {
	s.log.Push(a)
}

// Undo reverts the newest recorded edit. It reports false when there is
// nothing to undo. If the revert cannot be written the entry stays on the
// undo stack.
func (s *Session) Undo(ctx context.Context) (history.Action, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return history.Action{}, false, ErrClosed
	}

	a, ok := s.log.Undo()
	if !ok {
		return history.Action{}, false, nil
	}
	if err := s.commit(ctx, "undo", a.Type, a.Data.Inverse(), false); err != nil {
		s.log.Redo()
		return a, false, err
	}
	return a, true, nil
}

// Redo reapplies the newest undone edit.
func (s *Session) Redo(ctx context.Context) (history.Action, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return history.Action{}, false, ErrClosed
	}

	a, ok := s.log.Redo()
	if !ok {
		return history.Action{}, false, nil
	}
	if err := s.commit(ctx, "redo", a.Type, a.Data, false); err != nil {
		s.log.Undo()
		return a, false, err
	}
	return a, true, nil
}

// CanUndo reports whether Undo has an entry.
func (s *Session) CanUndo() bool { return s.log.CanUndo() }

// CanRedo reports whether Redo has an entry.
func (s *Session) CanRedo() bool { return s.log.CanRedo() }

// History returns both stacks, oldest first.
func (s *Session) History() (undo, redo []history.Action) { return s.log.Entries() }
