// Package history keeps the bounded undo/redo log of tree edits.
//
// Entries are data snapshots, never closures: an entry records which nodes
// an edit created, which it deleted, and the before/after state of the nodes
// it modified. Whoever pops an entry computes and applies the inverse.
package history

import (
	"sync"
	"time"

	"github.com/dalemusser/folderforge/internal/domain/models"
)

// DefaultCapacity is the number of entries kept on each stack.
const DefaultCapacity = 50

// ActionType names the edit an entry records.
type ActionType string

const (
	ActionAdd       ActionType = "add"
	ActionDelete    ActionType = "delete"
	ActionUpdate    ActionType = "update"
	ActionMove      ActionType = "move"
	ActionReorder   ActionType = "reorder"
	ActionIndent    ActionType = "indent"
	ActionOutdent   ActionType = "outdent"
	ActionAddRoot   ActionType = "add_root"
	ActionRenumber  ActionType = "renumber"
	ActionImport    ActionType = "import"
	ActionNormalize ActionType = "normalize"
)

// Change is the data an entry carries.
// Before and After hold the same ids in the same order.
type Change struct {
	Created []models.FolderNode `json:"created,omitempty"`
	Deleted []models.FolderNode `json:"deleted,omitempty"`
	Before  []models.FolderNode `json:"before,omitempty"`
	After   []models.FolderNode `json:"after,omitempty"`
}

// Empty reports whether the change touches nothing.
func (c Change) Empty() bool {
	return len(c.Created) == 0 && len(c.Deleted) == 0 && len(c.Before) == 0
}

// Inverse returns the change that undoes c.
func (c Change) Inverse() Change {
	return Change{
		Created: c.Deleted,
		Deleted: c.Created,
		Before:  c.After,
		After:   c.Before,
	}
}

// Action is one log entry.
type Action struct {
	Type      ActionType `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Data      Change     `json:"data"`
}

// Log is a pair of bounded stacks. The zero value is not usable; call New.
// It is safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	capacity int
	undo     []Action
	redo     []Action
}

// New creates a log holding at most capacity entries per stack.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Push records a new action and discards the redo branch.
func (l *Log) Push(a Action) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.undo = pushBounded(l.undo, a, l.capacity)
	l.redo = nil
}

// Undo moves the newest action to the redo stack and returns it.
func (l *Log) Undo() (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.undo) == 0 {
		return Action{}, false
	}
	a := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]
	l.redo = pushBounded(l.redo, a, l.capacity)
	return a, true
}

// Redo moves the newest undone action back to the undo stack and returns it.
func (l *Log) Redo() (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.redo) == 0 {
		return Action{}, false
	}
	a := l.redo[len(l.redo)-1]
	l.redo = l.redo[:len(l.redo)-1]
	l.undo = pushBounded(l.undo, a, l.capacity)
	return a, true
}

// CanUndo reports whether Undo has an entry to return.
func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.undo) > 0
}

// CanRedo reports whether Redo has an entry to return.
func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.redo) > 0
}

// Len returns the sizes of the undo and redo stacks.
func (l *Log) Len() (undo, redo int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.undo), len(l.redo)
}

// Clear empties both stacks.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.undo = nil
	l.redo = nil
}

// Entries returns copies of both stacks, oldest first.
func (l *Log) Entries() (undo, redo []Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Action(nil), l.undo...), append([]Action(nil), l.redo...)
}

// pushBounded appends a, dropping the oldest entries beyond capacity.
func pushBounded(stack []Action, a Action, capacity int) []Action {
	stack = append(stack, a)
	if over := len(stack) - capacity; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}
