// internal/app/system/editor/commit.go
package editor

import (
	"context"

	"github.com/dalemusser/folderforge/internal/app/system/foldertree"
	"github.com/dalemusser/folderforge/internal/app/system/history"
	"github.com/dalemusser/folderforge/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// commit applies c locally, writes it through the backend, and on failure
// reverts the local copy. On success the change is recorded in the undo log
// when record is set.
func (s *Session) commit(ctx context.Context, op string, action history.ActionType, c history.Change, record bool) (err error) {
	defer func() { s.metrics.ObserveMutation(op, err) }()

	if c.Empty() {
		return nil
	}
	if err := s.checkApplies(op, c); err != nil {
		return err
	}

	updates := changeUpdates(c)
	marks := writtenIDs(c, updates)

	s.store.Apply(forward(c))
	s.store.MarkPending(marks...)

	stored, err := s.write(ctx, c, updates)
	if err != nil {
		s.store.Apply(forward(c.Inverse()))
		// Rows inserted before the failure are deleted again. Their marks
		// stay so the insert echo is dropped; a row that cannot be removed
		// loses its mark and comes back with its echo.
		removed := s.removeInserted(ctx, op, stored)
		s.store.ClearPending(without(marks, removed)...)
		s.metrics.ObserveRollback()
		s.logger.Warn("folder write failed, local change reverted",
			zap.String("op", op), zap.Int("rows", len(marks)), zap.Error(err))
		return &WriteError{Op: op, Err: err}
	}
	if len(stored) > 0 {
		s.store.Apply(foldertree.Batch{Upserts: stored})
	}

	if record {
		s.log.Push(history.Action{Type: action, Timestamp: s.now().UTC(), Data: c})
	}
	s.touch()
	return nil
}

// write sends c to the backend: inserts parents first, then updates, then
// deletes. It returns the inserted rows as the backend stored them, also
// when a later step fails.
func (s *Session) write(ctx context.Context, c history.Change, updates []models.FolderUpdate) ([]models.FolderNode, error) {
	var stored []models.FolderNode
	for _, n := range c.Created {
		got, err := s.backend.InsertFolder(ctx, n)
		if err != nil {
			return stored, err
		}
		if got != nil {
			stored = append(stored, *got)
		} else {
			stored = append(stored, n)
		}
	}

	if len(updates) > 0 {
		if err := s.writeUpdates(ctx, updates); err != nil {
			return stored, err
		}
	}

	if len(c.Deleted) > 0 {
		if err := s.writeDeletes(ctx, nodeIDs(c.Deleted)); err != nil {
			return stored, err
		}
	}
	return stored, nil
}

// removeInserted deletes rows a failed write already inserted, children
// first. It returns the ids that are gone from storage again.
func (s *Session) removeInserted(ctx context.Context, op string, rows []models.FolderNode) []string {
	ctx = context.WithoutCancel(ctx)
	var removed []string
	for i := len(rows) - 1; i >= 0; i-- {
		id := rows[i].ID
		if err := s.backend.DeleteFolder(ctx, id); err != nil {
			s.logger.Warn("could not remove row of failed write",
				zap.String("op", op), zap.String("id", id), zap.Error(err))
			continue
		}
		removed = append(removed, id)
	}
	return removed
}

func (s *Session) writeUpdates(ctx context.Context, updates []models.FolderUpdate) error {
	if bu, ok := s.backend.(BatchUpdater); ok && len(updates) > 1 {
		return bu.UpdateFolders(ctx, updates)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.writeLimit)
	for _, u := range updates {
		u := u
		g.Go(func() error {
			return s.backend.UpdateFolder(gctx, u.ID, u.Patch)
		})
	}
	return g.Wait()
}

func (s *Session) writeDeletes(ctx context.Context, ids []string) error {
	if bd, ok := s.backend.(BatchDeleter); ok && len(ids) > 1 {
		return bd.DeleteFolders(ctx, ids)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.writeLimit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return s.backend.DeleteFolder(gctx, id)
		})
	}
	return g.Wait()
}

// checkApplies verifies that c still fits the current collection and that
// the result is a forest: every parent exists and no node is its own ancestor.
// Only history replays can fail here; fresh edits are validated up front.
func (s *Session) checkApplies(op string, c history.Change) error {
	state := make(map[string]models.FolderNode, s.store.Len()+len(c.Created))
	for _, n := range s.store.Nodes() {
		state[n.ID] = n
	}

	for _, n := range c.Deleted {
		if _, ok := state[n.ID]; !ok {
			return invalid(op, n.ID, ErrStaleHistory)
		}
	}
	for _, n := range c.Before {
		cur, ok := state[n.ID]
		if !ok || !samePlacement(cur, n) {
			return invalid(op, n.ID, ErrStaleHistory)
		}
	}
	for _, n := range c.Created {
		if _, ok := state[n.ID]; ok {
			return invalid(op, n.ID, ErrStaleHistory)
		}
	}

	for _, n := range c.Deleted {
		delete(state, n.ID)
	}
	touched := make([]models.FolderNode, 0, len(c.Created)+len(c.After))
	touched = append(touched, c.Created...)
	touched = append(touched, c.After...)
	for _, n := range touched {
		state[n.ID] = n
	}

	for _, n := range touched {
		seen := map[string]bool{n.ID: true}
		cur := n
		for cur.ParentID != nil {
			pid := *cur.ParentID
			if seen[pid] {
				return invalid(op, n.ID, ErrStaleHistory)
			}
			seen[pid] = true
			p, ok := state[pid]
			if !ok {
				return invalid(op, n.ID, ErrStaleHistory)
			}
			cur = p
		}
	}

	// children of deleted nodes must be deleted with them
	for _, n := range state {
		if n.ParentID == nil {
			continue
		}
		for _, d := range c.Deleted {
			if *n.ParentID == d.ID {
				return invalid(op, n.ID, ErrStaleHistory)
			}
		}
	}
	return nil
}

// samePlacement reports whether cur still has the fields a history entry
// recorded for it.
func samePlacement(cur, recorded models.FolderNode) bool {
	return cur.Name == recorded.Name &&
		models.SameParent(cur.ParentID, recorded.ParentID) &&
		cur.SortOrder == recorded.SortOrder &&
		models.NormalizeFolderType(cur.FolderType) == models.NormalizeFolderType(recorded.FolderType)
}

// forward is the local batch that makes c visible.
func forward(c history.Change) foldertree.Batch {
	b := foldertree.Batch{Deletes: nodeIDs(c.Deleted)}
	b.Upserts = append(b.Upserts, c.Created...)
	b.Upserts = append(b.Upserts, c.After...)
	return b
}

// changeUpdates pairs Before and After into backend patches, skipping
// pairs that do not differ.
func changeUpdates(c history.Change) []models.FolderUpdate {
	var out []models.FolderUpdate
	for i := range c.After {
		if i >= len(c.Before) {
			break
		}
		p := patchBetween(c.Before[i], c.After[i])
		if p.IsEmpty() {
			continue
		}
		out = append(out, models.FolderUpdate{ID: c.After[i].ID, Patch: p})
	}
	return out
}

func writtenIDs(c history.Change, updates []models.FolderUpdate) []string {
	ids := make([]string, 0, len(c.Created)+len(c.Deleted)+len(updates))
	ids = append(ids, nodeIDs(c.Created)...)
	ids = append(ids, nodeIDs(c.Deleted)...)
	for _, u := range updates {
		ids = append(ids, u.ID)
	}
	return ids
}

// without returns ids minus drop.
func without(ids, drop []string) []string {
	if len(drop) == 0 {
		return ids
	}
	skip := make(map[string]bool, len(drop))
	for _, id := range drop {
		skip[id] = true
	}
	out := ids[:0:0]
	for _, id := range ids {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out
}

func nodeIDs(nodes []models.FolderNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
