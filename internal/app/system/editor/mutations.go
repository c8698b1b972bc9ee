// internal/app/system/editor/mutations.go
package editor

import (
	"context"
	"strings"

	"github.com/dalemusser/folderforge/internal/app/system/history"
	"github.com/dalemusser/folderforge/internal/app/system/naming"
	"github.com/dalemusser/folderforge/internal/domain/models"
)

// DefaultFolderName is the base name of folders added without one.
const DefaultFolderName = "New Folder"

// Position places a node relative to a target node.
type Position string

const (
	PositionChild Position = "child" // last child of target
	PositionAbove Position = "above" // sibling just before target
	PositionBelow Position = "below" // sibling just after target
)

// ParsePosition validates a position name.
func ParsePosition(s string) (Position, bool) {
	switch p := Position(strings.ToLower(strings.TrimSpace(s))); p {
	case PositionChild, PositionAbove, PositionBelow:
		return p, true
	}
	return "", false
}

// AddInput describes a new folder.
type AddInput struct {
	ParentID     *string
	Name         string
	FolderType   models.FolderType
	SortOrder    *int // nil appends after the last sibling
	IncludeFiles []string
	Metadata     map[string]any
}

// Add creates a folder under in.ParentID (nil = root). An empty name is
// replaced by the next generated DefaultFolderName among the new siblings.
func (s *Session) Add(ctx context.Context, in AddInput) (models.FolderNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return models.FolderNode{}, ErrClosed
	}
	if err := s.checkParent("add", in.ParentID); err != nil {
		return models.FolderNode{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = naming.GenerateNextFolderName(DefaultFolderName, s.store.Children(in.ParentID), s.parentHierarchy(in.ParentID))
	}
	return s.addLocked(ctx, in, name)
}

// AddAuto creates a folder whose name follows the numbering convention of
// its new siblings. An empty baseName uses DefaultFolderName.
func (s *Session) AddAuto(ctx context.Context, parentID *string, baseName string, folderType models.FolderType) (models.FolderNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return models.FolderNode{}, ErrClosed
	}

	baseName = strings.TrimSpace(baseName)
	if baseName == "" {
		baseName = DefaultFolderName
	}
	if err := s.checkParent("add", parentID); err != nil {
		return models.FolderNode{}, err
	}
	siblings := s.store.Children(parentID)
	name := naming.GenerateNextFolderName(baseName, siblings, s.parentHierarchy(parentID))
	return s.addLocked(ctx, AddInput{ParentID: parentID, Name: name, FolderType: folderType}, name)
}

// NextName previews the name AddAuto would give a new child of parent.
func (s *Session) NextName(parent *string, baseName string) (string, error) {
	if err := s.checkParent("next_name", parent); err != nil {
		return "", err
	}
	baseName = strings.TrimSpace(baseName)
	if baseName == "" {
		baseName = DefaultFolderName
	}
	return naming.GenerateNextFolderName(baseName, s.store.Children(parent), s.parentHierarchy(parent)), nil
}

func (s *Session) addLocked(ctx context.Context, in AddInput, name string) (models.FolderNode, error) {
	if err := s.checkParent("add", in.ParentID); err != nil {
		return models.FolderNode{}, err
	}
	siblings := s.store.Children(in.ParentID)

	now := s.now().UTC()
	n := models.FolderNode{
		ID:           s.newID(),
		TemplateID:   s.templateID,
		Name:         name,
		FolderType:   models.NormalizeFolderType(in.FolderType),
		SortOrder:    nextSortOrder(siblings),
		IncludeFiles: in.IncludeFiles,
		Metadata:     in.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.ParentID != nil {
		n.ParentID = models.StringPtr(*in.ParentID)
	}

	var change history.Change
	if in.SortOrder != nil {
		if *in.SortOrder < 0 {
			return models.FolderNode{}, invalid("add", "", ErrInvalidPosition)
		}
		n.SortOrder = *in.SortOrder
		// make room when the requested slot is taken
		if sortTaken(siblings, n.SortOrder) {
			for _, sib := range siblings {
				if sib.SortOrder >= n.SortOrder {
					after := sib.Clone()
					after.SortOrder++
					change.Before = append(change.Before, sib)
					change.After = append(change.After, after)
				}
			}
		}
	}
	change.Created = []models.FolderNode{n}

	if err := s.commit(ctx, "add", history.ActionAdd, change, true); err != nil {
		return models.FolderNode{}, err
	}
	got, _ := s.store.Get(n.ID)
	return got, nil
}

// Update applies patch to one folder. Parent and sort order changes go
// through Move and MoveAndReorder instead and are rejected here.
func (s *Session) Update(ctx context.Context, id string, patch models.FolderPatch) (models.FolderNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return models.FolderNode{}, ErrClosed
	}

	before, ok := s.store.Get(id)
	if !ok {
		return models.FolderNode{}, invalid("update", id, ErrNodeNotFound)
	}
	if patch.ParentSet || patch.SortOrder != nil {
		return models.FolderNode{}, invalid("update", id, ErrInvalidPosition)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.FolderNode{}, invalid("update", id, ErrEmptyName)
		}
		patch.Name = &name
	}
	if patch.FolderType != nil {
		ft := models.NormalizeFolderType(*patch.FolderType)
		patch.FolderType = &ft
	}

	after := applyPatch(before, patch)
	if patchBetween(before, after).IsEmpty() {
		return before, nil
	}
	after.UpdatedAt = s.now().UTC()

	change := history.Change{Before: []models.FolderNode{before}, After: []models.FolderNode{after}}
	if err := s.commit(ctx, "update", history.ActionUpdate, change, true); err != nil {
		return models.FolderNode{}, err
	}
	got, _ := s.store.Get(id)
	return got, nil
}

// Delete removes a folder and everything below it. It returns the ids
// removed, the folder itself first.
func (s *Session) Delete(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return nil, ErrClosed
	}

	n, ok := s.store.Get(id)
	if !ok {
		return nil, invalid("delete", id, ErrNodeNotFound)
	}
	deleted := []models.FolderNode{n}
	for _, did := range s.store.Descendants(id) {
		if d, ok := s.store.Get(did); ok {
			deleted = append(deleted, d)
		}
	}

	change := history.Change{Deleted: deleted}
	if err := s.commit(ctx, "delete", history.ActionDelete, change, true); err != nil {
		return nil, err
	}
	return nodeIDs(deleted), nil
}

// CanMove reports whether id may be moved under newParent (nil = root).
func (s *Session) CanMove(id string, newParent *string) bool {
	if _, ok := s.store.Get(id); !ok {
		return false
	}
	if newParent == nil {
		return true
	}
	if _, ok := s.store.Get(*newParent); !ok {
		return false
	}
	return !s.store.IsSelfOrDescendant(id, *newParent)
}

// Move reparents a folder, appending it after the new siblings.
// Moving a folder into itself or its own subtree, or to the parent it
// already has, does nothing and reports false.
func (s *Session) Move(ctx context.Context, id string, newParent *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return false, ErrClosed
	}

	n, ok := s.store.Get(id)
	if !ok {
		return false, invalid("move", id, ErrNodeNotFound)
	}
	if err := s.checkParent("move", newParent); err != nil {
		return false, err
	}
	if newParent != nil && s.store.IsSelfOrDescendant(id, *newParent) {
		return false, nil
	}
	if models.SameParent(n.ParentID, newParent) {
		return false, nil
	}

	change := s.placeInGroup(newParent, n, len(s.store.Children(newParent)))
	if err := s.commit(ctx, "move", history.ActionMove, change, true); err != nil {
		return false, err
	}
	return true, nil
}

// MoveAndReorder places a folder relative to target: as its last child, or
// as the sibling directly above or below it. The destination sibling group
// is renumbered 0..n-1; only rows whose position changes are written.
// Placing a folder relative to itself or into its own subtree reports false.
func (s *Session) MoveAndReorder(ctx context.Context, id, targetID string, pos Position) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return false, ErrClosed
	}

	n, ok := s.store.Get(id)
	if !ok {
		return false, invalid("reorder", id, ErrNodeNotFound)
	}
	target, ok := s.store.Get(targetID)
	if !ok {
		return false, invalid("reorder", targetID, ErrNodeNotFound)
	}
	if s.store.IsSelfOrDescendant(id, targetID) {
		return false, nil
	}

	var (
		parent *string
		index  int
	)
	switch pos {
	case PositionChild:
		parent = models.StringPtr(target.ID)
		index = len(withoutID(s.store.Children(parent), id))
	case PositionAbove, PositionBelow:
		parent = target.ParentID
		index = indexOf(withoutID(s.store.Children(parent), id), target.ID)
		if pos == PositionBelow {
			index++
		}
	default:
		return false, invalid("reorder", id, ErrInvalidPosition)
	}

	change := s.placeInGroup(parent, n, index)
	if change.Empty() {
		return false, nil
	}
	action := history.ActionReorder
	if !models.SameParent(n.ParentID, parent) {
		action = history.ActionMove
	}
	if err := s.commit(ctx, "reorder", action, change, true); err != nil {
		return false, err
	}
	return true, nil
}

// CanIndent reports whether id has a preceding sibling to move under.
func (s *Session) CanIndent(id string) bool {
	_, ok := s.prevSibling(id)
	return ok
}

// Indent makes a folder the last child of its preceding sibling. It
// reports false, without error, when the folder is the first of its group.
func (s *Session) Indent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return false, ErrClosed
	}

	n, ok := s.store.Get(id)
	if !ok {
		return false, invalid("indent", id, ErrNodeNotFound)
	}
	prev, ok := s.prevSibling(id)
	if !ok {
		return false, nil
	}

	parent := models.StringPtr(prev.ID)
	change := s.placeInGroup(parent, n, len(s.store.Children(parent)))
	if change.Empty() {
		return false, nil
	}
	if err := s.commit(ctx, "indent", history.ActionIndent, change, true); err != nil {
		return false, err
	}
	return true, nil
}

// CanOutdent reports whether id has a parent to move out of.
func (s *Session) CanOutdent(id string) bool {
	n, ok := s.store.Get(id)
	if !ok || n.ParentID == nil {
		return false
	}
	_, ok = s.store.Get(*n.ParentID)
	return ok
}

// Outdent moves a folder up one level, directly below its former parent.
// It reports false, without error, for a root folder.
func (s *Session) Outdent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return false, ErrClosed
	}

	n, ok := s.store.Get(id)
	if !ok {
		return false, invalid("outdent", id, ErrNodeNotFound)
	}
	if n.ParentID == nil {
		return false, nil
	}
	parent, ok := s.store.Get(*n.ParentID)
	if !ok {
		return false, invalid("outdent", id, ErrParentNotFound)
	}

	group := withoutID(s.store.Children(parent.ParentID), id)
	change := s.placeInGroup(parent.ParentID, n, indexOf(group, parent.ID)+1)
	if change.Empty() {
		return false, nil
	}
	if err := s.commit(ctx, "outdent", history.ActionOutdent, change, true); err != nil {
		return false, err
	}
	return true, nil
}

// AddRootWrappingExisting creates a root folder. With wrap set, every
// existing root becomes a child of the new one, keeping its order.
// An empty name follows the numbering convention of the current roots.
func (s *Session) AddRootWrappingExisting(ctx context.Context, name string, wrap bool) (models.FolderNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return models.FolderNode{}, ErrClosed
	}

	roots := s.store.Children(nil)
	name = strings.TrimSpace(name)
	if name == "" {
		name = naming.GenerateNextFolderName(DefaultFolderName, roots, "")
	}

	now := s.now().UTC()
	root := models.FolderNode{
		ID:         s.newID(),
		TemplateID: s.templateID,
		Name:       name,
		FolderType: models.FolderTypeDefault,
		SortOrder:  nextSortOrder(roots),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	change := history.Change{}
	if wrap {
		root.SortOrder = 0
		for i, r := range roots {
			after := r.Clone()
			after.ParentID = models.StringPtr(root.ID)
			after.SortOrder = i
			change.Before = append(change.Before, r)
			change.After = append(change.After, after)
		}
	}
	change.Created = []models.FolderNode{root}

	if err := s.commit(ctx, "add_root", history.ActionAddRoot, change, true); err != nil {
		return models.FolderNode{}, err
	}
	got, _ := s.store.Get(root.ID)
	return got, nil
}

// Normalize renumbers the children of parent (nil = roots) to 0..n-1.
func (s *Session) Normalize(ctx context.Context, parent *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return ErrClosed
	}
	if err := s.checkParent("normalize", parent); err != nil {
		return err
	}

	var change history.Change
	for i, n := range s.store.Children(parent) {
		if n.SortOrder == i {
			continue
		}
		after := n.Clone()
		after.SortOrder = i
		change.Before = append(change.Before, n)
		change.After = append(change.After, after)
	}
	return s.commit(ctx, "normalize", history.ActionNormalize, change, true)
}

// Renumber rewrites every prefix from tree position. It returns the renames
// applied.
func (s *Session) Renumber(ctx context.Context, opts naming.RenumberOptions) ([]naming.Rename, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return nil, ErrClosed
	}

	renames := naming.RenumberFoldersByPosition(s.store.Nodes(), opts)
	if err := s.commit(ctx, "renumber", history.ActionRenumber, s.renameChange(renames), true); err != nil {
		return nil, err
	}
	return renames, nil
}

// ApplyPattern renames every folder with pattern. With strip set the
// existing prefix and suffix are removed from each name first.
func (s *Session) ApplyPattern(ctx context.Context, pattern naming.NamingPattern, strip bool) ([]naming.Rename, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return nil, ErrClosed
	}

	renames := PreviewPattern(s.store.Nodes(), pattern, strip)
	if err := s.commit(ctx, "apply_pattern", history.ActionRenumber, s.renameChange(renames), true); err != nil {
		return nil, err
	}
	return renames, nil
}

// PreviewPattern computes the renames ApplyPattern would make, omitting
// names that would not change.
func PreviewPattern(nodes []models.FolderNode, pattern naming.NamingPattern, strip bool) []naming.Rename {
	base := nodes
	if strip {
		base = make([]models.FolderNode, len(nodes))
		for i, n := range nodes {
			base[i] = n
			base[i].Name = naming.StripPrefixSuffix(n.Name, naming.StripAll)
		}
	}
	var out []naming.Rename
	for i, r := range naming.PreviewHierarchyPattern(base, pattern) {
		r.OldName = nodes[i].Name
		if r.NewName != r.OldName && strings.TrimSpace(r.NewName) != "" {
			out = append(out, r)
		}
	}
	return out
}

// Import adds scanned folders under parent (nil = roots), appended after the
// existing children. It returns the created nodes, parents first.
func (s *Session) Import(ctx context.Context, parent *string, folders []models.ScannedFolder) ([]models.FolderNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed() {
		return nil, ErrClosed
	}
	if err := s.checkParent("import", parent); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var created []models.FolderNode
	var add func(parent *string, start int, group []models.ScannedFolder) error
	add = func(parent *string, start int, group []models.ScannedFolder) error {
		for i, f := range group {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				return invalid("import", f.Path, ErrEmptyName)
			}
			n := models.FolderNode{
				ID:           s.newID(),
				TemplateID:   s.templateID,
				Name:         name,
				FolderType:   models.FolderTypeDefault,
				SortOrder:    start + i,
				IncludeFiles: f.Files,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if parent != nil {
				n.ParentID = models.StringPtr(*parent)
			}
			created = append(created, n)
			if err := add(models.StringPtr(n.ID), 0, f.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(parent, nextSortOrder(s.store.Children(parent)), folders); err != nil {
		return nil, err
	}

	change := history.Change{Created: created}
	if err := s.commit(ctx, "import", history.ActionImport, change, true); err != nil {
		return nil, err
	}
	return created, nil
}

/* -------------------------------- helpers --------------------------------- */

func (s *Session) checkParent(op string, parent *string) error {
	if parent == nil {
		return nil
	}
	if _, ok := s.store.Get(*parent); !ok {
		return invalid(op, *parent, ErrParentNotFound)
	}
	return nil
}

// parentHierarchy is the dotted index a child of parent should extend:
// the parent's own hierarchy prefix when it has one, otherwise its position.
func (s *Session) parentHierarchy(parent *string) string {
	if parent == nil {
		return ""
	}
	p, ok := s.store.Get(*parent)
	if !ok {
		return ""
	}
	if parsed := naming.ParseFolderName(p.Name); parsed.PrefixType == naming.PrefixHierarchy {
		return parsed.PrefixHierarchy
	}
	return naming.BuildHierarchyIndex(p.ID, s.store.Nodes(), 2)
}

func (s *Session) prevSibling(id string) (models.FolderNode, bool) {
	n, ok := s.store.Get(id)
	if !ok {
		return models.FolderNode{}, false
	}
	siblings := s.store.Children(n.ParentID)
	i := indexOf(siblings, id)
	if i <= 0 {
		return models.FolderNode{}, false
	}
	return siblings[i-1], true
}

// placeInGroup puts moved at index among the children of parent and
// renumbers that group 0..n-1. Only nodes that change are included.
func (s *Session) placeInGroup(parent *string, moved models.FolderNode, index int) history.Change {
	group := withoutID(s.store.Children(parent), moved.ID)
	if index < 0 {
		index = 0
	}
	if index > len(group) {
		index = len(group)
	}

	ordered := make([]models.FolderNode, 0, len(group)+1)
	ordered = append(ordered, group[:index]...)
	ordered = append(ordered, moved)
	ordered = append(ordered, group[index:]...)

	var change history.Change
	now := s.now().UTC()
	for i, n := range ordered {
		after := n.Clone()
		after.SortOrder = i
		if n.ID == moved.ID {
			after.ParentID = nil
			if parent != nil {
				after.ParentID = models.StringPtr(*parent)
			}
		}
		if after.SortOrder == n.SortOrder && models.SameParent(after.ParentID, n.ParentID) {
			continue
		}
		after.UpdatedAt = now
		change.Before = append(change.Before, n)
		change.After = append(change.After, after)
	}
	return change
}

func (s *Session) renameChange(renames []naming.Rename) history.Change {
	var change history.Change
	now := s.now().UTC()
	for _, r := range renames {
		n, ok := s.store.Get(r.ID)
		if !ok || n.Name == r.NewName {
			continue
		}
		after := n.Clone()
		after.Name = r.NewName
		after.UpdatedAt = now
		change.Before = append(change.Before, n)
		change.After = append(change.After, after)
	}
	return change
}

func nextSortOrder(siblings []models.FolderNode) int {
	next := 0
	for _, n := range siblings {
		if n.SortOrder >= next {
			next = n.SortOrder + 1
		}
	}
	return next
}

func sortTaken(siblings []models.FolderNode, sort int) bool {
	for _, n := range siblings {
		if n.SortOrder == sort {
			return true
		}
	}
	return false
}

func withoutID(nodes []models.FolderNode, id string) []models.FolderNode {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}

func indexOf(nodes []models.FolderNode, id string) int {
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
