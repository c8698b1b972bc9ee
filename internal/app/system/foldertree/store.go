// Package foldertree holds the in-memory folder collection for one template
// and derives the ordered tree view from it.
//
// The flat collection is authoritative. The tree is rebuilt lazily and
// memoized on a version counter that every change bumps. Local writes mark
// node ids "pending" so that the realtime echo of a write this process just
// made is not applied a second time.
package foldertree

import (
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/folderforge/internal/domain/models"
)

// DefaultPendingTTL bounds how long a pending mark waits for its echo.
const DefaultPendingTTL = 5 * time.Second

// TreeNode is a folder with its ordered children.
type TreeNode struct {
	models.FolderNode
	Children []*TreeNode `json:"children"`
}

// Options configures a Store.
type Options struct {
	PendingTTL time.Duration
	Clock      func() time.Time
}

// Store is the folder collection of one template.
// It is safe for concurrent use.
type Store struct {
	templateID string
	pendingTTL time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	nodes   map[string]models.FolderNode
	pending map[string]time.Time // id -> expiry
	version uint64

	tree        []*TreeNode
	treeVersion uint64
	treeValid   bool
}

// New creates an empty store for templateID.
func New(templateID string, opts Options) *Store {
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPendingTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		templateID: templateID,
		pendingTTL: opts.PendingTTL,
		now:        opts.Clock,
		nodes:      make(map[string]models.FolderNode),
		pending:    make(map[string]time.Time),
	}
}

// TemplateID returns the template this store holds.
func (s *Store) TemplateID() string {
	return s.templateID
}

// Version increases every time the collection changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Replace swaps in a freshly fetched collection.
//
// Nodes with a live pending mark keep their local state: a pending node that
// exists locally wins over the fetched copy, and a pending node that was
// deleted locally stays deleted. This keeps a resync from reverting a write
// that has not round-tripped yet.
func (s *Store) Replace(nodes []models.FolderNode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next := make(map[string]models.FolderNode, len(nodes))
	for _, n := range nodes {
		if n.TemplateID != "" && n.TemplateID != s.templateID {
			continue
		}
		if s.livePendingLocked(n.ID, now) {
			continue
		}
		next[n.ID] = n.Clone()
	}
	for id := range s.pending {
		if !s.livePendingLocked(id, now) {
			continue
		}
		if local, ok := s.nodes[id]; ok {
			next[id] = local
		}
	}

	s.nodes = next
	s.bumpLocked()
}

// ApplyRemoteChange merges a change-feed event into the collection.
//
// If the node id carries a live pending mark the event is taken to be the
// echo of a local write: the mark is cleared and the event is dropped.
// It reports whether the collection changed.
func (s *Store) ApplyRemoteChange(ev models.FolderChange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := ev.Record
	if rec.ID == "" {
		return false
	}
	if rec.TemplateID != "" && rec.TemplateID != s.templateID {
		return false
	}

	if _, ok := s.pending[rec.ID]; ok {
		live := s.livePendingLocked(rec.ID, s.now())
		delete(s.pending, rec.ID)
		if live {
			return false
		}
	}

	switch ev.EventType {
	case models.ChangeInsert, models.ChangeUpdate:
		if rec.TemplateID == "" {
			// updates without a template id can only refer to a node we hold
			if _, ok := s.nodes[rec.ID]; !ok {
				return false
			}
			rec.TemplateID = s.templateID
		}
		s.nodes[rec.ID] = rec.Clone()
	case models.ChangeDelete:
		if _, ok := s.nodes[rec.ID]; !ok {
			return false
		}
		delete(s.nodes, rec.ID)
	default:
		return false
	}
	s.bumpLocked()
	return true
}

// Batch is a set of changes applied as one snapshot.
type Batch struct {
	Upserts []models.FolderNode
	Deletes []string
}

// Empty reports whether the batch changes nothing.
func (b Batch) Empty() bool {
	return len(b.Upserts) == 0 && len(b.Deletes) == 0
}

// Apply makes every change in b visible at once.
func (s *Store) Apply(b Batch) {
	if b.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range b.Deletes {
		delete(s.nodes, id)
	}
	for _, n := range b.Upserts {
		if n.TemplateID == "" {
			n.TemplateID = s.templateID
		}
		s.nodes[n.ID] = n.Clone()
	}
	s.bumpLocked()
}

func (s *Store) bumpLocked() {
	s.version++
}

/* ------------------------------ pending marks ----------------------------- */

// MarkPending flags ids as written locally.
func (s *Store) MarkPending(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := s.now().Add(s.pendingTTL)
	for _, id := range ids {
		s.pending[id] = exp
	}
}

// ClearPending drops the marks for ids.
func (s *Store) ClearPending(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.pending, id)
	}
}

// IsPending reports whether id carries a live pending mark.
func (s *Store) IsPending(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.livePendingLocked(id, s.now())
}

// PendingCount returns the number of marks, live or expired.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// SweepPending removes expired marks and returns how many were removed.
func (s *Store) SweepPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, exp := range s.pending {
		if !now.Before(exp) {
			delete(s.pending, id)
			removed++
		}
	}
	return removed
}

func (s *Store) livePendingLocked(id string, now time.Time) bool {
	exp, ok := s.pending[id]
	return ok && now.Before(exp)
}

/* --------------------------------- reads ---------------------------------- */

// Get returns a copy of the node with id.
func (s *Store) Get(id string) (models.FolderNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return models.FolderNode{}, false
	}
	return n.Clone(), true
}

// Nodes returns a copy of every node ordered by sort_order, then id.
func (s *Store) Nodes() []models.FolderNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FolderNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.Clone())
	}
	sortNodes(out)
	return out
}

// Children returns copies of the nodes directly under parent (nil = roots),
// ordered by sort_order.
func (s *Store) Children(parent *string) []models.FolderNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenLocked(parent)
}

func (s *Store) childrenLocked(parent *string) []models.FolderNode {
	var out []models.FolderNode
	for _, n := range s.nodes {
		if models.SameParent(n.ParentID, parent) {
			out = append(out, n.Clone())
		}
	}
	sortNodes(out)
	return out
}

// Descendants returns the ids of every node below id, breadth first.
// The node itself is not included.
func (s *Store) Descendants(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byParent := make(map[string][]string)
	for _, n := range s.nodes {
		if n.ParentID != nil {
			byParent[*n.ParentID] = append(byParent[*n.ParentID], n.ID)
		}
	}

	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		kids := byParent[cur]
		sort.Strings(kids)
		for _, kid := range kids {
			if seen[kid] {
				continue
			}
			seen[kid] = true
			out = append(out, kid)
			queue = append(queue, kid)
		}
	}
	return out
}

// Ancestors returns the chain of ancestors of id, nearest first.
func (s *Store) Ancestors(id string) []models.FolderNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.FolderNode
	seen := map[string]bool{id: true}
	n, ok := s.nodes[id]
	for ok && n.ParentID != nil && !seen[*n.ParentID] {
		seen[*n.ParentID] = true
		n, ok = s.nodes[*n.ParentID]
		if ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

// IsSelfOrDescendant reports whether candidate is id itself or lies in its
// subtree, walking upward from candidate.
func (s *Store) IsSelfOrDescendant(id, candidate string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	cur := candidate
	for cur != "" && !seen[cur] {
		if cur == id {
			return true
		}
		seen[cur] = true
		n, ok := s.nodes[cur]
		if !ok || n.ParentID == nil {
			return false
		}
		cur = *n.ParentID
	}
	return false
}

// Tree returns the forest view of the collection. The result is shared
// between callers until the next change and must not be modified.
func (s *Store) Tree() []*TreeNode {
	s.mu.RLock()
	if s.treeValid && s.treeVersion == s.version {
		tree := s.tree
		s.mu.RUnlock()
		return tree
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.treeValid || s.treeVersion != s.version {
		s.tree = DeriveTree(mapValues(s.nodes))
		s.treeVersion = s.version
		s.treeValid = true
	}
	return s.tree
}

// DeriveTree arranges nodes into a forest ordered by sort_order.
// Nodes whose parent is missing, and anything below them, are left out.
func DeriveTree(nodes []models.FolderNode) []*TreeNode {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	byParent := make(map[string][]models.FolderNode)
	var roots []models.FolderNode
	for _, n := range nodes {
		switch {
		case n.ParentID == nil:
			roots = append(roots, n)
		case present[*n.ParentID]:
			byParent[*n.ParentID] = append(byParent[*n.ParentID], n)
		}
	}

	seen := make(map[string]bool, len(nodes))
	var build func(group []models.FolderNode) []*TreeNode
	build = func(group []models.FolderNode) []*TreeNode {
		sortNodes(group)
		out := make([]*TreeNode, 0, len(group))
		for _, n := range group {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			tn := &TreeNode{FolderNode: n.Clone()}
			tn.Children = build(byParent[n.ID])
			out = append(out, tn)
		}
		return out
	}
	return build(roots)
}

// Flatten lists the tree depth first, parents before children.
func Flatten(tree []*TreeNode) []models.FolderNode {
	var out []models.FolderNode
	var walk func([]*TreeNode)
	walk = func(level []*TreeNode) {
		for _, n := range level {
			out = append(out, n.FolderNode)
			walk(n.Children)
		}
	}
	walk(tree)
	return out
}

func mapValues(m map[string]models.FolderNode) []models.FolderNode {
	out := make([]models.FolderNode, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	return out
}

func sortNodes(nodes []models.FolderNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].ID < nodes[j].ID
	})
}
