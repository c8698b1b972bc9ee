package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/folderforge/internal/domain/models"
	"go.uber.org/zap"
)

var errInjected = errors.New("injected write failure")

// memBackend is an in-memory Backend with failure injection.
type memBackend struct {
	mu      sync.Mutex
	rows    map[string]models.FolderNode
	fetches int
	writes  int
	fail    func(op, id string) error
}

func newMemBackend(nodes ...models.FolderNode) *memBackend {
	b := &memBackend{rows: make(map[string]models.FolderNode)}
	for _, n := range nodes {
		b.rows[n.ID] = n.Clone()
	}
	return b
}

func (b *memBackend) failWith(fn func(op, id string) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fn
}

func (b *memBackend) check(op, id string) error {
	if b.fail != nil {
		return b.fail(op, id)
	}
	return nil
}

func (b *memBackend) FetchFolders(_ context.Context, templateID string) ([]models.FolderNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if err := b.check("fetch", templateID); err != nil {
		return nil, err
	}
	var out []models.FolderNode
	for _, n := range b.rows {
		if n.TemplateID == templateID {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

func (b *memBackend) InsertFolder(_ context.Context, n models.FolderNode) (*models.FolderNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check("insert", n.ID); err != nil {
		return nil, err
	}
	if _, ok := b.rows[n.ID]; ok {
		return nil, fmt.Errorf("duplicate id %s", n.ID)
	}
	b.writes++
	b.rows[n.ID] = n.Clone()
	out := n.Clone()
	return &out, nil
}

func (b *memBackend) UpdateFolder(_ context.Context, id string, patch models.FolderPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check("update", id); err != nil {
		return err
	}
	n, ok := b.rows[id]
	if !ok {
		return fmt.Errorf("no row %s", id)
	}
	b.writes++
	b.rows[id] = applyPatch(n, patch)
	return nil
}

func (b *memBackend) DeleteFolder(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check("delete", id); err != nil {
		return err
	}
	b.writes++
	delete(b.rows, id)
	return nil
}

func (b *memBackend) row(id string) (models.FolderNode, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.rows[id]
	return n, ok
}

func (b *memBackend) writeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func (b *memBackend) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

// batchBackend adds all-or-nothing batch updates.
type batchBackend struct {
	*memBackend
	batches int
}

func (b *batchBackend) UpdateFolders(_ context.Context, updates []models.FolderUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range updates {
		if err := b.check("update", u.ID); err != nil {
			return err
		}
	}
	b.batches++
	for _, u := range updates {
		b.writes++
		b.rows[u.ID] = applyPatch(b.rows[u.ID], u.Patch)
	}
	return nil
}

// memFeed is a ChangeFeed driven by the test.
type memFeed struct {
	mu   sync.Mutex
	subs map[int]func(models.FolderChange)
	next int
}

func newMemFeed() *memFeed { return &memFeed{subs: make(map[int]func(models.FolderChange))} }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (f *memFeed) Subscribe(_ context.Context, _ string, fn func(models.FolderChange)) (io.Closer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return closerFunc(func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
		return nil
	}), nil
}

func (f *memFeed) emit(ev models.FolderChange) {
	f.mu.Lock()
	subs := make([]func(models.FolderChange), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (f *memFeed) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

/* --------------------------------- helpers -------------------------------- */

const tpl = "tpl-1"

func fn(id, parent, name string, sort int) models.FolderNode {
	n := models.FolderNode{ID: id, TemplateID: tpl, Name: name, FolderType: models.FolderTypeDefault, SortOrder: sort}
	if parent != "" {
		n.ParentID = models.StringPtr(parent)
	}
	return n
}

func seqIDs() func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		i++
		return fmt.Sprintf("new-%d", i)
	}
}

func newTestSession(t *testing.T, backend Backend, feed ChangeFeed, opts Options) *Session {
	t.Helper()
	if opts.NewID == nil {
		opts.NewID = seqIDs()
	}
	if opts.Clock == nil {
		at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		opts.Clock = func() time.Time { return at }
	}
	s := New(tpl, backend, feed, zap.NewNop(), opts)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

// loaded returns a session over a backend seeded with nodes.
func loaded(t *testing.T, nodes ...models.FolderNode) (*Session, *memBackend) {
	t.Helper()
	b := newMemBackend(nodes...)
	return newTestSession(t, b, nil, Options{}), b
}

// loadedNoResync is loaded without the resync that remote events schedule,
// so injected events stay visible.
func loadedNoResync(t *testing.T, nodes ...models.FolderNode) (*Session, *memBackend) {
	t.Helper()
	b := newMemBackend(nodes...)
	return newTestSession(t, b, nil, Options{ResyncDebounce: -1}), b
}

// layout renders the children of parent as "id:sort" pairs in order.
func layout(s *Session, parent string) []string {
	var p *string
	if parent != "" {
		p = models.StringPtr(parent)
	}
	var out []string
	for _, n := range s.Children(p) {
		out = append(out, fmt.Sprintf("%s:%d", n.ID, n.SortOrder))
	}
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
