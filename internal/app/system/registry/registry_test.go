package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/folderforge/internal/app/system/editor"
	"github.com/dalemusser/folderforge/internal/domain/models"
)

type countingBackend struct {
	fetches atomic.Int32
	fail    error
}

func (b *countingBackend) FetchFolders(context.Context, string) ([]models.FolderNode, error) {
	b.fetches.Add(1)
	time.Sleep(10 * time.Millisecond)
	if b.fail != nil {
		return nil, b.fail
	}
	return nil, nil
}

func (b *countingBackend) InsertFolder(_ context.Context, n models.FolderNode) (*models.FolderNode, error) {
	return &n, nil
}

func (b *countingBackend) UpdateFolder(context.Context, string, models.FolderPatch) error { return nil }
func (b *countingBackend) DeleteFolder(context.Context, string) error                     { return nil }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestRegistry(b *countingBackend, c *clock) *Registry {
	return New(Config{
		NewBackend:  func(string) editor.Backend { return b },
		IdleTimeout: time.Minute,
		Clock:       c.Now,
	})
}

func TestOpen_SharesConcurrentLoads(t *testing.T) {
	b := &countingBackend{}
	r := newTestRegistry(b, &clock{t: time.Now()})
	defer r.Close()

	var wg sync.WaitGroup
	got := make([]*editor.Session, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.Open(context.Background(), "tpl")
			if err != nil {
				t.Errorf("Open() error = %v", err)
			}
			got[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		if s != got[0] {
			t.Fatal("Open returned different sessions for one template")
		}
	}
	if n := b.fetches.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestOpen_LoadErrorNotCached(t *testing.T) {
	b := &countingBackend{fail: errors.New("db down")}
	r := newTestRegistry(b, &clock{t: time.Now()})
	defer r.Close()

	_, err := r.Open(context.Background(), "tpl")
	var le *editor.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want LoadError", err)
	}
	if r.Len() != 0 {
		t.Error("failed session was kept")
	}

	b.fail = nil
	if _, err := r.Open(context.Background(), "tpl"); err != nil {
		t.Errorf("retry Open() error = %v", err)
	}
}

func TestCloseIdle(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newTestRegistry(&countingBackend{}, c)
	defer r.Close()
	ctx := context.Background()

	old, _ := r.Open(ctx, "old")
	c.Advance(45 * time.Second)
	fresh, _ := r.Open(ctx, "fresh")
	c.Advance(30 * time.Second)

	if n := r.CloseIdle(); n != 1 {
		t.Fatalf("CloseIdle() = %d, want 1", n)
	}
	if !old.Closed() || fresh.Closed() {
		t.Error("wrong session closed")
	}
	if ids := r.TemplateIDs(); len(ids) != 1 || ids[0] != "fresh" {
		t.Errorf("TemplateIDs() = %v", ids)
	}
}

func TestDropAndClose(t *testing.T) {
	r := newTestRegistry(&countingBackend{}, &clock{t: time.Now()})
	ctx := context.Background()

	s, _ := r.Open(ctx, "a")
	if err := r.Drop("a"); err != nil {
		t.Fatal(err)
	}
	if !s.Closed() || r.Get("a") != nil {
		t.Error("Drop did not close the session")
	}

	r.Open(ctx, "b")
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 0 {
		t.Error("Close left sessions open")
	}
	if _, err := r.Open(ctx, "c"); !errors.Is(err, editor.ErrClosed) {
		t.Errorf("Open after Close err = %v", err)
	}
}
