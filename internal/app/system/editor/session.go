// internal/app/system/editor/session.go
package editor

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/folderforge/internal/app/system/foldertree"
	"github.com/dalemusser/folderforge/internal/app/system/history"
	"github.com/dalemusser/folderforge/internal/app/system/metrics"
	"github.com/dalemusser/folderforge/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultResyncDebounce is the quiet period after the last remote event
// before a full reload runs.
const DefaultResyncDebounce = 150 * time.Millisecond

// Options configures a Session. Zero values pick the defaults.
type Options struct {
	PendingTTL time.Duration
	// ResyncDebounce is the debounce window for remote resyncs.
	// A negative value disables resyncs.
	ResyncDebounce time.Duration
	UndoCapacity   int
	// WriteConcurrency bounds parallel single-row writes.
	WriteConcurrency int
	Clock            func() time.Time
	NewID            func() string
	Metrics          *metrics.Metrics
}

// Session is the editing state of one template: the folder collection, the
// undo/redo log, and the subscription that keeps both in step with storage.
//
// Mutations are serialized per session. Reads go straight to the store and
// never block on an in-flight write.
type Session struct {
	templateID string
	backend    Backend
	feed       ChangeFeed
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	newID      func() string
	debounce   time.Duration
	writeLimit int

	store *foldertree.Store
	log   *history.Log

	mu sync.Mutex // serializes mutations

	ctx    context.Context
	cancel context.CancelFunc

	resyncMu    sync.Mutex
	resyncTimer *time.Timer
	sub         io.Closer
	closed      bool
	resyncWG    sync.WaitGroup

	lastUsed atomic.Int64
}

// New creates a session. Call Load (or Start) before editing.
// feed may be nil, in which case remote changes are never observed.
func New(templateID string, backend Backend, feed ChangeFeed, logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.ResyncDebounce == 0 {
		opts.ResyncDebounce = DefaultResyncDebounce
	}
	if opts.WriteConcurrency <= 0 {
		opts.WriteConcurrency = 8
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		templateID: templateID,
		backend:    backend,
		feed:       feed,
		logger:     logger.With(zap.String("template_id", templateID)),
		metrics:    opts.Metrics,
		now:        opts.Clock,
		newID:      opts.NewID,
		debounce:   opts.ResyncDebounce,
		writeLimit: opts.WriteConcurrency,
		store:      foldertree.New(templateID, foldertree.Options{PendingTTL: opts.PendingTTL, Clock: opts.Clock}),
		log:        history.New(opts.UndoCapacity),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.touch()
	return s
}

// TemplateID returns the template this session edits.
func (s *Session) TemplateID() string { return s.templateID }

// Load fetches the whole collection and replaces the local copy.
func (s *Session) Load(ctx context.Context) error {
	nodes, err := s.backend.FetchFolders(ctx, s.templateID)
	if err != nil {
		return &LoadError{TemplateID: s.templateID, Err: err}
	}
	s.store.Replace(nodes)
	s.touch()
	return nil
}

// Start loads the collection and subscribes to the change feed.
func (s *Session) Start(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		return err
	}
	if s.feed == nil {
		return nil
	}
	sub, err := s.feed.Subscribe(s.ctx, s.templateID, s.HandleRemote)
	if err != nil {
		return &LoadError{TemplateID: s.templateID, Err: err}
	}

	s.resyncMu.Lock()
	defer s.resyncMu.Unlock()
	if s.closed {
		_ = sub.Close()
		return ErrClosed
	}
	s.sub = sub
	return nil
}

// Close ends the subscription and cancels any scheduled resync.
// It waits for a resync that is already running.
func (s *Session) Close() error {
	s.resyncMu.Lock()
	if s.closed {
		s.resyncMu.Unlock()
		return nil
	}
	s.closed = true
	if s.resyncTimer != nil {
		if s.resyncTimer.Stop() {
			s.resyncWG.Done()
		}
		s.resyncTimer = nil
	}
	sub := s.sub
	s.sub = nil
	s.resyncMu.Unlock()

	s.cancel()
	s.resyncWG.Wait()
	if sub != nil {
		return sub.Close()
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.resyncMu.Lock()
	defer s.resyncMu.Unlock()
	return s.closed
}

// HandleRemote merges one change feed event and schedules a resync.
// Echoes of this session's own writes are dropped.
func (s *Session) HandleRemote(ev models.FolderChange) {
	if !s.store.ApplyRemoteChange(ev) {
		s.metrics.ObserveRemote(metrics.RemoteSuppressed)
		return
	}
	s.metrics.ObserveRemote(metrics.RemoteApplied)
	s.scheduleResync()
}

func (s *Session) scheduleResync() {
	if s.debounce < 0 {
		return
	}
	s.resyncMu.Lock()
	defer s.resyncMu.Unlock()
	if s.closed {
		return
	}
	if s.resyncTimer != nil && s.resyncTimer.Stop() {
		// the stopped timer will not fire; reuse its WaitGroup slot
		s.resyncTimer.Reset(s.debounce)
		return
	}
	s.resyncWG.Add(1)
	s.resyncTimer = time.AfterFunc(s.debounce, s.resync)
}

func (s *Session) resync() {
	defer s.resyncWG.Done()

	if s.Closed() {
		return
	}

	err := s.Load(s.ctx)
	s.metrics.ObserveResync(err)
	if err != nil && s.ctx.Err() == nil {
		s.logger.Warn("folder resync failed", zap.Error(err))
	}
}

func (s *Session) touch() {
	s.lastUsed.Store(s.now().UnixNano())
}

// LastUsed returns the time of the last load or mutation.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

/* --------------------------------- reads ---------------------------------- */

// Tree returns the current forest. It must not be modified.
func (s *Session) Tree() []*foldertree.TreeNode { return s.store.Tree() }

// Nodes returns a copy of every node.
func (s *Session) Nodes() []models.FolderNode { return s.store.Nodes() }

// Get returns a copy of one node.
func (s *Session) Get(id string) (models.FolderNode, bool) { return s.store.Get(id) }

// Children returns the ordered children of parent (nil = roots).
func (s *Session) Children(parent *string) []models.FolderNode { return s.store.Children(parent) }

// Version increases whenever the visible collection changes.
func (s *Session) Version() uint64 { return s.store.Version() }

// SweepPending drops expired pending marks.
func (s *Session) SweepPending() int { return s.store.SweepPending() }

// PendingCount returns the number of pending marks.
func (s *Session) PendingCount() int { return s.store.PendingCount() }
