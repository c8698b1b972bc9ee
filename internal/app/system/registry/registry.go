// Package registry keeps one editor session per template open and shared
// between requests.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/folderforge/internal/app/system/editor"
	"github.com/dalemusser/folderforge/internal/app/system/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultIdleTimeout closes sessions nobody has touched for this long.
const DefaultIdleTimeout = 30 * time.Minute

// Config configures a Registry.
type Config struct {
	// NewBackend returns the storage backend for a template.
	NewBackend func(templateID string) editor.Backend
	// Feed is optional; without it sessions never see remote changes.
	Feed        editor.ChangeFeed
	Session     editor.Options
	IdleTimeout time.Duration
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Clock       func() time.Time
}

// Registry opens sessions on demand.
type Registry struct {
	cfg   Config
	log   *zap.Logger
	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*editor.Session
	closed   bool
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Session.Metrics == nil {
		cfg.Session.Metrics = cfg.Metrics
	}
	if cfg.Session.Clock == nil {
		cfg.Session.Clock = cfg.Clock
	}
	return &Registry{
		cfg:      cfg,
		log:      cfg.Logger,
		sessions: make(map[string]*editor.Session),
	}
}

// Open returns the session for templateID, loading it on first use.
// Concurrent opens of the same template share one load.
func (r *Registry) Open(ctx context.Context, templateID string) (*editor.Session, error) {
	if s := r.Get(templateID); s != nil {
		return s, nil
	}

	v, err, _ := r.group.Do(templateID, func() (any, error) {
		if s := r.Get(templateID); s != nil {
			return s, nil
		}
		s := editor.New(templateID, r.cfg.NewBackend(templateID), r.cfg.Feed, r.log, r.cfg.Session)
		if err := s.Start(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			_ = s.Close()
			return nil, editor.ErrClosed
		}
		r.sessions[templateID] = s
		r.cfg.Metrics.SetOpenSessions(len(r.sessions))
		r.log.Info("editor session opened", zap.String("template_id", templateID))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*editor.Session), nil
}

// Get returns an open session or nil.
func (r *Registry) Get(templateID string) *editor.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[templateID]
}

// Drop closes and forgets the session for templateID.
func (r *Registry) Drop(templateID string) error {
	r.mu.Lock()
	s, ok := r.sessions[templateID]
	delete(r.sessions, templateID)
	r.cfg.Metrics.SetOpenSessions(len(r.sessions))
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Close()
}

// TemplateIDs lists the open sessions.
func (r *Registry) TemplateIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseIdle closes sessions unused for longer than the idle timeout and
// returns how many were closed.
func (r *Registry) CloseIdle() int {
	cutoff := r.cfg.Clock().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var idle []*editor.Session
	for id, s := range r.sessions {
		if s.LastUsed().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.cfg.Metrics.SetOpenSessions(len(r.sessions))
	r.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(); err != nil {
			r.log.Warn("close idle session", zap.String("template_id", s.TemplateID()), zap.Error(err))
		}
	}
	return len(idle)
}

// SweepPending drops expired pending marks in every session.
func (r *Registry) SweepPending() int {
	r.mu.Lock()
	open := make([]*editor.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		open = append(open, s)
	}
	r.mu.Unlock()

	n := 0
	for _, s := range open {
		n += s.SweepPending()
	}
	return n
}

// Close closes every session. Later opens fail.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	all := r.sessions
	r.sessions = make(map[string]*editor.Session)
	r.cfg.Metrics.SetOpenSessions(0)
	r.mu.Unlock()

	var first error
	for _, s := range all {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
