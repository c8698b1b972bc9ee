// Package health serves liveness and readiness probes for the storage
// backend and the change-feed broker.
package health

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/folderforge/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// checkTimeout bounds each dependency ping.
const checkTimeout = 5 * time.Second

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
)

// Check is one dependency probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// MongoCheck pings the primary.
func MongoCheck(client *mongo.Client) Check {
	return Check{Name: "mongodb", Ping: func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}}
}

// RedisCheck pings the change-feed broker.
func RedisCheck(client *redis.Client) Check {
	return Check{Name: "redis", Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// SQLCheck pings a SQL storage backend under name ("sqlite", "postgres").
func SQLCheck(name string, db *sql.DB) Check {
	return Check{Name: name, Ping: db.PingContext}
}

// Handler serves the probes.
type Handler struct {
	checks []Check
	logger *zap.Logger
}

// NewHandler returns a Handler that runs checks on every readiness probe.
func NewHandler(logger *zap.Logger, checks ...Check) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{checks: checks, logger: logger}
}

// Response is the body of /health.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

type probeStatus struct {
	Status string `json:"status"`
}

// Routes serves /health (full report), /health/ready and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe paths orchestrators expect at the
// root: /ready, /readyz and /livez.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// run pings every dependency in parallel and reports each by name.
func (h *Handler) run(ctx context.Context) (map[string]string, bool) {
	var (
		mu       sync.Mutex
		services = make(map[string]string, len(h.checks))
		healthy  = true
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range h.checks {
		c := c
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, checkTimeout)
			defer cancel()
			status := statusOK
			if err := c.Ping(cctx); err != nil {
				status = statusUnavailable
				h.logger.Warn("health check failed", zap.String("service", c.Name), zap.Error(err))
			}
			mu.Lock()
			services[c.Name] = status
			if status != statusOK {
				healthy = false
			}
			mu.Unlock()
			// A failed ping must not cancel the sibling probes.
			return nil
		})
	}
	_ = g.Wait()
	return services, healthy
}

// Check reports every dependency; 503 when any is unavailable.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	services, healthy := h.run(r.Context())
	if !healthy {
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "degraded", Services: services})
		return
	}
	jsonutil.OK(w, Response{Status: statusOK, Services: services})
}

// Ready is the readiness probe.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, healthy := h.run(r.Context()); !healthy {
		jsonutil.JSON(w, http.StatusServiceUnavailable, probeStatus{Status: "not ready"})
		return
	}
	jsonutil.OK(w, probeStatus{Status: "ready"})
}

// Live is the liveness probe. It runs no checks.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, probeStatus{Status: "alive"})
}
