// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	folderfeature "github.com/dalemusser/folderforge/internal/app/features/folders"
	healthfeature "github.com/dalemusser/folderforge/internal/app/features/health"
	namingfeature "github.com/dalemusser/folderforge/internal/app/features/naming"
	"github.com/dalemusser/folderforge/internal/app/system/jsonutil"
	"github.com/dalemusser/folderforge/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after Startup, so the session registry and background
// jobs already exist. Routes:
//   - /api/templates: folder tree editing (bearer API key)
//   - /api/naming: stateless naming helpers (bearer API key)
//   - /health, /ready, /readyz, /livez: probes
//   - /metrics: Prometheus
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("BuildHandler called before Startup")
	}

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// ─────────────────────────────────────────────────────────────────────────────
	// Folder API
	// ─────────────────────────────────────────────────────────────────────────────
	var lister folderfeature.TemplateLister
	if svc.folders != nil {
		lister = svc.folders
	}
	folderHandler := folderfeature.NewHandler(svc.sessions, lister, svc.scanner, svc.presets, logger)
	r.Mount("/api/templates", folderfeature.Routes(folderHandler, appCfg.APIKey, logger))

	namingHandler := namingfeature.NewHandler(svc.presets, logger)
	r.Mount("/api/naming", namingfeature.Routes(namingHandler, appCfg.APIKey, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Probes and metrics
	// ─────────────────────────────────────────────────────────────────────────────
	var checks []healthfeature.Check
	if deps.MongoClient != nil {
		checks = append(checks, healthfeature.MongoCheck(deps.MongoClient))
	}
	if deps.SQL != nil {
		checks = append(checks, healthfeature.SQLCheck(appCfg.StorageBackend, deps.SQL.DB()))
	}
	if deps.Redis != nil {
		checks = append(checks, healthfeature.RedisCheck(deps.Redis))
	}
	healthHandler := healthfeature.NewHandler(logger, checks...)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.Handle("/metrics", metrics.Handler(svc.gatherer))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonutil.NotFound(w, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	logger.Info("routes mounted",
		zap.Bool("api_key_required", appCfg.APIKey != ""),
		zap.Bool("directory_import", svc.scanner != nil))
	return r, nil
}
