// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/folderforge/internal/app/store/foldernode"
	"github.com/dalemusser/folderforge/internal/app/system/changefeed"
	"github.com/dalemusser/folderforge/internal/app/system/dirimport"
	"github.com/dalemusser/folderforge/internal/app/system/editor"
	"github.com/dalemusser/folderforge/internal/app/system/metrics"
	"github.com/dalemusser/folderforge/internal/app/system/naming"
	"github.com/dalemusser/folderforge/internal/app/system/registry"
	"github.com/dalemusser/folderforge/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Background job intervals.
const (
	pendingSweepInterval = time.Minute
	idleSessionInterval  = 5 * time.Minute
)

// services holds what Startup builds for BuildHandler and Shutdown.
type services struct {
	gatherer prometheus.Gatherer
	metrics  *metrics.Metrics
	sessions *registry.Registry
	folders  *foldernode.Store // nil unless storage_backend is mongo
	presets  []naming.Preset   // custom presets from naming_presets_file
	scanner  *dirimport.Scanner
	runner   *tasks.Runner
}

// svc is the running instance, used by BuildHandler and Shutdown.
var svc *services

// Startup runs once after DB connections and schema setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It builds the per-template session registry on the configured storage
// backend and change feed, loads custom naming presets, prepares the
// directory scanner and starts the background jobs. Returning an error
// aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	s := &services{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.gatherer = reg
	s.metrics = metrics.New(reg)

	newBackend, feed, err := s.buildStorage(appCfg, deps, logger)
	if err != nil {
		return err
	}

	s.sessions = registry.New(registry.Config{
		NewBackend: newBackend,
		Feed:       feed,
		Session: editor.Options{
			PendingTTL:     appCfg.PendingTTL,
			ResyncDebounce: appCfg.ResyncDebounce,
			UndoCapacity:   appCfg.UndoHistory,
		},
		IdleTimeout: appCfg.SessionIdleTimeout,
		Logger:      logger,
		Metrics:     s.metrics,
	})

	if appCfg.NamingPresetsFile != "" {
		presets, err := naming.LoadPresets(appCfg.NamingPresetsFile)
		if err != nil {
			logger.Error("failed to load naming presets", zap.String("file", appCfg.NamingPresetsFile), zap.Error(err))
			return err
		}
		s.presets = presets
		logger.Info("loaded naming presets",
			zap.String("file", appCfg.NamingPresetsFile),
			zap.Int("count", len(presets)))
	}

	if appCfg.ImportRoot != "" {
		scanner, err := dirimport.New(appCfg.ImportRoot, dirimport.Options{Ignore: appCfg.ImportIgnore}, logger)
		if err != nil {
			logger.Error("invalid import root", zap.String("import_root", appCfg.ImportRoot), zap.Error(err))
			return err
		}
		s.scanner = scanner
		logger.Info("directory import enabled", zap.String("import_root", scanner.Root()))
	}

	s.runner = tasks.New(logger, s.metrics.ObserveJob)
	s.runner.Register(tasks.PendingSweepJob(s.sessions, pendingSweepInterval, logger))
	s.runner.Register(tasks.IdleSessionJob(s.sessions, idleSessionInterval, logger))
	s.runner.Start()

	svc = s
	logger.Info("folder editor ready",
		zap.String("storage_backend", appCfg.StorageBackend),
		zap.String("change_feed", appCfg.ChangeFeed))
	return nil
}

// buildStorage returns the backend factory and change feed for the
// configured storage and feed. With the redis feed every backend publishes
// its own writes.
func (s *services) buildStorage(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (func(string) editor.Backend, editor.ChangeFeed, error) {
	var base changefeed.ReadBackend
	switch appCfg.StorageBackend {
	case StorageMongo:
		if deps.MongoDatabase == nil {
			return nil, nil, fmt.Errorf("storage_backend mongo: no MongoDB connection")
		}
		s.folders = foldernode.New(deps.MongoDatabase, logger)
		base = s.folders
	case StorageSQLite, StoragePostgres:
		if deps.SQL == nil {
			return nil, nil, fmt.Errorf("storage_backend %s: no SQL store", appCfg.StorageBackend)
		}
		base = deps.SQL
	default:
		return nil, nil, fmt.Errorf("unknown storage_backend %q", appCfg.StorageBackend)
	}

	plain := func(string) editor.Backend { return base }

	switch appCfg.ChangeFeed {
	case FeedMongo:
		if s.folders == nil {
			return nil, nil, fmt.Errorf("change_feed mongo requires storage_backend mongo")
		}
		return plain, changefeed.NewMongoFeed(s.folders.Collection(), logger), nil
	case FeedRedis:
		if deps.Redis == nil {
			return nil, nil, fmt.Errorf("change_feed redis: no Redis connection")
		}
		feed := changefeed.NewRedisFeed(deps.Redis, appCfg.RedisChannelPrefix, logger)
		publishing := func(templateID string) editor.Backend {
			return changefeed.NewPublishingBackend(base, feed, templateID, logger)
		}
		return publishing, feed, nil
	default:
		return plain, nil, nil
	}
}
