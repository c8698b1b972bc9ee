// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown is invoked after the HTTP server has drained.
//
// Background jobs stop first, then editing sessions close (releasing their
// change feed subscriptions), then the backends disconnect. The context
// carries WAFFLE's shutdown timeout.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if svc != nil {
		if svc.runner != nil {
			logger.Info("stopping background task runner")
			if err := svc.runner.Stop(ctx); err != nil {
				logger.Warn("background task runner did not stop cleanly", zap.Error(err))
				keep(err)
			}
		}
		if svc.sessions != nil {
			logger.Info("closing editing sessions", zap.Int("open", svc.sessions.Len()))
			if err := svc.sessions.Close(); err != nil {
				logger.Warn("closing editing sessions failed", zap.Error(err))
				keep(err)
			}
		}
	}

	keep(closeDeps(ctx, deps, logger))
	return firstErr
}

// closeDeps releases every backend in deps, returning the first error.
func closeDeps(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	var firstErr error

	if deps.Redis != nil {
		logger.Info("closing Redis client")
		if err := deps.Redis.Close(); err != nil {
			logger.Error("Redis close failed", zap.Error(err))
			firstErr = err
		}
	}

	if deps.SQL != nil {
		logger.Info("closing SQL folder store")
		if err := deps.SQL.Close(); err != nil {
			logger.Error("SQL close failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
