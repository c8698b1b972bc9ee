// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/folderforge/internal/app/store/foldersql"
	"github.com/dalemusser/folderforge/internal/app/system/indexes"
	"github.com/dalemusser/folderforge/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ConnectDB connects the backends the configuration asks for.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. MongoDB is only dialed when it stores folders or feeds changes.
// A failure closes whatever was already opened.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (deps DBDeps, err error) {
	defer func() {
		if err != nil {
			closeDeps(context.Background(), deps, logger)
			deps = DBDeps{}
		}
	}()

	if appCfg.NeedsMongo() {
		poolCfg := wafflemongo.DefaultPoolConfig()
		if appCfg.MongoMaxPoolSize > 0 {
			poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
		}
		if appCfg.MongoMinPoolSize > 0 {
			poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
		}

		client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
		if err != nil {
			return deps, err
		}
		deps.MongoClient = client
		deps.MongoDatabase = client.Database(appCfg.MongoDatabase)

		logger.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
			zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
		)
	}

	switch appCfg.StorageBackend {
	case StorageSQLite, StoragePostgres:
		store, err := foldersql.Open(ctx, appCfg.StorageBackend, appCfg.SQLDSN)
		if err != nil {
			return deps, fmt.Errorf("open %s folder store: %w", appCfg.StorageBackend, err)
		}
		deps.SQL = store
		logger.Info("opened SQL folder store", zap.String("dialect", appCfg.StorageBackend))
	}

	if appCfg.ChangeFeed == FeedRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		deps.Redis = client
		if err := client.Ping(ctx).Err(); err != nil {
			return deps, fmt.Errorf("connect redis %s: %w", appCfg.RedisAddr, err)
		}
		logger.Info("connected to Redis",
			zap.String("addr", appCfg.RedisAddr),
			zap.Int("db", appCfg.RedisDB),
		)
	}

	return deps, nil
}

// EnsureSchema sets up collections, validators and indexes.
//
// SQL stores create their table in foldersql.Open, so only MongoDB needs
// work here. The context has a timeout based on coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	if db == nil {
		logger.Info("no MongoDB configured, skipping collection setup")
		return nil
	}

	// Collections and validators first so indexes land on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db, logger); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db, logger); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
