// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "FOLDERFORGE"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, storage_backend, etc.
//   - Environment variables: FOLDERFORGE_MONGO_URI, FOLDERFORGE_STORAGE_BACKEND, etc.
//   - Command-line flags: --mongo_uri, --storage_backend, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "folderforge", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// API key configuration (for API consumers using Bearer token auth)
	{Name: "api_key", Default: "", Desc: "API key for /api access (leave empty to disable API key auth)"},

	// Storage
	{Name: "storage_backend", Default: StorageMongo, Desc: "Folder storage: 'mongo', 'sqlite' or 'postgres'"},
	{Name: "sql_dsn", Default: "./data/folderforge.db", Desc: "SQLite file path or PostgreSQL connection string"},

	// Change feed
	{Name: "change_feed", Default: FeedMongo, Desc: "Remote change feed: 'none', 'mongo' (change streams) or 'redis'"},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address for the redis change feed"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_channel_prefix", Default: "folderforge:folders:", Desc: "Redis pub/sub channel prefix"},

	// Editor tuning
	{Name: "resync_debounce", Default: "150ms", Desc: "Quiet period before reloading after remote changes"},
	{Name: "pending_ttl", Default: "5s", Desc: "How long a local write suppresses its own echo"},
	{Name: "undo_history", Default: 50, Desc: "Undo/redo entries kept per template"},
	{Name: "session_idle_timeout", Default: "30m", Desc: "Close template sessions idle this long"},

	// Naming
	{Name: "naming_presets_file", Default: "", Desc: "YAML/JSON file with extra naming presets"},

	// Import
	{Name: "import_root", Default: "", Desc: "Directory server-side imports may scan (empty disables)"},
	{Name: "import_ignore", Default: "", Desc: "Comma-separated glob patterns to skip when scanning (empty uses defaults)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, FOLDERFORGE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		APIKey: appValues.String("api_key"),

		StorageBackend: strings.ToLower(strings.TrimSpace(appValues.String("storage_backend"))),
		SQLDSN:         appValues.String("sql_dsn"),

		ChangeFeed:         strings.ToLower(strings.TrimSpace(appValues.String("change_feed"))),
		RedisAddr:          appValues.String("redis_addr"),
		RedisPassword:      appValues.String("redis_password"),
		RedisDB:            appValues.Int("redis_db"),
		RedisChannelPrefix: appValues.String("redis_channel_prefix"),

		ResyncDebounce:     appValues.Duration("resync_debounce", 150*time.Millisecond),
		PendingTTL:         appValues.Duration("pending_ttl", 5*time.Second),
		UndoHistory:        appValues.Int("undo_history"),
		SessionIdleTimeout: appValues.Duration("session_idle_timeout", 30*time.Minute),

		NamingPresetsFile: appValues.String("naming_presets_file"),

		ImportRoot:   appValues.String("import_root"),
		ImportIgnore: splitList(appValues.String("import_ignore")),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var problems []string

	switch appCfg.StorageBackend {
	case StorageMongo:
	case StorageSQLite, StoragePostgres:
		if strings.TrimSpace(appCfg.SQLDSN) == "" {
			problems = append(problems, "sql_dsn is required for storage_backend "+appCfg.StorageBackend)
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage_backend %q", appCfg.StorageBackend))
	}

	switch appCfg.ChangeFeed {
	case FeedNone:
	case FeedMongo:
		// change streams watch the collection this process writes to
		if appCfg.StorageBackend != StorageMongo {
			problems = append(problems, "change_feed mongo requires storage_backend mongo")
		}
	case FeedRedis:
		if strings.TrimSpace(appCfg.RedisAddr) == "" {
			problems = append(problems, "redis_addr is required for change_feed redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown change_feed %q", appCfg.ChangeFeed))
	}

	if appCfg.UndoHistory < 0 {
		problems = append(problems, "undo_history must not be negative")
	}
	if appCfg.PendingTTL <= 0 {
		problems = append(problems, "pending_ttl must be positive")
	}

	if appCfg.NeedsMongo() {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			problems = append(problems, fmt.Sprintf("invalid MongoDB URI: %v", err))
		}
	}

	if len(problems) > 0 {
		err := errors.New(strings.Join(problems, "; "))
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

// splitList splits a comma-separated value, dropping blanks. An empty
// value yields nil so callers can fall back to their defaults.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
