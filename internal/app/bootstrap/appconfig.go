// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Storage backends.
const (
	StorageMongo    = "mongo"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Change feeds.
const (
	FeedNone  = "none"
	FeedMongo = "mongo"
	FeedRedis = "redis"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging, CORS and timeouts; everything FolderForge needs on
// top of that lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Comma-separated bearer keys accepted on /api/* routes. Empty rejects
	// every API request.
	APIKey string

	// Where folder rows live: "mongo", "sqlite" or "postgres".
	StorageBackend string
	SQLDSN         string // file path for sqlite, connection string for postgres

	// How sessions hear about writes made elsewhere: "none", "mongo" or "redis".
	ChangeFeed         string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisChannelPrefix string

	// Editor tuning
	ResyncDebounce     time.Duration // quiet period before a full reload after remote changes
	PendingTTL         time.Duration // lifetime of echo-suppression marks
	UndoHistory        int           // entries kept on each undo/redo stack
	SessionIdleTimeout time.Duration // close template sessions unused this long

	// Naming presets loaded on top of the built-in ones (YAML or JSON)
	NamingPresetsFile string

	// Directory imports. Empty ImportRoot disables scanning server paths.
	ImportRoot   string
	ImportIgnore []string
}

// NeedsMongo reports whether the configuration uses MongoDB at all.
func (c AppConfig) NeedsMongo() bool {
	return c.StorageBackend == StorageMongo || c.ChangeFeed == FeedMongo
}
