// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/folderforge/internal/app/store/foldersql"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler and Shutdown. Fields are nil when the configuration does
// not use that backend.
type DBDeps struct {
	// MongoDB client and database (storage_backend mongo or change_feed mongo)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// SQL folder store (storage_backend sqlite or postgres)
	SQL *foldersql.Store

	// Redis client (change_feed redis)
	Redis *redis.Client
}
