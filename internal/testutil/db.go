// Package testutil sets up the live MongoDB and Redis servers used by
// integration tests. Tests skip when a server is unreachable.
package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/folderforge/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// TestDBURI is used unless FOLDERFORGE_TEST_MONGO_URI is set.
	TestDBURI = "mongodb://localhost:27017"
	// TestDBName prefixes every per-test database.
	TestDBName = "folderforge_test"

	// mongod rejects database names of 64 bytes or more.
	maxDBName = 63
)

var (
	mongoOnce   sync.Once
	mongoClient *mongo.Client
	mongoErr    error
)

func mongoURI() string {
	if uri := os.Getenv("FOLDERFORGE_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return TestDBURI
}

// sharedClient connects once per test binary.
func sharedClient() (*mongo.Client, error) {
	mongoOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		opts := options.Client().
			ApplyURI(mongoURI()).
			SetMaxPoolSize(50).
			SetServerSelectionTimeout(3 * time.Second)
		mongoClient, mongoErr = mongo.Connect(ctx, opts)
		if mongoErr == nil {
			mongoErr = mongoClient.Ping(ctx, nil)
		}
	})
	return mongoClient, mongoErr
}

// SetupTestDB returns an empty database named after the test with the
// folder_nodes indexes in place. It is dropped again on cleanup.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	client, err := sharedClient()
	if err != nil {
		t.Skipf("mongodb not available at %s: %v", mongoURI(), err)
	}

	db := client.Database(DBNameFor(t.Name()))
	ctx, cancel := TestContext()
	defer cancel()

	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop %s: %v", db.Name(), err)
	}
	if err := indexes.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop %s on cleanup: %v", db.Name(), err)
		}
	})
	return db
}

// DBNameFor maps a test name to a database name: unsafe characters become
// underscores and the result is cut to the server's length limit.
func DBNameFor(testName string) string {
	suffix := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, testName)

	name := TestDBName + "_" + suffix
	if len(name) > maxDBName {
		name = name[:maxDBName]
	}
	return name
}

// TestContext bounds a single test's database work.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
