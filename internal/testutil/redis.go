package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// TestRedisAddr is the Redis address used by tests.
const TestRedisAddr = "localhost:6379"

// SetupTestRedis returns a client on a dedicated test database, flushed
// before and after the test. The test is skipped when Redis is not reachable.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: TestRedisAddr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available at %s: %v", TestRedisAddr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush test redis: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return client
}
