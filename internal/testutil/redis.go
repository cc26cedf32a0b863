//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisDB is the database integration tests write to.
const RedisDB = 15

// RedisAddr returns the test Redis address from EPAUDIT_TEST_REDIS_ADDR.
func RedisAddr() string {
	return os.Getenv("EPAUDIT_TEST_REDIS_ADDR")
}

// SkipIfNoRedis skips the test if the test Redis server is not reachable.
func SkipIfNoRedis(t *testing.T) {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skip("test Redis not available: set EPAUDIT_TEST_REDIS_ADDR")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: RedisDB})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
}

// RedisClient returns a client for the test database, closed on cleanup.
func RedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: RedisAddr(), DB: RedisDB})
	t.Cleanup(func() { client.Close() })
	return client
}

// FlushDB flushes the test database.
func FlushDB(t *testing.T) {
	t.Helper()
	if err := RedisClient(t).FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushing DB %d: %v", RedisDB, err)
	}
}

// Context returns a context with a reasonable timeout for tests.
// The cancel function is registered via t.Cleanup.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
