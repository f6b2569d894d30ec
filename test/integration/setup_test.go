//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/loubot/internal/driver"
	"github.com/agenthands/loubot/internal/graph"
)

func newNeo4jStore(t *testing.T) *graph.Neo4jStore {
	t.Helper()
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("Skipping integration test: NEO4J_URI not set")
	}

	d, err := driver.NewNeo4jDriver(uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), driver.Options{
		Database:       os.Getenv("NEO4J_DATABASE"),
		ConnectTimeout: 5 * time.Second,
		QueryTimeout:   10 * time.Second,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	require.NoError(t, d.BuildIndices(context.Background()))
	return graph.NewNeo4jStore(d)
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	_ = godotenv.Load("../../.env")

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// testSession keeps runs from seeing each other's nodes.
func testSession() string {
	return "it-" + uuid.New().String() + "@example.com"
}
