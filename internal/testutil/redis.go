//go:build integration

package testutil

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
)

// SeedHash writes one hash at "<namespace>:<key>" in the given DB. An empty
// field map writes the NULL sentinel so the key exists.
func SeedHash(t *testing.T, addr string, db int, namespace, key string, fields map[string]string) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	redisKey := namespace + ":" + key
	if len(fields) == 0 {
		fields = map[string]string{"NULL": "NULL"}
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	if err := client.HSet(context.Background(), redisKey, args...).Err(); err != nil {
		t.Fatalf("seeding %s: %v", redisKey, err)
	}
}

// ReadHash reads "<namespace>:<key>" from the given DB.
func ReadHash(t *testing.T, addr string, db int, namespace, key string) map[string]string {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer client.Close()

	redisKey := namespace + ":" + key
	vals, err := client.HGetAll(context.Background(), redisKey).Result()
	if err != nil {
		t.Fatalf("reading %s: %v", redisKey, err)
	}
	return vals
}

// FlushNamespace deletes every key under "<namespace>:" and registers the same
// cleanup to run when the test ends.
func FlushNamespace(t *testing.T, addr string, db int, namespace string) {
	t.Helper()

	flush := func() {
		client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
		defer client.Close()

		ctx := context.Background()
		var cursor uint64
		for {
			keys, next, err := client.Scan(ctx, cursor, namespace+":*", 100).Result()
			if err != nil {
				t.Fatalf("scanning %s: %v", namespace, err)
			}
			if len(keys) > 0 {
				if err := client.Del(ctx, keys...).Err(); err != nil {
					t.Fatalf("flushing %s: %v", namespace, err)
				}
			}
			cursor = next
			if cursor == 0 {
				return
			}
		}
	}
	flush()
	t.Cleanup(flush)
}
