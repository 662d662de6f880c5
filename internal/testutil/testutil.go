//go:build integration

// Package testutil provides test helpers for integration tests that need a
// real Redis.
package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAddr returns the address of the test Redis (IP:port). It first checks
// REPLSYNC_TEST_REDIS_ADDR, then discovers the Docker container IP.
func RedisAddr() string {
	if addr := os.Getenv("REPLSYNC_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}

	ip := redisContainerIP()
	if ip == "" {
		return ""
	}
	return ip + ":6379"
}

func redisContainerIP() string {
	out, err := exec.Command("docker", "inspect",
		"--format", "{{range .NetworkSettings.Networks}}{{.IPAddress}}{{end}}",
		"replsync-test-redis").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// SkipIfNoRedis skips the test if the test Redis is not reachable.
func SkipIfNoRedis(t *testing.T) {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skip("test Redis not available: set REPLSYNC_TEST_REDIS_ADDR or start replsync-test-redis")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
}

var namespaceSeq int64

// UniqueNamespace returns a P4RT namespace private to the calling test so
// tests sharing one Redis do not see each other's keys.
func UniqueNamespace(t *testing.T) string {
	t.Helper()
	n := atomic.AddInt64(&namespaceSeq, 1)
	return fmt.Sprintf("P4RT_TABLE_TEST_%d_%d", os.Getpid(), n)
}
